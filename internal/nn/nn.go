// Package nn provides a reference implementation of the opaque neural
// module contract: a dense feed-forward network whose weights and biases
// live in one flat parameter vector. Hybrid models replace an empirical
// flux equation with such a module while calibration treats the vector
// as just more tunables under the nn namespace.
package nn

import "math"

// Dense is a fully connected feed-forward net with tanh hidden layers
// and a linear output layer. Layer sizes include input and output
// widths, e.g. NewDense("etnn", 3, 16, 1).
type Dense struct {
	name  string
	sizes []int
	count int
}

func NewDense(name string, sizes ...int) *Dense {
	d := &Dense{name: name, sizes: sizes}
	for l := 1; l < len(sizes); l++ {
		d.count += (sizes[l-1] + 1) * sizes[l] // weights plus biases
	}
	return d
}

func (d *Dense) Name() string    { return d.name }
func (d *Dense) InDim() int      { return d.sizes[0] }
func (d *Dense) OutDim() int     { return d.sizes[len(d.sizes)-1] }
func (d *Dense) ParamCount() int { return d.count }

// Apply runs the forward pass. params layout per layer: row-major
// weights (out x in) followed by biases.
func (d *Dense) Apply(inputs, params []float64) []float64 {
	act := append([]float64(nil), inputs...)
	off := 0
	for l := 1; l < len(d.sizes); l++ {
		in, out := d.sizes[l-1], d.sizes[l]
		next := make([]float64, out)
		for j := 0; j < out; j++ {
			sum := 0.0
			for i := 0; i < in; i++ {
				sum += params[off+j*in+i] * act[i]
			}
			sum += params[off+in*out+j]
			if l < len(d.sizes)-1 {
				sum = math.Tanh(sum)
			}
			next[j] = sum
		}
		off += (in + 1) * out
		act = next
	}
	return act
}
