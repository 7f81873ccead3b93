// Package forcing carries observed meteorological input as named
// channels over a shared time index. Loading from files is the caller's
// concern; the engine only needs aligned arrays.
package forcing

import (
	"errors"
	"fmt"
)

// Conventional channel names.
const (
	Prcp = "prcp" // precipitation
	Temp = "temp" // mean air temperature
	Lday = "lday" // day length fraction
	Flow = "flow" // observed streamflow, used as calibration target
)

var ErrUnknownChannel = errors.New("forcing: unknown channel")

// Series is an ordered collection of named channels sharing one time
// index.
type Series struct {
	Times []float64

	names []string
	data  map[string][]float64
}

func NewSeries(times []float64) *Series {
	return &Series{Times: times, data: make(map[string][]float64)}
}

// Add registers a channel. Length must match the time index; re-adding
// a name replaces its values but keeps its position.
func (s *Series) Add(name string, values []float64) error {
	if len(values) != len(s.Times) {
		return fmt.Errorf("forcing: channel %q has %d values for %d times", name, len(values), len(s.Times))
	}
	if _, seen := s.data[name]; !seen {
		s.names = append(s.names, name)
	}
	s.data[name] = values
	return nil
}

func (s *Series) Names() []string { return s.names }

func (s *Series) Len() int { return len(s.Times) }

func (s *Series) Get(name string) ([]float64, error) {
	v, ok := s.data[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownChannel, name)
	}
	return v, nil
}

// Matrix assembles the variables-by-time input array a bucket call
// expects, one row per requested name in the requested order.
func (s *Series) Matrix(names []string) ([][]float64, error) {
	out := make([][]float64, len(names))
	for i, name := range names {
		v, err := s.Get(name)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
