package hydro

import "errors"

// Construction errors, raised at graph build time before any simulation.
var (
	// ErrCyclicFlux indicates a dependency cycle among algebraic fluxes.
	ErrCyclicFlux = errors.New("hydro: cyclic flux dependency")

	// ErrDuplicateState indicates two StateFluxes own the same state name.
	ErrDuplicateState = errors.New("hydro: duplicate state ownership")

	// ErrBadFlux indicates a malformed flux definition (no outputs, nil
	// callable, or a dimension mismatch on a neural module).
	ErrBadFlux = errors.New("hydro: malformed flux definition")
)
