// Package hydro provides the core primitives for lumped hydrological
// bucket models.
//
// A model is assembled from small named parts:
//
//   - [Flux]: a pure algebraic function from named inputs and parameters
//     to named outputs (snowfall partitioning, melt, evaporation, ...)
//   - [StateFlux]: the time-derivative of one storage state, defined as
//     the signed sum of contributing fluxes (dS/dt = inflows - outflows)
//   - [Graph]: the resolved system - flux evaluation order, external
//     input set, and the two callables a bucket executes
//
// The resulting ODE system dX/dt = f(X, forcing(t), theta) is integrated
// by the solver package; the bucket package drives the full call chain.
//
// Graph construction fails fast: cyclic flux dependencies and duplicate
// state ownership are reported before any simulation runs.
package hydro
