// Package models holds predefined bucket definitions built from
// symbolic flux expressions.
package models

import (
	"fmt"
	"sort"

	"github.com/olivierbonte/hydromodels/internal/bucket"
	"github.com/olivierbonte/hydromodels/internal/expr"
	"github.com/olivierbonte/hydromodels/internal/hydro"
	"github.com/olivierbonte/hydromodels/internal/params"
)

// ExpHydro builds the two-state exp-hydro bucket: a snow store fed by
// threshold-partitioned precipitation and drained by degree-day melt,
// and a soil store drained by Hamon-PET evaporation, exponential
// baseflow and saturation-excess surface flow.
//
// Inputs: prcp, temp, lday. States: snowpack, soilwater.
// Parameters: Tmin, Tmax, Df, Smax, Qmax, f. Output of interest: flow.
func ExpHydro() (*bucket.Bucket, error) {
	fluxes, dfluxes, err := expHydroParts()
	if err != nil {
		return nil, err
	}
	return bucket.New("exphydro", fluxes, dfluxes)
}

func expHydroParts() ([]*hydro.Flux, []*hydro.StateFlux, error) {
	var fluxes []*hydro.Flux
	add := func(f *hydro.Flux, err error) error {
		if err != nil {
			return err
		}
		fluxes = append(fluxes, f)
		return nil
	}

	// Hamon potential evapotranspiration, lday as fraction of a day.
	pet := expr.Div(
		expr.Mul(expr.Mul(expr.Num(29.8*24*0.611), expr.Var("lday")),
			expr.Exp(expr.Div(expr.Mul(expr.Num(17.3), expr.Var("temp")),
				expr.Add(expr.Var("temp"), expr.Num(237.3))))),
		expr.Add(expr.Var("temp"), expr.Num(273.2)))

	steps := []error{
		add(expr.NewFlux([]string{"prcp", "temp"}, []string{"snowfall"}, []string{"Tmin"},
			expr.Mul(expr.Step(expr.Sub(expr.Param("Tmin"), expr.Var("temp"))), expr.Var("prcp")))),

		add(expr.NewFlux([]string{"prcp", "temp"}, []string{"rainfall"}, []string{"Tmin"},
			expr.Mul(expr.Step(expr.Sub(expr.Var("temp"), expr.Param("Tmin"))), expr.Var("prcp")))),

		add(expr.NewFlux([]string{"snowpack", "temp"}, []string{"melt"}, []string{"Tmax", "Df"},
			expr.Mul(expr.Step(expr.Sub(expr.Var("temp"), expr.Param("Tmax"))),
				expr.Min(expr.Var("snowpack"),
					expr.Mul(expr.Param("Df"), expr.Sub(expr.Var("temp"), expr.Param("Tmax"))))))),

		add(expr.NewFlux([]string{"temp", "lday"}, []string{"pet"}, nil, pet)),

		add(expr.NewFlux([]string{"soilwater", "pet"}, []string{"evap"}, []string{"Smax"},
			expr.Mul(expr.Var("pet"),
				expr.Min(expr.Num(1),
					expr.Max(expr.Num(0), expr.Div(expr.Var("soilwater"), expr.Param("Smax"))))))),

		add(expr.NewFlux([]string{"soilwater"}, []string{"baseflow"}, []string{"Smax", "Qmax", "f"},
			expr.Mul(expr.Step(expr.Var("soilwater")),
				expr.Mul(expr.Param("Qmax"),
					expr.Exp(expr.Neg(expr.Mul(expr.Param("f"),
						expr.Max(expr.Num(0), expr.Sub(expr.Param("Smax"), expr.Var("soilwater")))))))))),

		add(expr.NewFlux([]string{"soilwater"}, []string{"surfaceflow"}, []string{"Smax"},
			expr.Max(expr.Num(0), expr.Sub(expr.Var("soilwater"), expr.Param("Smax"))))),

		add(expr.NewFlux([]string{"baseflow", "surfaceflow"}, []string{"flow"}, nil,
			expr.Add(expr.Var("baseflow"), expr.Var("surfaceflow")))),
	}
	for _, err := range steps {
		if err != nil {
			return nil, nil, err
		}
	}

	dfluxes := []*hydro.StateFlux{
		hydro.NewStateFlux("snowpack", []string{"snowfall"}, []string{"melt"}),
		hydro.NewStateFlux("soilwater", []string{"rainfall", "melt"}, []string{"evap", "baseflow", "surfaceflow"}),
	}
	return fluxes, dfluxes, nil
}

// SnowBucket builds just the snow store: precipitation partitioning and
// degree-day melt. Useful on its own for snow-course calibration.
func SnowBucket() (*bucket.Bucket, error) {
	fluxes, dfluxes, err := expHydroParts()
	if err != nil {
		return nil, err
	}
	return bucket.New("snow", fluxes[:3], dfluxes[:1])
}

// DefaultParams returns the exp-hydro parameter set calibrated for the
// Leaf River basin, a common starting point.
func DefaultParams() *params.ParamStates {
	return params.New(
		map[string]float64{
			"Tmin": -2.093, "Tmax": 0.1757, "Df": 2.674,
			"Smax": 1709.46, "Qmax": 18.47, "f": 0.0167,
		},
		map[string]float64{"snowpack": 0, "soilwater": 1303.0},
	)
}

// Bounds returns calibration ranges for the exp-hydro parameters.
func Bounds() map[string][2]float64 {
	return map[string][2]float64{
		"Tmin": {-3.0, 0.0},
		"Tmax": {0.0, 3.0},
		"Df":   {0.0, 5.0},
		"Smax": {100.0, 2000.0},
		"Qmax": {10.0, 50.0},
		"f":    {0.0, 0.1},
	}
}

// Build resolves a model by name.
func Build(name string) (*bucket.Bucket, error) {
	ctor, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("models: unknown model %q", name)
	}
	return ctor()
}

// Names lists the registered model names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var registry = map[string]func() (*bucket.Bucket, error){
	"exphydro": ExpHydro,
	"snow":     SnowBucket,
}
