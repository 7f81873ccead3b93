package config

// Presets are ready-made run configurations per model.
var Presets = map[string]map[string]*Config{
	"exphydro": {
		"leafriver": {
			Model: "exphydro", Solver: "euler",
			Params: map[string]float64{
				"Tmin": -2.093, "Tmax": 0.1757, "Df": 2.674,
				"Smax": 1709.46, "Qmax": 18.47, "f": 0.0167,
			},
			InitStates: map[string]float64{"snowpack": 0, "soilwater": 1303.0},
			Calibrate: CalibrateConfig{
				Metric: "nse", Iterations: 5000, Warmup: 365,
				Tunable: map[string][2]float64{
					"Tmin": {-3, 0}, "Tmax": {0, 3}, "Df": {0, 5},
					"Smax": {100, 2000}, "Qmax": {10, 50}, "f": {0, 0.1},
				},
			},
		},
		"adaptive": {
			Model: "exphydro", Solver: "rk45",
			Params: map[string]float64{
				"Tmin": -2.093, "Tmax": 0.1757, "Df": 2.674,
				"Smax": 1709.46, "Qmax": 18.47, "f": 0.0167,
			},
			InitStates: map[string]float64{"snowpack": 0, "soilwater": 1303.0},
			Calibrate: CalibrateConfig{
				Metric: "kge", Iterations: 2000, Warmup: 365,
			},
		},
	},
	"snow": {
		"alpine": {
			Model: "snow", Solver: "euler",
			Params:     map[string]float64{"Tmin": -1.0, "Tmax": 0.5, "Df": 3.0},
			InitStates: map[string]float64{"snowpack": 0},
			Calibrate: CalibrateConfig{
				Metric: "rmse", Iterations: 1000, Warmup: 0,
				Tunable: map[string][2]float64{
					"Tmin": {-3, 0}, "Tmax": {0, 3}, "Df": {0, 5},
				},
			},
		},
	},
}

// GetPreset returns the named preset for a model, or nil.
func GetPreset(model, name string) *Config {
	m, ok := Presets[model]
	if !ok {
		return nil
	}
	return m[name]
}

// ListPresets names the presets available for a model.
func ListPresets(model string) []string {
	m, ok := Presets[model]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(m))
	for n := range m {
		names = append(names, n)
	}
	return names
}
