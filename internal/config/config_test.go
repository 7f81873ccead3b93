package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Model != "exphydro" || cfg.Solver != "euler" {
		t.Errorf("defaults = %s/%s, want exphydro/euler", cfg.Model, cfg.Solver)
	}
	if cfg.Calibrate.Metric != "nse" || cfg.Calibrate.Iterations != 5000 {
		t.Errorf("calibrate defaults wrong: %+v", cfg.Calibrate)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Solver = "rk45"
	cfg.Params = map[string]float64{"Smax": 1709.46, "f": 0.0167}
	cfg.InitStates = map[string]float64{"soilwater": 1303.0}
	cfg.Calibrate.Seed = 7
	cfg.Calibrate.Tunable = map[string][2]float64{"f": {0, 0.1}}

	path := filepath.Join(t.TempDir(), "run.yaml")
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Solver != "rk45" {
		t.Errorf("solver = %s, want rk45", got.Solver)
	}
	if got.Params["Smax"] != 1709.46 {
		t.Errorf("Smax = %v, want 1709.46", got.Params["Smax"])
	}
	if got.InitStates["soilwater"] != 1303.0 {
		t.Errorf("soilwater = %v, want 1303", got.InitStates["soilwater"])
	}
	if got.Calibrate.Seed != 7 {
		t.Errorf("seed = %d, want 7", got.Calibrate.Seed)
	}
	if b := got.Calibrate.Tunable["f"]; b != [2]float64{0, 0.1} {
		t.Errorf("tunable f = %v, want [0 0.1]", b)
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	if err := os.WriteFile(path, []byte("solver: rk45\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Solver != "rk45" {
		t.Errorf("solver = %s, want rk45", cfg.Solver)
	}
	if cfg.Model != DefaultModel || cfg.Calibrate.Warmup != DefaultWarmup {
		t.Errorf("unset fields should keep defaults: %+v", cfg)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestGetPreset(t *testing.T) {
	p := GetPreset("exphydro", "leafriver")
	if p == nil {
		t.Fatal("leafriver preset missing")
	}
	if p.Params["Smax"] != 1709.46 {
		t.Errorf("Smax = %v, want 1709.46", p.Params["Smax"])
	}
	if GetPreset("exphydro", "nope") != nil {
		t.Error("unknown preset should be nil")
	}
	if GetPreset("nope", "leafriver") != nil {
		t.Error("unknown model should be nil")
	}
}

func TestListPresets(t *testing.T) {
	names := ListPresets("exphydro")
	if len(names) != 2 {
		t.Errorf("presets = %v, want 2 entries", names)
	}
	if ListPresets("nope") != nil {
		t.Error("unknown model should list nil")
	}
}
