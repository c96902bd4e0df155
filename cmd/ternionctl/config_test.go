package main

import (
	"encoding/json"
	"flag"
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, payload map[string]any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadSurveyRequestFromConfig(t *testing.T) {
	path := writeConfig(t, map[string]any{
		"run_id":         "nightly",
		"matrix":         "anna",
		"inputs":         250,
		"seed":           42,
		"max_steps":      500,
		"history_window": 32,
		"workers":        8,
	})

	req, err := loadSurveyRequestFromConfig(path)
	if err != nil {
		t.Fatalf("load survey request: %v", err)
	}
	if req.RunID != "nightly" || req.Matrix != "anna" {
		t.Fatalf("unexpected identity fields: %+v", req)
	}
	if req.InputCount != 250 || req.Seed != 42 {
		t.Fatalf("unexpected trial fields: %+v", req)
	}
	if req.MaxSteps != 500 || req.HistoryWindow != 32 || req.Workers != 8 {
		t.Fatalf("unexpected simulation fields: %+v", req)
	}
}

func TestLoadTestRequestFromConfig(t *testing.T) {
	path := writeConfig(t, map[string]any{
		"matrix":    "anna",
		"statistic": "symmetry_exceptions",
		"family":    "symmetric",
		"direction": "le",
		"trials":    2000,
		"alpha":     0.001,
		"num_tests": 5,
		"seed":      7,
	})

	req, err := loadTestRequestFromConfig(path)
	if err != nil {
		t.Fatalf("load test request: %v", err)
	}
	if req.Statistic != "symmetry_exceptions" || req.Family != "symmetric" || req.Direction != "le" {
		t.Fatalf("unexpected test selection: %+v", req)
	}
	if req.Trials != 2000 || req.Alpha != 0.001 || req.NumTests != 5 {
		t.Fatalf("unexpected correction fields: %+v", req)
	}
	if req.Seed != 7 {
		t.Fatalf("unexpected seed: %d", req.Seed)
	}
}

func TestLoadRequestFromConfigRejectsBadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := loadSurveyRequestFromConfig(path); err == nil {
		t.Fatal("expected parse error")
	}
	if _, err := loadTestRequestFromConfig(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestFlagsOverrideConfigValues(t *testing.T) {
	path := writeConfig(t, map[string]any{
		"matrix": "anna",
		"trials": 100,
		"alpha":  0.05,
	})
	req, err := loadOrDefaultTestRequest(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	trials := fs.Int("trials", 0, "")
	alpha := fs.Float64("alpha", 0, "")
	seed := fs.Int64("seed", 0, "")
	if err := fs.Parse([]string{"-trials", "500"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	overrideTestFromFlags(&req, fs, map[string]any{
		"trials": *trials,
		"alpha":  *alpha,
		"seed":   *seed,
	})
	if req.Trials != 500 {
		t.Fatalf("explicit flag should override config: %d", req.Trials)
	}
	if req.Alpha != 0.05 {
		t.Fatalf("unset flag should keep config value: %v", req.Alpha)
	}
	if req.Matrix != "anna" {
		t.Fatalf("config fields without flags must survive: %+v", req)
	}
}

func TestCoercionHelpers(t *testing.T) {
	if v, ok := asInt(float64(7)); !ok || v != 7 {
		t.Fatalf("asInt from float64: %d %v", v, ok)
	}
	if _, ok := asInt("7"); ok {
		t.Fatal("asInt must reject strings")
	}
	if v, ok := asInt64(float64(9)); !ok || v != 9 {
		t.Fatalf("asInt64 from float64: %d %v", v, ok)
	}
	if v, ok := asFloat64(3); !ok || v != 3 {
		t.Fatalf("asFloat64 from int: %v %v", v, ok)
	}
	if v, ok := asString("x"); !ok || v != "x" {
		t.Fatalf("asString: %q %v", v, ok)
	}
}
