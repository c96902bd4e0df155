package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	ternapi "ternion/pkg/ternion"
)

func loadSurveyRequestFromConfig(path string) (ternapi.SurveyRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ternapi.SurveyRequest{}, err
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return ternapi.SurveyRequest{}, err
	}

	var req ternapi.SurveyRequest
	if v, ok := asString(raw["run_id"]); ok {
		req.RunID = v
	}
	if v, ok := asString(raw["matrix"]); ok {
		req.Matrix = v
	}
	if v, ok := asInt(raw["inputs"]); ok {
		req.InputCount = v
	}
	if v, ok := asInt64(raw["seed"]); ok {
		req.Seed = v
	}
	if v, ok := asInt(raw["max_steps"]); ok {
		req.MaxSteps = v
	}
	if v, ok := asInt(raw["history_window"]); ok {
		req.HistoryWindow = v
	}
	if v, ok := asInt(raw["workers"]); ok {
		req.Workers = v
	}
	return req, nil
}

func loadTestRequestFromConfig(path string) (ternapi.TestRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ternapi.TestRequest{}, err
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return ternapi.TestRequest{}, err
	}

	var req ternapi.TestRequest
	if v, ok := asString(raw["run_id"]); ok {
		req.RunID = v
	}
	if v, ok := asString(raw["matrix"]); ok {
		req.Matrix = v
	}
	if v, ok := asString(raw["statistic"]); ok {
		req.Statistic = v
	}
	if v, ok := asString(raw["family"]); ok {
		req.Family = v
	}
	if v, ok := asString(raw["direction"]); ok {
		req.Direction = v
	}
	if v, ok := asInt(raw["trials"]); ok {
		req.Trials = v
	}
	if v, ok := asFloat64(raw["alpha"]); ok {
		req.Alpha = v
	}
	if v, ok := asInt(raw["num_tests"]); ok {
		req.NumTests = v
	}
	if v, ok := asInt64(raw["seed"]); ok {
		req.Seed = v
	}
	if v, ok := asInt(raw["workers"]); ok {
		req.Workers = v
	}
	return req, nil
}

func loadOrDefaultSurveyRequest(configPath string) (ternapi.SurveyRequest, error) {
	if configPath == "" {
		return ternapi.SurveyRequest{}, nil
	}
	req, err := loadSurveyRequestFromConfig(configPath)
	if err != nil {
		return ternapi.SurveyRequest{}, fmt.Errorf("load config: %w", err)
	}
	return req, nil
}

func loadOrDefaultTestRequest(configPath string) (ternapi.TestRequest, error) {
	if configPath == "" {
		return ternapi.TestRequest{}, nil
	}
	req, err := loadTestRequestFromConfig(configPath)
	if err != nil {
		return ternapi.TestRequest{}, fmt.Errorf("load config: %w", err)
	}
	return req, nil
}

// explicitFlags records which flags were actually set on the command
// line, so they override config file values without clobbering them
// with zero defaults.
func explicitFlags(fs *flag.FlagSet) map[string]bool {
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		set[f.Name] = true
	})
	return set
}

func overrideSurveyFromFlags(req *ternapi.SurveyRequest, fs *flag.FlagSet, flagValue map[string]any) {
	for name := range explicitFlags(fs) {
		v, ok := flagValue[name]
		if !ok {
			continue
		}
		switch name {
		case "run-id":
			req.RunID = v.(string)
		case "matrix":
			req.Matrix = v.(string)
		case "inputs":
			req.InputCount = v.(int)
		case "seed":
			req.Seed = v.(int64)
		case "max-steps":
			req.MaxSteps = v.(int)
		case "history-window":
			req.HistoryWindow = v.(int)
		case "workers":
			req.Workers = v.(int)
		}
	}
}

func overrideTestFromFlags(req *ternapi.TestRequest, fs *flag.FlagSet, flagValue map[string]any) {
	for name := range explicitFlags(fs) {
		v, ok := flagValue[name]
		if !ok {
			continue
		}
		switch name {
		case "run-id":
			req.RunID = v.(string)
		case "matrix":
			req.Matrix = v.(string)
		case "statistic":
			req.Statistic = v.(string)
		case "family":
			req.Family = v.(string)
		case "direction":
			req.Direction = v.(string)
		case "trials":
			req.Trials = v.(int)
		case "alpha":
			req.Alpha = v.(float64)
		case "num-tests":
			req.NumTests = v.(int)
		case "seed":
			req.Seed = v.(int64)
		case "workers":
			req.Workers = v.(int)
		}
	}
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func asInt(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case float64:
		return int(x), true
	default:
		return 0, false
	}
}

func asInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case int:
		return int64(x), true
	case float64:
		return int64(x), true
	default:
		return 0, false
	}
}

func asFloat64(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	default:
		return 0, false
	}
}
