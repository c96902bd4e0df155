package ternion

import (
	"context"
	"strings"
	"testing"

	"ternion/internal/model"
)

const fixtureMatrix = `0 1 -1 0
1 0 0 -1
-1 0 0 1
0 -1 1 0
`

func newTestClient(t *testing.T) *Client {
	t.Helper()
	client, err := New(Options{StoreKind: "memory"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	t.Cleanup(func() {
		_ = client.Close()
	})
	return client
}

func loadFixture(t *testing.T, client *Client, name string) {
	t.Helper()
	summary, err := client.Load(context.Background(), LoadRequest{
		Name:   name,
		Reader: strings.NewReader(fixtureMatrix),
	})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if summary.N != 4 || summary.Substitutions != 0 {
		t.Fatalf("unexpected load summary: %+v", summary)
	}
}

func TestClientLoadSurveyAndResults(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)
	loadFixture(t, client, "anna")

	matrices, err := client.Matrices(ctx)
	if err != nil {
		t.Fatalf("matrices: %v", err)
	}
	if len(matrices) != 1 || matrices[0] != "anna" {
		t.Fatalf("unexpected matrices: %v", matrices)
	}

	record, err := client.Survey(ctx, SurveyRequest{
		Matrix:     "anna",
		InputCount: 20,
		Seed:       9,
		Workers:    2,
	})
	if err != nil {
		t.Fatalf("survey: %v", err)
	}
	if record.Inputs != 20 {
		t.Fatalf("inputs=%d, want 20", record.Inputs)
	}
	if record.Converged+record.Exhausted != 20 {
		t.Fatalf("converged=%d exhausted=%d, want total 20", record.Converged, record.Exhausted)
	}

	result, err := client.Test(ctx, TestRequest{
		RunID:     "campaign",
		Matrix:    "anna",
		Statistic: "abs_sum",
		Family:    "uniform",
		Direction: "ge",
		Trials:    25,
		Alpha:     0.05,
		NumTests:  1,
		Seed:      13,
	})
	if err != nil {
		t.Fatalf("test: %v", err)
	}
	if result.Trials != 25 || result.Threshold != 0.05 {
		t.Fatalf("unexpected result: %+v", result)
	}

	results, err := client.Results(ctx, "campaign")
	if err != nil {
		t.Fatalf("results: %v", err)
	}
	if len(results) != 1 || results[0].Name != "abs_sum" {
		t.Fatalf("unexpected results: %+v", results)
	}

	runs, err := client.Runs(ctx, RunsRequest{})
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("unexpected runs: %v", runs)
	}
}

func TestClientAttractorsCanonicalCycle(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	if _, err := client.Load(ctx, LoadRequest{
		Name:   "flip",
		Reader: strings.NewReader("-1 0\n0 -1\n"),
	}); err != nil {
		t.Fatalf("load: %v", err)
	}

	report, err := client.Attractors(ctx, AttractorsRequest{
		Matrix: "flip",
		Start:  model.State{1, -1},
	})
	if err != nil {
		t.Fatalf("attractors: %v", err)
	}
	if report.Reason != "cycle" {
		t.Fatalf("reason=%s, want cycle", report.Reason)
	}
	if len(report.Cycle) != 2 {
		t.Fatalf("cycle length=%d, want 2", len(report.Cycle))
	}
	// Canonical rotation starts at the lexicographically smallest state.
	if !report.Cycle[0].Equal(model.State{-1, 1}) {
		t.Fatalf("unexpected canonical head: %v", report.Cycle[0])
	}
}

func TestClientTestDefaults(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)
	loadFixture(t, client, "anna")

	result, err := client.Test(ctx, TestRequest{Matrix: "anna", Trials: 10, Seed: 1})
	if err != nil {
		t.Fatalf("test: %v", err)
	}
	if result.Name != "total_sum" {
		t.Fatalf("default statistic=%s, want total_sum", result.Name)
	}
	if result.Family != model.FamilyUniform || result.Direction != model.DirectionAbs {
		t.Fatalf("unexpected defaults: %+v", result)
	}
	if result.Alpha != 0.05 || result.NumTests != 1 {
		t.Fatalf("unexpected correction defaults: %+v", result)
	}
}

func TestClientLoadValidation(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	if _, err := client.Load(ctx, LoadRequest{Reader: strings.NewReader("0\n")}); err == nil {
		t.Fatal("expected missing name error")
	}
	if _, err := client.Load(ctx, LoadRequest{Name: "anna"}); err == nil {
		t.Fatal("expected missing source error")
	}
	if _, err := client.Load(ctx, LoadRequest{
		Name:   "ragged",
		Reader: strings.NewReader("1 2\n3\n"),
	}); err == nil {
		t.Fatal("expected malformed matrix error")
	}
}

func TestClientResetClearsEverything(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)
	loadFixture(t, client, "anna")

	if err := client.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}
	matrices, err := client.Matrices(ctx)
	if err != nil {
		t.Fatalf("matrices: %v", err)
	}
	if len(matrices) != 0 {
		t.Fatalf("expected empty store after reset: %v", matrices)
	}
	if _, err := client.Results(ctx, "campaign"); err == nil {
		t.Fatal("expected missing run error")
	}
}

func TestClientStatisticsListsBuiltins(t *testing.T) {
	client := newTestClient(t)
	names := client.Statistics()
	want := map[string]bool{
		"total_sum":           false,
		"abs_sum":             false,
		"zero_count":          false,
		"diagonal_sum":        false,
		"symmetry_exceptions": false,
		"distinct_attractors": false,
	}
	for _, name := range names {
		if _, ok := want[name]; ok {
			want[name] = true
		}
	}
	for name, seen := range want {
		if !seen {
			t.Fatalf("built-in statistic %s missing from %v", name, names)
		}
	}
}
