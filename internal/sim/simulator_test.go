package sim

import (
	"errors"
	"testing"

	"ternion/internal/model"
)

func zeroMatrix(n int) model.Matrix {
	cells := make([][]int, n)
	for i := range cells {
		cells[i] = make([]int, n)
	}
	return model.Matrix{N: n, Cells: cells}
}

func TestTernaryClampIdempotent(t *testing.T) {
	for _, x := range []int{-4096, -128, -1, 0, 1, 127, 4096} {
		once := TernaryClamp(x)
		twice := TernaryClamp(int(once))
		if once != twice {
			t.Fatalf("clamp not idempotent for %d: once=%d twice=%d", x, once, twice)
		}
	}
}

func TestZeroMatrixFixedPointAfterOneStep(t *testing.T) {
	result, err := Run(zeroMatrix(4), model.State{1, 1, 1, 1}, Options{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Reason != ReasonFixedPoint {
		t.Fatalf("unexpected reason: got=%s want=%s", result.Reason, ReasonFixedPoint)
	}
	if result.Steps != 1 {
		t.Fatalf("unexpected steps: got=%d want=1", result.Steps)
	}
	if len(result.Cycle) != 1 || !result.Cycle[0].Equal(model.State{0, 0, 0, 0}) {
		t.Fatalf("unexpected cycle: %v", result.Cycle)
	}
}

func TestNegativeIdentityTwoCycle(t *testing.T) {
	weights := model.Matrix{N: 2, Cells: [][]int{{-1, 0}, {0, -1}}}
	result, err := Run(weights, model.State{1, -1}, Options{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Reason != ReasonCycle {
		t.Fatalf("unexpected reason: got=%s want=%s", result.Reason, ReasonCycle)
	}
	if len(result.Cycle) != 2 {
		t.Fatalf("unexpected cycle length: got=%d want=2", len(result.Cycle))
	}
	if !result.Converged() {
		t.Fatal("expected converged result")
	}
}

func TestStartAlreadyFixedPoint(t *testing.T) {
	// Identity weights keep any ternary state where it is.
	weights := model.Matrix{N: 3, Cells: [][]int{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}}
	result, err := Run(weights, model.State{1, 0, -1}, Options{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Reason != ReasonFixedPoint {
		t.Fatalf("unexpected reason: %s", result.Reason)
	}
	if result.Steps != 0 {
		t.Fatalf("unexpected steps: got=%d want=0", result.Steps)
	}
}

func TestRunIsDeterministic(t *testing.T) {
	weights := model.Matrix{N: 4, Cells: [][]int{
		{0, 2, -1, 3},
		{-2, 0, 1, -1},
		{1, -3, 0, 2},
		{-1, 1, -2, 0},
	}}
	start := model.State{1, -1, 1, 1}

	first, err := Run(weights, start, Options{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	second, err := Run(weights, start, Options{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if first.Steps != second.Steps || first.Reason != second.Reason {
		t.Fatalf("runs diverged: first=%+v second=%+v", first, second)
	}
	if len(first.Cycle) != len(second.Cycle) {
		t.Fatalf("cycle lengths diverged: %d vs %d", len(first.Cycle), len(second.Cycle))
	}
	for i := range first.Cycle {
		if !first.Cycle[i].Equal(second.Cycle[i]) {
			t.Fatalf("cycle state %d diverged", i)
		}
	}
}

func TestDefaultStartIsAllOnes(t *testing.T) {
	result, err := Run(zeroMatrix(3), nil, Options{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Reason != ReasonFixedPoint {
		t.Fatalf("unexpected reason: %s", result.Reason)
	}
}

func TestDimensionMismatch(t *testing.T) {
	_, err := Run(zeroMatrix(4), model.State{1, 1}, Options{})
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("expected dimension mismatch, got %v", err)
	}
}

func TestBudgetExhaustedIsNotAnError(t *testing.T) {
	// A tiny history window cannot see a 2-cycle, so the run burns its
	// whole budget without detecting repetition.
	weights := model.Matrix{N: 2, Cells: [][]int{{-1, 0}, {0, -1}}}
	result, err := Run(weights, model.State{1, -1}, Options{MaxSteps: 10, HistoryWindow: 1})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Reason != ReasonBudgetExhausted {
		t.Fatalf("unexpected reason: %s", result.Reason)
	}
	if result.Steps != 10 {
		t.Fatalf("unexpected steps: got=%d want=10", result.Steps)
	}
	if result.Converged() {
		t.Fatal("budget exhaustion must not report convergence")
	}
}
