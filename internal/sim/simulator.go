package sim

import (
	"errors"
	"fmt"

	"ternion/internal/model"
)

// ErrDimensionMismatch marks a start vector whose length does not equal
// the weight matrix dimension.
var ErrDimensionMismatch = errors.New("dimension mismatch")

// Reason is the terminal state of a simulation run.
type Reason string

const (
	ReasonFixedPoint      Reason = "fixed_point"
	ReasonCycle           Reason = "cycle"
	ReasonBudgetExhausted Reason = "budget_exhausted"
)

const (
	// DefaultMaxSteps is the step budget. It doubles as the timeout
	// mechanism: there is no wall-clock bound.
	DefaultMaxSteps = 200

	// DefaultHistoryWindow bounds the cycle-detection history. The
	// natural dynamics settle into short cycles; anything below
	// MinHistoryWindow risks missing longer periods.
	DefaultHistoryWindow = 64
	MinHistoryWindow     = 16
)

// Options tune one run. Zero values select the defaults.
type Options struct {
	MaxSteps      int
	HistoryWindow int
}

func (o Options) normalize() Options {
	if o.MaxSteps <= 0 {
		o.MaxSteps = DefaultMaxSteps
	}
	if o.HistoryWindow <= 0 {
		o.HistoryWindow = DefaultHistoryWindow
	}
	return o
}

// Result reports the detected cycle, the steps taken to reach it, and the
// terminal reason. ReasonBudgetExhausted is a normal outcome, not an
// error: the caller decides how to treat non-convergence.
type Result struct {
	Cycle  []model.State `json:"cycle"`
	Steps  int           `json:"steps"`
	Reason Reason        `json:"reason"`
}

// Converged reports whether the run ended in a fixed point or cycle.
func (r Result) Converged() bool {
	return r.Reason == ReasonFixedPoint || r.Reason == ReasonCycle
}

// AllOnes is the conventional start vector when the caller gives none.
func AllOnes(n int) model.State {
	state := make(model.State, n)
	for i := range state {
		state[i] = 1
	}
	return state
}

// TernaryClamp maps a value to {-1, 0, +1} by sign.
func TernaryClamp(x int) int8 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return 0
	}
}

// Step applies one recurrent update: next = ternaryClamp(W · current),
// component-wise over the matrix-vector product.
func Step(weights model.Matrix, current model.State) model.State {
	next := make(model.State, weights.N)
	for i := 0; i < weights.N; i++ {
		sum := 0
		row := weights.Cells[i]
		for j, s := range current {
			if s != 0 {
				sum += row[j] * int(s)
			}
		}
		next[i] = TernaryClamp(sum)
	}
	return next
}

// Run iterates the update rule until the new state matches one kept in
// the bounded history, or the step budget runs out. The detected cycle is
// the span from the earlier occurrence up to the state before the repeat;
// a span of one state is a fixed point. Steps counts the transitions that
// reached previously unseen states. The update rule is deterministic, so
// identical inputs always yield identical results.
func Run(weights model.Matrix, start model.State, opts Options) (Result, error) {
	if weights.N == 0 || len(weights.Cells) != weights.N {
		return Result{}, fmt.Errorf("%w: weight matrix is not square", ErrDimensionMismatch)
	}
	for i, row := range weights.Cells {
		if len(row) != weights.N {
			return Result{}, fmt.Errorf("%w: weight row %d has %d cells, want %d", ErrDimensionMismatch, i, len(row), weights.N)
		}
	}
	if start == nil {
		start = AllOnes(weights.N)
	}
	if len(start) != weights.N {
		return Result{}, fmt.Errorf("%w: vector length %d, matrix dimension %d", ErrDimensionMismatch, len(start), weights.N)
	}
	opts = opts.normalize()

	history := make([]model.State, 0, opts.HistoryWindow)
	history = append(history, start.Clone())
	current := start

	for step := 1; step <= opts.MaxSteps; step++ {
		next := Step(weights, current)

		for i := len(history) - 1; i >= 0; i-- {
			if !history[i].Equal(next) {
				continue
			}
			cycle := make([]model.State, 0, len(history)-i)
			for _, s := range history[i:] {
				cycle = append(cycle, s.Clone())
			}
			reason := ReasonCycle
			if len(cycle) == 1 {
				reason = ReasonFixedPoint
			}
			return Result{Cycle: cycle, Steps: step - 1, Reason: reason}, nil
		}

		history = append(history, next)
		if len(history) > opts.HistoryWindow {
			history = history[1:]
		}
		current = next
	}

	return Result{Steps: opts.MaxSteps, Reason: ReasonBudgetExhausted}, nil
}
