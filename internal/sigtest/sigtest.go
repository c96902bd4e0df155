package sigtest

import (
	"errors"
	"fmt"
	"math"

	"ternion/internal/model"
)

var (
	ErrInvalidTrialCount   = errors.New("trial count must be positive")
	ErrInvalidExtremeCount = errors.New("extreme count out of range")
	ErrInvalidTestCount    = errors.New("test family size must be at least 1")
	ErrInvalidAlpha        = errors.New("alpha must be in (0, 1]")
	ErrInvalidDirection    = errors.New("unsupported direction")
)

// CorrectionBonferroni is the only correction method this core applies.
const CorrectionBonferroni = "bonferroni"

// EmpiricalPValue is the fraction of trials at least as extreme as the
// observation.
func EmpiricalPValue(extremeCount, trials int) (float64, error) {
	if trials <= 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidTrialCount, trials)
	}
	if extremeCount < 0 || extremeCount > trials {
		return 0, fmt.Errorf("%w: %d of %d", ErrInvalidExtremeCount, extremeCount, trials)
	}
	return float64(extremeCount) / float64(trials), nil
}

// BonferroniThreshold divides alpha by the number of simultaneous tests.
func BonferroniThreshold(alpha float64, numTests int) (float64, error) {
	if alpha <= 0 || alpha > 1 {
		return 0, fmt.Errorf("%w: %g", ErrInvalidAlpha, alpha)
	}
	if numTests < 1 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidTestCount, numTests)
	}
	return alpha / float64(numTests), nil
}

// Params declares one significance evaluation. NumTests is the size of
// the jointly tested hypothesis family and must be stated at the call
// site, before statistics are computed: enlarging the family after seeing
// results has no hook here.
type Params struct {
	Name      string
	Family    model.ControlFamily
	Direction model.Direction
	Alpha     float64
	NumTests  int
}

// Extreme reports whether a control statistic is at least as extreme as
// the observation in the declared direction.
func Extreme(direction model.Direction, observed, control float64) (bool, error) {
	switch direction {
	case model.DirectionGE:
		return control >= observed, nil
	case model.DirectionLE:
		return control <= observed, nil
	case model.DirectionAbs:
		return math.Abs(control) >= math.Abs(observed), nil
	default:
		return false, fmt.Errorf("%w: %s", ErrInvalidDirection, direction)
	}
}

// Evaluate counts controls at least as extreme as the observed statistic,
// computes the empirical p-value, and compares it to the
// Bonferroni-corrected threshold. The verdict is pValue < threshold.
func Evaluate(observed float64, controls []float64, params Params) (model.TestResult, error) {
	if len(controls) == 0 {
		return model.TestResult{}, fmt.Errorf("%w: no control statistics", ErrInvalidTrialCount)
	}

	extremeCount := 0
	for _, control := range controls {
		extreme, err := Extreme(params.Direction, observed, control)
		if err != nil {
			return model.TestResult{}, err
		}
		if extreme {
			extremeCount++
		}
	}

	pValue, err := EmpiricalPValue(extremeCount, len(controls))
	if err != nil {
		return model.TestResult{}, err
	}
	threshold, err := BonferroniThreshold(params.Alpha, params.NumTests)
	if err != nil {
		return model.TestResult{}, err
	}

	return model.TestResult{
		Name:         params.Name,
		Family:       params.Family,
		Direction:    params.Direction,
		Observed:     observed,
		Trials:       len(controls),
		ExtremeCount: extremeCount,
		PValue:       pValue,
		Alpha:        params.Alpha,
		NumTests:     params.NumTests,
		Correction:   CorrectionBonferroni,
		Threshold:    threshold,
		Significant:  pValue < threshold,
	}, nil
}
