package stat

import (
	"math"

	"ternion/internal/attractor"
	"ternion/internal/matrix"
	"ternion/internal/model"
	"ternion/internal/sim"
)

// maxProbeBasisVectors bounds the probe set of the distinct_attractors
// statistic so its cost does not grow with the matrix dimension.
const maxProbeBasisVectors = 14

func initializeBuiltInStatistics() {
	MustRegister("total_sum", TotalSum)
	MustRegister("abs_sum", AbsSum)
	MustRegister("zero_count", ZeroCount)
	MustRegister("diagonal_sum", DiagonalSum)
	MustRegister("symmetry_exceptions", SymmetryExceptionCount)
	MustRegister("distinct_attractors", DistinctAttractors)
}

// TotalSum is the sum of all cells.
func TotalSum(m model.Matrix) (float64, error) {
	sum := 0
	for _, row := range m.Cells {
		for _, v := range row {
			sum += v
		}
	}
	return float64(sum), nil
}

// AbsSum is the sum of absolute cell values.
func AbsSum(m model.Matrix) (float64, error) {
	sum := 0.0
	for _, row := range m.Cells {
		for _, v := range row {
			sum += math.Abs(float64(v))
		}
	}
	return sum, nil
}

// ZeroCount counts zero cells.
func ZeroCount(m model.Matrix) (float64, error) {
	count := 0
	for _, row := range m.Cells {
		for _, v := range row {
			if v == 0 {
				count++
			}
		}
	}
	return float64(count), nil
}

// DiagonalSum is the sum of the main diagonal.
func DiagonalSum(m model.Matrix) (float64, error) {
	store, err := matrix.NewStore(m)
	if err != nil {
		return 0, err
	}
	diagonal, err := store.Diagonal(m.N)
	if err != nil {
		return 0, err
	}
	sum := 0
	for _, v := range diagonal {
		sum += v
	}
	return float64(sum), nil
}

// SymmetryExceptionCount counts cells breaking the point-symmetry rule.
func SymmetryExceptionCount(m model.Matrix) (float64, error) {
	return float64(len(matrix.SymmetryExceptions(m))), nil
}

// DistinctAttractors simulates a fixed probe set against the matrix and
// counts the distinct attractors reached. Probes are the all-ones and
// all-minus-ones vectors plus the first single-positive basis vectors, so
// the statistic is deterministic for a given matrix. Runs that exhaust
// the step budget record nothing.
func DistinctAttractors(m model.Matrix) (float64, error) {
	catalog := attractor.NewCatalog()
	for _, probe := range probeStates(m.N) {
		result, err := sim.Run(m, probe, sim.Options{})
		if err != nil {
			return 0, err
		}
		if !result.Converged() {
			continue
		}
		if err := catalog.Record(result.Cycle); err != nil {
			return 0, err
		}
	}
	return float64(catalog.Distinct()), nil
}

func probeStates(n int) []model.State {
	ones := sim.AllOnes(n)
	minusOnes := make(model.State, n)
	for i := range minusOnes {
		minusOnes[i] = -1
	}
	probes := []model.State{ones, minusOnes}

	basisCount := n
	if basisCount > maxProbeBasisVectors {
		basisCount = maxProbeBasisVectors
	}
	for i := 0; i < basisCount; i++ {
		basis := make(model.State, n)
		basis[i] = 1
		probes = append(probes, basis)
	}
	return probes
}
