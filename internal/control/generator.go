package control

import (
	"errors"
	"fmt"
	"math/rand"

	"ternion/internal/model"
)

// Cell range of the observed real-world matrices. Generators draw from
// this range; loaded matrices are not required to stay inside it.
const (
	MinCell = -128
	MaxCell = 127
)

var ErrEmptyShape = errors.New("control shape must be positive")

// Generator produces null-hypothesis matrices from one explicit seeded
// random source. Sharing a Generator across goroutines is forbidden; give
// each worker its own seed-derived instance.
type Generator struct {
	Rand *rand.Rand
	Seed int64
}

// NewGenerator builds a generator with its own RNG state.
func NewGenerator(seed int64) *Generator {
	return &Generator{
		Rand: rand.New(rand.NewSource(seed)),
		Seed: seed,
	}
}

// Uniform draws every cell independently from [MinCell, MaxCell].
func (g *Generator) Uniform(n int) (model.ControlMatrix, error) {
	if n <= 0 {
		return model.ControlMatrix{}, fmt.Errorf("%w: n=%d", ErrEmptyShape, n)
	}
	cells := make([][]int, n)
	for r := range cells {
		cells[r] = make([]int, n)
		for c := range cells[r] {
			cells[r][c] = g.drawCell()
		}
	}
	return g.tag(model.FamilyUniform, n, cells), nil
}

// Matched relocates the source matrix's own cell values by a uniformly
// random permutation. The value multiset is preserved exactly; only the
// spatial arrangement changes.
func (g *Generator) Matched(source model.Matrix) (model.ControlMatrix, error) {
	if source.N <= 0 {
		return model.ControlMatrix{}, fmt.Errorf("%w: source matrix is empty", ErrEmptyShape)
	}
	flat := make([]int, 0, source.N*source.N)
	for _, row := range source.Cells {
		flat = append(flat, row...)
	}
	g.Rand.Shuffle(len(flat), func(i, j int) {
		flat[i], flat[j] = flat[j], flat[i]
	})

	cells := make([][]int, source.N)
	for r := range cells {
		cells[r] = flat[r*source.N : (r+1)*source.N]
	}
	return g.tag(model.FamilyMatched, source.N, cells), nil
}

// Symmetric draws one free value per point-symmetric pair and forces the
// mirror cell to -1-v, so M[r][c] + M[N-1-r][N-1-c] == -1 holds for every
// pair. For odd n the single center cell has no mirror partner and is
// drawn independently; even n has no center cell.
func (g *Generator) Symmetric(n int) (model.ControlMatrix, error) {
	if n <= 0 {
		return model.ControlMatrix{}, fmt.Errorf("%w: n=%d", ErrEmptyShape, n)
	}
	cells := make([][]int, n)
	for r := range cells {
		cells[r] = make([]int, n)
	}
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			mr, mc := n-1-r, n-1-c
			if r == mr && c == mc {
				cells[r][c] = g.drawCell()
				continue
			}
			if r*n+c > mr*n+mc {
				continue
			}
			v := g.drawCell()
			cells[r][c] = v
			cells[mr][mc] = -1 - v
		}
	}
	return g.tag(model.FamilySymmetric, n, cells), nil
}

// Generate dispatches on the family name. The source matrix is only
// consulted by the matched family; uniform and symmetric use its
// dimension.
func (g *Generator) Generate(family model.ControlFamily, source model.Matrix) (model.ControlMatrix, error) {
	switch family {
	case model.FamilyUniform:
		return g.Uniform(source.N)
	case model.FamilyMatched:
		return g.Matched(source)
	case model.FamilySymmetric:
		return g.Symmetric(source.N)
	default:
		return model.ControlMatrix{}, fmt.Errorf("unsupported control family: %s", family)
	}
}

// Batch generates count independent matrices of one family from the
// generator's single advancing RNG state, so results are reproducible
// given the same seed and call order.
func (g *Generator) Batch(family model.ControlFamily, count int, source model.Matrix) ([]model.ControlMatrix, error) {
	if count < 0 {
		return nil, fmt.Errorf("batch count must be non-negative: %d", count)
	}
	out := make([]model.ControlMatrix, 0, count)
	for i := 0; i < count; i++ {
		m, err := g.Generate(family, source)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func (g *Generator) drawCell() int {
	return MinCell + g.Rand.Intn(MaxCell-MinCell+1)
}

func (g *Generator) tag(family model.ControlFamily, n int, cells [][]int) model.ControlMatrix {
	return model.ControlMatrix{
		Matrix: model.Matrix{N: n, Cells: cells},
		Family: family,
		Seed:   g.Seed,
	}
}
