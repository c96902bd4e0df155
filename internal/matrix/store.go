package matrix

import (
	"errors"
	"fmt"
	"sync"

	"ternion/internal/model"
)

var (
	// ErrMalformedMatrix marks non-square or empty input. Fatal, never
	// recovered locally.
	ErrMalformedMatrix = errors.New("malformed matrix")

	// ErrIndexOutOfRange marks a diagonal request past the matrix bound.
	ErrIndexOutOfRange = errors.New("index out of range")
)

// Store is the single source of truth for one loaded matrix. The matrix is
// immutable after construction, so concurrent reads need no coordination.
type Store struct {
	m model.Matrix

	ternaryOnce sync.Once
	ternary     model.TernaryMatrix
}

// NewStore validates the matrix shape and wraps it for shared read access.
func NewStore(m model.Matrix) (*Store, error) {
	if err := Validate(m); err != nil {
		return nil, err
	}
	return &Store{m: m}, nil
}

// Validate checks that the matrix is non-empty and strictly square.
func Validate(m model.Matrix) error {
	if m.N == 0 || len(m.Cells) == 0 {
		return fmt.Errorf("%w: empty matrix", ErrMalformedMatrix)
	}
	if len(m.Cells) != m.N {
		return fmt.Errorf("%w: got %d rows, want %d", ErrMalformedMatrix, len(m.Cells), m.N)
	}
	for i, row := range m.Cells {
		if len(row) != m.N {
			return fmt.Errorf("%w: row %d has %d cells, want %d", ErrMalformedMatrix, i, len(row), m.N)
		}
	}
	return nil
}

// Matrix returns the loaded matrix value.
func (s *Store) Matrix() model.Matrix {
	return s.m
}

// N returns the matrix dimension.
func (s *Store) N() int {
	return s.m.N
}

// Substitutions reports how many non-numeric source cells were coerced to
// zero at load time.
func (s *Store) Substitutions() int {
	return s.m.Substitutions
}

// Ternary returns the sign view of the matrix, computed once and cached.
func (s *Store) Ternary() model.TernaryMatrix {
	s.ternaryOnce.Do(func() {
		s.ternary = Ternary(s.m)
	})
	return s.ternary
}

// Diagonal returns M[i][i] for i in [0, count).
func (s *Store) Diagonal(count int) ([]int, error) {
	if count < 0 || count > s.m.N {
		return nil, fmt.Errorf("%w: diagonal count %d exceeds dimension %d", ErrIndexOutOfRange, count, s.m.N)
	}
	out := make([]int, count)
	for i := 0; i < count; i++ {
		out[i] = s.m.Cells[i][i]
	}
	return out, nil
}

// Ternary computes the sign view of a matrix.
func Ternary(m model.Matrix) model.TernaryMatrix {
	cells := make([][]int8, m.N)
	for i, row := range m.Cells {
		cells[i] = make([]int8, m.N)
		for j, v := range row {
			cells[i][j] = Sign(v)
		}
	}
	return model.TernaryMatrix{N: m.N, Cells: cells}
}

// Sign maps any integer to {-1, 0, +1}.
func Sign(v int) int8 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
