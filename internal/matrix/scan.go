package matrix

import "ternion/internal/model"

// AsymmetricCell is a cell whose point-symmetric pair sum deviates from
// the expected constant. Both members of a broken pair are reported.
type AsymmetricCell struct {
	Row         int `json:"row"`
	Col         int `json:"col"`
	Value       int `json:"value"`
	MirrorValue int `json:"mirror_value"`
	PairSum     int `json:"pair_sum"`
}

// SymmetryExceptions scans for cells violating the point-symmetry rule
// M[r][c] + M[N-1-r][N-1-c] == -1. A matrix with k broken pairs yields 2k
// cells. The center cell of an odd-dimension matrix pairs with itself and
// is exempt.
func SymmetryExceptions(m model.Matrix) []AsymmetricCell {
	var out []AsymmetricCell
	for r := 0; r < m.N; r++ {
		for c := 0; c < m.N; c++ {
			mr, mc := m.N-1-r, m.N-1-c
			if r == mr && c == mc {
				continue
			}
			sum := m.Cells[r][c] + m.Cells[mr][mc]
			if sum != -1 {
				out = append(out, AsymmetricCell{
					Row:         r,
					Col:         c,
					Value:       m.Cells[r][c],
					MirrorValue: m.Cells[mr][mc],
					PairSum:     sum,
				})
			}
		}
	}
	return out
}
