package model

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// Matrix is an immutable square grid of integers. Substitutions counts the
// non-numeric source cells that were coerced to zero during parsing.
type Matrix struct {
	VersionedRecord
	Name          string  `json:"name,omitempty"`
	N             int     `json:"n"`
	Cells         [][]int `json:"cells"`
	Substitutions int     `json:"substitutions"`
}

// TernaryMatrix is the sign view of a Matrix: every cell in {-1, 0, +1}.
type TernaryMatrix struct {
	N     int      `json:"n"`
	Cells [][]int8 `json:"cells"`
}

// State is one network instant: a ternary vector of length N.
type State []int8

// Clone returns an independent copy of the state.
func (s State) Clone() State {
	return append(State(nil), s...)
}

// Equal reports component-wise equality.
func (s State) Equal(other State) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Less reports lexicographic order between states of equal length.
func (s State) Less(other State) bool {
	for i := range s {
		if s[i] != other[i] {
			return s[i] < other[i]
		}
	}
	return false
}

// Attractor is a repeating cycle of states in canonical rotation.
type Attractor struct {
	States []State `json:"states"`
}

// Length returns the cycle period.
func (a Attractor) Length() int {
	return len(a.States)
}

// AttractorSummary is one catalog entry: a canonical cycle with its
// observation count and first-seen order.
type AttractorSummary struct {
	Key       string  `json:"key"`
	Length    int     `json:"length"`
	Count     int     `json:"count"`
	FirstSeen int     `json:"first_seen"`
	States    []State `json:"states"`
}

// ControlFamily names a null-hypothesis matrix family.
type ControlFamily string

const (
	FamilyUniform   ControlFamily = "uniform"
	FamilyMatched   ControlFamily = "matched"
	FamilySymmetric ControlFamily = "symmetric"
)

// ControlMatrix is a synthetic matrix tagged with the family and seed that
// produced it.
type ControlMatrix struct {
	Matrix
	Family ControlFamily `json:"family"`
	Seed   int64         `json:"seed"`
}

// Direction declares which tail counts as "at least as extreme".
type Direction string

const (
	DirectionGE  Direction = "ge"
	DirectionLE  Direction = "le"
	DirectionAbs Direction = "abs"
)

// TestResult is the immutable outcome of one significance evaluation.
type TestResult struct {
	VersionedRecord
	Name         string        `json:"name"`
	Family       ControlFamily `json:"family"`
	Direction    Direction     `json:"direction"`
	Observed     float64       `json:"observed"`
	Trials       int           `json:"trials"`
	ExtremeCount int           `json:"extreme_count"`
	PValue       float64       `json:"p_value"`
	Alpha        float64       `json:"alpha"`
	NumTests     int           `json:"num_tests"`
	Correction   string        `json:"correction"`
	Threshold    float64       `json:"threshold"`
	Significant  bool          `json:"significant"`
}

// SurveyRecord persists one attractor survey run.
type SurveyRecord struct {
	VersionedRecord
	RunID      string             `json:"run_id"`
	MatrixName string             `json:"matrix_name"`
	Inputs     int                `json:"inputs"`
	Converged  int                `json:"converged"`
	Exhausted  int                `json:"exhausted"`
	Seed       int64              `json:"seed"`
	Summary    []AttractorSummary `json:"summary"`
}
