package storage

import (
	"context"

	"ternion/internal/model"
)

// Store persists loaded matrices, attractor survey summaries, and
// significance test results.
type Store interface {
	Init(ctx context.Context) error
	SaveMatrix(ctx context.Context, m model.Matrix) error
	GetMatrix(ctx context.Context, name string) (model.Matrix, bool, error)
	ListMatrices(ctx context.Context) ([]string, error)
	SaveSurvey(ctx context.Context, record model.SurveyRecord) error
	GetSurvey(ctx context.Context, runID string) (model.SurveyRecord, bool, error)
	AppendTestResult(ctx context.Context, runID string, result model.TestResult) error
	GetTestResults(ctx context.Context, runID string) ([]model.TestResult, bool, error)
	ListRuns(ctx context.Context) ([]string, error)
}

// Resetter is implemented by backends that can discard all persisted data.
type Resetter interface {
	Reset(ctx context.Context) error
}
