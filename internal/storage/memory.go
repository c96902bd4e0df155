package storage

import (
	"context"
	"sort"
	"sync"

	"ternion/internal/model"
)

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	matrices    map[string]model.Matrix
	surveys     map[string]model.SurveyRecord
	results     map[string][]model.TestResult
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.matrices = make(map[string]model.Matrix)
	s.surveys = make(map[string]model.SurveyRecord)
	s.results = make(map[string][]model.TestResult)
	return nil
}

func (s *MemoryStore) Reset(ctx context.Context) error {
	return s.Init(ctx)
}

func (s *MemoryStore) SaveMatrix(_ context.Context, m model.Matrix) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.matrices[m.Name] = m
	return nil
}

func (s *MemoryStore) GetMatrix(_ context.Context, name string) (model.Matrix, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.matrices[name]
	return m, ok, nil
}

func (s *MemoryStore) ListMatrices(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.matrices))
	for name := range s.matrices {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *MemoryStore) SaveSurvey(_ context.Context, record model.SurveyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.surveys[record.RunID] = record
	return nil
}

func (s *MemoryStore) GetSurvey(_ context.Context, runID string) (model.SurveyRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.surveys[runID]
	return record, ok, nil
}

func (s *MemoryStore) AppendTestResult(_ context.Context, runID string, result model.TestResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.results[runID] = append(s.results[runID], result)
	return nil
}

func (s *MemoryStore) GetTestResults(_ context.Context, runID string) ([]model.TestResult, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results, ok := s.results[runID]
	if !ok {
		return nil, false, nil
	}
	copied := append([]model.TestResult(nil), results...)
	return copied, true, nil
}

func (s *MemoryStore) ListRuns(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{}, len(s.surveys)+len(s.results))
	for runID := range s.surveys {
		seen[runID] = struct{}{}
	}
	for runID := range s.results {
		seen[runID] = struct{}{}
	}
	runs := make([]string, 0, len(seen))
	for runID := range seen {
		runs = append(runs, runID)
	}
	sort.Strings(runs)
	return runs, nil
}
