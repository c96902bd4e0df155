//go:build sqlite

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"ternion/internal/model"

	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func newSQLiteStore(path string) (Store, error) {
	return NewSQLiteStore(path), nil
}

// DefaultStoreKind reports the backend used when none is requested.
func DefaultStoreKind() string {
	return "sqlite"
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}

	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

func (s *SQLiteStore) Reset(ctx context.Context) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		DELETE FROM matrices;
		DELETE FROM surveys;
		DELETE FROM test_results;
	`)
	return err
}

func (s *SQLiteStore) SaveMatrix(ctx context.Context, m model.Matrix) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	payload, err := EncodeMatrix(m)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO matrices (name, schema_version, codec_version, payload)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			schema_version = excluded.schema_version,
			codec_version = excluded.codec_version,
			payload = excluded.payload
	`, m.Name, m.SchemaVersion, m.CodecVersion, payload)
	return err
}

func (s *SQLiteStore) GetMatrix(ctx context.Context, name string) (model.Matrix, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return model.Matrix{}, false, err
	}

	var payload []byte
	err = db.QueryRowContext(ctx, `SELECT payload FROM matrices WHERE name = ?`, name).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Matrix{}, false, nil
		}
		return model.Matrix{}, false, err
	}

	m, err := DecodeMatrix(payload)
	if err != nil {
		return model.Matrix{}, false, fmt.Errorf("decode matrix %s: %w", name, err)
	}
	return m, true, nil
}

func (s *SQLiteStore) ListMatrices(ctx context.Context) ([]string, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `SELECT name FROM matrices ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (s *SQLiteStore) SaveSurvey(ctx context.Context, record model.SurveyRecord) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	payload, err := EncodeSurvey(record)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO surveys (run_id, payload)
		VALUES (?, ?)
		ON CONFLICT(run_id) DO UPDATE SET
			payload = excluded.payload
	`, record.RunID, payload)
	return err
}

func (s *SQLiteStore) GetSurvey(ctx context.Context, runID string) (model.SurveyRecord, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return model.SurveyRecord{}, false, err
	}

	var payload []byte
	err = db.QueryRowContext(ctx, `SELECT payload FROM surveys WHERE run_id = ?`, runID).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.SurveyRecord{}, false, nil
		}
		return model.SurveyRecord{}, false, err
	}

	record, err := DecodeSurvey(payload)
	if err != nil {
		return model.SurveyRecord{}, false, fmt.Errorf("decode survey %s: %w", runID, err)
	}
	return record, true, nil
}

func (s *SQLiteStore) AppendTestResult(ctx context.Context, runID string, result model.TestResult) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	payload, err := EncodeTestResult(result)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO test_results (run_id, seq, payload)
		VALUES (?, (SELECT COALESCE(MAX(seq), -1) + 1 FROM test_results WHERE run_id = ?), ?)
	`, runID, runID, payload)
	return err
}

func (s *SQLiteStore) GetTestResults(ctx context.Context, runID string) ([]model.TestResult, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, false, err
	}

	rows, err := db.QueryContext(ctx, `SELECT payload FROM test_results WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, false, err
	}
	defer rows.Close()

	var results []model.TestResult
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, false, err
		}
		result, err := DecodeTestResult(payload)
		if err != nil {
			return nil, false, fmt.Errorf("decode test result %s: %w", runID, err)
		}
		results = append(results, result)
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}
	if len(results) == 0 {
		return nil, false, nil
	}
	return results, true, nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context) ([]string, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT run_id FROM surveys
		UNION
		SELECT run_id FROM test_results
		ORDER BY run_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []string
	for rows.Next() {
		var runID string
		if err := rows.Scan(&runID); err != nil {
			return nil, err
		}
		runs = append(runs, runID)
	}
	return runs, rows.Err()
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errors.New("store is not initialized")
	}
	return s.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS matrices (
			name TEXT PRIMARY KEY,
			schema_version INTEGER NOT NULL,
			codec_version INTEGER NOT NULL,
			payload BLOB NOT NULL
		);
		CREATE TABLE IF NOT EXISTS surveys (
			run_id TEXT PRIMARY KEY,
			payload BLOB NOT NULL
		);
		CREATE TABLE IF NOT EXISTS test_results (
			run_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			payload BLOB NOT NULL,
			PRIMARY KEY (run_id, seq)
		);
	`)
	return err
}
