// Package history keeps an append-only record of past analyses so the
// dashboard's history and comparison views can page through them.
// Stored records are immutable; readers always get copies.
package history

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/d-bias/dbias-go/internal/core"
	_ "modernc.org/sqlite"
)

//go:embed migrations/001_initial_schema.sql
var migrationV1 string

// Summary is the lightweight listing row for one stored analysis.
type Summary struct {
	ID            string              `json:"id"`
	DatasetName   string              `json:"datasetName"`
	UploadDate    time.Time           `json:"uploadDate"`
	Status        core.AnalysisStatus `json:"status"`
	FairnessScore float64             `json:"fairnessScore"`
	FairnessLabel core.FairnessLabel  `json:"fairnessLabel"`
	BiasRisk      core.BiasRisk       `json:"biasRisk"`
	TotalBiases   int                 `json:"totalBiases"`
}

// Store is the SQLite-backed history store.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open opens (creating if needed) the history database at dbPath and
// applies pending migrations.
func Open(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("running migrations: %w (close error: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) migrate() error {
	var version int
	err := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version)
	if err != nil {
		version = 0
	}
	if version < 1 {
		if _, err := s.db.Exec(migrationV1); err != nil {
			return fmt.Errorf("applying migration v1: %w", err)
		}
	}
	return nil
}

// Save appends one analysis record. Saving the same id again replaces
// the stored row; records are otherwise never updated.
func (s *Store) Save(ctx context.Context, result *core.AnalysisResult) error {
	if result == nil {
		return core.ErrValidation(core.CodeInvalidConfig, "nothing to save")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshaling result: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO analyses (id, dataset_name, upload_date, status,
			fairness_score, fairness_label, bias_risk, total_biases, result_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			dataset_name = excluded.dataset_name,
			upload_date = excluded.upload_date,
			status = excluded.status,
			fairness_score = excluded.fairness_score,
			fairness_label = excluded.fairness_label,
			bias_risk = excluded.bias_risk,
			total_biases = excluded.total_biases,
			result_json = excluded.result_json`,
		result.ID,
		result.DatasetName,
		result.UploadDate.UTC().Format(time.RFC3339Nano),
		string(result.Status),
		result.FairnessScore,
		string(result.FairnessLabel),
		string(result.BiasRisk),
		result.TotalBiases,
		string(payload),
	)
	if err != nil {
		return fmt.Errorf("inserting analysis: %w", err)
	}
	return nil
}

// List returns summaries of stored analyses, newest first, up to limit.
// A non-positive limit returns everything.
func (s *Store) List(ctx context.Context, limit int) ([]Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, dataset_name, upload_date, status,
			fairness_score, fairness_label, bias_risk, total_biases
		FROM analyses
		ORDER BY created_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing analyses: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var (
			sum      Summary
			uploaded string
			status   string
			label    string
			risk     string
		)
		if err := rows.Scan(&sum.ID, &sum.DatasetName, &uploaded, &status,
			&sum.FairnessScore, &label, &risk, &sum.TotalBiases); err != nil {
			return nil, fmt.Errorf("scanning analysis row: %w", err)
		}
		if t, err := time.Parse(time.RFC3339Nano, uploaded); err == nil {
			sum.UploadDate = t
		}
		sum.Status = core.AnalysisStatus(status)
		sum.FairnessLabel = core.FairnessLabel(label)
		sum.BiasRisk = core.BiasRisk(risk)
		out = append(out, sum)
	}
	return out, rows.Err()
}

// Get returns the full stored record for one id. The returned record is
// decoded fresh from the stored JSON; mutating it never affects the
// stored data. Absent ids return a not-found error.
func (s *Store) Get(ctx context.Context, id string) (*core.AnalysisResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var payload string
	err := s.db.QueryRowContext(ctx,
		"SELECT result_json FROM analyses WHERE id = ?", id).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, core.ErrNotFound("analysis", id)
	}
	if err != nil {
		return nil, fmt.Errorf("reading analysis: %w", err)
	}

	var result core.AnalysisResult
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		return nil, core.ErrMalformed("stored analysis is not valid JSON").WithCause(err)
	}
	return &result, nil
}

// Count reports the number of stored analyses.
func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM analyses").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting analyses: %w", err)
	}
	return n, nil
}
