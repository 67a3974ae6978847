// Package store keeps a history of analysis runs in SQLite.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/iwvelando/edgeworth/internal/analysis"
	"github.com/iwvelando/edgeworth/internal/economy"
	"github.com/iwvelando/edgeworth/pkg/constants"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = errors.New("run not found")

// timeLayout sorts lexically in time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id       TEXT PRIMARY KEY,
	created_at   TEXT NOT NULL,
	alpha        REAL NOT NULL,
	beta         REAL NOT NULL,
	endowment_x1 REAL NOT NULL,
	endowment_x2 REAL NOT NULL,
	price        REAL,
	report_json  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS search_results (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id      TEXT NOT NULL,
	position    INTEGER NOT NULL,
	name        TEXT NOT NULL,
	kind        TEXT NOT NULL,
	strategy    TEXT NOT NULL,
	x1a         REAL NOT NULL,
	x2a         REAL NOT NULL,
	utility_a   REAL NOT NULL,
	utility_b   REAL NOT NULL,
	welfare     REAL NOT NULL,
	price       REAL,
	converged   INTEGER NOT NULL,
	error       TEXT,
	FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_search_results_run ON search_results(run_id);
`

// RunSummary is one row of the run history.
type RunSummary struct {
	RunID     string         `json:"runId"`
	CreatedAt time.Time      `json:"createdAt"`
	Alpha     float64        `json:"alpha"`
	Beta      float64        `json:"beta"`
	Endowment economy.Bundle `json:"endowmentA"`
	Price     *float64       `json:"price,omitempty"`
	Searches  int            `json:"searches"`
	Failures  int            `json:"failures"`
}

// Store persists analysis reports.
type Store struct {
	db *sql.DB
}

// Open opens (creating when needed) the SQLite database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// pragmas are per connection
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveReport stores a report and its search results in one transaction. A
// report without a run ID is given one.
func (s *Store) SaveReport(report *analysis.Report) error {
	if report == nil {
		return fmt.Errorf("report cannot be nil")
	}
	if report.RunID == "" {
		report.RunID = uuid.New().String()
	}
	if report.CreatedAt.IsZero() {
		report.CreatedAt = time.Now().UTC()
	}

	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	p := report.Parameters
	_, err = tx.Exec(
		`INSERT INTO runs (run_id, created_at, alpha, beta, endowment_x1, endowment_x2, price, report_json)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		report.RunID, report.CreatedAt.UTC().Format(timeLayout), p.Alpha, p.Beta,
		p.EndowmentA.X1, p.EndowmentA.X2, nullFloat(report.Price), string(reportJSON),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for i, summary := range report.Searches {
		_, err = tx.Exec(
			`INSERT INTO search_results (run_id, position, name, kind, strategy, x1a, x2a,
			 utility_a, utility_b, welfare, price, converged, error)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			report.RunID, i, summary.Name, summary.Kind, summary.Strategy, summary.X1A, summary.X2A,
			summary.UtilityA, summary.UtilityB, summary.Welfare, nullFloat(summary.Price),
			summary.Converged, nullString(summary.Error),
		)
		if err != nil {
			return fmt.Errorf("insert search %s: %w", summary.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first. A non-positive limit
// selects the default.
func (s *Store) ListRuns(limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = constants.DefaultRunListLimit
	}
	rows, err := s.db.Query(
		`SELECT r.run_id, r.created_at, r.alpha, r.beta, r.endowment_x1, r.endowment_x2, r.price,
		        COUNT(sr.id), COALESCE(SUM(CASE WHEN sr.error IS NOT NULL THEN 1 ELSE 0 END), 0)
		 FROM runs r LEFT JOIN search_results sr ON sr.run_id = r.run_id
		 GROUP BY r.run_id
		 ORDER BY r.created_at DESC, r.run_id
		 LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var (
			run        RunSummary
			createdStr string
			price      sql.NullFloat64
		)
		if err := rows.Scan(&run.RunID, &createdStr, &run.Alpha, &run.Beta,
			&run.Endowment.X1, &run.Endowment.X2, &price, &run.Searches, &run.Failures); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		createdAt, err := time.Parse(timeLayout, createdStr)
		if err != nil {
			return nil, fmt.Errorf("parse created_at of run %s: %w", run.RunID, err)
		}
		run.CreatedAt = createdAt
		if price.Valid {
			v := price.Float64
			run.Price = &v
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// GetRun returns the stored report for id.
func (s *Store) GetRun(id string) (*analysis.Report, error) {
	var reportJSON string
	err := s.db.QueryRow(`SELECT report_json FROM runs WHERE run_id = ?`, id).Scan(&reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", id, err)
	}

	var report analysis.Report
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("unmarshal report: %w", err)
	}
	return &report, nil
}

// DeleteRun removes a run and its search results.
func (s *Store) DeleteRun(id string) error {
	res, err := s.db.Exec(`DELETE FROM runs WHERE run_id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete run %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete run %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullString(v string) sql.NullString {
	if v == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: v, Valid: true}
}
