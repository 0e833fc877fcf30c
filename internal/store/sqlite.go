package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/loonworks/sdm-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	species    TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'queued',
	result     TEXT,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS covariates (
	species     TEXT NOT NULL,
	locality_id TEXT NOT NULL,
	year        INTEGER NOT NULL,
	data        TEXT NOT NULL,
	PRIMARY KEY (species, locality_id, year)
);

CREATE TABLE IF NOT EXISTS neighborhoods (
	species     TEXT NOT NULL,
	locality_id TEXT NOT NULL,
	geom        BLOB NOT NULL,
	PRIMARY KEY (species, locality_id)
);

CREATE TABLE IF NOT EXISTS reports (
	run_id     TEXT NOT NULL REFERENCES runs(id),
	kind       TEXT NOT NULL,
	payload    TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	PRIMARY KEY (run_id, kind)
);
`

// Migrate creates the schema if it does not exist.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteMigration); err != nil {
		return eris.Wrap(err, "sqlite: migrate")
	}
	return nil
}

// CreateRun inserts a new queued run for the species.
func (s *SQLiteStore) CreateRun(ctx context.Context, species string) (*model.Run, error) {
	run := &model.Run{
		ID:        uuid.NewString(),
		Species:   species,
		Status:    model.RunStatusQueued,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, species, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.Species, string(run.Status), run.CreatedAt, run.UpdatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: create run")
	}
	return run, nil
}

// UpdateRunStatus moves a run to the given status.
func (s *SQLiteStore) UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: update run status")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return eris.Errorf("sqlite: run %s not found", runID)
	}
	return nil
}

// GetRun fetches one run by id.
func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	var run model.Run
	var status string
	var result sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT id, species, status, result, created_at, updated_at FROM runs WHERE id = ?`,
		runID,
	).Scan(&run.ID, &run.Species, &status, &result, &run.CreatedAt, &run.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.Errorf("sqlite: run %s not found", runID)
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get run")
	}
	run.Status = model.RunStatus(status)
	if result.Valid {
		run.Result = []byte(result.String)
	}
	return &run, nil
}

// ListRuns returns runs matching the filter, newest first.
func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, species, status, result, created_at, updated_at FROM runs WHERE 1=1`
	var args []any
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.Species != "" {
		query += ` AND species = ?`
		args = append(args, filter.Species)
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		var run model.Run
		var status string
		var result sql.NullString
		if err := rows.Scan(&run.ID, &run.Species, &status, &result, &run.CreatedAt, &run.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		run.Status = model.RunStatus(status)
		if result.Valid {
			run.Result = []byte(result.String)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// SaveCovariates replaces the covariate table for a species.
func (s *SQLiteStore) SaveCovariates(ctx context.Context, species string, covRows []model.CovariateRow) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM covariates WHERE species = ?`, species); err != nil {
		return eris.Wrap(err, "sqlite: clear covariates")
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO covariates (species, locality_id, year, data) VALUES (?, ?, ?, ?)`,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare covariate insert")
	}
	defer stmt.Close()

	for _, row := range covRows {
		data, err := json.Marshal(row)
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal covariate row")
		}
		if _, err := stmt.ExecContext(ctx, species, row.LocalityID, row.Year, string(data)); err != nil {
			return eris.Wrapf(err, "sqlite: insert covariate %s/%d", row.LocalityID, row.Year)
		}
	}
	if err := tx.Commit(); err != nil {
		return eris.Wrap(err, "sqlite: commit covariates")
	}
	return nil
}

// GetCovariates loads the covariate table for a species in key order.
func (s *SQLiteStore) GetCovariates(ctx context.Context, species string) ([]model.CovariateRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT data FROM covariates WHERE species = ? ORDER BY locality_id, year`,
		species,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get covariates")
	}
	defer rows.Close()

	var out []model.CovariateRow
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan covariate")
		}
		var row model.CovariateRow
		if err := json.Unmarshal([]byte(data), &row); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal covariate")
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// SaveNeighborhoods replaces the stored neighborhood geometries for a
// species.
func (s *SQLiteStore) SaveNeighborhoods(ctx context.Context, species string, records []NeighborhoodRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM neighborhoods WHERE species = ?`, species); err != nil {
		return eris.Wrap(err, "sqlite: clear neighborhoods")
	}
	for _, rec := range records {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO neighborhoods (species, locality_id, geom) VALUES (?, ?, ?)`,
			species, rec.LocalityID, rec.EWKB,
		); err != nil {
			return eris.Wrapf(err, "sqlite: insert neighborhood %s", rec.LocalityID)
		}
	}
	if err := tx.Commit(); err != nil {
		return eris.Wrap(err, "sqlite: commit neighborhoods")
	}
	return nil
}

// SaveReport upserts one report payload for a run.
func (s *SQLiteStore) SaveReport(ctx context.Context, runID, kind string, payload []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO reports (run_id, kind, payload) VALUES (?, ?, ?)
		 ON CONFLICT (run_id, kind) DO UPDATE SET payload = excluded.payload`,
		runID, kind, string(payload),
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: save %s report", kind)
	}
	return nil
}

// GetReport fetches one report payload.
func (s *SQLiteStore) GetReport(ctx context.Context, runID, kind string) ([]byte, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM reports WHERE run_id = ? AND kind = ?`,
		runID, kind,
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, eris.Errorf("sqlite: %s report for run %s not found", kind, runID)
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get report")
	}
	return []byte(payload), nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
