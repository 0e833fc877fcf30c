package store

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/loonworks/sdm-cli/internal/db"
	"github.com/loonworks/sdm-cli/internal/model"
)

// PostgresStore implements Store using pgxpool, for shared-server
// deployments where several modelers read the same covariate tables.
type PostgresStore struct {
	pool db.Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresFromPool wraps an existing pool; used by tests.
func NewPostgresFromPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	species    TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'queued',
	result     JSONB,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS covariates (
	species     TEXT NOT NULL,
	locality_id TEXT NOT NULL,
	year        INTEGER NOT NULL,
	data        JSONB NOT NULL,
	PRIMARY KEY (species, locality_id, year)
);

CREATE TABLE IF NOT EXISTS neighborhoods (
	species     TEXT NOT NULL,
	locality_id TEXT NOT NULL,
	geom        BYTEA NOT NULL,
	PRIMARY KEY (species, locality_id)
);

CREATE TABLE IF NOT EXISTS reports (
	run_id     TEXT NOT NULL REFERENCES runs(id),
	kind       TEXT NOT NULL,
	payload    JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (run_id, kind)
);
`

// Migrate creates the schema if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresMigration); err != nil {
		return eris.Wrap(err, "postgres: migrate")
	}
	return nil
}

// CreateRun inserts a new queued run for the species.
func (s *PostgresStore) CreateRun(ctx context.Context, species string) (*model.Run, error) {
	run := &model.Run{
		ID:        uuid.NewString(),
		Species:   species,
		Status:    model.RunStatusQueued,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO runs (id, species, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		run.ID, run.Species, string(run.Status), run.CreatedAt, run.UpdatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create run")
	}
	return run, nil
}

// UpdateRunStatus moves a run to the given status.
func (s *PostgresStore) UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET status = $1, updated_at = $2 WHERE id = $3`,
		string(status), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrap(err, "postgres: update run status")
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("postgres: run %s not found", runID)
	}
	return nil
}

// GetRun fetches one run by id.
func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	var run model.Run
	var status string
	err := s.pool.QueryRow(ctx,
		`SELECT id, species, status, result, created_at, updated_at FROM runs WHERE id = $1`,
		runID,
	).Scan(&run.ID, &run.Species, &status, &run.Result, &run.CreatedAt, &run.UpdatedAt)
	if err != nil {
		if eris.Is(err, pgx.ErrNoRows) {
			return nil, eris.Errorf("postgres: run %s not found", runID)
		}
		return nil, eris.Wrap(err, "postgres: get run")
	}
	run.Status = model.RunStatus(status)
	return &run, nil
}

// ListRuns returns runs matching the filter, newest first.
func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, species, status, result, created_at, updated_at FROM runs WHERE 1=1`
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}
	if filter.Status != "" {
		query += ` AND status = ` + arg(string(filter.Status))
	}
	if filter.Species != "" {
		query += ` AND species = ` + arg(filter.Species)
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ` + arg(filter.Limit)
	}
	if filter.Offset > 0 {
		query += ` OFFSET ` + arg(filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		var run model.Run
		var status string
		if err := rows.Scan(&run.ID, &run.Species, &status, &run.Result, &run.CreatedAt, &run.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		run.Status = model.RunStatus(status)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// SaveCovariates replaces the covariate table for a species using the
// COPY protocol.
func (s *PostgresStore) SaveCovariates(ctx context.Context, species string, covRows []model.CovariateRow) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM covariates WHERE species = $1`, species); err != nil {
		return eris.Wrap(err, "postgres: clear covariates")
	}

	rows := make([][]any, 0, len(covRows))
	for _, row := range covRows {
		data, err := json.Marshal(row)
		if err != nil {
			return eris.Wrap(err, "postgres: marshal covariate row")
		}
		rows = append(rows, []any{species, row.LocalityID, row.Year, data})
	}
	if _, err := db.CopyFrom(ctx, s.pool, "covariates",
		[]string{"species", "locality_id", "year", "data"}, rows); err != nil {
		return eris.Wrap(err, "postgres: copy covariates")
	}
	return nil
}

// GetCovariates loads the covariate table for a species in key order.
func (s *PostgresStore) GetCovariates(ctx context.Context, species string) ([]model.CovariateRow, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT data FROM covariates WHERE species = $1 ORDER BY locality_id, year`,
		species,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get covariates")
	}
	defer rows.Close()

	var out []model.CovariateRow
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "postgres: scan covariate")
		}
		var row model.CovariateRow
		if err := json.Unmarshal(data, &row); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal covariate")
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// SaveNeighborhoods replaces the stored neighborhood geometries for a
// species.
func (s *PostgresStore) SaveNeighborhoods(ctx context.Context, species string, records []NeighborhoodRecord) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM neighborhoods WHERE species = $1`, species); err != nil {
		return eris.Wrap(err, "postgres: clear neighborhoods")
	}
	rows := make([][]any, 0, len(records))
	for _, rec := range records {
		rows = append(rows, []any{species, rec.LocalityID, rec.EWKB})
	}
	if _, err := db.CopyFrom(ctx, s.pool, "neighborhoods",
		[]string{"species", "locality_id", "geom"}, rows); err != nil {
		return eris.Wrap(err, "postgres: copy neighborhoods")
	}
	return nil
}

// SaveReport upserts one report payload for a run.
func (s *PostgresStore) SaveReport(ctx context.Context, runID, kind string, payload []byte) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO reports (run_id, kind, payload) VALUES ($1, $2, $3)
		 ON CONFLICT (run_id, kind) DO UPDATE SET payload = excluded.payload`,
		runID, kind, payload,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: save %s report", kind)
	}
	return nil
}

// GetReport fetches one report payload.
func (s *PostgresStore) GetReport(ctx context.Context, runID, kind string) ([]byte, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx,
		`SELECT payload FROM reports WHERE run_id = $1 AND kind = $2`,
		runID, kind,
	).Scan(&payload)
	if err != nil {
		if eris.Is(err, pgx.ErrNoRows) {
			return nil, eris.Errorf("postgres: %s report for run %s not found", kind, runID)
		}
		return nil, eris.Wrap(err, "postgres: get report")
	}
	return payload, nil
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
