package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sahelgroup/recon-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses; pgxmock satisfies it
// for unit tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	source_file TEXT NOT NULL DEFAULT '',
	input_file  TEXT NOT NULL DEFAULT '',
	summary     JSONB NOT NULL,
	warnings    JSONB,
	results     JSONB NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS approvals (
	id           TEXT PRIMARY KEY,
	run_id       TEXT NOT NULL REFERENCES runs(id),
	result_index INTEGER NOT NULL,
	note         TEXT,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
CREATE INDEX IF NOT EXISTS idx_approvals_run_id ON approvals(run_id);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateRun(ctx context.Context, run *model.Run) error {
	run.ID = uuid.New().String()
	run.CreatedAt = time.Now().UTC()
	run.UpdatedAt = run.CreatedAt

	summaryJSON, warningsJSON, resultsJSON, err := marshalRun(run)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO runs (id, source_file, input_file, summary, warnings, results, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		run.ID, run.SourceFile, run.InputFile,
		summaryJSON, warningsJSON, resultsJSON,
		run.CreatedAt, run.UpdatedAt,
	)
	return eris.Wrap(err, "postgres: insert run")
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, source_file, input_file, summary, warnings, results, created_at, updated_at
		 FROM runs WHERE id = $1`,
		runID,
	)

	var (
		run                      model.Run
		summaryJSON, resultsJSON string
		warningsJSON             *string
	)
	err := row.Scan(&run.ID, &run.SourceFile, &run.InputFile,
		&summaryJSON, &warningsJSON, &resultsJSON,
		&run.CreatedAt, &run.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Errorf("postgres: run %s not found", runID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get run %s", runID)
	}

	warnings := ""
	if warningsJSON != nil {
		warnings = *warningsJSON
	}
	if err := unmarshalRun(&run, summaryJSON, warnings, resultsJSON); err != nil {
		return nil, err
	}
	return &run, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, source_file, input_file, summary, created_at, updated_at
		 FROM runs ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, filter.Offset,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		var (
			run         model.Run
			summaryJSON string
		)
		if err := rows.Scan(&run.ID, &run.SourceFile, &run.InputFile,
			&summaryJSON, &run.CreatedAt, &run.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		if err := json.Unmarshal([]byte(summaryJSON), &run.Summary); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal summary")
		}
		runs = append(runs, run)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs rows")
}

func (s *PostgresStore) ApproveResult(ctx context.Context, runID string, index int, note string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin approve")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var resultsJSON string
	err = tx.QueryRow(ctx, `SELECT results FROM runs WHERE id = $1 FOR UPDATE`, runID).Scan(&resultsJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return eris.Errorf("postgres: run %s not found", runID)
	}
	if err != nil {
		return eris.Wrapf(err, "postgres: load results for %s", runID)
	}

	var records []model.ResultRecord
	if err := json.Unmarshal([]byte(resultsJSON), &records); err != nil {
		return eris.Wrap(err, "postgres: unmarshal results")
	}

	summary, err := approveInRecords(records, index, note)
	if err != nil {
		return err
	}

	updatedResults, err := json.Marshal(records)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal results")
	}
	updatedSummary, err := json.Marshal(summary)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal summary")
	}

	now := time.Now().UTC()
	if _, err := tx.Exec(ctx,
		`UPDATE runs SET results = $1, summary = $2, updated_at = $3 WHERE id = $4`,
		string(updatedResults), string(updatedSummary), now, runID,
	); err != nil {
		return eris.Wrapf(err, "postgres: update run %s", runID)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO approvals (id, run_id, result_index, note, created_at) VALUES ($1, $2, $3, $4, $5)`,
		uuid.New().String(), runID, index, note, now,
	); err != nil {
		return eris.Wrap(err, "postgres: insert approval")
	}

	return eris.Wrap(tx.Commit(ctx), "postgres: commit approve")
}
