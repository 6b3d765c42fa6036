package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sahelgroup/recon-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL
// mode.
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
	id          TEXT PRIMARY KEY,
	source_file TEXT NOT NULL DEFAULT '',
	input_file  TEXT NOT NULL DEFAULT '',
	summary     TEXT NOT NULL,
	warnings    TEXT,
	results     TEXT NOT NULL,
	created_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS approvals (
	id           TEXT PRIMARY KEY,
	run_id       TEXT NOT NULL REFERENCES runs(id),
	result_index INTEGER NOT NULL,
	note         TEXT,
	created_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
CREATE INDEX IF NOT EXISTS idx_approvals_run_id ON approvals(run_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateRun(ctx context.Context, run *model.Run) error {
	run.ID = uuid.New().String()
	run.CreatedAt = time.Now().UTC()
	run.UpdatedAt = run.CreatedAt

	summaryJSON, warningsJSON, resultsJSON, err := marshalRun(run)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, source_file, input_file, summary, warnings, results, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.SourceFile, run.InputFile,
		summaryJSON, warningsJSON, resultsJSON,
		run.CreatedAt, run.UpdatedAt,
	)
	return eris.Wrap(err, "sqlite: insert run")
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, source_file, input_file, summary, warnings, results, created_at, updated_at
		 FROM runs WHERE id = ?`,
		runID,
	)

	var (
		run                      model.Run
		summaryJSON, resultsJSON string
		warningsJSON             sql.NullString
	)
	err := row.Scan(&run.ID, &run.SourceFile, &run.InputFile,
		&summaryJSON, &warningsJSON, &resultsJSON,
		&run.CreatedAt, &run.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.Errorf("sqlite: run %s not found", runID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get run %s", runID)
	}

	if err := unmarshalRun(&run, summaryJSON, warningsJSON.String, resultsJSON); err != nil {
		return nil, err
	}
	return &run, nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source_file, input_file, summary, created_at, updated_at
		 FROM runs ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		limit, filter.Offset,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
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
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		if err := json.Unmarshal([]byte(summaryJSON), &run.Summary); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal summary")
		}
		runs = append(runs, run)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs rows")
}

func (s *SQLiteStore) ApproveResult(ctx context.Context, runID string, index int, note string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin approve")
	}
	defer tx.Rollback()

	var resultsJSON string
	err = tx.QueryRowContext(ctx, `SELECT results FROM runs WHERE id = ?`, runID).Scan(&resultsJSON)
	if err == sql.ErrNoRows {
		return eris.Errorf("sqlite: run %s not found", runID)
	}
	if err != nil {
		return eris.Wrapf(err, "sqlite: load results for %s", runID)
	}

	var records []model.ResultRecord
	if err := json.Unmarshal([]byte(resultsJSON), &records); err != nil {
		return eris.Wrap(err, "sqlite: unmarshal results")
	}

	summary, err := approveInRecords(records, index, note)
	if err != nil {
		return err
	}

	updatedResults, err := json.Marshal(records)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal results")
	}
	updatedSummary, err := json.Marshal(summary)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal summary")
	}

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx,
		`UPDATE runs SET results = ?, summary = ?, updated_at = ? WHERE id = ?`,
		string(updatedResults), string(updatedSummary), now, runID,
	); err != nil {
		return eris.Wrapf(err, "sqlite: update run %s", runID)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO approvals (id, run_id, result_index, note, created_at) VALUES (?, ?, ?, ?, ?)`,
		uuid.New().String(), runID, index, note, now,
	); err != nil {
		return eris.Wrap(err, "sqlite: insert approval")
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit approve")
}

func marshalRun(run *model.Run) (summaryJSON, warningsJSON, resultsJSON string, err error) {
	sj, err := json.Marshal(run.Summary)
	if err != nil {
		return "", "", "", eris.Wrap(err, "store: marshal summary")
	}
	wj, err := json.Marshal(run.Warnings)
	if err != nil {
		return "", "", "", eris.Wrap(err, "store: marshal warnings")
	}
	rj, err := json.Marshal(run.Results)
	if err != nil {
		return "", "", "", eris.Wrap(err, "store: marshal results")
	}
	return string(sj), string(wj), string(rj), nil
}

func unmarshalRun(run *model.Run, summaryJSON, warningsJSON, resultsJSON string) error {
	if err := json.Unmarshal([]byte(summaryJSON), &run.Summary); err != nil {
		return eris.Wrap(err, "store: unmarshal summary")
	}
	if warningsJSON != "" {
		if err := json.Unmarshal([]byte(warningsJSON), &run.Warnings); err != nil {
			return eris.Wrap(err, "store: unmarshal warnings")
		}
	}
	if err := json.Unmarshal([]byte(resultsJSON), &run.Results); err != nil {
		return eris.Wrap(err, "store: unmarshal results")
	}
	return nil
}
