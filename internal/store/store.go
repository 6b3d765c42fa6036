// Package store persists reconciliation runs and manual approvals, with
// SQLite and Postgres backends behind one interface.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sahelgroup/recon-cli/internal/config"
	"github.com/sahelgroup/recon-cli/internal/model"
)

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Limit  int
	Offset int
}

// Store defines the persistence interface for reconciliation runs.
type Store interface {
	// CreateRun persists a completed run; the store assigns ID and
	// timestamps on the passed run.
	CreateRun(ctx context.Context, run *model.Run) error
	// GetRun loads a run including its per-candidate results.
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	// ListRuns returns run metadata (no results), newest first.
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)
	// ApproveResult force-sets one stored result's status to Valid and
	// records the reviewer's note. The manual-override channel; the
	// engine itself never does this.
	ApproveResult(ctx context.Context, runID string, index int, note string) error

	Migrate(ctx context.Context) error
	Close() error
}

// Open constructs a Store from configuration and runs migrations.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	var (
		st  Store
		err error
	)
	switch cfg.Driver {
	case "", "sqlite":
		st, err = NewSQLite(cfg.DSN)
	case "postgres":
		st, err = NewPostgres(ctx, cfg.DSN)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}

// approveInRecords flips the result at index to Valid and returns the
// recomputed summary. Shared by both drivers' read-modify-write paths.
func approveInRecords(records []model.ResultRecord, index int, note string) (model.Summary, error) {
	pos := -1
	for i := range records {
		if records[i].Index == index {
			pos = i
			break
		}
	}
	if pos < 0 {
		return model.Summary{}, eris.Errorf("store: result index %d not found", index)
	}

	records[pos].Result.Status = model.StatusValid
	records[pos].Approved = true
	records[pos].ApprovalNote = note

	summary := model.Summary{Total: len(records)}
	for i := range records {
		switch records[i].Result.Status {
		case model.StatusValid:
			summary.Valid++
		case model.StatusPartialMatch:
			summary.PartialMatch++
		default:
			summary.Invalid++
		}
	}
	return summary, nil
}
