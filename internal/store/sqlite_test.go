package store

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sahelgroup/recon-cli/internal/config"
	"github.com/sahelgroup/recon-cli/internal/model"
)

func newSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func testRun() *model.Run {
	return &model.Run{
		SourceFile: "truth.xlsx",
		InputFile:  "batch.csv",
		Summary:    model.Summary{Total: 2, Valid: 1, Invalid: 1},
		Warnings:   []string{`duplicate SSID "s1" in source: record "a" conflicts with "b"`},
		Results: []model.ResultRecord{
			{
				Index:  0,
				Fields: json.RawMessage(`{"SSID":"S1","Full Name":"John Smith"}`),
				Result: model.ValidationResult{Status: model.StatusValid, Reason: "All checks passed; name similarity 100%", Similarity: 100},
			},
			{
				Index:  1,
				Fields: json.RawMessage(`{"SSID":"S9","Full Name":"Jane Doe"}`),
				Result: model.ValidationResult{Status: model.StatusInvalid, Reason: "No matching record found"},
			},
		},
	}
}

func TestSQLiteCreateAndGetRun(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	run := testRun()
	require.NoError(t, s.CreateRun(ctx, run))
	assert.NotEmpty(t, run.ID)
	assert.False(t, run.CreatedAt.IsZero())

	got, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)

	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, "truth.xlsx", got.SourceFile)
	assert.Equal(t, "batch.csv", got.InputFile)
	assert.Equal(t, run.Summary, got.Summary)
	assert.Equal(t, run.Warnings, got.Warnings)
	require.Len(t, got.Results, 2)
	assert.Equal(t, model.StatusValid, got.Results[0].Result.Status)
	assert.JSONEq(t, `{"SSID":"S1","Full Name":"John Smith"}`, string(got.Results[0].Fields))
}

func TestSQLiteGetRunNotFound(t *testing.T) {
	s := newSQLiteStore(t)

	_, err := s.GetRun(context.Background(), "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run nope not found")
}

func TestSQLiteListRuns(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		run := testRun()
		require.NoError(t, s.CreateRun(ctx, run))
		ids = append(ids, run.ID)
		time.Sleep(5 * time.Millisecond)
	}

	runs, err := s.ListRuns(ctx, RunFilter{})
	require.NoError(t, err)
	require.Len(t, runs, 3)

	// Newest first, metadata only.
	assert.Equal(t, ids[2], runs[0].ID)
	assert.Equal(t, ids[0], runs[2].ID)
	assert.Empty(t, runs[0].Results)
	assert.Equal(t, 2, runs[0].Summary.Total)

	limited, err := s.ListRuns(ctx, RunFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, ids[1], limited[0].ID)
}

func TestSQLiteApproveResult(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	run := testRun()
	require.NoError(t, s.CreateRun(ctx, run))

	require.NoError(t, s.ApproveResult(ctx, run.ID, 1, "verified at branch office"))

	got, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)

	rec := got.Results[1]
	assert.Equal(t, model.StatusValid, rec.Result.Status)
	assert.True(t, rec.Approved)
	assert.Equal(t, "verified at branch office", rec.ApprovalNote)

	// Summary reflects the override.
	assert.Equal(t, model.Summary{Total: 2, Valid: 2}, got.Summary)
}

func TestSQLiteApproveResultErrors(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	err := s.ApproveResult(ctx, "missing", 0, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")

	run := testRun()
	require.NoError(t, s.CreateRun(ctx, run))

	err = s.ApproveResult(ctx, run.ID, 99, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "result index 99 not found")
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), config.StoreConfig{Driver: "oracle"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown driver "oracle"`)
}

func TestOpenSQLiteDefault(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "open.db")
	s, err := Open(context.Background(), config.StoreConfig{Driver: "", DSN: dsn})
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.CreateRun(context.Background(), testRun()))
}
