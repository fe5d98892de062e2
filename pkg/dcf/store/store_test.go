package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stex99/dcf-tool/pkg/dcf/apperrors"
	"github.com/stex99/dcf-tool/pkg/dcf/source"
	"github.com/stex99/dcf-tool/pkg/dcf/types"
	"github.com/stex99/dcf-tool/pkg/dcf/valuation"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleRun(created time.Time) Run {
	return Run{
		ID:        uuid.NewString(),
		CreatedAt: created,
		Params:    valuation.DefaultParams(),
		Tolerance: 0.10,
		Summary: types.Summary{
			Results: []types.HoldingResult{
				{
					Identifier:     "AAPL",
					Shares:         20,
					IntrinsicValue: types.Float(1.2e12),
					ValuePerShare:  types.Float(120),
					MarketPrice:    types.Float(100),
					Difference:     types.Float(20),
					UpsidePercent:  types.Float(20),
					Flag:           types.FlagUndervalued,
					HoldingValue:   types.Float(2400),
				},
				{Identifier: "XYZ", Shares: 10, MarketPrice: types.Float(42.5)},
			},
			TotalEstimatedValue: 2400,
		},
	}
}

func TestSaveAndReadRun(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	run := sampleRun(time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC))
	require.NoError(t, s.SaveRun(ctx, run))

	got, err := s.Results(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.Summary.Results, got)

	hs, err := s.Holdings(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, []types.Holding{{Identifier: "AAPL", Shares: 20}, {Identifier: "XYZ", Shares: 10}}, hs)
}

func TestListRunsNewestFirst(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	older := sampleRun(base)
	newer := sampleRun(base.Add(1500 * time.Millisecond))
	newest := sampleRun(base.Add(2 * time.Second))
	for _, r := range []Run{newer, older, newest} {
		require.NoError(t, s.SaveRun(ctx, r))
	}

	runs, err := s.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, []string{newest.ID, newer.ID, older.ID}, []string{runs[0].ID, runs[1].ID, runs[2].ID})
	assert.Equal(t, 2, runs[0].Holdings)
	assert.Equal(t, 2400.0, runs[0].Total)
	assert.Equal(t, valuation.DefaultParams(), runs[0].Params)
	assert.True(t, runs[1].CreatedAt.Equal(newer.CreatedAt))

	limited, err := s.ListRuns(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestRunNotFound(t *testing.T) {
	s := setupTestStore(t)
	_, err := s.Results(context.Background(), "missing")
	assert.ErrorIs(t, err, apperrors.ErrRunNotFound)

	_, err = s.GetRun(context.Background(), "missing")
	assert.ErrorIs(t, err, apperrors.ErrRunNotFound)
}

func TestGetRun(t *testing.T) {
	s := setupTestStore(t)
	run := sampleRun(time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC))
	require.NoError(t, s.SaveRun(context.Background(), run))

	ri, err := s.GetRun(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, ri.ID)
	assert.True(t, ri.CreatedAt.Equal(run.CreatedAt))
	assert.Equal(t, 0.10, ri.Tolerance)
	assert.Equal(t, 2, ri.Holdings)
}

func TestDuplicateRunRejected(t *testing.T) {
	s := setupTestStore(t)
	run := sampleRun(time.Now())
	require.NoError(t, s.SaveRun(context.Background(), run))
	assert.Error(t, s.SaveRun(context.Background(), run))

	runs, err := s.ListRuns(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, 2, runs[0].Holdings)
}

func TestReopenFileArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	ctx := context.Background()

	s, err := Open(ctx, path)
	require.NoError(t, err)
	run := sampleRun(time.Now())
	require.NoError(t, s.SaveRun(ctx, run))
	require.NoError(t, s.Close())

	s, err = Open(ctx, path)
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Ping(ctx))
	runs, err := s.ListRuns(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestArchiveSourceReplaysRun(t *testing.T) {
	s := setupTestStore(t)
	run := sampleRun(time.Now())
	require.NoError(t, s.SaveRun(context.Background(), run))

	hs, err := source.ArchiveSource{Store: s}.Load(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Len(t, hs, 2)
}
