package decisionlog

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Div1912/Ageis/internal/types"
)

func testEntry(cycleID string, action types.Action) types.DecisionLogEntry {
	return types.DecisionLogEntry{
		Timestamp:  time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		CycleID:    cycleID,
		Price:      0.18,
		Action:     action,
		Reason:     "in range, ~12h predicted, fees +$15.00/day",
		Confidence: 0.9,
	}
}

func newTestFileSink(t *testing.T) *FileSink {
	t.Helper()
	sink, err := NewFileSink(filepath.Join(t.TempDir(), "decisions.jsonl"))
	require.NoError(t, err)
	t.Cleanup(func() { sink.Close() })
	return sink
}

func TestFileSinkAppendAndReadBack(t *testing.T) {
	sink := newTestFileSink(t)
	ctx := context.Background()

	require.NoError(t, sink.Append(ctx, testEntry("cycle-1", types.ActionHold)))
	require.NoError(t, sink.Append(ctx, testEntry("cycle-2", types.ActionRebalance)))
	require.NoError(t, sink.Append(ctx, testEntry("cycle-3", types.ActionSkip)))

	entries, err := sink.ReadRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "cycle-1", entries[0].CycleID)
	assert.Equal(t, "cycle-3", entries[2].CycleID)
	assert.Equal(t, types.ActionRebalance, entries[1].Action)
}

func TestFileSinkReadRecentLimits(t *testing.T) {
	sink := newTestFileSink(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, sink.Append(ctx, testEntry("cycle", types.ActionHold)))
	}

	entries, err := sink.ReadRecent(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

type failingAppender struct {
	calls int
}

func (f *failingAppender) Append(context.Context, types.DecisionLogEntry) error {
	f.calls++
	return errors.New("broker unavailable")
}

func TestRecorderSecondaryFailureIsSwallowed(t *testing.T) {
	sink := newTestFileSink(t)
	mirror := &failingAppender{}

	rec, err := NewRecorder(sink, mirror)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, rec.Record(ctx, testEntry("cycle-1", types.ActionHold)))
	assert.Equal(t, 1, mirror.calls)

	entries, err := rec.ReadRecent(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

type failingSink struct{}

func (failingSink) Append(context.Context, types.DecisionLogEntry) error {
	return errors.New("disk full")
}

func (failingSink) ReadRecent(context.Context, int) ([]types.DecisionLogEntry, error) {
	return nil, nil
}

func TestRecorderPrimaryFailurePropagates(t *testing.T) {
	rec, err := NewRecorder(failingSink{})
	require.NoError(t, err)

	err = rec.Record(context.Background(), testEntry("cycle-1", types.ActionHold))
	require.Error(t, err)
}
