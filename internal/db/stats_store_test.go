package db

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStatsStore_Nil(t *testing.T) {
	assert.Nil(t, NewStatsStore(nil))

	var s *StatsStore
	ctx := context.Background()
	assert.Error(t, s.Increment(ctx, "next"))
	_, err := s.Counts(ctx)
	assert.Error(t, err)
	_, err = s.CountsSince(ctx, 7)
	assert.Error(t, err)
	assert.Error(t, s.Reset(ctx))
}

func TestStatsStore_Increment(t *testing.T) {
	ctx := context.Background()
	stats := NewStatsStore(openTestStore(t))
	clock := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	stats.now = func() time.Time { return clock }

	for _, op := range []string{"next", "next", "archive", "next", "toggle", "archive"} {
		require.NoError(t, stats.Increment(ctx, op))
	}

	counts, err := stats.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []OpCount{
		{Op: "next", Count: 3, LastUsed: clock.Unix()},
		{Op: "archive", Count: 2, LastUsed: clock.Unix()},
		{Op: "toggle", Count: 1, LastUsed: clock.Unix()},
	}, counts)
}

func TestStatsStore_Increment_Validation(t *testing.T) {
	stats := NewStatsStore(openTestStore(t))

	for _, op := range []string{"", "   ", "\t"} {
		assert.Error(t, stats.Increment(context.Background(), op))
	}
}

func TestStatsStore_CountsSince(t *testing.T) {
	ctx := context.Background()
	stats := NewStatsStore(openTestStore(t))
	day := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	record := func(offset int, op string, n int) {
		stats.now = func() time.Time { return day.AddDate(0, 0, offset) }
		for i := 0; i < n; i++ {
			require.NoError(t, stats.Increment(ctx, op))
		}
	}
	record(0, "delete", 4)
	record(5, "next", 2)
	record(6, "next", 1)
	record(6, "star", 5)

	// "today" is day+6
	got, err := stats.CountsSince(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []OpCount{{Op: "star", Count: 5}, {Op: "next", Count: 3}}, got)

	got, err = stats.CountsSince(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []OpCount{{Op: "star", Count: 5}, {Op: "next", Count: 1}}, got)

	got, err = stats.CountsSince(ctx, 30)
	require.NoError(t, err)
	assert.Len(t, got, 3)

	_, err = stats.CountsSince(ctx, 0)
	assert.Error(t, err)
}

func TestStatsStore_Reset(t *testing.T) {
	ctx := context.Background()
	stats := NewStatsStore(openTestStore(t))
	require.NoError(t, stats.Increment(ctx, "compose"))

	require.NoError(t, stats.Reset(ctx))

	counts, err := stats.Counts(ctx)
	assert.NoError(t, err)
	assert.Empty(t, counts)
	daily, err := stats.CountsSince(ctx, 1)
	assert.NoError(t, err)
	assert.Empty(t, daily)
}

func TestRecorder(t *testing.T) {
	ctx := context.Background()
	stats := NewStatsStore(openTestStore(t))
	rec := stats.Recorder(ctx)

	require.NoError(t, rec.Increment("go_inbox"))
	require.NoError(t, rec.Increment("go_inbox"))

	counts, err := stats.Counts(ctx)
	require.NoError(t, err)
	require.Len(t, counts, 1)
	assert.Equal(t, "go_inbox", counts[0].Op)
	assert.Equal(t, int64(2), counts[0].Count)
}
