package forecastcache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/weather-favorites/internal/domain/forecast"
)

func TestMemoryStoreExpiresEntries(t *testing.T) {
	store := NewMemoryStore()
	now := time.Date(2024, time.May, 2, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	tl := forecast.Timeline{Timestep: forecast.TimestepDaily, Intervals: []forecast.Interval{{}, {}}}
	require.NoError(t, store.Set(ctx, "k", tl, time.Minute))

	got, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, got.Intervals, 2)

	now = now.Add(2 * time.Minute)
	_, ok, err = store.Get(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMemoryStoreMiss(t *testing.T) {
	_, ok, err := NewMemoryStore().Get(context.Background(), "missing")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMemoryStoreWithoutTTLKeepsEntry(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Set(context.Background(), "k", forecast.Timeline{Timestep: forecast.TimestepHourly}, 0))
	got, ok, err := store.Get(context.Background(), "k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, forecast.TimestepHourly, got.Timestep)
}
