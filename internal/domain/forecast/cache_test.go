package forecast

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/weather-favorites/internal/domain/geo"
)

type stubFetcher struct {
	calls   atomic.Int32
	release chan struct{}
	tl      Timeline
	err     error
}

func (s *stubFetcher) Fetch(ctx context.Context, coords geo.Coordinates, step Timestep) (Timeline, error) {
	s.calls.Add(1)
	if s.release != nil {
		select {
		case <-s.release:
		case <-ctx.Done():
			return Timeline{}, &FetchError{Reason: ReasonNetwork, Err: ctx.Err()}
		}
	}
	return s.tl, s.err
}

type mapCache struct {
	mu   sync.Mutex
	data map[string]Timeline
	err  error
}

func (m *mapCache) Get(ctx context.Context, key string) (Timeline, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return Timeline{}, false, m.err
	}
	tl, ok := m.data[key]
	return tl, ok, nil
}

func (m *mapCache) Set(ctx context.Context, key string, tl Timeline, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if m.data == nil {
		m.data = map[string]Timeline{}
	}
	m.data[key] = tl
	return nil
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var testCoords = geo.Coordinates{Latitude: "34.0522", Longitude: "-118.2437"}

func TestCachedFetcherServesFromCache(t *testing.T) {
	next := &stubFetcher{tl: Timeline{Timestep: TimestepDaily, Intervals: []Interval{{}}}}
	cached := NewCachedFetcher(next, &mapCache{}, time.Minute, newTestLogger())

	for i := 0; i < 3; i++ {
		tl, err := cached.Fetch(context.Background(), testCoords, TimestepDaily)
		require.NoError(t, err)
		require.Len(t, tl.Intervals, 1)
	}
	require.Equal(t, int32(1), next.calls.Load())

	_, err := cached.Fetch(context.Background(), testCoords, TimestepHourly)
	require.NoError(t, err)
	require.Equal(t, int32(2), next.calls.Load())
}

func TestCachedFetcherDoesNotCacheFailures(t *testing.T) {
	next := &stubFetcher{err: &FetchError{Reason: ReasonHTTPStatus, StatusCode: 500}}
	cache := &mapCache{}
	cached := NewCachedFetcher(next, cache, time.Minute, newTestLogger())

	_, err := cached.Fetch(context.Background(), testCoords, TimestepDaily)
	require.True(t, IsFetchReason(err, ReasonHTTPStatus))
	_, err = cached.Fetch(context.Background(), testCoords, TimestepDaily)
	require.Error(t, err)
	require.Equal(t, int32(2), next.calls.Load())
	require.Empty(t, cache.data)
}

func TestCachedFetcherIgnoresCacheErrors(t *testing.T) {
	next := &stubFetcher{tl: Timeline{Timestep: TimestepDaily}}
	cached := NewCachedFetcher(next, &mapCache{err: errors.New("down")}, time.Minute, newTestLogger())

	tl, err := cached.Fetch(context.Background(), testCoords, TimestepDaily)
	require.NoError(t, err)
	require.Equal(t, TimestepDaily, tl.Timestep)
}

func TestCachedFetcherCollapsesConcurrentFetches(t *testing.T) {
	next := &stubFetcher{release: make(chan struct{}), tl: Timeline{Timestep: TimestepDaily}}
	cached := NewCachedFetcher(next, &mapCache{}, time.Minute, newTestLogger())

	var wg sync.WaitGroup
	errs := make(chan error, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := cached.Fetch(context.Background(), testCoords, TimestepDaily)
			errs <- err
		}()
	}
	require.Eventually(t, func() bool { return next.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(next.release)
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
	require.LessOrEqual(t, next.calls.Load(), int32(5))
	require.GreaterOrEqual(t, next.calls.Load(), int32(1))
}

func TestCachedFetcherCallerCancelDoesNotFailOthers(t *testing.T) {
	next := &stubFetcher{release: make(chan struct{}), tl: Timeline{Timestep: TimestepDaily}}
	cached := NewCachedFetcher(next, &mapCache{}, time.Minute, newTestLogger())

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := cached.Fetch(ctxA, testCoords, TimestepDaily)
		errA <- err
	}()
	require.Eventually(t, func() bool { return next.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	type result struct {
		tl  Timeline
		err error
	}
	resB := make(chan result, 1)
	go func() {
		tl, err := cached.Fetch(context.Background(), testCoords, TimestepDaily)
		resB <- result{tl, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancelA()
	err := <-errA
	require.True(t, IsFetchReason(err, ReasonNetwork))
	require.ErrorIs(t, err, context.Canceled)

	close(next.release)
	b := <-resB
	require.NoError(t, b.err)
	require.Equal(t, TimestepDaily, b.tl.Timestep)
	require.Equal(t, int32(1), next.calls.Load())

	// the shared result was cached for later callers
	_, err = cached.Fetch(context.Background(), testCoords, TimestepDaily)
	require.NoError(t, err)
	require.Equal(t, int32(1), next.calls.Load())
}

func TestCacheKeyNormalizesCoordinates(t *testing.T) {
	padded := geo.Coordinates{Latitude: " 34.0522 ", Longitude: "-118.2437"}
	require.Equal(t, CacheKey(testCoords, TimestepDaily), CacheKey(padded, TimestepDaily))
	require.NotEqual(t, CacheKey(testCoords, TimestepDaily), CacheKey(testCoords, TimestepHourly))
}
