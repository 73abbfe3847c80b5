package favoritesrepo

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/weather-favorites/internal/domain/favorites"
	"github.com/yanqian/weather-favorites/internal/domain/geo"
)

func TestMemoryRepositoryIdentityIgnoresCase(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, favorites.Entry{CityName: "Los Angeles", Region: "California"}))
	err := repo.Insert(ctx, favorites.Entry{CityName: "los angeles", Region: "CALIFORNIA", Coordinates: &geo.Coordinates{Latitude: "1", Longitude: "2"}})
	require.ErrorIs(t, err, favorites.ErrDuplicate)

	require.NoError(t, repo.Delete(ctx, favorites.KeyOf("LOS ANGELES", "california")))
	require.ErrorIs(t, repo.Delete(ctx, favorites.KeyOf("Los Angeles", "California")), favorites.ErrNotFound)

	entries, err := repo.List(ctx)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestMemoryRepositoryKeepsInsertionOrder(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	for _, city := range []string{"Seattle", "Austin", "Boston"} {
		require.NoError(t, repo.Insert(ctx, favorites.Entry{CityName: city, Region: "US"}))
	}
	require.NoError(t, repo.Delete(ctx, favorites.KeyOf("austin", "us")))

	entries, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "Seattle", entries[0].CityName)
	require.Equal(t, "Boston", entries[1].CityName)
}

func TestMemoryRepositoryConcurrentInsertsSucceedOnce(t *testing.T) {
	repo := NewMemoryRepository()
	var (
		wg        sync.WaitGroup
		successes atomic.Int32
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := repo.Insert(context.Background(), favorites.Entry{CityName: "Denver", Region: "Colorado"}); err == nil {
				successes.Add(1)
			}
		}()
	}
	wg.Wait()
	require.Equal(t, int32(1), successes.Load())

	entries, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestMemoryRepositoryReturnsCopies(t *testing.T) {
	repo := NewMemoryRepository()
	coords := &geo.Coordinates{Latitude: "1", Longitude: "2"}
	require.NoError(t, repo.Insert(context.Background(), favorites.Entry{CityName: "A", Region: "B", Coordinates: coords}))
	coords.Latitude = "99"

	entries, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Equal(t, "1", entries[0].Coordinates.Latitude)
}
