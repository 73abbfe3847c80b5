package main

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/valkey-io/valkey-go"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/yanqian/weather-favorites/internal/domain/favorites"
	"github.com/yanqian/weather-favorites/internal/domain/forecast"
	"github.com/yanqian/weather-favorites/internal/domain/geo"
	"github.com/yanqian/weather-favorites/internal/domain/search"
	"github.com/yanqian/weather-favorites/internal/infra/config"
	"github.com/yanqian/weather-favorites/internal/infra/favoritesrepo"
	"github.com/yanqian/weather-favorites/internal/infra/forecastcache"
	"github.com/yanqian/weather-favorites/internal/infra/geocoding/google"
	"github.com/yanqian/weather-favorites/internal/infra/iplookup/ipinfo"
	"github.com/yanqian/weather-favorites/internal/infra/tomorrowio"
)

func provideTomorrowClient(cfg *config.Config) *tomorrowio.Client {
	return tomorrowio.NewClient(cfg.Forecast)
}

func provideGeocoder(cfg *config.Config) *google.Client {
	return google.NewClient(cfg.Geocoding)
}

func provideIPLocator(cfg *config.Config) *ipinfo.Client {
	return ipinfo.NewClient(cfg.IPLookup)
}

func provideForecastFetcher(cfg *config.Config, client *tomorrowio.Client, cache forecast.Cache, logger *slog.Logger) forecast.Fetcher {
	if cfg.Forecast.Cache.TTL <= 0 {
		logger.Info("forecast cache disabled")
		return client
	}
	return forecast.NewCachedFetcher(client, cache, cfg.Forecast.Cache.TTL, logger)
}

func provideForecastCache(cfg *config.Config, logger *slog.Logger) forecast.Cache {
	if cfg.Forecast.Cache.Redis.Enabled {
		opt, err := buildValkeyOptions(cfg.Forecast.Cache.Redis.Addr)
		if err != nil {
			logger.Error("invalid valkey configuration, falling back to memory cache", "error", err)
			return forecastcache.NewMemoryStore()
		}
		client, err := valkey.NewClient(opt)
		if err != nil {
			logger.Error("failed to create valkey client, falling back to memory cache", "error", err)
			return forecastcache.NewMemoryStore()
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
			logger.Error("valkey ping failed, falling back to memory cache", "error", err)
			client.Close()
		} else {
			logger.Info("forecast valkey cache enabled", "addr", cfg.Forecast.Cache.Redis.Addr)
			return forecastcache.NewValkeyStore(client, "weather")
		}
	}
	return forecastcache.NewMemoryStore()
}

func buildValkeyOptions(addr string) (valkey.ClientOption, error) {
	if strings.Contains(addr, "://") {
		return valkey.ParseURL(addr)
	}
	return valkey.ClientOption{InitAddress: []string{addr}}, nil
}

func provideFavoritesRepository(cfg *config.Config, logger *slog.Logger) favorites.Repository {
	switch cfg.Favorites.Backend {
	case config.BackendPostgres:
		if repo := newPostgresFavorites(cfg.Favorites.Postgres, logger); repo != nil {
			return repo
		}
	case config.BackendMongo:
		if repo := newMongoFavorites(cfg.Favorites.Mongo, logger); repo != nil {
			return repo
		}
	}
	logger.Info("using memory favorites repository")
	return favoritesrepo.NewMemoryRepository()
}

func newPostgresFavorites(cfg config.PostgresConfig, logger *slog.Logger) *favoritesrepo.PostgresRepository {
	dsn := strings.TrimSpace(cfg.DSN)
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		logger.Error("invalid postgres dsn, using memory repository", "error", err)
		return nil
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolConfig.MinConns = cfg.MinConns
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		logger.Error("failed to initialize postgres pool, using memory repository", "error", err)
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("postgres ping failed, using memory repository", "error", err)
		pool.Close()
		return nil
	}
	repo := favoritesrepo.NewPostgresRepository(pool)
	if err := repo.EnsureSchema(ctx); err != nil {
		logger.Error("postgres schema setup failed, using memory repository", "error", err)
		pool.Close()
		return nil
	}
	logger.Info("favorites postgres repository enabled")
	return repo
}

func newMongoFavorites(cfg config.MongoConfig, logger *slog.Logger) *favoritesrepo.MongoRepository {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(strings.TrimSpace(cfg.URI)))
	if err != nil {
		logger.Error("failed to connect to mongo, using memory repository", "error", err)
		return nil
	}
	if err := client.Ping(ctx, nil); err != nil {
		logger.Error("mongo ping failed, using memory repository", "error", err)
		_ = client.Disconnect(context.Background())
		return nil
	}
	repo := favoritesrepo.NewMongoRepository(client.Database(cfg.Database).Collection(cfg.Collection))
	if err := repo.EnsureIndexes(ctx); err != nil {
		logger.Error("mongo index setup failed, using memory repository", "error", err)
		_ = client.Disconnect(context.Background())
		return nil
	}
	logger.Info("favorites mongo repository enabled", "database", cfg.Database, "collection", cfg.Collection)
	return repo
}

func provideFavoritesClient(svc favorites.Service, logger *slog.Logger) *favorites.Client {
	client := favorites.NewClient(svc)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Sync(ctx); err != nil {
		logger.Warn("initial favorites sync failed", "error", err)
	}
	return client
}

func provideSearchManager(cfg *config.Config, resolver *geo.Resolver, fetcher forecast.Fetcher, client *favorites.Client, logger *slog.Logger) *search.Manager {
	return search.NewManager(search.Config{
		TickInterval: cfg.Search.TickInterval,
		TickStep:     cfg.Search.TickStep,
		RunTimeout:   cfg.Search.RunTimeout,
	}, cfg.Search.SessionTTL, resolver, fetcher, client, logger)
}
