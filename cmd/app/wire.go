//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/yanqian/weather-favorites/internal/bootstrap"
	"github.com/yanqian/weather-favorites/internal/domain/favorites"
	"github.com/yanqian/weather-favorites/internal/domain/forecast"
	"github.com/yanqian/weather-favorites/internal/domain/geo"
	"github.com/yanqian/weather-favorites/internal/infra/config"
	"github.com/yanqian/weather-favorites/internal/infra/geocoding/google"
	"github.com/yanqian/weather-favorites/internal/infra/iplookup/ipinfo"
	httpiface "github.com/yanqian/weather-favorites/internal/interface/http"
	"github.com/yanqian/weather-favorites/pkg/logger"
)

func initializeApp() (*bootstrap.App, error) {
	wire.Build(
		config.Load,
		logger.New,
		provideTomorrowClient,
		provideGeocoder,
		provideIPLocator,
		provideForecastCache,
		provideForecastFetcher,
		provideFavoritesRepository,
		provideFavoritesClient,
		provideSearchManager,
		geo.NewResolver,
		forecast.NewService,
		favorites.NewService,
		wire.Bind(new(geo.Geocoder), new(*google.Client)),
		wire.Bind(new(geo.IPLocator), new(*ipinfo.Client)),
		httpiface.NewHandler,
		httpiface.NewSessionHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil
}
