package forecast

import (
	"context"
	"log/slog"

	"github.com/yanqian/weather-favorites/internal/domain/geo"
	apperrors "github.com/yanqian/weather-favorites/pkg/errors"
)

// Service returns normalized forecasts for known coordinates.
type Service interface {
	Daily(ctx context.Context, coords geo.Coordinates) ([]DayRecord, error)
	Hourly(ctx context.Context, coords geo.Coordinates) ([]HourRecord, error)
}

type service struct {
	fetcher Fetcher
	logger  *slog.Logger
}

// NewService wires the forecast domain.
func NewService(fetcher Fetcher, logger *slog.Logger) Service {
	return &service{
		fetcher: fetcher,
		logger:  logger.With("component", "forecast.service"),
	}
}

func (s *service) Daily(ctx context.Context, coords geo.Coordinates) ([]DayRecord, error) {
	tl, err := s.fetch(ctx, coords, TimestepDaily)
	if err != nil {
		return nil, err
	}
	return NormalizeDaily(tl), nil
}

func (s *service) Hourly(ctx context.Context, coords geo.Coordinates) ([]HourRecord, error) {
	tl, err := s.fetch(ctx, coords, TimestepHourly)
	if err != nil {
		return nil, err
	}
	return NormalizeHourly(tl), nil
}

func (s *service) fetch(ctx context.Context, coords geo.Coordinates, step Timestep) (Timeline, error) {
	coords = coords.Normalize()
	if coords.IsZero() {
		return Timeline{}, apperrors.Wrap(apperrors.CodeInvalidInput, "lat and long are required", nil)
	}
	if _, err := geo.ParseLatLong(coords.String()); err != nil {
		return Timeline{}, apperrors.Wrap(apperrors.CodeInvalidInput, "lat and long must be valid coordinates", err)
	}
	tl, err := s.fetcher.Fetch(ctx, coords, step)
	if err != nil {
		s.logger.Warn("forecast fetch failed", "step", step, "coordinates", coords.String(), "error", err)
		return Timeline{}, apperrors.Wrap(apperrors.CodeFetchFailed, "failed to fetch weather data", err)
	}
	s.logger.Info("forecast fetched", "step", step, "intervals", len(tl.Intervals))
	return tl, nil
}
