package forecast

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/weather-favorites/internal/domain/geo"
	apperrors "github.com/yanqian/weather-favorites/pkg/errors"
)

func TestServiceDailyNormalizes(t *testing.T) {
	start := time.Date(2024, time.May, 2, 6, 0, 0, 0, time.UTC)
	next := &stubFetcher{tl: Timeline{Intervals: []Interval{{StartTime: start, Values: Values{TemperatureMax: f(80), CloudCover: f(51)}}}}}
	svc := NewService(next, newTestLogger())

	records, err := svc.Daily(context.Background(), testCoords)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, StatusCloudy, records[0].Status)
	require.Equal(t, "80°F", records[0].MaxTemp.String())
}

func TestServiceRejectsBadCoordinates(t *testing.T) {
	next := &stubFetcher{}
	svc := NewService(next, newTestLogger())

	_, err := svc.Hourly(context.Background(), geo.Coordinates{Latitude: "abc", Longitude: "1"})
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))
	_, err = svc.Daily(context.Background(), geo.Coordinates{})
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))
	require.Zero(t, next.calls.Load())
}

func TestServiceWrapsFetchErrors(t *testing.T) {
	next := &stubFetcher{err: &FetchError{Reason: ReasonNetwork}}
	svc := NewService(next, newTestLogger())

	_, err := svc.Daily(context.Background(), testCoords)
	require.True(t, apperrors.IsCode(err, apperrors.CodeFetchFailed))
	require.True(t, IsFetchReason(err, ReasonNetwork))
}
