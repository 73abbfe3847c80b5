package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/weather-favorites/internal/domain/favorites"
	"github.com/yanqian/weather-favorites/internal/domain/forecast"
	"github.com/yanqian/weather-favorites/internal/domain/geo"
	"github.com/yanqian/weather-favorites/internal/domain/search"
	"github.com/yanqian/weather-favorites/internal/infra/config"
	"github.com/yanqian/weather-favorites/internal/infra/favoritesrepo"
)

func TestRouter_AddFavoriteAndDuplicate(t *testing.T) {
	server := newRouterUnderTest(t, defaultConfig())

	rec := performRequest(server, http.MethodPost, "/api/favorites", favoriteBody("Los Angeles", "California"))
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, favorites.MessageAdded, decodeMessage(t, rec.Body.Bytes()))

	rec = performRequest(server, http.MethodPost, "/api/favorites", favoriteBody("los angeles", "CALIFORNIA"))
	require.Equal(t, http.StatusConflict, rec.Code)
	errBody := decodeErrorBody(t, rec.Body.Bytes())
	require.Equal(t, "duplicate_favorite", errBody["error"]["code"])
	require.Equal(t, favorites.MessageDuplicate, errBody["error"]["message"])

	rec = performRequest(server, http.MethodGet, "/api/favorites", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var entries []favorites.Entry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	require.Equal(t, "Los Angeles", entries[0].CityName)
	require.Equal(t, "80°F", entries[0].Data[0].MaxTemp.String())
}

func TestRouter_RemoveFavoriteIgnoresCase(t *testing.T) {
	server := newRouterUnderTest(t, defaultConfig())
	require.Equal(t, http.StatusCreated, performRequest(server, http.MethodPost, "/api/favorites", favoriteBody("Los Angeles", "California")).Code)

	rec := performRequest(server, http.MethodDelete, "/api/favorites", `{"cityName":"LOS ANGELES","region":"california"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, favorites.MessageRemoved, decodeMessage(t, rec.Body.Bytes()))

	rec = performRequest(server, http.MethodDelete, "/api/favorites", `{"cityName":"Los Angeles","region":"California"}`)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, favorites.MessageNotFound, decodeErrorBody(t, rec.Body.Bytes())["error"]["message"])

	rec = performRequest(server, http.MethodGet, "/api/favorites", "")
	require.JSONEq(t, `[]`, rec.Body.String())
}

func TestRouter_AddFavoriteBareNumbersGetUnits(t *testing.T) {
	server := newRouterUnderTest(t, defaultConfig())

	body := `{"cityName":"Reno","region":"Nevada","data":[{"date":"Thursday, May 2, 2024","status":"Clear","maxTemp":80,"windSpeed":12}]}`
	require.Equal(t, http.StatusCreated, performRequest(server, http.MethodPost, "/api/favorites", body).Code)

	rec := performRequest(server, http.MethodGet, "/api/favorites", "")
	var raw []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	require.Len(t, raw, 1)
	day := raw[0]["data"].([]any)[0].(map[string]any)
	require.Equal(t, "80°F", day["maxTemp"])
	require.Equal(t, "12 mph", day["windSpeed"])
}

func TestRouter_AddFavoriteInvalid(t *testing.T) {
	server := newRouterUnderTest(t, defaultConfig())

	rec := performRequest(server, http.MethodPost, "/api/favorites", `{"cityName":123}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "invalid_request", decodeErrorBody(t, rec.Body.Bytes())["error"]["code"])

	rec = performRequest(server, http.MethodPost, "/api/favorites", `{"cityName":"Paris","region":""}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "invalid_input", decodeErrorBody(t, rec.Body.Bytes())["error"]["code"])
}

func TestRouter_DailyForecast(t *testing.T) {
	server := newRouterUnderTest(t, defaultConfig())

	rec := performRequest(server, http.MethodGet, "/api/weather?lat=34.0522&long=-118.2437", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Records []map[string]any `json:"records"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Records, 2)
	require.Equal(t, "Cloudy", body.Records[0]["status"])
	require.Equal(t, "80°F", body.Records[0]["maxTemp"])
	require.Equal(t, "N/A", body.Records[1]["humidity"])

	rec = performRequest(server, http.MethodGet, "/api/hourly?lat=abc&long=1", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_ForecastUpstreamFailure(t *testing.T) {
	deps := newTestDeps()
	deps.fetcher.err = &forecast.FetchError{Reason: forecast.ReasonHTTPStatus, StatusCode: 500}
	server := deps.server(defaultConfig())

	rec := performRequest(server, http.MethodGet, "/api/weather?lat=1&long=1", "")
	require.Equal(t, http.StatusBadGateway, rec.Code)
	require.Equal(t, "fetch_failed", decodeErrorBody(t, rec.Body.Bytes())["error"]["code"])
}

func TestRouter_SessionSearchLifecycle(t *testing.T) {
	server := newRouterUnderTest(t, defaultConfig())

	rec := performRequest(server, http.MethodPost, "/api/sessions", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	snap := decodeSnapshot(t, rec.Body.Bytes())
	require.NotEmpty(t, snap.ID)
	require.Equal(t, search.PhaseIdle, snap.State.Phase)
	base := "/api/sessions/" + snap.ID

	rec = performRequest(server, http.MethodPatch, base+"/form", `{"street":"200 N Spring St"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = performRequest(server, http.MethodPost, base+"/search", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	snap = decodeSnapshot(t, performRequest(server, http.MethodGet, base, "").Body.Bytes())
	require.True(t, snap.Form.FieldErrors[geo.FieldCity])
	require.False(t, snap.Form.FieldErrors[geo.FieldStreet])

	rec = performRequest(server, http.MethodPatch, base+"/form", `{"city":"Los Angeles","state":"CA"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = performRequest(server, http.MethodPost, base+"/search", "")
	require.Equal(t, http.StatusAccepted, rec.Code)

	require.Eventually(t, func() bool {
		snap = decodeSnapshot(t, performRequest(server, http.MethodGet, base, "").Body.Bytes())
		return snap.State.Phase == search.PhaseLoaded
	}, 2*time.Second, 5*time.Millisecond)
	require.Equal(t, 100, snap.State.Progress)
	require.Len(t, snap.State.Records, 2)
	require.Equal(t, "Los Angeles", snap.State.Place.CityName)
	require.False(t, snap.State.Favorite)

	rec = performRequest(server, http.MethodPost, base+"/favorite", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	snap = decodeSnapshot(t, performRequest(server, http.MethodGet, base, "").Body.Bytes())
	require.True(t, snap.State.Favorite)

	rec = performRequest(server, http.MethodPost, base+"/favorite", "")
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = performRequest(server, http.MethodPost, base+"/reset", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, search.PhaseIdle, decodeSnapshot(t, rec.Body.Bytes()).State.Phase)

	rec = performRequest(server, http.MethodPost, base+"/favorites/select", `{"cityName":"los angeles","region":"california"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	snap = decodeSnapshot(t, rec.Body.Bytes())
	require.Equal(t, search.PhaseLoaded, snap.State.Phase)
	require.True(t, snap.State.Favorite)

	rec = performRequest(server, http.MethodDelete, base+"/favorite", "")
	require.Equal(t, http.StatusOK, rec.Code)
	snap = decodeSnapshot(t, performRequest(server, http.MethodGet, base, "").Body.Bytes())
	require.False(t, snap.State.Favorite)

	rec = performRequest(server, http.MethodPost, base+"/favorites/select", `{"cityName":"Los Angeles","region":"California"}`)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_SessionFavoriteRequiresLoadedLocation(t *testing.T) {
	server := newRouterUnderTest(t, defaultConfig())
	snap := decodeSnapshot(t, performRequest(server, http.MethodPost, "/api/sessions", "").Body.Bytes())

	rec := performRequest(server, http.MethodPost, "/api/sessions/"+snap.ID+"/favorite", "")
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "no_location_loaded", decodeErrorBody(t, rec.Body.Bytes())["error"]["code"])
}

func TestRouter_SessionAutoDetect(t *testing.T) {
	server := newRouterUnderTest(t, defaultConfig())
	snap := decodeSnapshot(t, performRequest(server, http.MethodPost, "/api/sessions", "").Body.Bytes())
	base := "/api/sessions/" + snap.ID

	rec := performRequest(server, http.MethodPut, base+"/autodetect", `{"enabled":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	snap = decodeSnapshot(t, rec.Body.Bytes())
	require.True(t, snap.Form.AutoDetect)
	require.Equal(t, &geo.Coordinates{Latitude: "37.4056", Longitude: "-122.0775"}, snap.Form.Coordinates)

	rec = performRequest(server, http.MethodPut, base+"/autodetect", `{}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_UnknownSession(t *testing.T) {
	server := newRouterUnderTest(t, defaultConfig())

	rec := performRequest(server, http.MethodGet, "/api/sessions/does-not-exist", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "session_not_found", decodeErrorBody(t, rec.Body.Bytes())["error"]["code"])
}

func TestRouter_RateLimit(t *testing.T) {
	cfg := defaultConfig()
	cfg.HTTP.RateLimit = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 1, Burst: 1}
	server := newRouterUnderTest(t, cfg)

	require.Equal(t, http.StatusOK, performRequest(server, http.MethodGet, "/api/favorites", "").Code)
	rec := performRequest(server, http.MethodGet, "/api/favorites", "")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Equal(t, "rate_limit_exceeded", decodeErrorBody(t, rec.Body.Bytes())["error"]["code"])
}

func TestRouter_CORSPreflight(t *testing.T) {
	server := newRouterUnderTest(t, defaultConfig())

	rec := performRequest(server, http.MethodOptions, "/api/favorites", "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "DELETE")
}

func TestRouter_RetriesTransientReads(t *testing.T) {
	repo := &flakyRepo{Repository: favoritesrepo.NewMemoryRepository()}
	repo.failures.Store(2)
	deps := newTestDeps()
	deps.repo = repo
	deps.fetcher.err = &forecast.FetchError{Reason: forecast.ReasonNetwork}

	cfg := defaultConfig()
	cfg.HTTP.Retry = config.RetryConfig{
		Enabled:     true,
		MaxAttempts: 3,
		BaseBackoff: time.Millisecond,
		Exclude:     []string{"/api/weather"},
	}
	server := deps.server(cfg)

	rec := performRequest(server, http.MethodGet, "/api/favorites", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `[]`, rec.Body.String())
	require.Equal(t, int32(3), repo.lists.Load())

	repo.failures.Store(5)
	repo.lists.Store(0)
	rec = performRequest(server, http.MethodGet, "/api/favorites", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, "favorites_error", decodeErrorBody(t, rec.Body.Bytes())["error"]["code"])
	require.Equal(t, int32(3), repo.lists.Load())

	rec = performRequest(server, http.MethodGet, "/api/weather?lat=1&long=1", "")
	require.Equal(t, http.StatusBadGateway, rec.Code)
	require.Equal(t, int32(1), deps.fetcher.calls.Load())

	rec = performRequest(server, http.MethodGet, "/api/hourly?lat=1&long=1", "")
	require.Equal(t, http.StatusBadGateway, rec.Code)
	require.Equal(t, int32(4), deps.fetcher.calls.Load())
}

type testDeps struct {
	repo     favorites.Repository
	fetcher  *stubFetcher
	geocoder *stubGeocoder
	locator  *stubLocator
}

func newTestDeps() *testDeps {
	return &testDeps{
		repo:    favoritesrepo.NewMemoryRepository(),
		fetcher: &stubFetcher{tl: sampleTimeline()},
		geocoder: &stubGeocoder{
			result: geo.GeocodeResult{Status: geo.GeocodeStatusOK, Results: []geo.Coordinates{{Latitude: "34.0522", Longitude: "-118.2437"}}},
			place:  geo.Place{CityName: "Los Angeles", Region: "California"},
		},
		locator: &stubLocator{loc: "37.4056,-122.0775"},
	}
}

func (d *testDeps) server(cfg *config.Config) *http.Server {
	logger := newTestLogger()
	favSvc := favorites.NewService(d.repo, logger)
	client := favorites.NewClient(favSvc)
	resolver := geo.NewResolver(d.geocoder, d.locator, logger)
	manager := search.NewManager(search.Config{RunTimeout: time.Second}, time.Minute, resolver, d.fetcher, client, logger)
	handler := NewHandler(client, forecast.NewService(d.fetcher, logger), logger)
	return NewRouter(cfg, handler, NewSessionHandler(manager, client, logger), logger)
}

func newRouterUnderTest(t *testing.T, cfg *config.Config) *http.Server {
	t.Helper()
	return newTestDeps().server(cfg)
}

func defaultConfig() *config.Config {
	return &config.Config{
		HTTP: config.HTTPConfig{
			Address:      ":0",
			ReadTimeout:  time.Second,
			WriteTimeout: time.Second,
		},
	}
}

func sampleTimeline() forecast.Timeline {
	high, cloud := 80.0, 75.0
	return forecast.Timeline{
		Timestep: forecast.TimestepDaily,
		Intervals: []forecast.Interval{
			{StartTime: time.Date(2024, time.May, 2, 6, 0, 0, 0, time.UTC), Values: forecast.Values{TemperatureMax: &high, CloudCover: &cloud}},
			{StartTime: time.Date(2024, time.May, 3, 6, 0, 0, 0, time.UTC)},
		},
	}
}

func favoriteBody(city, region string) string {
	return `{"cityName":"` + city + `","region":"` + region + `","coordinates":{"latitude":"34.0522","longitude":"-118.2437"},` +
		`"data":[{"date":"Thursday, May 2, 2024","status":"Clear","maxTemp":"80°F","minTemp":"N/A"}]}`
}

func performRequest(server *http.Server, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, req)
	return rec
}

func newTestLogger() *slog.Logger {
	handler := slog.NewTextHandler(io.Discard, nil)
	return slog.New(handler)
}

type stubFetcher struct {
	calls atomic.Int32
	tl    forecast.Timeline
	err   error
}

func (s *stubFetcher) Fetch(ctx context.Context, coords geo.Coordinates, step forecast.Timestep) (forecast.Timeline, error) {
	s.calls.Add(1)
	return s.tl, s.err
}

// flakyRepo fails the next failures List calls before delegating.
type flakyRepo struct {
	favorites.Repository
	failures atomic.Int32
	lists    atomic.Int32
}

func (f *flakyRepo) List(ctx context.Context) ([]favorites.Entry, error) {
	f.lists.Add(1)
	if f.failures.Add(-1) >= 0 {
		return nil, errors.New("connection reset")
	}
	return f.Repository.List(ctx)
}

type stubGeocoder struct {
	result geo.GeocodeResult
	place  geo.Place
}

func (s *stubGeocoder) Geocode(ctx context.Context, address string) (geo.GeocodeResult, error) {
	return s.result, nil
}

func (s *stubGeocoder) ReverseGeocode(ctx context.Context, c geo.Coordinates) (geo.Place, error) {
	return s.place, nil
}

type stubLocator struct {
	loc string
}

func (s *stubLocator) Locate(ctx context.Context) (string, error) {
	return s.loc, nil
}

func decodeSnapshot(t *testing.T, raw []byte) search.Snapshot {
	t.Helper()
	var snap search.Snapshot
	require.NoError(t, json.Unmarshal(raw, &snap))
	return snap
}

func decodeMessage(t *testing.T, raw []byte) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(raw, &body))
	return body["message"]
}

func decodeErrorBody(t *testing.T, raw []byte) map[string]map[string]string {
	t.Helper()
	var body map[string]map[string]string
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}
