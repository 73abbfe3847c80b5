package tomorrowio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/yanqian/weather-favorites/internal/domain/forecast"
	"github.com/yanqian/weather-favorites/internal/domain/geo"
	"github.com/yanqian/weather-favorites/internal/infra/config"
)

const (
	defaultBaseURL  = "https://api.tomorrow.io"
	timelinesPath   = "/v4/timelines"
	timelineFields  = "temperature,temperatureApparent,temperatureMin,temperatureMax,windSpeed,humidity,sunriseTime,sunsetTime,visibility,cloudCover"
	hourlyEndTime   = "nowPlus5d"
	defaultTimezone = "America/Los_Angeles"
)

// Client fetches forecast timelines from tomorrow.io.
type Client struct {
	baseURL    string
	apiKey     string
	timezone   string
	httpClient *http.Client
	limiter    *rate.Limiter
	circuit    *gobreaker.CircuitBreaker
}

// NewClient builds an API client guarded by a rate limiter and a circuit breaker.
func NewClient(cfg config.ForecastConfig) *Client {
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		base = defaultBaseURL
	}
	timezone := strings.TrimSpace(cfg.Timezone)
	if timezone == "" {
		timezone = defaultTimezone
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	limit := rate.Inf
	if cfg.RequestsPerSec > 0 {
		limit = rate.Limit(cfg.RequestsPerSec)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	failures := cfg.Breaker.ConsecutiveFailures
	if failures == 0 {
		failures = 5
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "tomorrowio",
		MaxRequests: cfg.Breaker.MaxRequests,
		Interval:    cfg.Breaker.Interval,
		Timeout:     cfg.Breaker.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			var ce *callerError
			return err == nil || errors.As(err, &ce)
		},
	})

	return &Client{
		baseURL:  strings.TrimRight(base, "/"),
		apiKey:   cfg.APIKey,
		timezone: timezone,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		limiter: rate.NewLimiter(limit, burst),
		circuit: cb,
	}
}

// Fetch retrieves the timeline for coords at the given timestep.
func (c *Client) Fetch(ctx context.Context, coords geo.Coordinates, step forecast.Timestep) (forecast.Timeline, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return forecast.Timeline{}, &forecast.FetchError{Reason: forecast.ReasonNetwork, Err: fmt.Errorf("rate limit wait: %w", err)}
	}

	body, err := c.circuit.Execute(func() (any, error) {
		body, err := c.do(ctx, coords, step)
		if err != nil && ctx.Err() != nil {
			return nil, &callerError{err: err}
		}
		return body, err
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return forecast.Timeline{}, &forecast.FetchError{Reason: forecast.ReasonNetwork, Err: err}
		}
		var fe *forecast.FetchError
		if errors.As(err, &fe) {
			return forecast.Timeline{}, fe
		}
		return forecast.Timeline{}, &forecast.FetchError{Reason: forecast.ReasonNetwork, Err: err}
	}

	var raw apiResponse
	if err := json.Unmarshal(body.([]byte), &raw); err != nil {
		return forecast.Timeline{}, &forecast.FetchError{Reason: forecast.ReasonMalformed, Err: fmt.Errorf("decode timeline response: %w", err)}
	}
	if len(raw.Data.Timelines) == 0 {
		return forecast.Timeline{}, &forecast.FetchError{Reason: forecast.ReasonMalformed, Err: errors.New("response has no timelines")}
	}
	tl := raw.Data.Timelines[0]
	if tl.Timestep == "" {
		tl.Timestep = step
	}
	return tl, nil
}

func (c *Client) do(ctx context.Context, coords geo.Coordinates, step forecast.Timestep) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(coords, step), nil)
	if err != nil {
		return nil, &forecast.FetchError{Reason: forecast.ReasonNetwork, Err: fmt.Errorf("build timeline request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &forecast.FetchError{Reason: forecast.ReasonNetwork, Err: fmt.Errorf("timeline request failed: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, &forecast.FetchError{
			Reason:     forecast.ReasonHTTPStatus,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("timeline request error: body=%s", string(payload)),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &forecast.FetchError{Reason: forecast.ReasonNetwork, Err: fmt.Errorf("read timeline response: %w", err)}
	}
	return body, nil
}

func (c *Client) endpoint(coords geo.Coordinates, step forecast.Timestep) string {
	values := url.Values{}
	values.Set("location", coords.Normalize().String())
	values.Set("fields", timelineFields)
	values.Set("units", "imperial")
	values.Set("timesteps", string(step))
	values.Set("timezone", c.timezone)
	if step == forecast.TimestepHourly {
		values.Set("endTime", hourlyEndTime)
	}
	values.Set("apikey", c.apiKey)
	return c.baseURL + timelinesPath + "?" + values.Encode()
}

// callerError marks a failure caused by the caller's own context ending.
// The breaker does not count it against the provider.
type callerError struct {
	err error
}

func (e *callerError) Error() string { return e.err.Error() }

func (e *callerError) Unwrap() error { return e.err }

type apiResponse struct {
	Data apiData `json:"data"`
}

type apiData struct {
	Timelines []forecast.Timeline `json:"timelines"`
}

var _ forecast.Fetcher = (*Client)(nil)
