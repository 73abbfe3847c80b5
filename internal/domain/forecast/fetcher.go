package forecast

import (
	"context"
	"errors"
	"fmt"

	"github.com/yanqian/weather-favorites/internal/domain/geo"
)

// Fetcher retrieves a raw provider timeline for a location.
type Fetcher interface {
	Fetch(ctx context.Context, coords geo.Coordinates, step Timestep) (Timeline, error)
}

// FetchReason classifies fetch failures.
type FetchReason string

const (
	ReasonNetwork    FetchReason = "network"
	ReasonHTTPStatus FetchReason = "http_status"
	ReasonMalformed  FetchReason = "malformed"
)

// FetchError is returned by fetchers for every failure.
type FetchError struct {
	Reason     FetchReason
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	msg := "forecast fetch failed: " + string(e.Reason)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// IsFetchReason reports whether err is a FetchError with the given reason.
func IsFetchReason(err error, reason FetchReason) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.Reason == reason
}
