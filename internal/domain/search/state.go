package search

import (
	"github.com/yanqian/weather-favorites/internal/domain/forecast"
	"github.com/yanqian/weather-favorites/internal/domain/geo"
)

// Phase is the lifecycle position of a search.
type Phase string

const (
	PhaseIdle        Phase = "idle"
	PhaseResolving   Phase = "resolving"
	PhaseFetching    Phase = "fetching"
	PhaseNormalizing Phase = "normalizing"
	PhaseLoaded      Phase = "loaded"
	PhaseFailed      Phase = "failed"
)

// User-facing failure messages.
const (
	MessageFetchFailed   = "Failed to fetch weather data. Please try again."
	MessageResolveFailed = "Failed to resolve location. Please check the address."
)

// MaxProgress is where the progress indicator settles on success.
const MaxProgress = 100

// State is a snapshot of one orchestrator.
type State struct {
	Phase       Phase                `json:"phase"`
	Progress    int                  `json:"progress"`
	Error       string               `json:"error,omitempty"`
	Coordinates *geo.Coordinates     `json:"coordinates,omitempty"`
	Place       *geo.Place           `json:"place,omitempty"`
	Records     []forecast.DayRecord `json:"records,omitempty"`
	Favorite    bool                 `json:"favorite"`
	RunID       uint64               `json:"runId"`

	// Err is the typed cause behind Error.
	Err error `json:"-"`
}

// Active reports whether a run is in flight.
func (s State) Active() bool {
	switch s.Phase {
	case PhaseResolving, PhaseFetching, PhaseNormalizing:
		return true
	}
	return false
}

func (s State) ticking() bool {
	return s.Phase == PhaseResolving || s.Phase == PhaseFetching
}

func (s State) clone() State {
	out := s
	if s.Coordinates != nil {
		c := *s.Coordinates
		out.Coordinates = &c
	}
	if s.Place != nil {
		p := *s.Place
		out.Place = &p
	}
	out.Records = forecast.CloneRecords(s.Records)
	return out
}

// Query is one search submission. Known coordinates skip resolution.
type Query struct {
	Request     geo.Request
	Coordinates *geo.Coordinates
}
