package search

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yanqian/weather-favorites/internal/domain/forecast"
	"github.com/yanqian/weather-favorites/internal/domain/geo"
)

// Resolver turns search input into coordinates and names them.
type Resolver interface {
	Resolve(ctx context.Context, req geo.Request) (geo.Coordinates, error)
	ReverseGeocode(ctx context.Context, c geo.Coordinates) geo.Place
}

// FavoriteChecker answers whether a loaded place is already a favorite.
type FavoriteChecker interface {
	Contains(place geo.Place, coords *geo.Coordinates) bool
}

// Config tunes the lifecycle.
type Config struct {
	TickInterval time.Duration
	TickStep     int
	RunTimeout   time.Duration
}

// Run is a handle to one submitted search.
type Run struct {
	ID   uint64
	done chan struct{}
}

// Done is closed once the run has settled or been discarded.
func (r *Run) Done() <-chan struct{} {
	return r.done
}

// Orchestrator drives one search at a time. Every submission gets a new
// sequence number; results carrying an older number are dropped.
type Orchestrator struct {
	cfg       Config
	resolver  Resolver
	fetcher   forecast.Fetcher
	favorites FavoriteChecker
	logger    *slog.Logger

	mu       sync.Mutex
	seq      uint64
	state    State
	stopTick func()

	tickers atomic.Int32
}

// NewOrchestrator creates an idle orchestrator.
func NewOrchestrator(cfg Config, resolver Resolver, fetcher forecast.Fetcher, favorites FavoriteChecker, logger *slog.Logger) *Orchestrator {
	if cfg.TickStep <= 0 {
		cfg.TickStep = 20
	}
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = 15 * time.Second
	}
	return &Orchestrator{
		cfg:       cfg,
		resolver:  resolver,
		fetcher:   fetcher,
		favorites: favorites,
		logger:    logger.With("component", "search.orchestrator"),
		state:     State{Phase: PhaseIdle},
	}
}

// Submit starts a new run, superseding any run in flight. Address validation
// errors are returned synchronously and leave the state untouched.
func (o *Orchestrator) Submit(ctx context.Context, q Query) (*Run, error) {
	var coords *geo.Coordinates
	if q.Coordinates != nil && !q.Coordinates.IsZero() {
		c := q.Coordinates.Normalize()
		coords = &c
	} else if !q.Request.AutoDetect {
		if err := geo.ValidateAddress(q.Request.Address); err != nil {
			return nil, err
		}
	}

	o.mu.Lock()
	o.seq++
	seq := o.seq
	o.stopTickerLocked()
	phase := PhaseResolving
	if coords != nil {
		phase = PhaseFetching
	}
	o.state = State{Phase: phase, Progress: 0, RunID: seq}
	if coords != nil {
		c := *coords
		o.state.Coordinates = &c
	}
	o.stopTick = o.startTicker(seq)
	o.mu.Unlock()

	o.logger.Info("search submitted", "run", seq, "phase", phase, "autoDetect", q.Request.AutoDetect)

	run := &Run{ID: seq, done: make(chan struct{})}
	runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.cfg.RunTimeout)
	go func() {
		defer close(run.done)
		defer cancel()
		o.execute(runCtx, seq, q.Request, coords)
	}()
	return run, nil
}

func (o *Orchestrator) execute(ctx context.Context, seq uint64, req geo.Request, coords *geo.Coordinates) {
	if coords == nil {
		resolved, err := o.resolver.Resolve(ctx, req)
		if err != nil {
			o.fail(seq, err)
			return
		}
		resolved = resolved.Normalize()
		coords = &resolved
		if !o.advance(seq, func(s *State) {
			s.Phase = PhaseFetching
			s.Coordinates = &resolved
		}) {
			return
		}
	}

	tl, err := o.fetcher.Fetch(ctx, *coords, forecast.TimestepDaily)
	if err != nil {
		o.fail(seq, err)
		return
	}
	if !o.advance(seq, func(s *State) { s.Phase = PhaseNormalizing }) {
		return
	}

	records := forecast.NormalizeDaily(tl)
	place := o.resolver.ReverseGeocode(ctx, *coords)
	if o.advance(seq, func(s *State) {
		s.Phase = PhaseLoaded
		s.Progress = MaxProgress
		s.Records = records
		s.Place = &place
	}) {
		o.logger.Info("search loaded", "run", seq, "records", len(records), "city", place.CityName)
	}
}

func (o *Orchestrator) fail(seq uint64, err error) {
	msg := MessageFetchFailed
	var rerr *geo.ResolutionError
	if errors.As(err, &rerr) {
		msg = MessageResolveFailed
	}
	if o.advance(seq, func(s *State) {
		s.Phase = PhaseFailed
		s.Error = msg
		s.Err = err
	}) {
		o.logger.Warn("search failed", "run", seq, "error", err)
	}
}

// advance applies fn when seq is still current and reports whether it did.
func (o *Orchestrator) advance(seq uint64, fn func(*State)) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if seq != o.seq {
		o.logger.Debug("stale search result discarded", "run", seq, "current", o.seq)
		return false
	}
	fn(&o.state)
	if !o.state.ticking() {
		o.stopTickerLocked()
	}
	return true
}

// Reset returns to Idle and discards any run in flight.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.seq++
	o.stopTickerLocked()
	o.state = State{Phase: PhaseIdle, RunID: o.seq}
}

// Show displays stored records without fetching, discarding any run in flight.
func (o *Orchestrator) Show(coords *geo.Coordinates, place geo.Place, records []forecast.DayRecord) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.seq++
	o.stopTickerLocked()
	o.state = State{
		Phase:    PhaseLoaded,
		Progress: MaxProgress,
		Place:    &place,
		Records:  forecast.CloneRecords(records),
		RunID:    o.seq,
	}
	if coords != nil {
		c := coords.Normalize()
		o.state.Coordinates = &c
	}
}

// State returns a copy of the current state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	s := o.state.clone()
	o.mu.Unlock()
	if s.Phase == PhaseLoaded && s.Place != nil && o.favorites != nil {
		s.Favorite = o.favorites.Contains(*s.Place, s.Coordinates)
	}
	return s
}

func (o *Orchestrator) startTicker(seq uint64) func() {
	if o.cfg.TickInterval <= 0 {
		return nil
	}
	ticker := time.NewTicker(o.cfg.TickInterval)
	stop := make(chan struct{})
	o.tickers.Add(1)
	go func() {
		defer o.tickers.Add(-1)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if !o.tick(seq) {
					return
				}
			}
		}
	}()
	var once sync.Once
	return func() { once.Do(func() { close(stop) }) }
}

func (o *Orchestrator) tick(seq uint64) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if seq != o.seq || !o.state.ticking() {
		return false
	}
	o.state.Progress += o.cfg.TickStep
	if o.state.Progress > MaxProgress {
		o.state.Progress = MaxProgress
	}
	return true
}

func (o *Orchestrator) stopTickerLocked() {
	if o.stopTick != nil {
		o.stopTick()
		o.stopTick = nil
	}
}
