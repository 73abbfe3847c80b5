package search

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yanqian/weather-favorites/internal/domain/forecast"
	"github.com/yanqian/weather-favorites/internal/domain/geo"
	apperrors "github.com/yanqian/weather-favorites/pkg/errors"
	"github.com/yanqian/weather-favorites/pkg/util"
)

// Session pairs a search form with its orchestrator.
type Session struct {
	ID           string
	Orchestrator *Orchestrator

	resolver Resolver
	logger   *slog.Logger

	mu       sync.Mutex
	form     geo.Form
	lastSeen time.Time
}

// Snapshot is the combined form and search state of a session.
type Snapshot struct {
	ID    string   `json:"id"`
	Form  geo.Form `json:"form"`
	State State    `json:"state"`
}

// Snapshot returns the current form and search state.
func (s *Session) Snapshot() Snapshot {
	return Snapshot{ID: s.ID, Form: s.Form(), State: s.Orchestrator.State()}
}

// Form returns a copy of the form.
func (s *Session) Form() geo.Form {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyForm(s.form)
}

// SetFields updates address fields by name.
func (s *Session) SetFields(fields map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name, value := range fields {
		if err := s.form.SetField(name, value); err != nil {
			return apperrors.Wrap(apperrors.CodeInvalidInput, err.Error(), err)
		}
	}
	return nil
}

// SetAutoDetect toggles detection. Enabling it looks the location up right
// away; a failed lookup is retried when the search is submitted.
func (s *Session) SetAutoDetect(ctx context.Context, enabled bool) {
	s.mu.Lock()
	s.form.SetAutoDetect(enabled)
	s.mu.Unlock()
	if !enabled {
		return
	}

	coords, err := s.resolver.Resolve(ctx, geo.Request{AutoDetect: true})
	if err != nil {
		s.logger.Warn("location auto-detect failed", "session", s.ID, "error", err)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.form.AutoDetect {
		s.form.SetCoordinates(&coords)
	}
}

// Search validates the form and submits it. Field errors are kept on the form.
func (s *Session) Search(ctx context.Context) (*Run, error) {
	s.mu.Lock()
	if err := s.form.Validate(); err != nil {
		s.mu.Unlock()
		return nil, apperrors.Wrap(apperrors.CodeInvalidInput, err.Error(), err)
	}
	q := Query{Request: s.form.Request()}
	if s.form.AutoDetect && s.form.Coordinates != nil {
		c := *s.form.Coordinates
		q.Coordinates = &c
	}
	s.mu.Unlock()

	run, err := s.Orchestrator.Submit(ctx, q)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInvalidInput, err.Error(), err)
	}
	return run, nil
}

// Reset clears the search, keeping the form as typed.
func (s *Session) Reset() {
	s.Orchestrator.Reset()
}

// Show displays a stored favorite.
func (s *Session) Show(coords *geo.Coordinates, place geo.Place, records []forecast.DayRecord) {
	s.Orchestrator.Show(coords, place, records)
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

func copyForm(f geo.Form) geo.Form {
	out := f
	if f.Coordinates != nil {
		c := *f.Coordinates
		out.Coordinates = &c
	}
	out.FieldErrors = make(map[string]bool, len(f.FieldErrors))
	for k, v := range f.FieldErrors {
		out.FieldErrors[k] = v
	}
	return out
}

// Manager owns the live sessions. Idle sessions are dropped after the TTL.
type Manager struct {
	cfg       Config
	ttl       time.Duration
	resolver  Resolver
	fetcher   forecast.Fetcher
	favorites FavoriteChecker
	logger    *slog.Logger
	now       func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager builds a session manager.
func NewManager(cfg Config, ttl time.Duration, resolver Resolver, fetcher forecast.Fetcher, favorites FavoriteChecker, logger *slog.Logger) *Manager {
	return &Manager{
		cfg:       cfg,
		ttl:       ttl,
		resolver:  resolver,
		fetcher:   fetcher,
		favorites: favorites,
		logger:    logger.With("component", "search.manager"),
		now:       util.NowUTC,
		sessions:  make(map[string]*Session),
	}
}

// Create starts a new session.
func (m *Manager) Create() *Session {
	now := m.now()
	sess := &Session{
		ID:           uuid.NewString(),
		Orchestrator: NewOrchestrator(m.cfg, m.resolver, m.fetcher, m.favorites, m.logger),
		resolver:     m.resolver,
		logger:       m.logger,
		form:         geo.NewForm(),
		lastSeen:     now,
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.evictLocked(now)
	m.sessions[sess.ID] = sess
	m.logger.Info("session created", "session", sess.ID, "active", len(m.sessions))
	return sess
}

// Get returns a live session and marks it as used.
func (m *Manager) Get(id string) (*Session, error) {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.evictLocked(now)
	sess, ok := m.sessions[id]
	if !ok {
		return nil, apperrors.Wrap(apperrors.CodeSessionNotFound, "session not found", nil)
	}
	sess.touch(now)
	return sess, nil
}

// Len reports the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Manager) evictLocked(now time.Time) {
	if m.ttl <= 0 {
		return
	}
	for id, sess := range m.sessions {
		if now.Sub(sess.idleSince()) > m.ttl {
			sess.Orchestrator.Reset()
			delete(m.sessions, id)
			m.logger.Debug("session expired", "session", id)
		}
	}
}
