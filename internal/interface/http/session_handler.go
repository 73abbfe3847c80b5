package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/weather-favorites/internal/domain/favorites"
	"github.com/yanqian/weather-favorites/internal/domain/search"
	apperrors "github.com/yanqian/weather-favorites/pkg/errors"
)

// SessionHandler exposes the per-user search lifecycle.
type SessionHandler struct {
	sessions  *search.Manager
	favorites *favorites.Client
	logger    *slog.Logger
}

// NewSessionHandler constructs the session endpoints.
func NewSessionHandler(sessions *search.Manager, client *favorites.Client, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		sessions:  sessions,
		favorites: client,
		logger:    logger.With("component", "http.sessions"),
	}
}

type autoDetectRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// Create opens a new session.
func (h *SessionHandler) Create(c *gin.Context) {
	sess := h.sessions.Create()
	c.JSON(http.StatusCreated, sess.Snapshot())
}

// Get returns the session form and search state.
func (h *SessionHandler) Get(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, sess.Snapshot())
}

// UpdateForm sets address fields.
func (h *SessionHandler) UpdateForm(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	var fields map[string]string
	if err := c.ShouldBindJSON(&fields); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	if err := sess.SetFields(fields); err != nil {
		abortWithError(c, fromAppError(err))
		return
	}
	c.JSON(http.StatusOK, sess.Snapshot())
}

// SetAutoDetect toggles IP based location detection.
func (h *SessionHandler) SetAutoDetect(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	var req autoDetectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	sess.SetAutoDetect(c.Request.Context(), *req.Enabled)
	c.JSON(http.StatusOK, sess.Snapshot())
}

// Search submits the form; the run continues in the background.
func (h *SessionHandler) Search(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	run, err := sess.Search(c.Request.Context())
	if err != nil {
		abortWithError(c, fromAppError(err))
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"runId": run.ID})
}

// Reset returns the session to idle.
func (h *SessionHandler) Reset(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	sess.Reset()
	c.JSON(http.StatusOK, sess.Snapshot())
}

// AddFavorite stores the loaded location together with its daily records.
func (h *SessionHandler) AddFavorite(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	state := sess.Orchestrator.State()
	if state.Phase != search.PhaseLoaded || state.Place == nil {
		abortWithError(c, NewHTTPError(http.StatusConflict, "no_location_loaded", "load a location before adding it to favorites", nil))
		return
	}
	entry := favorites.Entry{
		CityName:    state.Place.CityName,
		Region:      state.Place.Region,
		Coordinates: state.Coordinates,
		Data:        state.Records,
	}
	if err := h.favorites.Add(c.Request.Context(), entry); err != nil {
		abortWithError(c, fromAppError(err))
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": favorites.MessageAdded})
}

// RemoveFavorite deletes the loaded location from favorites.
func (h *SessionHandler) RemoveFavorite(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	state := sess.Orchestrator.State()
	if state.Place == nil {
		abortWithError(c, NewHTTPError(http.StatusConflict, "no_location_loaded", "no location is loaded", nil))
		return
	}
	if err := h.favorites.Remove(c.Request.Context(), state.Place.CityName, state.Place.Region); err != nil {
		abortWithError(c, fromAppError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": favorites.MessageRemoved})
}

// SelectFavorite shows a stored favorite without fetching.
func (h *SessionHandler) SelectFavorite(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	var req favorites.RemoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	entry, found := h.favorites.Find(req.CityName, req.Region)
	if !found {
		abortWithError(c, fromAppError(apperrors.Wrap(apperrors.CodeFavoriteNotFound, favorites.MessageNotFound, favorites.ErrNotFound)))
		return
	}
	sess.Show(entry.Coordinates, entry.Place(), entry.Data)
	c.JSON(http.StatusOK, sess.Snapshot())
}

func (h *SessionHandler) session(c *gin.Context) (*search.Session, bool) {
	sess, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		abortWithError(c, fromAppError(err))
		return nil, false
	}
	return sess, true
}
