package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/weather-favorites/internal/domain/favorites"
	"github.com/yanqian/weather-favorites/internal/domain/forecast"
	"github.com/yanqian/weather-favorites/internal/domain/geo"
)

// Handler serves the favorites store and direct forecast lookups.
type Handler struct {
	favorites   *favorites.Client
	forecastSvc forecast.Service
	logger      *slog.Logger
}

// NewHandler constructs the root HTTP handler.
func NewHandler(client *favorites.Client, forecastSvc forecast.Service, logger *slog.Logger) *Handler {
	return &Handler{
		favorites:   client,
		forecastSvc: forecastSvc,
		logger:      logger.With("component", "http.handler"),
	}
}

// ListFavorites returns every stored favorite.
func (h *Handler) ListFavorites(c *gin.Context) {
	if err := h.favorites.Sync(c.Request.Context()); err != nil {
		abortWithError(c, fromAppError(err))
		return
	}
	c.JSON(http.StatusOK, h.favorites.Entries())
}

// AddFavorite stores a new favorite.
func (h *Handler) AddFavorite(c *gin.Context) {
	var entry favorites.Entry
	if err := c.ShouldBindJSON(&entry); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	if err := h.favorites.Add(c.Request.Context(), entry); err != nil {
		abortWithError(c, fromAppError(err))
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": favorites.MessageAdded})
}

// RemoveFavorite deletes a favorite by city and region, ignoring case.
func (h *Handler) RemoveFavorite(c *gin.Context) {
	var req favorites.RemoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	if err := h.favorites.Remove(c.Request.Context(), req.CityName, req.Region); err != nil {
		abortWithError(c, fromAppError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": favorites.MessageRemoved})
}

// DailyForecast returns normalized daily records for lat/long.
func (h *Handler) DailyForecast(c *gin.Context) {
	records, err := h.forecastSvc.Daily(c.Request.Context(), coordinatesQuery(c))
	if err != nil {
		abortWithError(c, fromAppError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records})
}

// HourlyForecast returns normalized hourly records for lat/long.
func (h *Handler) HourlyForecast(c *gin.Context) {
	records, err := h.forecastSvc.Hourly(c.Request.Context(), coordinatesQuery(c))
	if err != nil {
		abortWithError(c, fromAppError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records})
}

func coordinatesQuery(c *gin.Context) geo.Coordinates {
	return geo.Coordinates{Latitude: c.Query("lat"), Longitude: c.Query("long")}
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
