package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/weather-favorites/internal/infra/config"
)

// NewRouter wires up the HTTP handlers and returns a configured server.
func NewRouter(cfg *config.Config, handler *Handler, sessions *SessionHandler, logger *slog.Logger) *http.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(
		gin.Recovery(),
		requestLogger(logger),
		corsMiddleware(cfg.HTTP.AllowedOrigins),
		errorHandlingMiddleware(logger),
		rateLimitMiddleware(cfg.HTTP.RateLimit, logger),
	)

	api := router.Group("/api")
	{
		api.GET("/favorites", handler.ListFavorites)
		api.POST("/favorites", handler.AddFavorite)
		api.DELETE("/favorites", handler.RemoveFavorite)
		api.GET("/weather", handler.DailyForecast)
		api.GET("/hourly", handler.HourlyForecast)

		api.POST("/sessions", sessions.Create)
		session := api.Group("/sessions/:id")
		{
			session.GET("", sessions.Get)
			session.PATCH("/form", sessions.UpdateForm)
			session.PUT("/autodetect", sessions.SetAutoDetect)
			session.POST("/search", sessions.Search)
			session.POST("/reset", sessions.Reset)
			session.POST("/favorite", sessions.AddFavorite)
			session.DELETE("/favorite", sessions.RemoveFavorite)
			session.POST("/favorites/select", sessions.SelectFavorite)
		}
	}

	return &http.Server{
		Addr:           cfg.HTTP.Address,
		Handler:        withRetry(router, cfg.HTTP.Retry, logger),
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("http request", "method", c.Request.Method, "path", c.Request.URL.Path, "status", c.Writer.Status(), "latency_ms", latency.Milliseconds())
	}
}
