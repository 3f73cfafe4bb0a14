package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/randomtoy/chess-arbiter/internal/logging"
)

// New constructs and returns a configured Echo instance. Empty origins
// allow any origin.
func New(h *Handlers, origins []string, log *zap.Logger) *echo.Echo {
	log = logging.OrNop(log)
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: origins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderContentType, headerClientToken, headerPlayerID},
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("remote_ip", v.RemoteIP),
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
			}
			log.Info("request", fields...)
			return nil
		},
	}))
	e.Use(middleware.Recover())

	e.GET("/api/v1/healthz", h.handleHealthz)
	e.POST("/api/v1/sessions", h.handleCreateSession)
	e.GET("/api/v1/sessions/:session_id", h.handleGetSession)
	e.POST("/api/v1/sessions/:session_id/moves", h.handleSubmitMove)
	e.POST("/api/v1/sessions/:session_id/resign", h.handleResign)
	e.POST("/api/v1/sessions/:session_id/abort", h.handleAbort)
	e.GET("/api/v1/sessions/:session_id/legal-moves", h.handleLegalMoves)
	e.GET("/api/v1/sessions/:session_id/pgn", h.handlePGN)
	e.GET("/api/v1/players/:player_id/sessions", h.handleListBindings)
	e.GET("/api/v1/archive/:session_id", h.handleGetArchived)

	// Route used by the browser client.
	e.POST("/api/move", h.handleLegacyMove)

	return e
}
