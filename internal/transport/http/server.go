package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/mxchen/turtlesoup-server/internal/config"
	"github.com/mxchen/turtlesoup-server/internal/core"
)

// NewServer builds the HTTP server: health check, redacted room status, and
// the WebSocket endpoint.
func NewServer(room *core.Room, cfg config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.String(stdhttp.StatusOK, "ok")
	})
	router.GET("/api/status", statusHandler(room))
	router.GET("/ws", gin.WrapH(NewWSHandler(room, logger)))

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

// statusHandler exposes a summary safe for any caller: no answers, no
// question texts, no identities.
func statusHandler(room *core.Room) gin.HandlerFunc {
	return func(c *gin.Context) {
		view := room.Status()

		online := 0
		for _, p := range view.Players {
			if p.IsOnline {
				online++
			}
		}

		resp := gin.H{
			"phase":        view.Phase,
			"players":      len(view.Players),
			"online":       online,
			"questions":    len(view.History),
			"recoveryMode": view.RecoveryMode,
		}
		if view.Puzzle != nil {
			resp["puzzleTitle"] = view.Puzzle.Title
			resp["startTime"] = view.StartTime
		}
		c.JSON(stdhttp.StatusOK, resp)
	}
}
