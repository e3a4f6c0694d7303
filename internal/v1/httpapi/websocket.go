package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/listenroom/backend/internal/v1/config"
	"github.com/listenroom/backend/internal/v1/coordinator"
	"github.com/listenroom/backend/internal/v1/logging"
	"github.com/listenroom/backend/internal/v1/metrics"
	"github.com/listenroom/backend/internal/v1/session"
	"go.uber.org/zap"
)

// newUpgrader builds a websocket.Upgrader whose CheckOrigin validates the
// request Origin against the configured allow-list. Joining happens over
// the socket itself (the first "join" message), so unlike the teacher's
// hub this upgrade never inspects a query-string token.
func newUpgrader(cfg *config.Config) websocket.Upgrader {
	allowed := make(map[string]bool)
	for _, origin := range cfg.AllowedOriginsList() {
		allowed[origin] = true
	}

	return websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			return allowed[origin]
		},
	}
}

// ServeWs handles GET /ws: upgrades the connection, wraps it in a Session,
// and runs its read/write pumps for the lifetime of the socket.
func ServeWs(cfg *config.Config, co *coordinator.Coordinator) gin.HandlerFunc {
	upgrader := newUpgrader(cfg)

	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logging.Error(c.Request.Context(), "websocket upgrade failed", zap.Error(err))
			return
		}

		sess := session.New(conn, co)
		metrics.IncConnection()

		go sess.WritePump()
		sess.ReadPump()
	}
}
