package httpapi

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/listenroom/backend/internal/v1/bus"
	"github.com/listenroom/backend/internal/v1/config"
	"github.com/listenroom/backend/internal/v1/coordinator"
	"github.com/listenroom/backend/internal/v1/health"
	"github.com/listenroom/backend/internal/v1/middleware"
	"github.com/listenroom/backend/internal/v1/youtube"
)

// Router assembles the full HTTP/WebSocket surface: room management,
// YouTube URL resolution, the WebSocket upgrade, health probes, and the
// Prometheus scrape endpoint.
func Router(cfg *config.Config, co *coordinator.Coordinator, resolver youtube.Resolver, roomBus *bus.Service) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.CorrelationID())

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowOrigins = cfg.AllowedOriginsList()
	corsCfg.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsCfg.AllowHeaders = []string{"Origin", "Content-Type", middleware.HeaderXCorrelationID}
	r.Use(cors.New(corsCfg))

	healthHandler := health.NewHandler(roomBus)
	r.GET("/health/live", healthHandler.Liveness)
	r.GET("/health/ready", healthHandler.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		api.POST("/rooms", CreateRoom(co))
		api.GET("/rooms/:id", GetRoom(co))
		api.GET("/youtube/resolve", ResolveYoutube(resolver))
	}

	r.GET("/ws", ServeWs(cfg, co))

	return r
}
