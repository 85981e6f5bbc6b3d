package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/chainchat-dev/chainchat-server/internal/config"
	"github.com/chainchat-dev/chainchat-server/internal/core"
	"github.com/chainchat-dev/chainchat-server/internal/metrics"
	"github.com/chainchat-dev/chainchat-server/internal/relay"
)

// NewServer builds the HTTP server: message submission, the two stream
// transports, chain queries, health, and metrics.
func NewServer(hub *core.Hub, orch *relay.Orchestrator, querier ChainQuerier, m *metrics.Metrics, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), LoggerMiddleware(logger), MetricsMiddleware(m))

	msgs := NewMessageHandlers(orch, logger)
	streams := NewStreamHandlers(hub, logger)
	chains := NewChainHandlers(querier, logger)

	api := router.Group("/api")
	api.POST("/messages", msgs.Post)
	api.GET("/events", streams.Events)
	api.GET("/chain/matches", chains.TotalMatches)
	api.GET("/chain/lifetime-value", chains.LifetimeValue)
	api.GET("/chain/matches/:id", chains.Match)

	router.GET("/ws", streams.WebSocket)
	router.GET("/healthz", healthHandler)
	if m != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(m.Registry(), promhttp.HandlerOpts{})))
	}

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
