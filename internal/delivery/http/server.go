package http

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/ilindan-dev/notification-gateway/internal/config"
	"github.com/ilindan-dev/notification-gateway/internal/metrics"
	"github.com/rs/zerolog"
	"net/http"
	"time"
)

// Server is a wrapper for the HTTP server.
type Server struct {
	*http.Server
	logger zerolog.Logger
}

// NewServer creates and configures a new Gin server.
func NewServer(cfg *config.Config, handlers *Handlers, m *metrics.Metrics, logger *zerolog.Logger) *Server {
	log := logger.With().Str("layer", "http_server").Logger()
	log.Info().Msg("initializing http server")

	log.Info().Str("mode", cfg.HTTP.GinMode).Msg("setting gin mode")
	gin.SetMode(cfg.HTTP.GinMode)

	router := NewRouter(handlers, m, log)

	server := &http.Server{
		Addr:              cfg.HTTP.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &Server{server, log}
}

// NewRouter builds the gin engine with middleware, API routes, probes and /metrics.
func NewRouter(handlers *Handlers, m *metrics.Metrics, log zerolog.Logger) *gin.Engine {
	router := gin.New()

	log.Info().Msg("initializing middleware: recovery, metrics, request log, cors")
	router.Use(gin.Recovery())
	router.Use(requestMetrics(m))
	router.Use(requestLogger(log))
	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "HEAD", "POST", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Authorization", "Accept"},
		ExposeHeaders:   []string{"Content-Length"},
		MaxAge:          12 * time.Hour,
	}))

	log.Info().Msg("registering api routes and health checks")
	handlers.RegisterRoutes(router)

	log.Info().Msg("registering metrics endpoint")
	router.GET("/metrics", gin.WrapH(m.Handler()))

	return router
}
