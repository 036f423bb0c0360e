package api

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/V4T54L/hubformat/internal/adapter/api/handler"
	"github.com/V4T54L/hubformat/internal/adapter/api/middleware"
	"github.com/V4T54L/hubformat/internal/adapter/metrics"
	"github.com/V4T54L/hubformat/internal/pkg/config"
)

// NewRouter creates and configures the main HTTP router for the convert service.
func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	converter handler.Converter,
	m *metrics.ConvertMetrics,
) http.Handler {
	mux := http.NewServeMux()

	var convert http.Handler = handler.NewConvertHandler(converter, logger, cfg.MaxEventSize, m)
	if len(cfg.APIKeys) > 0 {
		convert = middleware.Auth(middleware.NewStaticAPIKeys(cfg.APIKeys), logger)(convert)
	}
	if cfg.RateLimitRPS > 0 {
		convert = middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst, m, logger)(convert)
	}

	// Routes
	mux.Handle("POST /convert", convert)
	mux.HandleFunc("GET /health", handler.HealthCheck)

	return middleware.RequestID(middleware.Logging(logger)(mux))
}
