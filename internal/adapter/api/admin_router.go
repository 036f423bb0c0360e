package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/V4T54L/hubformat/internal/adapter/api/handler"
)

// NewAdminRouter creates the router of the admin listener: metrics and health.
func NewAdminRouter(gatherer prometheus.Gatherer, logger *zap.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{
		ErrorLog: zap.NewStdLog(logger),
	}))
	mux.HandleFunc("GET /health", handler.HealthCheck)

	return mux
}
