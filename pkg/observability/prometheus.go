// Package observability provides observability utilities
package observability

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// MetricsServer serves the Prometheus registry on /metrics
type MetricsServer struct {
	log    logrus.FieldLogger
	server *http.Server
}

// NewMetricsServer creates a metrics server listening on addr
func NewMetricsServer(log logrus.FieldLogger, addr string) *MetricsServer {
	sm := http.NewServeMux()
	sm.Handle("/metrics", promhttp.Handler())

	return &MetricsServer{
		log: log.WithField("component", "metrics"),
		server: &http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 15 * time.Second,
			Handler:           sm,
		},
	}
}

// Start serves metrics in the background
func (m *MetricsServer) Start() {
	go func() {
		m.log.Infof("Starting metrics server on %s", m.server.Addr)

		if err := m.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.log.WithError(err).Error("Metrics server failed")
		}
	}()
}

// Stop shuts the server down
func (m *MetricsServer) Stop(ctx context.Context) error {
	return m.server.Shutdown(ctx)
}
