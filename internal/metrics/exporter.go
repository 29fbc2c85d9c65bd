package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/wemix/chainwait/pkg/logger"
)

// Exporter handles the HTTP server for Prometheus metrics
type Exporter struct {
	collector *Collector
	logger    *logger.Logger
	server    *http.Server
	listener  net.Listener
	port      int
	path      string
}

// NewExporter creates a new Prometheus exporter. Port 0 picks a free port.
func NewExporter(collector *Collector, port int, path string, log *logger.Logger) *Exporter {
	if path == "" {
		path = "/metrics"
	}

	return &Exporter{
		collector: collector,
		logger:    log.Named("metrics"),
		port:      port,
		path:      path,
	}
}

// Start binds the listener and serves metrics in the background
func (e *Exporter) Start() error {
	if e.server != nil {
		return fmt.Errorf("exporter already started")
	}

	mux := http.NewServeMux()
	mux.Handle(e.path, promhttp.HandlerFor(
		e.collector.GetRegistry(),
		promhttp.HandlerOpts{
			EnableOpenMetrics: true,
			Timeout:           10 * time.Second,
			ErrorLog:          zap.NewStdLog(e.logger.Logger),
		},
	))
	mux.HandleFunc("/health", e.healthHandler)

	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", e.port))
	if err != nil {
		return fmt.Errorf("failed to listen on port %d: %w", e.port, err)
	}
	e.listener = listener

	e.server = &http.Server{
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		e.logger.Info("starting Prometheus exporter",
			zap.String("addr", listener.Addr().String()),
			zap.String("path", e.path))

		if err := e.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			e.logger.Error("Prometheus exporter error", zap.Error(err))
		}
	}()

	return nil
}

// Stop shuts the HTTP server down gracefully
func (e *Exporter) Stop(ctx context.Context) error {
	if e.server == nil {
		return nil
	}

	if err := e.server.Shutdown(ctx); err != nil {
		e.logger.Error("failed to shutdown Prometheus exporter gracefully", zap.Error(err))
		return err
	}

	e.logger.Info("Prometheus exporter stopped")
	return nil
}

// URL returns the URL of the metrics endpoint, valid after Start
func (e *Exporter) URL() string {
	port := e.port
	if e.listener != nil {
		port = e.listener.Addr().(*net.TCPAddr).Port
	}
	return fmt.Sprintf("http://localhost:%d%s", port, e.path)
}

// healthHandler handles health check requests
func (e *Exporter) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"healthy"}`))
}
