package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/specialistvlad/algogrid/internal/ctxlog"
)

// healthHandler reports that the process is alive.
func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	logger := ctxlog.FromContext(a.ctx)
	logger.Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

// startMetricsServer serves /health and /metrics for the duration of a run.
// It returns the address it listens on, or "" when disabled.
func (a *App) startMetricsServer() (string, error) {
	logger := ctxlog.FromContext(a.ctx)
	logger.Debug("Configuring metrics server.")
	if a.config.MetricsPort <= 0 {
		logger.Debug("Metrics server not started: disabled")
		return "", nil
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", a.healthHandler)
	mux.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{Registry: a.registry}))

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", a.config.MetricsPort))
	if err != nil {
		return "", fmt.Errorf("failed to start metrics server: %w", err)
	}
	a.httpServer = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	addr := ln.Addr().String()

	go func() {
		logger.Info("🩺 Metrics server starting", "address", addr)
		// Serve returns ErrServerClosed on graceful shutdown.
		if err := a.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server failed unexpectedly", "error", err)
		}
	}()
	return addr, nil
}

func (a *App) closeMetricsServer() error {
	logger := ctxlog.FromContext(a.ctx)
	if a.httpServer == nil {
		logger.Debug("Metrics server was not running.")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Info("🩺 Shutting down metrics server...")
	err := a.httpServer.Shutdown(ctx)
	a.httpServer = nil
	if err != nil {
		logger.Error("Metrics server shutdown failed", "error", err)
		return err
	}
	logger.Debug("Metrics server shut down gracefully.")
	return nil
}
