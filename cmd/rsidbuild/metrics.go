package main

import (
	"log/slog"

	"rsidbuild/internal/config"
	"rsidbuild/internal/metrics"
	"rsidbuild/internal/metrics/datadog"
	"rsidbuild/internal/metrics/prompush"
)

// startMetrics installs the configured backend and returns the function that
// flushes it at exit. A backend that fails to start leaves metrics disabled.
func startMetrics(m config.Metrics, logger *slog.Logger) func() {
	var (
		b   metrics.Backend
		err error
	)
	switch m.Backend {
	case config.MetricsPrometheus:
		b, err = prompush.NewBackend(m.Job, m.PushgatewayURL)
	case config.MetricsDatadog:
		ns := m.Job
		if ns == "" {
			ns = config.DefaultJob
		}
		b, err = datadog.NewBackend(datadog.Config{
			Addr:       m.DatadogAddr,
			Namespace:  ns + ".",
			GlobalTags: []string{"service:rsidbuild"},
		})
	default:
		logger.Debug("metrics disabled", "backend", m.Backend)
		return func() {}
	}
	if err != nil {
		logger.Warn("metrics backend unavailable; continuing without metrics", "backend", m.Backend, "err", err)
		return func() {}
	}

	logger.Info("metrics enabled", "backend", m.Backend, "job", m.Job)
	metrics.SetBackend(b)
	return func() {
		if err := metrics.Flush(); err != nil {
			logger.Warn("metrics flush failed", "backend", m.Backend, "err", err)
		}
	}
}
