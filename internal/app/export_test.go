package app

// StartMetricsServer exposes the metrics server lifecycle to tests.
func (a *App) StartMetricsServer() (string, error) { return a.startMetricsServer() }

// CloseMetricsServer exposes the metrics server lifecycle to tests.
func (a *App) CloseMetricsServer() error { return a.closeMetricsServer() }
