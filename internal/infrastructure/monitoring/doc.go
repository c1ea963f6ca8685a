/*
Package monitoring provides Prometheus metrics for the query service.

# Overview

Metrics are registered on a caller supplied prometheus.Registerer so that
several collectors can coexist in one process, which tests rely on. The
server registers on its own registry and exposes it at /metrics.

# Usage

	reg := prometheus.NewRegistry()
	metrics := monitoring.NewMetrics(reg)

	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	timer := monitoring.NewTimer(metrics)
	body, err := fetcher.Get(ctx, url)
	timer.Stop()

Metrics also satisfies hquery.Recorder, so it can be handed straight to
the query engine.
*/
package monitoring
