/*
Package monitoring provides performance monitoring and metrics collection.

# Overview

This package implements Prometheus-based metrics collection for the
acquisition service, tracking HTTP requests, command dispatch, stage
throughput, ring pool utilization, and system metrics. Every collector
carries its own registry, so independent instances never collide.

# Features

- HTTP request metrics (latency, throughput, status)
- Command and recording counters
- Per-stage task counters and duration histograms
- Ring pool depth, publication, and overwrite gauges
- Writer output gauges
- WebSocket connection metrics
- System metrics (uptime, scheduler state)

# Usage

	// Create metrics collector
	metrics := monitoring.NewMetrics()

	// Add middleware to Gin router
	router.Use(monitoring.Middleware(metrics))

	// Record pipeline metrics
	metrics.RecordCommand("record_on")
	metrics.SetPoolDepth("samples", "spectrometer", 12)

	// Observe stage task timing
	stage.WithObserver(monitoring.StageObserver(metrics, "spectrometer"))

# Metrics Endpoint

Expose the collector's registry via its scrape handler:

	router.GET("/metrics", gin.WrapH(metrics.Handler()))
*/
package monitoring
