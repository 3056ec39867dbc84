// Package main is the entry point for the SpectraCore acquisition daemon.
//
// The daemon runs a spectrometer back end as one process: a synthetic
// digitizer produces raw sample buffers, a worker pool folds them into
// averaged power spectra, and a writer lands each spectrum under the
// active scan directory. A one-second scheduler drives recording state
// from operator commands.
//
// Architecture:
//
//	Operator (HTTP/WebSocket/MQTT) → Command Queue → Scheduler
//	Digitizer → Source Pool → Spectrometer → Sink Pool → Writer
//
// The daemon provides:
//   - REST API for command submission and scan inventory
//   - WebSocket streaming of pipeline status
//   - Optional MQTT command ingress
//   - Prometheus metrics and scan-complete webhooks
//
// Configuration:
//   - Environment variables (12-factor)
//   - Optional yaml/toml file (overrides env vars)
//   - CLI flags (override both)
//
// Usage:
//
//	# Production mode
//	./spectrad -port 8000 -data /srv/spectra
//
//	# Development mode (colored logs, debug level)
//	./spectrad -dev
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown, draining any active recording
package main
