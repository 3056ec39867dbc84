// Package http provides HTTP handlers and routing for the acquisition REST API.
//
// This package implements all HTTP endpoints using the Gin framework,
// including health checks, command submission, pipeline status, and
// recorded scan inspection.
//
// Endpoints:
//   - Health: / and /health
//   - Commands: /commands
//   - Status: /status
//   - Recordings: /recordings, /recordings/:name
//
// Features:
//   - JSON request/response handling
//   - Proper HTTP status codes
//   - Error response formatting
//   - Request validation
//
// Example Usage:
//
//	handlers := http.NewHandlers(http.Deps{Queue: queue, Scheduler: sched, ...})
//	router.GET("/health", handlers.Health)
//	router.POST("/commands", handlers.SubmitCommand)
package http
