// Package ws provides WebSocket handling for live pipeline monitoring.
//
// This package implements WebSocket communication for streaming acquisition
// status to subscribers and accepting control commands over the same
// connection.
//
// Features:
//   - Periodic status frames (scheduler state, pools, stages, writer)
//   - Command submission with per-message acknowledgements
//   - Automatic connection upgrade from HTTP
//   - Connection metrics
//
// Message Types (Client → Server):
//   - command: Submit a control command line
//   - ping: Keep-alive ping
//
// Message Types (Server → Client):
//   - status: Pipeline snapshot
//   - ack: Command acceptance result
//   - pong: Keep-alive reply
//   - error: Error occurred
//
// Example Usage:
//
//	handler := ws.NewHandler(statusFn, queue, metrics, logger)
//	router.GET("/stream", handler.HandleConnection)
package ws
