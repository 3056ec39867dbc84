// Package types provides shared data structures for the acquisition control plane.
//
// This package defines the request and stream shapes exchanged with
// clients. Pipeline snapshots reuse the JSON-tagged stats structs that
// each component exports, so only the transport-only shapes live here.
//
// Request Types:
//   - CommandRequest: Control command submission
//   - CommandAck: Command acceptance response
//
// Stream Types:
//   - WSMessage: WebSocket frame envelope
//
// Example Usage:
//
//	var req types.CommandRequest
//	if err := c.ShouldBindJSON(&req); err != nil { ... }
package types
