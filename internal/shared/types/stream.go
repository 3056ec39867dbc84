package types

// WSMessage represents a WebSocket frame exchanged with status subscribers
type WSMessage struct {
	Type    string      `json:"type"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// WebSocket message types
const (
	WSTypeStatus  = "status"
	WSTypeCommand = "command"
	WSTypeAck     = "ack"
	WSTypeError   = "error"
	WSTypePing    = "ping"
	WSTypePong    = "pong"
)
