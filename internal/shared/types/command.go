package types

// CommandRequest represents a control command submission
type CommandRequest struct {
	Command string `json:"command" binding:"required"`
}

// CommandAck reports how a submitted command was received
type CommandAck struct {
	Accepted bool   `json:"accepted"`
	ID       string `json:"id,omitempty"`
	Kind     string `json:"kind,omitempty"`
	Error    string `json:"error,omitempty"`
}
