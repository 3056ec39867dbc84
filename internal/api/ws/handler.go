package ws

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/SpectraCore/internal/domain/command"
	"github.com/GriffinCanCode/SpectraCore/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/SpectraCore/internal/shared/types"
	"github.com/GriffinCanCode/SpectraCore/internal/shared/utils"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Origin policy is enforced by the CORS layer
	},
}

// StatusFunc builds the snapshot pushed to subscribers
type StatusFunc func() interface{}

// Handler manages WebSocket connections
type Handler struct {
	status   StatusFunc
	queue    *command.Queue
	metrics  *monitoring.Metrics
	log      *zap.Logger
	interval time.Duration
}

// NewHandler creates a new WebSocket handler
func NewHandler(status StatusFunc, queue *command.Queue, metrics *monitoring.Metrics, log *zap.Logger) *Handler {
	return &Handler{
		status:   status,
		queue:    queue,
		metrics:  metrics,
		log:      log,
		interval: time.Second,
	}
}

// WithInterval overrides the status push period
func (h *Handler) WithInterval(d time.Duration) *Handler {
	if d > 0 {
		h.interval = d
	}
	return h
}

// HandleConnection handles WebSocket upgrade and messages. Subscribers get
// a status frame every push interval and may submit commands in between.
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	clientID := uuid.New().String()
	h.metrics.IncWSConnections()
	defer h.metrics.DecWSConnections()
	h.log.Info("stream subscriber connected", zap.String("client_id", clientID))

	// The status pusher and the read loop both write frames, so writes go
	// through one mutex-guarded helper.
	var mu sync.Mutex
	send := func(msg types.WSMessage) error {
		mu.Lock()
		defer mu.Unlock()
		return conn.WriteJSON(msg)
	}

	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(h.interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := send(types.WSMessage{Type: types.WSTypeStatus, Data: h.status()}); err != nil {
					return
				}
				h.metrics.RecordWSMessage("out", types.WSTypeStatus)
			}
		}
	}()

	_ = send(types.WSMessage{Type: "system", Message: "connected"})

	for {
		var msg types.WSMessage
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}

		switch msg.Type {
		case types.WSTypeCommand:
			h.metrics.RecordWSMessage("in", types.WSTypeCommand)
			_ = send(types.WSMessage{Type: types.WSTypeAck, Data: h.enqueue(msg.Message, clientID)})
		case types.WSTypePing:
			_ = send(types.WSMessage{Type: types.WSTypePong})
		default:
			h.metrics.RecordWSMessage("in", "unknown")
			_ = send(types.WSMessage{Type: types.WSTypeError, Message: "unknown message type"})
		}
	}

	close(done)
	h.log.Info("stream subscriber disconnected", zap.String("client_id", clientID))
}

// enqueue validates and queues one command line, reporting the outcome the
// same way the HTTP endpoint does.
func (h *Handler) enqueue(line, clientID string) types.CommandAck {
	if err := utils.ValidateCommand(line); err != nil {
		return types.CommandAck{Error: err.Error()}
	}

	cmd := command.Parse(line)
	if cmd.Kind == command.Unknown {
		return types.CommandAck{Error: "unrecognized command"}
	}

	entry, ok := h.queue.Push(line, "ws:"+clientID)
	if !ok {
		return types.CommandAck{Error: "command queue full"}
	}

	return types.CommandAck{
		Accepted: true,
		ID:       entry.ID,
		Kind:     cmd.Kind.String(),
	}
}
