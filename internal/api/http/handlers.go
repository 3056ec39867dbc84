package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/SpectraCore/internal/domain/command"
	"github.com/GriffinCanCode/SpectraCore/internal/domain/ring"
	"github.com/GriffinCanCode/SpectraCore/internal/domain/scheduler"
	"github.com/GriffinCanCode/SpectraCore/internal/domain/stage"
	"github.com/GriffinCanCode/SpectraCore/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/SpectraCore/internal/providers/inventory"
	"github.com/GriffinCanCode/SpectraCore/internal/providers/notify"
	"github.com/GriffinCanCode/SpectraCore/internal/providers/writer"
	"github.com/GriffinCanCode/SpectraCore/internal/shared/types"
	"github.com/GriffinCanCode/SpectraCore/internal/shared/utils"
)

// Version reported by the service banner
const Version = "1.0.0"

// PoolView reports ring pool counters without binding to a payload type.
type PoolView interface {
	Stats() ring.Stats
}

// Deps bundles everything the control plane reads and writes.
type Deps struct {
	Log       *zap.Logger
	Queue     *command.Queue
	Scheduler *scheduler.Scheduler
	Pools     []PoolView
	Stages    []*stage.Stage
	Writer    *writer.Writer
	Inventory *inventory.Inventory
	Notifier  *notify.Webhook
	Metrics   *monitoring.Metrics
	Started   time.Time
}

// Handlers contains all HTTP handlers
type Handlers struct {
	d Deps
}

// NewHandlers creates a new handler set
func NewHandlers(d Deps) *Handlers {
	if d.Started.IsZero() {
		d.Started = time.Now()
	}
	return &Handlers{d: d}
}

// Root handles the service banner
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "SpectraCore",
		"version": Version,
	})
}

// Health handles the liveness check. The service is degraded when any
// pipeline stage has stopped.
func (h *Handlers) Health(c *gin.Context) {
	status := "healthy"
	stages := make([]stage.Stats, 0, len(h.d.Stages))
	for _, s := range h.d.Stages {
		st := s.Stats()
		stages = append(stages, st)
		if !st.Running {
			status = "degraded"
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    status,
		"scheduler": h.d.Scheduler.State().String(),
		"stages":    stages,
	})
}

// Snapshot assembles the pipeline view served by GET /status and pushed
// over the stream.
func (h *Handlers) Snapshot() gin.H {
	pools := make([]ring.Stats, 0, len(h.d.Pools))
	for _, p := range h.d.Pools {
		pools = append(pools, p.Stats())
	}
	stages := make([]stage.Stats, 0, len(h.d.Stages))
	for _, s := range h.d.Stages {
		stages = append(stages, s.Stats())
	}

	return gin.H{
		"state":          h.d.Scheduler.State().String(),
		"session":        h.d.Scheduler.Session(),
		"recordings":     h.d.Scheduler.Recordings(),
		"queue":          h.d.Queue.Stats(),
		"pools":          pools,
		"stages":         stages,
		"writer":         h.d.Writer.Stats(),
		"notifier":       h.d.Notifier.Stats(),
		"metrics":        h.d.Metrics.GetSnapshot(),
		"uptime_seconds": time.Since(h.d.Started).Seconds(),
	}
}

// Status serves the full pipeline snapshot
func (h *Handlers) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.Snapshot())
}

// SubmitCommand validates and queues one control command. The scheduler
// consumes the queue on its own clock, so acceptance means queued, not
// executed.
func (h *Handlers) SubmitCommand(c *gin.Context) {
	var req types.CommandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.CommandAck{Error: err.Error()})
		return
	}

	if err := utils.ValidateCommand(req.Command); err != nil {
		c.JSON(http.StatusBadRequest, types.CommandAck{Error: err.Error()})
		return
	}

	cmd := command.Parse(req.Command)
	if cmd.Kind == command.Unknown {
		c.JSON(http.StatusBadRequest, types.CommandAck{Error: "unrecognized command"})
		return
	}

	entry, ok := h.d.Queue.Push(req.Command, "http")
	if !ok {
		c.JSON(http.StatusServiceUnavailable, types.CommandAck{Error: "command queue full"})
		return
	}

	h.d.Log.Info("command accepted",
		zap.String("command_id", entry.ID),
		zap.String("kind", cmd.Kind.String()))

	c.JSON(http.StatusAccepted, types.CommandAck{
		Accepted: true,
		ID:       entry.ID,
		Kind:     cmd.Kind.String(),
	})
}

// ListRecordings lists all recorded scans on disk
func (h *Handlers) ListRecordings(c *gin.Context) {
	scans, err := h.d.Inventory.Scans()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"recordings": scans,
		"count":      len(scans),
	})
}

// GetRecording describes one recorded scan
func (h *Handlers) GetRecording(c *gin.Context) {
	name := c.Param("name")

	if err := utils.ValidateScanName(name); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	scan, err := h.d.Inventory.Lookup(name)
	switch {
	case errors.Is(err, inventory.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "recording not found"})
		return
	case errors.Is(err, inventory.ErrBadName):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, scan)
}
