package ws

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/SpectraCore/internal/domain/command"
	"github.com/GriffinCanCode/SpectraCore/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/SpectraCore/internal/shared/types"
)

type wsRig struct {
	queue  *command.Queue
	server *httptest.Server
	conn   *websocket.Conn
}

func newWSRig(t *testing.T, status StatusFunc) *wsRig {
	t.Helper()
	gin.SetMode(gin.TestMode)

	queue := command.NewQueue(8, zap.NewNop())
	handler := NewHandler(status, queue, monitoring.NewMetrics(), zap.NewNop()).
		WithInterval(20 * time.Millisecond)

	router := gin.New()
	router.GET("/stream", handler.HandleConnection)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return &wsRig{queue: queue, server: server, conn: conn}
}

// readFrame reads frames until one of the wanted type arrives.
func (r *wsRig) readFrame(t *testing.T, wantType string) types.WSMessage {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	require.NoError(t, r.conn.SetReadDeadline(deadline))
	for {
		var msg types.WSMessage
		require.NoError(t, r.conn.ReadJSON(&msg))
		if msg.Type == wantType {
			return msg
		}
		require.False(t, time.Now().After(deadline), "no %q frame before deadline", wantType)
	}
}

func TestStreamPushesStatus(t *testing.T) {
	r := newWSRig(t, func() interface{} {
		return map[string]string{"state": "idle"}
	})

	msg := r.readFrame(t, types.WSTypeStatus)
	data, ok := msg.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "idle", data["state"])
}

func TestStreamAcceptsCommands(t *testing.T) {
	r := newWSRig(t, func() interface{} { return nil })

	err := r.conn.WriteJSON(types.WSMessage{
		Type:    types.WSTypeCommand,
		Message: "record=on:Exp1:Src1:Scn1",
	})
	require.NoError(t, err)

	msg := r.readFrame(t, types.WSTypeAck)
	data, ok := msg.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, true, data["accepted"])
	assert.Equal(t, "record_on", data["kind"])
	assert.NotEmpty(t, data["id"])

	entry, ok := r.queue.PopMessage()
	require.True(t, ok)
	assert.Equal(t, "record=on:Exp1:Src1:Scn1", entry.Raw)
	assert.True(t, strings.HasPrefix(entry.Origin, "ws:"))
}

func TestStreamRejectsMalformedCommand(t *testing.T) {
	r := newWSRig(t, func() interface{} { return nil })

	require.NoError(t, r.conn.WriteJSON(types.WSMessage{
		Type:    types.WSTypeCommand,
		Message: "spin=up",
	}))

	msg := r.readFrame(t, types.WSTypeAck)
	data, ok := msg.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, false, data["accepted"])
	assert.Equal(t, "unrecognized command", data["error"])
	assert.Equal(t, 0, r.queue.Len())
}

func TestStreamPingPong(t *testing.T) {
	r := newWSRig(t, func() interface{} { return nil })

	require.NoError(t, r.conn.WriteJSON(types.WSMessage{Type: types.WSTypePing}))
	r.readFrame(t, types.WSTypePong)
}

func TestStreamUnknownType(t *testing.T) {
	r := newWSRig(t, func() interface{} { return nil })

	require.NoError(t, r.conn.WriteJSON(types.WSMessage{Type: "telemetry"}))
	msg := r.readFrame(t, types.WSTypeError)
	assert.Equal(t, "unknown message type", msg.Message)
}
