package mqtt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/SpectraCore/internal/domain/command"
)

type fakeMessage struct{ payload string }

func (fakeMessage) Duplicate() bool   { return false }
func (fakeMessage) Qos() byte         { return 1 }
func (fakeMessage) Retained() bool    { return false }
func (fakeMessage) Topic() string     { return "spectra/commands" }
func (fakeMessage) MessageID() uint16 { return 0 }
func (f fakeMessage) Payload() []byte { return []byte(f.payload) }
func (fakeMessage) Ack()              {}

func TestHandleQueuesValidCommand(t *testing.T) {
	queue := command.NewQueue(8, zap.NewNop())
	in := New(Config{Broker: "broker:1883", Topic: "spectra/commands"}, queue, zap.NewNop())

	in.handle(nil, fakeMessage{payload: "record=on:exp1:src1:scan1"})

	entry, ok := queue.PopMessage()
	require.True(t, ok)
	assert.Equal(t, "record=on:exp1:src1:scan1", entry.Raw)
	assert.Equal(t, Origin, entry.Origin)
	assert.Equal(t, uint64(1), in.Stats().Received)
}

func TestHandleTrimsPayload(t *testing.T) {
	queue := command.NewQueue(8, zap.NewNop())
	in := New(Config{Broker: "broker:1883", Topic: "spectra/commands"}, queue, zap.NewNop())

	in.handle(nil, fakeMessage{payload: "record=off\n"})

	entry, ok := queue.PopMessage()
	require.True(t, ok)
	assert.Equal(t, "record=off", entry.Raw)
}

func TestHandleRejectsMalformed(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"unknown verb", "spin=up:fast"},
		{"wrong arity", "record=on"},
		{"empty", ""},
		{"embedded control", "record=\x01off"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			queue := command.NewQueue(8, zap.NewNop())
			in := New(Config{Broker: "broker:1883", Topic: "spectra/commands"}, queue, zap.NewNop())

			in.handle(nil, fakeMessage{payload: tt.payload})

			assert.Equal(t, 0, queue.Len())
			assert.Equal(t, uint64(1), in.Stats().Rejected)
		})
	}
}

func TestHandleCountsQueueFull(t *testing.T) {
	queue := command.NewQueue(1, zap.NewNop())
	in := New(Config{Broker: "broker:1883", Topic: "spectra/commands"}, queue, zap.NewNop())

	in.handle(nil, fakeMessage{payload: "record=off"})
	in.handle(nil, fakeMessage{payload: "record=off"})

	st := in.Stats()
	assert.Equal(t, uint64(1), st.Received)
	assert.Equal(t, uint64(1), st.Dropped)
}

func TestDisabledIngress(t *testing.T) {
	queue := command.NewQueue(8, zap.NewNop())
	in := New(Config{}, queue, zap.NewNop())

	assert.False(t, in.Enabled())
	require.NoError(t, in.Start())
	assert.False(t, in.Stats().Enabled)

	// Close without a client must not panic.
	in.Close()
}

func TestConfigDefaults(t *testing.T) {
	in := New(Config{Broker: "broker:1883"}, command.NewQueue(1, zap.NewNop()), zap.NewNop())

	assert.Equal(t, "spectracore", in.cfg.ClientID)
	assert.Positive(t, in.cfg.ConnectTimeout)
}
