package mqtt

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/SpectraCore/internal/domain/command"
	"github.com/GriffinCanCode/SpectraCore/internal/shared/utils"
)

// Origin tags queue entries received over MQTT.
const Origin = "mqtt"

const (
	subscribeQoS     = 1
	subscribeTimeout = 5 * time.Second
)

// Config connects the listener to a broker. An empty Broker disables it.
type Config struct {
	Broker   string
	Topic    string
	ClientID string
	Username string
	Password string

	// ConnectTimeout bounds how long Start waits for the initial
	// handshake before leaving the client to retry in the background.
	ConnectTimeout time.Duration
}

// Stats is a point-in-time view of listener activity.
type Stats struct {
	Enabled   bool   `json:"enabled"`
	Connected bool   `json:"connected"`
	Received  uint64 `json:"received"`
	Rejected  uint64 `json:"rejected"`
	Dropped   uint64 `json:"dropped"`
}

// Ingress subscribes to a control topic and feeds each message into the
// command queue. Payloads carry one command line each.
type Ingress struct {
	cfg    Config
	log    *zap.Logger
	queue  *command.Queue
	client paho.Client

	connected atomic.Bool
	received  atomic.Uint64
	rejected  atomic.Uint64
	dropped   atomic.Uint64
}

func New(cfg Config, queue *command.Queue, log *zap.Logger) *Ingress {
	if cfg.ClientID == "" {
		cfg.ClientID = "spectracore"
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 5 * time.Second
	}
	return &Ingress{cfg: cfg, log: log, queue: queue}
}

// Enabled reports whether a broker is configured.
func (in *Ingress) Enabled() bool {
	return in.cfg.Broker != ""
}

// Start connects to the broker and subscribes to the control topic. The
// subscription is placed in the connect handler so every reconnect
// restores it.
func (in *Ingress) Start() error {
	if !in.Enabled() {
		in.log.Info("mqtt ingress disabled")
		return nil
	}

	opts := paho.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s", in.cfg.Broker))
	opts.SetClientID(in.cfg.ClientID)
	if in.cfg.Username != "" {
		opts.SetUsername(in.cfg.Username)
		opts.SetPassword(in.cfg.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.SetMaxReconnectInterval(30 * time.Second)

	opts.OnConnect = func(c paho.Client) {
		in.connected.Store(true)
		token := c.Subscribe(in.cfg.Topic, subscribeQoS, in.handle)
		if !token.WaitTimeout(subscribeTimeout) || token.Error() != nil {
			in.log.Error("mqtt subscription failed",
				zap.String("topic", in.cfg.Topic),
				zap.Error(token.Error()))
			return
		}
		in.log.Info("mqtt ingress subscribed",
			zap.String("broker", in.cfg.Broker),
			zap.String("topic", in.cfg.Topic))
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		in.connected.Store(false)
		in.log.Warn("mqtt connection lost", zap.Error(err))
	}

	in.client = paho.NewClient(opts)

	// With retry enabled the token fails only on a non-recoverable error;
	// an unreachable broker leaves it pending while the client keeps
	// trying in the background.
	token := in.client.Connect()
	if !token.WaitTimeout(in.cfg.ConnectTimeout) {
		in.log.Warn("mqtt broker not reachable yet, retrying in background",
			zap.String("broker", in.cfg.Broker))
		return nil
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}
	return nil
}

// handle screens one message and queues it. Malformed lines are counted
// and logged, never forwarded.
func (in *Ingress) handle(_ paho.Client, msg paho.Message) {
	line := strings.TrimSpace(string(msg.Payload()))

	if err := utils.ValidateCommand(line); err != nil {
		in.rejected.Add(1)
		in.log.Warn("mqtt command rejected",
			zap.String("topic", msg.Topic()),
			zap.Error(err))
		return
	}
	if command.Parse(line).Kind == command.Unknown {
		in.rejected.Add(1)
		in.log.Warn("mqtt command unrecognized", zap.String("raw", line))
		return
	}

	entry, ok := in.queue.Push(line, Origin)
	if !ok {
		in.dropped.Add(1)
		return
	}
	in.received.Add(1)
	in.log.Debug("mqtt command queued",
		zap.String("command_id", entry.ID),
		zap.String("raw", line))
}

// Close unsubscribes and disconnects. Safe when the listener was disabled
// or never connected.
func (in *Ingress) Close() {
	if in.client == nil {
		return
	}
	if in.client.IsConnected() {
		in.client.Unsubscribe(in.cfg.Topic).WaitTimeout(time.Second)
		in.client.Disconnect(250)
	}
	in.connected.Store(false)
	in.log.Info("mqtt ingress stopped")
}

// Stats snapshots the listener counters.
func (in *Ingress) Stats() Stats {
	return Stats{
		Enabled:   in.Enabled(),
		Connected: in.connected.Load(),
		Received:  in.received.Load(),
		Rejected:  in.rejected.Load(),
		Dropped:   in.dropped.Load(),
	}
}
