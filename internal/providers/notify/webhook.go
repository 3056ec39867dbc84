// Package notify pushes recording lifecycle events to an operator webhook.
package notify

import (
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bytedance/sonic"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/SpectraCore/internal/domain/scheduler"
	"github.com/GriffinCanCode/SpectraCore/internal/infrastructure/resilience"
)

// EventScanComplete is emitted when a scan's files are on disk.
const EventScanComplete = "scan_complete"

// Config controls webhook delivery. An empty URL disables it.
type Config struct {
	URL     string
	Timeout time.Duration
	Retries int

	// TripAfter and Cooldown tune the delivery breaker.
	TripAfter uint32
	Cooldown  time.Duration
}

// Payload is the JSON body posted for every event.
type Payload struct {
	Event   string               `json:"event"`
	Session scheduler.Session    `json:"session"`
	Report  scheduler.ScanReport `json:"report"`
	At      time.Time            `json:"at"`
}

// Stats is a point-in-time view of delivery outcomes.
type Stats struct {
	Delivered uint64 `json:"delivered"`
	Failed    uint64 `json:"failed"`
	Skipped   uint64 `json:"skipped"`
}

// Webhook delivers events asynchronously so the recording path never waits
// on the network. Deliveries retry with backoff; a run of failures trips a
// breaker that sheds events until the endpoint recovers.
type Webhook struct {
	cfg     Config
	log     *zap.Logger
	client  *retryablehttp.Client
	breaker *resilience.Breaker

	wg     sync.WaitGroup
	closed atomic.Bool

	delivered atomic.Uint64
	failed    atomic.Uint64
	skipped   atomic.Uint64
}

func NewWebhook(cfg Config, log *zap.Logger) *Webhook {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.TripAfter == 0 {
		cfg.TripAfter = 3
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 30 * time.Second
	}

	client := retryablehttp.NewClient()
	client.RetryMax = cfg.Retries
	client.RetryWaitMin = 500 * time.Millisecond
	client.RetryWaitMax = 5 * time.Second
	client.Logger = nil
	client.HTTPClient.Timeout = cfg.Timeout

	wh := &Webhook{cfg: cfg, log: log, client: client}
	wh.breaker = resilience.New("webhook", resilience.Settings{
		TripAfter: cfg.TripAfter,
		Cooldown:  cfg.Cooldown,
		OnStateChange: func(name string, from, to resilience.State) {
			log.Warn("webhook breaker state changed",
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	return wh
}

// ScanComplete posts the scan report in the background.
func (wh *Webhook) ScanComplete(sess scheduler.Session, report scheduler.ScanReport) {
	if wh.cfg.URL == "" || wh.closed.Load() {
		return
	}

	wh.wg.Add(1)
	go func() {
		defer wh.wg.Done()
		wh.deliver(Payload{
			Event:   EventScanComplete,
			Session: sess,
			Report:  report,
			At:      time.Now().UTC(),
		})
	}()
}

// Close waits for in-flight deliveries to finish.
func (wh *Webhook) Close() {
	wh.closed.Store(true)
	wh.wg.Wait()
}

// Stats captures current delivery counters.
func (wh *Webhook) Stats() Stats {
	return Stats{
		Delivered: wh.delivered.Load(),
		Failed:    wh.failed.Load(),
		Skipped:   wh.skipped.Load(),
	}
}

func (wh *Webhook) deliver(p Payload) {
	body, err := sonic.Marshal(p)
	if err != nil {
		wh.failed.Add(1)
		wh.log.Error("webhook payload marshal failed", zap.Error(err))
		return
	}

	err = wh.breaker.Do(func() error {
		return wh.post(body)
	})
	switch {
	case err == nil:
		wh.delivered.Add(1)
		wh.log.Debug("webhook delivered",
			zap.String("event", p.Event),
			zap.String("scan_id", p.Report.ScanID))
	case err == resilience.ErrCircuitOpen || err == resilience.ErrProbeLimit:
		wh.skipped.Add(1)
		wh.log.Warn("webhook delivery shed",
			zap.String("event", p.Event),
			zap.String("scan_id", p.Report.ScanID))
	default:
		wh.failed.Add(1)
		wh.log.Error("webhook delivery failed",
			zap.String("event", p.Event),
			zap.String("scan_id", p.Report.ScanID),
			zap.Error(err))
	}
}

func (wh *Webhook) post(body []byte) error {
	req, err := retryablehttp.NewRequest(http.MethodPost, wh.cfg.URL, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := wh.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
