package notify

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/SpectraCore/internal/domain/scheduler"
)

func testEvent() (scheduler.Session, scheduler.ScanReport) {
	sess := scheduler.Session{
		ID:          "scan_01HNOTIFY",
		Experiment:  "ExpA",
		Source:      "SrcB",
		Scan:        "ScanC",
		StartSecond: 1700000000,
	}
	report := scheduler.ScanReport{
		ScanID:    sess.ID,
		Directory: "/data/ExpA_SrcB_ScanC",
		Files:     4,
		Bytes:     2048,
		Spectra:   2,
	}
	return sess, report
}

func TestWebhookDelivers(t *testing.T) {
	bodies := make(chan []byte, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		bodies <- body
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	wh := NewWebhook(Config{URL: srv.URL, Timeout: time.Second}, zap.NewNop())
	sess, report := testEvent()
	wh.ScanComplete(sess, report)
	wh.Close()

	var p Payload
	require.NoError(t, sonic.Unmarshal(<-bodies, &p))
	assert.Equal(t, EventScanComplete, p.Event)
	assert.Equal(t, sess.ID, p.Session.ID)
	assert.Equal(t, report.Files, p.Report.Files)
	assert.False(t, p.At.IsZero())

	assert.Equal(t, uint64(1), wh.Stats().Delivered)
}

func TestWebhookDisabledWithoutURL(t *testing.T) {
	wh := NewWebhook(Config{}, zap.NewNop())
	sess, report := testEvent()

	wh.ScanComplete(sess, report)
	wh.Close()

	assert.Equal(t, Stats{}, wh.Stats())
}

func TestWebhookIgnoresEventsAfterClose(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	wh := NewWebhook(Config{URL: srv.URL, Timeout: time.Second}, zap.NewNop())
	wh.Close()

	sess, report := testEvent()
	wh.ScanComplete(sess, report)
	wh.Close()

	assert.Zero(t, hits.Load())
}

func TestWebhookCountsFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	wh := NewWebhook(Config{URL: srv.URL, Timeout: time.Second}, zap.NewNop())
	sess, report := testEvent()
	wh.deliver(Payload{Event: EventScanComplete, Session: sess, Report: report})

	assert.Equal(t, uint64(1), wh.Stats().Failed)
}

func TestWebhookShedsWhileBreakerOpen(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	wh := NewWebhook(Config{
		URL:       srv.URL,
		Timeout:   time.Second,
		TripAfter: 2,
		Cooldown:  time.Minute,
	}, zap.NewNop())

	sess, report := testEvent()
	p := Payload{Event: EventScanComplete, Session: sess, Report: report}
	wh.deliver(p)
	wh.deliver(p)
	wh.deliver(p)

	stats := wh.Stats()
	assert.Equal(t, uint64(2), stats.Failed)
	assert.Equal(t, uint64(1), stats.Skipped)
	assert.Equal(t, int64(2), hits.Load(), "open breaker never reaches the endpoint")
}
