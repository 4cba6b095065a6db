package metrics

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/sonido-vowels/stream"
	"github.com/RyanBlaney/sonido-vowels/vowel"
)

var _ stream.Recorder = (*Metrics)(nil)

func TestRecorder(t *testing.T) {
	m := NewMetrics()

	m.ObserveBlock(2 * time.Millisecond)
	m.ObserveBlock(3 * time.Millisecond)
	m.ObserveDetection(vowel.A)
	m.ObserveDetection(vowel.E)
	m.ObserveDetection(vowel.E)
	m.ObserveMiss()
	m.SetQueueDepth(7)
	m.ObserveFrame()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.BlocksProcessed))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Detections.WithLabelValues("a")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Detections.WithLabelValues("e")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Detections.WithLabelValues("u")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Misses))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.QueueDepth))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DisplayFramesDrawn))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CurrentVowel.WithLabelValues("e")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.CurrentVowel.WithLabelValues("a")))

	assert.Equal(t, 1, testutil.CollectAndCount(m.BlockProcessTime))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := NewMetrics()
	m.ObserveDetection(vowel.O)

	srv := httptest.NewServer(NewServer(":0", m).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `vowel_detections_total{vowel="o"} 1`)
	assert.Contains(t, string(body), "vowel_blocks_processed_total 0")

	health, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	health.Body.Close()
	assert.Equal(t, http.StatusOK, health.StatusCode)
}

func TestServeStopsOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := NewServer(ln.Addr().String(), NewMetrics())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestRunReportsListenError(t *testing.T) {
	err := NewServer("not-an-address", NewMetrics()).Run(context.Background())
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "metrics: listen"))
}
