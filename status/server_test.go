package status

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/ledhost/dispatch"
	"github.com/wippyai/ledhost/led"
	"github.com/wippyai/ledhost/strip"
)

type fixedReporter dispatch.Snapshot

func (f fixedReporter) Snapshot() dispatch.Snapshot { return dispatch.Snapshot(f) }

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthz(t *testing.T) {
	s := New(Config{}, fixedReporter{}, nil, nil)
	rec := get(t, s.Handler(), "/healthz")

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp HealthzResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestStatus(t *testing.T) {
	s := New(Config{}, fixedReporter{State: "running", Program: "abcdef012345", Ticks: 42, Runs: 1, Count: 88}, nil, nil)
	rec := get(t, s.Handler(), "/status")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var snap dispatch.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, "running", snap.State)
	assert.Equal(t, "abcdef012345", snap.Program)
	assert.Equal(t, uint64(42), snap.Ticks)
	assert.Equal(t, 88, snap.Count)
}

func TestFrame(t *testing.T) {
	buf := strip.NewBuffer(3)
	require.NoError(t, buf.SetRange(1, 1, []led.Color{led.RGB(0xff, 0x80, 0x00)}))
	require.NoError(t, buf.Flush())

	s := New(Config{}, fixedReporter{}, buf, nil)
	rec := get(t, s.Handler(), "/frame")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp FrameResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"#000000", "#ff8000", "#000000"}, resp.Colors)

	rec = get(t, New(Config{}, fixedReporter{}, nil, nil).Handler(), "/frame")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServe_Shutdown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	s := New(Config{}, fixedReporter{State: "idle"}, nil, nil)
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	url := "http://" + ln.Addr().String() + "/healthz"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
