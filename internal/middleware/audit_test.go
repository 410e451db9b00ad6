package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetops-backend/internal/ctxkeys"
	"fleetops-backend/internal/telemetry"
)

// chanSink forwards events to a channel so tests can wait for the
// fire-and-forget recording.
type chanSink struct {
	events chan telemetry.Event
}

func (s *chanSink) Record(_ context.Context, e telemetry.Event) {
	s.events <- e
}

func waitForEvent(t *testing.T, sink *chanSink) telemetry.Event {
	t.Helper()
	select {
	case e := <-sink.events:
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("no telemetry event recorded")
		return telemetry.Event{}
	}
}

func TestRequestAuditRecordsEvent(t *testing.T) {
	sink := &chanSink{events: make(chan telemetry.Event, 1)}

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	req := httptest.NewRequest(http.MethodPost, "/api/vehicles", nil)
	rec := httptest.NewRecorder()

	RequestAudit(sink)(next).ServeHTTP(rec, req)

	e := waitForEvent(t, sink)
	assert.Equal(t, http.MethodPost, e.Method)
	assert.Equal(t, "/api/vehicles", e.Path)
	assert.Equal(t, http.StatusTeapot, e.Status)
	assert.NotEmpty(t, e.RequestID)
	assert.Empty(t, e.UserID)
}

func TestRequestAuditSeesUserSetByInnerMiddleware(t *testing.T) {
	sink := &chanSink{events: make(chan telemetry.Event, 1)}

	// Simulates the auth middleware filling the capture after the
	// audit wrapper has already dispatched the request.
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capture, ok := r.Context().Value(ctxkeys.AuditUser).(*telemetry.UserCapture)
		require.True(t, ok)
		capture.ID = "u-42"
	})

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	rec := httptest.NewRecorder()

	RequestAudit(sink)(next).ServeHTTP(rec, req)

	e := waitForEvent(t, sink)
	assert.Equal(t, "u-42", e.UserID)
	assert.Equal(t, http.StatusOK, e.Status)
}

func TestRequestAuditDefaultsStatusOK(t *testing.T) {
	sink := &chanSink{events: make(chan telemetry.Event, 1)}

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	RequestAudit(sink)(next).ServeHTTP(rec, req)

	e := waitForEvent(t, sink)
	assert.Equal(t, http.StatusOK, e.Status)
}
