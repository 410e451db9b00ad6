package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"fleetops-backend/internal/ctxkeys"
	"fleetops-backend/internal/telemetry"
)

// statusRecorder captures the response status for telemetry.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// RequestAudit records every request to the given telemetry sink,
// tagging it with a generated request ID. The sink call happens after
// the response is written; recording is fire-and-forget.
func RequestAudit(sink telemetry.Sink) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := uuid.NewString()
			capture := &telemetry.UserCapture{}

			ctx := context.WithValue(r.Context(), ctxkeys.RequestID, requestID)
			ctx = context.WithValue(ctx, ctxkeys.AuditUser, capture)

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()

			next.ServeHTTP(rec, r.WithContext(ctx))

			go sink.Record(context.Background(), telemetry.Event{
				RequestID: requestID,
				Method:    r.Method,
				Path:      r.URL.Path,
				Status:    rec.status,
				Duration:  time.Since(start),
				UserID:    capture.ID,
				At:        start,
			})
		})
	}
}
