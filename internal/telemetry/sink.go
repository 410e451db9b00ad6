// Package telemetry records API request history through an injected
// sink. Nothing here is global: the sink is a capability handed to the
// audit middleware in main, so tests can substitute their own.
package telemetry

import (
	"context"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Event describes one completed API request.
type Event struct {
	RequestID string
	Method    string
	Path      string
	Status    int
	Duration  time.Duration
	UserID    string // empty for unauthenticated requests
	At        time.Time
}

// Sink receives request events. Implementations must be safe for
// concurrent use; Record must not block the request path for long.
type Sink interface {
	Record(ctx context.Context, e Event)
}

// PGSink persists events to the api_request_log table.
type PGSink struct {
	pool *pgxpool.Pool
}

// NewPGSink creates a sink backed by the given pool.
func NewPGSink(pool *pgxpool.Pool) *PGSink {
	return &PGSink{pool: pool}
}

// Record inserts the event. Failures are logged and swallowed —
// telemetry must never fail a request.
func (s *PGSink) Record(ctx context.Context, e Event) {
	insertCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := s.pool.Exec(insertCtx, `
		INSERT INTO api_request_log (request_id, method, path, status, duration_ms, user_id, created_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7)
	`, e.RequestID, e.Method, e.Path, e.Status, e.Duration.Milliseconds(), e.UserID, e.At)
	if err != nil {
		log.Printf("[telemetry] failed to record request %s: %v", e.RequestID, err)
	}
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) Record(context.Context, Event) {}

// UserCapture is a mutable holder the audit middleware plants in the
// request context. Middleware running later (auth) fills in the user ID
// so the completed-request event can carry it.
type UserCapture struct {
	ID string
}
