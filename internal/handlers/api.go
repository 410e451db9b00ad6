// Package handlers contains the HTTP handlers for the fleet compliance API.
// Handlers read raw records from Postgres and compute renewal statuses and
// service progress at request time via the renewals package, so responses
// always reflect the current date.
package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// JSON writes v as a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

// JSONError writes a JSON error response with the given status code.
func JSONError(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// PaginationMeta describes the pagination state of a list response.
type PaginationMeta struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// PaginatedResponse wraps a list payload with its pagination metadata.
type PaginatedResponse struct {
	Data       interface{}    `json:"data"`
	Pagination PaginationMeta `json:"pagination"`
}

// logActivity records an audit trail entry. Failures are logged but never
// surfaced to the client; the audit trail must not break the main operation.
func logActivity(pool *pgxpool.Pool, userID, action, entityType, entityID string, details map[string]interface{}) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	var detailsJSON []byte
	if details != nil {
		var err error
		detailsJSON, err = json.Marshal(details)
		if err != nil {
			log.Printf("Error marshaling activity details: %v", err)
			detailsJSON = nil
		}
	}

	_, err := pool.Exec(ctx, `
		INSERT INTO activity_log (user_id, action, entity_type, entity_id, details)
		VALUES ($1, $2, $3, $4, $5)
	`, nilIfEmpty(userID), action, entityType, entityID, detailsJSON)
	if err != nil {
		log.Printf("Error writing activity log: %v", err)
	}
}

// nilIfEmpty returns nil if the string is empty, otherwise returns a pointer to it.
func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// csvEscape wraps a value in quotes if it contains commas.
func csvEscape(s string) string {
	if strings.Contains(s, ",") || strings.Contains(s, "\"") {
		return "\"" + strings.ReplaceAll(s, "\"", "\"\"") + "\""
	}
	return s
}
