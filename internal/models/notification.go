package models

import "encoding/json"

// Notification is a renewal reminder generated by the daily cron scan.
type Notification struct {
	ID         string `json:"id"`
	UserID     string `json:"userId"`
	Title      string `json:"title"`
	Message    string `json:"message"`
	Type       string `json:"type"` // document_expiring | document_expired
	EntityType string `json:"entityType"`
	EntityID   string `json:"entityId"`
	Read       bool   `json:"read"`
	CreatedAt  string `json:"createdAt"`
}

// ActivityEntry is one row of the audit trail.
type ActivityEntry struct {
	ID         string          `json:"id"`
	UserID     *string         `json:"userId,omitempty"`
	UserName   *string         `json:"userName,omitempty"`
	Action     string          `json:"action"` // created | updated | deleted | ...
	EntityType string          `json:"entityType"`
	EntityID   string          `json:"entityId"`
	Details    json.RawMessage `json:"details,omitempty"`
	CreatedAt  string          `json:"createdAt"`
}
