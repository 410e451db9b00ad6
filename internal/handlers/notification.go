package handlers

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"fleetops-backend/internal/ctxkeys"
	"fleetops-backend/internal/database"
	"fleetops-backend/internal/models"
)

// NotificationHandler serves the renewal reminders generated by the
// daily scan. Notifications are always scoped to the current user.
type NotificationHandler struct {
	db database.Service
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(db database.Service) *NotificationHandler {
	return &NotificationHandler{db: db}
}

// List handles GET /api/notifications
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, _ := r.Context().Value(ctxkeys.UserID).(string)

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 || limit > 100 {
		limit = 50
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	pool := h.db.GetPool()

	rows, err := pool.Query(ctx, `
		SELECT id, user_id, title, message, type, entity_type, entity_id, read, created_at::text
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		log.Printf("Error querying notifications: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to fetch notifications")
		return
	}
	defer rows.Close()

	notifications := []models.Notification{}
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(
			&n.ID, &n.UserID, &n.Title, &n.Message, &n.Type,
			&n.EntityType, &n.EntityID, &n.Read, &n.CreatedAt,
		); err != nil {
			log.Printf("Error scanning notification: %v", err)
			continue
		}
		notifications = append(notifications, n)
	}

	JSON(w, http.StatusOK, map[string]interface{}{"data": notifications})
}

// UnreadCount handles GET /api/notifications/count
func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	userID, _ := r.Context().Value(ctxkeys.UserID).(string)

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var count int
	err := h.db.GetPool().QueryRow(ctx, `
		SELECT COUNT(*)::int FROM notifications WHERE user_id = $1 AND read = FALSE
	`, userID).Scan(&count)
	if err != nil {
		log.Printf("Error counting unread notifications: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to fetch unread count")
		return
	}

	JSON(w, http.StatusOK, map[string]int{"count": count})
}

// MarkRead handles PATCH /api/notifications/{id}/read
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	userID, _ := r.Context().Value(ctxkeys.UserID).(string)

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	tag, err := h.db.GetPool().Exec(ctx, `
		UPDATE notifications SET read = TRUE WHERE id = $1 AND user_id = $2
	`, id, userID)
	if err != nil {
		log.Printf("Error marking notification read: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to update notification")
		return
	}

	if tag.RowsAffected() == 0 {
		JSONError(w, http.StatusNotFound, "Notification not found")
		return
	}

	JSON(w, http.StatusOK, map[string]string{"message": "Notification marked as read"})
}

// MarkAllRead handles PATCH /api/notifications/read-all
func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID, _ := r.Context().Value(ctxkeys.UserID).(string)

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	tag, err := h.db.GetPool().Exec(ctx, `
		UPDATE notifications SET read = TRUE WHERE user_id = $1 AND read = FALSE
	`, userID)
	if err != nil {
		log.Printf("Error marking notifications read: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to update notifications")
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"message": "All notifications marked as read",
		"updated": tag.RowsAffected(),
	})
}
