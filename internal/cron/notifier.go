// Package cron runs the scheduled background jobs. There is one job
// today: the daily renewal scan that turns expiring documents into
// notifications.
package cron

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"fleetops-backend/internal/database"
	"fleetops-backend/internal/renewals"
)

// Notifier scans the fleet once a day and writes a notification per
// expiring or expired document to every admin-level user.
type Notifier struct {
	db       database.Service
	schedule string
	cron     *cron.Cron
}

// NewNotifier creates a Notifier with a cron schedule (standard 5-field
// expression, e.g. "0 8 * * *" for 08:00 daily).
func NewNotifier(db database.Service, schedule string) *Notifier {
	return &Notifier{
		db:       db,
		schedule: schedule,
		cron:     cron.New(),
	}
}

// Start registers the scan job and kicks off one immediate run so a
// fresh deploy doesn't wait a day for its first reminders.
func (n *Notifier) Start() error {
	if _, err := n.cron.AddFunc(n.schedule, func() {
		if err := n.Scan(context.Background()); err != nil {
			log.Printf("Renewal scan failed: %v", err)
		}
	}); err != nil {
		return fmt.Errorf("register renewal scan: %w", err)
	}
	n.cron.Start()

	go func() {
		if err := n.Scan(context.Background()); err != nil {
			log.Printf("Initial renewal scan failed: %v", err)
		}
	}()
	return nil
}

// Stop halts the scheduler and waits for a running scan to finish.
func (n *Notifier) Stop() {
	<-n.cron.Stop().Done()
}

// Scan classifies every active vehicle's documents and inserts
// notifications for those expired or due within 30 days. The insert is
// deduplicated per user, vehicle, document type, and calendar day, so
// rerunning the scan is harmless.
func (n *Notifier) Scan(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	pool := n.db.GetPool()

	rows, err := pool.Query(ctx, `
		SELECT id, registration, road_tax, fitness, insurance, pollution,
			state_permit, national_permit
		FROM vehicles
		WHERE status = 'active'
	`)
	if err != nil {
		return fmt.Errorf("fetch vehicles: %w", err)
	}
	defer rows.Close()

	type expiringDoc struct {
		vehicleID    string
		registration string
		docType      string
		expiry       string
		daysLeft     int
	}

	today := time.Now()
	var due []expiringDoc
	for rows.Next() {
		var id, registration string
		var docs renewals.VehicleDocuments
		if err := rows.Scan(
			&id, &registration,
			&docs.RoadTax, &docs.Fitness, &docs.Insurance,
			&docs.Pollution, &docs.StatePermit, &docs.NationalPermit,
		); err != nil {
			log.Printf("Error scanning vehicle for renewal scan: %v", err)
			continue
		}

		for _, ds := range renewals.Statuses(docs, today) {
			if ds.Status == renewals.StatusNotAvailable {
				continue
			}
			days := renewals.DaysUntil(ds.Expiry, today)
			if days > renewals.ExpiringSoonDays {
				continue
			}
			due = append(due, expiringDoc{
				vehicleID:    id,
				registration: registration,
				docType:      ds.Type,
				expiry:       ds.Expiry,
				daysLeft:     days,
			})
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate vehicles: %w", err)
	}

	if len(due) == 0 {
		log.Printf("Renewal scan: nothing due")
		return nil
	}

	// Reminders go to operators and above.
	userRows, err := pool.Query(ctx, `
		SELECT id FROM users WHERE role IN ('operator', 'admin', 'super_admin')
	`)
	if err != nil {
		return fmt.Errorf("fetch users: %w", err)
	}
	defer userRows.Close()

	var userIDs []string
	for userRows.Next() {
		var id string
		if userRows.Scan(&id) == nil {
			userIDs = append(userIDs, id)
		}
	}

	inserted := 0
	for _, doc := range due {
		kind := "document_expiring"
		title := fmt.Sprintf("%s expiring for %s", renewals.DisplayName(doc.docType), doc.registration)
		message := fmt.Sprintf("%s for vehicle %s expires on %s (%d days left).",
			renewals.DisplayName(doc.docType), doc.registration, doc.expiry, doc.daysLeft)
		if doc.daysLeft < 0 {
			kind = "document_expired"
			title = fmt.Sprintf("%s expired for %s", renewals.DisplayName(doc.docType), doc.registration)
			message = fmt.Sprintf("%s for vehicle %s expired on %s (%d days ago).",
				renewals.DisplayName(doc.docType), doc.registration, doc.expiry, -doc.daysLeft)
		}

		for _, userID := range userIDs {
			tag, err := pool.Exec(ctx, `
				INSERT INTO notifications (user_id, title, message, type, entity_type, entity_id)
				SELECT $1, $2, $3, $4, 'vehicle', $5
				WHERE NOT EXISTS (
					SELECT 1 FROM notifications
					WHERE user_id = $1 AND entity_id = $5 AND type = $4
					  AND title = $2
					  AND created_at::date = CURRENT_DATE
				)
			`, userID, title, message, kind, doc.vehicleID)
			if err != nil {
				log.Printf("Error inserting notification for vehicle %s: %v", doc.vehicleID, err)
				continue
			}
			inserted += int(tag.RowsAffected())
		}
	}

	log.Printf("Renewal scan: %d document(s) due across fleet, %d notification(s) created", len(due), inserted)
	return nil
}
