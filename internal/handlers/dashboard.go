package handlers

import (
	"context"
	"log"
	"net/http"
	"sort"
	"time"

	"fleetops-backend/internal/database"
	"fleetops-backend/internal/models"
	"fleetops-backend/internal/renewals"
)

// DashboardHandler serves the aggregated dashboard views.
type DashboardHandler struct {
	db database.Service
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(db database.Service) *DashboardHandler {
	return &DashboardHandler{db: db}
}

// vehicleRow is the slim projection the dashboard queries work from.
type vehicleRow struct {
	ID           string
	Registration string
	DriverName   *string
	Docs         renewals.VehicleDocuments
}

// fetchVehicleRows loads every active vehicle's document dates.
// Dashboard views always exclude inactive and sold vehicles.
func (h *DashboardHandler) fetchVehicleRows(ctx context.Context) ([]vehicleRow, error) {
	rows, err := h.db.GetPool().Query(ctx, `
		SELECT v.id, v.registration, d.name,
			v.road_tax, v.fitness, v.insurance, v.pollution,
			v.state_permit, v.national_permit
		FROM vehicles v
		LEFT JOIN drivers d ON v.driver_id = d.id
		WHERE v.status = 'active'
		ORDER BY v.registration ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []vehicleRow{}
	for rows.Next() {
		var vr vehicleRow
		if err := rows.Scan(
			&vr.ID, &vr.Registration, &vr.DriverName,
			&vr.Docs.RoadTax, &vr.Docs.Fitness, &vr.Docs.Insurance,
			&vr.Docs.Pollution, &vr.Docs.StatePermit, &vr.Docs.NationalPermit,
		); err != nil {
			log.Printf("Error scanning vehicle row: %v", err)
			continue
		}
		out = append(out, vr)
	}
	return out, nil
}

// ── Metrics ────────────────────────────────────────────────────

// GetMetrics handles GET /api/dashboard/metrics
// Counts are a mix of SQL aggregates (vehicle/service/challan totals)
// and engine passes (expiring soon, which depends on date parsing).
func (h *DashboardHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	pool := h.db.GetPool()

	var m models.DashboardMetrics
	err := pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM vehicles)::int,
			(SELECT COUNT(*) FROM vehicles WHERE status = 'active')::int,
			(SELECT COUNT(*) FROM renewal_services WHERE status IN ('pending', 'processing'))::int,
			(SELECT COUNT(*) FROM renewal_services WHERE status = 'completed')::int,
			(SELECT COUNT(*) FROM challans WHERE status = 'unpaid')::int
	`).Scan(&m.TotalVehicles, &m.ActiveVehicles, &m.ServicesOpen, &m.ServicesCompleted, &m.UnpaidChallans)
	if err != nil {
		log.Printf("Error fetching dashboard metrics: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to fetch metrics")
		return
	}

	vehicles, err := h.fetchVehicleRows(ctx)
	if err != nil {
		log.Printf("Error fetching vehicles for metrics: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to fetch metrics")
		return
	}

	today := time.Now()
	for _, vr := range vehicles {
		if renewals.ExpiringInWindow(vr.Docs, today, renewals.ExpiringSoonDays) {
			m.ExpiringSoon++
		}
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"data": m,
	})
}

// ── Renewal Buckets ────────────────────────────────────────────

// GetRenewalBuckets handles GET /api/dashboard/renewals
// Windows are cumulative: a vehicle due in 5 days appears in the
// 30, 90, 180, and 365 day buckets alike.
func (h *DashboardHandler) GetRenewalBuckets(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	vehicles, err := h.fetchVehicleRows(ctx)
	if err != nil {
		log.Printf("Error fetching vehicles for renewal buckets: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to fetch renewals")
		return
	}

	today := time.Now()
	details := map[int]*models.BucketDetail{}
	for _, window := range renewals.BucketWindows {
		details[window] = &models.BucketDetail{Vehicles: []models.BucketVehicle{}}
	}

	for _, vr := range vehicles {
		earliest, ok := renewals.EarliestExpiry(vr.Docs, today)
		if !ok {
			continue
		}
		bv := models.BucketVehicle{
			ID:             vr.ID,
			Registration:   vr.Registration,
			EarliestDoc:    renewals.DisplayName(earliest.Type),
			EarliestExpiry: earliest.Expiry,
			DaysLeft:       renewals.DaysUntil(earliest.Expiry, today),
			DriverName:     vr.DriverName,
		}
		for _, window := range renewals.BucketWindows {
			if renewals.ExpiringInWindow(vr.Docs, today, window) {
				d := details[window]
				d.Count++
				d.Vehicles = append(d.Vehicles, bv)
			}
		}
	}

	for _, d := range details {
		sort.Slice(d.Vehicles, func(i, j int) bool {
			return d.Vehicles[i].DaysLeft < d.Vehicles[j].DaysLeft
		})
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"data": models.RenewalBuckets{
			Days30:  *details[30],
			Days90:  *details[90],
			Days180: *details[180],
			Days365: *details[365],
		},
	})
}

// ── Expiry Alerts ──────────────────────────────────────────────

// GetExpiryAlerts handles GET /api/dashboard/expiring
// One alert per document that is expired or due within 30 days,
// most urgent first.
func (h *DashboardHandler) GetExpiryAlerts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	vehicles, err := h.fetchVehicleRows(ctx)
	if err != nil {
		log.Printf("Error fetching vehicles for expiry alerts: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to fetch alerts")
		return
	}

	today := time.Now()
	alerts := []models.ExpiryAlert{}
	for _, vr := range vehicles {
		for _, ds := range renewals.Statuses(vr.Docs, today) {
			if ds.Status == renewals.StatusNotAvailable {
				continue
			}
			days := renewals.DaysUntil(ds.Expiry, today)
			if days > renewals.ExpiringSoonDays {
				continue
			}

			severity := "warning"
			switch {
			case days < 0:
				severity = "expired"
			case days <= 7:
				severity = "urgent"
			}

			alerts = append(alerts, models.ExpiryAlert{
				VehicleID:    vr.ID,
				Registration: vr.Registration,
				DocumentType: ds.Type,
				DisplayName:  renewals.DisplayName(ds.Type),
				Expiry:       ds.Expiry,
				DaysLeft:     days,
				Status:       severity,
			})
		}
	}

	sort.Slice(alerts, func(i, j int) bool {
		return alerts[i].DaysLeft < alerts[j].DaysLeft
	})

	JSON(w, http.StatusOK, map[string]interface{}{
		"data": alerts,
	})
}

// ── Service Stats ──────────────────────────────────────────────

// GetServiceStats handles GET /api/dashboard/services
func (h *DashboardHandler) GetServiceStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	pool := h.db.GetPool()

	rows, err := pool.Query(ctx, `
		SELECT status,
			government_fees, rto_approval, inspection, certificate, document_delivered,
			document_received_at, document_delivered_at
		FROM renewal_services
	`)
	if err != nil {
		log.Printf("Error querying services for stats: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to fetch service stats")
		return
	}
	defer rows.Close()

	stats := models.ServiceStats{
		ByStatus: map[string]int{
			renewals.ServicePending:    0,
			renewals.ServiceProcessing: 0,
			renewals.ServiceCompleted:  0,
			renewals.ServiceCancelled:  0,
		},
	}

	sum, n := 0, 0
	for rows.Next() {
		var status string
		var m renewals.Milestones
		var receivedAt, deliveredAt *time.Time
		if err := rows.Scan(
			&status,
			&m.GovernmentFees, &m.RTOApproval, &m.Inspection, &m.Certificate, &m.DocumentDelivered,
			&receivedAt, &deliveredAt,
		); err != nil {
			log.Printf("Error scanning service stats row: %v", err)
			continue
		}

		stats.ByStatus[status]++
		sum += renewals.Completion(m)
		n++

		if perf := renewals.EvaluateDelivery(receivedAt, deliveredAt, status); perf != nil {
			if perf.Early {
				stats.DeliveredEarly++
			} else if perf.Days > 0 {
				stats.DeliveredLate++
			}
		}
	}

	if n > 0 {
		stats.AverageCompletion = sum / n
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"data": stats,
	})
}
