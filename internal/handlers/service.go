package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"fleetops-backend/internal/ctxkeys"
	"fleetops-backend/internal/database"
	"fleetops-backend/internal/models"
	"fleetops-backend/internal/renewals"
)

// ServiceHandler handles renewal service workflow HTTP requests.
type ServiceHandler struct {
	db database.Service
}

// NewServiceHandler creates a new ServiceHandler.
func NewServiceHandler(db database.Service) *ServiceHandler {
	return &ServiceHandler{db: db}
}

// ── Columns ────────────────────────────────────────────────────

const serviceCols = `s.id, s.vehicle_id, s.document_type, s.status,
	s.agent, s.amount, s.notes,
	s.government_fees, s.rto_approval, s.inspection, s.certificate, s.document_delivered,
	s.government_fees_at, s.rto_approval_at, s.inspection_at, s.certificate_at, s.document_delivered_at,
	s.document_received_at,
	s.created_at, s.updated_at`

const serviceRetCols = `id, vehicle_id, document_type, status,
	agent, amount, notes,
	government_fees, rto_approval, inspection, certificate, document_delivered,
	government_fees_at, rto_approval_at, inspection_at, certificate_at, document_delivered_at,
	document_received_at,
	created_at, updated_at`

// ── Scan Helpers ───────────────────────────────────────────────

func scanService(scanner interface {
	Scan(dest ...interface{}) error
}, s *models.RenewalService) error {
	return scanner.Scan(
		&s.ID, &s.VehicleID, &s.DocumentType, &s.Status,
		&s.Agent, &s.Amount, &s.Notes,
		&s.GovernmentFees, &s.RTOApproval, &s.Inspection, &s.Certificate, &s.DocumentDelivered,
		&s.GovernmentFeesAt, &s.RTOApprovalAt, &s.InspectionAt, &s.CertificateAt, &s.DocumentDeliveredAt,
		&s.DocumentReceivedAt,
		&s.CreatedAt, &s.UpdatedAt,
	)
}

// enrichService attaches completion, the rendered timeline, and the
// delivery performance, all derived fresh from the stored flags.
func enrichService(s models.RenewalService, registration string) models.ServiceWithProgress {
	m := s.Milestones()

	timeline := []models.MilestoneStep{
		{Name: renewals.MilestoneGovernmentFees, State: renewals.MilestoneState(s.GovernmentFees, s.Status), At: s.GovernmentFeesAt},
		{Name: renewals.MilestoneRTOApproval, State: renewals.MilestoneState(s.RTOApproval, s.Status), At: s.RTOApprovalAt},
		{Name: renewals.MilestoneInspection, State: renewals.MilestoneState(s.Inspection, s.Status), At: s.InspectionAt},
		{Name: renewals.MilestoneCertificate, State: renewals.MilestoneState(s.Certificate, s.Status), At: s.CertificateAt},
		{Name: renewals.MilestoneDocumentDelivered, State: renewals.MilestoneState(s.DocumentDelivered, s.Status), At: s.DocumentDeliveredAt},
	}

	return models.ServiceWithProgress{
		RenewalService: s,
		Registration:   registration,
		Completion:     renewals.Completion(m),
		Timeline:       timeline,
		Delivery:       renewals.EvaluateDelivery(s.DocumentReceivedAt, s.DocumentDeliveredAt, s.Status),
	}
}

// ── Create ─────────────────────────────────────────────────────

// Create handles POST /api/services
// New services start as "pending" with all milestones unchecked.
func (h *ServiceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateServiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		JSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error":   "Validation failed",
			"details": errs,
		})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	pool := h.db.GetPool()

	// The vehicle must exist; also grab its registration for the response.
	var registration string
	if err := pool.QueryRow(ctx,
		`SELECT registration FROM vehicles WHERE id = $1`, req.VehicleID,
	).Scan(&registration); err != nil {
		JSONError(w, http.StatusUnprocessableEntity, "Vehicle not found")
		return
	}

	var svc models.RenewalService
	row := pool.QueryRow(ctx, `
		INSERT INTO renewal_services (vehicle_id, document_type, status, agent, amount, notes)
		VALUES ($1, $2, 'pending', $3, $4, $5)
		RETURNING `+serviceRetCols,
		req.VehicleID, req.DocumentType, req.Agent, req.Amount, req.Notes,
	)
	if err := scanService(row, &svc); err != nil {
		log.Printf("Error creating service: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to create service")
		return
	}

	// Audit trail
	userID, _ := r.Context().Value(ctxkeys.UserID).(string)
	logActivity(pool, userID, "created", "service", svc.ID, map[string]interface{}{
		"registration": registration, "documentType": svc.DocumentType,
	})

	JSON(w, http.StatusCreated, map[string]interface{}{
		"data":    enrichService(svc, registration),
		"message": "Service created successfully",
	})
}

// ── List ───────────────────────────────────────────────────────

// List handles GET /api/services
func (h *ServiceHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit < 1 || limit > 100 {
		limit = 20
	}
	offset := (page - 1) * limit

	status := q.Get("status")
	vehicleID := q.Get("vehicle_id")
	search := q.Get("search")

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	pool := h.db.GetPool()

	// Build dynamic WHERE clause
	where := "WHERE 1=1"
	args := []interface{}{}
	argIdx := 1

	if status != "" {
		if !renewals.ValidServiceStatuses[status] {
			JSONError(w, http.StatusBadRequest, "Invalid status filter")
			return
		}
		where += fmt.Sprintf(" AND s.status = $%d", argIdx)
		args = append(args, status)
		argIdx++
	}
	if vehicleID != "" {
		where += fmt.Sprintf(" AND s.vehicle_id = $%d", argIdx)
		args = append(args, vehicleID)
		argIdx++
	}
	if search != "" {
		where += fmt.Sprintf(" AND v.registration ILIKE $%d", argIdx)
		args = append(args, "%"+search+"%")
		argIdx++
	}

	countQuery := fmt.Sprintf(`
		SELECT COUNT(*) FROM renewal_services s
		JOIN vehicles v ON s.vehicle_id = v.id
		%s
	`, where)
	var total int
	if err := pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		log.Printf("Error counting services: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to fetch services")
		return
	}

	query := fmt.Sprintf(`
		SELECT %s, v.registration
		FROM renewal_services s
		JOIN vehicles v ON s.vehicle_id = v.id
		%s
		ORDER BY s.created_at DESC
		LIMIT $%d OFFSET $%d
	`, serviceCols, where, argIdx, argIdx+1)
	args = append(args, limit, offset)

	rows, err := pool.Query(ctx, query, args...)
	if err != nil {
		log.Printf("Error querying services: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to fetch services")
		return
	}
	defer rows.Close()

	services := []models.ServiceWithProgress{}
	for rows.Next() {
		var svc models.RenewalService
		var registration string
		if err := rows.Scan(
			&svc.ID, &svc.VehicleID, &svc.DocumentType, &svc.Status,
			&svc.Agent, &svc.Amount, &svc.Notes,
			&svc.GovernmentFees, &svc.RTOApproval, &svc.Inspection, &svc.Certificate, &svc.DocumentDelivered,
			&svc.GovernmentFeesAt, &svc.RTOApprovalAt, &svc.InspectionAt, &svc.CertificateAt, &svc.DocumentDeliveredAt,
			&svc.DocumentReceivedAt,
			&svc.CreatedAt, &svc.UpdatedAt,
			&registration,
		); err != nil {
			log.Printf("Error scanning service: %v", err)
			continue
		}
		services = append(services, enrichService(svc, registration))
	}

	JSON(w, http.StatusOK, PaginatedResponse{
		Data: services,
		Pagination: PaginationMeta{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: int(math.Ceil(float64(total) / float64(limit))),
		},
	})
}

// ── GetByID ────────────────────────────────────────────────────

// GetByID handles GET /api/services/{id}
func (h *ServiceHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		JSONError(w, http.StatusBadRequest, "Service ID is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	svc, registration, err := h.fetchService(ctx, id)
	if err != nil {
		log.Printf("Error fetching service %s: %v", id, err)
		JSONError(w, http.StatusNotFound, "Service not found")
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"data": enrichService(*svc, registration),
	})
}

// ── UpdateMilestones ───────────────────────────────────────────

// UpdateMilestones handles PATCH /api/services/{id}/milestones
// Flags flipped to true get their timestamp stamped server-side; flags
// flipped back to false clear it. Flags omitted from the body are untouched.
func (h *ServiceHandler) UpdateMilestones(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		JSONError(w, http.StatusBadRequest, "Service ID is required")
		return
	}

	var req models.UpdateMilestonesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	pool := h.db.GetPool()

	setClauses := []string{}
	args := []interface{}{}
	argIdx := 1

	addFlag := func(col string, val bool) {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", col, argIdx))
		args = append(args, val)
		argIdx++
		if val {
			setClauses = append(setClauses, fmt.Sprintf("%s_at = NOW()", col))
		} else {
			setClauses = append(setClauses, fmt.Sprintf("%s_at = NULL", col))
		}
	}

	if req.GovernmentFees != nil {
		addFlag("government_fees", *req.GovernmentFees)
	}
	if req.RTOApproval != nil {
		addFlag("rto_approval", *req.RTOApproval)
	}
	if req.Inspection != nil {
		addFlag("inspection", *req.Inspection)
	}
	if req.Certificate != nil {
		addFlag("certificate", *req.Certificate)
	}
	if req.DocumentDelivered != nil {
		addFlag("document_delivered", *req.DocumentDelivered)
	}
	if req.DocumentReceivedAt != nil {
		setClauses = append(setClauses, fmt.Sprintf("document_received_at = $%d", argIdx))
		args = append(args, *req.DocumentReceivedAt)
		argIdx++
	}

	if len(setClauses) == 0 {
		JSONError(w, http.StatusBadRequest, "No milestones to update")
		return
	}

	setClauses = append(setClauses, "updated_at = NOW()")

	query := fmt.Sprintf(`
		UPDATE renewal_services SET %s
		WHERE id = $%d
		RETURNING %s
	`, strings.Join(setClauses, ", "), argIdx, serviceRetCols)
	args = append(args, id)

	var svc models.RenewalService
	if err := scanService(pool.QueryRow(ctx, query, args...), &svc); err != nil {
		log.Printf("Error updating service milestones %s: %v", id, err)
		JSONError(w, http.StatusNotFound, "Service not found")
		return
	}

	registration := h.lookupRegistration(ctx, svc.VehicleID)

	// Audit trail
	userID, _ := r.Context().Value(ctxkeys.UserID).(string)
	logActivity(pool, userID, "updated", "service", svc.ID, map[string]interface{}{
		"registration": registration, "completion": renewals.Completion(svc.Milestones()),
	})

	JSON(w, http.StatusOK, map[string]interface{}{
		"data":    enrichService(svc, registration),
		"message": "Milestones updated successfully",
	})
}

// ── UpdateStatus ───────────────────────────────────────────────

// UpdateStatus handles PATCH /api/services/{id}/status
// The overall status is authoritative: it is set here and never derived
// from the milestone flags.
func (h *ServiceHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		JSONError(w, http.StatusBadRequest, "Service ID is required")
		return
	}

	var req models.UpdateServiceStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		JSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error":   "Validation failed",
			"details": errs,
		})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	pool := h.db.GetPool()

	var svc models.RenewalService
	row := pool.QueryRow(ctx, `
		UPDATE renewal_services SET status = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING `+serviceRetCols,
		req.Status, id,
	)
	if err := scanService(row, &svc); err != nil {
		log.Printf("Error updating service status %s: %v", id, err)
		JSONError(w, http.StatusNotFound, "Service not found")
		return
	}

	registration := h.lookupRegistration(ctx, svc.VehicleID)

	// Audit trail
	userID, _ := r.Context().Value(ctxkeys.UserID).(string)
	logActivity(pool, userID, "updated", "service", svc.ID, map[string]interface{}{
		"registration": registration, "status": svc.Status,
	})

	JSON(w, http.StatusOK, map[string]interface{}{
		"data":    enrichService(svc, registration),
		"message": "Service status updated successfully",
	})
}

// ── Delete ─────────────────────────────────────────────────────

// Delete handles DELETE /api/services/{id}
func (h *ServiceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		JSONError(w, http.StatusBadRequest, "Service ID is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	pool := h.db.GetPool()

	tag, err := pool.Exec(ctx, "DELETE FROM renewal_services WHERE id = $1", id)
	if err != nil {
		log.Printf("Error deleting service %s: %v", id, err)
		JSONError(w, http.StatusInternalServerError, "Failed to delete service")
		return
	}

	if tag.RowsAffected() == 0 {
		JSONError(w, http.StatusNotFound, "Service not found")
		return
	}

	// Audit trail
	userID, _ := r.Context().Value(ctxkeys.UserID).(string)
	logActivity(pool, userID, "deleted", "service", id, nil)

	JSON(w, http.StatusOK, map[string]string{
		"message": "Service deleted successfully",
	})
}

// ── Helpers ────────────────────────────────────────────────────

func (h *ServiceHandler) fetchService(ctx context.Context, id string) (*models.RenewalService, string, error) {
	var svc models.RenewalService
	var registration string
	err := h.db.GetPool().QueryRow(ctx, fmt.Sprintf(`
		SELECT %s, v.registration
		FROM renewal_services s
		JOIN vehicles v ON s.vehicle_id = v.id
		WHERE s.id = $1
	`, serviceCols), id,
	).Scan(
		&svc.ID, &svc.VehicleID, &svc.DocumentType, &svc.Status,
		&svc.Agent, &svc.Amount, &svc.Notes,
		&svc.GovernmentFees, &svc.RTOApproval, &svc.Inspection, &svc.Certificate, &svc.DocumentDelivered,
		&svc.GovernmentFeesAt, &svc.RTOApprovalAt, &svc.InspectionAt, &svc.CertificateAt, &svc.DocumentDeliveredAt,
		&svc.DocumentReceivedAt,
		&svc.CreatedAt, &svc.UpdatedAt,
		&registration,
	)
	if err != nil {
		return nil, "", err
	}
	return &svc, registration, nil
}

func (h *ServiceHandler) lookupRegistration(ctx context.Context, vehicleID string) string {
	var registration string
	if err := h.db.GetPool().QueryRow(ctx,
		`SELECT registration FROM vehicles WHERE id = $1`, vehicleID,
	).Scan(&registration); err != nil {
		return ""
	}
	return registration
}
