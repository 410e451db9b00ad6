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
)

// ChallanHandler handles traffic fine HTTP requests.
type ChallanHandler struct {
	db database.Service
}

// NewChallanHandler creates a new ChallanHandler.
func NewChallanHandler(db database.Service) *ChallanHandler {
	return &ChallanHandler{db: db}
}

// ── Columns ────────────────────────────────────────────────────

const challanCols = `c.id, c.vehicle_id, c.challan_number, c.issued_on,
	c.amount, c.status, c.offense, c.location, c.paid_at,
	COALESCE(c.receipt_url, ''),
	c.created_at, c.updated_at`

const challanRetCols = `id, vehicle_id, challan_number, issued_on,
	amount, status, offense, location, paid_at,
	COALESCE(receipt_url, ''),
	created_at, updated_at`

// ── Scan Helpers ───────────────────────────────────────────────

func scanChallan(scanner interface {
	Scan(dest ...interface{}) error
}, c *models.Challan) error {
	return scanner.Scan(
		&c.ID, &c.VehicleID, &c.ChallanNumber, &c.IssuedOn,
		&c.Amount, &c.Status, &c.Offense, &c.Location, &c.PaidAt,
		&c.ReceiptURL,
		&c.CreatedAt, &c.UpdatedAt,
	)
}

// ── Create ─────────────────────────────────────────────────────

// Create handles POST /api/challans
func (h *ChallanHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateChallanRequest
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

	if req.Status == "" {
		req.Status = "unpaid"
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	pool := h.db.GetPool()

	var challan models.Challan
	row := pool.QueryRow(ctx, `
		INSERT INTO challans (
			vehicle_id, challan_number, issued_on, amount, status,
			offense, location, receipt_url
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING `+challanRetCols,
		req.VehicleID, req.ChallanNumber, req.IssuedOn, req.Amount, req.Status,
		req.Offense, req.Location, nilIfEmpty(req.ReceiptURL),
	)
	if err := scanChallan(row, &challan); err != nil {
		if isDuplicateKeyError(err) {
			JSONError(w, http.StatusConflict, "A challan with this number already exists")
			return
		}
		log.Printf("Error creating challan: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to create challan")
		return
	}

	// Audit trail
	userID, _ := r.Context().Value(ctxkeys.UserID).(string)
	logActivity(pool, userID, "created", "challan", challan.ID, map[string]interface{}{
		"challanNumber": challan.ChallanNumber, "amount": challan.Amount,
	})

	JSON(w, http.StatusCreated, map[string]interface{}{
		"data":    challan,
		"message": "Challan created successfully",
	})
}

// ── List ───────────────────────────────────────────────────────

// List handles GET /api/challans
func (h *ChallanHandler) List(w http.ResponseWriter, r *http.Request) {
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

	where := "WHERE 1=1"
	args := []interface{}{}
	argIdx := 1

	if status != "" {
		if !models.ValidChallanStatuses[status] {
			JSONError(w, http.StatusBadRequest, "Invalid status filter")
			return
		}
		where += fmt.Sprintf(" AND c.status = $%d", argIdx)
		args = append(args, status)
		argIdx++
	}
	if vehicleID != "" {
		where += fmt.Sprintf(" AND c.vehicle_id = $%d", argIdx)
		args = append(args, vehicleID)
		argIdx++
	}
	if search != "" {
		where += fmt.Sprintf(" AND (c.challan_number ILIKE $%d OR v.registration ILIKE $%d)", argIdx, argIdx)
		args = append(args, "%"+search+"%")
		argIdx++
	}

	countQuery := fmt.Sprintf(`
		SELECT COUNT(*) FROM challans c
		JOIN vehicles v ON c.vehicle_id = v.id
		%s
	`, where)
	var total int
	if err := pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		log.Printf("Error counting challans: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to fetch challans")
		return
	}

	query := fmt.Sprintf(`
		SELECT %s, v.registration
		FROM challans c
		JOIN vehicles v ON c.vehicle_id = v.id
		%s
		ORDER BY c.created_at DESC
		LIMIT $%d OFFSET $%d
	`, challanCols, where, argIdx, argIdx+1)
	args = append(args, limit, offset)

	rows, err := pool.Query(ctx, query, args...)
	if err != nil {
		log.Printf("Error querying challans: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to fetch challans")
		return
	}
	defer rows.Close()

	challans := []models.ChallanWithVehicle{}
	for rows.Next() {
		var c models.ChallanWithVehicle
		if err := rows.Scan(
			&c.ID, &c.VehicleID, &c.ChallanNumber, &c.IssuedOn,
			&c.Amount, &c.Status, &c.Offense, &c.Location, &c.PaidAt,
			&c.ReceiptURL,
			&c.CreatedAt, &c.UpdatedAt,
			&c.Registration,
		); err != nil {
			log.Printf("Error scanning challan: %v", err)
			continue
		}
		challans = append(challans, c)
	}

	JSON(w, http.StatusOK, PaginatedResponse{
		Data: challans,
		Pagination: PaginationMeta{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: int(math.Ceil(float64(total) / float64(limit))),
		},
	})
}

// ── GetByID ────────────────────────────────────────────────────

// GetByID handles GET /api/challans/{id}
func (h *ChallanHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		JSONError(w, http.StatusBadRequest, "Challan ID is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	pool := h.db.GetPool()

	var c models.ChallanWithVehicle
	err := pool.QueryRow(ctx, fmt.Sprintf(`
		SELECT %s, v.registration
		FROM challans c
		JOIN vehicles v ON c.vehicle_id = v.id
		WHERE c.id = $1
	`, challanCols), id,
	).Scan(
		&c.ID, &c.VehicleID, &c.ChallanNumber, &c.IssuedOn,
		&c.Amount, &c.Status, &c.Offense, &c.Location, &c.PaidAt,
		&c.ReceiptURL,
		&c.CreatedAt, &c.UpdatedAt,
		&c.Registration,
	)
	if err != nil {
		log.Printf("Error fetching challan %s: %v", id, err)
		JSONError(w, http.StatusNotFound, "Challan not found")
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"data": c,
	})
}

// ── Update ─────────────────────────────────────────────────────

// Update handles PUT /api/challans/{id}
// Marking a challan "paid" stamps paid_at unless the caller supplies one.
func (h *ChallanHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		JSONError(w, http.StatusBadRequest, "Challan ID is required")
		return
	}

	var req models.UpdateChallanRequest
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

	addField := func(col string, val interface{}) {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", col, argIdx))
		args = append(args, val)
		argIdx++
	}

	if req.ChallanNumber != nil {
		addField("challan_number", *req.ChallanNumber)
	}
	if req.IssuedOn != nil {
		addField("issued_on", *req.IssuedOn)
	}
	if req.Amount != nil {
		addField("amount", *req.Amount)
	}
	if req.Status != nil {
		if !models.ValidChallanStatuses[*req.Status] {
			JSONError(w, http.StatusUnprocessableEntity, "Status must be 'unpaid', 'paid', or 'disputed'")
			return
		}
		addField("status", *req.Status)
		if *req.Status == "paid" && req.PaidAt == nil {
			setClauses = append(setClauses, "paid_at = NOW()::text")
		}
	}
	if req.Offense != nil {
		addField("offense", *req.Offense)
	}
	if req.Location != nil {
		addField("location", *req.Location)
	}
	if req.PaidAt != nil {
		addField("paid_at", *req.PaidAt)
	}
	if req.ReceiptURL != nil {
		addField("receipt_url", nilIfEmpty(*req.ReceiptURL))
	}

	if len(setClauses) == 0 {
		JSONError(w, http.StatusBadRequest, "No fields to update")
		return
	}

	setClauses = append(setClauses, "updated_at = NOW()")

	query := fmt.Sprintf(`
		UPDATE challans SET %s
		WHERE id = $%d
		RETURNING %s
	`, strings.Join(setClauses, ", "), argIdx, challanRetCols)
	args = append(args, id)

	var challan models.Challan
	if err := scanChallan(pool.QueryRow(ctx, query, args...), &challan); err != nil {
		log.Printf("Error updating challan %s: %v", id, err)
		JSONError(w, http.StatusNotFound, "Challan not found")
		return
	}

	// Audit trail
	userID, _ := r.Context().Value(ctxkeys.UserID).(string)
	logActivity(pool, userID, "updated", "challan", challan.ID, map[string]interface{}{
		"challanNumber": challan.ChallanNumber, "status": challan.Status,
	})

	JSON(w, http.StatusOK, map[string]interface{}{
		"data":    challan,
		"message": "Challan updated successfully",
	})
}

// ── Delete ─────────────────────────────────────────────────────

// Delete handles DELETE /api/challans/{id}
func (h *ChallanHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		JSONError(w, http.StatusBadRequest, "Challan ID is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	pool := h.db.GetPool()

	tag, err := pool.Exec(ctx, "DELETE FROM challans WHERE id = $1", id)
	if err != nil {
		log.Printf("Error deleting challan %s: %v", id, err)
		JSONError(w, http.StatusInternalServerError, "Failed to delete challan")
		return
	}

	if tag.RowsAffected() == 0 {
		JSONError(w, http.StatusNotFound, "Challan not found")
		return
	}

	// Audit trail
	userID, _ := r.Context().Value(ctxkeys.UserID).(string)
	logActivity(pool, userID, "deleted", "challan", id, nil)

	JSON(w, http.StatusOK, map[string]string{
		"message": "Challan deleted successfully",
	})
}

// ── Summary ────────────────────────────────────────────────────

// Summary handles GET /api/challans/summary
// Returns aggregate fine exposure for the dashboard.
func (h *ChallanHandler) Summary(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	pool := h.db.GetPool()

	var s models.ChallanSummary
	err := pool.QueryRow(ctx, `
		SELECT
			COUNT(*)::int,
			COUNT(*) FILTER (WHERE status = 'unpaid')::int,
			COALESCE(SUM(amount), 0),
			COALESCE(SUM(amount) FILTER (WHERE status = 'unpaid'), 0),
			COUNT(*) FILTER (WHERE status = 'disputed')::int
		FROM challans
	`).Scan(&s.TotalCount, &s.UnpaidCount, &s.TotalAmount, &s.UnpaidAmount, &s.DisputedCount)
	if err != nil {
		log.Printf("Error fetching challan summary: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to fetch summary")
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"data": s,
	})
}

// ── Export ──────────────────────────────────────────────────────

// Export handles GET /api/challans/export — returns CSV
func (h *ChallanHandler) Export(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	pool := h.db.GetPool()

	rows, err := pool.Query(ctx, `
		SELECT v.registration, c.challan_number, c.issued_on, c.amount::text,
			c.status, COALESCE(c.offense, ''), COALESCE(c.location, ''),
			COALESCE(c.paid_at, '')
		FROM challans c
		JOIN vehicles v ON c.vehicle_id = v.id
		ORDER BY c.created_at DESC
	`)
	if err != nil {
		log.Printf("Error exporting challans: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to export")
		return
	}
	defer rows.Close()

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=challans.csv")

	// Write CSV header
	fmt.Fprintln(w, "Registration,Challan Number,Issued On,Amount,Status,Offense,Location,Paid At")

	for rows.Next() {
		var registration, number, issuedOn, amount, status, offense, location, paidAt string
		if err := rows.Scan(&registration, &number, &issuedOn, &amount, &status, &offense, &location, &paidAt); err != nil {
			continue
		}
		fmt.Fprintf(w, "%s,%s,%s,%s,%s,%s,%s,%s\n",
			csvEscape(registration), csvEscape(number), csvEscape(issuedOn), amount,
			status, csvEscape(offense), csvEscape(location), csvEscape(paidAt))
	}
}
