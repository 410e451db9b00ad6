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

// VehicleHandler handles vehicle-related HTTP requests.
type VehicleHandler struct {
	db database.Service
}

// NewVehicleHandler creates a new VehicleHandler.
func NewVehicleHandler(db database.Service) *VehicleHandler {
	return &VehicleHandler{db: db}
}

// ── Columns ────────────────────────────────────────────────────
// Central column lists keep Create/GetByID/List all in sync.
// Aliased version (for SELECT with FROM clause):
const vehicleCols = `v.id, v.registration, v.make, v.model, v.vehicle_type,
	v.driver_id, v.road_tax, v.fitness, v.insurance, v.pollution,
	v.state_permit, v.national_permit, v.last_updated, v.status,
	COALESCE(v.rc_file_url, ''), COALESCE(v.rc_file_name, ''),
	v.created_at, v.updated_at`

// Unaliased version (for INSERT/UPDATE RETURNING):
const vehicleRetCols = `id, registration, make, model, vehicle_type,
	driver_id, road_tax, fitness, insurance, pollution,
	state_permit, national_permit, last_updated, status,
	COALESCE(rc_file_url, ''), COALESCE(rc_file_name, ''),
	created_at, updated_at`

// ── Scan Helpers ───────────────────────────────────────────────

func scanVehicle(scanner interface {
	Scan(dest ...interface{}) error
}, v *models.Vehicle) error {
	return scanner.Scan(
		&v.ID, &v.Registration, &v.Make, &v.Model, &v.VehicleType,
		&v.DriverID, &v.RoadTax, &v.Fitness, &v.Insurance, &v.Pollution,
		&v.StatePermit, &v.NationalPermit, &v.LastUpdated, &v.Status,
		&v.RCFileURL, &v.RCFileName,
		&v.CreatedAt, &v.UpdatedAt,
	)
}

// orNotAvailable normalizes an empty or whitespace-only date string to
// the "Not available" sentinel before it reaches the database.
func orNotAvailable(s string) string {
	if strings.TrimSpace(s) == "" {
		return renewals.NotAvailable
	}
	return s
}

// enrichVehicle attaches the computed renewal fields. The reference
// date is passed in so a whole list renders against the same instant.
func enrichVehicle(v models.Vehicle, driverName *string, today time.Time) models.VehicleWithStatus {
	docs := v.Documents()
	statuses := renewals.Statuses(docs, today)

	expiring := 0
	for _, ds := range statuses {
		if ds.Status == renewals.StatusExpiringSoon {
			expiring++
		}
	}

	out := models.VehicleWithStatus{
		Vehicle:       v,
		Documents:     statuses,
		ExpiringCount: expiring,
		DriverName:    driverName,
	}
	if earliest, ok := renewals.EarliestExpiry(docs, today); ok {
		out.EarliestExpiry = &earliest
	}
	return out
}

// ── Create ─────────────────────────────────────────────────────

// Create handles POST /api/vehicles
// Empty document dates are stored as the "Not available" sentinel so
// every read sees a consistent value.
func (h *VehicleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateVehicleRequest
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
		req.Status = "active"
	}
	if req.VehicleType == "" {
		req.VehicleType = "truck"
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	pool := h.db.GetPool()

	var vehicle models.Vehicle
	row := pool.QueryRow(ctx, `
		INSERT INTO vehicles (
			registration, make, model, vehicle_type, driver_id,
			road_tax, fitness, insurance, pollution,
			state_permit, national_permit, last_updated, status,
			rc_file_url, rc_file_name
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
		RETURNING `+vehicleRetCols,
		strings.ToUpper(strings.TrimSpace(req.Registration)),
		req.Make, req.Model, req.VehicleType, req.DriverID,
		orNotAvailable(req.RoadTax), orNotAvailable(req.Fitness),
		orNotAvailable(req.Insurance), orNotAvailable(req.Pollution),
		orNotAvailable(req.StatePermit), orNotAvailable(req.NationalPermit),
		req.LastUpdated, req.Status,
		nilIfEmpty(req.RCFileURL), nilIfEmpty(req.RCFileName),
	)
	if err := scanVehicle(row, &vehicle); err != nil {
		if isDuplicateKeyError(err) {
			JSONError(w, http.StatusConflict, "A vehicle with this registration already exists")
			return
		}
		log.Printf("Error creating vehicle: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to create vehicle")
		return
	}

	// Audit trail
	userID, _ := r.Context().Value(ctxkeys.UserID).(string)
	logActivity(pool, userID, "created", "vehicle", vehicle.ID, map[string]interface{}{
		"registration": vehicle.Registration,
	})

	JSON(w, http.StatusCreated, map[string]interface{}{
		"data":    enrichVehicle(vehicle, nil, time.Now()),
		"message": "Vehicle created successfully",
	})
}

// ── List ───────────────────────────────────────────────────────

// List handles GET /api/vehicles
// Renewal statuses are computed here rather than in SQL: the document
// dates are free-form producer strings, so only the parser can rank
// them. The expiring_in filter therefore applies after the fetch.
func (h *VehicleHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit < 1 || limit > 100 {
		limit = 20
	}

	search := q.Get("search")
	status := q.Get("status")
	vehicleType := q.Get("type")
	expiringIn, _ := strconv.Atoi(q.Get("expiring_in"))

	sortBy := q.Get("sort_by")
	sortOrder := q.Get("sort_order")

	// Whitelist allowed sort columns
	allowedSorts := map[string]string{
		"registration": "v.registration",
		"created_at":   "v.created_at",
		"updated_at":   "v.updated_at",
	}
	sortCol, ok := allowedSorts[sortBy]
	if !ok {
		sortCol = "v.registration"
	}
	if sortOrder != "desc" {
		sortOrder = "asc"
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	pool := h.db.GetPool()

	// Build dynamic WHERE clause
	where := "WHERE 1=1"
	args := []interface{}{}
	argIdx := 1

	if search != "" {
		where += fmt.Sprintf(" AND (v.registration ILIKE $%d OR COALESCE(v.make,'') ILIKE $%d OR COALESCE(v.model,'') ILIKE $%d)", argIdx, argIdx, argIdx)
		args = append(args, "%"+search+"%")
		argIdx++
	}
	if status != "" {
		where += fmt.Sprintf(" AND v.status = $%d", argIdx)
		args = append(args, status)
		argIdx++
	}
	if vehicleType != "" {
		where += fmt.Sprintf(" AND v.vehicle_type = $%d", argIdx)
		args = append(args, vehicleType)
		argIdx++
	}

	query := fmt.Sprintf(`
		SELECT %s, d.name AS driver_name
		FROM vehicles v
		LEFT JOIN drivers d ON v.driver_id = d.id
		%s
		ORDER BY %s %s
	`, vehicleCols, where, sortCol, sortOrder)

	rows, err := pool.Query(ctx, query, args...)
	if err != nil {
		log.Printf("Error querying vehicles: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to fetch vehicles")
		return
	}
	defer rows.Close()

	today := time.Now()
	all := []models.VehicleWithStatus{}
	for rows.Next() {
		var v models.Vehicle
		var driverName *string
		if err := rows.Scan(
			&v.ID, &v.Registration, &v.Make, &v.Model, &v.VehicleType,
			&v.DriverID, &v.RoadTax, &v.Fitness, &v.Insurance, &v.Pollution,
			&v.StatePermit, &v.NationalPermit, &v.LastUpdated, &v.Status,
			&v.RCFileURL, &v.RCFileName,
			&v.CreatedAt, &v.UpdatedAt,
			&driverName,
		); err != nil {
			log.Printf("Error scanning vehicle: %v", err)
			continue
		}

		if expiringIn > 0 && !renewals.ExpiringInWindow(v.Documents(), today, expiringIn) {
			continue
		}
		all = append(all, enrichVehicle(v, driverName, today))
	}

	total := len(all)
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	JSON(w, http.StatusOK, PaginatedResponse{
		Data: all[start:end],
		Pagination: PaginationMeta{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: int(math.Ceil(float64(total) / float64(limit))),
		},
	})
}

// ── GetByID ────────────────────────────────────────────────────

// GetByID handles GET /api/vehicles/{id}
func (h *VehicleHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		JSONError(w, http.StatusBadRequest, "Vehicle ID is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	pool := h.db.GetPool()

	var v models.Vehicle
	var driverName *string
	err := pool.QueryRow(ctx, fmt.Sprintf(`
		SELECT %s, d.name AS driver_name
		FROM vehicles v
		LEFT JOIN drivers d ON v.driver_id = d.id
		WHERE v.id = $1
	`, vehicleCols), id,
	).Scan(
		&v.ID, &v.Registration, &v.Make, &v.Model, &v.VehicleType,
		&v.DriverID, &v.RoadTax, &v.Fitness, &v.Insurance, &v.Pollution,
		&v.StatePermit, &v.NationalPermit, &v.LastUpdated, &v.Status,
		&v.RCFileURL, &v.RCFileName,
		&v.CreatedAt, &v.UpdatedAt,
		&driverName,
	)
	if err != nil {
		log.Printf("Error fetching vehicle %s: %v", id, err)
		JSONError(w, http.StatusNotFound, "Vehicle not found")
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"data": enrichVehicle(v, driverName, time.Now()),
	})
}

// ── Update ─────────────────────────────────────────────────────

// Update handles PUT /api/vehicles/{id}
func (h *VehicleHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		JSONError(w, http.StatusBadRequest, "Vehicle ID is required")
		return
	}

	var req models.UpdateVehicleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	pool := h.db.GetPool()

	// Build dynamic SET clause: only update provided fields
	setClauses := []string{}
	args := []interface{}{}
	argIdx := 1

	addField := func(col string, val interface{}) {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", col, argIdx))
		args = append(args, val)
		argIdx++
	}

	if req.Registration != nil {
		addField("registration", strings.ToUpper(strings.TrimSpace(*req.Registration)))
	}
	if req.Make != nil {
		addField("make", *req.Make)
	}
	if req.Model != nil {
		addField("model", *req.Model)
	}
	if req.VehicleType != nil {
		addField("vehicle_type", *req.VehicleType)
	}
	if req.DriverID != nil {
		addField("driver_id", nilIfEmpty(*req.DriverID))
	}
	if req.RoadTax != nil {
		addField("road_tax", orNotAvailable(*req.RoadTax))
	}
	if req.Fitness != nil {
		addField("fitness", orNotAvailable(*req.Fitness))
	}
	if req.Insurance != nil {
		addField("insurance", orNotAvailable(*req.Insurance))
	}
	if req.Pollution != nil {
		addField("pollution", orNotAvailable(*req.Pollution))
	}
	if req.StatePermit != nil {
		addField("state_permit", orNotAvailable(*req.StatePermit))
	}
	if req.NationalPermit != nil {
		addField("national_permit", orNotAvailable(*req.NationalPermit))
	}
	if req.LastUpdated != nil {
		addField("last_updated", *req.LastUpdated)
	}
	if req.Status != nil {
		if !models.ValidVehicleStatuses[*req.Status] {
			JSONError(w, http.StatusUnprocessableEntity, "Status must be 'active', 'inactive', or 'sold'")
			return
		}
		addField("status", *req.Status)
	}
	if req.RCFileURL != nil {
		addField("rc_file_url", nilIfEmpty(*req.RCFileURL))
	}
	if req.RCFileName != nil {
		addField("rc_file_name", nilIfEmpty(*req.RCFileName))
	}

	if len(setClauses) == 0 {
		JSONError(w, http.StatusBadRequest, "No fields to update")
		return
	}

	setClauses = append(setClauses, "updated_at = NOW()")

	query := fmt.Sprintf(`
		UPDATE vehicles SET %s
		WHERE id = $%d
		RETURNING %s
	`, strings.Join(setClauses, ", "), argIdx, vehicleRetCols)
	args = append(args, id)

	var vehicle models.Vehicle
	if err := scanVehicle(pool.QueryRow(ctx, query, args...), &vehicle); err != nil {
		if isDuplicateKeyError(err) {
			JSONError(w, http.StatusConflict, "A vehicle with this registration already exists")
			return
		}
		log.Printf("Error updating vehicle %s: %v", id, err)
		JSONError(w, http.StatusNotFound, "Vehicle not found")
		return
	}

	// Audit trail
	userID, _ := r.Context().Value(ctxkeys.UserID).(string)
	logActivity(pool, userID, "updated", "vehicle", vehicle.ID, map[string]interface{}{
		"registration": vehicle.Registration,
	})

	JSON(w, http.StatusOK, map[string]interface{}{
		"data":    enrichVehicle(vehicle, nil, time.Now()),
		"message": "Vehicle updated successfully",
	})
}

// ── Delete ─────────────────────────────────────────────────────

// Delete handles DELETE /api/vehicles/{id}
func (h *VehicleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		JSONError(w, http.StatusBadRequest, "Vehicle ID is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	pool := h.db.GetPool()

	tag, err := pool.Exec(ctx, "DELETE FROM vehicles WHERE id = $1", id)
	if err != nil {
		log.Printf("Error deleting vehicle %s: %v", id, err)
		JSONError(w, http.StatusInternalServerError, "Failed to delete vehicle")
		return
	}

	if tag.RowsAffected() == 0 {
		JSONError(w, http.StatusNotFound, "Vehicle not found")
		return
	}

	// Audit trail
	userID, _ := r.Context().Value(ctxkeys.UserID).(string)
	logActivity(pool, userID, "deleted", "vehicle", id, nil)

	JSON(w, http.StatusOK, map[string]string{
		"message": "Vehicle deleted successfully",
	})
}

// ── BatchDelete ────────────────────────────────────────────────

// BatchDelete handles POST /api/vehicles/batch-delete
// Accepts { "ids": ["uuid1", "uuid2", ...] } and deletes all matching vehicles.
func (h *VehicleHandler) BatchDelete(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDs []string `json:"ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if len(req.IDs) == 0 {
		JSONError(w, http.StatusBadRequest, "No vehicle IDs provided")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	pool := h.db.GetPool()

	tag, err := pool.Exec(ctx, "DELETE FROM vehicles WHERE id = ANY($1::uuid[])", req.IDs)
	if err != nil {
		log.Printf("Error batch deleting vehicles: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to delete vehicles")
		return
	}

	// Audit trail
	userID, _ := r.Context().Value(ctxkeys.UserID).(string)
	for _, id := range req.IDs {
		logActivity(pool, userID, "deleted", "vehicle", id, nil)
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"message": fmt.Sprintf("%d vehicle(s) deleted successfully", tag.RowsAffected()),
		"deleted": tag.RowsAffected(),
	})
}

// ── Export ──────────────────────────────────────────────────────

// Export handles GET /api/vehicles/export — returns CSV
// Statuses are recomputed per row with the same reference date.
func (h *VehicleHandler) Export(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	pool := h.db.GetPool()

	rows, err := pool.Query(ctx, fmt.Sprintf(`
		SELECT %s, d.name AS driver_name
		FROM vehicles v
		LEFT JOIN drivers d ON v.driver_id = d.id
		ORDER BY v.registration ASC
	`, vehicleCols))
	if err != nil {
		log.Printf("Error exporting vehicles: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to export")
		return
	}
	defer rows.Close()

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=vehicles.csv")

	// Write CSV header
	fmt.Fprintln(w, "Registration,Make,Model,Type,Driver,Road Tax,Fitness,Insurance,Pollution,State Permit,National Permit,Status,Earliest Expiry,Days Left")

	today := time.Now()
	for rows.Next() {
		var v models.Vehicle
		var driverName *string
		if err := rows.Scan(
			&v.ID, &v.Registration, &v.Make, &v.Model, &v.VehicleType,
			&v.DriverID, &v.RoadTax, &v.Fitness, &v.Insurance, &v.Pollution,
			&v.StatePermit, &v.NationalPermit, &v.LastUpdated, &v.Status,
			&v.RCFileURL, &v.RCFileName,
			&v.CreatedAt, &v.UpdatedAt,
			&driverName,
		); err != nil {
			continue
		}

		earliestCol, daysLeft := "", ""
		if earliest, ok := renewals.EarliestExpiry(v.Documents(), today); ok {
			earliestCol = earliest.Expiry + " (" + renewals.DisplayName(earliest.Type) + ")"
			daysLeft = strconv.Itoa(renewals.DaysUntil(earliest.Expiry, today))
		}

		fmt.Fprintf(w, "%s,%s,%s,%s,%s,%s,%s,%s,%s,%s,%s,%s,%s,%s\n",
			csvEscape(v.Registration), csvEscape(strDeref(v.Make)), csvEscape(strDeref(v.Model)),
			v.VehicleType, csvEscape(strDeref(driverName)),
			csvEscape(v.RoadTax), csvEscape(v.Fitness), csvEscape(v.Insurance),
			csvEscape(v.Pollution), csvEscape(v.StatePermit), csvEscape(v.NationalPermit),
			v.Status, csvEscape(earliestCol), daysLeft)
	}
}

// strDeref returns the string value or "" for a nil pointer.
func strDeref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
