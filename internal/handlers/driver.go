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

// DriverHandler handles driver-related HTTP requests.
type DriverHandler struct {
	db database.Service
}

// NewDriverHandler creates a new DriverHandler.
func NewDriverHandler(db database.Service) *DriverHandler {
	return &DriverHandler{db: db}
}

// ── Columns ────────────────────────────────────────────────────

const driverCols = `d.id, d.name, d.mobile, d.license_number, d.license_expiry,
	d.joining_date, d.photo_url, d.status,
	d.created_at, d.updated_at`

const driverRetCols = `id, name, mobile, license_number, license_expiry,
	joining_date, photo_url, status,
	created_at, updated_at`

// ── Scan Helpers ───────────────────────────────────────────────

func scanDriver(scanner interface {
	Scan(dest ...interface{}) error
}, d *models.Driver) error {
	return scanner.Scan(
		&d.ID, &d.Name, &d.Mobile, &d.LicenseNumber, &d.LicenseExpiry,
		&d.JoiningDate, &d.PhotoURL, &d.Status,
		&d.CreatedAt, &d.UpdatedAt,
	)
}

// enrichDriver classifies the license the same way vehicle documents
// are classified.
func enrichDriver(d models.Driver, vehicles []string, today time.Time) models.DriverWithStatus {
	out := models.DriverWithStatus{
		Driver:        d,
		LicenseStatus: renewals.ClassifyDocument(d.LicenseExpiry, today),
		Vehicles:      vehicles,
	}
	if out.Vehicles == nil {
		out.Vehicles = []string{}
	}
	if out.LicenseStatus != renewals.StatusNotAvailable {
		days := renewals.DaysUntil(d.LicenseExpiry, today)
		out.LicenseDaysLeft = &days
	}
	return out
}

// ── Create ─────────────────────────────────────────────────────

// Create handles POST /api/drivers
func (h *DriverHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateDriverRequest
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

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	pool := h.db.GetPool()

	var driver models.Driver
	row := pool.QueryRow(ctx, `
		INSERT INTO drivers (name, mobile, license_number, license_expiry, joining_date, photo_url, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING `+driverRetCols,
		req.Name, req.Mobile, req.LicenseNumber, orNotAvailable(req.LicenseExpiry),
		req.JoiningDate, req.PhotoURL, req.Status,
	)
	if err := scanDriver(row, &driver); err != nil {
		if isDuplicateKeyError(err) {
			JSONError(w, http.StatusConflict, "A driver with this license number already exists")
			return
		}
		log.Printf("Error creating driver: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to create driver")
		return
	}

	// Audit trail
	userID, _ := r.Context().Value(ctxkeys.UserID).(string)
	logActivity(pool, userID, "created", "driver", driver.ID, map[string]interface{}{
		"name": driver.Name,
	})

	JSON(w, http.StatusCreated, map[string]interface{}{
		"data":    enrichDriver(driver, nil, time.Now()),
		"message": "Driver created successfully",
	})
}

// ── List ───────────────────────────────────────────────────────

// List handles GET /api/drivers
func (h *DriverHandler) List(w http.ResponseWriter, r *http.Request) {
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

	search := q.Get("search")
	status := q.Get("status")

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	pool := h.db.GetPool()

	where := "WHERE 1=1"
	args := []interface{}{}
	argIdx := 1

	if search != "" {
		where += fmt.Sprintf(" AND (d.name ILIKE $%d OR d.license_number ILIKE $%d)", argIdx, argIdx)
		args = append(args, "%"+search+"%")
		argIdx++
	}
	if status != "" {
		where += fmt.Sprintf(" AND d.status = $%d", argIdx)
		args = append(args, status)
		argIdx++
	}

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM drivers d %s`, where)
	var total int
	if err := pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		log.Printf("Error counting drivers: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to fetch drivers")
		return
	}

	query := fmt.Sprintf(`
		SELECT %s,
			COALESCE(array_agg(v.registration) FILTER (WHERE v.id IS NOT NULL), '{}')
		FROM drivers d
		LEFT JOIN vehicles v ON v.driver_id = d.id
		%s
		GROUP BY d.id
		ORDER BY d.name ASC
		LIMIT $%d OFFSET $%d
	`, driverCols, where, argIdx, argIdx+1)
	args = append(args, limit, offset)

	rows, err := pool.Query(ctx, query, args...)
	if err != nil {
		log.Printf("Error querying drivers: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to fetch drivers")
		return
	}
	defer rows.Close()

	today := time.Now()
	drivers := []models.DriverWithStatus{}
	for rows.Next() {
		var d models.Driver
		var vehicles []string
		if err := rows.Scan(
			&d.ID, &d.Name, &d.Mobile, &d.LicenseNumber, &d.LicenseExpiry,
			&d.JoiningDate, &d.PhotoURL, &d.Status,
			&d.CreatedAt, &d.UpdatedAt,
			&vehicles,
		); err != nil {
			log.Printf("Error scanning driver: %v", err)
			continue
		}
		drivers = append(drivers, enrichDriver(d, vehicles, today))
	}

	JSON(w, http.StatusOK, PaginatedResponse{
		Data: drivers,
		Pagination: PaginationMeta{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: int(math.Ceil(float64(total) / float64(limit))),
		},
	})
}

// ── GetByID ────────────────────────────────────────────────────

// GetByID handles GET /api/drivers/{id}
func (h *DriverHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		JSONError(w, http.StatusBadRequest, "Driver ID is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	pool := h.db.GetPool()

	var d models.Driver
	var vehicles []string
	err := pool.QueryRow(ctx, fmt.Sprintf(`
		SELECT %s,
			COALESCE(array_agg(v.registration) FILTER (WHERE v.id IS NOT NULL), '{}')
		FROM drivers d
		LEFT JOIN vehicles v ON v.driver_id = d.id
		WHERE d.id = $1
		GROUP BY d.id
	`, driverCols), id,
	).Scan(
		&d.ID, &d.Name, &d.Mobile, &d.LicenseNumber, &d.LicenseExpiry,
		&d.JoiningDate, &d.PhotoURL, &d.Status,
		&d.CreatedAt, &d.UpdatedAt,
		&vehicles,
	)
	if err != nil {
		log.Printf("Error fetching driver %s: %v", id, err)
		JSONError(w, http.StatusNotFound, "Driver not found")
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"data": enrichDriver(d, vehicles, time.Now()),
	})
}

// ── Update ─────────────────────────────────────────────────────

// Update handles PUT /api/drivers/{id}
func (h *DriverHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		JSONError(w, http.StatusBadRequest, "Driver ID is required")
		return
	}

	var req models.UpdateDriverRequest
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

	if req.Name != nil {
		addField("name", *req.Name)
	}
	if req.Mobile != nil {
		addField("mobile", *req.Mobile)
	}
	if req.LicenseNumber != nil {
		addField("license_number", *req.LicenseNumber)
	}
	if req.LicenseExpiry != nil {
		addField("license_expiry", orNotAvailable(*req.LicenseExpiry))
	}
	if req.JoiningDate != nil {
		addField("joining_date", *req.JoiningDate)
	}
	if req.PhotoURL != nil {
		addField("photo_url", *req.PhotoURL)
	}
	if req.Status != nil {
		addField("status", *req.Status)
	}

	if len(setClauses) == 0 {
		JSONError(w, http.StatusBadRequest, "No fields to update")
		return
	}

	setClauses = append(setClauses, "updated_at = NOW()")

	query := fmt.Sprintf(`
		UPDATE drivers SET %s
		WHERE id = $%d
		RETURNING %s
	`, strings.Join(setClauses, ", "), argIdx, driverRetCols)
	args = append(args, id)

	var driver models.Driver
	if err := scanDriver(pool.QueryRow(ctx, query, args...), &driver); err != nil {
		log.Printf("Error updating driver %s: %v", id, err)
		JSONError(w, http.StatusNotFound, "Driver not found")
		return
	}

	// Audit trail
	userID, _ := r.Context().Value(ctxkeys.UserID).(string)
	logActivity(pool, userID, "updated", "driver", driver.ID, map[string]interface{}{
		"name": driver.Name,
	})

	JSON(w, http.StatusOK, map[string]interface{}{
		"data":    enrichDriver(driver, nil, time.Now()),
		"message": "Driver updated successfully",
	})
}

// ── Delete ─────────────────────────────────────────────────────

// Delete handles DELETE /api/drivers/{id}
// Vehicles assigned to the driver are unassigned, not deleted.
func (h *DriverHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		JSONError(w, http.StatusBadRequest, "Driver ID is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	pool := h.db.GetPool()

	tag, err := pool.Exec(ctx, "DELETE FROM drivers WHERE id = $1", id)
	if err != nil {
		log.Printf("Error deleting driver %s: %v", id, err)
		JSONError(w, http.StatusInternalServerError, "Failed to delete driver")
		return
	}

	if tag.RowsAffected() == 0 {
		JSONError(w, http.StatusNotFound, "Driver not found")
		return
	}

	// Audit trail
	userID, _ := r.Context().Value(ctxkeys.UserID).(string)
	logActivity(pool, userID, "deleted", "driver", id, nil)

	JSON(w, http.StatusOK, map[string]string{
		"message": "Driver deleted successfully",
	})
}

// ── Export ──────────────────────────────────────────────────────

// Export handles GET /api/drivers/export — returns CSV
func (h *DriverHandler) Export(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	pool := h.db.GetPool()

	rows, err := pool.Query(ctx, `
		SELECT d.name, d.mobile, d.license_number, d.license_expiry,
			COALESCE(d.joining_date, ''), d.status
		FROM drivers d
		ORDER BY d.name ASC
	`)
	if err != nil {
		log.Printf("Error exporting drivers: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to export")
		return
	}
	defer rows.Close()

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=drivers.csv")

	// Write CSV header
	fmt.Fprintln(w, "Name,Mobile,License Number,License Expiry,License Status,Joining Date,Status")

	today := time.Now()
	for rows.Next() {
		var name, mobile, licenseNumber, licenseExpiry, joiningDate, status string
		if err := rows.Scan(&name, &mobile, &licenseNumber, &licenseExpiry, &joiningDate, &status); err != nil {
			continue
		}
		fmt.Fprintf(w, "%s,%s,%s,%s,%s,%s,%s\n",
			csvEscape(name), csvEscape(mobile), csvEscape(licenseNumber),
			csvEscape(licenseExpiry), renewals.ClassifyDocument(licenseExpiry, today),
			joiningDate, status)
	}
}
