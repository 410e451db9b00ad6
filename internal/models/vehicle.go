package models

import (
	"time"

	"fleetops-backend/internal/renewals"
)

// Vehicle represents a vehicle record in the database.
// The six document date fields hold the RAW strings received from their
// producers (manual entry, registry lookups) — formats vary, so parsing
// is deferred to the renewals engine at read time.
type Vehicle struct {
	ID           string `json:"id"`
	Registration string `json:"registration"` // VRN — unique per vehicle

	Make        *string `json:"make,omitempty"`
	Model       *string `json:"model,omitempty"`
	VehicleType string  `json:"vehicleType"` // e.g. "truck", "car", "bus"
	DriverID    *string `json:"driverId,omitempty"`

	RoadTax        string `json:"roadTax"`
	Fitness        string `json:"fitness"`
	Insurance      string `json:"insurance"`
	Pollution      string `json:"pollution"`
	StatePermit    string `json:"statePermit"`
	NationalPermit string `json:"nationalPermit"`

	LastUpdated string `json:"lastUpdated"` // informational, passed through unchanged
	Status      string `json:"status"`      // active, inactive, sold

	RCFileURL  string `json:"rcFileUrl"`
	RCFileName string `json:"rcFileName"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Documents bundles the six raw date strings for the renewals engine.
func (v *Vehicle) Documents() renewals.VehicleDocuments {
	return renewals.VehicleDocuments{
		RoadTax:        v.RoadTax,
		Fitness:        v.Fitness,
		Insurance:      v.Insurance,
		Pollution:      v.Pollution,
		StatePermit:    v.StatePermit,
		NationalPermit: v.NationalPermit,
	}
}

// VehicleWithStatus extends Vehicle with compliance fields that are
// COMPUTED on every read — never stored in the database.
type VehicleWithStatus struct {
	Vehicle

	Documents      []renewals.DocumentStatus `json:"documents"`
	EarliestExpiry *renewals.DocumentStatus  `json:"earliestExpiry,omitempty"`
	ExpiringCount  int                       `json:"expiringCount"` // docs within 30 days
	DriverName     *string                   `json:"driverName,omitempty"`
}

// ── Create / Update Requests ─────────────────────────────────────

// CreateVehicleRequest holds the fields for registering a new vehicle.
// Empty document dates default to the "Not available" sentinel.
type CreateVehicleRequest struct {
	Registration string  `json:"registration"`
	Make         *string `json:"make,omitempty"`
	Model        *string `json:"model,omitempty"`
	VehicleType  string  `json:"vehicleType,omitempty"`
	DriverID     *string `json:"driverId,omitempty"`

	RoadTax        string `json:"roadTax,omitempty"`
	Fitness        string `json:"fitness,omitempty"`
	Insurance      string `json:"insurance,omitempty"`
	Pollution      string `json:"pollution,omitempty"`
	StatePermit    string `json:"statePermit,omitempty"`
	NationalPermit string `json:"nationalPermit,omitempty"`

	LastUpdated string `json:"lastUpdated,omitempty"`
	Status      string `json:"status,omitempty"`

	RCFileURL  string `json:"rcFileUrl,omitempty"`
	RCFileName string `json:"rcFileName,omitempty"`
}

// UpdateVehicleRequest holds the fields that can be partially updated.
type UpdateVehicleRequest struct {
	Registration *string `json:"registration,omitempty"`
	Make         *string `json:"make,omitempty"`
	Model        *string `json:"model,omitempty"`
	VehicleType  *string `json:"vehicleType,omitempty"`
	DriverID     *string `json:"driverId,omitempty"`

	RoadTax        *string `json:"roadTax,omitempty"`
	Fitness        *string `json:"fitness,omitempty"`
	Insurance      *string `json:"insurance,omitempty"`
	Pollution      *string `json:"pollution,omitempty"`
	StatePermit    *string `json:"statePermit,omitempty"`
	NationalPermit *string `json:"nationalPermit,omitempty"`

	LastUpdated *string `json:"lastUpdated,omitempty"`
	Status      *string `json:"status,omitempty"`

	RCFileURL  *string `json:"rcFileUrl,omitempty"`
	RCFileName *string `json:"rcFileName,omitempty"`
}

// Validate checks if the create request contains valid data.
func (r *CreateVehicleRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if len(r.Registration) < 4 || len(r.Registration) > 20 {
		errors["registration"] = "Registration number must be between 4 and 20 characters"
	}
	if r.Status != "" && !ValidVehicleStatuses[r.Status] {
		errors["status"] = "Status must be 'active', 'inactive', or 'sold'"
	}

	return errors
}

// ValidVehicleStatuses lists the accepted vehicle lifecycle statuses.
var ValidVehicleStatuses = map[string]bool{
	"active":   true,
	"inactive": true,
	"sold":     true,
}
