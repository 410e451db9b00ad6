package models

import "time"

// Challan represents a traffic fine issued against a vehicle.
// IssuedOn is kept as the raw producer string (government portals use
// the same mixed date conventions as the registry).
type Challan struct {
	ID            string   `json:"id"`
	VehicleID     string   `json:"vehicleId"`
	ChallanNumber string   `json:"challanNumber"`
	IssuedOn      string   `json:"issuedOn"`
	Amount        float64  `json:"amount"`
	Status        string   `json:"status"` // unpaid | paid | disputed
	Offense       *string  `json:"offense,omitempty"`
	Location      *string  `json:"location,omitempty"`
	PaidAt        *string  `json:"paidAt,omitempty"`
	ReceiptURL    string   `json:"receiptUrl"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// ChallanWithVehicle includes the vehicle registration for list views.
type ChallanWithVehicle struct {
	Challan
	Registration string `json:"registration"`
}

// ChallanSummary aggregates fine exposure for the dashboard.
type ChallanSummary struct {
	TotalCount    int     `json:"totalCount"`
	UnpaidCount   int     `json:"unpaidCount"`
	TotalAmount   float64 `json:"totalAmount"`
	UnpaidAmount  float64 `json:"unpaidAmount"`
	DisputedCount int     `json:"disputedCount"`
}

// ── Create / Update Requests ─────────────────────────────────────

// CreateChallanRequest records a new traffic fine.
type CreateChallanRequest struct {
	VehicleID     string  `json:"vehicleId"`
	ChallanNumber string  `json:"challanNumber"`
	IssuedOn      string  `json:"issuedOn"`
	Amount        float64 `json:"amount"`
	Status        string  `json:"status,omitempty"`
	Offense       *string `json:"offense,omitempty"`
	Location      *string `json:"location,omitempty"`
	ReceiptURL    string  `json:"receiptUrl,omitempty"`
}

// UpdateChallanRequest holds the fields that can be partially updated.
type UpdateChallanRequest struct {
	ChallanNumber *string  `json:"challanNumber,omitempty"`
	IssuedOn      *string  `json:"issuedOn,omitempty"`
	Amount        *float64 `json:"amount,omitempty"`
	Status        *string  `json:"status,omitempty"`
	Offense       *string  `json:"offense,omitempty"`
	Location      *string  `json:"location,omitempty"`
	PaidAt        *string  `json:"paidAt,omitempty"`
	ReceiptURL    *string  `json:"receiptUrl,omitempty"`
}

// ValidChallanStatuses lists the accepted challan statuses.
var ValidChallanStatuses = map[string]bool{
	"unpaid":   true,
	"paid":     true,
	"disputed": true,
}

// Validate checks if the create request contains valid data.
func (r *CreateChallanRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.VehicleID == "" {
		errors["vehicleId"] = "Vehicle is required"
	}
	if len(r.ChallanNumber) < 3 {
		errors["challanNumber"] = "Challan number is required (min 3 characters)"
	}
	if r.Amount < 0 {
		errors["amount"] = "Amount cannot be negative"
	}
	if r.Status != "" && !ValidChallanStatuses[r.Status] {
		errors["status"] = "Status must be 'unpaid', 'paid', or 'disputed'"
	}

	return errors
}
