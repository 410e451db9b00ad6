package models

import "time"

// Driver represents a driver (employee) record in the database.
// LicenseExpiry is a raw date string classified by the renewals engine,
// the same way vehicle documents are.
type Driver struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Mobile        string    `json:"mobile"`
	LicenseNumber string    `json:"licenseNumber"`
	LicenseExpiry string    `json:"licenseExpiry"`
	JoiningDate   *string   `json:"joiningDate,omitempty"`
	PhotoURL      *string   `json:"photoUrl,omitempty"`
	Status        string    `json:"status"` // active, inactive, exited
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// DriverWithStatus extends Driver with computed license status and the
// registrations of vehicles currently assigned to them.
type DriverWithStatus struct {
	Driver
	LicenseStatus   string   `json:"licenseStatus"` // valid | expiring_soon | not_available
	LicenseDaysLeft *int     `json:"licenseDaysLeft,omitempty"`
	Vehicles        []string `json:"vehicles"`
}

// ── Create / Update Requests ─────────────────────────────────────

// CreateDriverRequest holds the fields needed to create a driver.
type CreateDriverRequest struct {
	Name          string  `json:"name"`
	Mobile        string  `json:"mobile"`
	LicenseNumber string  `json:"licenseNumber"`
	LicenseExpiry string  `json:"licenseExpiry,omitempty"`
	JoiningDate   *string `json:"joiningDate,omitempty"`
	PhotoURL      *string `json:"photoUrl,omitempty"`
	Status        string  `json:"status,omitempty"`
}

// UpdateDriverRequest holds the fields that can be updated.
type UpdateDriverRequest struct {
	Name          *string `json:"name,omitempty"`
	Mobile        *string `json:"mobile,omitempty"`
	LicenseNumber *string `json:"licenseNumber,omitempty"`
	LicenseExpiry *string `json:"licenseExpiry,omitempty"`
	JoiningDate   *string `json:"joiningDate,omitempty"`
	PhotoURL      *string `json:"photoUrl,omitempty"`
	Status        *string `json:"status,omitempty"`
}

// Validate checks if the create request contains valid data.
func (r *CreateDriverRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if len(r.Name) < 2 || len(r.Name) > 100 {
		errors["name"] = "Name must be between 2 and 100 characters"
	}
	if len(r.LicenseNumber) < 4 {
		errors["licenseNumber"] = "License number is required (min 4 characters)"
	}

	return errors
}
