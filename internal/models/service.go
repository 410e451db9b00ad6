package models

import (
	"time"

	"fleetops-backend/internal/renewals"
)

// RenewalService represents one tracked renewal workflow for a vehicle
// document: government fees, RTO approval, inspection, certificate and
// document delivery. The overall status is authoritative (set by the
// back office); milestone states and completion are derived on read.
type RenewalService struct {
	ID           string `json:"id"`
	VehicleID    string `json:"vehicleId"`
	DocumentType string `json:"documentType"` // which renewal this service covers
	Status       string `json:"status"`       // pending | processing | completed | cancelled

	Agent  *string  `json:"agent,omitempty"`
	Amount *float64 `json:"amount,omitempty"`
	Notes  *string  `json:"notes,omitempty"`

	GovernmentFees    bool `json:"governmentFees"`
	RTOApproval       bool `json:"rtoApproval"`
	Inspection        bool `json:"inspection"`
	Certificate       bool `json:"certificate"`
	DocumentDelivered bool `json:"documentDelivered"`

	// Milestone timestamps are display-only; completion is derived from
	// the boolean flags, never from these.
	GovernmentFeesAt    *time.Time `json:"governmentFeesAt,omitempty"`
	RTOApprovalAt       *time.Time `json:"rtoApprovalAt,omitempty"`
	InspectionAt        *time.Time `json:"inspectionAt,omitempty"`
	CertificateAt       *time.Time `json:"certificateAt,omitempty"`
	DocumentDeliveredAt *time.Time `json:"documentDeliveredAt,omitempty"`

	DocumentReceivedAt *time.Time `json:"documentReceivedAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Milestones bundles the five flags for the renewals engine.
func (s *RenewalService) Milestones() renewals.Milestones {
	return renewals.Milestones{
		GovernmentFees:    s.GovernmentFees,
		RTOApproval:       s.RTOApproval,
		Inspection:        s.Inspection,
		Certificate:       s.Certificate,
		DocumentDelivered: s.DocumentDelivered,
	}
}

// MilestoneStep is one entry in a service's rendered timeline.
type MilestoneStep struct {
	Name  string     `json:"name"`
	State string     `json:"state"` // pending | in_progress | completed
	At    *time.Time `json:"at,omitempty"`
}

// ServiceWithProgress extends RenewalService with derived fields,
// computed fresh on every read.
type ServiceWithProgress struct {
	RenewalService

	Registration string                        `json:"registration"`
	Completion   int                           `json:"completion"` // 0–100 in 20% steps
	Timeline     []MilestoneStep               `json:"timeline"`
	Delivery     *renewals.DeliveryPerformance `json:"delivery,omitempty"`
}

// ── Create / Update Requests ─────────────────────────────────────

// CreateServiceRequest opens a renewal service for a vehicle.
type CreateServiceRequest struct {
	VehicleID    string   `json:"vehicleId"`
	DocumentType string   `json:"documentType"`
	Agent        *string  `json:"agent,omitempty"`
	Amount       *float64 `json:"amount,omitempty"`
	Notes        *string  `json:"notes,omitempty"`
}

// Validate checks if the create request contains valid data.
func (r *CreateServiceRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.VehicleID == "" {
		errors["vehicleId"] = "Vehicle is required"
	}
	if r.DocumentType == "" {
		errors["documentType"] = "Document type is required"
	}

	return errors
}

// UpdateMilestonesRequest flips milestone flags. A provided true flag
// also stamps the matching timestamp server-side.
type UpdateMilestonesRequest struct {
	GovernmentFees    *bool `json:"governmentFees,omitempty"`
	RTOApproval       *bool `json:"rtoApproval,omitempty"`
	Inspection        *bool `json:"inspection,omitempty"`
	Certificate       *bool `json:"certificate,omitempty"`
	DocumentDelivered *bool `json:"documentDelivered,omitempty"`

	DocumentReceivedAt *time.Time `json:"documentReceivedAt,omitempty"`
}

// UpdateServiceStatusRequest sets the authoritative overall status.
type UpdateServiceStatusRequest struct {
	Status string `json:"status"`
}

// Validate checks that the status is one of the allowed values.
func (r *UpdateServiceStatusRequest) Validate() map[string]string {
	errors := map[string]string{}
	if !renewals.ValidServiceStatuses[r.Status] {
		errors["status"] = "Status must be 'pending', 'processing', 'completed', or 'cancelled'"
	}
	return errors
}
