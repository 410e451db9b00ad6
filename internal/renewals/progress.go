package renewals

import (
	"math"
	"time"
)

// ── Service Status Constants ─────────────────────────────────────
// The overall service status is authoritative and set by the back
// office; milestone states are derived from it, never the reverse.

const (
	ServicePending    = "pending"
	ServiceProcessing = "processing"
	ServiceCompleted  = "completed"
	ServiceCancelled  = "cancelled"
)

// ValidServiceStatuses lists the accepted overall statuses.
var ValidServiceStatuses = map[string]bool{
	ServicePending:    true,
	ServiceProcessing: true,
	ServiceCompleted:  true,
	ServiceCancelled:  true,
}

// ── Milestone State Constants ────────────────────────────────────

const (
	MilestonePending    = "pending"
	MilestoneInProgress = "in_progress"
	MilestoneCompleted  = "completed"
)

// MilestoneCount is the length of the renewal workflow.
const MilestoneCount = 5

// DeliverySLADays is the promised turnaround between receiving the
// renewed document from the RTO and delivering it to the customer.
const DeliverySLADays = 15

// Milestone kinds, in workflow order.
const (
	MilestoneGovernmentFees    = "government_fees"
	MilestoneRTOApproval       = "rto_approval"
	MilestoneInspection        = "inspection"
	MilestoneCertificate       = "certificate"
	MilestoneDocumentDelivered = "document_delivered"
)

// Milestones holds the five boolean completion flags of one renewal
// service, in workflow order. The flags are trusted as-is: the intended
// workflow never regresses a stage, but this package does not enforce it.
type Milestones struct {
	GovernmentFees    bool
	RTOApproval       bool
	Inspection        bool
	Certificate       bool
	DocumentDelivered bool
}

// flags returns the milestone booleans in fixed workflow order.
func (m Milestones) flags() [MilestoneCount]bool {
	return [MilestoneCount]bool{
		m.GovernmentFees,
		m.RTOApproval,
		m.Inspection,
		m.Certificate,
		m.DocumentDelivered,
	}
}

// Completion returns the overall percent complete, 0–100. Each milestone
// contributes exactly 20 points.
func Completion(m Milestones) int {
	done := 0
	for _, f := range m.flags() {
		if f {
			done++
		}
	}
	return int(math.Round(float64(done) / MilestoneCount * 100))
}

// MilestoneState derives the display state of a single milestone.
// Every incomplete milestone reads as in_progress while the parent
// service is processing — the engine does not infer which stage is
// currently active.
func MilestoneState(done bool, serviceStatus string) string {
	switch {
	case done:
		return MilestoneCompleted
	case serviceStatus == ServiceProcessing:
		return MilestoneInProgress
	default:
		return MilestonePending
	}
}

// ── Delivery Performance ─────────────────────────────────────────

// DeliveryPerformance reports how a completed service fared against the
// delivery SLA. Days is always non-negative; Early tells the direction.
type DeliveryPerformance struct {
	Days  int  `json:"days"`
	Early bool `json:"early"`
}

// EvaluateDelivery measures actual delivery against received-date + SLA.
// It returns nil unless the service is completed and both timestamps are
// present: an absent result means "not determinable", never "on time".
func EvaluateDelivery(receivedAt, deliveredAt *time.Time, serviceStatus string) *DeliveryPerformance {
	if serviceStatus != ServiceCompleted || receivedAt == nil || deliveredAt == nil {
		return nil
	}

	expected := truncateToDay(*receivedAt).AddDate(0, 0, DeliverySLADays)
	actual := truncateToDay(*deliveredAt)

	delta := expected.Sub(actual)
	days := int(math.Abs(math.Floor(delta.Hours() / 24)))

	return &DeliveryPerformance{Days: days, Early: delta > 0}
}
