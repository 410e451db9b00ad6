package renewals

import (
	"math"
	"time"
)

// ── Document Status Constants ────────────────────────────────────
// Status is always computed from (rawDate, today). It is never stored
// in the database.

const (
	StatusValid        = "valid"         // Expiry more than 30 days out (or unparseable)
	StatusExpiringSoon = "expiring_soon" // Expiry within 30 days
	StatusNotAvailable = "not_available" // Absent sentinel — nothing to track
)

// ExpiringSoonDays is the fixed per-document threshold. It is independent
// of the dashboard bucket windows below.
const ExpiringSoonDays = 30

// BucketWindows are the dashboard aggregation windows, in days.
// Bucket membership is cumulative ("within next N days"), not a
// disjoint partition: a document expiring in 5 days counts in all four.
var BucketWindows = []int{30, 90, 180, 365}

// ── Document Kinds ───────────────────────────────────────────────
// Fixed enumeration order; EarliestExpiry breaks ties by this order.

const (
	DocRoadTax        = "road_tax"
	DocFitness        = "fitness"
	DocInsurance      = "insurance"
	DocPollution      = "pollution"
	DocStatePermit    = "state_permit"
	DocNationalPermit = "national_permit"
)

// displayNames maps document kinds to human-readable names.
var displayNames = map[string]string{
	DocRoadTax:        "Road Tax",
	DocFitness:        "Fitness Certificate",
	DocInsurance:      "Insurance",
	DocPollution:      "Pollution Certificate",
	DocStatePermit:    "State Permit",
	DocNationalPermit: "National Permit",
}

// DisplayName returns the human-readable name for a document kind.
func DisplayName(kind string) string {
	if name, ok := displayNames[kind]; ok {
		return name
	}
	return "Document"
}

// ── Per-Document Computations ────────────────────────────────────

// DaysUntil computes the whole-day delta from today to the document's
// expiry. Both instants are reduced to midnight UTC calendar dates
// before subtracting, so neither hour-of-day nor timezone skew can
// produce an off-by-one. Negative means already expired;
// absent/unparseable dates yield an astronomically large positive
// value (the far-future sentinel).
func DaysUntil(rawDate string, today time.Time) int {
	expiry := ParseDate(rawDate)
	return int(math.Ceil(expiry.Sub(truncateToDay(today)).Hours() / 24))
}

// InRange reports whether the document expires within windowDays from
// today (inclusive on both ends). Absent dates are never in range — the
// sentinel's day delta dwarfs any window.
func InRange(rawDate string, today time.Time, windowDays int) bool {
	days := DaysUntil(rawDate, today)
	return days >= 0 && days <= windowDays
}

// ClassifyDocument derives the display status of a single document date.
func ClassifyDocument(rawDate string, today time.Time) string {
	if IsAbsent(rawDate) {
		return StatusNotAvailable
	}
	if InRange(rawDate, today, ExpiringSoonDays) {
		return StatusExpiringSoon
	}
	return StatusValid
}

// ── Vehicle-Level Computations ───────────────────────────────────

// VehicleDocuments holds a vehicle's six raw document date strings,
// exactly as received from the producer.
type VehicleDocuments struct {
	RoadTax        string
	Fitness        string
	Insurance      string
	Pollution      string
	StatePermit    string
	NationalPermit string
}

// DocumentStatus is the computed status of one document. Expiry carries
// the original raw string, unmodified.
type DocumentStatus struct {
	Type   string `json:"type"`
	Status string `json:"status"`
	Expiry string `json:"expiry"`
}

// entry pairs a document kind with its raw date.
type entry struct {
	kind string
	date string
}

// ordered returns the six documents in fixed enumeration order.
func (d VehicleDocuments) ordered() [6]entry {
	return [6]entry{
		{DocRoadTax, d.RoadTax},
		{DocFitness, d.Fitness},
		{DocInsurance, d.Insurance},
		{DocPollution, d.Pollution},
		{DocStatePermit, d.StatePermit},
		{DocNationalPermit, d.NationalPermit},
	}
}

// Statuses classifies all six documents.
func Statuses(d VehicleDocuments, today time.Time) []DocumentStatus {
	statuses := make([]DocumentStatus, 0, 6)
	for _, e := range d.ordered() {
		statuses = append(statuses, DocumentStatus{
			Type:   e.kind,
			Status: ClassifyDocument(e.date, today),
			Expiry: e.date,
		})
	}
	return statuses
}

// EarliestExpiry returns the non-absent document with the smallest day
// delta. Ties go to the first document in enumeration order, so the
// result is deterministic. ok is false when all six are absent.
func EarliestExpiry(d VehicleDocuments, today time.Time) (DocumentStatus, bool) {
	best := DocumentStatus{}
	bestDays := 0
	found := false

	for _, e := range d.ordered() {
		if IsAbsent(e.date) {
			continue
		}
		days := DaysUntil(e.date, today)
		if !found || days < bestDays {
			best = DocumentStatus{
				Type:   e.kind,
				Status: ClassifyDocument(e.date, today),
				Expiry: e.date,
			}
			bestDays = days
			found = true
		}
	}

	return best, found
}

// ExpiringInWindow reports whether ANY of the vehicle's six documents
// expires within windowDays. A vehicle with one document expiring in 10
// days and five absent still counts.
func ExpiringInWindow(d VehicleDocuments, today time.Time, windowDays int) bool {
	for _, e := range d.ordered() {
		if InRange(e.date, today, windowDays) {
			return true
		}
	}
	return false
}

// CountBuckets tallies, for each dashboard window, how many vehicles
// have at least one document expiring inside it. Each window is an
// independent scan — the buckets deliberately overlap.
func CountBuckets(vehicles []VehicleDocuments, today time.Time) map[int]int {
	counts := make(map[int]int, len(BucketWindows))
	for _, window := range BucketWindows {
		counts[window] = 0
		for _, v := range vehicles {
			if ExpiringInWindow(v, today, window) {
				counts[window]++
			}
		}
	}
	return counts
}
