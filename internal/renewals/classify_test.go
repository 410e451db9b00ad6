package renewals

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var jan1 = time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

func TestDaysUntil(t *testing.T) {
	assert.Equal(t, 14, DaysUntil("15-01-2025", jan1))
	assert.Equal(t, 0, DaysUntil("01-01-2025", jan1))
	assert.Equal(t, -11, DaysUntil("21-12-2024", jan1))
}

func TestDaysUntilIgnoresTimeOfDay(t *testing.T) {
	lateEvening := time.Date(2025, time.January, 1, 23, 45, 0, 0, time.UTC)

	assert.Equal(t, 14, DaysUntil("15-01-2025", lateEvening))
}

func TestDaysUntilNonUTCToday(t *testing.T) {
	// Callers pass time.Now() in the server's local zone. The calendar
	// date is what matters, not the zone offset.
	ist := time.FixedZone("IST", 5*3600+1800)
	jan1IST := time.Date(2025, time.January, 1, 0, 0, 0, 0, ist)

	assert.Equal(t, 14, DaysUntil("15-01-2025", jan1IST))
	assert.True(t, InRange("31-01-2025", jan1IST, 30))
	assert.False(t, InRange("01-02-2025", jan1IST, 30))

	// West-of-UTC late evening is still the same calendar date.
	pst := time.FixedZone("PST", -8*3600)
	jan1PST := time.Date(2025, time.January, 1, 22, 10, 0, 0, pst)
	assert.Equal(t, 14, DaysUntil("15-01-2025", jan1PST))
}

func TestInRangeThresholdBoundary(t *testing.T) {
	// 31-01-2025 is exactly 30 days from 2025-01-01; 01-02-2025 is 31.
	assert.True(t, InRange("31-01-2025", jan1, 30))
	assert.False(t, InRange("01-02-2025", jan1, 30))
}

func TestInRangeExcludesExpiredAndAbsent(t *testing.T) {
	assert.False(t, InRange("31-12-2024", jan1, 30))
	assert.False(t, InRange(NotAvailable, jan1, 365))
	assert.False(t, InRange("", jan1, 365))
}

func TestClassifyDocument(t *testing.T) {
	assert.Equal(t, StatusExpiringSoon, ClassifyDocument("15-01-2025", jan1))
	assert.Equal(t, StatusValid, ClassifyDocument("01-06-2025", jan1))
	assert.Equal(t, StatusNotAvailable, ClassifyDocument(NotAvailable, jan1))
	assert.Equal(t, StatusNotAvailable, ClassifyDocument("", jan1))

	// Already expired documents are not "expiring soon".
	assert.Equal(t, StatusValid, ClassifyDocument("01-12-2024", jan1))

	// Garbage degrades to far-future, which reads as valid.
	assert.Equal(t, StatusValid, ClassifyDocument("not a date", jan1))
}

func TestEarliestExpiryTieBreak(t *testing.T) {
	// Road tax and fitness expire on the identical date; field order wins.
	docs := VehicleDocuments{
		RoadTax:        "15-03-2025",
		Fitness:        "15-03-2025",
		Insurance:      NotAvailable,
		Pollution:      NotAvailable,
		StatePermit:    NotAvailable,
		NationalPermit: NotAvailable,
	}

	earliest, ok := EarliestExpiry(docs, jan1)
	require.True(t, ok)
	assert.Equal(t, DocRoadTax, earliest.Type)
	assert.Equal(t, "15-03-2025", earliest.Expiry)
}

func TestEarliestExpiryAllAbsent(t *testing.T) {
	docs := VehicleDocuments{
		RoadTax:        NotAvailable,
		Fitness:        NotAvailable,
		Insurance:      NotAvailable,
		Pollution:      NotAvailable,
		StatePermit:    NotAvailable,
		NationalPermit: NotAvailable,
	}

	_, ok := EarliestExpiry(docs, jan1)
	assert.False(t, ok)
}

func TestEarliestExpiryPrefersExpiredOverUpcoming(t *testing.T) {
	docs := VehicleDocuments{
		RoadTax:   "01-06-2025",
		Insurance: "20-12-2024", // already expired — smallest delta
	}

	earliest, ok := EarliestExpiry(docs, jan1)
	require.True(t, ok)
	assert.Equal(t, DocInsurance, earliest.Type)
}

func TestCumulativeBuckets(t *testing.T) {
	// Insurance expiring in 5 days must count in all four windows.
	vehicles := []VehicleDocuments{
		{
			RoadTax:        NotAvailable,
			Fitness:        NotAvailable,
			Insurance:      "06-01-2025",
			Pollution:      NotAvailable,
			StatePermit:    NotAvailable,
			NationalPermit: NotAvailable,
		},
	}

	counts := CountBuckets(vehicles, jan1)

	assert.Equal(t, 1, counts[30])
	assert.Equal(t, 1, counts[90])
	assert.Equal(t, 1, counts[180])
	assert.Equal(t, 1, counts[365])
}

func TestBucketsZeroWhenNothingExpiring(t *testing.T) {
	vehicles := []VehicleDocuments{
		{RoadTax: "01-06-2026"},
	}

	counts := CountBuckets(vehicles, jan1)

	assert.Equal(t, 0, counts[30])
	assert.Equal(t, 0, counts[90])
	assert.Equal(t, 0, counts[180])
	// 01-06-2026 is ~516 days out — beyond every window.
	assert.Equal(t, 0, counts[365])
}

// Covers the full classification path for one vehicle, the way the
// dashboard consumes it.
func TestVehicleClassificationEndToEnd(t *testing.T) {
	docs := VehicleDocuments{
		RoadTax:        "15-01-2025",
		Fitness:        NotAvailable,
		Insurance:      "01-06-2025",
		Pollution:      NotAvailable,
		StatePermit:    NotAvailable,
		NationalPermit: NotAvailable,
	}

	statuses := Statuses(docs, jan1)
	require.Len(t, statuses, 6)

	byType := map[string]DocumentStatus{}
	for _, s := range statuses {
		byType[s.Type] = s
	}

	assert.Equal(t, StatusExpiringSoon, byType[DocRoadTax].Status)
	assert.Equal(t, StatusValid, byType[DocInsurance].Status)
	assert.Equal(t, StatusNotAvailable, byType[DocFitness].Status)
	assert.Equal(t, StatusNotAvailable, byType[DocPollution].Status)
	assert.Equal(t, StatusNotAvailable, byType[DocStatePermit].Status)
	assert.Equal(t, StatusNotAvailable, byType[DocNationalPermit].Status)

	// Original raw strings pass through unmodified.
	assert.Equal(t, "15-01-2025", byType[DocRoadTax].Expiry)

	earliest, ok := EarliestExpiry(docs, jan1)
	require.True(t, ok)
	assert.Equal(t, DocRoadTax, earliest.Type)

	for _, window := range BucketWindows {
		assert.True(t, ExpiringInWindow(docs, jan1, window), "window %d", window)
	}
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Road Tax", DisplayName(DocRoadTax))
	assert.Equal(t, "National Permit", DisplayName(DocNationalPermit))
	assert.Equal(t, "Document", DisplayName("mystery"))
}
