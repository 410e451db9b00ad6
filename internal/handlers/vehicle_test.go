package handlers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetops-backend/internal/models"
	"fleetops-backend/internal/renewals"
)

var refDate = time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

func TestOrNotAvailable(t *testing.T) {
	assert.Equal(t, renewals.NotAvailable, orNotAvailable(""))
	assert.Equal(t, renewals.NotAvailable, orNotAvailable("   "))
	assert.Equal(t, "05-03-2025", orNotAvailable("05-03-2025"))
}

func TestEnrichVehicleComputesStatuses(t *testing.T) {
	v := models.Vehicle{
		ID:             "v-1",
		Registration:   "KA01AB1234",
		RoadTax:        "15-01-2025", // 14 days out
		Fitness:        "01-06-2025",
		Insurance:      renewals.NotAvailable,
		Pollution:      "01-06-2025",
		StatePermit:    "01-06-2025",
		NationalPermit: "01-06-2025",
	}

	out := enrichVehicle(v, nil, refDate)

	require.Len(t, out.Documents, 6)
	assert.Equal(t, 1, out.ExpiringCount)

	require.NotNil(t, out.EarliestExpiry)
	assert.Equal(t, renewals.DocRoadTax, out.EarliestExpiry.Type)
	assert.Equal(t, "15-01-2025", out.EarliestExpiry.Expiry)
}

func TestEnrichVehicleAllAbsent(t *testing.T) {
	v := models.Vehicle{
		RoadTax:        renewals.NotAvailable,
		Fitness:        renewals.NotAvailable,
		Insurance:      renewals.NotAvailable,
		Pollution:      renewals.NotAvailable,
		StatePermit:    renewals.NotAvailable,
		NationalPermit: renewals.NotAvailable,
	}

	out := enrichVehicle(v, nil, refDate)

	assert.Nil(t, out.EarliestExpiry)
	assert.Equal(t, 0, out.ExpiringCount)
	for _, ds := range out.Documents {
		assert.Equal(t, renewals.StatusNotAvailable, ds.Status)
	}
}

func TestEnrichVehicleCarriesDriverName(t *testing.T) {
	name := "Ravi"
	v := models.Vehicle{
		RoadTax:        "01-06-2025",
		Fitness:        renewals.NotAvailable,
		Insurance:      renewals.NotAvailable,
		Pollution:      renewals.NotAvailable,
		StatePermit:    renewals.NotAvailable,
		NationalPermit: renewals.NotAvailable,
	}

	out := enrichVehicle(v, &name, refDate)

	require.NotNil(t, out.DriverName)
	assert.Equal(t, "Ravi", *out.DriverName)
}

func TestStrDeref(t *testing.T) {
	assert.Equal(t, "", strDeref(nil))
	s := "abc"
	assert.Equal(t, "abc", strDeref(&s))
}
