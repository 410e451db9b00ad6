package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetops-backend/internal/models"
	"fleetops-backend/internal/renewals"
)

func TestEnrichDriverLicenseExpiring(t *testing.T) {
	d := models.Driver{
		Name:          "Ravi",
		LicenseExpiry: "15-01-2025",
	}

	out := enrichDriver(d, []string{"KA01AB1234"}, refDate)

	assert.Equal(t, renewals.StatusExpiringSoon, out.LicenseStatus)
	require.NotNil(t, out.LicenseDaysLeft)
	assert.Equal(t, 14, *out.LicenseDaysLeft)
	assert.Equal(t, []string{"KA01AB1234"}, out.Vehicles)
}

func TestEnrichDriverLicenseAbsent(t *testing.T) {
	d := models.Driver{LicenseExpiry: renewals.NotAvailable}

	out := enrichDriver(d, nil, refDate)

	assert.Equal(t, renewals.StatusNotAvailable, out.LicenseStatus)
	assert.Nil(t, out.LicenseDaysLeft)
	assert.NotNil(t, out.Vehicles) // empty slice, not null in JSON
	assert.Empty(t, out.Vehicles)
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "doc.pdf", sanitizeFilename("doc.pdf"))
	assert.Equal(t, "doc.pdf", sanitizeFilename("../../etc/doc.pdf"))
	assert.Equal(t, "my_file.png", sanitizeFilename("my file.png"))
}
