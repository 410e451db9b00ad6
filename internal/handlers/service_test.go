package handlers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetops-backend/internal/models"
	"fleetops-backend/internal/renewals"
)

func TestEnrichServiceTimelineProcessing(t *testing.T) {
	now := time.Now()
	svc := models.RenewalService{
		Status:           renewals.ServiceProcessing,
		GovernmentFees:   true,
		RTOApproval:      true,
		GovernmentFeesAt: &now,
		RTOApprovalAt:    &now,
	}

	out := enrichService(svc, "KA01AB1234")

	assert.Equal(t, "KA01AB1234", out.Registration)
	assert.Equal(t, 40, out.Completion)

	require.Len(t, out.Timeline, 5)
	assert.Equal(t, renewals.MilestoneCompleted, out.Timeline[0].State)
	assert.Equal(t, renewals.MilestoneCompleted, out.Timeline[1].State)
	// While the service is processing, every unfinished milestone shows
	// as in progress.
	assert.Equal(t, renewals.MilestoneInProgress, out.Timeline[2].State)
	assert.Equal(t, renewals.MilestoneInProgress, out.Timeline[3].State)
	assert.Equal(t, renewals.MilestoneInProgress, out.Timeline[4].State)
}

func TestEnrichServiceTimelinePending(t *testing.T) {
	svc := models.RenewalService{Status: renewals.ServicePending}

	out := enrichService(svc, "KA01AB1234")

	assert.Equal(t, 0, out.Completion)
	for _, step := range out.Timeline {
		assert.Equal(t, renewals.MilestonePending, step.State)
	}
	assert.Nil(t, out.Delivery)
}

func TestEnrichServiceDelivery(t *testing.T) {
	received := time.Date(2025, time.January, 1, 10, 0, 0, 0, time.UTC)
	delivered := time.Date(2025, time.January, 10, 18, 30, 0, 0, time.UTC)

	svc := models.RenewalService{
		Status:              renewals.ServiceCompleted,
		GovernmentFees:      true,
		RTOApproval:         true,
		Inspection:          true,
		Certificate:         true,
		DocumentDelivered:   true,
		DocumentReceivedAt:  &received,
		DocumentDeliveredAt: &delivered,
	}

	out := enrichService(svc, "KA01AB1234")

	assert.Equal(t, 100, out.Completion)
	require.NotNil(t, out.Delivery)
	assert.True(t, out.Delivery.Early)
	assert.Equal(t, 6, out.Delivery.Days)
}

func TestEnrichServiceTimelineOrder(t *testing.T) {
	out := enrichService(models.RenewalService{Status: renewals.ServicePending}, "")

	want := []string{
		renewals.MilestoneGovernmentFees,
		renewals.MilestoneRTOApproval,
		renewals.MilestoneInspection,
		renewals.MilestoneCertificate,
		renewals.MilestoneDocumentDelivered,
	}
	require.Len(t, out.Timeline, len(want))
	for i, step := range out.Timeline {
		assert.Equal(t, want[i], step.Name)
	}
}
