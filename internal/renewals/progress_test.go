package renewals

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompletionQuantization(t *testing.T) {
	assert.Equal(t, 0, Completion(Milestones{}))
	assert.Equal(t, 20, Completion(Milestones{GovernmentFees: true}))
	assert.Equal(t, 40, Completion(Milestones{GovernmentFees: true, RTOApproval: true}))
	assert.Equal(t, 100, Completion(Milestones{
		GovernmentFees:    true,
		RTOApproval:       true,
		Inspection:        true,
		Certificate:       true,
		DocumentDelivered: true,
	}))
}

func TestCompletionIgnoresFlagOrder(t *testing.T) {
	// A regressed-looking record (later stage done, earlier not) still
	// counts flags — the engine trusts its input.
	assert.Equal(t, 20, Completion(Milestones{DocumentDelivered: true}))
}

func TestMilestoneState(t *testing.T) {
	assert.Equal(t, MilestoneCompleted, MilestoneState(true, ServicePending))
	assert.Equal(t, MilestoneCompleted, MilestoneState(true, ServiceProcessing))
	assert.Equal(t, MilestoneCompleted, MilestoneState(true, ServiceCancelled))

	// Every incomplete milestone reads in_progress while the parent
	// service is processing, not just the next pending one.
	assert.Equal(t, MilestoneInProgress, MilestoneState(false, ServiceProcessing))

	assert.Equal(t, MilestonePending, MilestoneState(false, ServicePending))
	assert.Equal(t, MilestonePending, MilestoneState(false, ServiceCompleted))
	assert.Equal(t, MilestonePending, MilestoneState(false, ServiceCancelled))
}

// Mirrors a processing service with fees and approval done: 40% overall,
// done stages completed, the remaining three all in_progress.
func TestServiceProgressScenario(t *testing.T) {
	m := Milestones{GovernmentFees: true, RTOApproval: true}

	assert.Equal(t, 40, Completion(m))
	assert.Equal(t, MilestoneCompleted, MilestoneState(m.GovernmentFees, ServiceProcessing))
	assert.Equal(t, MilestoneCompleted, MilestoneState(m.RTOApproval, ServiceProcessing))
	assert.Equal(t, MilestoneInProgress, MilestoneState(m.Inspection, ServiceProcessing))
	assert.Equal(t, MilestoneInProgress, MilestoneState(m.Certificate, ServiceProcessing))
	assert.Equal(t, MilestoneInProgress, MilestoneState(m.DocumentDelivered, ServiceProcessing))
}

func TestEvaluateDeliveryEarly(t *testing.T) {
	received := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	delivered := time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC)

	perf := EvaluateDelivery(&received, &delivered, ServiceCompleted)

	// Expected delivery was 2025-01-16 (received + 15-day SLA);
	// actual was 6 days earlier.
	require.NotNil(t, perf)
	assert.Equal(t, 6, perf.Days)
	assert.True(t, perf.Early)
}

func TestEvaluateDeliveryLate(t *testing.T) {
	received := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	delivered := time.Date(2025, time.January, 20, 0, 0, 0, 0, time.UTC)

	perf := EvaluateDelivery(&received, &delivered, ServiceCompleted)

	require.NotNil(t, perf)
	assert.Equal(t, 4, perf.Days)
	assert.False(t, perf.Early)
}

func TestEvaluateDeliveryNotDeterminable(t *testing.T) {
	ts := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

	// Missing either timestamp, or a non-completed service, yields nil —
	// callers must not read absence as "on time".
	assert.Nil(t, EvaluateDelivery(nil, &ts, ServiceCompleted))
	assert.Nil(t, EvaluateDelivery(&ts, nil, ServiceCompleted))
	assert.Nil(t, EvaluateDelivery(&ts, &ts, ServiceProcessing))
	assert.Nil(t, EvaluateDelivery(nil, nil, ServiceCompleted))
}

func TestEvaluateDeliveryTruncatesTimeOfDay(t *testing.T) {
	received := time.Date(2025, time.January, 1, 23, 50, 0, 0, time.UTC)
	delivered := time.Date(2025, time.January, 16, 0, 5, 0, 0, time.UTC)

	perf := EvaluateDelivery(&received, &delivered, ServiceCompleted)

	// Same calendar dates as the SLA boundary: neither early nor late.
	require.NotNil(t, perf)
	assert.Equal(t, 0, perf.Days)
	assert.False(t, perf.Early)
}
