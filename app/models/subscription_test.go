package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTrialSubscription(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	limits := UsageLimits{MaxSurveys: 1, MaxQRCodes: 1, MaxResponsesPerMonth: 100}

	sub := NewTrialSubscription(7, limits, now)

	assert.Equal(t, uint(7), sub.BusinessID)
	assert.Equal(t, PlanFree, sub.Plan)
	assert.Equal(t, SubscriptionStatusTrial, sub.Status)
	assert.Equal(t, limits, sub.UsageLimits)
	require.NotNil(t, sub.TrialEndsAt)
	assert.Equal(t, now.Add(14*24*time.Hour), *sub.TrialEndsAt)
	assert.Nil(t, sub.PeriodEndsAt)
}

func TestIsKnownPlan(t *testing.T) {
	assert.True(t, IsKnownPlan(PlanFree))
	assert.True(t, IsKnownPlan(PlanBasic))
	assert.True(t, IsKnownPlan(PlanPro))
	assert.False(t, IsKnownPlan(""))
	assert.False(t, IsKnownPlan("enterprise"))
}
