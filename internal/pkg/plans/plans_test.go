package plans

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scanvey/scanvey/app/models"
)

func TestCatalogLimits(t *testing.T) {
	catalog := NewCatalog(nil)

	tests := []struct {
		plan string
		want models.UsageLimits
	}{
		{models.PlanFree, models.UsageLimits{MaxSurveys: 1, MaxQRCodes: 1, MaxResponsesPerMonth: 100}},
		{models.PlanBasic, models.UsageLimits{MaxSurveys: 5, MaxQRCodes: 10, MaxResponsesPerMonth: 1000}},
		{models.PlanPro, models.UsageLimits{MaxSurveys: -1, MaxQRCodes: -1, MaxResponsesPerMonth: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.plan, func(t *testing.T) {
			assert.Equal(t, tt.want, catalog.LimitsFor(tt.plan))
		})
	}
}

func TestCatalogProIsUnlimited(t *testing.T) {
	catalog := NewCatalog(nil)

	limits := catalog.LimitsFor(models.PlanPro)
	assert.Equal(t, models.UnlimitedLimit, limits.MaxSurveys)
	assert.Equal(t, models.UnlimitedLimit, limits.MaxQRCodes)
	assert.Equal(t, models.UnlimitedLimit, limits.MaxResponsesPerMonth)
}

func TestCatalogIsPaid(t *testing.T) {
	catalog := NewCatalog(nil)

	assert.False(t, catalog.IsPaid(models.PlanFree))
	assert.True(t, catalog.IsPaid(models.PlanBasic))
	assert.True(t, catalog.IsPaid(models.PlanPro))
}

func TestCatalogStripePriceIDs(t *testing.T) {
	catalog := NewCatalog(StripePriceIDs{
		models.PlanBasic: "price_basic_123",
		models.PlanPro:   "price_pro_456",
	})

	assert.Equal(t, "price_basic_123", catalog.Spec(models.PlanBasic).StripePriceID)
	assert.Equal(t, "price_pro_456", catalog.Spec(models.PlanPro).StripePriceID)
	assert.Empty(t, catalog.Spec(models.PlanFree).StripePriceID)
}

func TestCatalogUnknownPlanPanics(t *testing.T) {
	catalog := NewCatalog(nil)

	require.Panics(t, func() {
		catalog.Spec("enterprise")
	})
}
