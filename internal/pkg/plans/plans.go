package plans

import (
	"fmt"

	"github.com/scanvey/scanvey/app/models"
)

// PlanSpec describes one subscription tier: its quotas, monthly price and the
// Stripe price object used at checkout.
type PlanSpec struct {
	Name          string
	Limits        models.UsageLimits
	PriceCents    int64
	Currency      string
	StripePriceID string
}

// Catalog is the immutable plan table. It is constructed once at startup and
// injected into the quota gate and the subscription service; plan values are
// only ever produced by this module, so a lookup miss is a programming error
// and panics rather than surfacing to a user.
type Catalog struct {
	specs map[string]PlanSpec
}

// StripePriceIDs maps paid plan names to Stripe price ids (from config).
type StripePriceIDs map[string]string

// NewCatalog builds the default free/basic/pro catalog. The priceIDs map may
// be empty in environments without billing (tests, demo mode).
func NewCatalog(priceIDs StripePriceIDs) *Catalog {
	return &Catalog{
		specs: map[string]PlanSpec{
			models.PlanFree: {
				Name: models.PlanFree,
				Limits: models.UsageLimits{
					MaxSurveys:           1,
					MaxQRCodes:           1,
					MaxResponsesPerMonth: 100,
				},
				PriceCents: 0,
				Currency:   "eur",
			},
			models.PlanBasic: {
				Name: models.PlanBasic,
				Limits: models.UsageLimits{
					MaxSurveys:           5,
					MaxQRCodes:           10,
					MaxResponsesPerMonth: 1000,
				},
				PriceCents:    900,
				Currency:      "eur",
				StripePriceID: priceIDs[models.PlanBasic],
			},
			models.PlanPro: {
				Name: models.PlanPro,
				Limits: models.UsageLimits{
					MaxSurveys:           models.UnlimitedLimit,
					MaxQRCodes:           models.UnlimitedLimit,
					MaxResponsesPerMonth: models.UnlimitedLimit,
				},
				PriceCents:    2900,
				Currency:      "eur",
				StripePriceID: priceIDs[models.PlanPro],
			},
		},
	}
}

// Spec returns the full plan specification. Panics on unknown plan.
func (c *Catalog) Spec(plan string) PlanSpec {
	spec, ok := c.specs[plan]
	if !ok {
		panic(fmt.Sprintf("plans: unknown plan %q", plan))
	}
	return spec
}

// LimitsFor returns the usage limits for a plan. Panics on unknown plan.
func (c *Catalog) LimitsFor(plan string) models.UsageLimits {
	return c.Spec(plan).Limits
}

// IsPaid reports whether the plan carries a nonzero monthly price.
func (c *Catalog) IsPaid(plan string) bool {
	return c.Spec(plan).PriceCents > 0
}
