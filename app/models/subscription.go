package models

import "time"

const (
	PlanFree  = "free"
	PlanBasic = "basic"
	PlanPro   = "pro"
)

const (
	SubscriptionStatusTrial         = "trial"
	SubscriptionStatusActive        = "active"
	SubscriptionStatusPaymentFailed = "payment_failed"
	SubscriptionStatusExpired       = "expired"
	SubscriptionStatusCanceled      = "canceled"
)

// UnlimitedLimit is the sentinel for "no limit" in usage limit fields. It must
// be special-cased before any numeric comparison against a usage count.
const UnlimitedLimit = -1

// TrialDuration is how long a fresh business keeps trial access.
const TrialDuration = 14 * 24 * time.Hour

// UsageLimits holds the per-plan resource quotas stored on a subscription.
// The stored values are always derived from the plan catalog, never edited
// directly.
type UsageLimits struct {
	MaxSurveys           int `gorm:"not null;default:1" json:"max_surveys"`
	MaxQRCodes           int `gorm:"not null;default:1" json:"max_qr_codes"`
	MaxResponsesPerMonth int `gorm:"not null;default:100" json:"max_responses_per_month"`
}

// Subscription is the per-business subscription record. It is created with
// the business (status=trial) and only ever mutated by the subscription
// service; it is never deleted.
type Subscription struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	BusinessID uint   `gorm:"not null;uniqueIndex" json:"business_id"`
	Plan       string `gorm:"type:varchar(20);not null;default:'free';index" json:"plan"`
	Status     string `gorm:"type:varchar(32);not null;default:'trial';index" json:"status"`

	TrialEndsAt    *time.Time `gorm:"type:timestamp;default:null" json:"trial_ends_at,omitempty"`
	PeriodStartsAt *time.Time `gorm:"type:timestamp;default:null" json:"period_starts_at,omitempty"`
	PeriodEndsAt   *time.Time `gorm:"type:timestamp;default:null" json:"period_ends_at,omitempty"`

	UsageLimits UsageLimits `gorm:"embedded;embeddedPrefix:limit_" json:"usage_limits"`

	// Billing references are owned by the webhook reconciler once billing
	// begins; empty until the first checkout completes.
	StripeCustomerID     string `gorm:"type:varchar(191);default:null;index" json:"-"`
	StripeSubscriptionID string `gorm:"type:varchar(191);default:null" json:"-"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// NewTrialSubscription builds the subscription record for a freshly
// registered business: free-tier limits, 14 days of trial access.
func NewTrialSubscription(businessID uint, limits UsageLimits, now time.Time) *Subscription {
	trialEnd := now.Add(TrialDuration)
	return &Subscription{
		BusinessID:  businessID,
		Plan:        PlanFree,
		Status:      SubscriptionStatusTrial,
		TrialEndsAt: &trialEnd,
		UsageLimits: limits,
	}
}

// IsKnownPlan reports whether the given plan name is one of the defined tiers.
func IsKnownPlan(plan string) bool {
	switch plan {
	case PlanFree, PlanBasic, PlanPro:
		return true
	default:
		return false
	}
}
