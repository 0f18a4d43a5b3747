package subscription

import (
	"context"
	"errors"
	"time"

	"github.com/scanvey/scanvey/app/models"
	"github.com/scanvey/scanvey/app/repository"
	"github.com/scanvey/scanvey/internal/pkg/plans"
)

// Service owns every mutation of the per-business subscription record. All
// operations are single-record updates; on data-access failure the error
// propagates and nothing is partially applied.
type Service struct {
	subs     repository.SubscriptionRepository
	payments repository.PaymentRepository
	catalog  *plans.Catalog
	now      func() time.Time
}

// NewService creates a subscription service from injected repositories and an
// explicitly constructed plan catalog.
func NewService(subs repository.SubscriptionRepository, payments repository.PaymentRepository, catalog *plans.Catalog) *Service {
	return &Service{
		subs:     subs,
		payments: payments,
		catalog:  catalog,
		now:      time.Now,
	}
}

// WithClock overrides the time source; used by tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Get loads the subscription record for a business.
func (s *Service) Get(ctx context.Context, businessID uint) (*models.Subscription, error) {
	_ = ctx
	return s.subs.GetByBusinessID(businessID)
}

// SetPlan switches a business to the given plan: limits come from the
// catalog, status becomes active and the billing period restarts at now.
// Calling it again with the same plan only refreshes the period dates, which
// is exactly the renew semantics the webhook reconciler relies on.
func (s *Service) SetPlan(ctx context.Context, businessID uint, plan string) (*models.Subscription, error) {
	_ = ctx
	if !models.IsKnownPlan(plan) {
		return nil, errors.New("unknown plan: " + plan)
	}

	sub, err := s.subs.GetByBusinessID(businessID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	sub.Plan = plan
	sub.UsageLimits = s.catalog.LimitsFor(plan)
	sub.Status = models.SubscriptionStatusActive
	sub.TrialEndsAt = nil
	sub.PeriodStartsAt = &now
	if plan == models.PlanFree {
		sub.PeriodEndsAt = nil
	} else {
		end := now.AddDate(0, 1, 0)
		sub.PeriodEndsAt = &end
	}

	if err := s.subs.Save(sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// RecordCheckoutInitiated appends a pending payment record for a checkout
// session. The subscription itself is untouched until the webhook confirms
// payment; an abandoned checkout simply leaves the record pending.
func (s *Service) RecordCheckoutInitiated(ctx context.Context, businessID uint, plan string, amountCents int64, currency, externalRef string) error {
	_ = ctx
	return s.payments.Create(&models.Payment{
		BusinessID:  businessID,
		Plan:        plan,
		AmountCents: amountCents,
		Currency:    currency,
		Status:      models.PaymentStatusPending,
		ExternalRef: externalRef,
	})
}

// ExtendPeriod advances the billing period end by one month and reactivates
// the subscription; invoked on a paid recurring invoice.
func (s *Service) ExtendPeriod(ctx context.Context, businessID uint) (*models.Subscription, error) {
	_ = ctx
	sub, err := s.subs.GetByBusinessID(businessID)
	if err != nil {
		return nil, err
	}

	base := s.now()
	if sub.PeriodEndsAt != nil && sub.PeriodEndsAt.After(base) {
		base = *sub.PeriodEndsAt
	}
	end := base.AddDate(0, 1, 0)
	sub.PeriodEndsAt = &end
	sub.Status = models.SubscriptionStatusActive

	if err := s.subs.Save(sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// MarkPaymentFailed moves the subscription into the payment_failed grace
// state. Plan and limits are untouched; access continues until the provider
// cancels or the period lapses.
func (s *Service) MarkPaymentFailed(ctx context.Context, businessID uint) error {
	_ = ctx
	sub, err := s.subs.GetByBusinessID(businessID)
	if err != nil {
		return err
	}
	sub.Status = models.SubscriptionStatusPaymentFailed
	return s.subs.Save(sub)
}

// Cancel marks the subscription canceled. Plan and limits are kept: a
// canceled business retains its paid entitlements until the period end, at
// which point lazy expiration downgrades access.
func (s *Service) Cancel(ctx context.Context, businessID uint) error {
	_ = ctx
	sub, err := s.subs.GetByBusinessID(businessID)
	if err != nil {
		return err
	}
	sub.Status = models.SubscriptionStatusCanceled
	return s.subs.Save(sub)
}

// SetBillingReferences stores the external customer/subscription ids. Owned
// by the webhook reconciler once billing begins.
func (s *Service) SetBillingReferences(ctx context.Context, businessID uint, customerID, subscriptionID string) error {
	_ = ctx
	sub, err := s.subs.GetByBusinessID(businessID)
	if err != nil {
		return err
	}
	if customerID != "" {
		sub.StripeCustomerID = customerID
	}
	if subscriptionID != "" {
		sub.StripeSubscriptionID = subscriptionID
	}
	return s.subs.Save(sub)
}

// Expire persists a lazily detected expiration computed by MaybeExpire.
func (s *Service) Expire(ctx context.Context, sub *models.Subscription) error {
	_ = ctx
	return s.subs.Save(sub)
}

// MaybeExpire applies time-based expiration to the in-memory record and
// reports whether it changed. There is no background sweep: the quota gate
// calls this on every check, so the persisted status may lag behind the
// observable behavior until the next gated request.
//
// Two edges expire lazily: a trial past trial_ends_at, and a canceled
// subscription past period_ends_at (a canceled business keeps its paid
// entitlements until the period it paid for runs out).
func MaybeExpire(sub *models.Subscription, now time.Time) bool {
	switch sub.Status {
	case models.SubscriptionStatusTrial:
		if sub.TrialEndsAt != nil && now.After(*sub.TrialEndsAt) {
			sub.Status = models.SubscriptionStatusExpired
			sub.TrialEndsAt = nil
			return true
		}
	case models.SubscriptionStatusCanceled:
		if sub.PeriodEndsAt != nil && now.After(*sub.PeriodEndsAt) {
			sub.Status = models.SubscriptionStatusExpired
			return true
		}
	}
	return false
}
