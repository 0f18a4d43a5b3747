package billing

import (
	"context"
	"errors"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/scanvey/scanvey/app/models"
	"github.com/scanvey/scanvey/app/repository"
	"github.com/scanvey/scanvey/internal/pkg/plans"
	"github.com/scanvey/scanvey/internal/pkg/subscription"
)

// Reconciler applies verified billing events to the local subscription and
// payment records. Every handler runs inside one database transaction, so the
// payment row and the subscription transition land together or not at all: a
// transient failure rolls back the idempotency-keyed row and the provider's
// redelivery reprocesses the event from scratch. Unresolvable tenant lookups
// are logged and acked so the provider stops retrying an event that can never
// apply.
type Reconciler struct {
	tx      repository.TxRunner
	catalog *plans.Catalog
	now     func() time.Time
}

// NewReconciler creates a reconciler over a transaction runner and the plan
// catalog its subscription transitions resolve limits from.
func NewReconciler(tx repository.TxRunner, catalog *plans.Catalog) *Reconciler {
	return &Reconciler{
		tx:      tx,
		catalog: catalog,
		now:     time.Now,
	}
}

// WithClock overrides the time source; used by tests.
func (r *Reconciler) WithClock(now func() time.Time) *Reconciler {
	r.now = now
	return r
}

// service binds a subscription service to the transaction's repositories.
func (r *Reconciler) service(repos *repository.Repositories) *subscription.Service {
	return subscription.NewService(repos.Subscription, repos.Payment, r.catalog).WithClock(r.now)
}

// Apply dispatches one parsed event. A nil return acks the delivery.
func (r *Reconciler) Apply(ctx context.Context, ev Event) error {
	switch e := ev.(type) {
	case CheckoutCompleted:
		return r.applyCheckoutCompleted(ctx, e)
	case InvoicePaid:
		return r.applyInvoicePaid(ctx, e)
	case InvoicePaymentFailed:
		return r.applyInvoicePaymentFailed(ctx, e)
	case SubscriptionCanceled:
		return r.applySubscriptionCanceled(ctx, e)
	case UnknownEvent:
		log.Printf("billing: ignoring unhandled event type %q", e.Type)
		return nil
	default:
		log.Printf("billing: ignoring unhandled event variant %T", ev)
		return nil
	}
}

func (r *Reconciler) applyCheckoutCompleted(ctx context.Context, e CheckoutCompleted) error {
	if !models.IsKnownPlan(e.Plan) {
		log.Printf("billing: checkout session %s carries unknown plan %q, skipping", e.SessionID, e.Plan)
		return nil
	}

	return r.tx.Transaction(func(repos *repository.Repositories) error {
		svc := r.service(repos)

		transitioned, err := repos.Payment.MarkCompletedByExternalRef(e.SessionID)
		if err != nil {
			return err
		}
		if !transitioned {
			existing, err := repos.Payment.GetByExternalRef(e.SessionID)
			if err == nil && existing.Status == models.PaymentStatusCompleted {
				// Redelivery: the session was already applied.
				log.Printf("billing: checkout session %s already completed, skipping", e.SessionID)
				return nil
			}
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			// No pending record was written at checkout time (or it resolved to a
			// non-pending state we do not own). Append a completed record so the
			// log stays consistent with the provider's view.
			if _, err := repos.Payment.CreateIfNotExists(&models.Payment{
				BusinessID:  e.BusinessID,
				Plan:        e.Plan,
				AmountCents: e.AmountCents,
				Currency:    e.Currency,
				Status:      models.PaymentStatusCompleted,
				ExternalRef: e.SessionID,
			}); err != nil {
				return err
			}
		}

		if err := svc.SetBillingReferences(ctx, e.BusinessID, e.CustomerRef, e.SubscriptionRef); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				log.Printf("billing: no subscription for business %d on checkout %s", e.BusinessID, e.SessionID)
				return nil
			}
			return err
		}

		_, err = svc.SetPlan(ctx, e.BusinessID, e.Plan)
		return err
	})
}

func (r *Reconciler) applyInvoicePaid(ctx context.Context, e InvoicePaid) error {
	return r.tx.Transaction(func(repos *repository.Repositories) error {
		sub, err := repos.Subscription.GetByStripeCustomerID(e.CustomerRef)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				log.Printf("billing: no subscription for customer %s on invoice %s", e.CustomerRef, e.InvoiceID)
				return nil
			}
			return err
		}

		created, err := repos.Payment.CreateIfNotExists(&models.Payment{
			BusinessID:  sub.BusinessID,
			Plan:        sub.Plan,
			AmountCents: e.AmountCents,
			Currency:    e.Currency,
			Status:      models.PaymentStatusCompleted,
			ExternalRef: e.InvoiceID,
		})
		if err != nil {
			return err
		}
		if !created {
			// The row only survives a fully committed transaction, so its
			// presence means the period extension landed with it.
			log.Printf("billing: invoice %s already recorded, skipping", e.InvoiceID)
			return nil
		}

		_, err = r.service(repos).ExtendPeriod(ctx, sub.BusinessID)
		return err
	})
}

func (r *Reconciler) applyInvoicePaymentFailed(ctx context.Context, e InvoicePaymentFailed) error {
	return r.tx.Transaction(func(repos *repository.Repositories) error {
		sub, err := repos.Subscription.GetByStripeCustomerID(e.CustomerRef)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				log.Printf("billing: no subscription for customer %s on failed invoice %s", e.CustomerRef, e.InvoiceID)
				return nil
			}
			return err
		}

		created, err := repos.Payment.CreateIfNotExists(&models.Payment{
			BusinessID:    sub.BusinessID,
			Plan:          sub.Plan,
			AmountCents:   e.AmountCents,
			Currency:      e.Currency,
			Status:        models.PaymentStatusFailed,
			ExternalRef:   e.InvoiceID,
			FailureReason: e.Reason,
		})
		if err != nil {
			return err
		}
		if !created {
			log.Printf("billing: failed invoice %s already recorded, skipping", e.InvoiceID)
			return nil
		}

		return r.service(repos).MarkPaymentFailed(ctx, sub.BusinessID)
	})
}

func (r *Reconciler) applySubscriptionCanceled(ctx context.Context, e SubscriptionCanceled) error {
	return r.tx.Transaction(func(repos *repository.Repositories) error {
		sub, err := repos.Subscription.GetByStripeCustomerID(e.CustomerRef)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				log.Printf("billing: no subscription for customer %s on cancellation %s", e.CustomerRef, e.SubscriptionRef)
				return nil
			}
			return err
		}

		return r.service(repos).Cancel(ctx, sub.BusinessID)
	})
}
