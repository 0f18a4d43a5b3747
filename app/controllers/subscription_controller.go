package controllers

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	stripe "github.com/stripe/stripe-go/v82"

	"github.com/scanvey/scanvey/app/models"
	"github.com/scanvey/scanvey/app/repository"
	"github.com/scanvey/scanvey/internal/pkg/billing"
	"github.com/scanvey/scanvey/internal/pkg/env"
	"github.com/scanvey/scanvey/internal/pkg/plans"
	"github.com/scanvey/scanvey/internal/pkg/quota"
	"github.com/scanvey/scanvey/internal/pkg/subscription"
	"github.com/scanvey/scanvey/internal/pkg/tenantcontext"
)

// SubscriptionController exposes the subscription surface: current state with
// a usage snapshot, plan changes, Stripe checkout and cancellation, payment
// history and the billing webhook endpoint.
type SubscriptionController struct {
	repos      *repository.Repositories
	svc        *subscription.Service
	catalog    *plans.Catalog
	counter    *quota.Counter
	client     *billing.Client
	reconciler *billing.Reconciler
}

// NewSubscriptionController creates the subscription controller.
func NewSubscriptionController(
	repos *repository.Repositories,
	svc *subscription.Service,
	catalog *plans.Catalog,
	counter *quota.Counter,
	client *billing.Client,
	reconciler *billing.Reconciler,
) *SubscriptionController {
	return &SubscriptionController{
		repos:      repos,
		svc:        svc,
		catalog:    catalog,
		counter:    counter,
		client:     client,
		reconciler: reconciler,
	}
}

type planRequest struct {
	Plan string `json:"plan" validate:"required,oneof=free basic pro"`
}

// HandleCurrent returns the subscription record together with a usage
// snapshot: used and limit per resource, so a dashboard can render quota bars
// without extra calls.
func (sc *SubscriptionController) HandleCurrent(c *fiber.Ctx) error {
	businessID := tenantcontext.GetBusinessID(c)

	sub, err := sc.svc.Get(c.Context(), businessID)
	if err != nil {
		log.Printf("subscription lookup failed for business %d: %v", businessID, err)
		return fail(c, fiber.StatusInternalServerError, "subscription lookup failed")
	}
	if subscription.MaybeExpire(sub, time.Now()) {
		if err := sc.svc.Expire(c.Context(), sub); err != nil {
			log.Printf("persisting expiration failed for business %d: %v", businessID, err)
		}
	}

	surveys, err := sc.counter.Surveys(businessID)
	if err != nil {
		log.Printf("usage snapshot failed for business %d: %v", businessID, err)
		return fail(c, fiber.StatusInternalServerError, "usage snapshot failed")
	}
	qrCodes, err := sc.counter.QRCodes(businessID)
	if err != nil {
		log.Printf("usage snapshot failed for business %d: %v", businessID, err)
		return fail(c, fiber.StatusInternalServerError, "usage snapshot failed")
	}
	responses, err := sc.counter.ResponsesThisMonth(businessID, time.Now())
	if err != nil {
		log.Printf("usage snapshot failed for business %d: %v", businessID, err)
		return fail(c, fiber.StatusInternalServerError, "usage snapshot failed")
	}

	return c.JSON(fiber.Map{
		"success":      true,
		"subscription": sub,
		"usage": fiber.Map{
			"surveys":   fiber.Map{"used": surveys, "limit": sub.UsageLimits.MaxSurveys},
			"qr_codes":  fiber.Map{"used": qrCodes, "limit": sub.UsageLimits.MaxQRCodes},
			"responses": fiber.Map{"used": responses, "limit": sub.UsageLimits.MaxResponsesPerMonth},
		},
	})
}

// HandleUpdate switches the plan directly without touching the billing
// provider. Meant for downgrades to free and for deployments that run without
// Stripe; paid upgrades should go through checkout.
func (sc *SubscriptionController) HandleUpdate(c *fiber.Ctx) error {
	businessID := tenantcontext.GetBusinessID(c)

	var req planRequest
	if msg, ok := parseBody(c, &req); !ok {
		return fail(c, fiber.StatusBadRequest, msg)
	}

	sub, err := sc.svc.SetPlan(c.Context(), businessID, req.Plan)
	if err != nil {
		log.Printf("plan update failed for business %d: %v", businessID, err)
		return fail(c, fiber.StatusInternalServerError, "plan update failed")
	}
	return c.JSON(fiber.Map{
		"success":      true,
		"subscription": sub,
	})
}

// HandleCheckout opens a Stripe checkout session for a paid plan and records
// a pending payment keyed on the session id. The subscription only changes
// when the completion webhook arrives.
func (sc *SubscriptionController) HandleCheckout(c *fiber.Ctx) error {
	businessID := tenantcontext.GetBusinessID(c)

	var req planRequest
	if msg, ok := parseBody(c, &req); !ok {
		return fail(c, fiber.StatusBadRequest, msg)
	}
	if !sc.catalog.IsPaid(req.Plan) {
		return fail(c, fiber.StatusBadRequest, "checkout is only available for paid plans")
	}

	business, err := sc.repos.Business.GetByID(businessID)
	if err != nil {
		log.Printf("checkout: business lookup failed for %d: %v", businessID, err)
		return fail(c, fiber.StatusInternalServerError, "checkout failed")
	}

	spec := sc.catalog.Spec(req.Plan)
	base := env.GetEnv("PUBLIC_DOMAIN", "http://localhost:4000")
	session, err := sc.client.CreateCheckoutSession(c.Context(), billing.CheckoutInput{
		PriceID:       spec.StripePriceID,
		SuccessURL:    base + "/billing/success",
		CancelURL:     base + "/billing/cancel",
		CustomerEmail: business.Email,
		BusinessID:    businessID,
		Plan:          req.Plan,
	})
	if err != nil {
		log.Printf("checkout session creation failed for business %d: %v", businessID, err)
		return fail(c, fiber.StatusBadGateway, "checkout session creation failed")
	}

	if err := sc.svc.RecordCheckoutInitiated(c.Context(), businessID, req.Plan, spec.PriceCents, spec.Currency, session.ID); err != nil {
		log.Printf("recording checkout failed for business %d: %v", businessID, err)
		return fail(c, fiber.StatusInternalServerError, "checkout failed")
	}

	return c.JSON(fiber.Map{
		"success":      true,
		"checkout_url": session.URL,
	})
}

// HandleCancel cancels the subscription. For billed tenants the provider-side
// subscription is canceled too; locally the record moves to canceled and
// keeps its entitlements until the period end.
func (sc *SubscriptionController) HandleCancel(c *fiber.Ctx) error {
	businessID := tenantcontext.GetBusinessID(c)

	sub, err := sc.svc.Get(c.Context(), businessID)
	if err != nil {
		log.Printf("cancel: subscription lookup failed for business %d: %v", businessID, err)
		return fail(c, fiber.StatusInternalServerError, "cancellation failed")
	}

	if sub.StripeSubscriptionID != "" {
		if err := sc.client.CancelSubscription(c.Context(), sub.StripeSubscriptionID); err != nil {
			log.Printf("provider cancellation failed for business %d: %v", businessID, err)
			return fail(c, fiber.StatusBadGateway, "provider cancellation failed")
		}
	}

	if err := sc.svc.Cancel(c.Context(), businessID); err != nil {
		log.Printf("cancel failed for business %d: %v", businessID, err)
		return fail(c, fiber.StatusInternalServerError, "cancellation failed")
	}
	return c.JSON(fiber.Map{"success": true})
}

// HandleChangePlan moves an already-billed tenant onto a different paid
// price, prorated by the provider, then applies the plan locally.
func (sc *SubscriptionController) HandleChangePlan(c *fiber.Ctx) error {
	businessID := tenantcontext.GetBusinessID(c)

	var req planRequest
	if msg, ok := parseBody(c, &req); !ok {
		return fail(c, fiber.StatusBadRequest, msg)
	}
	if !sc.catalog.IsPaid(req.Plan) {
		return fail(c, fiber.StatusBadRequest, "use cancel or update to move to a free plan")
	}

	sub, err := sc.svc.Get(c.Context(), businessID)
	if err != nil {
		log.Printf("plan change: subscription lookup failed for business %d: %v", businessID, err)
		return fail(c, fiber.StatusInternalServerError, "plan change failed")
	}
	if sub.StripeSubscriptionID == "" {
		return fail(c, fiber.StatusBadRequest, "no billed subscription to change; use checkout")
	}
	if sub.Plan == req.Plan {
		return fail(c, fiber.StatusBadRequest, "already on plan "+req.Plan)
	}

	spec := sc.catalog.Spec(req.Plan)
	if err := sc.client.UpdateSubscriptionPrice(c.Context(), sub.StripeSubscriptionID, spec.StripePriceID); err != nil {
		log.Printf("provider plan change failed for business %d: %v", businessID, err)
		return fail(c, fiber.StatusBadGateway, "provider plan change failed")
	}

	updated, err := sc.svc.SetPlan(c.Context(), businessID, req.Plan)
	if err != nil {
		log.Printf("plan change failed for business %d: %v", businessID, err)
		return fail(c, fiber.StatusInternalServerError, "plan change failed")
	}
	return c.JSON(fiber.Map{
		"success":      true,
		"subscription": updated,
	})
}

// HandleHistory returns the payment log, newest first.
func (sc *SubscriptionController) HandleHistory(c *fiber.Ctx) error {
	businessID := tenantcontext.GetBusinessID(c)

	payments, err := sc.repos.Payment.ListByBusinessID(businessID)
	if err != nil {
		log.Printf("payment history failed for business %d: %v", businessID, err)
		return fail(c, fiber.StatusInternalServerError, "payment history failed")
	}
	return c.JSON(fiber.Map{
		"success":  true,
		"payments": payments,
	})
}

// HandleWebhook receives Stripe webhook deliveries. The signature is verified
// before anything else; an invalid signature is rejected with 400 and no
// state change.
func (sc *SubscriptionController) HandleWebhook(c *fiber.Ctx) error {
	payload := c.Body()

	stripeEvent, err := sc.client.VerifyWebhook(payload, c.Get("Stripe-Signature"))
	if err != nil {
		log.Printf("webhook signature verification failed: %v", err)
		return fail(c, fiber.StatusBadRequest, "invalid signature")
	}

	return sc.processWebhookEvent(c, stripeEvent, payload)
}

// processWebhookEvent logs a verified delivery keyed on the provider event id
// and applies it. A redelivered event is only acked as a duplicate when the
// first attempt finished cleanly; deliveries that errored mid-flight are
// reprocessed so a transient failure cannot strand the event.
func (sc *SubscriptionController) processWebhookEvent(c *fiber.Ctx, stripeEvent stripe.Event, payload []byte) error {
	created, record, err := sc.repos.WebhookEvent.CreateIfNotExists(&models.WebhookEvent{
		Provider:        billing.ProviderStripe,
		ProviderEventID: stripeEvent.ID,
		EventType:       string(stripeEvent.Type),
		PayloadJSON:     string(payload),
		SignatureValid:  true,
	})
	if err != nil {
		log.Printf("webhook event logging failed for %s: %v", stripeEvent.ID, err)
		return fail(c, fiber.StatusInternalServerError, "webhook processing failed")
	}
	if !created {
		if record.ProcessedAt != nil && record.ProcessingError == "" {
			log.Printf("webhook event %s already processed, acking", stripeEvent.ID)
			return c.JSON(fiber.Map{"success": true, "duplicate": true})
		}
		log.Printf("webhook event %s seen before but not applied, reprocessing", stripeEvent.ID)
	}

	ev, err := billing.ParseEvent(stripeEvent)
	if err != nil {
		log.Printf("webhook event %s parse failed: %v", stripeEvent.ID, err)
		if markErr := sc.repos.WebhookEvent.MarkProcessed(record.ID, err.Error()); markErr != nil {
			log.Printf("marking webhook event %s failed: %v", stripeEvent.ID, markErr)
		}
		return fail(c, fiber.StatusBadRequest, "malformed event payload")
	}

	if err := sc.reconciler.Apply(c.Context(), ev); err != nil {
		log.Printf("webhook event %s apply failed: %v", stripeEvent.ID, err)
		if markErr := sc.repos.WebhookEvent.MarkProcessed(record.ID, err.Error()); markErr != nil {
			log.Printf("marking webhook event %s failed: %v", stripeEvent.ID, markErr)
		}
		// Non-2xx makes Stripe redeliver; the handlers are idempotent so the
		// retry is safe.
		return fail(c, fiber.StatusInternalServerError, "webhook processing failed")
	}

	if err := sc.repos.WebhookEvent.MarkProcessed(record.ID, ""); err != nil {
		log.Printf("marking webhook event %s failed: %v", stripeEvent.ID, err)
	}
	return c.JSON(fiber.Map{"success": true})
}
