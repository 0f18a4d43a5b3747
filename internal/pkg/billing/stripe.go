package billing

import (
	"context"
	"errors"
	"fmt"

	stripe "github.com/stripe/stripe-go/v82"
	checkoutsession "github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/subscription"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/scanvey/scanvey/internal/pkg/env"
)

const ProviderStripe = "stripe"

// Client wraps the Stripe API surface the service needs: checkout session
// creation, webhook verification and subscription lifecycle calls. All calls
// are single synchronous requests with no retry; failures surface directly.
type Client struct {
	webhookSecret string
}

// NewClientFromEnv configures the global Stripe key and returns a client.
func NewClientFromEnv() *Client {
	stripe.Key = env.GetEnv("STRIPE_SECRET_KEY", "")
	return &Client{
		webhookSecret: env.GetEnv("STRIPE_WEBHOOK_SECRET", ""),
	}
}

// CheckoutInput describes a new checkout session for a plan purchase.
type CheckoutInput struct {
	PriceID       string
	SuccessURL    string
	CancelURL     string
	CustomerEmail string
	BusinessID    uint
	Plan          string
}

// CheckoutSession is the created provider session the caller redirects to.
type CheckoutSession struct {
	ID  string
	URL string
}

// CreateCheckoutSession opens a subscription-mode checkout session carrying
// the business id and plan as metadata, so the completion webhook can resolve
// the tenant without any extra lookup.
func (c *Client) CreateCheckoutSession(ctx context.Context, in CheckoutInput) (*CheckoutSession, error) {
	_ = ctx
	if in.PriceID == "" {
		return nil, errors.New("billing: no stripe price configured for plan " + in.Plan)
	}

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(in.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL:    stripe.String(in.SuccessURL),
		CancelURL:     stripe.String(in.CancelURL),
		CustomerEmail: stripe.String(in.CustomerEmail),
	}
	params.AddMetadata("business_id", fmt.Sprintf("%d", in.BusinessID))
	params.AddMetadata("plan", in.Plan)

	s, err := checkoutsession.New(params)
	if err != nil {
		return nil, fmt.Errorf("billing: create checkout session: %w", err)
	}
	return &CheckoutSession{ID: s.ID, URL: s.URL}, nil
}

// VerifyWebhook checks the signature header against the shared secret and
// returns the decoded event. Verification failure means the payload is
// untrusted and nothing may be applied.
func (c *Client) VerifyWebhook(payload []byte, signatureHeader string) (stripe.Event, error) {
	return webhook.ConstructEvent(payload, signatureHeader, c.webhookSecret)
}

// RetrieveSubscription loads the provider-side subscription.
func (c *Client) RetrieveSubscription(ctx context.Context, subscriptionRef string) (*stripe.Subscription, error) {
	_ = ctx
	sub, err := subscription.Get(subscriptionRef, nil)
	if err != nil {
		return nil, fmt.Errorf("billing: retrieve subscription: %w", err)
	}
	return sub, nil
}

// UpdateSubscriptionPrice swaps the subscription onto a different price,
// prorating from now. Used by plan changes on already-billed tenants.
func (c *Client) UpdateSubscriptionPrice(ctx context.Context, subscriptionRef, priceID string) error {
	sub, err := c.RetrieveSubscription(ctx, subscriptionRef)
	if err != nil {
		return err
	}
	if len(sub.Items.Data) == 0 {
		return errors.New("billing: subscription has no items to update")
	}

	params := &stripe.SubscriptionParams{
		Items: []*stripe.SubscriptionItemsParams{
			{
				ID:    stripe.String(sub.Items.Data[0].ID),
				Price: stripe.String(priceID),
			},
		},
	}
	if _, err := subscription.Update(subscriptionRef, params); err != nil {
		return fmt.Errorf("billing: update subscription: %w", err)
	}
	return nil
}

// CancelSubscription cancels the provider-side subscription immediately. The
// confirming webhook drives the local state transition.
func (c *Client) CancelSubscription(ctx context.Context, subscriptionRef string) error {
	_ = ctx
	if _, err := subscription.Cancel(subscriptionRef, nil); err != nil {
		return fmt.Errorf("billing: cancel subscription: %w", err)
	}
	return nil
}
