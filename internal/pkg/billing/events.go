package billing

import (
	"encoding/json"
	"fmt"
	"strconv"

	stripe "github.com/stripe/stripe-go/v82"
)

// Event is the closed set of billing occurrences the reconciler understands.
// Each variant carries only the fields its handler needs; unrecognized
// provider event types map to UnknownEvent instead of failing.
type Event interface {
	isBillingEvent()
}

// CheckoutCompleted signals a paid checkout session. BusinessID and Plan come
// from the metadata attached when the session was created.
type CheckoutCompleted struct {
	SessionID       string
	BusinessID      uint
	Plan            string
	CustomerRef     string
	SubscriptionRef string
	AmountCents     int64
	Currency        string
}

// InvoicePaid signals a successful recurring invoice payment.
type InvoicePaid struct {
	InvoiceID   string
	CustomerRef string
	AmountCents int64
	Currency    string
}

// InvoicePaymentFailed signals a failed recurring invoice payment.
type InvoicePaymentFailed struct {
	InvoiceID   string
	CustomerRef string
	AmountCents int64
	Currency    string
	Reason      string
}

// SubscriptionCanceled signals that the provider-side subscription ended.
type SubscriptionCanceled struct {
	SubscriptionRef string
	CustomerRef     string
}

// UnknownEvent is any provider event type outside the dispatch table.
type UnknownEvent struct {
	Type string
}

func (CheckoutCompleted) isBillingEvent()    {}
func (InvoicePaid) isBillingEvent()          {}
func (InvoicePaymentFailed) isBillingEvent() {}
func (SubscriptionCanceled) isBillingEvent() {}
func (UnknownEvent) isBillingEvent()         {}

// Raw payload shapes. Webhook payloads carry unexpanded references, so the
// customer/subscription fields are plain id strings.
type rawCheckoutSession struct {
	ID           string            `json:"id"`
	Customer     string            `json:"customer"`
	Subscription string            `json:"subscription"`
	Metadata     map[string]string `json:"metadata"`
	AmountTotal  int64             `json:"amount_total"`
	Currency     string            `json:"currency"`
}

type rawInvoice struct {
	ID          string `json:"id"`
	Customer    string `json:"customer"`
	AmountPaid  int64  `json:"amount_paid"`
	AmountDue   int64  `json:"amount_due"`
	Currency    string `json:"currency"`
	LastFinalizationError struct {
		Message string `json:"message"`
	} `json:"last_finalization_error"`
}

type rawSubscription struct {
	ID       string `json:"id"`
	Customer string `json:"customer"`
}

// ParseEvent converts a verified Stripe event into a tagged variant.
func ParseEvent(evt stripe.Event) (Event, error) {
	switch evt.Type {
	case "checkout.session.completed":
		var cs rawCheckoutSession
		if err := json.Unmarshal(evt.Data.Raw, &cs); err != nil {
			return nil, fmt.Errorf("billing: parse checkout session: %w", err)
		}
		businessID, err := strconv.ParseUint(cs.Metadata["business_id"], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("billing: checkout session %s carries no business_id metadata", cs.ID)
		}
		return CheckoutCompleted{
			SessionID:       cs.ID,
			BusinessID:      uint(businessID),
			Plan:            cs.Metadata["plan"],
			CustomerRef:     cs.Customer,
			SubscriptionRef: cs.Subscription,
			AmountCents:     cs.AmountTotal,
			Currency:        cs.Currency,
		}, nil

	case "invoice.paid":
		var inv rawInvoice
		if err := json.Unmarshal(evt.Data.Raw, &inv); err != nil {
			return nil, fmt.Errorf("billing: parse invoice: %w", err)
		}
		return InvoicePaid{
			InvoiceID:   inv.ID,
			CustomerRef: inv.Customer,
			AmountCents: inv.AmountPaid,
			Currency:    inv.Currency,
		}, nil

	case "invoice.payment_failed":
		var inv rawInvoice
		if err := json.Unmarshal(evt.Data.Raw, &inv); err != nil {
			return nil, fmt.Errorf("billing: parse invoice: %w", err)
		}
		reason := inv.LastFinalizationError.Message
		if reason == "" {
			reason = "payment failed"
		}
		return InvoicePaymentFailed{
			InvoiceID:   inv.ID,
			CustomerRef: inv.Customer,
			AmountCents: inv.AmountDue,
			Currency:    inv.Currency,
			Reason:      reason,
		}, nil

	case "customer.subscription.deleted":
		var sub rawSubscription
		if err := json.Unmarshal(evt.Data.Raw, &sub); err != nil {
			return nil, fmt.Errorf("billing: parse subscription: %w", err)
		}
		return SubscriptionCanceled{
			SubscriptionRef: sub.ID,
			CustomerRef:     sub.Customer,
		}, nil

	default:
		return UnknownEvent{Type: string(evt.Type)}, nil
	}
}
