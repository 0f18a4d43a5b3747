package models

import "time"

const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
	PaymentStatusCanceled  = "canceled"
)

// Payment is an append-only billing log entry. The external reference (Stripe
// checkout session or invoice id) is unique and acts as the idempotency key:
// a redelivered webhook for the same reference never creates a second row.
// The only permitted mutation is the pending -> terminal status transition.
type Payment struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	BusinessID    uint      `gorm:"not null;index" json:"business_id"`
	Plan          string    `gorm:"type:varchar(20);not null" json:"plan"`
	AmountCents   int64     `gorm:"not null;default:0" json:"amount_cents"`
	Currency      string    `gorm:"type:varchar(3);not null;default:'eur'" json:"currency"`
	Status        string    `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	ExternalRef   string    `gorm:"type:varchar(191);not null;uniqueIndex" json:"external_ref"`
	FailureReason string    `gorm:"type:text" json:"failure_reason,omitempty"`
	CreatedAt     time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
