package repository

import (
	"github.com/scanvey/scanvey/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// paymentRepository implements the PaymentRepository interface
type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new payment repository instance
func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

// Create appends a new payment record
func (r *paymentRepository) Create(payment *models.Payment) error {
	return r.db.Create(payment).Error
}

// CreateIfNotExists appends a payment record unless one with the same
// external reference already exists. Returns whether a row was created.
func (r *paymentRepository) CreateIfNotExists(payment *models.Payment) (bool, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "external_ref"}},
		DoNothing: true,
	}).Create(payment)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

// GetByExternalRef retrieves a payment by its external reference
func (r *paymentRepository) GetByExternalRef(ref string) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.Where("external_ref = ?", ref).First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// MarkCompletedByExternalRef transitions a pending payment to completed.
// Only the pending -> completed edge is allowed, so a redelivered webhook
// finds zero affected rows and knows the event was already applied.
func (r *paymentRepository) MarkCompletedByExternalRef(ref string) (bool, error) {
	tx := r.db.Model(&models.Payment{}).
		Where("external_ref = ? AND status = ?", ref, models.PaymentStatusPending).
		Update("status", models.PaymentStatusCompleted)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

// ListByBusinessID returns the payment history of a business, newest first
func (r *paymentRepository) ListByBusinessID(businessID uint) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.Where("business_id = ?", businessID).Order("created_at DESC").Find(&payments).Error
	return payments, err
}
