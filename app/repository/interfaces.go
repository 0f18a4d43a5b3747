package repository

import (
	"time"

	"github.com/scanvey/scanvey/app/models"
	"gorm.io/gorm"
)

// BusinessRepository defines the interface for tenant account operations
type BusinessRepository interface {
	Create(business *models.Business) error
	GetByID(id uint) (*models.Business, error)
	GetByEmail(email string) (*models.Business, error)
	Update(business *models.Business) error
}

// SubscriptionRepository defines the interface for subscription records.
// Save persists the full record in a single update; there is no
// partial-application path.
type SubscriptionRepository interface {
	Create(sub *models.Subscription) error
	GetByBusinessID(businessID uint) (*models.Subscription, error)
	GetByStripeCustomerID(customerID string) (*models.Subscription, error)
	Save(sub *models.Subscription) error
}

// SurveyRepository defines the interface for survey operations
type SurveyRepository interface {
	Create(survey *models.Survey) error
	GetByID(id uint) (*models.Survey, error)
	GetByUUID(uuid string) (*models.Survey, error)
	GetByBusinessID(businessID uint) ([]models.Survey, error)
	Update(survey *models.Survey) error
	Delete(id uint) error
	CountByBusinessID(businessID uint) (int64, error)
}

// QRCodeRepository defines the interface for QR code operations
type QRCodeRepository interface {
	Create(code *models.QRCode) error
	GetByUUID(uuid string) (*models.QRCode, error)
	GetByBusinessID(businessID uint) ([]models.QRCode, error)
	Delete(id uint) error
	CountByBusinessID(businessID uint) (int64, error)
	IncrementScanCount(id uint) error
}

// SurveyFeedbackCount is a per-survey response total for the stats view.
type SurveyFeedbackCount struct {
	SurveyID uint  `json:"survey_id"`
	Count    int64 `json:"count"`
}

// FeedbackRepository defines the interface for feedback entries
type FeedbackRepository interface {
	Create(feedback *models.Feedback) error
	CountByBusinessID(businessID uint) (int64, error)
	CountByBusinessIDSince(businessID uint, since time.Time) (int64, error)
	AverageRatingByBusinessID(businessID uint) (float64, error)
	CountPerSurvey(businessID uint) ([]SurveyFeedbackCount, error)
}

// PaymentRepository defines the interface for the append-only payment log.
// CreateIfNotExists and MarkCompletedByExternalRef key on the unique external
// reference so webhook redelivery cannot duplicate or double-apply entries.
type PaymentRepository interface {
	Create(payment *models.Payment) error
	CreateIfNotExists(payment *models.Payment) (bool, error)
	GetByExternalRef(ref string) (*models.Payment, error)
	MarkCompletedByExternalRef(ref string) (bool, error)
	ListByBusinessID(businessID uint) ([]models.Payment, error)
}

// WebhookEventRepository defines the interface for the webhook delivery log
type WebhookEventRepository interface {
	CreateIfNotExists(event *models.WebhookEvent) (bool, *models.WebhookEvent, error)
	MarkProcessed(id uint, processingError string) error
}

// Repositories holds all repository instances
type Repositories struct {
	Business     BusinessRepository
	Subscription SubscriptionRepository
	Survey       SurveyRepository
	QRCode       QRCodeRepository
	Feedback     FeedbackRepository
	Payment      PaymentRepository
	WebhookEvent WebhookEventRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Business:     NewBusinessRepository(db),
		Subscription: NewSubscriptionRepository(db),
		Survey:       NewSurveyRepository(db),
		QRCode:       NewQRCodeRepository(db),
		Feedback:     NewFeedbackRepository(db),
		Payment:      NewPaymentRepository(db),
		WebhookEvent: NewWebhookEventRepository(db),
	}
}
