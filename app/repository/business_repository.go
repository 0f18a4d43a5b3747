package repository

import (
	"github.com/scanvey/scanvey/app/models"
	"gorm.io/gorm"
)

// businessRepository implements the BusinessRepository interface
type businessRepository struct {
	db *gorm.DB
}

// NewBusinessRepository creates a new business repository instance
func NewBusinessRepository(db *gorm.DB) BusinessRepository {
	return &businessRepository{db: db}
}

// Create creates a new business in the database
func (r *businessRepository) Create(business *models.Business) error {
	return r.db.Create(business).Error
}

// GetByID retrieves a business by its ID
func (r *businessRepository) GetByID(id uint) (*models.Business, error) {
	var business models.Business
	err := r.db.First(&business, id).Error
	if err != nil {
		return nil, err
	}
	return &business, nil
}

// GetByEmail retrieves a business by its email address
func (r *businessRepository) GetByEmail(email string) (*models.Business, error) {
	var business models.Business
	err := r.db.Where("email = ?", email).First(&business).Error
	if err != nil {
		return nil, err
	}
	return &business, nil
}

// Update updates an existing business
func (r *businessRepository) Update(business *models.Business) error {
	return r.db.Save(business).Error
}
