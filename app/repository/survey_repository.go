package repository

import (
	"github.com/scanvey/scanvey/app/models"
	"gorm.io/gorm"
)

// surveyRepository implements the SurveyRepository interface
type surveyRepository struct {
	db *gorm.DB
}

// NewSurveyRepository creates a new survey repository instance
func NewSurveyRepository(db *gorm.DB) SurveyRepository {
	return &surveyRepository{db: db}
}

// Create creates a new survey in the database
func (r *surveyRepository) Create(survey *models.Survey) error {
	return r.db.Create(survey).Error
}

// GetByID retrieves a survey by its ID
func (r *surveyRepository) GetByID(id uint) (*models.Survey, error) {
	var survey models.Survey
	err := r.db.First(&survey, id).Error
	if err != nil {
		return nil, err
	}
	return &survey, nil
}

// GetByUUID retrieves a survey by its public UUID
func (r *surveyRepository) GetByUUID(uuid string) (*models.Survey, error) {
	var survey models.Survey
	err := r.db.Where("uuid = ?", uuid).First(&survey).Error
	if err != nil {
		return nil, err
	}
	return &survey, nil
}

// GetByBusinessID retrieves all surveys owned by a business
func (r *surveyRepository) GetByBusinessID(businessID uint) ([]models.Survey, error) {
	var surveys []models.Survey
	err := r.db.Where("business_id = ?", businessID).Order("created_at DESC").Find(&surveys).Error
	return surveys, err
}

// Update updates an existing survey
func (r *surveyRepository) Update(survey *models.Survey) error {
	return r.db.Save(survey).Error
}

// Delete soft-deletes a survey
func (r *surveyRepository) Delete(id uint) error {
	return r.db.Delete(&models.Survey{}, id).Error
}

// CountByBusinessID counts all surveys owned by a business, active or not
func (r *surveyRepository) CountByBusinessID(businessID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Survey{}).Where("business_id = ?", businessID).Count(&count).Error
	return count, err
}
