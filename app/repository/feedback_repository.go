package repository

import (
	"time"

	"github.com/scanvey/scanvey/app/models"
	"gorm.io/gorm"
)

// feedbackRepository implements the FeedbackRepository interface
type feedbackRepository struct {
	db *gorm.DB
}

// NewFeedbackRepository creates a new feedback repository instance
func NewFeedbackRepository(db *gorm.DB) FeedbackRepository {
	return &feedbackRepository{db: db}
}

// Create stores a new feedback entry
func (r *feedbackRepository) Create(feedback *models.Feedback) error {
	return r.db.Create(feedback).Error
}

// CountByBusinessID counts all feedback entries owned by a business
func (r *feedbackRepository) CountByBusinessID(businessID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Feedback{}).Where("business_id = ?", businessID).Count(&count).Error
	return count, err
}

// CountByBusinessIDSince counts feedback entries submitted at or after the
// given instant
func (r *feedbackRepository) CountByBusinessIDSince(businessID uint, since time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&models.Feedback{}).
		Where("business_id = ? AND created_at >= ?", businessID, since).
		Count(&count).Error
	return count, err
}

// AverageRatingByBusinessID computes the mean rating over rated entries
func (r *feedbackRepository) AverageRatingByBusinessID(businessID uint) (float64, error) {
	var avg *float64
	err := r.db.Model(&models.Feedback{}).
		Where("business_id = ? AND rating > 0", businessID).
		Select("AVG(rating)").Scan(&avg).Error
	if err != nil || avg == nil {
		return 0, err
	}
	return *avg, nil
}

// CountPerSurvey groups feedback totals by survey
func (r *feedbackRepository) CountPerSurvey(businessID uint) ([]SurveyFeedbackCount, error) {
	var counts []SurveyFeedbackCount
	err := r.db.Model(&models.Feedback{}).
		Where("business_id = ?", businessID).
		Select("survey_id, COUNT(*) as count").
		Group("survey_id").
		Scan(&counts).Error
	return counts, err
}
