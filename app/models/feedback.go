package models

import "time"

// Feedback is one anonymous survey response. Append-only; submission is never
// blocked by quota enforcement, so counts may exceed the plan limit.
type Feedback struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	BusinessID uint      `gorm:"not null;index:idx_feedback_business_created,priority:1" json:"business_id"`
	SurveyID   uint      `gorm:"not null;index" json:"survey_id"`
	QRCodeID   *uint     `gorm:"index" json:"qr_code_id,omitempty"`
	Rating     int       `gorm:"type:int" json:"rating" validate:"min=0,max=5"`
	Comment    string    `gorm:"type:text" json:"comment" validate:"max=4000"`
	Answers    *JSON     `gorm:"type:json" json:"answers"`
	CreatedAt  time.Time `gorm:"autoCreateTime;index:idx_feedback_business_created,priority:2" json:"created_at"`
}
