package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// QRCode links a printed code to a survey. The image itself is rendered on
// demand; only the metadata and scan counter are stored.
type QRCode struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	UUID       string         `gorm:"type:char(36) CHARACTER SET utf8 COLLATE utf8_bin;uniqueIndex;not null" json:"uuid"`
	BusinessID uint           `gorm:"not null;index" json:"business_id"`
	SurveyID   uint           `gorm:"not null;index" json:"survey_id"`
	Survey     Survey         `gorm:"foreignKey:SurveyID" json:"-"`
	Label      string         `gorm:"type:varchar(150)" json:"label" validate:"max=150"`
	ScanCount  int64          `gorm:"default:0" json:"scan_count"`
	CreatedAt  time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate assigns the public UUID if none was set.
func (q *QRCode) BeforeCreate(tx *gorm.DB) error {
	if q.UUID == "" {
		q.UUID = uuid.New().String()
	}
	return nil
}
