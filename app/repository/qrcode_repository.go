package repository

import (
	"github.com/scanvey/scanvey/app/models"
	"gorm.io/gorm"
)

// qrCodeRepository implements the QRCodeRepository interface
type qrCodeRepository struct {
	db *gorm.DB
}

// NewQRCodeRepository creates a new QR code repository instance
func NewQRCodeRepository(db *gorm.DB) QRCodeRepository {
	return &qrCodeRepository{db: db}
}

// Create creates a new QR code in the database
func (r *qrCodeRepository) Create(code *models.QRCode) error {
	return r.db.Create(code).Error
}

// GetByUUID retrieves a QR code by its public UUID
func (r *qrCodeRepository) GetByUUID(uuid string) (*models.QRCode, error) {
	var code models.QRCode
	err := r.db.Where("uuid = ?", uuid).First(&code).Error
	if err != nil {
		return nil, err
	}
	return &code, nil
}

// GetByBusinessID retrieves all QR codes owned by a business
func (r *qrCodeRepository) GetByBusinessID(businessID uint) ([]models.QRCode, error) {
	var codes []models.QRCode
	err := r.db.Where("business_id = ?", businessID).Order("created_at DESC").Find(&codes).Error
	return codes, err
}

// Delete soft-deletes a QR code
func (r *qrCodeRepository) Delete(id uint) error {
	return r.db.Delete(&models.QRCode{}, id).Error
}

// CountByBusinessID counts all QR codes owned by a business
func (r *qrCodeRepository) CountByBusinessID(businessID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.QRCode{}).Where("business_id = ?", businessID).Count(&count).Error
	return count, err
}

// IncrementScanCount bumps the scan counter for a code
func (r *qrCodeRepository) IncrementScanCount(id uint) error {
	return r.db.Model(&models.QRCode{}).Where("id = ?", id).
		UpdateColumn("scan_count", gorm.Expr("scan_count + 1")).Error
}
