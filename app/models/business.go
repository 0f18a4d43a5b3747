package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	BUSINESS_STATUS_ACTIVE   = "active"
	BUSINESS_STATUS_INACTIVE = "inactive"
	BUSINESS_STATUS_DISABLED = "disabled"
)

// Business is the tenant account: the unit of subscription and resource
// ownership. Every survey, QR code and feedback entry belongs to one.
type Business struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Name        string         `gorm:"type:varchar(150)" json:"name" validate:"required,min=2,max=150"`
	Email       string         `gorm:"uniqueIndex;type:varchar(200) CHARACTER SET utf8 COLLATE utf8_bin" json:"email" validate:"required,email,min=5,max=200"`
	Password    string         `gorm:"type:text" json:"-" validate:"required,min=6"`
	Status      string         `gorm:"type:varchar(50);default:'active'" json:"status" validate:"oneof=active inactive disabled"`
	LastLoginAt *time.Time     `gorm:"type:timestamp;default:null" json:"last_login_at"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (b *Business) Validate() error {
	v := validator.New()

	return v.Struct(b)
}

func CreateBusiness(name string, email string, password string) (*Business, error) {
	pw, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	b := &Business{
		Name:     name,
		Email:    email,
		Password: pw,
		Status:   BUSINESS_STATUS_ACTIVE,
	}

	if err := b.Validate(); err != nil {
		return nil, err
	}

	return b, nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

	return string(bytes), err
}

// CheckPasswordHash compares the given password with the stored hash.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))

	return err == nil
}

// CheckPassword verifies if the provided password matches the stored one.
func (b *Business) CheckPassword(password string) bool {
	return CheckPasswordHash(password, b.Password)
}
