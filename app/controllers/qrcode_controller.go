package controllers

import (
	"errors"
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	qrcode "github.com/skip2/go-qrcode"
	"gorm.io/gorm"

	"github.com/scanvey/scanvey/app/models"
	"github.com/scanvey/scanvey/app/repository"
	"github.com/scanvey/scanvey/internal/pkg/env"
	"github.com/scanvey/scanvey/internal/pkg/tenantcontext"
)

// QRCodeController manages QR codes pointing at surveys. Creation is
// quota-gated by the middleware mounted ahead of these routes; the PNG itself
// is rendered on demand and never stored.
type QRCodeController struct {
	repos *repository.Repositories
}

// NewQRCodeController creates the QR code controller.
func NewQRCodeController(repos *repository.Repositories) *QRCodeController {
	return &QRCodeController{repos: repos}
}

type qrCodeRequest struct {
	SurveyUUID string `json:"survey_uuid" validate:"required,uuid4"`
	Label      string `json:"label" validate:"max=150"`
}

// HandleCreate creates a QR code for one of the business's surveys.
func (qc *QRCodeController) HandleCreate(c *fiber.Ctx) error {
	businessID := tenantcontext.GetBusinessID(c)

	var req qrCodeRequest
	if msg, ok := parseBody(c, &req); !ok {
		return fail(c, fiber.StatusBadRequest, msg)
	}

	survey, err := qc.repos.Survey.GetByUUID(req.SurveyUUID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fail(c, fiber.StatusNotFound, "survey not found")
		}
		log.Printf("qr create: survey lookup failed: %v", err)
		return fail(c, fiber.StatusInternalServerError, "QR code creation failed")
	}
	if survey.BusinessID != businessID {
		return fail(c, fiber.StatusNotFound, "survey not found")
	}

	code := &models.QRCode{
		BusinessID: businessID,
		SurveyID:   survey.ID,
		Label:      req.Label,
	}
	if err := qc.repos.QRCode.Create(code); err != nil {
		log.Printf("qr create failed for business %d: %v", businessID, err)
		return fail(c, fiber.StatusInternalServerError, "QR code creation failed")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":  true,
		"qr_code":  code,
		"scan_url": scanURL(survey.UUID, code.UUID),
	})
}

// HandleList returns all QR codes of the business.
func (qc *QRCodeController) HandleList(c *fiber.Ctx) error {
	businessID := tenantcontext.GetBusinessID(c)

	codes, err := qc.repos.QRCode.GetByBusinessID(businessID)
	if err != nil {
		log.Printf("qr list failed for business %d: %v", businessID, err)
		return fail(c, fiber.StatusInternalServerError, "QR code listing failed")
	}
	return c.JSON(fiber.Map{
		"success":  true,
		"qr_codes": codes,
	})
}

// HandleDelete soft-deletes a QR code.
func (qc *QRCodeController) HandleDelete(c *fiber.Ctx) error {
	code, ok := qc.ownedCode(c)
	if !ok {
		return nil
	}
	if err := qc.repos.QRCode.Delete(code.ID); err != nil {
		log.Printf("qr delete failed for code %d: %v", code.ID, err)
		return fail(c, fiber.StatusInternalServerError, "QR code deletion failed")
	}
	return c.JSON(fiber.Map{"success": true})
}

// HandleImage renders the QR code as a PNG. Encoding is delegated to the
// go-qrcode library.
func (qc *QRCodeController) HandleImage(c *fiber.Ctx) error {
	code, ok := qc.ownedCode(c)
	if !ok {
		return nil
	}

	survey, err := qc.repos.Survey.GetByID(code.SurveyID)
	if err != nil {
		log.Printf("qr image: survey lookup failed for code %d: %v", code.ID, err)
		return fail(c, fiber.StatusInternalServerError, "QR image rendering failed")
	}

	png, err := qrcode.Encode(scanURL(survey.UUID, code.UUID), qrcode.Medium, 512)
	if err != nil {
		log.Printf("qr image encoding failed for code %d: %v", code.ID, err)
		return fail(c, fiber.StatusInternalServerError, "QR image rendering failed")
	}

	c.Set(fiber.HeaderContentType, "image/png")
	return c.Send(png)
}

// ownedCode loads the QR code from the :uuid param and enforces ownership.
// When it reports false the response has already been written.
func (qc *QRCodeController) ownedCode(c *fiber.Ctx) (*models.QRCode, bool) {
	businessID := tenantcontext.GetBusinessID(c)

	code, err := qc.repos.QRCode.GetByUUID(c.Params("uuid"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			_ = fail(c, fiber.StatusNotFound, "QR code not found")
			return nil, false
		}
		log.Printf("qr lookup failed: %v", err)
		_ = fail(c, fiber.StatusInternalServerError, "QR code lookup failed")
		return nil, false
	}
	if code.BusinessID != businessID {
		_ = fail(c, fiber.StatusNotFound, "QR code not found")
		return nil, false
	}
	return code, true
}

// scanURL builds the public link a printed QR code resolves to.
func scanURL(surveyUUID, codeUUID string) string {
	base := env.GetEnv("PUBLIC_DOMAIN", "http://localhost:4000")
	return fmt.Sprintf("%s/s/%s?qr=%s", base, surveyUUID, codeUUID)
}
