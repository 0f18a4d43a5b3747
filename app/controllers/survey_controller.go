package controllers

import (
	"encoding/json"
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/scanvey/scanvey/app/models"
	"github.com/scanvey/scanvey/app/repository"
	"github.com/scanvey/scanvey/internal/pkg/tenantcontext"
)

// SurveyController handles survey CRUD for the authenticated business.
// Creation is quota-gated by the middleware mounted ahead of these routes.
type SurveyController struct {
	repos *repository.Repositories
}

// NewSurveyController creates the survey controller.
func NewSurveyController(repos *repository.Repositories) *SurveyController {
	return &SurveyController{repos: repos}
}

type surveyRequest struct {
	Title       string          `json:"title" validate:"required,min=2,max=255"`
	Description string          `json:"description" validate:"max=2000"`
	Questions   json.RawMessage `json:"questions"`
	IsActive    *bool           `json:"is_active"`
}

// HandleCreate creates a new survey.
func (sc *SurveyController) HandleCreate(c *fiber.Ctx) error {
	businessID := tenantcontext.GetBusinessID(c)

	var req surveyRequest
	if msg, ok := parseBody(c, &req); !ok {
		return fail(c, fiber.StatusBadRequest, msg)
	}

	survey := &models.Survey{
		BusinessID:  businessID,
		Title:       req.Title,
		Description: req.Description,
		IsActive:    true,
	}
	if len(req.Questions) > 0 {
		q := models.JSON(req.Questions)
		survey.Questions = &q
	}
	if req.IsActive != nil {
		survey.IsActive = *req.IsActive
	}

	if err := sc.repos.Survey.Create(survey); err != nil {
		log.Printf("survey create failed for business %d: %v", businessID, err)
		return fail(c, fiber.StatusInternalServerError, "survey creation failed")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"survey":  survey,
	})
}

// HandleList returns all surveys of the business.
func (sc *SurveyController) HandleList(c *fiber.Ctx) error {
	businessID := tenantcontext.GetBusinessID(c)

	surveys, err := sc.repos.Survey.GetByBusinessID(businessID)
	if err != nil {
		log.Printf("survey list failed for business %d: %v", businessID, err)
		return fail(c, fiber.StatusInternalServerError, "survey listing failed")
	}
	return c.JSON(fiber.Map{
		"success": true,
		"surveys": surveys,
	})
}

// HandleGet returns one survey by UUID, scoped to the business.
func (sc *SurveyController) HandleGet(c *fiber.Ctx) error {
	survey, ok := sc.ownedSurvey(c)
	if !ok {
		return nil
	}
	return c.JSON(fiber.Map{
		"success": true,
		"survey":  survey,
	})
}

// HandleUpdate updates title, description, questions or active flag.
func (sc *SurveyController) HandleUpdate(c *fiber.Ctx) error {
	survey, ok := sc.ownedSurvey(c)
	if !ok {
		return nil
	}

	var req surveyRequest
	if msg, ok := parseBody(c, &req); !ok {
		return fail(c, fiber.StatusBadRequest, msg)
	}

	survey.Title = req.Title
	survey.Description = req.Description
	if len(req.Questions) > 0 {
		q := models.JSON(req.Questions)
		survey.Questions = &q
	}
	if req.IsActive != nil {
		survey.IsActive = *req.IsActive
	}

	if err := sc.repos.Survey.Update(survey); err != nil {
		log.Printf("survey update failed for survey %d: %v", survey.ID, err)
		return fail(c, fiber.StatusInternalServerError, "survey update failed")
	}
	return c.JSON(fiber.Map{
		"success": true,
		"survey":  survey,
	})
}

// HandleDelete soft-deletes a survey.
func (sc *SurveyController) HandleDelete(c *fiber.Ctx) error {
	survey, ok := sc.ownedSurvey(c)
	if !ok {
		return nil
	}
	if err := sc.repos.Survey.Delete(survey.ID); err != nil {
		log.Printf("survey delete failed for survey %d: %v", survey.ID, err)
		return fail(c, fiber.StatusInternalServerError, "survey deletion failed")
	}
	return c.JSON(fiber.Map{"success": true})
}

// ownedSurvey loads the survey from the :uuid param and enforces ownership.
// When it reports false the response has already been written.
func (sc *SurveyController) ownedSurvey(c *fiber.Ctx) (*models.Survey, bool) {
	businessID := tenantcontext.GetBusinessID(c)

	survey, err := sc.repos.Survey.GetByUUID(c.Params("uuid"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			_ = fail(c, fiber.StatusNotFound, "survey not found")
			return nil, false
		}
		log.Printf("survey lookup failed: %v", err)
		_ = fail(c, fiber.StatusInternalServerError, "survey lookup failed")
		return nil, false
	}
	if survey.BusinessID != businessID {
		_ = fail(c, fiber.StatusNotFound, "survey not found")
		return nil, false
	}
	return survey, true
}
