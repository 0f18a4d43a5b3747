package controllers

import (
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/scanvey/scanvey/app/models"
	"github.com/scanvey/scanvey/app/repository"
	"github.com/scanvey/scanvey/internal/pkg/quota"
	"github.com/scanvey/scanvey/internal/pkg/tenantcontext"
)

// FeedbackController serves the public respondent surface and the gated
// stats view. Submission is intentionally never quota-gated: a customer
// scanning a code must not be refused because the business is over its plan.
type FeedbackController struct {
	repos   *repository.Repositories
	counter *quota.Counter
}

// NewFeedbackController creates the feedback controller.
func NewFeedbackController(repos *repository.Repositories, counter *quota.Counter) *FeedbackController {
	return &FeedbackController{repos: repos, counter: counter}
}

type feedbackRequest struct {
	Rating  int             `json:"rating" validate:"min=0,max=5"`
	Comment string          `json:"comment" validate:"max=4000"`
	Answers json.RawMessage `json:"answers"`
}

// HandlePublicSurvey returns an active survey for anonymous respondents.
func (fc *FeedbackController) HandlePublicSurvey(c *fiber.Ctx) error {
	survey, err := fc.repos.Survey.GetByUUID(c.Params("uuid"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fail(c, fiber.StatusNotFound, "survey not found")
		}
		log.Printf("public survey lookup failed: %v", err)
		return fail(c, fiber.StatusInternalServerError, "survey lookup failed")
	}
	if !survey.IsActive {
		return fail(c, fiber.StatusNotFound, "survey not found")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"survey": fiber.Map{
			"uuid":        survey.UUID,
			"title":       survey.Title,
			"description": survey.Description,
			"questions":   survey.Questions,
		},
	})
}

// HandleSubmit stores an anonymous feedback entry. When the request carries a
// qr query parameter the matching code's scan counter is bumped.
func (fc *FeedbackController) HandleSubmit(c *fiber.Ctx) error {
	survey, err := fc.repos.Survey.GetByUUID(c.Params("uuid"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fail(c, fiber.StatusNotFound, "survey not found")
		}
		log.Printf("feedback submit: survey lookup failed: %v", err)
		return fail(c, fiber.StatusInternalServerError, "feedback submission failed")
	}
	if !survey.IsActive {
		return fail(c, fiber.StatusNotFound, "survey not found")
	}

	var req feedbackRequest
	if msg, ok := parseBody(c, &req); !ok {
		return fail(c, fiber.StatusBadRequest, msg)
	}

	feedback := &models.Feedback{
		BusinessID: survey.BusinessID,
		SurveyID:   survey.ID,
		Rating:     req.Rating,
		Comment:    req.Comment,
	}
	if len(req.Answers) > 0 {
		a := models.JSON(req.Answers)
		feedback.Answers = &a
	}

	if codeUUID := c.Query("qr"); codeUUID != "" {
		if code, err := fc.repos.QRCode.GetByUUID(codeUUID); err == nil && code.SurveyID == survey.ID {
			feedback.QRCodeID = &code.ID
			if err := fc.repos.QRCode.IncrementScanCount(code.ID); err != nil {
				log.Printf("feedback submit: scan count bump failed for code %d: %v", code.ID, err)
			}
		}
	}

	if err := fc.repos.Feedback.Create(feedback); err != nil {
		log.Printf("feedback submit failed for survey %d: %v", survey.ID, err)
		return fail(c, fiber.StatusInternalServerError, "feedback submission failed")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true})
}

// HandleStats returns feedback statistics for the business. The quota gate
// runs ahead of this handler and attaches usage annotations when the monthly
// response count nears or passes the plan limit.
func (fc *FeedbackController) HandleStats(c *fiber.Ctx) error {
	businessID := tenantcontext.GetBusinessID(c)

	total, err := fc.repos.Feedback.CountByBusinessID(businessID)
	if err != nil {
		log.Printf("feedback stats failed for business %d: %v", businessID, err)
		return fail(c, fiber.StatusInternalServerError, "stats computation failed")
	}
	thisMonth, err := fc.counter.ResponsesThisMonth(businessID, time.Now())
	if err != nil {
		log.Printf("feedback stats failed for business %d: %v", businessID, err)
		return fail(c, fiber.StatusInternalServerError, "stats computation failed")
	}
	avgRating, err := fc.repos.Feedback.AverageRatingByBusinessID(businessID)
	if err != nil {
		log.Printf("feedback stats failed for business %d: %v", businessID, err)
		return fail(c, fiber.StatusInternalServerError, "stats computation failed")
	}
	perSurvey, err := fc.repos.Feedback.CountPerSurvey(businessID)
	if err != nil {
		log.Printf("feedback stats failed for business %d: %v", businessID, err)
		return fail(c, fiber.StatusInternalServerError, "stats computation failed")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"stats": fiber.Map{
			"total_responses": total,
			"this_month":      thisMonth,
			"average_rating":  avgRating,
			"per_survey":      perSurvey,
		},
	})
}
