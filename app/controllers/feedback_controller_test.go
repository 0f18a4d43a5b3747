package controllers

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/scanvey/scanvey/app/models"
	"github.com/scanvey/scanvey/app/repository"
)

type stubSurveyRepo struct {
	byUUID map[string]*models.Survey
}

func (s *stubSurveyRepo) Create(survey *models.Survey) error { return nil }
func (s *stubSurveyRepo) GetByID(id uint) (*models.Survey, error) {
	for _, survey := range s.byUUID {
		if survey.ID == id {
			return survey, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}
func (s *stubSurveyRepo) GetByUUID(uuid string) (*models.Survey, error) {
	if survey, ok := s.byUUID[uuid]; ok {
		return survey, nil
	}
	return nil, gorm.ErrRecordNotFound
}
func (s *stubSurveyRepo) GetByBusinessID(id uint) ([]models.Survey, error) { return nil, nil }
func (s *stubSurveyRepo) Update(survey *models.Survey) error               { return nil }
func (s *stubSurveyRepo) Delete(id uint) error                             { return nil }
func (s *stubSurveyRepo) CountByBusinessID(id uint) (int64, error)         { return 0, nil }

type stubQRCodeRepo struct {
	byUUID     map[string]*models.QRCode
	increments []uint
}

func (s *stubQRCodeRepo) Create(code *models.QRCode) error { return nil }
func (s *stubQRCodeRepo) GetByUUID(uuid string) (*models.QRCode, error) {
	if code, ok := s.byUUID[uuid]; ok {
		return code, nil
	}
	return nil, gorm.ErrRecordNotFound
}
func (s *stubQRCodeRepo) GetByBusinessID(id uint) ([]models.QRCode, error) { return nil, nil }
func (s *stubQRCodeRepo) Delete(id uint) error                             { return nil }
func (s *stubQRCodeRepo) CountByBusinessID(id uint) (int64, error)         { return 0, nil }
func (s *stubQRCodeRepo) IncrementScanCount(id uint) error {
	s.increments = append(s.increments, id)
	return nil
}

type stubFeedbackRepo struct {
	created []models.Feedback
}

func (s *stubFeedbackRepo) Create(feedback *models.Feedback) error {
	s.created = append(s.created, *feedback)
	return nil
}
func (s *stubFeedbackRepo) CountByBusinessID(id uint) (int64, error) { return 0, nil }
func (s *stubFeedbackRepo) CountByBusinessIDSince(id uint, since time.Time) (int64, error) {
	return 0, nil
}
func (s *stubFeedbackRepo) AverageRatingByBusinessID(id uint) (float64, error) { return 0, nil }
func (s *stubFeedbackRepo) CountPerSurvey(id uint) ([]repository.SurveyFeedbackCount, error) {
	return nil, nil
}

func newFeedbackTestApp(t *testing.T) (*fiber.App, *stubSurveyRepo, *stubQRCodeRepo, *stubFeedbackRepo) {
	t.Helper()

	surveys := &stubSurveyRepo{byUUID: map[string]*models.Survey{
		"11111111-1111-4111-8111-111111111111": {
			ID:         1,
			UUID:       "11111111-1111-4111-8111-111111111111",
			BusinessID: 7,
			Title:      "How was your visit?",
			IsActive:   true,
		},
		"22222222-2222-4222-8222-222222222222": {
			ID:         2,
			UUID:       "22222222-2222-4222-8222-222222222222",
			BusinessID: 7,
			Title:      "Retired survey",
			IsActive:   false,
		},
	}}
	qrCodes := &stubQRCodeRepo{byUUID: map[string]*models.QRCode{
		"33333333-3333-4333-8333-333333333333": {
			ID:         9,
			UUID:       "33333333-3333-4333-8333-333333333333",
			BusinessID: 7,
			SurveyID:   1,
		},
	}}
	feedback := &stubFeedbackRepo{}

	repos := &repository.Repositories{
		Survey:   surveys,
		QRCode:   qrCodes,
		Feedback: feedback,
	}
	fc := NewFeedbackController(repos, nil)

	app := fiber.New()
	app.Get("/s/:uuid", fc.HandlePublicSurvey)
	app.Post("/s/:uuid/feedback", fc.HandleSubmit)

	return app, surveys, qrCodes, feedback
}

func TestPublicSurveyReturnsActiveSurvey(t *testing.T) {
	app, _, _, _ := newFeedbackTestApp(t)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/s/11111111-1111-4111-8111-111111111111", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestPublicSurveyHidesInactiveSurvey(t *testing.T) {
	app, _, _, _ := newFeedbackTestApp(t)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/s/22222222-2222-4222-8222-222222222222", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestPublicSurveyUnknownUUID(t *testing.T) {
	app, _, _, _ := newFeedbackTestApp(t)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/s/99999999-9999-4999-8999-999999999999", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestSubmitFeedbackStoresEntry(t *testing.T) {
	app, _, _, feedback := newFeedbackTestApp(t)

	req := httptest.NewRequest(fiber.MethodPost, "/s/11111111-1111-4111-8111-111111111111/feedback",
		strings.NewReader(`{"rating": 4, "comment": "great coffee"}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	require.Len(t, feedback.created, 1)
	entry := feedback.created[0]
	assert.Equal(t, uint(7), entry.BusinessID)
	assert.Equal(t, uint(1), entry.SurveyID)
	assert.Equal(t, 4, entry.Rating)
	assert.Equal(t, "great coffee", entry.Comment)
	assert.Nil(t, entry.QRCodeID)
}

func TestSubmitFeedbackCountsQRScan(t *testing.T) {
	app, _, qrCodes, feedback := newFeedbackTestApp(t)

	req := httptest.NewRequest(fiber.MethodPost,
		"/s/11111111-1111-4111-8111-111111111111/feedback?qr=33333333-3333-4333-8333-333333333333",
		strings.NewReader(`{"rating": 5}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	require.Len(t, feedback.created, 1)
	require.NotNil(t, feedback.created[0].QRCodeID)
	assert.Equal(t, uint(9), *feedback.created[0].QRCodeID)
	assert.Equal(t, []uint{9}, qrCodes.increments)
}

func TestSubmitFeedbackIgnoresForeignQRCode(t *testing.T) {
	app, _, qrCodes, feedback := newFeedbackTestApp(t)

	// Code belongs to survey 1, submission targets the inactive survey's route
	// with an unknown code uuid.
	req := httptest.NewRequest(fiber.MethodPost,
		"/s/11111111-1111-4111-8111-111111111111/feedback?qr=99999999-9999-4999-8999-999999999999",
		strings.NewReader(`{"rating": 3}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	require.Len(t, feedback.created, 1)
	assert.Nil(t, feedback.created[0].QRCodeID)
	assert.Empty(t, qrCodes.increments)
}

func TestSubmitFeedbackRejectsInvalidRating(t *testing.T) {
	app, _, _, feedback := newFeedbackTestApp(t)

	req := httptest.NewRequest(fiber.MethodPost, "/s/11111111-1111-4111-8111-111111111111/feedback",
		strings.NewReader(`{"rating": 9}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, feedback.created)
}

func TestSubmitFeedbackToInactiveSurvey(t *testing.T) {
	app, _, _, feedback := newFeedbackTestApp(t)

	req := httptest.NewRequest(fiber.MethodPost, "/s/22222222-2222-4222-8222-222222222222/feedback",
		strings.NewReader(`{"rating": 4}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Empty(t, feedback.created)
}
