package quota

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/scanvey/scanvey/app/models"
	"github.com/scanvey/scanvey/app/repository"
	"github.com/scanvey/scanvey/internal/pkg/plans"
	"github.com/scanvey/scanvey/internal/pkg/subscription"
	"github.com/scanvey/scanvey/internal/pkg/tenantcontext"
)

type fakeSubRepo struct {
	sub *models.Subscription
}

func (f *fakeSubRepo) Create(sub *models.Subscription) error { f.sub = sub; return nil }

func (f *fakeSubRepo) GetByBusinessID(businessID uint) (*models.Subscription, error) {
	if f.sub == nil || f.sub.BusinessID != businessID {
		return nil, gorm.ErrRecordNotFound
	}
	copy := *f.sub
	return &copy, nil
}

func (f *fakeSubRepo) GetByStripeCustomerID(customerID string) (*models.Subscription, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeSubRepo) Save(sub *models.Subscription) error {
	copy := *sub
	f.sub = &copy
	return nil
}

type fakeCountRepo struct {
	surveys   int64
	qrCodes   int64
	responses int64
}

func (f *fakeCountRepo) Create(survey *models.Survey) error                 { return nil }
func (f *fakeCountRepo) GetByID(id uint) (*models.Survey, error)            { return nil, gorm.ErrRecordNotFound }
func (f *fakeCountRepo) GetByUUID(uuid string) (*models.Survey, error)      { return nil, gorm.ErrRecordNotFound }
func (f *fakeCountRepo) GetByBusinessID(id uint) ([]models.Survey, error)   { return nil, nil }
func (f *fakeCountRepo) Update(survey *models.Survey) error                 { return nil }
func (f *fakeCountRepo) Delete(id uint) error                               { return nil }
func (f *fakeCountRepo) CountByBusinessID(id uint) (int64, error)           { return f.surveys, nil }

type fakeQRCountRepo struct {
	count int64
}

func (f *fakeQRCountRepo) Create(code *models.QRCode) error                { return nil }
func (f *fakeQRCountRepo) GetByUUID(uuid string) (*models.QRCode, error)   { return nil, gorm.ErrRecordNotFound }
func (f *fakeQRCountRepo) GetByBusinessID(id uint) ([]models.QRCode, error) { return nil, nil }
func (f *fakeQRCountRepo) Delete(id uint) error                            { return nil }
func (f *fakeQRCountRepo) CountByBusinessID(id uint) (int64, error)        { return f.count, nil }
func (f *fakeQRCountRepo) IncrementScanCount(id uint) error                { return nil }

type fakeFeedbackCountRepo struct {
	count     int64
	lastSince time.Time
}

func (f *fakeFeedbackCountRepo) Create(feedback *models.Feedback) error { return nil }
func (f *fakeFeedbackCountRepo) CountByBusinessID(id uint) (int64, error) {
	return f.count, nil
}
func (f *fakeFeedbackCountRepo) CountByBusinessIDSince(id uint, since time.Time) (int64, error) {
	f.lastSince = since
	return f.count, nil
}
func (f *fakeFeedbackCountRepo) AverageRatingByBusinessID(id uint) (float64, error) { return 0, nil }
func (f *fakeFeedbackCountRepo) CountPerSurvey(id uint) ([]repository.SurveyFeedbackCount, error) {
	return nil, nil
}

type gateFixture struct {
	app      *fiber.App
	subs     *fakeSubRepo
	surveys  *fakeCountRepo
	qrCodes  *fakeQRCountRepo
	feedback *fakeFeedbackCountRepo
}

func newGateFixture(t *testing.T, sub *models.Subscription, now time.Time) *gateFixture {
	t.Helper()

	subs := &fakeSubRepo{sub: sub}
	surveys := &fakeCountRepo{}
	qrCodes := &fakeQRCountRepo{}
	feedback := &fakeFeedbackCountRepo{}

	clock := func() time.Time { return now }
	svc := subscription.NewService(subs, nil, plans.NewCatalog(nil)).WithClock(clock)
	counter := NewCounter(surveys, qrCodes, feedback)
	gate := NewGate(svc, counter).WithClock(clock)

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("TENANT_CONTEXT", tenantcontext.TenantContext{
			BusinessID: sub.BusinessID,
			IsLoggedIn: true,
			Plan:       sub.Plan,
		})
		return c.Next()
	})
	app.Use(gate.Middleware())
	ok := func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"success": true}) }
	app.Post("/api/v1/surveys", ok)
	app.Post("/api/v1/qrcodes", ok)
	app.Get("/api/v1/surveys", ok)
	app.Get("/api/v1/feedback/stats", ok)

	return &gateFixture{app: app, subs: subs, surveys: surveys, qrCodes: qrCodes, feedback: feedback}
}

func activeSub(plan string, limits models.UsageLimits) *models.Subscription {
	return &models.Subscription{
		BusinessID:  1,
		Plan:        plan,
		Status:      models.SubscriptionStatusActive,
		UsageLimits: limits,
	}
}

func freeLimits() models.UsageLimits {
	return models.UsageLimits{MaxSurveys: 1, MaxQRCodes: 1, MaxResponsesPerMonth: 100}
}

func responseBody(t *testing.T, body io.Reader) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.NewDecoder(body).Decode(&out))
	return out
}

func TestGateAllowsCreateUnderLimit(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	fx := newGateFixture(t, activeSub(models.PlanFree, freeLimits()), now)
	fx.surveys.surveys = 0

	resp, err := fx.app.Test(httptest.NewRequest(fiber.MethodPost, "/api/v1/surveys", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestGateDeniesCreateAtLimit(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	fx := newGateFixture(t, activeSub(models.PlanFree, freeLimits()), now)
	fx.surveys.surveys = 1

	resp, err := fx.app.Test(httptest.NewRequest(fiber.MethodPost, "/api/v1/surveys", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	body := responseBody(t, resp.Body)
	assert.Equal(t, false, body["success"])
	assert.Contains(t, body["message"], "1")
	assert.Contains(t, body["message"], "upgrade")
}

func TestGateDeniesQRCodeAtLimit(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	fx := newGateFixture(t, activeSub(models.PlanBasic, models.UsageLimits{MaxSurveys: 5, MaxQRCodes: 10, MaxResponsesPerMonth: 1000}), now)
	fx.qrCodes.count = 10

	resp, err := fx.app.Test(httptest.NewRequest(fiber.MethodPost, "/api/v1/qrcodes", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	body := responseBody(t, resp.Body)
	assert.Contains(t, body["message"], "10")
}

func TestGateUnlimitedPlanNeverDenies(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	unlimited := models.UsageLimits{
		MaxSurveys:           models.UnlimitedLimit,
		MaxQRCodes:           models.UnlimitedLimit,
		MaxResponsesPerMonth: models.UnlimitedLimit,
	}
	fx := newGateFixture(t, activeSub(models.PlanPro, unlimited), now)
	fx.surveys.surveys = 100000

	resp, err := fx.app.Test(httptest.NewRequest(fiber.MethodPost, "/api/v1/surveys", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestGateIgnoresUngatedRoutes(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	fx := newGateFixture(t, activeSub(models.PlanFree, freeLimits()), now)
	fx.surveys.surveys = 5

	resp, err := fx.app.Test(httptest.NewRequest(fiber.MethodGet, "/api/v1/surveys", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestGateStatsWarningNearLimit(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	fx := newGateFixture(t, activeSub(models.PlanFree, freeLimits()), now)
	fx.feedback.count = 80

	resp, err := fx.app.Test(httptest.NewRequest(fiber.MethodGet, "/api/v1/feedback/stats", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "80 of 100 used", resp.Header.Get(HeaderQuotaWarning))
	assert.Empty(t, resp.Header.Get(HeaderQuotaExceeded))
}

func TestGateStatsExceededOverLimit(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	fx := newGateFixture(t, activeSub(models.PlanFree, freeLimits()), now)
	fx.feedback.count = 101

	resp, err := fx.app.Test(httptest.NewRequest(fiber.MethodGet, "/api/v1/feedback/stats", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "101 of 100 used", resp.Header.Get(HeaderQuotaWarning))
	assert.Equal(t, "true", resp.Header.Get(HeaderQuotaExceeded))
}

func TestGateStatsQuietUnderThreshold(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	fx := newGateFixture(t, activeSub(models.PlanFree, freeLimits()), now)
	fx.feedback.count = 50

	resp, err := fx.app.Test(httptest.NewRequest(fiber.MethodGet, "/api/v1/feedback/stats", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Empty(t, resp.Header.Get(HeaderQuotaWarning))
	assert.Empty(t, resp.Header.Get(HeaderQuotaExceeded))
}

func TestGateLapsedTrialDeniesAndPersistsExpiration(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	trialEnd := now.Add(-time.Hour)
	sub := &models.Subscription{
		BusinessID:  1,
		Plan:        models.PlanFree,
		Status:      models.SubscriptionStatusTrial,
		TrialEndsAt: &trialEnd,
		UsageLimits: freeLimits(),
	}
	fx := newGateFixture(t, sub, now)

	resp, err := fx.app.Test(httptest.NewRequest(fiber.MethodPost, "/api/v1/surveys", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	body := responseBody(t, resp.Body)
	assert.Equal(t, "subscription inactive", body["message"])
	assert.Equal(t, models.SubscriptionStatusExpired, fx.subs.sub.Status)
}

func TestGateCanceledBeforePeriodEndStillAllowed(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	periodEnd := now.Add(24 * time.Hour)
	sub := &models.Subscription{
		BusinessID:   1,
		Plan:         models.PlanBasic,
		Status:       models.SubscriptionStatusCanceled,
		PeriodEndsAt: &periodEnd,
		UsageLimits:  models.UsageLimits{MaxSurveys: 5, MaxQRCodes: 10, MaxResponsesPerMonth: 1000},
	}
	fx := newGateFixture(t, sub, now)
	fx.surveys.surveys = 2

	resp, err := fx.app.Test(httptest.NewRequest(fiber.MethodPost, "/api/v1/surveys", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
