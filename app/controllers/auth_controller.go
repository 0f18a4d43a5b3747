package controllers

import (
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/scanvey/scanvey/app/models"
	"github.com/scanvey/scanvey/app/repository"
	"github.com/scanvey/scanvey/internal/pkg/plans"
	"github.com/scanvey/scanvey/internal/pkg/session"
	"github.com/scanvey/scanvey/internal/pkg/tenantcontext"
)

// AuthController handles business registration and session auth.
type AuthController struct {
	repos   *repository.Repositories
	catalog *plans.Catalog
}

// NewAuthController creates the auth controller.
func NewAuthController(repos *repository.Repositories, catalog *plans.Catalog) *AuthController {
	return &AuthController{repos: repos, catalog: catalog}
}

type registerRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=150"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// HandleRegister creates a business account together with its trial
// subscription: 14 days of access on free-tier limits.
func (ac *AuthController) HandleRegister(c *fiber.Ctx) error {
	var req registerRequest
	if msg, ok := parseBody(c, &req); !ok {
		return fail(c, fiber.StatusBadRequest, msg)
	}

	if _, err := ac.repos.Business.GetByEmail(req.Email); err == nil {
		return fail(c, fiber.StatusConflict, "email already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("register: email lookup failed: %v", err)
		return fail(c, fiber.StatusInternalServerError, "registration failed")
	}

	business, err := models.CreateBusiness(req.Name, req.Email, req.Password)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, err.Error())
	}
	if err := ac.repos.Business.Create(business); err != nil {
		log.Printf("register: create business failed: %v", err)
		return fail(c, fiber.StatusInternalServerError, "registration failed")
	}

	sub := models.NewTrialSubscription(business.ID, ac.catalog.LimitsFor(models.PlanFree), time.Now())
	if err := ac.repos.Subscription.Create(sub); err != nil {
		log.Printf("register: create subscription failed: %v", err)
		return fail(c, fiber.StatusInternalServerError, "registration failed")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":  true,
		"business": business,
	})
}

// HandleLogin authenticates a business and opens a session.
func (ac *AuthController) HandleLogin(c *fiber.Ctx) error {
	var req loginRequest
	if msg, ok := parseBody(c, &req); !ok {
		return fail(c, fiber.StatusBadRequest, msg)
	}

	business, err := ac.repos.Business.GetByEmail(req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fail(c, fiber.StatusUnauthorized, "invalid credentials")
		}
		log.Printf("login: lookup failed: %v", err)
		return fail(c, fiber.StatusInternalServerError, "login failed")
	}
	if !business.CheckPassword(req.Password) {
		return fail(c, fiber.StatusUnauthorized, "invalid credentials")
	}
	if business.Status != models.BUSINESS_STATUS_ACTIVE {
		return fail(c, fiber.StatusForbidden, "account disabled")
	}

	if err := session.SetSessionValue(c, tenantcontext.KeyBusinessID, strconv.FormatUint(uint64(business.ID), 10)); err != nil {
		log.Printf("login: session save failed: %v", err)
		return fail(c, fiber.StatusInternalServerError, "login failed")
	}

	now := time.Now()
	business.LastLoginAt = &now
	if err := ac.repos.Business.Update(business); err != nil {
		log.Printf("login: failed to update last login for business %d: %v", business.ID, err)
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"business": business,
	})
}

// HandleLogout closes the current session.
func (ac *AuthController) HandleLogout(c *fiber.Ctx) error {
	sess, err := session.GetSessionStore().Get(c)
	if err == nil {
		_ = sess.Destroy()
	}
	return c.JSON(fiber.Map{"success": true})
}
