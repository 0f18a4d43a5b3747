package middleware

import (
	"errors"
	"log"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/scanvey/scanvey/app/models"
	"github.com/scanvey/scanvey/app/repository"
	"github.com/scanvey/scanvey/internal/pkg/session"
	"github.com/scanvey/scanvey/internal/pkg/tenantcontext"
)

// TenantContextMiddleware resolves the session cookie to the authenticated
// business and stores a TenantContext in Locals for downstream handlers.
// Anonymous requests pass through with an empty context.
func TenantContextMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		idValue := session.GetSessionValue(c, tenantcontext.KeyBusinessID)
		if idValue == "" {
			return c.Next()
		}
		businessID, err := strconv.ParseUint(idValue, 10, 64)
		if err != nil || businessID == 0 {
			return c.Next()
		}

		repos := repository.GetGlobalFactory()
		business, err := repos.GetBusinessRepository().GetByID(uint(businessID))
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				log.Printf("tenant context: business lookup failed: %v", err)
			}
			return c.Next()
		}
		if business.Status != models.BUSINESS_STATUS_ACTIVE {
			return c.Next()
		}

		plan := models.PlanFree
		if sub, err := repos.GetSubscriptionRepository().GetByBusinessID(business.ID); err == nil {
			plan = sub.Plan
		}

		c.Locals("TENANT_CONTEXT", tenantcontext.TenantContext{
			BusinessID: business.ID,
			Name:       business.Name,
			IsLoggedIn: true,
			Plan:       plan,
		})
		c.Locals(tenantcontext.KeyFromProtected, true)
		c.Locals(tenantcontext.KeyBusinessID, business.ID)

		return c.Next()
	}
}

// RequireAuth ensures an authenticated business session and returns JSON 401
// otherwise.
func RequireAuth(c *fiber.Ctx) error {
	if !tenantcontext.IsLoggedIn(c) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "login required",
		})
	}
	return c.Next()
}
