package tenantcontext

import "github.com/gofiber/fiber/v2"

// TenantContext represents the authenticated business for a request
type TenantContext struct {
	BusinessID uint   `json:"business_id"`
	Name       string `json:"name"`
	IsLoggedIn bool   `json:"is_logged_in"`
	Plan       string `json:"plan"`
}

// GetTenantContext retrieves the tenant context from fiber context.
// Returns a default anonymous context if none is set.
func GetTenantContext(c *fiber.Ctx) TenantContext {
	if ctx := c.Locals("TENANT_CONTEXT"); ctx != nil {
		return ctx.(TenantContext)
	}
	return TenantContext{IsLoggedIn: false}
}

// IsLoggedIn checks if the current request carries an authenticated business
func IsLoggedIn(c *fiber.Ctx) bool {
	return GetTenantContext(c).IsLoggedIn
}

// GetBusinessID returns the current business ID, or 0 if not logged in
func GetBusinessID(c *fiber.Ctx) uint {
	return GetTenantContext(c).BusinessID
}
