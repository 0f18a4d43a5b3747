package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/scanvey/scanvey/internal/pkg/middleware"
	"github.com/scanvey/scanvey/internal/pkg/session"
)

type HttpRouter struct {
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// init session
	session.NewSessionStore()

	// Apply TenantContext middleware globally as first middleware
	app.Use(middleware.TenantContextMiddleware())

	h.registerPublicRoutes(app)
}

// registerPublicRoutes mounts the account routes and the anonymous respondent
// surface. Feedback submission is deliberately outside the quota gate.
func (h HttpRouter) registerPublicRoutes(app *fiber.App) {
	d := deps()

	app.Post("/register", d.auth.HandleRegister)
	app.Post("/login", d.auth.HandleLogin)
	app.Post("/logout", d.auth.HandleLogout)

	app.Get("/s/:uuid", d.feedback.HandlePublicSurvey)
	app.Post("/s/:uuid/feedback", d.feedback.HandleSubmit)
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}
