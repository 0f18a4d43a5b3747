package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/scanvey/scanvey/internal/pkg/middleware"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	d := deps()

	api := app.Group("/api", limiter.New())
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	v1 := api.Group("/v1")

	// The webhook is authenticated by its signature, not by a session, so it
	// is registered ahead of RequireAuth.
	v1.Post("/subscription/webhook", d.subscriptions.HandleWebhook)

	v1.Use(middleware.RequireAuth, d.gate.Middleware())

	v1.Post("/surveys", d.surveys.HandleCreate)
	v1.Get("/surveys", d.surveys.HandleList)
	v1.Get("/surveys/:uuid", d.surveys.HandleGet)
	v1.Put("/surveys/:uuid", d.surveys.HandleUpdate)
	v1.Delete("/surveys/:uuid", d.surveys.HandleDelete)

	v1.Post("/qrcodes", d.qrCodes.HandleCreate)
	v1.Get("/qrcodes", d.qrCodes.HandleList)
	v1.Get("/qrcodes/:uuid/image", d.qrCodes.HandleImage)
	v1.Delete("/qrcodes/:uuid", d.qrCodes.HandleDelete)

	v1.Get("/feedback/stats", d.feedback.HandleStats)

	v1.Get("/subscription/current", d.subscriptions.HandleCurrent)
	v1.Post("/subscription/update", d.subscriptions.HandleUpdate)
	v1.Post("/subscription/checkout", d.subscriptions.HandleCheckout)
	v1.Post("/subscription/cancel", d.subscriptions.HandleCancel)
	v1.Post("/subscription/change-plan", d.subscriptions.HandleChangePlan)
	v1.Get("/subscription/history", d.subscriptions.HandleHistory)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
