package controllers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

// fail writes the shared denial envelope.
func fail(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"message": message,
	})
}

// parseBody decodes and validates a JSON request body. The returned message
// names the offending field so the caller can surface it directly.
func parseBody(c *fiber.Ctx, out interface{}) (string, bool) {
	if err := c.BodyParser(out); err != nil {
		return "invalid request body", false
	}
	if err := validate.Struct(out); err != nil {
		var verrs validator.ValidationErrors
		if ok := errorsAs(err, &verrs); ok && len(verrs) > 0 {
			return "invalid field: " + verrs[0].Field(), false
		}
		return "invalid request body", false
	}
	return "", true
}

func errorsAs(err error, target *validator.ValidationErrors) bool {
	if verrs, ok := err.(validator.ValidationErrors); ok {
		*target = verrs
		return true
	}
	return false
}
