package middlewares

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

// BindAndValidate parses the request body into dst and validates its tags.
// Returns fiber.ErrBadRequest for parse errors and validator.ValidationErrors
// for tag violations; the error handler maps both to a 4xx response.
//
// Validator tags do not descend into slice elements, so DTOs carrying line
// items validate each element with ValidateStruct in the controller.
func BindAndValidate(c *fiber.Ctx, dst interface{}) error {
	if err := c.BodyParser(dst); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	return validate.Struct(dst)
}

// ValidateStruct validates a single struct value (e.g. one invoice item DTO)
// with the shared validator instance.
func ValidateStruct(v interface{}) error {
	return validate.Struct(v)
}
