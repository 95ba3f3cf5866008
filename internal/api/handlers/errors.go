package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"recipe-catalog/domain"
)

// statusForError maps service errors to HTTP statuses: unknown ids (in the
// path or referenced inside a request body) are 404, everything else is a
// 400 validation failure.
func statusForError(err error) int {
	switch {
	case errors.Is(err, domain.ErrRecipeNotFound),
		errors.Is(err, domain.ErrIngredientNotFound),
		errors.Is(err, domain.ErrTagNotFound):
		return fiber.StatusNotFound
	default:
		return fiber.StatusBadRequest
	}
}

func parseIDParam(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return 0, domain.ErrInvalidID
	}
	return uint(id), nil
}
