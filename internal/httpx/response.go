package httpx

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/mongo"
)

// Pagination is the pagination block returned by every list route.
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

func NewPagination(page, limit int, total int64) Pagination {
	pages := int(total) / limit
	if int(total)%limit != 0 {
		pages++
	}
	return Pagination{Page: page, Limit: limit, Total: total, Pages: pages}
}

// Success writes the standard envelope with success=true.
func Success(c *fiber.Ctx, status int, message string, data fiber.Map) error {
	body := fiber.Map{"success": true}
	if message != "" {
		body["message"] = message
	}
	if data != nil {
		body["data"] = data
	}
	return c.Status(status).JSON(body)
}

// ErrorHandler is the single top-level Fiber error handler. It maps known
// error shapes to the envelope; anything else becomes a generic 500.
// Stack-revealing details are only attached outside production.
func ErrorHandler(production bool) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			body := fiber.Map{"success": false, "message": apiErr.Message}
			if len(apiErr.Fields) > 0 {
				body["errors"] = apiErr.Fields
			}
			return c.Status(apiErr.Status).JSON(body)
		}

		if mongo.IsDuplicateKeyError(err) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"success": false,
				"message": "Cette valeur existe déjà",
			})
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return c.Status(fiberErr.Code).JSON(fiber.Map{
				"success": false,
				"message": fiberErr.Message,
			})
		}

		slog.Error("unhandled error", "method", c.Method(), "path", c.Path(), "error", err)

		body := fiber.Map{"success": false, "message": "Erreur serveur interne"}
		if !production {
			body["error"] = err.Error()
		}
		return c.Status(fiber.StatusInternalServerError).JSON(body)
	}
}
