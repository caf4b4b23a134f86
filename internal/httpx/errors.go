package httpx

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// FieldError describes one failing field of a request.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// APIError is the error shape every handler and service returns. The Fiber
// error handler maps it to the response envelope.
type APIError struct {
	Status  int          `json:"-"`
	Message string       `json:"message"`
	Fields  []FieldError `json:"errors,omitempty"`
}

func (e *APIError) Error() string {
	if len(e.Fields) > 0 {
		return fmt.Sprintf("%s (%d champ(s) invalide(s))", e.Message, len(e.Fields))
	}
	return e.Message
}

func NewValidationError(fields []FieldError) *APIError {
	return &APIError{Status: fiber.StatusBadRequest, Message: "Données invalides", Fields: fields}
}

func NewAuthenticationError(message string) *APIError {
	return &APIError{Status: fiber.StatusUnauthorized, Message: message}
}

func NewAuthorizationError(message string) *APIError {
	return &APIError{Status: fiber.StatusForbidden, Message: message}
}

func NewNotFoundError(message string) *APIError {
	return &APIError{Status: fiber.StatusNotFound, Message: message}
}

func NewConflictError(message string) *APIError {
	return &APIError{Status: fiber.StatusConflict, Message: message}
}

// NewStorageError covers Datastore and MediaStore failures. Client-caused
// rejections (size, type) use NewBadRequestError instead.
func NewStorageError(message string) *APIError {
	return &APIError{Status: fiber.StatusInternalServerError, Message: message}
}

func NewBadRequestError(message string) *APIError {
	return &APIError{Status: fiber.StatusBadRequest, Message: message}
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}
