package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// ErrorResponse is the JSON body every failed request answers with.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// CustomErrorHandler creates a custom error handler for Echo. Every error
// becomes a JSON response; storage failures are logged server-side and
// surfaced as 500 without leaking driver details to the client.
func CustomErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := ""

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if msg, ok := he.Message.(string); ok {
			message = msg
		}
	} else if errors.Is(err, gorm.ErrRecordNotFound) {
		code = http.StatusNotFound
	}

	title := http.StatusText(code)
	if message == "" {
		switch code {
		case http.StatusNotFound:
			message = "The requested resource does not exist."
		case http.StatusForbidden:
			message = "You don't have permission to access this resource."
		case http.StatusUnauthorized:
			message = "Please log in to continue."
		case http.StatusBadRequest:
			message = "The request could not be processed."
		default:
			message = "Something went wrong. Please try again later."
		}
	}

	if code >= http.StatusInternalServerError {
		slog.Error("request failed",
			"method", c.Request().Method,
			"path", c.Request().URL.Path,
			"status", code,
			"error", err,
		)
	}

	if writeErr := c.JSON(code, ErrorResponse{Error: title, Message: message}); writeErr != nil {
		slog.Error("failed to write error response", "error", writeErr)
	}
}
