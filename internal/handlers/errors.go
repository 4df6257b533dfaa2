// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
)

// InternalErrorMessage is the only thing callers learn about unexpected failures.
const InternalErrorMessage = "An internal server error occurred. Please try again."

// errorResponse is the body of every failed API response.
type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// ErrorJSON writes a failure envelope with the given status.
func ErrorJSON(c echo.Context, code int, message string) error {
	return c.JSON(code, errorResponse{Success: false, Error: message})
}

// HTTPErrorHandler renders errors that escaped a handler, including
// recovered panics, as JSON. Details of 5xx errors are logged, never sent.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := InternalErrorMessage

	var he *echo.HTTPError
	if errors.As(err, &he) && he.Code < http.StatusInternalServerError {
		code = he.Code
		message = http.StatusText(code)
		if m, ok := he.Message.(string); ok && m != "" {
			message = m
		}
	}

	if code >= http.StatusInternalServerError {
		slog.ErrorContext(c.Request().Context(), "unhandled error",
			"error", err,
			"method", c.Request().Method,
			"uri", c.Request().RequestURI,
		)
	}

	var writeErr error
	if c.Request().Method == http.MethodHead {
		writeErr = c.NoContent(code)
	} else {
		writeErr = ErrorJSON(c, code, message)
	}
	if writeErr != nil {
		slog.Error("failed to write error response", "error", fmt.Errorf("status %d: %w", code, writeErr))
	}
}
