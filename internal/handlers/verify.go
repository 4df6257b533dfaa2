// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"codeberg.org/oliverandrich/securelink/internal/metrics"
	"codeberg.org/oliverandrich/securelink/internal/services/verification"
	"github.com/labstack/echo/v4"
)

// User facing messages. Front-ends match on status codes, keep both stable.
const (
	MessageVerified       = "Email verification successful."
	MessageInvalidRequest = "Token and email are required."
	MessageNotFound       = "Invalid or expired link."
	MessageAlreadyUsed    = "This link has already been used."
	MessageExpired        = "This link has expired."
	MessageEmailMismatch  = "Email address does not match our records."
)

// Verifier verifies a secure link token against an email address.
type Verifier interface {
	Verify(ctx context.Context, token, email string) (*verification.Result, error)
}

// VerifyHandlers serves the secure link verification API.
type VerifyHandlers struct {
	verifier Verifier
	metrics  *metrics.Metrics
}

// NewVerify creates a new VerifyHandlers instance. m may be nil.
func NewVerify(v Verifier, m *metrics.Metrics) *VerifyHandlers {
	return &VerifyHandlers{verifier: v, metrics: m}
}

// VerifyRequest is the request body for verifying a secure link.
type VerifyRequest struct {
	Token string `json:"token"`
	Email string `json:"email"`
}

// VerifyResponse is the body of a successful verification.
type VerifyResponse struct {
	Success           bool   `json:"success"`
	Message           string `json:"message"`
	CustomerName      string `json:"customer_name"`
	CustomerEmail     string `json:"customer_email"`
	SecureLinkID      string `json:"secure_link_id"`
	StaffCreatorEmail string `json:"staff_creator_email"`
}

// Verify checks a secure link and marks it verified.
func (h *VerifyHandlers) Verify(c echo.Context) error {
	start := time.Now()

	var req VerifyRequest
	// Browsers posting a string body send text/plain, so ignore Content-Type.
	if err := c.Echo().JSONSerializer.Deserialize(c, &req); err != nil {
		slog.Debug("failed to decode verification request", "error", err)
		h.metrics.ObserveVerification(verification.OutcomeInvalidRequest, time.Since(start))
		return ErrorJSON(c, http.StatusBadRequest, MessageInvalidRequest)
	}

	res, err := h.verifier.Verify(c.Request().Context(), req.Token, req.Email)
	h.metrics.ObserveVerification(verification.Outcome(err), time.Since(start))
	if err != nil {
		return h.renderError(c, err)
	}

	return c.JSON(http.StatusOK, VerifyResponse{
		Success:           true,
		Message:           MessageVerified,
		CustomerName:      res.CustomerName,
		CustomerEmail:     res.CustomerEmail,
		SecureLinkID:      res.SecureLinkID,
		StaffCreatorEmail: res.StaffCreatorEmail,
	})
}

func (h *VerifyHandlers) renderError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, verification.ErrInvalidRequest):
		return ErrorJSON(c, http.StatusBadRequest, MessageInvalidRequest)
	case errors.Is(err, verification.ErrNotFound):
		return ErrorJSON(c, http.StatusNotFound, MessageNotFound)
	case errors.Is(err, verification.ErrAlreadyUsed):
		return ErrorJSON(c, http.StatusBadRequest, MessageAlreadyUsed)
	case errors.Is(err, verification.ErrExpired):
		return ErrorJSON(c, http.StatusBadRequest, MessageExpired)
	case errors.Is(err, verification.ErrEmailMismatch):
		return ErrorJSON(c, http.StatusForbidden, MessageEmailMismatch)
	default:
		slog.ErrorContext(c.Request().Context(), "secure link verification failed", "error", err)
		return ErrorJSON(c, http.StatusInternalServerError, InternalErrorMessage)
	}
}
