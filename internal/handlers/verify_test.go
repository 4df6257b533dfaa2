// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"codeberg.org/oliverandrich/securelink/internal/handlers"
	"codeberg.org/oliverandrich/securelink/internal/metrics"
	"codeberg.org/oliverandrich/securelink/internal/models"
	"codeberg.org/oliverandrich/securelink/internal/repository"
	"codeberg.org/oliverandrich/securelink/internal/services/verification"
	"codeberg.org/oliverandrich/securelink/internal/testutil"
	"github.com/labstack/echo/v4"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type verifyFixture struct {
	repo    *repository.Repository
	handler *handlers.VerifyHandlers
	metrics *metrics.Metrics
}

func newVerifyFixture(t *testing.T) *verifyFixture {
	t.Helper()
	_, repo := testutil.NewTestDB(t)
	m := metrics.New()
	return &verifyFixture{
		repo:    repo,
		handler: handlers.NewVerify(verification.NewService(repo), m),
		metrics: m,
	}
}

func (f *verifyFixture) post(t *testing.T, body string) (int, string) {
	t.Helper()
	e := echo.New()
	c, rec := testutil.NewEchoContext(e, http.MethodPost, "/api/verify-secure-link", strings.NewReader(body))
	require.NoError(t, f.handler.Verify(c))
	return rec.Code, rec.Body.String()
}

func TestVerify_Success(t *testing.T) {
	f := newVerifyFixture(t)
	link := testutil.NewTestSecureLink(t, f.repo, "T1", testutil.WithCustomer("Alice", "alice@x.com"))

	code, body := f.post(t, `{"token":"T1","email":"ALICE@x.com"}`)

	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{
		"success": true,
		"message": "Email verification successful.",
		"customer_name": "Alice",
		"customer_email": "alice@x.com",
		"secure_link_id": "`+link.ID+`",
		"staff_creator_email": "staff@x.com"
	}`, body)

	stored, err := f.repo.GetSecureLink(context.Background(), link.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusVerified, stored.Status)
	assert.NotNil(t, stored.VerifiedAt)
}

func TestVerify_SecondRequestAlreadyUsed(t *testing.T) {
	f := newVerifyFixture(t)
	testutil.NewTestSecureLink(t, f.repo, "T1")

	code, _ := f.post(t, `{"token":"T1","email":"alice@x.com"}`)
	require.Equal(t, http.StatusOK, code)

	code, body := f.post(t, `{"token":"T1","email":"alice@x.com"}`)

	assert.Equal(t, http.StatusBadRequest, code)
	assert.JSONEq(t, `{"success":false,"error":"This link has already been used."}`, body)
}

func TestVerify_IgnoresContentType(t *testing.T) {
	contentTypes := []string{
		"",
		"text/plain;charset=UTF-8",
		echo.MIMEApplicationForm,
		echo.MIMEApplicationJSONCharsetUTF8,
	}

	for _, ct := range contentTypes {
		t.Run(ct, func(t *testing.T) {
			f := newVerifyFixture(t)
			testutil.NewTestSecureLink(t, f.repo, "T1")

			e := echo.New()
			c, rec := testutil.NewEchoContext(e, http.MethodPost, "/api/verify-secure-link",
				strings.NewReader(`{"token":"T1","email":"alice@x.com"}`))
			if ct == "" {
				c.Request().Header.Del(echo.HeaderContentType)
			} else {
				c.Request().Header.Set(echo.HeaderContentType, ct)
			}

			require.NoError(t, f.handler.Verify(c))
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Contains(t, rec.Body.String(), `"success":true`)
		})
	}
}

func TestVerify_FormEncodedBodyRejected(t *testing.T) {
	f := newVerifyFixture(t)

	e := echo.New()
	c, rec := testutil.NewEchoContext(e, http.MethodPost, "/api/verify-secure-link",
		strings.NewReader(`token=T1&email=alice@x.com`))
	c.Request().Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)

	require.NoError(t, f.handler.Verify(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":"`+handlers.MessageInvalidRequest+`"}`, rec.Body.String())
}

func TestVerify_Failures(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(t *testing.T, repo *repository.Repository)
		body    string
		code    int
		message string
	}{
		{
			name:    "missing token",
			body:    `{"email":"alice@x.com"}`,
			code:    http.StatusBadRequest,
			message: handlers.MessageInvalidRequest,
		},
		{
			name:    "missing email",
			body:    `{"token":"T1"}`,
			code:    http.StatusBadRequest,
			message: handlers.MessageInvalidRequest,
		},
		{
			name:    "empty body",
			body:    ``,
			code:    http.StatusBadRequest,
			message: handlers.MessageInvalidRequest,
		},
		{
			name:    "malformed json",
			body:    `{"token":`,
			code:    http.StatusBadRequest,
			message: handlers.MessageInvalidRequest,
		},
		{
			name:    "wrong field type",
			body:    `{"token":42,"email":"alice@x.com"}`,
			code:    http.StatusBadRequest,
			message: handlers.MessageInvalidRequest,
		},
		{
			name:    "unknown token",
			body:    `{"token":"T2","email":"alice@x.com"}`,
			code:    http.StatusNotFound,
			message: handlers.MessageNotFound,
		},
		{
			name: "already verified",
			setup: func(t *testing.T, repo *repository.Repository) {
				testutil.NewTestSecureLink(t, repo, "T1", testutil.WithStatus(models.StatusVerified))
			},
			body:    `{"token":"T1","email":"alice@x.com"}`,
			code:    http.StatusBadRequest,
			message: handlers.MessageAlreadyUsed,
		},
		{
			name: "expired",
			setup: func(t *testing.T, repo *repository.Repository) {
				testutil.NewTestSecureLink(t, repo, "T3", testutil.WithExpiresAt(time.Now().Add(-24*time.Hour)))
			},
			body:    `{"token":"T3","email":"nobody@x.com"}`,
			code:    http.StatusBadRequest,
			message: handlers.MessageExpired,
		},
		{
			name: "email mismatch",
			setup: func(t *testing.T, repo *repository.Repository) {
				testutil.NewTestSecureLink(t, repo, "T1", testutil.WithCustomer("Foo", "foo@bar.com"))
			},
			body:    `{"token":"T1","email":"foo@bar.org"}`,
			code:    http.StatusForbidden,
			message: handlers.MessageEmailMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newVerifyFixture(t)
			if tt.setup != nil {
				tt.setup(t, f.repo)
			}

			code, body := f.post(t, tt.body)

			assert.Equal(t, tt.code, code)
			assert.JSONEq(t, `{"success":false,"error":"`+tt.message+`"}`, body)
		})
	}
}

func TestVerify_FailureLeavesLinkPending(t *testing.T) {
	f := newVerifyFixture(t)
	link := testutil.NewTestSecureLink(t, f.repo, "T1")

	code, _ := f.post(t, `{"token":"T1","email":"mallory@x.com"}`)
	require.Equal(t, http.StatusForbidden, code)

	stored, err := f.repo.GetSecureLink(context.Background(), link.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, stored.Status)
}

type failingVerifier struct{ err error }

func (v failingVerifier) Verify(context.Context, string, string) (*verification.Result, error) {
	return nil, v.err
}

func TestVerify_InternalError(t *testing.T) {
	for _, err := range []error{
		errors.New("sqlite: database disk image is malformed"),
		verification.ErrDuplicateToken,
	} {
		t.Run(err.Error(), func(t *testing.T) {
			h := handlers.NewVerify(failingVerifier{err: err}, nil)
			e := echo.New()
			c, rec := testutil.NewEchoContext(e, http.MethodPost, "/api/verify-secure-link",
				strings.NewReader(`{"token":"T1","email":"alice@x.com"}`))

			require.NoError(t, h.Verify(c))

			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.JSONEq(t, `{"success":false,"error":"An internal server error occurred. Please try again."}`, rec.Body.String())
			assert.NotContains(t, rec.Body.String(), "sqlite")
		})
	}
}

func TestVerify_RecordsMetrics(t *testing.T) {
	f := newVerifyFixture(t)
	testutil.NewTestSecureLink(t, f.repo, "T1")

	f.post(t, `{"token":"T1","email":"alice@x.com"}`)
	f.post(t, `{"token":"T1","email":"alice@x.com"}`)
	f.post(t, `{}`)

	expected := `
# HELP securelink_verifications_total Secure link verification attempts by outcome.
# TYPE securelink_verifications_total counter
securelink_verifications_total{outcome="already_used"} 1
securelink_verifications_total{outcome="invalid_request"} 1
securelink_verifications_total{outcome="success"} 1
`
	err := promtest.GatherAndCompare(f.metrics.Registry(), strings.NewReader(expected), "securelink_verifications_total")
	assert.NoError(t, err)
}
