// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

import (
	"strings"
	"time"
)

// Secure link statuses.
const (
	StatusPending  = "pending"
	StatusVerified = "verified"
)

// SecureLink is a single-use, token-addressed record issued to a customer.
type SecureLink struct { //nolint:govet // fieldalignment: readability over optimization
	ID                string     `db:"id" json:"id"`
	Token             string     `db:"token" json:"-"`
	Status            string     `db:"status" json:"status"`
	ExpiresAt         time.Time  `db:"expires_at" json:"expires_at"`
	CustomerEmail     string     `db:"customer_email" json:"customer_email"`
	CustomerName      string     `db:"customer_name" json:"customer_name"`
	StaffCreatorEmail string     `db:"staff_creator_email" json:"staff_creator_email"`
	VerifiedAt        *time.Time `db:"verified_at" json:"verified_at,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updated_at"`
}

// IsPending reports whether the link can still be verified.
func (l *SecureLink) IsPending() bool {
	return l.Status == StatusPending
}

// IsExpired reports whether the link expired strictly before now.
func (l *SecureLink) IsExpired(now time.Time) bool {
	return l.ExpiresAt.Before(now)
}

// MatchesEmail compares email with the customer email, ignoring case and
// surrounding whitespace.
func (l *SecureLink) MatchesEmail(email string) bool {
	return NormalizeEmail(email) == NormalizeEmail(l.CustomerEmail)
}

// NormalizeEmail trims surrounding whitespace and lower-cases the address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
