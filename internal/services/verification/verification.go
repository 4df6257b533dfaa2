// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package verification confirms secure links and moves them from pending
// to verified.
package verification

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"codeberg.org/oliverandrich/securelink/internal/models"
)

// Store is the slice of link persistence the verifier needs.
type Store interface {
	FindSecureLinksByToken(ctx context.Context, token string) ([]models.SecureLink, error)
	// MarkSecureLinkVerified must only transition links that are still
	// pending and report whether it did.
	MarkSecureLinkVerified(ctx context.Context, id string, verifiedAt time.Time) (bool, error)
}

// Notifier is told about links that were verified.
type Notifier interface {
	NotifyVerified(ctx context.Context, link *models.SecureLink) error
}

// Result is what a successful verification exposes.
type Result struct {
	SecureLinkID      string
	CustomerName      string
	CustomerEmail     string
	StaffCreatorEmail string
	VerifiedAt        time.Time
}

// notifyTimeout bounds a notice sent after the response.
const notifyTimeout = 30 * time.Second

// Service verifies secure links.
type Service struct {
	store    Store
	notifier Notifier
	now      func() time.Time
	pending  sync.WaitGroup
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithNotifier sets a notifier called after each successful verification.
func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

// NewService creates a new verification service.
func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store: store,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Verify runs the checks for token and email and, when all pass, marks the
// link as verified. Exactly one store write happens, and only on success.
func (s *Service) Verify(ctx context.Context, token, email string) (*Result, error) {
	if token == "" || email == "" {
		return nil, ErrInvalidRequest
	}

	links, err := s.store.FindSecureLinksByToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("finding secure link: %w", err)
	}
	switch {
	case len(links) == 0:
		slog.Warn("secure link not found")
		return nil, ErrNotFound
	case len(links) > 1:
		slog.Error("secure link token is not unique", "matches", len(links))
		return nil, ErrDuplicateToken
	}
	link := &links[0]

	if !link.IsPending() {
		slog.Warn("secure link already used", "link_id", link.ID, "status", link.Status)
		return nil, ErrAlreadyUsed
	}

	now := s.now()
	if link.IsExpired(now) {
		slog.Warn("secure link expired", "link_id", link.ID, "expires_at", link.ExpiresAt)
		return nil, ErrExpired
	}

	if !link.MatchesEmail(email) {
		slog.Warn("secure link email mismatch", "link_id", link.ID)
		return nil, ErrEmailMismatch
	}

	ok, err := s.store.MarkSecureLinkVerified(ctx, link.ID, now)
	if err != nil {
		return nil, fmt.Errorf("marking secure link %s verified: %w", link.ID, err)
	}
	if !ok {
		// Another request verified it between the read and the write.
		slog.Warn("secure link verified concurrently", "link_id", link.ID)
		return nil, ErrAlreadyUsed
	}

	link.Status = models.StatusVerified
	link.VerifiedAt = &now
	slog.Info("secure link verified", "link_id", link.ID)

	s.notify(ctx, *link)

	return &Result{
		SecureLinkID:      link.ID,
		CustomerName:      link.CustomerName,
		CustomerEmail:     link.CustomerEmail,
		StaffCreatorEmail: link.StaffCreatorEmail,
		VerifiedAt:        now,
	}, nil
}

// notify sends the notice in the background on a context detached from
// the request's cancellation.
func (s *Service) notify(ctx context.Context, link models.SecureLink) {
	if s.notifier == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		defer cancel()
		if err := s.notifier.NotifyVerified(ctx, &link); err != nil {
			slog.Error("failed to send verification notice", "link_id", link.ID, "error", err)
		}
	}()
}

// Wait blocks until all background notices have finished.
func (s *Service) Wait() {
	s.pending.Wait()
}
