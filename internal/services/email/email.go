// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package email

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"codeberg.org/oliverandrich/securelink/internal/config"
	"codeberg.org/oliverandrich/securelink/internal/models"
	"github.com/wneessen/go-mail"
)

// sendTimeout bounds a single SMTP exchange.
const sendTimeout = 15 * time.Second

// Service sends notices to the staff member who issued a secure link.
type Service struct {
	cfg     *config.SMTPConfig
	baseURL string
}

// NewService creates a new email service.
func NewService(cfg *config.SMTPConfig, baseURL string) (*Service, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("SMTP host is required")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("SMTP from address is required")
	}

	return &Service{
		cfg:     cfg,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}, nil
}

// NotifyVerified tells the link's creator that the customer confirmed it.
// Links without a creator email are skipped.
func (s *Service) NotifyVerified(ctx context.Context, link *models.SecureLink) error {
	if link.StaffCreatorEmail == "" {
		slog.Debug("secure link has no staff creator, skipping notice", "link_id", link.ID)
		return nil
	}

	subject, body := s.VerifiedNotice(link)
	return s.send(ctx, link.StaffCreatorEmail, subject, body)
}

// VerifiedNotice renders the subject and plain text body of the notice.
func (s *Service) VerifiedNotice(link *models.SecureLink) (string, string) {
	customer := link.CustomerName
	if customer == "" {
		customer = link.CustomerEmail
	}

	subject := fmt.Sprintf("Secure link verified by %s", customer)

	var b strings.Builder
	fmt.Fprintf(&b, "%s <%s> verified their email address.\n\n", customer, link.CustomerEmail)
	fmt.Fprintf(&b, "Secure link: %s\n", link.ID)
	if link.VerifiedAt != nil {
		fmt.Fprintf(&b, "Verified at: %s\n", link.VerifiedAt.UTC().Format(time.RFC3339))
	}
	if s.baseURL != "" {
		fmt.Fprintf(&b, "\nSent by %s\n", s.baseURL)
	}

	return subject, b.String()
}

// buildMessage assembles a plain text message.
func (s *Service) buildMessage(to, subject, body string) (*mail.Msg, error) {
	msg := mail.NewMsg()

	if s.cfg.FromName != "" {
		if err := msg.FromFormat(s.cfg.FromName, s.cfg.From); err != nil {
			return nil, fmt.Errorf("setting from address: %w", err)
		}
	} else {
		if err := msg.From(s.cfg.From); err != nil {
			return nil, fmt.Errorf("setting from address: %w", err)
		}
	}

	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("setting to address: %w", err)
	}

	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)
	return msg, nil
}

// clientOptions derives go-mail options from the SMTP config.
func (s *Service) clientOptions() []mail.Option {
	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
		mail.WithTimeout(sendTimeout),
	}

	if s.cfg.TLS {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
		// Implicit TLS on 465, STARTTLS elsewhere
		if s.cfg.Port == 465 {
			opts = append(opts, mail.WithSSL())
		}
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}

	if s.cfg.Username != "" && s.cfg.Password != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(s.cfg.Password),
		)
	}

	return opts
}

// send sends an email via SMTP using go-mail.
func (s *Service) send(ctx context.Context, to, subject, body string) error {
	msg, err := s.buildMessage(to, subject, body)
	if err != nil {
		return err
	}

	client, err := mail.NewClient(s.cfg.Host, s.clientOptions()...)
	if err != nil {
		return fmt.Errorf("creating mail client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("sending email: %w", err)
	}

	return nil
}
