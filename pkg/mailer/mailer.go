package mailer

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"gopkg.in/gomail.v2"
)

// Config contains the SMTP settings for the transactional mail collaborator.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Service sends transactional mail over SMTP. It implements the mailer
// interfaces consumed by the attendance and import services.
type Service struct {
	dialer *gomail.Dialer
	from   string
	logger zerolog.Logger
}

// New constructs an SMTP mailer.
func New(cfg Config, logger zerolog.Logger) (*Service, error) {
	if cfg.Host == "" || cfg.From == "" {
		return nil, fmt.Errorf("smtp host and from address must be provided")
	}

	port := cfg.Port
	if port <= 0 {
		port = 587
	}

	return &Service{
		dialer: gomail.NewDialer(cfg.Host, port, cfg.Username, cfg.Password),
		from:   cfg.From,
		logger: logger.With().Str("component", "mailer").Logger(),
	}, nil
}

// SendAbsenceNotice mails one absence notification. The payload matches
// what the guardian-facing template needs: who, which subject, and when.
func (s *Service) SendAbsenceNotice(ctx context.Context, recipient, studentName, subjectName, date, timeOfDay string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	message := gomail.NewMessage()
	message.SetHeader("From", s.from)
	message.SetHeader("To", recipient)
	message.SetHeader("Subject", fmt.Sprintf("Absence recorded for %s", studentName))
	message.SetBody("text/plain", fmt.Sprintf(
		"%s was marked absent in %s on %s at %s.\n\nIf this is unexpected, an absence justification can be submitted through the portal.",
		studentName, subjectName, date, timeOfDay,
	))

	if err := s.dialer.DialAndSend(message); err != nil {
		return fmt.Errorf("failed to send absence notice: %w", err)
	}

	s.logger.Info().Str("recipient", recipient).Msg("absence notice sent")

	return nil
}

// SendWelcome mails a registration notification for a newly imported student.
func (s *Service) SendWelcome(ctx context.Context, recipient, studentName string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	message := gomail.NewMessage()
	message.SetHeader("From", s.from)
	message.SetHeader("To", recipient)
	message.SetHeader("Subject", "Your attendance portal account")
	message.SetBody("text/plain", fmt.Sprintf(
		"Hi %s,\n\nyour account has been registered on the attendance portal. Sign in with this email address to view your attendance history.",
		studentName,
	))

	if err := s.dialer.DialAndSend(message); err != nil {
		return fmt.Errorf("failed to send welcome mail: %w", err)
	}

	s.logger.Info().Str("recipient", recipient).Msg("welcome mail sent")

	return nil
}
