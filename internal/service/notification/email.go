package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	gomail "gopkg.in/gomail.v2"

	"github.com/vetdesk/calendar-api/internal/model"
)

// Notifier sends booking notifications to the assigned staff member.
// Failures are reported but callers treat them as non-fatal: a booking
// is never rolled back because an email bounced.
type Notifier interface {
	SendBookingConfirmation(ctx context.Context, staff *model.StaffMember, apt *model.Appointment) error
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type emailNotifier struct {
	dialer *gomail.Dialer
	from   string
	logger *zerolog.Logger
}

func NewEmailNotifier(cfg SMTPConfig, logger *zerolog.Logger) Notifier {
	return &emailNotifier{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
		logger: logger,
	}
}

func (n *emailNotifier) SendBookingConfirmation(ctx context.Context, staff *model.StaffMember, apt *model.Appointment) error {
	if staff == nil || staff.Email == "" {
		return nil
	}

	m := gomail.NewMessage()
	m.SetHeader("From", n.from)
	m.SetHeader("To", staff.Email)
	m.SetHeader("Subject", fmt.Sprintf("New appointment: %s", apt.Title))
	m.SetBody("text/plain", fmt.Sprintf(
		"A new appointment has been booked for you.\n\n%s\n%s – %s\n",
		apt.Title,
		apt.StartTime.Format(time.RFC1123),
		apt.EndTime.Format(time.RFC1123),
	))

	if err := n.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send booking confirmation: %w", err)
	}

	n.logger.Info().
		Str("staff_id", staff.ID.String()).
		Str("appointment_id", apt.ID.String()).
		Msg("booking confirmation sent")
	return nil
}

// NopNotifier discards notifications. Used when SMTP is not
// configured.
type NopNotifier struct{}

func (NopNotifier) SendBookingConfirmation(ctx context.Context, staff *model.StaffMember, apt *model.Appointment) error {
	return nil
}
