// internal/email/sender.go
package email

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"

	"diabeater-console/internal/config"
	"diabeater-console/utils"
)

// Mailer sends one rendered HTML message.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

type Sender struct {
	from   string
	dialer *gomail.Dialer
}

func NewSender(cfg *config.Config) *Sender {
	return &Sender{
		from:   fmt.Sprintf("%s <%s>", cfg.SMTPFromName, cfg.SMTPFrom),
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass),
	}
}

// Enabled reports whether an SMTP host is configured.
func (s *Sender) Enabled() bool {
	return s.dialer.Host != ""
}

// Send delivers one message. Without an SMTP host it logs and drops it.
func (s *Sender) Send(ctx context.Context, to, subject, body string) error {
	log := utils.Log.WithFields(logrus.Fields{"to": to, "subject": subject})
	if !s.Enabled() {
		log.Warn("⚠️ [EMAIL] SMTP not configured, message dropped")
		return nil
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("email send cancelled: %w", err)
	}
	// Sent once. Failures are not retried.
	if err := s.dialer.DialAndSend(m); err != nil {
		log.WithError(err).Error("❌ [EMAIL] send failed")
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	log.Info("✅ [EMAIL] sent")
	return nil
}
