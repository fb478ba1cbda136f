package messaging

import (
	"context"
	"fmt"

	"github.com/medosmotr/examination-api/internal/config"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// SMTPSender delivers codes by email for installations where the contact
// address stands in for the phone channel
type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
	logger *zap.Logger
}

func NewSMTPSender(cfg *config.MessagingConfig, logger *zap.Logger) *SMTPSender {
	return &SMTPSender{
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword),
		from:   cfg.SMTPFrom,
		logger: logger,
	}
}

// Deliver sends the code to the recipient address registered for the
// phone. The recipient is the phone's contact email, passed by the
// caller in place of the phone when this provider is configured.
func (s *SMTPSender) Deliver(_ context.Context, recipient, code string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", recipient)
	m.SetHeader("Subject", "Код подтверждения")
	m.SetBody("text/plain", fmt.Sprintf("Ваш код подтверждения: %s", code))

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("smtp delivery failed: %w", err)
	}

	s.logger.Info("verification code delivered",
		zap.String("recipient", recipient),
		zap.String("channel", "smtp"),
	)
	return nil
}
