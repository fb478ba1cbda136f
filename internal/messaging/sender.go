// Package messaging delivers one-time verification codes to users over
// the configured outbound channel.
package messaging

import (
	"context"
	"fmt"

	"github.com/medosmotr/examination-api/internal/config"
	"go.uber.org/zap"
)

// CodeSender delivers a verification code to a phone's owner
type CodeSender interface {
	Deliver(ctx context.Context, phone, code string) error
}

// NewCodeSender builds the sender selected by configuration
func NewCodeSender(cfg *config.MessagingConfig, logger *zap.Logger) (CodeSender, error) {
	switch cfg.Provider {
	case "whatsapp":
		return NewWhatsAppSender(cfg, logger), nil
	case "smtp":
		return NewSMTPSender(cfg, logger), nil
	case "noop":
		// Development mode: codes are only written to the log
		return NewNoopSender(logger), nil
	default:
		return nil, fmt.Errorf("unsupported messaging provider: %s", cfg.Provider)
	}
}

// NoopSender logs codes instead of delivering them
type NoopSender struct {
	logger *zap.Logger
}

func NewNoopSender(logger *zap.Logger) *NoopSender {
	return &NoopSender{logger: logger}
}

func (s *NoopSender) Deliver(_ context.Context, phone, code string) error {
	s.logger.Info("verification code issued (noop sender)",
		zap.String("phone", phone),
		zap.String("code", code),
	)
	return nil
}
