package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/medosmotr/examination-api/internal/config"
	"go.uber.org/zap"
)

// WhatsAppSender delivers codes through a Green API compatible gateway
type WhatsAppSender struct {
	baseURL    string
	instanceID string
	token      string
	client     *http.Client
	logger     *zap.Logger
}

func NewWhatsAppSender(cfg *config.MessagingConfig, logger *zap.Logger) *WhatsAppSender {
	return &WhatsAppSender{
		baseURL:    cfg.GatewayURL,
		instanceID: cfg.GatewayInstanceID,
		token:      cfg.GatewayToken,
		client:     &http.Client{Timeout: 15 * time.Second},
		logger:     logger,
	}
}

type sendMessageRequest struct {
	ChatID  string `json:"chatId"`
	Message string `json:"message"`
}

// Deliver posts the code to the gateway. The chat id is the canonical
// phone with the gateway's chat suffix.
func (s *WhatsAppSender) Deliver(ctx context.Context, phone, code string) error {
	url := fmt.Sprintf("%s/waInstance%s/sendMessage/%s", s.baseURL, s.instanceID, s.token)

	payload := sendMessageRequest{
		ChatID:  phone + "@c.us",
		Message: fmt.Sprintf("Ваш код подтверждения: %s", code),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		s.logger.Warn("gateway rejected message",
			zap.String("phone", phone),
			zap.Int("status", resp.StatusCode),
		)
		return fmt.Errorf("gateway returned status %d", resp.StatusCode)
	}

	s.logger.Info("verification code delivered",
		zap.String("phone", phone),
		zap.String("channel", "whatsapp"),
	)
	return nil
}
