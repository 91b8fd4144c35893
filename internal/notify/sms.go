package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"shopbot/internal/domain"
)

// SMSNotifier posts order updates to an HTTP SMS/WhatsApp gateway.
type SMSNotifier struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

type SMSConfig struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

func NewSMSNotifier(cfg SMSConfig) *SMSNotifier {
	if cfg.Client == nil {
		cfg.Client = &http.Client{Timeout: 15 * time.Second}
	}
	return &SMSNotifier{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  cfg.Client,
	}
}

func (s *SMSNotifier) Name() string { return "sms" }

func (s *SMSNotifier) CanReach(contact domain.Contact) bool { return contact.Phone != "" }

type smsPayload struct {
	To      string `json:"to"`
	Message string `json:"message"`
}

func (s *SMSNotifier) Notify(contact domain.Contact, evt domain.OrderEvent) error {
	if contact.Phone == "" {
		return fmt.Errorf("contact has no phone number")
	}

	body, err := json.Marshal(smsPayload{To: contact.Phone, Message: renderSMS(evt)})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "POST", s.baseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("sms gateway: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("sms gateway: HTTP %d: %s", resp.StatusCode, respBody)
	}
	return nil
}

func renderSMS(evt domain.OrderEvent) string {
	o := evt.Order
	switch evt.Type {
	case domain.OrderPlaced:
		msg := fmt.Sprintf("Order %s confirmed. Total $%.2f.", o.Number, o.Total)
		if o.ETA != "" {
			msg += " ETA: " + o.ETA + "."
		}
		return msg
	case domain.OrderCancelled:
		return fmt.Sprintf("Order %s cancelled. Your refund is on the way.", o.Number)
	default:
		return fmt.Sprintf("Order %s update: %s.", o.Number, statusLabel(o.Status))
	}
}
