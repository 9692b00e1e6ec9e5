package payment

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"
)

var ErrInvalidSignature = errors.New("invalid webhook signature")

// WebhookVerifier valida la firma Stripe-Signature contra el secreto compartido.
type WebhookVerifier struct {
	secret string
}

func NewWebhookVerifier(secret string) *WebhookVerifier {
	return &WebhookVerifier{secret: secret}
}

func (v *WebhookVerifier) Verify(payload []byte, sigHeader string) (stripe.Event, error) {
	ev, err := webhook.ConstructEventWithOptions(payload, sigHeader, v.secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return stripe.Event{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return ev, nil
}

// SessionID extrae el id de la sesión de un evento checkout.session.*.
func SessionID(ev stripe.Event) (string, error) {
	if ev.Data == nil {
		return "", errors.New("event without data")
	}
	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(ev.Data.Raw, &obj); err != nil {
		return "", fmt.Errorf("decoding event object: %w", err)
	}
	if obj.ID == "" {
		return "", errors.New("event object without id")
	}
	return obj.ID, nil
}
