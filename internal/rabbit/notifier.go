package rabbit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"

	"storefront-order-service/internal/model"
)

var (
	ErrNoRecipient   = errors.New("order has no customer email")
	ErrNack          = errors.New("broker rejected the message")
	ErrNotConfirming = errors.New("channel is not in confirm mode")
)

// Confirmation es el ack del broker para un mensaje publicado.
type Confirmation interface {
	WaitContext(ctx context.Context) (bool, error)
}

// Publisher publica un mensaje y devuelve la confirmación pendiente.
type Publisher interface {
	Publish(ctx context.Context, exchange, key string, msg amqp091.Publishing) (Confirmation, error)
}

// channelPublisher adapta un *amqp091.Channel en modo confirm.
type channelPublisher struct {
	ch *amqp091.Channel
}

func (p channelPublisher) Publish(ctx context.Context, exchange, key string, msg amqp091.Publishing) (Confirmation, error) {
	dc, err := p.ch.PublishWithDeferredConfirmWithContext(ctx, exchange, key, false, false, msg)
	if err != nil {
		return nil, err
	}
	if dc == nil {
		return nil, ErrNotConfirming
	}
	return dc, nil
}

// Notifier publica los mails de la orden; el mailer los consume y envía.
type Notifier struct {
	pub      Publisher
	exchange string
	from     string
	timeout  time.Duration
	now      func() time.Time
}

func NewNotifier(pub Publisher, exchange, from string) *Notifier {
	return &Notifier{
		pub:      pub,
		exchange: exchange,
		from:     from,
		timeout:  5 * time.Second,
		now:      time.Now,
	}
}

// OrderMessage es el cuerpo JSON que recibe el mailer.
type OrderMessage struct {
	Type         string           `json:"type"`
	From         string           `json:"from"`
	To           string           `json:"to"`
	OrderID      string           `json:"orderId"`
	OrderNumber  string           `json:"orderNumber"`
	CustomerName string           `json:"customerName"`
	AmountTotal  int64            `json:"amountTotal"`
	Currency     string           `json:"currency"`
	LineItems    []model.LineItem `json:"lineItems"`
	Shipping     model.Address    `json:"shipping"`
	Tracking     *model.Tracking  `json:"tracking,omitempty"`
	CreatedAt    string           `json:"createdAt"`
	ShippedAt    string           `json:"shippedAt,omitempty"`
}

func (n *Notifier) OrderConfirmed(ctx context.Context, o *model.Order) error {
	return n.publish(ctx, KeyOrderConfirmation, o)
}

func (n *Notifier) OrderShipped(ctx context.Context, o *model.Order) error {
	return n.publish(ctx, KeyOrderShipped, o)
}

func (n *Notifier) publish(ctx context.Context, key string, o *model.Order) error {
	if o.CustomerEmail == "" {
		return ErrNoRecipient
	}

	body, err := json.Marshal(messageFor(key, n.from, o))
	if err != nil {
		return err
	}

	// El publish en sí no respeta el contexto; el plazo aplica a la espera del ack.
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	conf, err := n.pub.Publish(ctx, n.exchange, key, amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		MessageId:    uuid.NewString(),
		// El mailer deduplica por orden + tipo.
		CorrelationId: o.ID,
		Timestamp:     n.now(),
		Type:          key,
		Body:          body,
	})
	if err != nil {
		return fmt.Errorf("publishing %s for order %s: %w", key, o.ID, err)
	}

	acked, err := conf.WaitContext(ctx)
	if err != nil {
		return fmt.Errorf("waiting confirm of %s for order %s: %w", key, o.ID, err)
	}
	if !acked {
		return fmt.Errorf("publishing %s for order %s: %w", key, o.ID, ErrNack)
	}
	return nil
}

func messageFor(key, from string, o *model.Order) OrderMessage {
	createdAt := o.CreatedAt
	return OrderMessage{
		Type:         key,
		From:         from,
		To:           o.CustomerEmail,
		OrderID:      o.ID,
		OrderNumber:  o.OrderNumber,
		CustomerName: o.CustomerName,
		AmountTotal:  o.AmountTotal,
		Currency:     o.Currency,
		LineItems:    o.LineItems,
		Shipping:     o.Shipping,
		Tracking:     o.Tracking,
		CreatedAt:    model.FormatInstant(&createdAt),
		ShippedAt:    model.FormatInstant(o.ShippedAt),
	}
}
