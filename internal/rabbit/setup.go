// setup.go
package rabbit

import (
	"fmt"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Routing keys del exchange de notificaciones. El mailer bindea su cola a
// "order.*".
const (
	KeyOrderConfirmation = "order.confirmation"
	KeyOrderShipped      = "order.shipped"
)

// SetupNotifications declara el exchange topic donde se publican los mails de
// órdenes, pone el canal en modo confirm y devuelve el publisher listo para usar.
func SetupNotifications(ch *amqp091.Channel, exchange, from string, log *zap.Logger) (*Notifier, error) {
	err := ch.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("declaring exchange %s: %w", exchange, err)
	}

	// Con publisher confirms un publish solo cuenta como entregado al mailer
	// cuando el broker lo aceptó.
	if err := ch.Confirm(false); err != nil {
		return nil, fmt.Errorf("enabling publisher confirms: %w", err)
	}

	log.Info("notification exchange ready", zap.String("exchange", exchange))
	return NewNotifier(channelPublisher{ch: ch}, exchange, from), nil
}
