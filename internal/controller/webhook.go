package controller

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v79"
	"go.uber.org/zap"

	"storefront-order-service/internal/payment"
)

const signatureHeader = "Stripe-Signature"

// POST /webhooks/stripe
//
// Solo una firma inválida devuelve error. Cualquier falla procesando un evento
// verificado se loguea y se responde received igual, para que Stripe no
// reintente en loop; la orden se recupera por el reenvío de Stripe o por la
// confirmación del cliente.
func (ctl *OrderController) StripeWebhook(c *gin.Context) {
	payload, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}

	ev, err := ctl.Verifier.Verify(payload, c.GetHeader(signatureHeader))
	if err != nil {
		ctl.Log.Warn("webhook signature rejected", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signature"})
		return
	}

	log := ctl.Log.With(zap.String("eventId", ev.ID), zap.String("eventType", string(ev.Type)))

	if err := ctl.dispatchEvent(c.Request.Context(), ev, log); err != nil {
		log.Error("webhook handling failed", zap.Error(err))
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

// dispatchEvent no deja escapar panics: un evento verificado siempre se
// responde como recibido.
func (ctl *OrderController) dispatchEvent(ctx context.Context, ev stripe.Event, log *zap.Logger) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("webhook handler panicked", zap.Any("panic", r), zap.Stack("stack"))
			err = fmt.Errorf("panic handling event %s: %v", ev.ID, r)
		}
	}()

	switch ev.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		return ctl.handleCheckoutCompleted(ctx, ev, log)
	default:
		log.Debug("webhook event ignored")
		return nil
	}
}

func (ctl *OrderController) handleCheckoutCompleted(ctx context.Context, ev stripe.Event, log *zap.Logger) error {
	id, err := payment.SessionID(ev)
	if err != nil {
		return err
	}

	// El evento no trae los line items; se vuelve a pedir la sesión expandida.
	sess, err := ctl.Payments.GetSession(ctx, id)
	if err != nil {
		return err
	}

	res, err := ctl.Orders.UpsertFromSession(ctx, sess, nil)
	if err != nil {
		return fmt.Errorf("ingesting session %s: %w", id, err)
	}
	log.Info("webhook ingestion done",
		zap.String("orderId", id), zap.Bool("created", res.Created), zap.String("reason", res.Reason))
	return nil
}
