package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v79"

	"storefront-order-service/internal/dto"
	"storefront-order-service/internal/middleware"
	"storefront-order-service/internal/payment"
	"storefront-order-service/internal/service"
)

// POST /api/checkout — crea la sesión de pago y devuelve la URL de Stripe.
// El uid del comprador sale solo del token (OptionalAuth); sin token es invitado.
func (ctl *OrderController) CreateCheckout(c *gin.Context) {
	var req dto.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	in := payment.CheckoutRequest{
		CustomerUID:   c.GetString(middleware.KeyUserID),
		CustomerEmail: req.CustomerEmail,
	}
	if actor, ok := middleware.ActorFrom(c); ok && in.CustomerEmail == "" {
		in.CustomerEmail = actor.Email
	}
	for _, it := range req.Items {
		in.Items = append(in.Items, payment.CheckoutItem{PriceID: it.PriceID, Quantity: it.Quantity})
	}

	sess, err := ctl.Payments.CreateSession(c.Request.Context(), in)
	if err != nil {
		if isStripeClientError(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid checkout request"})
			return
		}
		ctl.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.CheckoutResponse{SessionID: sess.ID, URL: sess.URL})
}

// POST /api/orders/confirm — el storefront confirma al volver del checkout.
// Compite con el webhook; la ingesta es idempotente.
func (ctl *OrderController) ConfirmOrder(c *gin.Context) {
	var req dto.ConfirmOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sess, err := ctl.Payments.GetSession(c.Request.Context(), req.SessionID)
	if err != nil {
		if isStripeClientError(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
			return
		}
		ctl.fail(c, err)
		return
	}

	res, err := ctl.Orders.UpsertFromSession(c.Request.Context(), sess, nil)
	if err != nil {
		ctl.fail(c, err)
		return
	}
	if res.Reason == service.ReasonNotPaid {
		c.JSON(http.StatusConflict, gin.H{"error": "payment not completed"})
		return
	}

	c.JSON(http.StatusOK, dto.ConfirmOrderResponse{
		Success:       true,
		Created:       res.Created,
		AlreadyExists: res.Reason == service.ReasonExists,
	})
}

// Errores 4xx de Stripe (id inexistente, precio inválido): son del cliente.
func isStripeClientError(err error) bool {
	var se *stripe.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.HTTPStatusCode >= 400 && se.HTTPStatusCode < 500 && se.HTTPStatusCode != http.StatusTooManyRequests
}
