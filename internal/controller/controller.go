package controller

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v79"
	"go.uber.org/zap"

	"storefront-order-service/internal/dto"
	"storefront-order-service/internal/middleware"
	"storefront-order-service/internal/model"
	"storefront-order-service/internal/payment"
	"storefront-order-service/internal/service"
)

// OrderStore es lo que el controller usa de service.OrderService.
type OrderStore interface {
	UpsertFromSession(ctx context.Context, sess *stripe.CheckoutSession, items []*stripe.LineItem) (service.UpsertResult, error)
	Transition(ctx context.Context, orderID string, action model.Action, actor model.Actor, tracking *model.Tracking) error
	GetByID(ctx context.Context, orderID string) (*model.Order, error)
	List(ctx context.Context, status model.Status) ([]*model.Order, error)
	GetByCustomer(ctx context.Context, uid string) ([]*model.Order, error)
	GetCustomerProfile(ctx context.Context, uid string) (*model.UserProfile, error)
}

type SessionGateway interface {
	CreateSession(ctx context.Context, req payment.CheckoutRequest) (*stripe.CheckoutSession, error)
	GetSession(ctx context.Context, id string) (*stripe.CheckoutSession, error)
}

type EventVerifier interface {
	Verify(payload []byte, sigHeader string) (stripe.Event, error)
}

type OrderController struct {
	Orders   OrderStore
	Payments SessionGateway
	Verifier EventVerifier
	Log      *zap.Logger
}

func NewOrderController(orders OrderStore, payments SessionGateway, verifier EventVerifier, log *zap.Logger) *OrderController {
	return &OrderController{Orders: orders, Payments: payments, Verifier: verifier, Log: log}
}

// PATCH /admin/orders — requiere token de admin
func (ctl *OrderController) TransitionOrder(c *gin.Context) {
	var req dto.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	action, err := model.ParseAction(req.Action)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actor, ok := middleware.ActorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing caller identity"})
		return
	}

	err = ctl.Orders.Transition(c.Request.Context(), req.OrderID, action, actor, req.ModelTracking())
	if err != nil {
		ctl.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GET /admin/orders?status=
func (ctl *OrderController) ListOrders(c *gin.Context) {
	status := model.Status(c.Query("status"))
	if status != "" && !status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status"})
		return
	}

	orders, err := ctl.Orders.List(c.Request.Context(), status)
	if err != nil {
		ctl.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToOrderResponses(orders))
}

// GET /admin/orders/:orderId
func (ctl *OrderController) GetOrder(c *gin.Context) {
	o, err := ctl.Orders.GetByID(c.Request.Context(), c.Param("orderId"))
	if err != nil {
		ctl.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToOrderResponse(o))
}

// GET /admin/customers/:uid
func (ctl *OrderController) GetCustomer(c *gin.Context) {
	p, err := ctl.Orders.GetCustomerProfile(c.Request.Context(), c.Param("uid"))
	if err != nil {
		ctl.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToCustomerResponse(p))
}

// GET /orders/mine - el middleware pone userID
func (ctl *OrderController) GetMyOrders(c *gin.Context) {
	uid := c.GetString(middleware.KeyUserID)
	orders, err := ctl.Orders.GetByCustomer(c.Request.Context(), uid)
	if err != nil {
		ctl.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToOrderResponses(orders))
}

// fail traduce los errores de negocio a status HTTP. Los inesperados se
// loguean completos y salen como 500 sin detalle.
func (ctl *OrderController) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrOrderNotFound), errors.Is(err, service.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidAction), errors.Is(err, service.ErrInvalidSession),
		errors.Is(err, payment.ErrEmptyCart):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		_ = c.Error(err)
		ctl.Log.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
