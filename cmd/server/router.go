package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront-order-service/internal/controller"
	"storefront-order-service/internal/middleware"
)

func setupRouter(ctrl *controller.OrderController, auth middleware.TokenValidator, health func(context.Context) error, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logger))

	r.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := health(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Rutas públicas
	r.POST("/api/checkout", middleware.OptionalAuth(auth), ctrl.CreateCheckout)
	r.POST("/api/orders/confirm", ctrl.ConfirmOrder)
	r.POST("/webhooks/stripe", ctrl.StripeWebhook)

	// Rutas protegidas (requieren token)
	authed := r.Group("/")
	authed.Use(middleware.AuthMiddleware(auth))
	authed.GET("/orders/mine", ctrl.GetMyOrders)

	// Rutas admin
	admin := authed.Group("/admin")
	admin.Use(middleware.AdminOnly())
	admin.PATCH("/orders", ctrl.TransitionOrder)
	admin.GET("/orders", ctrl.ListOrders)
	admin.GET("/orders/:orderId", ctrl.GetOrder)
	admin.GET("/customers/:uid", ctrl.GetCustomer)

	return r
}
