package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"storefront-order-service/internal/controller"
	"storefront-order-service/internal/payment"
	"storefront-order-service/internal/service"
)

type rejectAll struct{}

func (rejectAll) ValidateToken(context.Context, string) (*service.AuthUser, error) {
	return nil, service.ErrInvalidToken
}

func newTestRouter(health func(context.Context) error) *gin.Engine {
	gin.SetMode(gin.TestMode)
	ctrl := controller.NewOrderController(nil, nil, payment.NewWebhookVerifier("whsec_x"), zap.NewNop())
	return setupRouter(ctrl, rejectAll{}, health, zap.NewNop())
}

func TestHealth(t *testing.T) {
	r := newTestRouter(func(context.Context) error { return nil })
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	r = newTestRouter(func(context.Context) error { return errors.New("no primary") })
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestAdminRoutesRequireToken(t *testing.T) {
	r := newTestRouter(func(context.Context) error { return nil })

	for _, tc := range []struct{ method, path string }{
		{http.MethodPatch, "/admin/orders"},
		{http.MethodGet, "/admin/orders"},
		{http.MethodGet, "/admin/orders/cs_1"},
		{http.MethodGet, "/admin/customers/u1"},
		{http.MethodGet, "/orders/mine"},
	} {
		req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(`{}`))
		req.Header.Set("Authorization", "Bearer whatever")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code, tc.path)
	}
}

func TestWebhookRouteRejectsUnsigned(t *testing.T) {
	r := newTestRouter(func(context.Context) error { return nil })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/webhooks/stripe", strings.NewReader(`{"type":"checkout.session.completed"}`)))
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestNewLogger(t *testing.T) {
	for _, lvl := range []string{"debug", "info", "warn", "error"} {
		l, err := newLogger(lvl)
		require.NoError(t, err, lvl)
		assert.NotNil(t, l)
	}
	_, err := newLogger("loud")
	assert.Error(t, err)
}
