package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-order-service/internal/model"
)

func authServer(t *testing.T, users map[string]AuthUser) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/current", r.URL.Path)
		u, ok := users[r.Header.Get("Authorization")]
		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(u)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestValidateToken(t *testing.T) {
	srv := authServer(t, map[string]AuthUser{
		"Bearer good":     {ID: "u1", Name: "Ops", Login: "ops@example.com", Permissions: []string{"user", "admin"}, Enabled: true},
		"Bearer disabled": {ID: "u2", Enabled: false},
	})
	auth := NewAuthService(srv.URL + "/")
	ctx := context.Background()

	u, err := auth.ValidateToken(ctx, "good")
	require.NoError(t, err)
	assert.True(t, auth.IsAdmin(u))
	assert.Equal(t, model.Actor{UID: "u1", Email: "ops@example.com", Name: "Ops"}, u.Actor())

	_, err = auth.ValidateToken(ctx, "disabled")
	assert.ErrorIs(t, err, ErrUserDisabled)

	_, err = auth.ValidateToken(ctx, "bad")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = auth.ValidateToken(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestActorPrefersEmail(t *testing.T) {
	u := &AuthUser{ID: "u1", Email: "a@example.com", Login: "ops"}
	assert.Equal(t, "a@example.com", u.Actor().Email)

	u = &AuthUser{ID: "u1", Login: "ops"}
	assert.Empty(t, u.Actor().Email)
}
