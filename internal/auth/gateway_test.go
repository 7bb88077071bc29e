package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignIn(t *testing.T) {
	userID := uuid.New()

	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/token", r.URL.Path)
		assert.Equal(t, "password", r.URL.Query().Get("grant_type"))
		assert.Equal(t, "test-anon-key", r.Header.Get("apikey"))

		var creds struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		assert.Equal(t, "maria@example.com", creds.Email)

		json.NewEncoder(w).Encode(Session{
			AccessToken:  "token-abc",
			TokenType:    "bearer",
			ExpiresIn:    3600,
			RefreshToken: "refresh-abc",
			User:         User{ID: userID, Email: creds.Email},
		})
	}))
	defer provider.Close()

	g := NewGateway(provider.URL, "test-anon-key")

	session, err := g.SignIn(context.Background(), "maria@example.com", "secret123")
	require.NoError(t, err)

	assert.Equal(t, "token-abc", session.AccessToken)
	assert.Equal(t, userID, session.User.ID)
}

func TestSignInRelaysProviderError(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{
			"error_description": "Invalid login credentials",
		})
	}))
	defer provider.Close()

	g := NewGateway(provider.URL, "test-anon-key")

	_, err := g.SignIn(context.Background(), "maria@example.com", "wrong")
	require.Error(t, err)

	var provErr *Error
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, http.StatusBadRequest, provErr.Status)
	assert.Equal(t, "Invalid login credentials", provErr.Message)
}

func TestGetUserSendsBearerToken(t *testing.T) {
	userID := uuid.New()

	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/user", r.URL.Path)
		assert.Equal(t, "Bearer token-abc", r.Header.Get("Authorization"))

		json.NewEncoder(w).Encode(User{ID: userID, Email: "maria@example.com"})
	}))
	defer provider.Close()

	g := NewGateway(provider.URL, "test-anon-key")

	user, err := g.GetUser(context.Background(), "token-abc")
	require.NoError(t, err)
	assert.Equal(t, userID, user.ID)
	assert.Equal(t, "maria@example.com", user.Email)
}

func TestResetPasswordIncludesRedirect(t *testing.T) {
	var got map[string]string

	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/recover", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer provider.Close()

	g := NewGateway(provider.URL, "test-anon-key")

	require.NoError(t, g.ResetPassword(context.Background(), "maria@example.com", "https://shop.example/reset-password"))
	assert.Equal(t, "maria@example.com", got["email"])
	assert.Equal(t, "https://shop.example/reset-password", got["redirect_to"])
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		name string
		user User
		want string
	}{
		{"full_name wins", User{Email: "a@b.c", UserMetadata: map[string]any{"full_name": "Maria"}}, "Maria"},
		{"name is the fallback", User{Email: "a@b.c", UserMetadata: map[string]any{"name": "Maria"}}, "Maria"},
		{"then email", User{Email: "a@b.c"}, "a@b.c"},
		{"then the placeholder", User{}, "Não informado"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.user.DisplayName())
		})
	}
}
