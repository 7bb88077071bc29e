package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "super-secret-jwt-key"

func signedToken(t *testing.T, userID uuid.UUID) string {
	t.Helper()

	claims := jwt.MapClaims{
		"sub":   userID.String(),
		"email": "maria@example.com",
		"iat":   float64(time.Now().Unix()),
		"exp":   float64(time.Now().Add(time.Hour).Unix()),
		"user_metadata": map[string]any{
			"full_name": "Maria Silva",
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

// deniedGateway stands in for the provider; any call to it means local
// verification was skipped or failed.
func deniedGateway(t *testing.T) *Gateway {
	t.Helper()

	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	t.Cleanup(provider.Close)
	return NewGateway(provider.URL, "anon")
}

func TestVerifyTokenLocally(t *testing.T) {
	userID := uuid.New()
	v := NewVerifier(testSecret, deniedGateway(t))

	user, err := v.VerifyToken(context.Background(), signedToken(t, userID))
	require.NoError(t, err)

	assert.Equal(t, userID, user.ID)
	assert.Equal(t, "maria@example.com", user.Email)
	assert.Equal(t, "Maria Silva", user.DisplayName())
}

func TestVerifyTokenRejectsBadSignature(t *testing.T) {
	userID := uuid.New()
	v := NewVerifier("a-different-secret", deniedGateway(t))

	_, err := v.VerifyToken(context.Background(), signedToken(t, userID))
	assert.Error(t, err)
}

func TestMiddlewarePassesAnonymousThrough(t *testing.T) {
	v := NewVerifier(testSecret, deniedGateway(t))

	var seen *User
	handler := v.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = UserFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/products", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, seen)
}

func TestMiddlewareAttachesUser(t *testing.T) {
	userID := uuid.New()
	v := NewVerifier(testSecret, deniedGateway(t))

	var seen *User
	handler := v.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = UserFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, userID))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.NotNil(t, seen)
	assert.Equal(t, userID, seen.ID)
}

func TestMiddlewareRejectsInvalidToken(t *testing.T) {
	v := NewVerifier(testSecret, deniedGateway(t))

	handler := v.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuthRedirectsAnonymous(t *testing.T) {
	handler := RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/orders", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestRequireGuestRedirectsSignedIn(t *testing.T) {
	handler := RequireGuest(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/auth/signin", nil)
	req = req.WithContext(WithUser(req.Context(), &User{ID: uuid.New()}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Equal(t, "/dashboard", rec.Header().Get("Location"))
}
