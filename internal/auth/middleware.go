package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type contextKey string

const userContextKey contextKey = "auth_user"

// Verifier resolves bearer tokens to users: locally against the project JWT
// secret when configured, otherwise through the provider.
type Verifier struct {
	jwtSecret string
	gateway   *Gateway
}

func NewVerifier(jwtSecret string, gateway *Gateway) *Verifier {
	return &Verifier{jwtSecret: jwtSecret, gateway: gateway}
}

// VerifyToken returns the token's user or an error for anything invalid.
func (v *Verifier) VerifyToken(ctx context.Context, token string) (*User, error) {
	if v.jwtSecret != "" {
		if user, err := v.verifyLocal(token); err == nil {
			return user, nil
		}
	}
	return v.gateway.GetUser(ctx, token)
}

func (v *Verifier) verifyLocal(token string) (*User, error) {
	claims := jwt.MapClaims{}

	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(v.jwtSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("jwt parse: %w", err)
	}
	if !parsed.Valid {
		return nil, fmt.Errorf("jwt invalid")
	}

	sub, _ := claims["sub"].(string)
	id, err := uuid.Parse(sub)
	if err != nil {
		return nil, fmt.Errorf("jwt sub is not a user id: %w", err)
	}

	user := &User{ID: id}
	if email, ok := claims["email"].(string); ok {
		user.Email = email
	}
	if meta, ok := claims["user_metadata"].(map[string]any); ok {
		user.UserMetadata = meta
	}
	if iat, ok := claims["iat"].(float64); ok {
		user.CreatedAt = time.Unix(int64(iat), 0)
	}

	return user, nil
}

// Middleware attaches the user to the request context when a valid bearer
// token is present. Requests without a token pass through anonymously;
// individual routes decide whether that is acceptable.
func (v *Verifier) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		user, err := v.VerifyToken(r.Context(), token)
		if err != nil {
			http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

// RequireAuth guards protected routes: without a session the request is
// turned away towards login (the API analog of the page redirect).
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if UserFrom(r.Context()) == nil {
			w.Header().Set("Location", "/login")
			http.Error(w, `{"error":"authentication required"}`, http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireGuest guards auth-only routes (login, register): a signed-in user
// is redirected away.
func RequireGuest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if UserFrom(r.Context()) != nil {
			http.Redirect(w, r, "/dashboard", http.StatusTemporaryRedirect)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WithUser injects a principal; also used by handler tests.
func WithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// UserFrom returns the authenticated user, or nil.
func UserFrom(ctx context.Context) *User {
	user, ok := ctx.Value(userContextKey).(*User)
	if !ok {
		return nil
	}
	return user
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	return parts[1], true
}
