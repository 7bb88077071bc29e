// Package auth wraps the Supabase GoTrue API. The service never issues or
// stores credentials itself; every call is a pass-through and the provider's
// error message is surfaced as-is.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// User is the session principal as GoTrue reports it. Metadata carries the
// display name when the user set one.
type User struct {
	ID           uuid.UUID      `json:"id"`
	Email        string         `json:"email"`
	UserMetadata map[string]any `json:"user_metadata,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

// DisplayName prefers the metadata full name, then a bare name, then email.
func (u User) DisplayName() string {
	for _, key := range []string{"full_name", "name"} {
		if v, ok := u.UserMetadata[key].(string); ok && v != "" {
			return v
		}
	}
	if u.Email != "" {
		return u.Email
	}
	return "Não informado"
}

// Session is a GoTrue token grant.
type Session struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	User         User   `json:"user"`
}

// Error carries the provider's message so callers can show it inline.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("auth provider: %s (status %d)", e.Message, e.Status)
}

// Gateway is the GoTrue REST client.
type Gateway struct {
	baseURL string
	anonKey string
	client  *http.Client
}

func NewGateway(supabaseURL, anonKey string) *Gateway {
	return &Gateway{
		baseURL: strings.TrimRight(supabaseURL, "/") + "/auth/v1",
		anonKey: anonKey,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignIn exchanges email+password for a session.
func (g *Gateway) SignIn(ctx context.Context, email, password string) (*Session, error) {
	var session Session
	err := g.do(ctx, http.MethodPost, "/token?grant_type=password", "", credentials{email, password}, &session)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// SignUp registers a new user. Depending on project settings the returned
// session may be empty until the email is confirmed.
func (g *Gateway) SignUp(ctx context.Context, email, password string) (*Session, error) {
	var session Session
	err := g.do(ctx, http.MethodPost, "/signup", "", credentials{email, password}, &session)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// SignOut revokes the token's session server-side.
func (g *Gateway) SignOut(ctx context.Context, accessToken string) error {
	return g.do(ctx, http.MethodPost, "/logout", accessToken, nil, nil)
}

// ResetPassword asks the provider to send a recovery email. Fire-and-forget:
// success only confirms the request was accepted.
func (g *Gateway) ResetPassword(ctx context.Context, email, redirectTo string) error {
	body := map[string]string{"email": email}
	path := "/recover"
	if redirectTo != "" {
		body["redirect_to"] = redirectTo
	}
	return g.do(ctx, http.MethodPost, path, "", body, nil)
}

// UpdatePassword sets a new password for the token's user (used after a
// recovery token grant).
func (g *Gateway) UpdatePassword(ctx context.Context, accessToken, newPassword string) error {
	return g.do(ctx, http.MethodPut, "/user", accessToken, map[string]string{"password": newPassword}, nil)
}

// GetUser resolves a bearer token to its user via the provider.
func (g *Gateway) GetUser(ctx context.Context, accessToken string) (*User, error) {
	var user User
	if err := g.do(ctx, http.MethodGet, "/user", accessToken, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Refresh exchanges a refresh token for a new session.
func (g *Gateway) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	var session Session
	body := map[string]string{"refresh_token": refreshToken}
	err := g.do(ctx, http.MethodPost, "/token?grant_type=refresh_token", "", body, &session)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (g *Gateway) do(ctx context.Context, method, path, bearer string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("apikey", g.anonKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	} else {
		req.Header.Set("Authorization", "Bearer "+g.anonKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("auth request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return &Error{Status: resp.StatusCode, Message: decodeProviderError(resp.Body)}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode auth response: %w", err)
		}
	}

	return nil
}

// decodeProviderError digs the human-readable message out of the several
// error shapes GoTrue responds with.
func decodeProviderError(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, 1<<16))
	if err != nil || len(raw) == 0 {
		return "request rejected"
	}

	var payload struct {
		ErrorDescription string `json:"error_description"`
		Msg              string `json:"msg"`
		Message          string `json:"message"`
		ErrorField       string `json:"error"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return string(raw)
	}

	for _, msg := range []string{payload.ErrorDescription, payload.Msg, payload.Message, payload.ErrorField} {
		if msg != "" {
			return msg
		}
	}
	return "request rejected"
}
