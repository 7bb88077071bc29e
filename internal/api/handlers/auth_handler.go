package handlers

import (
	"errors"
	"net/http"

	"storefront/internal/auth"
	"storefront/internal/repository"
)

type AuthHandler struct {
	gateway *auth.Gateway
	users   repository.UserRepository

	// resetRedirect is where the recovery email sends the user to pick a new
	// password.
	resetRedirect string
}

func NewAuthHandler(gateway *auth.Gateway, users repository.UserRepository, resetRedirect string) *AuthHandler {
	return &AuthHandler{gateway: gateway, users: users, resetRedirect: resetRedirect}
}

type signInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type signUpRequest struct {
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
}

type resetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type updatePasswordRequest struct {
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
}

func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if !decodeJSON(w, r, &req) || !checkValid(w, req) {
		return
	}

	session, err := h.gateway.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeAuthError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if !decodeJSON(w, r, &req) || !checkValid(w, req) {
		return
	}
	// Mismatched confirmation never reaches the provider.
	if req.Password != req.ConfirmPassword {
		writeError(w, http.StatusBadRequest, "password_mismatch", "As senhas não coincidem", nil)
		return
	}

	session, err := h.gateway.SignUp(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeAuthError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, session)
}

func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	token, ok := bearerFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token", nil)
		return
	}

	if err := h.gateway.SignOut(r.Context(), token); err != nil {
		h.writeAuthError(w, err)
		return
	}

	writeJSON(w, http.StatusNoContent, nil)
}

// ResetPassword requests the recovery email. One-way: success only means the
// provider accepted the request.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if !decodeJSON(w, r, &req) || !checkValid(w, req) {
		return
	}

	if err := h.gateway.ResetPassword(r.Context(), req.Email, h.resetRedirect); err != nil {
		h.writeAuthError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// UpdatePassword sets a new password for the bearer token's user, typically
// right after a recovery grant.
func (h *AuthHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	token, ok := bearerFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token", nil)
		return
	}

	var req updatePasswordRequest
	if !decodeJSON(w, r, &req) || !checkValid(w, req) {
		return
	}
	if req.Password != req.ConfirmPassword {
		writeError(w, http.StatusBadRequest, "password_mismatch", "As senhas não coincidem", nil)
		return
	}

	if err := h.gateway.UpdatePassword(r.Context(), token, req.Password); err != nil {
		h.writeAuthError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// CheckEmail tells the registration form whether an email is taken.
func (h *AuthHandler) CheckEmail(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		writeError(w, http.StatusBadRequest, "invalid_input", "email is required", nil)
		return
	}

	exists, err := h.users.ExistsByEmail(r.Context(), email)
	if err != nil {
		writeRepoError(w, err, "user not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"exists": exists})
}

// writeAuthError relays the provider's message with its status when we have
// one; the caller shows it inline.
func (h *AuthHandler) writeAuthError(w http.ResponseWriter, err error) {
	var provider *auth.Error
	if errors.As(err, &provider) {
		status := provider.Status
		if status < 400 || status > 599 {
			status = http.StatusBadGateway
		}
		writeError(w, status, "auth_failed", provider.Message, nil)
		return
	}
	writeError(w, http.StatusBadGateway, "auth_unavailable", "authentication service unavailable", nil)
}

func bearerFrom(r *http.Request) (string, bool) {
	const prefix = "Bearer "
	header := r.Header.Get("Authorization")
	if len(header) > len(prefix) && header[:len(prefix)] == prefix {
		return header[len(prefix):], true
	}
	return "", false
}
