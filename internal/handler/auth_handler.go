package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"go-user-auth/internal/model"
	"go-user-auth/internal/service"
	"go-user-auth/pkg/apierror"
)

type AuthHandler struct {
	service *service.AuthService
}

func NewAuthHandler(service *service.AuthService) *AuthHandler {
	return &AuthHandler{service: service}
}

// Login checks the credentials, sets the refresh cookie and returns the
// access token in the body.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.New("BAD_REQUEST", "invalid JSON body", http.StatusBadRequest))
		return
	}

	payload.Email = strings.TrimSpace(payload.Email)
	if payload.Email == "" || payload.Password == "" {
		writeError(w, apierror.New("BAD_REQUEST", "email and password are required", http.StatusBadRequest))
		return
	}

	sess, err := h.service.Login(r.Context(), payload.Email, payload.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	// The refresh cookie must be set before the body is written.
	if _, err := h.service.IssueRefreshToken(r.Context(), w, sess); err != nil {
		writeError(w, err)
		return
	}

	accessToken, err := h.service.IssueAccessToken(sess)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, model.TokenResponse{AccessToken: accessToken})
}

// Token exchanges a live refresh cookie for a new access token.
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	accessToken, err := h.service.Refresh(r.Context(), r)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, model.TokenResponse{AccessToken: accessToken})
}

// Logout is idempotent: it always succeeds and always clears the cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.service.Logout(r.Context(), r, w)
	writeJSON(w, http.StatusOK, model.MessageResponse{Message: "Logged out"})
}
