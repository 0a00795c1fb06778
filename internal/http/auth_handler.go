package http

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/auth"
)

type AuthHandler struct {
	svc    AuthService
	logger *zap.Logger
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req auth.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	sess, err := h.svc.Register(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req auth.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	sess, err := h.svc.Login(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.Me(r.Context(), customerID(r))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": c})
}

func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var u auth.ProfileUpdate
	if !decodeJSON(w, r, &u) {
		return
	}
	c, err := h.svc.UpdateProfile(r.Context(), customerID(r), u)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Profile updated successfully", "user": c})
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req auth.ChangePasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.svc.ChangePassword(r.Context(), customerID(r), req); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Password changed successfully"})
}
