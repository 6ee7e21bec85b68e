package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"taskit/internal/auth"
	"taskit/internal/handlers/dto"
	"taskit/internal/logger"
	"taskit/internal/service"

	"go.uber.org/zap"
)

const (
	codeUnauthorized   = "UNAUTHORIZED"
	codeSessionExpired = "SESSION_EXPIRED"
	codeEmailTaken     = "EMAIL_TAKEN"
)

type AuthHandler struct {
	Auth AuthService
}

func NewAuthHandler(authService AuthService) AuthHandler {
	return AuthHandler{Auth: authService}
}

func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	if !requireJSON(w, r) {
		return
	}
	var request dto.SignUpRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		logger.Warn("HTTP: failed to decode JSON", zap.Error(err), zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, err := h.Auth.SignUp(r.Context(), request.Email, request.Password, request.DisplayName)
	if err != nil {
		writeAuthError(w, r, err, "sign_up", start)
		return
	}

	logger.Info("HTTP_OUT: user signed up",
		zap.String("user_id", token.User.UserID),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusCreated))
	responseWithJSON(w, http.StatusCreated, toPayload("session", token))
}

func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	if !requireJSON(w, r) {
		return
	}
	var request dto.SignInRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		logger.Warn("HTTP: failed to decode JSON", zap.Error(err), zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, err := h.Auth.SignIn(r.Context(), request.Email, request.Password)
	if err != nil {
		writeAuthError(w, r, err, "sign_in", start)
		return
	}

	logger.Info("HTTP_OUT: user signed in",
		zap.String("user_id", token.User.UserID),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))
	responseWithJSON(w, http.StatusOK, toPayload("session", token))
}

func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	if err := h.Auth.SignOut(r.Context(), auth.BearerToken(r)); err != nil {
		writeAuthError(w, r, err, "sign_out", start)
		return
	}

	logger.Info("HTTP_OUT: user signed out",
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusNoContent))
	responseWithJSON(w, http.StatusNoContent)
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	token, err := h.Auth.Refresh(r.Context(), auth.BearerToken(r))
	if err != nil {
		writeAuthError(w, r, err, "refresh", start)
		return
	}

	logger.Info("HTTP_OUT: session refreshed",
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))
	responseWithJSON(w, http.StatusOK, toPayload("session", token))
}

// WriteAuthError maps auth failures to responses. The middleware shares it.
func WriteAuthError(w http.ResponseWriter, r *http.Request, err error) {
	writeAuthError(w, r, err, "authenticate", time.Now())
}

func writeAuthError(w http.ResponseWriter, r *http.Request, err error, operation string, start time.Time) {
	var verr *auth.ValidationError
	var code, message string
	status := http.StatusUnauthorized

	switch {
	case errors.As(err, &verr):
		status, code, message = http.StatusBadRequest, service.CodeValidation, verr.Error()
	case errors.Is(err, auth.ErrEmailTaken):
		status, code, message = http.StatusConflict, codeEmailTaken, err.Error()
	case errors.Is(err, auth.ErrSessionExpired):
		code, message = codeSessionExpired, "session expired, sign in again"
	case errors.Is(err, auth.ErrInvalidCredentials):
		code, message = codeUnauthorized, err.Error()
	case errors.Is(err, auth.ErrUnauthorized):
		code, message = codeUnauthorized, "sign in required"
	default:
		handleServiceError(w, r, err, operation, start)
		return
	}

	logger.Warn("HTTP: auth rejected",
		zap.String("operation", operation),
		zap.String("error_code", code),
		zap.String("client_ip", r.RemoteAddr))
	responseWithJSON(w, status,
		toPayload("error", code),
		toPayload("message", message))
}
