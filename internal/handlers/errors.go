package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"taskit/internal/logger"
	"taskit/internal/service"

	"go.uber.org/zap"
)

// StatusClientClosedRequest is written when the request context ended
// before the service answered: the client went away or its session ended.
const StatusClientClosedRequest = 499

func handleBusinessError(w http.ResponseWriter, err error) bool {
	var businessErr *service.BusinessError
	if !errors.As(err, &businessErr) {
		return false
	}
	statusCode := mapBusinessErrorToHTTP(businessErr.Code)

	logger.Warn("HTTP: business error",
		zap.String("error_code", businessErr.Code),
		zap.Int("http_status", statusCode))

	responseWithJSON(w, statusCode,
		toPayload("error", businessErr.Code),
		toPayload("message", businessErr.Message),
		toPayload("details", businessErr.Details),
	)
	return true
}

func mapBusinessErrorToHTTP(code string) int {
	switch code {
	case service.CodeNotFound:
		return http.StatusNotFound
	case service.CodeValidation:
		return http.StatusBadRequest
	case service.CodeForbidden:
		return http.StatusForbidden
	case service.CodeVersionConflict, codeEmailTaken:
		return http.StatusConflict
	case service.CodePayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	case service.CodeUnsupportedMedia:
		return http.StatusUnsupportedMediaType
	case codeUnauthorized, codeSessionExpired:
		return http.StatusUnauthorized
	default:
		return http.StatusBadRequest
	}
}

// handleServiceError writes the response for any error a service returned.
func handleServiceError(w http.ResponseWriter, r *http.Request, err error, operation string, start time.Time) {
	if handleBusinessError(w, err) {
		return
	}

	if r.Context().Err() != nil || errors.Is(err, context.Canceled) {
		logger.Warn("HTTP: request abandoned",
			zap.String("operation", operation),
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr),
			zap.Duration("ms", time.Since(start)))
		responseWithError(w, StatusClientClosedRequest, "request cancelled")
		return
	}

	logger.Error("HTTP: service error", err,
		zap.String("operation", operation),
		zap.String("client_ip", r.RemoteAddr),
		zap.Duration("ms", time.Since(start)))
	responseWithError(w, http.StatusInternalServerError, "internal error")
}
