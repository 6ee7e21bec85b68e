package handlers

import (
	"mime"
	"net/http"
	"strings"
	"time"

	"taskit/internal/auth"
	"taskit/internal/logger"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const TimezoneHeader = "X-Timezone"

func checkContentType(r *http.Request, target string) bool {
	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		return false
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}

	return mediaType == target
}

// requireJSON writes 415 and returns false when the body is not JSON.
func requireJSON(w http.ResponseWriter, r *http.Request) bool {
	if checkContentType(r, "application/json") {
		return true
	}
	logger.Warn("HTTP: wrong content type",
		zap.String("expected", "application/json"),
		zap.String("received", r.Header.Get("Content-Type")),
		zap.String("client_ip", r.RemoteAddr))
	responseWithError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
	return false
}

func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	idParam := chi.URLParam(r, "id")
	id, err := uuid.Parse(idParam)
	if err != nil || id == uuid.Nil {
		logger.Warn("HTTP: invalid id",
			zap.String("id", idParam),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusBadRequest, "invalid task id")
		return uuid.Nil, false
	}
	return id, true
}

// currentUser returns the identity placed on the context by the
// authentication middleware, or writes 401.
func currentUser(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	id, ok := auth.IdentityFrom(r.Context())
	if !ok {
		logger.Warn("HTTP: missing identity", zap.String("client_ip", r.RemoteAddr))
		responseWithJSON(w, http.StatusUnauthorized,
			toPayload("error", codeUnauthorized),
			toPayload("message", "sign in required"))
		return auth.Identity{}, false
	}
	return id, true
}

// clientLocation reads the IANA zone the client evaluates due dates in.
func clientLocation(r *http.Request, fallback *time.Location) *time.Location {
	name := strings.TrimSpace(r.Header.Get(TimezoneHeader))
	if name == "" {
		return fallback
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		logger.Warn("HTTP: unknown timezone, using default", zap.String("timezone", name))
		return fallback
	}
	return loc
}
