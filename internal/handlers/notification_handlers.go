package handlers

import (
	"net/http"
	"time"

	"taskit/internal/handlers/dto"
	"taskit/internal/logger"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type NotificationHandler struct {
	Notifications NotificationService
	Location      *time.Location
}

func NewNotificationHandler(notifications NotificationService, defaultLocation *time.Location) NotificationHandler {
	if defaultLocation == nil {
		defaultLocation = time.Local
	}
	return NotificationHandler{Notifications: notifications, Location: defaultLocation}
}

func (h *NotificationHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	loc := clientLocation(r, h.Location)
	feed, err := h.Notifications.List(r.Context(), user.UserID, loc)
	if err != nil {
		handleServiceError(w, r, err, "list_notifications", start)
		return
	}

	logger.Info("HTTP_OUT: notifications listed",
		zap.Int("total", len(feed.Items)),
		zap.Int("unread", feed.Unread),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK,
		toPayload("items", dto.FromNotifications(feed.Items, loc)),
		toPayload("unread", feed.Unread))
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	if id == "" {
		responseWithError(w, http.StatusBadRequest, "notification id is required")
		return
	}

	if err := h.Notifications.MarkRead(r.Context(), user.UserID, id); err != nil {
		handleServiceError(w, r, err, "mark_read", start)
		return
	}

	logger.Info("HTTP_OUT: notification read",
		zap.String("notification_id", id),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusNoContent))
	responseWithJSON(w, http.StatusNoContent)
}
