package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"taskit/internal/auth"
	"taskit/internal/blob"
	"taskit/internal/handlers/dto"
	"taskit/internal/logger"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
)

const avatarField = "avatar"

type ProfileHandler struct {
	Profiles  ProfileService
	MaxUpload int64
}

func NewProfileHandler(profiles ProfileService, maxUpload int64) ProfileHandler {
	if maxUpload <= 0 {
		maxUpload = blob.DefaultMaxBytes
	}
	return ProfileHandler{Profiles: profiles, MaxUpload: maxUpload}
}

func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	profile, err := h.Profiles.Get(r.Context(), user.UserID)
	if err != nil {
		handleServiceError(w, r, err, "get_profile", start)
		return
	}
	responseWithJSON(w, http.StatusOK, toPayload("profile", profile))
}

func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	if !requireJSON(w, r) {
		return
	}

	var request dto.ProfileUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		logger.Warn("HTTP: failed to decode JSON", zap.Error(err), zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	profile, err := h.Profiles.Update(r.Context(), user.UserID, auth.ProfileUpdate{
		DisplayName: request.DisplayName,
		Theme:       request.Theme,
	})
	if err != nil {
		handleServiceError(w, r, err, "update_profile", start)
		return
	}

	logger.Info("HTTP_OUT: profile updated",
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))
	responseWithJSON(w, http.StatusOK, toPayload("profile", profile))
}

// UploadAvatar accepts multipart/form-data with the image in the "avatar" field.
func (h *ProfileHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		responseWithError(w, http.StatusUnsupportedMediaType, "Content-Type must be multipart/form-data")
		return
	}

	// room for the multipart envelope around the file
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUpload+64*1024)
	file, header, err := r.FormFile(avatarField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			responseWithError(w, http.StatusRequestEntityTooLarge, "image must be "+humanize.Bytes(uint64(h.MaxUpload))+" or smaller")
			return
		}
		logger.Warn("HTTP: missing upload", zap.Error(err), zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusBadRequest, "form field '"+avatarField+"' is required")
		return
	}
	defer file.Close()

	if header.Size > h.MaxUpload {
		responseWithError(w, http.StatusRequestEntityTooLarge, "image must be "+humanize.Bytes(uint64(h.MaxUpload))+" or smaller")
		return
	}

	profile, err := h.Profiles.UploadAvatar(r.Context(), user.UserID, file)
	if err != nil {
		handleServiceError(w, r, err, "upload_avatar", start)
		return
	}

	logger.Info("HTTP_OUT: avatar uploaded",
		zap.String("size", humanize.Bytes(uint64(header.Size))),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))
	responseWithJSON(w, http.StatusOK, toPayload("profile", profile))
}
