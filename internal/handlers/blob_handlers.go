package handlers

import (
	"errors"
	"net/http"
	"time"

	"taskit/internal/blob"
	"taskit/internal/logger"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type BlobHandler struct {
	Blobs BlobOpener
}

func NewBlobHandler(blobs BlobOpener) BlobHandler {
	return BlobHandler{Blobs: blobs}
}

func (h *BlobHandler) ServeBlob(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")

	f, contentType, err := h.Blobs.Open(key)
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) || errors.Is(err, blob.ErrInvalidKey) {
			responseWithError(w, http.StatusNotFound, "not found")
			return
		}
		logger.Error("HTTP: failed to open blob", err, zap.String("key", key))
		responseWithError(w, http.StatusInternalServerError, "internal error")
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "private, max-age=300")
	http.ServeContent(w, r, key, time.Time{}, f)
}
