package httpapi

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/andreasstove999/storefront-go/internal/apperr"
	"github.com/andreasstove999/storefront-go/internal/logger"
	"github.com/andreasstove999/storefront-go/internal/middleware"
	"github.com/andreasstove999/storefront-go/internal/storage"
)

type FileSigner interface {
	Sign(ctx context.Context, path string) (string, error)
}

type FileHandler struct {
	signer FileSigner
	log    *zap.Logger
}

func NewFileHandler(signer FileSigner, log *zap.Logger) *FileHandler {
	return &FileHandler{signer: signer, log: log}
}

// signRequest accepts a stored object path or a previously issued URL.
type signRequest struct {
	Path string `json:"path"`
	URL  string `json:"url"`
}

type signResponse struct {
	URL string `json:"url"`
}

func (h *FileHandler) Sign(w http.ResponseWriter, r *http.Request) {
	var body signRequest
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	target := body.Path
	if target == "" {
		target = body.URL
	}
	if target == "" {
		writeError(w, r, h.log, apperr.Validation("path or url is required"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	signed, err := h.signer.Sign(ctx, target)
	switch {
	case errors.Is(err, storage.ErrNoSigner):
		middleware.WriteError(w, r, http.StatusServiceUnavailable, err.Error())
		return
	case err != nil:
		logger.Warn(r.Context(), h.log, "file signing failed", zap.String("path", target), zap.Error(err))
		middleware.WriteError(w, r, http.StatusBadGateway, "failed to sign file")
		return
	}
	writeJSON(w, http.StatusOK, signResponse{URL: signed})
}
