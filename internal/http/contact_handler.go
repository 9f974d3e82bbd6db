package httpapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/andreasstove999/storefront-go/internal/contact"
)

type ContactService interface {
	Submit(ctx context.Context, name, email, message string) (contact.Message, error)
	ListAll(ctx context.Context) ([]contact.Message, error)
	MarkRead(ctx context.Context, id string) (contact.Message, error)
	Reply(ctx context.Context, id, text string) (contact.Message, error)
}

type ContactHandler struct {
	svc ContactService
	log *zap.Logger
}

func NewContactHandler(svc ContactService, log *zap.Logger) *ContactHandler {
	return &ContactHandler{svc: svc, log: log}
}

type contactRequest struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Message string `json:"message" validate:"required"`
}

type contactReplyRequest struct {
	ReplyText string `json:"replyText" validate:"required"`
}

func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var body contactRequest
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if _, err := h.svc.Submit(ctx, body.Name, body.Email, body.Message); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]bool{"ok": true})
}

func (h *ContactHandler) AdminList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	msgs, err := h.svc.ListAll(ctx)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

func (h *ContactHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	m, err := h.svc.MarkRead(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (h *ContactHandler) Reply(w http.ResponseWriter, r *http.Request) {
	var body contactReplyRequest
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	m, err := h.svc.Reply(ctx, chi.URLParam(r, "id"), body.ReplyText)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}
