package httpapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/andreasstove999/storefront-go/internal/chat"
)

type ChatService interface {
	UserSend(ctx context.Context, userID, email, text string) (chat.Message, error)
	PublicSend(ctx context.Context, email, name, text string) (chat.Message, error)
	AdminReply(ctx context.Context, conversationID, adminID, text string) (chat.Message, error)
	ListMine(ctx context.Context, userID string) ([]chat.Message, error)
	ListConversations(ctx context.Context) ([]chat.Conversation, error)
	ListMessages(ctx context.Context, conversationID string) ([]chat.Message, error)
}

type ChatHandler struct {
	svc ChatService
	log *zap.Logger
}

func NewChatHandler(svc ChatService, log *zap.Logger) *ChatHandler {
	return &ChatHandler{svc: svc, log: log}
}

type chatTextRequest struct {
	Text string `json:"text"`
}

type publicChatRequest struct {
	Name  string `json:"name"`
	Email string `json:"email" validate:"required,email"`
	Text  string `json:"text"`
}

func (h *ChatHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	msgs, err := h.svc.ListMine(ctx, principal(r).UserID)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	var body chatTextRequest
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	p := principal(r)
	msg, err := h.svc.UserSend(ctx, p.UserID, p.Email, body.Text)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

// PublicSend serves POST /chat/public for visitors without an account.
func (h *ChatHandler) PublicSend(w http.ResponseWriter, r *http.Request) {
	var body publicChatRequest
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	msg, err := h.svc.PublicSend(ctx, body.Email, body.Name, body.Text)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

func (h *ChatHandler) AdminConversations(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	convs, err := h.svc.ListConversations(ctx)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, convs)
}

func (h *ChatHandler) AdminMessages(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	msgs, err := h.svc.ListMessages(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

func (h *ChatHandler) AdminReply(w http.ResponseWriter, r *http.Request) {
	var body chatTextRequest
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	msg, err := h.svc.AdminReply(ctx, chi.URLParam(r, "id"), principal(r).UserID, body.Text)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}
