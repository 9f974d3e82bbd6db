package httpapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/andreasstove999/storefront-go/internal/cart"
)

type CartService interface {
	Snapshot(ctx context.Context, userID string) (cart.Snapshot, error)
	AddItem(ctx context.Context, userID, productID string, quantity int) (cart.Snapshot, error)
	UpdateItem(ctx context.Context, userID, itemID string, quantity int) (cart.Snapshot, error)
	RemoveItem(ctx context.Context, userID, itemID string) (cart.Snapshot, error)
	Clear(ctx context.Context, userID string) (cart.Snapshot, error)
	Merge(ctx context.Context, userID string, lines []cart.MergeLine) (cart.MergeResult, error)
}

type CartHandler struct {
	svc CartService
	log *zap.Logger
}

func NewCartHandler(svc CartService, log *zap.Logger) *CartHandler {
	return &CartHandler{svc: svc, log: log}
}

type addItemRequest struct {
	ProductID string `json:"productId" validate:"required"`
	// the lower bound is checked by the cart itself
	Quantity int `json:"quantity" validate:"lte=10000"`
}

type updateItemRequest struct {
	Quantity int `json:"quantity" validate:"lte=10000"`
}

type mergeCartRequest struct {
	Items []mergeLineBody `json:"items" validate:"dive"`
}

type mergeLineBody struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity"`
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	snap, err := h.svc.Snapshot(ctx, principal(r).UserID)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var body addItemRequest
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	snap, err := h.svc.AddItem(ctx, principal(r).UserID, body.ProductID, body.Quantity)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var body updateItemRequest
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	snap, err := h.svc.UpdateItem(ctx, principal(r).UserID, chi.URLParam(r, "itemId"), body.Quantity)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	snap, err := h.svc.RemoveItem(ctx, principal(r).UserID, chi.URLParam(r, "itemId"))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	snap, err := h.svc.Clear(ctx, principal(r).UserID)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// Merge folds a guest cart into the user's active cart after login.
func (h *CartHandler) Merge(w http.ResponseWriter, r *http.Request) {
	var body mergeCartRequest
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	lines := make([]cart.MergeLine, 0, len(body.Items))
	for _, it := range body.Items {
		lines = append(lines, cart.MergeLine{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	res, err := h.svc.Merge(ctx, principal(r).UserID, lines)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
