package httpapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/andreasstove999/storefront-go/internal/favorites"
)

type FavoritesHandler struct {
	repo favorites.Repository
	log  *zap.Logger
}

func NewFavoritesHandler(repo favorites.Repository, log *zap.Logger) *FavoritesHandler {
	return &FavoritesHandler{repo: repo, log: log}
}

func (h *FavoritesHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	favs, err := h.repo.List(ctx, principal(r).UserID)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, favs)
}

func (h *FavoritesHandler) Add(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if err := h.repo.Add(ctx, principal(r).UserID, chi.URLParam(r, "productId")); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *FavoritesHandler) Remove(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if err := h.repo.Remove(ctx, principal(r).UserID, chi.URLParam(r, "productId")); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
