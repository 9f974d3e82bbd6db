package httpapi

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/andreasstove999/storefront-go/internal/apperr"
	"github.com/andreasstove999/storefront-go/internal/catalog"
	"github.com/andreasstove999/storefront-go/internal/money"
)

type ProductHandler struct {
	svc catalog.Service
	log *zap.Logger
}

func NewProductHandler(svc catalog.Service, log *zap.Logger) *ProductHandler {
	return &ProductHandler{svc: svc, log: log}
}

type createProductRequest struct {
	Title string `json:"title" validate:"required"`
	Slug  string `json:"slug" validate:"required"`
	// priceCents, price_cents or price
	money.RawPrice
	Currency    string   `json:"currency" validate:"omitempty,oneof=MAD EUR"`
	Description *string  `json:"description"`
	Images      []string `json:"images"`
	CategoryID  *string  `json:"categoryId" validate:"omitempty,uuid"`
	BestSeller  bool     `json:"isBestSeller"`
}

type updateProductRequest struct {
	Title       *string  `json:"title" validate:"omitempty,min=1"`
	Slug        *string  `json:"slug" validate:"omitempty,min=1"`
	PriceCents  *int64   `json:"priceCents" validate:"omitempty,gte=0"`
	Currency    *string  `json:"currency" validate:"omitempty,oneof=MAD EUR"`
	Description *string  `json:"description"`
	Images      []string `json:"images"`
	// an empty string clears the category
	CategoryID *string `json:"categoryId" validate:"omitempty,uuid|eq="`
	BestSeller *bool   `json:"isBestSeller"`
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := catalog.ListFilter{
		CategoryID: q.Get("categoryId"),
		Search:     q.Get("q"),
	}
	if v := q.Get("bestSeller"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, r, h.log, apperr.Validation("bestSeller must be a boolean"))
			return
		}
		f.BestSeller = b
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	products, err := h.svc.List(ctx, f)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	p, err := h.svc.Get(ctx, chi.URLParam(r, "idOrSlug"))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var body createProductRequest
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	p, err := h.svc.Create(ctx, catalog.NewProduct{
		Title:       body.Title,
		Slug:        body.Slug,
		Price:       body.RawPrice,
		Currency:    body.Currency,
		Description: body.Description,
		Images:      body.Images,
		CategoryID:  body.CategoryID,
		BestSeller:  body.BestSeller,
	})
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	var body updateProductRequest
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	patch := catalog.Patch{
		Title:       body.Title,
		Slug:        body.Slug,
		PriceCents:  body.PriceCents,
		Description: body.Description,
		Images:      body.Images,
		CategoryID:  body.CategoryID,
		BestSeller:  body.BestSeller,
	}
	if body.Currency != nil {
		c := money.Currency(*body.Currency)
		patch.Currency = &c
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	p, err := h.svc.Update(ctx, chi.URLParam(r, "id"), patch)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if err := h.svc.Delete(ctx, chi.URLParam(r, "id")); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
