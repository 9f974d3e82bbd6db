package httpapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/andreasstove999/storefront-go/internal/order"
)

type OrderService interface {
	Place(ctx context.Context, in order.PlaceInput) (order.PlaceResult, error)
	FindForAdmin(ctx context.Context, status string) ([]order.Order, error)
	ListMine(ctx context.Context, userID string) ([]order.Order, error)
	Get(ctx context.Context, orderID, userID string, isAdmin bool) (order.Order, error)
}

type OrderHandler struct {
	svc OrderService
	log *zap.Logger
}

func NewOrderHandler(svc OrderService, log *zap.Logger) *OrderHandler {
	return &OrderHandler{svc: svc, log: log}
}

// placeOrderRequest deliberately has no price, name or currency per item:
// anything else the client sends is dropped by the decoder.
type placeOrderRequest struct {
	PaymentMethod string          `json:"paymentMethod"`
	Market        string          `json:"market"`
	Customer      customerBody    `json:"customer"`
	Items         []orderItemBody `json:"items" validate:"dive"`
}

type customerBody struct {
	FullName string `json:"fullName"`
	Email    string `json:"email" validate:"omitempty,email"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	City     string `json:"city"`
	Note     string `json:"note"`
}

type orderItemBody struct {
	ID       string `json:"id" validate:"required"`
	Quantity int    `json:"quantity" validate:"lte=10000"`
}

type placeOrderResponse struct {
	order.Order
	MissingProductIDs []string `json:"missingProductIds"`
}

func (h *OrderHandler) Place(w http.ResponseWriter, r *http.Request) {
	var body placeOrderRequest
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	in := order.PlaceInput{
		UserID:        principal(r).UserID,
		PaymentMethod: body.PaymentMethod,
		Market:        body.Market,
		CustomerName:  body.Customer.FullName,
		CustomerEmail: body.Customer.Email,
		CustomerPhone: body.Customer.Phone,
		Address:       body.Customer.Address,
		City:          body.Customer.City,
		Note:          body.Customer.Note,
		Items:         make([]order.ItemRequest, 0, len(body.Items)),
	}
	for _, it := range body.Items {
		in.Items = append(in.Items, order.ItemRequest{ID: it.ID, Quantity: it.Quantity})
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	res, err := h.svc.Place(ctx, in)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, placeOrderResponse{Order: res.Order, MissingProductIDs: res.MissingProductIDs})
}

func (h *OrderHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	orders, err := h.svc.ListMine(ctx, principal(r).UserID)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	p := principal(r)
	o, err := h.svc.Get(ctx, chi.URLParam(r, "orderId"), p.UserID, p.IsAdmin())
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// AdminList serves GET /admin/orders?status=.
func (h *OrderHandler) AdminList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	orders, err := h.svc.FindForAdmin(ctx, r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}
