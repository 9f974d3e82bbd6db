package httpapi

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/andreasstove999/storefront-go/internal/apperr"
	"github.com/andreasstove999/storefront-go/internal/money"
)

type CurrencyHandler struct {
	log *zap.Logger
}

func NewCurrencyHandler(log *zap.Logger) *CurrencyHandler {
	return &CurrencyHandler{log: log}
}

type convertResponse struct {
	AmountCents int64          `json:"amountCents"`
	Currency    money.Currency `json:"currency"`
	Formatted   string         `json:"formatted"`
}

// Convert serves GET /currency/convert?amount=1250&from=EUR&to=MAD for
// display purposes.
func (h *CurrencyHandler) Convert(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	amount, err := strconv.ParseInt(q.Get("amount"), 10, 64)
	if err != nil {
		writeError(w, r, h.log, apperr.Validation("amount must be an integer in minor units"))
		return
	}
	from, err := money.ParseCurrency(q.Get("from"))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	to, err := money.ParseCurrency(q.Get("to"))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	converted, err := money.Convert(amount, from, to)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, convertResponse{
		AmountCents: converted,
		Currency:    to,
		Formatted:   money.Format(converted, to),
	})
}
