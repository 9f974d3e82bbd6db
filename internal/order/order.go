package order

import (
	"fmt"
	"strings"
	"time"

	"github.com/andreasstove999/storefront-go/internal/apperr"
	"github.com/andreasstove999/storefront-go/internal/money"
)

type Status string

const (
	StatusPendingPayment Status = "PENDING_PAYMENT"
	StatusPaid           Status = "PAID"
	StatusConfirmed      Status = "CONFIRMED"
	StatusProcessing     Status = "PROCESSING"
	StatusDelivered      Status = "DELIVERED"
	StatusCancelled      Status = "CANCELLED"
)

// StatusAll asks admin queries for the default set, same as no filter.
const StatusAll = "ALL"

var AllStatuses = []Status{
	StatusPendingPayment, StatusPaid, StatusConfirmed, StatusProcessing, StatusDelivered, StatusCancelled,
}

// DefaultAdminStatuses is the operational view used when no status filter is
// given. PROCESSING and CANCELLED are left out.
var DefaultAdminStatuses = []Status{
	StatusPendingPayment, StatusPaid, StatusConfirmed, StatusDelivered,
}

func ParseStatus(s string) (Status, error) {
	for _, st := range AllStatuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", apperr.Validation("unknown order status %q", s)
}

type PaymentMethod string

const (
	PaymentCOD          PaymentMethod = "COD"
	PaymentBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentStripe       PaymentMethod = "STRIPE"
)

// ParsePaymentMethod defaults an empty method to COD.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch pm := PaymentMethod(s); pm {
	case "":
		return PaymentCOD, nil
	case PaymentCOD, PaymentBankTransfer, PaymentStripe:
		return pm, nil
	}
	return "", apperr.Validation("unknown payment method %q", s)
}

// InitialStatus is PENDING_PAYMENT for cash on delivery. Every other method
// is assumed settled out of band and starts PAID.
func (pm PaymentMethod) InitialStatus() Status {
	if pm == PaymentCOD {
		return StatusPendingPayment
	}
	return StatusPaid
}

// LineItem is the frozen copy of a product line taken at order creation.
type LineItem struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unitPriceCents"`
	SubtotalCents  int64  `json:"subtotalCents"`
}

type Order struct {
	ID            string         `json:"id"`
	UserID        *string        `json:"userId"`
	CustomerName  string         `json:"customerName"`
	CustomerEmail *string        `json:"customerEmail"`
	CustomerPhone string         `json:"customerPhone"`
	Address       string         `json:"address"`
	Note          *string        `json:"note"`
	PaymentMethod PaymentMethod  `json:"paymentMethod"`
	Status        Status         `json:"status"`
	Items         []LineItem     `json:"items"`
	TotalCents    int64          `json:"totalCents"`
	Currency      money.Currency `json:"currency"`
	CreatedAt     time.Time      `json:"createdAt"`
}

// MissingProductsError reports requested product ids absent from the catalog.
type MissingProductsError struct {
	IDs []string
}

func (e *MissingProductsError) Error() string {
	return fmt.Sprintf("Unknown product ids: %s", strings.Join(e.IDs, ", "))
}

func (e *MissingProductsError) Unwrap() error { return apperr.ErrValidation }

func (e *MissingProductsError) Public() string { return e.Error() }
