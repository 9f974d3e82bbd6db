package cart

import (
	"time"

	"github.com/andreasstove999/storefront-go/internal/money"
)

type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusOrdered   Status = "ORDERED"
	StatusCancelled Status = "CANCELLED"
)

type Cart struct {
	ID        string
	UserID    string
	Status    Status
	Items     []Item
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Item is one cart line. UnitPriceCents and Currency are captured when the
// line is created and are not re-synced with later catalog changes.
type Item struct {
	ID             string
	CartID         string
	ProductID      string
	Quantity       int
	UnitPriceCents int64
	Currency       money.Currency
	CreatedAt      time.Time
	Product        ProductSummary
}

type ProductSummary struct {
	ID     string
	Title  string
	Slug   string
	Images []string
}

func (c Cart) itemByID(itemID string) (Item, bool) {
	for _, it := range c.Items {
		if it.ID == itemID {
			return it, true
		}
	}
	return Item{}, false
}

func (c Cart) itemByProduct(productID string) (Item, bool) {
	for _, it := range c.Items {
		if it.ProductID == productID {
			return it, true
		}
	}
	return Item{}, false
}

type Snapshot struct {
	ID         string         `json:"id"`
	Items      []SnapshotItem `json:"items"`
	TotalCents int64          `json:"totalCents"`
	Currency   money.Currency `json:"currency"`
	UpdatedAt  time.Time      `json:"updatedAt"`
}

type SnapshotItem struct {
	ID             string          `json:"id"`
	Product        SnapshotProduct `json:"product"`
	Quantity       int             `json:"quantity"`
	UnitPriceCents int64           `json:"unitPriceCents"`
	Currency       money.Currency  `json:"currency"`
	LineTotalCents int64           `json:"lineTotalCents"`
}

type SnapshotProduct struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Slug       string   `json:"slug"`
	Images     []string `json:"images"`
	CoverImage string   `json:"coverImage,omitempty"`
}

// MergeLine is one line of a guest cart submitted at login.
type MergeLine struct {
	ProductID string
	Quantity  int
}

type MergeResult struct {
	Cart              Snapshot `json:"cart"`
	SkippedProductIDs []string `json:"skippedProductIds"`
}
