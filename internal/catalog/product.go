package catalog

import (
	"time"

	"github.com/andreasstove999/storefront-go/internal/money"
	"github.com/google/uuid"
)

// MaxQuantity bounds the quantity of one product in a cart line or an order
// line.
const MaxQuantity = 10000

// CanonicalID returns id in the lowercase hyphenated form that the products
// table returns, or false when id is not a UUID.
func CanonicalID(id string) (string, bool) {
	u, err := uuid.Parse(id)
	if err != nil {
		return "", false
	}
	return u.String(), true
}

type Product struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Slug        string         `json:"slug"`
	Price       money.RawPrice `json:"price"`
	Currency    money.Currency `json:"currency"`
	Description *string        `json:"description,omitempty"`
	Images      []string       `json:"images"`
	CategoryID  *string        `json:"categoryId,omitempty"`
	BestSeller  bool           `json:"isBestSeller"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// PriceCents is the authoritative unit price in minor units.
func (p Product) PriceCents() int64 {
	return money.NormalizeMinor(p.Price)
}

// CoverImage returns the first image path, or "" when the product has none.
func (p Product) CoverImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

type ListFilter struct {
	CategoryID string
	BestSeller bool
	Search     string
}

// Patch holds the fields of a partial product update. Nil means unchanged.
type Patch struct {
	Title       *string
	Slug        *string
	PriceCents  *int64
	Currency    *money.Currency
	Description *string
	Images      []string
	CategoryID  *string
	BestSeller  *bool
}

func (p *Product) apply(patch Patch) {
	if patch.Title != nil {
		p.Title = *patch.Title
	}
	if patch.Slug != nil {
		p.Slug = *patch.Slug
	}
	if patch.PriceCents != nil {
		p.Price = money.Cents(*patch.PriceCents)
	}
	if patch.Currency != nil {
		p.Currency = *patch.Currency
	}
	if patch.Description != nil {
		p.Description = patch.Description
	}
	if patch.Images != nil {
		p.Images = nonEmpty(patch.Images)
	}
	if patch.CategoryID != nil {
		if *patch.CategoryID == "" {
			p.CategoryID = nil
		} else {
			p.CategoryID = patch.CategoryID
		}
	}
	if patch.BestSeller != nil {
		p.BestSeller = *patch.BestSeller
	}
}

func nonEmpty(images []string) []string {
	out := make([]string, 0, len(images))
	for _, img := range images {
		if img != "" {
			out = append(out, img)
		}
	}
	return out
}
