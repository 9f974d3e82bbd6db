package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/andreasstove999/storefront-go/internal/apperr"
	"github.com/andreasstove999/storefront-go/internal/money"
)

type Service interface {
	List(ctx context.Context, f ListFilter) ([]Product, error)
	// Get accepts either a product id or a slug.
	Get(ctx context.Context, idOrSlug string) (Product, error)
	Create(ctx context.Context, in NewProduct) (Product, error)
	Update(ctx context.Context, id string, patch Patch) (Product, error)
	Delete(ctx context.Context, id string) error
}

type NewProduct struct {
	Title       string
	Slug        string
	Price       money.RawPrice
	Currency    string
	Description *string
	Images      []string
	CategoryID  *string
	BestSeller  bool
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) List(ctx context.Context, f ListFilter) ([]Product, error) {
	return s.repo.List(ctx, f)
}

func (s *service) Get(ctx context.Context, idOrSlug string) (Product, error) {
	if _, ok := CanonicalID(idOrSlug); ok {
		return s.repo.GetByID(ctx, idOrSlug)
	}
	return s.repo.GetBySlug(ctx, idOrSlug)
}

func (s *service) Create(ctx context.Context, in NewProduct) (Product, error) {
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Slug) == "" {
		return Product{}, apperr.Validation("title and slug are required")
	}
	currency := money.DefaultCurrency
	if in.Currency != "" {
		c, err := money.ParseCurrency(in.Currency)
		if err != nil {
			return Product{}, err
		}
		currency = c
	}
	if err := s.ensureSlugFree(ctx, in.Slug, ""); err != nil {
		return Product{}, err
	}

	p := Product{
		Title:       in.Title,
		Slug:        in.Slug,
		Price:       money.Cents(money.NormalizeMinor(in.Price)),
		Currency:    currency,
		Description: in.Description,
		Images:      nonEmpty(in.Images),
		CategoryID:  in.CategoryID,
		BestSeller:  in.BestSeller,
	}
	if err := s.repo.Create(ctx, &p); err != nil {
		return Product{}, err
	}
	return p, nil
}

func (s *service) Update(ctx context.Context, id string, patch Patch) (Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Product{}, err
	}
	if patch.Currency != nil {
		if _, err := money.ParseCurrency(string(*patch.Currency)); err != nil {
			return Product{}, err
		}
	}
	if patch.Slug != nil && *patch.Slug != p.Slug {
		if err := s.ensureSlugFree(ctx, *patch.Slug, id); err != nil {
			return Product{}, err
		}
	}

	p.apply(patch)
	if err := s.repo.Update(ctx, &p); err != nil {
		return Product{}, err
	}
	return p, nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// ensureSlugFree reports a conflict when slug belongs to a product other than
// exceptID. The unique index still guards concurrent writers.
func (s *service) ensureSlugFree(ctx context.Context, slug, exceptID string) error {
	existing, err := s.repo.GetBySlug(ctx, slug)
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return nil
	case err != nil:
		return err
	case existing.ID != exceptID:
		return apperr.Conflict("Slug already exists")
	}
	return nil
}
