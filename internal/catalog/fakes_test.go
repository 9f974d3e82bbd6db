package catalog

import (
	"context"
	"time"

	"github.com/andreasstove999/storefront-go/internal/apperr"
	"github.com/andreasstove999/storefront-go/internal/db"
	"github.com/google/uuid"
)

type fakeRepo struct {
	products map[string]Product
	gets     int
}

func newFakeRepo(products ...Product) *fakeRepo {
	r := &fakeRepo{products: map[string]Product{}}
	for _, p := range products {
		r.products[p.ID] = p
	}
	return r
}

func (r *fakeRepo) GetByIDs(_ context.Context, _ db.Querier, ids []string) ([]Product, error) {
	var out []Product
	for _, id := range ids {
		if p, ok := r.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakeRepo) GetByID(_ context.Context, id string) (Product, error) {
	r.gets++
	p, ok := r.products[id]
	if !ok {
		return Product{}, apperr.NotFound("product", id)
	}
	return p, nil
}

func (r *fakeRepo) GetBySlug(_ context.Context, slug string) (Product, error) {
	r.gets++
	for _, p := range r.products {
		if p.Slug == slug {
			return p, nil
		}
	}
	return Product{}, apperr.NotFound("product", slug)
}

func (r *fakeRepo) List(context.Context, ListFilter) ([]Product, error) {
	var out []Product
	for _, p := range r.products {
		out = append(out, p)
	}
	return out, nil
}

func (r *fakeRepo) Create(_ context.Context, p *Product) error {
	p.ID = uuid.NewString()
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	r.products[p.ID] = *p
	return nil
}

func (r *fakeRepo) Update(_ context.Context, p *Product) error {
	if _, ok := r.products[p.ID]; !ok {
		return apperr.NotFound("product", p.ID)
	}
	r.products[p.ID] = *p
	return nil
}

func (r *fakeRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.products[id]; !ok {
		return apperr.NotFound("product", id)
	}
	delete(r.products, id)
	return nil
}
