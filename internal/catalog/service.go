// Package catalog serves the public product and category listings.
package catalog

import (
	"context"

	"github.com/Kirito-012/Ancient-Health/internal/backend"
	"github.com/Kirito-012/Ancient-Health/internal/domain"
	"github.com/Kirito-012/Ancient-Health/pkg/pagination"
)

// API is the slice of the backend client the catalog needs.
type API interface {
	ListProducts(ctx context.Context, page, limit int) ([]domain.Product, backend.Pagination, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)
}

// Service proxies catalog browsing to the backend. Reads go through the
// circuit-breaker client underneath, so a struggling backend degrades
// browsing gracefully instead of stalling every page.
type Service struct {
	api API
}

// NewService creates a catalog service.
func NewService(api API) *Service {
	return &Service{api: api}
}

// Products returns one page of the catalog.
func (s *Service) Products(ctx context.Context, params pagination.Params) (pagination.Result[domain.Product], error) {
	products, p, err := s.api.ListProducts(ctx, params.Page, params.PerPage)
	if err != nil {
		return pagination.Result[domain.Product]{}, err
	}
	return pagination.NewResult(products, p.Total, params), nil
}

// Categories returns the category list.
func (s *Service) Categories(ctx context.Context) ([]domain.Category, error) {
	categories, err := s.api.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	if categories == nil {
		categories = []domain.Category{}
	}
	return categories, nil
}
