package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/Kirito-012/Ancient-Health/internal/domain"
	"github.com/Kirito-012/Ancient-Health/pkg/httpclient"

	apperrors "github.com/Kirito-012/Ancient-Health/pkg/errors"
)

// Catalog reads are public and safe to retry, so they go through the circuit
// breaker client rather than the mutation client.

func catalogError(err error) error {
	if errors.Is(err, httpclient.ErrCircuitOpen) {
		return apperrors.ServiceUnavailable("Catalog is temporarily unavailable. Please try again shortly.")
	}
	return apperrors.Network(err)
}

// ListProducts fetches one page of the product catalog.
func (c *Client) ListProducts(ctx context.Context, page, limit int) ([]domain.Product, Pagination, error) {
	url := fmt.Sprintf("%s/api/products?page=%d&limit=%d", c.baseURL, page, limit)

	resp, err := c.public.Get(ctx, url)
	if err != nil {
		return nil, Pagination{}, catalogError(err)
	}
	defer resp.Body.Close()

	env, err := c.decode(ctx, resp, http.MethodGet, "/api/products")
	if err != nil {
		return nil, Pagination{}, err
	}

	var products []domain.Product
	if err := json.Unmarshal(env.Data, &products); err != nil {
		return nil, Pagination{}, apperrors.Internal(fmt.Errorf("decode products: %w", err))
	}

	var p Pagination
	if env.Pagination != nil {
		p = *env.Pagination
	}
	return products, p, nil
}

// ListCategories fetches the category list.
func (c *Client) ListCategories(ctx context.Context) ([]domain.Category, error) {
	resp, err := c.public.Get(ctx, c.baseURL+"/api/categories")
	if err != nil {
		return nil, catalogError(err)
	}
	defer resp.Body.Close()

	env, err := c.decode(ctx, resp, http.MethodGet, "/api/categories")
	if err != nil {
		return nil, err
	}

	var categories []domain.Category
	if err := json.Unmarshal(env.Data, &categories); err != nil {
		return nil, apperrors.Internal(fmt.Errorf("decode categories: %w", err))
	}
	return categories, nil
}
