package backend

import (
	"context"
	"net/http"

	"github.com/Kirito-012/Ancient-Health/internal/domain"
)

// Every successful cart call returns the entire updated snapshot; callers
// replace their local copy wholesale.

// GetCart fetches the current cart.
func (c *Client) GetCart(ctx context.Context, credential string) (domain.CartSnapshot, error) {
	var out domain.CartSnapshot
	if err := c.call(ctx, http.MethodGet, "/api/cart", credential, nil, &out); err != nil {
		return domain.CartSnapshot{}, err
	}
	return out, nil
}

// AddToCart adds quantity units of a product to the cart.
func (c *Client) AddToCart(ctx context.Context, credential, productID string, quantity int) (domain.CartSnapshot, error) {
	body := map[string]any{"productId": productID, "quantity": quantity}
	var out domain.CartSnapshot
	if err := c.call(ctx, http.MethodPost, "/api/cart/add", credential, body, &out); err != nil {
		return domain.CartSnapshot{}, err
	}
	return out, nil
}

// UpdateCartItem sets the quantity of a product already in the cart.
func (c *Client) UpdateCartItem(ctx context.Context, credential, productID string, quantity int) (domain.CartSnapshot, error) {
	body := map[string]any{"productId": productID, "quantity": quantity}
	var out domain.CartSnapshot
	if err := c.call(ctx, http.MethodPut, "/api/cart/update", credential, body, &out); err != nil {
		return domain.CartSnapshot{}, err
	}
	return out, nil
}

// RemoveCartItem removes a product line from the cart.
func (c *Client) RemoveCartItem(ctx context.Context, credential, productID string) (domain.CartSnapshot, error) {
	var out domain.CartSnapshot
	if err := c.call(ctx, http.MethodDelete, "/api/cart/remove/"+productID, credential, nil, &out); err != nil {
		return domain.CartSnapshot{}, err
	}
	return out, nil
}

// ClearCart empties the cart.
func (c *Client) ClearCart(ctx context.Context, credential string) (domain.CartSnapshot, error) {
	var out domain.CartSnapshot
	if err := c.call(ctx, http.MethodDelete, "/api/cart/clear", credential, nil, &out); err != nil {
		return domain.CartSnapshot{}, err
	}
	return out, nil
}
