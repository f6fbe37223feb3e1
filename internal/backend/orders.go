package backend

import (
	"context"
	"net/http"

	"github.com/Kirito-012/Ancient-Health/internal/domain"
)

// VerifyRequest carries the gateway-issued identifiers from the payment
// widget's success callback, plus the payment method the backend records on
// the order.
type VerifyRequest struct {
	GatewayOrderID   string `json:"razorpayOrderId" validate:"required"`
	GatewayPaymentID string `json:"razorpayPaymentId" validate:"required"`
	GatewaySignature string `json:"razorpaySignature" validate:"required"`
	PaymentMethod    string `json:"paymentMethod"`
}

// CreateOrder creates a pending payment order from the user's stored cart and
// the given shipping address. The backend computes the amount; this client
// never prices an order itself.
func (c *Client) CreateOrder(ctx context.Context, credential string, shipping domain.Address) (domain.PendingOrder, error) {
	body := map[string]any{"shippingAddress": shipping}
	var out domain.PendingOrder
	if err := c.call(ctx, http.MethodPost, "/api/orders/create", credential, body, &out); err != nil {
		return domain.PendingOrder{}, err
	}
	return out, nil
}

// VerifyPayment asks the backend to verify a completed gateway payment and
// returns the confirmed order record.
func (c *Client) VerifyPayment(ctx context.Context, credential string, req VerifyRequest) (domain.OrderRecord, error) {
	var out domain.OrderRecord
	if err := c.call(ctx, http.MethodPost, "/api/orders/verify", credential, req, &out); err != nil {
		return domain.OrderRecord{}, err
	}
	return out, nil
}

// ListOrders fetches the current user's order history.
func (c *Client) ListOrders(ctx context.Context, credential string) ([]domain.OrderRecord, error) {
	var out []domain.OrderRecord
	if err := c.call(ctx, http.MethodGet, "/api/orders", credential, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetOrder fetches a single order by id, for the confirmation view.
func (c *Client) GetOrder(ctx context.Context, credential, id string) (domain.OrderRecord, error) {
	var out domain.OrderRecord
	if err := c.call(ctx, http.MethodGet, "/api/orders/"+id, credential, nil, &out); err != nil {
		return domain.OrderRecord{}, err
	}
	return out, nil
}
