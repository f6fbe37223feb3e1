package domain

import "time"

// Order statuses as reported by the platform backend. Transitions happen
// server-side only; the storefront treats them as read-only labels.
const (
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

// PendingOrder is the short-lived result of creating a payment order. It
// exists only for the duration of a checkout attempt and is never persisted.
type PendingOrder struct {
	// Amount is the order total in rupees as the backend computed it.
	Amount float64 `json:"amount"`
	// GatewayOrderID is the identifier issued by the payment gateway.
	GatewayOrderID string `json:"razorpayOrderId"`
	// Key is the gateway's publishable key for the hosted checkout widget.
	Key string `json:"key"`
}

// AmountPaise returns the order amount in the gateway's minor currency unit.
func (p PendingOrder) AmountPaise() int64 {
	return int64(p.Amount*100 + 0.5)
}

// OrderLine is a denormalized snapshot of a purchased product line.
type OrderLine struct {
	ProductID string  `json:"productId"`
	Title     string  `json:"title"`
	Image     string  `json:"image"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
}

// OrderRecord is a past order, immutable from the storefront's perspective.
type OrderRecord struct {
	ID          string      `json:"_id"`
	OrderNumber string      `json:"orderNumber"`
	Items       []OrderLine `json:"items"`
	TotalAmount float64     `json:"totalAmount"`
	Status      string      `json:"status"`
	CreatedAt   time.Time   `json:"createdAt"`
}
