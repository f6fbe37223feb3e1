package domain

// CartLine is a single product line inside the cart.
type CartLine struct {
	ProductID string  `json:"productId"`
	Title     string  `json:"title"`
	Image     string  `json:"image"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	Stock     int     `json:"stock"`
}

// CartSnapshot is the server-authoritative view of the cart. Totals are always
// computed by the backend; the storefront never derives them locally and
// replaces the whole snapshot on every successful mutation.
type CartSnapshot struct {
	Items      []CartLine `json:"items"`
	TotalItems int        `json:"totalItems"`
	TotalPrice float64    `json:"totalPrice"`
}

// EmptyCart returns the snapshot of a cart with no items.
func EmptyCart() CartSnapshot {
	return CartSnapshot{Items: []CartLine{}}
}

// IsEmpty reports whether the snapshot holds no items.
func (c CartSnapshot) IsEmpty() bool {
	return len(c.Items) == 0
}

// Quantity returns the quantity of the given product in the snapshot, or zero
// when the product is not in the cart.
func (c CartSnapshot) Quantity(productID string) int {
	for _, line := range c.Items {
		if line.ProductID == productID {
			return line.Quantity
		}
	}
	return 0
}
