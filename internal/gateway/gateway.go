// Package gateway defines the capability interface for the hosted payment
// checkout. The widget itself runs in the end user's browser and is an opaque
// black box to this service; the whole contract is the options it is opened
// with and the exactly three ways it comes back.
package gateway

import "context"

// Prefill seeds the widget's contact form from the user's profile.
type Prefill struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Contact string `json:"contact"`
}

// Options configures one opening of the hosted checkout widget. Amounts are
// in the currency's minor unit, as the gateway requires.
type Options struct {
	Key         string            `json:"key"`
	AmountPaise int64             `json:"amount"`
	Currency    string            `json:"currency"`
	OrderID     string            `json:"order_id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	ThemeColor  string            `json:"theme_color"`
	Prefill     Prefill           `json:"prefill"`
	Notes       map[string]string `json:"notes,omitempty"`
}

// Callbacks are the three outcomes a checkout attempt can report: the payment
// succeeded at the gateway, the gateway declined it, or the user closed the
// widget without paying.
type Callbacks struct {
	OnSuccess func(ctx context.Context, orderID, paymentID, signature string)
	OnFailure func(ctx context.Context, reason string)
	OnDismiss func(ctx context.Context)
}

// Gateway is the payment gateway capability. Load makes the hosted checkout
// available (once per process; a failed load may be retried on the next
// call), and Open registers a checkout attempt with its callbacks.
type Gateway interface {
	Load(ctx context.Context) error
	Open(ctx context.Context, opts Options, cb Callbacks) error
}
