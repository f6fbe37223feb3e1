// Package orders provides the read-only order history view. Order status
// transitions happen server-side only; this service never mutates an order.
package orders

import (
	"context"

	"github.com/Kirito-012/Ancient-Health/internal/domain"

	apperrors "github.com/Kirito-012/Ancient-Health/pkg/errors"
)

// API is the slice of the backend client the viewer needs.
type API interface {
	ListOrders(ctx context.Context, credential string) ([]domain.OrderRecord, error)
	GetOrder(ctx context.Context, credential, id string) (domain.OrderRecord, error)
}

// Credentials resolves the caller's credential.
type Credentials interface {
	Credential() (string, bool)
}

// Viewer fetches the current user's orders on demand; nothing is cached.
type Viewer struct {
	api API
}

// NewViewer creates an order history viewer.
func NewViewer(api API) *Viewer {
	return &Viewer{api: api}
}

// List returns the user's order history, newest first as the backend sorts it.
func (v *Viewer) List(ctx context.Context, sess Credentials) ([]domain.OrderRecord, error) {
	credential, ok := sess.Credential()
	if !ok {
		return nil, apperrors.AuthRequired("Please login to view your orders")
	}
	records, err := v.api.ListOrders(ctx, credential)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []domain.OrderRecord{}
	}
	return records, nil
}

// Get returns a single order for the confirmation view.
func (v *Viewer) Get(ctx context.Context, sess Credentials, id string) (domain.OrderRecord, error) {
	credential, ok := sess.Credential()
	if !ok {
		return domain.OrderRecord{}, apperrors.AuthRequired("Please login to view your orders")
	}
	return v.api.GetOrder(ctx, credential, id)
}
