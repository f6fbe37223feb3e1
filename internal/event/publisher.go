// Package event publishes storefront analytics events to Kafka. Publishing is
// best effort: a broker outage must never fail a cart mutation or a checkout.
package event

import (
	"context"
	"log/slog"

	"github.com/Kirito-012/Ancient-Health/internal/domain"
	"github.com/Kirito-012/Ancient-Health/pkg/kafka"
	"github.com/Kirito-012/Ancient-Health/pkg/logger"
)

// Event types emitted by the storefront.
const (
	TypeCartUpdated       = "storefront.cart.updated"
	TypeCheckoutCompleted = "storefront.checkout.completed"
	TypeCheckoutFailed    = "storefront.checkout.failed"
)

const source = "storefront"

// Producer is the slice of the Kafka producer the publisher needs.
type Producer interface {
	Publish(ctx context.Context, topic string, event *kafka.Event) error
}

// Publisher emits storefront analytics events. A nil Publisher or one built
// with a nil producer is a no-op, so event publishing stays optional.
type Publisher struct {
	producer Producer
	topic    string
	logger   *slog.Logger
}

// NewPublisher creates an analytics publisher for the given topic.
func NewPublisher(producer Producer, topic string, logger *slog.Logger) *Publisher {
	return &Publisher{producer: producer, topic: topic, logger: logger}
}

func (p *Publisher) publish(ctx context.Context, eventType, aggregateID string, data any) {
	if p == nil || p.producer == nil {
		return
	}
	evt, err := kafka.NewEvent(eventType, aggregateID, "session", source, data)
	if err != nil {
		p.logger.WarnContext(ctx, "failed to build event",
			slog.String("event_type", eventType),
			slog.String("error", err.Error()),
		)
		return
	}
	evt.WithCorrelationID(logger.CorrelationIDFromContext(ctx))
	if err := p.producer.Publish(ctx, p.topic, evt); err != nil {
		// Already logged by the producer; analytics loss is acceptable.
		return
	}
}

// CartUpdated reports the cart's post-mutation shape.
func (p *Publisher) CartUpdated(ctx context.Context, sessionID string, snapshot domain.CartSnapshot) {
	p.publish(ctx, TypeCartUpdated, sessionID, map[string]any{
		"totalItems": snapshot.TotalItems,
		"totalPrice": snapshot.TotalPrice,
		"lines":      len(snapshot.Items),
	})
}

// CheckoutCompleted reports a verified payment.
func (p *Publisher) CheckoutCompleted(ctx context.Context, sessionID, orderID string) {
	p.publish(ctx, TypeCheckoutCompleted, sessionID, map[string]any{
		"orderId": orderID,
	})
}

// CheckoutFailed reports a failed checkout with its terminal message.
func (p *Publisher) CheckoutFailed(ctx context.Context, sessionID, message string) {
	p.publish(ctx, TypeCheckoutFailed, sessionID, map[string]any{
		"message": message,
	})
}
