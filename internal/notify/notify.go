// Package notify delivers user-facing notices for storefront operations.
// Handlers attach a Collector to the request context so notices emitted deep
// inside an operation (cart updated, item removed) surface in the HTTP
// response the way a toast would.
package notify

import (
	"context"
	"log/slog"
	"sync"
)

// Notifier emits user-facing notices for completed or failed operations.
type Notifier interface {
	Success(ctx context.Context, message string)
	Error(ctx context.Context, message string)
}

type collectorKey struct{}

// Notice is a single user-facing message with its severity.
type Notice struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// Collector accumulates notices for the duration of a single request.
type Collector struct {
	mu      sync.Mutex
	notices []Notice
}

// WithCollector returns a context carrying a fresh Collector alongside the
// Collector itself.
func WithCollector(ctx context.Context) (context.Context, *Collector) {
	c := &Collector{}
	return context.WithValue(ctx, collectorKey{}, c), c
}

func collectorFromContext(ctx context.Context) (*Collector, bool) {
	c, ok := ctx.Value(collectorKey{}).(*Collector)
	return c, ok
}

func (c *Collector) add(level, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notices = append(c.notices, Notice{Level: level, Message: message})
}

// Notices returns the notices collected so far.
func (c *Collector) Notices() []Notice {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Notice, len(c.notices))
	copy(out, c.notices)
	return out
}

// Hub is the standard Notifier: it logs every notice and mirrors it into the
// request's Collector when one is attached to the context.
type Hub struct {
	logger *slog.Logger
}

// NewHub creates a Hub backed by the given logger.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{logger: logger}
}

func (h *Hub) Success(ctx context.Context, message string) {
	h.logger.InfoContext(ctx, "notice", slog.String("level", "success"), slog.String("message", message))
	if c, ok := collectorFromContext(ctx); ok {
		c.add("success", message)
	}
}

func (h *Hub) Error(ctx context.Context, message string) {
	h.logger.WarnContext(ctx, "notice", slog.String("level", "error"), slog.String("message", message))
	if c, ok := collectorFromContext(ctx); ok {
		c.add("error", message)
	}
}
