package cart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/dmitrymomot/cartsync/pkg/events"
	"github.com/dmitrymomot/cartsync/pkg/logger"
	"github.com/dmitrymomot/cartsync/pkg/notifications"
	"github.com/dmitrymomot/cartsync/pkg/storage"
)

// Ledger owns the persisted cart of one execution context.
//
// The store is the source of truth: every operation reads it fresh, so
// changes made by other contexts are picked up without any subscription.
// Mutations are persisted before they return and before cart-changed is
// published. Concurrent writers follow last-write-wins.
type Ledger struct {
	store    *storage.Adapter
	bus      events.Publisher
	notifier Notifier
	logger   *slog.Logger

	// serializes read-modify-write within this context; never held while
	// subscribers or the notifier run
	mu sync.Mutex
}

// NewLedger creates a ledger over store.
func NewLedger(store *storage.Adapter, opts ...Option) *Ledger {
	l := &Ledger{
		store:  store,
		bus:    events.NopPublisher,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load returns the persisted cart. An absent or unreadable cart is empty.
// Entries that break the cart invariants are dropped.
func (l *Ledger) Load(ctx context.Context) Cart {
	stored, ok := storage.Read[Cart](ctx, l.store, StorageKey)
	if !ok {
		return Cart{}
	}

	c, dropped := normalize(stored)
	if dropped > 0 {
		l.logger.WarnContext(ctx, "dropped invalid cart entries",
			logger.Component("cart"),
			slog.Int("dropped", dropped),
		)
	}
	return c
}

// QuantityOf returns the persisted quantity of productID, 0 when absent.
func (l *Ledger) QuantityOf(ctx context.Context, productID string) int {
	return l.Load(ctx).QuantityOf(productID)
}

// SetQuantity sets the absolute quantity of p. A positive quantity replaces an
// existing entry's quantity and product data, or appends a new entry. Zero or
// less removes the entry; removing an absent product is a no-op.
//
// SetQuantity is idempotent. The returned cart is what was persisted.
func (l *Ledger) SetQuantity(ctx context.Context, p Product, quantity int) (Cart, error) {
	if err := validateFor(p, quantity); err != nil {
		return nil, err
	}

	l.mu.Lock()
	m, err := l.apply(ctx, p, func(int) int { return quantity })
	l.mu.Unlock()

	return l.finish(ctx, m, err)
}

// Add changes the quantity of p by delta, starting from the persisted value.
func (l *Ledger) Add(ctx context.Context, p Product, delta int) (Cart, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	m, err := l.apply(ctx, p, func(current int) int { return current + delta })
	l.mu.Unlock()

	return l.finish(ctx, m, err)
}

// Remove deletes the entry for productID.
func (l *Ledger) Remove(ctx context.Context, productID string) (Cart, error) {
	return l.SetQuantity(ctx, Product{ID: productID}, 0)
}

// Clear empties the cart.
func (l *Ledger) Clear(ctx context.Context) error {
	l.mu.Lock()
	err := l.store.Remove(ctx, StorageKey)
	l.mu.Unlock()

	if err != nil {
		return errors.Join(ErrPersist, err)
	}

	l.logger.DebugContext(ctx, "cart cleared", logger.Component("cart"))
	l.publish(ctx)
	return nil
}

// mutation is the outcome of one persisted quantity change.
type mutation struct {
	cart     Cart
	product  Product
	quantity int
	existed  bool
	written  bool
}

// apply reads the cart, computes the target quantity and persists the result.
// Callers hold l.mu.
func (l *Ledger) apply(ctx context.Context, p Product, target func(current int) int) (mutation, error) {
	before := l.Load(ctx)
	m := mutation{
		cart:     before,
		product:  p,
		quantity: target(before.QuantityOf(p.ID)),
		existed:  before.Contains(p.ID),
	}

	if m.quantity <= 0 && !m.existed {
		return m, nil
	}
	if m.quantity <= 0 {
		// keep the stored title for the toast
		m.product = before[before.index(p.ID)].Product
	} else {
		m.product.Images = slices.Clone(p.Images)
		if m.product.Images == nil {
			m.product.Images = []string{}
		}
	}

	after := before.withQuantity(m.product, m.quantity)
	if err := l.store.Write(ctx, StorageKey, after); err != nil {
		return m, errors.Join(ErrPersist, err)
	}

	m.cart = after
	m.written = true
	return m, nil
}

// finish publishes cart-changed and toasts for a persisted mutation.
func (l *Ledger) finish(ctx context.Context, m mutation, err error) (Cart, error) {
	if err != nil {
		return nil, err
	}
	if !m.written {
		return m.cart, nil
	}

	l.logger.DebugContext(ctx, "cart quantity set",
		logger.Component("cart"),
		logger.ProductID(m.product.ID),
		logger.Quantity(m.quantity),
	)
	l.publish(ctx)

	switch {
	case m.quantity <= 0:
		l.notify(ctx, notifications.TypeInfo, fmt.Sprintf("%s removed from cart", displayName(m.product)))
	case !m.existed:
		l.notify(ctx, notifications.TypeSuccess, fmt.Sprintf("%s added to cart", displayName(m.product)))
	}

	return m.cart, nil
}

func (l *Ledger) publish(ctx context.Context) {
	l.bus.Publish(ctx, events.Event{
		Topic:  events.TopicCartChanged,
		Origin: l.store.Origin(),
		Key:    StorageKey,
	})
}

func (l *Ledger) notify(ctx context.Context, t notifications.Type, msg string) {
	if l.notifier != nil {
		l.notifier.Show(ctx, t, msg)
	}
}

func validateFor(p Product, quantity int) error {
	if quantity <= 0 {
		if p.ID == "" {
			return ErrInvalidProduct
		}
		return nil
	}
	return p.Validate()
}

func displayName(p Product) string {
	if p.Title != "" {
		return p.Title
	}
	return p.ID
}
