package client

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/dmitrymomot/cartsync/pkg/cart"
	"github.com/dmitrymomot/cartsync/pkg/events"
	"github.com/dmitrymomot/cartsync/pkg/logger"
	"github.com/dmitrymomot/cartsync/pkg/notifications"
	"github.com/dmitrymomot/cartsync/pkg/session"
	"github.com/dmitrymomot/cartsync/pkg/storage"
)

// Tab is one execution context over a shared Backend: its own session view,
// intra-tab bus and notification slot, bound to the common durable store.
type Tab struct {
	store   *storage.Adapter
	local   *events.LocalBus
	remote  *events.StorageBus
	cart    *cart.Ledger
	session *session.Manager
	toasts  *notifications.Queue
	logger  *slog.Logger

	unsubscribe []func()
	closeOnce   sync.Once
	closeErr    error
}

// Open wires a tab to backend, loads the stored session and starts
// listening for changes made by other tabs. The backend is shared and is not
// closed by Tab.Close.
func Open(ctx context.Context, backend storage.Backend, opts ...Option) (*Tab, error) {
	if backend == nil {
		return nil, ErrNoBackend
	}

	o := &options{
		config: DefaultConfig(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}

	store := storage.NewAdapter(backend,
		storage.WithOrigin(o.origin),
		storage.WithLogger(o.logger),
	)
	log := o.logger.With(logger.Origin(store.Origin()))

	t := &Tab{
		store:  store,
		local:  events.NewLocalBus(events.WithLogger(log)),
		toasts: notifications.NewFromConfig(o.config.Notifications, notifications.WithLogger(log)),
		logger: log,
	}
	t.remote = events.NewStorageBus(store,
		events.WithRoute(cart.StorageKey, events.TopicCartChanged),
		events.WithRoute(session.KeyLoggedIn, events.TopicSessionChanged),
		events.WithRoute(session.KeyCurrentUser, events.TopicSessionChanged),
		events.WithStorageLogger(log),
	)

	ledgerOpts := []cart.Option{cart.WithPublisher(t.local), cart.WithLogger(log)}
	if o.config.CartToasts {
		ledgerOpts = append(ledgerOpts, cart.WithNotifier(t.toasts))
	}
	t.cart = cart.NewLedger(store, ledgerOpts...)
	t.session = session.New(store, session.WithPublisher(t.local), session.WithLogger(log))

	recompute := func(ctx context.Context, _ events.Event) {
		t.session.Recompute(ctx)
	}
	t.unsubscribe = append(t.unsubscribe,
		t.remote.Subscribe(events.TopicSessionChanged, recompute),
		t.remote.Subscribe(events.TopicStorageChanged, recompute),
	)

	// watch first so nothing written between the initial read and the
	// subscription is missed
	if err := t.remote.Start(context.WithoutCancel(ctx)); err != nil {
		_ = t.toasts.Close()
		return nil, errors.Join(ErrOpen, err)
	}
	t.session.Recompute(ctx)

	log.DebugContext(ctx, "tab opened", logger.Component("client"))
	return t, nil
}

// Origin returns the id stamped on this tab's writes.
func (t *Tab) Origin() string { return t.store.Origin() }

// Cart returns the tab's cart ledger.
func (t *Tab) Cart() *cart.Ledger { return t.cart }

// Session returns the tab's session manager.
func (t *Tab) Session() *session.Manager { return t.session }

// Notifications returns the tab's toast slot.
func (t *Tab) Notifications() *notifications.Queue { return t.toasts }

// Events returns the intra-tab bus.
func (t *Tab) Events() *events.LocalBus { return t.local }

// Remote returns the bus carrying changes made by other tabs.
func (t *Tab) Remote() *events.StorageBus { return t.remote }

// Subscribe registers h for topic on both the intra-tab and the inter-tab
// bus, so h sees a change whichever tab made it. Remote handlers run on the
// tab's change-feed goroutine.
func (t *Tab) Subscribe(topic events.Topic, h events.Handler) func() {
	unsubLocal := t.local.Subscribe(topic, h)
	unsubRemote := t.remote.Subscribe(topic, h)
	return func() {
		unsubLocal()
		unsubRemote()
	}
}

// Close stops the change feed and the toast timer. Idempotent.
func (t *Tab) Close() error {
	t.closeOnce.Do(func() {
		for _, unsubscribe := range t.unsubscribe {
			unsubscribe()
		}
		t.closeErr = errors.Join(t.remote.Close(), t.toasts.Close())
		t.logger.Debug("tab closed", logger.Component("client"))
	})
	return t.closeErr
}
