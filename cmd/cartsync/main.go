// Command cartsync opens two storefront tabs over one durable store and shows
// cart and session changes made in one tab reaching the other.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/dmitrymomot/cartsync/pkg/cart"
	"github.com/dmitrymomot/cartsync/pkg/client"
	"github.com/dmitrymomot/cartsync/pkg/config"
	"github.com/dmitrymomot/cartsync/pkg/events"
	"github.com/dmitrymomot/cartsync/pkg/logger"
	"github.com/dmitrymomot/cartsync/pkg/redis"
	"github.com/dmitrymomot/cartsync/pkg/session"
	"github.com/dmitrymomot/cartsync/pkg/storage"
)

type appConfig struct {
	Backend string `env:"CARTSYNC_BACKEND" envDefault:"memory"`
	Catalog string `env:"CARTSYNC_CATALOG"`
	Locale  string `env:"CARTSYNC_LOCALE" envDefault:"en"`
	// SettleTime is how long the demo waits for a change to reach the other tab.
	SettleTime time.Duration `env:"CARTSYNC_SETTLE_TIME" envDefault:"100ms"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		slog.Error("cartsync failed", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	if err := config.LoadEnv(); err != nil {
		return err
	}

	var logCfg logger.Config
	if err := config.Load(&logCfg); err != nil {
		return err
	}
	log := logger.NewFromConfig(logCfg)
	logger.SetAsDefault(log)

	var cfg appConfig
	if err := config.Load(&cfg); err != nil {
		return err
	}
	var tabCfg client.Config
	if err := config.Load(&tabCfg); err != nil {
		return err
	}

	shop, err := loadCatalog(cfg.Catalog)
	if err != nil {
		return err
	}

	backend, err := openBackend(ctx, cfg.Backend, log)
	if err != nil {
		return err
	}
	defer backend.Close()

	opts := []client.Option{client.WithConfig(tabCfg), client.WithLogger(log)}
	left, err := client.Open(ctx, backend, opts...)
	if err != nil {
		return err
	}
	defer left.Close()
	right, err := client.Open(ctx, backend, opts...)
	if err != nil {
		return err
	}
	defer right.Close()

	out := newReport(language.Make(cfg.Locale), shop.currency)
	right.Subscribe(events.TopicCartChanged, func(ctx context.Context, e events.Event) {
		if e.Remote {
			out.cart("right tab saw a cart change", right.Cart().Load(ctx))
		}
	})
	right.Subscribe(events.TopicSessionChanged, func(ctx context.Context, e events.Event) {
		if e.Remote {
			out.session("right tab saw a session change", right.Session().Snapshot())
		}
	})

	settle := func() { time.Sleep(cfg.SettleTime) }

	first := shop.products[0]
	if _, err := left.Cart().SetQuantity(ctx, first, 1); err != nil {
		return err
	}
	settle()
	if _, err := left.Cart().SetQuantity(ctx, first, 2); err != nil {
		return err
	}
	settle()
	for _, p := range shop.products[1:] {
		if _, err := right.Cart().Add(ctx, p, 1); err != nil {
			return err
		}
	}
	out.cart("left tab after right tab added items", left.Cart().Load(ctx))

	if err := left.Session().Login(ctx, session.Profile{Name: "Demo", Email: "demo@example.com", Role: session.RoleAdmin}); err != nil {
		return err
	}
	settle()

	if n, ok := left.Notifications().Current(); ok {
		out.line("left tab toast: [%s] %s", n.Type, n.Message)
	}

	if err := right.Session().Logout(ctx); err != nil {
		return err
	}
	settle()
	out.session("left tab after logout in right tab", left.Session().Snapshot())

	if err := left.Cart().Clear(ctx); err != nil {
		return err
	}
	settle()
	return nil
}

func openBackend(ctx context.Context, kind string, log *slog.Logger) (storage.Backend, error) {
	switch kind {
	case "memory":
		return storage.NewMemoryBackend(storage.WithMemoryLogger(log)), nil
	case "redis":
		var cfg redis.Config
		if err := config.Load(&cfg); err != nil {
			return nil, err
		}
		conn, err := redis.Connect(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if err := redis.Healthcheck(conn)(ctx); err != nil {
			_ = conn.Close()
			return nil, err
		}
		return redis.NewStorage(conn, cfg, redis.WithLogger(log)), nil
	}
	return nil, errors.Join(errUnknownBackend, fmt.Errorf("backend %q", kind))
}

var errUnknownBackend = errors.New("unknown backend")

// report prints from the main goroutine and from tab change-feed handlers.
type report struct {
	mu   sync.Mutex
	p    *message.Printer
	unit currency.Unit
}

func newReport(tag language.Tag, unit currency.Unit) *report {
	return &report{p: message.NewPrinter(tag), unit: unit}
}

func (r *report) line(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.p.Printf(format+"\n", args...)
}

func (r *report) cart(title string, c cart.Cart) {
	r.line("%s: %d item(s), total %v", title, c.TotalItemCount(),
		currency.Symbol(r.unit.Amount(c.TotalAmount().InexactFloat64())))
	for _, e := range c {
		r.line("  %-20s x%d", e.Product.Title, e.Quantity)
	}
}

func (r *report) session(title string, s session.Snapshot) {
	if !s.IsAuthenticated() {
		r.line("%s: anonymous", title)
		return
	}
	r.line("%s: %s (%s)", title, s.User.Email, s.User.Role)
}
