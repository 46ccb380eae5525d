// Package shop wires catalog, session, cart and checkout over one storage
// namespace. A Shop is built per trigger (an HTTP request, a CLI command) and
// is not safe for concurrent use.
package shop

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"

	"coffeeshop/internal/admin"
	"coffeeshop/internal/audit"
	"coffeeshop/internal/cart"
	"coffeeshop/internal/catalog"
	"coffeeshop/internal/checkout"
	"coffeeshop/internal/models"
	"coffeeshop/internal/notify"
	"coffeeshop/internal/session"
	"coffeeshop/internal/storage"
)

type Options struct {
	Logger   *zap.Logger
	Recorder audit.Recorder
	Hasher   session.PasswordHasher
	Node     *snowflake.Node
	Seed     []models.Product

	// Admin is created in the namespace when set and missing.
	Admin *session.AdminAccount

	// Notifier receives cart changes on Topic.
	Notifier notify.Publisher
	Topic    string
}

type Shop struct {
	Catalog  *catalog.Catalog
	Session  *session.Directory
	Cart     *cart.Ledger
	Checkout *checkout.Service

	recorder audit.Recorder
}

// View is the read model presenters render from.
type View struct {
	Products   []models.Product `json:"products"`
	Categories []string         `json:"categories"`
	Cart       models.CartView  `json:"cart"`
	User       *models.User     `json:"user,omitempty"`
	IsAdmin    bool             `json:"is_admin"`
}

func Open(ctx context.Context, store *storage.Store, opts Options) (*Shop, error) {
	log := opts.Logger
	if log == nil {
		log = store.Logger()
	}
	rec := opts.Recorder
	if rec == nil {
		rec = audit.Nop
	}

	catOpts := []catalog.Option{catalog.WithLogger(log)}
	if opts.Node != nil {
		catOpts = append(catOpts, catalog.WithNode(opts.Node))
	}
	if opts.Seed != nil {
		catOpts = append(catOpts, catalog.WithSeed(opts.Seed))
	}
	cat, err := catalog.Open(ctx, store, catOpts...)
	if err != nil {
		return nil, err
	}

	sessOpts := []session.Option{session.WithLogger(log), session.WithRecorder(rec)}
	if opts.Hasher != nil {
		sessOpts = append(sessOpts, session.WithHasher(opts.Hasher))
	}
	dir, err := session.Open(ctx, store, sessOpts...)
	if err != nil {
		return nil, err
	}
	if opts.Admin != nil {
		if err := dir.EnsureAdmin(ctx, *opts.Admin); err != nil {
			return nil, err
		}
	}

	cartOpts := []cart.Option{cart.WithLogger(log)}
	if opts.Notifier != nil {
		cartOpts = append(cartOpts, cart.WithNotifier(opts.Notifier, opts.Topic))
	}
	ledger, err := cart.Open(ctx, store, cat, dir, cartOpts...)
	if err != nil {
		return nil, err
	}

	orders, err := checkout.Open(ctx, store, ledger, checkout.WithLogger(log), checkout.WithRecorder(rec))
	if err != nil {
		return nil, err
	}

	return &Shop{Catalog: cat, Session: dir, Cart: ledger, Checkout: orders, recorder: rec}, nil
}

func (s *Shop) View() View {
	v := View{
		Products:   s.Catalog.List(),
		Categories: s.Catalog.Categories(),
		Cart:       s.Cart.View(),
		IsAdmin:    s.Session.IsAdmin(),
	}
	if u, ok := s.Session.Current(); ok {
		v.User = &u
	}
	return v
}

// Admin opens the back office for the current session.
func (s *Shop) Admin() (*admin.Console, error) {
	return admin.New(s.Session, s.Catalog, s.Checkout, s.recorder)
}
