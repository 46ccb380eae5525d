// Package cart keeps the line items of one storage namespace.
package cart

import (
	"context"
	"fmt"
	"slices"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"coffeeshop/internal/models"
	"coffeeshop/internal/notify"
	"coffeeshop/internal/storage"
)

// ProductLookup resolves product ids at add time.
type ProductLookup interface {
	Get(id int64) (models.Product, error)
}

// SessionReader tells the ledger whether someone is logged in.
type SessionReader interface {
	Current() (models.User, bool)
}

// Ledger holds at most one line item per product, each with quantity >= 1,
// in the order they were first added.
type Ledger struct {
	col      *storage.Collection[[]models.CartItem]
	items    []models.CartItem
	products ProductLookup
	sessions SessionReader
	notifier notify.Publisher
	topic    string
	log      *zap.Logger
}

type Option func(*Ledger)

// WithNotifier publishes an event on topic after every persisted change.
func WithNotifier(p notify.Publisher, topic string) Option {
	return func(l *Ledger) {
		l.notifier = p
		l.topic = topic
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(l *Ledger) {
		if log != nil {
			l.log = log
		}
	}
}

func Open(ctx context.Context, store *storage.Store, products ProductLookup, sessions SessionReader, opts ...Option) (*Ledger, error) {
	l := &Ledger{
		col:      storage.NewCollection[[]models.CartItem](store, storage.KeyCart),
		products: products,
		sessions: sessions,
		log:      store.Logger(),
	}
	for _, opt := range opts {
		opt(l)
	}
	items, _, err := l.col.Load(ctx)
	if err != nil {
		return nil, err
	}
	l.items = normalize(items)
	return l, nil
}

// normalize restores the ledger invariants on a collection written by someone
// else: duplicate lines are merged and quantities below 1 become 1.
func normalize(items []models.CartItem) []models.CartItem {
	out := make([]models.CartItem, 0, len(items))
	for _, it := range items {
		if it.Quantity < 1 {
			it.Quantity = 1
		}
		if i := slices.IndexFunc(out, func(o models.CartItem) bool { return o.ID == it.ID }); i >= 0 {
			out[i].Quantity += it.Quantity
			continue
		}
		out = append(out, it)
	}
	return out
}

func (l *Ledger) Items() []models.CartItem { return slices.Clone(l.items) }

func (l *Ledger) Len() int { return len(l.items) }

// Count is the badge value: the sum of all quantities.
func (l *Ledger) Count() int {
	n := 0
	for _, it := range l.items {
		n += it.Quantity
	}
	return n
}

func (l *Ledger) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range l.items {
		total = total.Add(it.Subtotal())
	}
	return total
}

func (l *Ledger) View() models.CartView {
	return models.CartView{Items: l.Items(), Total: l.Total(), Count: l.Count()}
}

// Add puts one more of productID in the cart. The product must still be in
// the catalog; its fields are snapshotted the first time it is added.
func (l *Ledger) Add(ctx context.Context, productID int64) (models.CartItem, error) {
	if _, ok := l.sessions.Current(); !ok {
		return models.CartItem{}, models.ErrUnauthenticated
	}
	p, err := l.products.Get(productID)
	if err != nil {
		return models.CartItem{}, err
	}
	next := slices.Clone(l.items)
	if i := find(next, productID); i >= 0 {
		next[i].Quantity++
		return l.commitItem(ctx, next, i, notify.Updated)
	}
	next = append(next, models.CartItem{Product: p, Quantity: 1})
	return l.commitItem(ctx, next, len(next)-1, notify.Updated)
}

// Remove drops the line for productID if there is one.
func (l *Ledger) Remove(ctx context.Context, productID int64) error {
	next := slices.DeleteFunc(slices.Clone(l.items), func(it models.CartItem) bool { return it.ID == productID })
	return l.commit(ctx, next, notify.Updated)
}

// SetQuantity sets the quantity of an existing line; n below 1 is stored as 1.
func (l *Ledger) SetQuantity(ctx context.Context, productID int64, n int) (models.CartItem, error) {
	i := find(l.items, productID)
	if i < 0 {
		return models.CartItem{}, notInCart(productID)
	}
	next := slices.Clone(l.items)
	next[i].Quantity = max(n, 1)
	return l.commitItem(ctx, next, i, notify.Updated)
}

func (l *Ledger) Increment(ctx context.Context, productID int64) (models.CartItem, error) {
	i := find(l.items, productID)
	if i < 0 {
		return models.CartItem{}, notInCart(productID)
	}
	next := slices.Clone(l.items)
	next[i].Quantity++
	return l.commitItem(ctx, next, i, notify.Updated)
}

// Decrement lowers the quantity by one but never below 1; a line already at 1
// is returned unchanged without writing.
func (l *Ledger) Decrement(ctx context.Context, productID int64) (models.CartItem, error) {
	i := find(l.items, productID)
	if i < 0 {
		return models.CartItem{}, notInCart(productID)
	}
	if l.items[i].Quantity <= 1 {
		return l.items[i], nil
	}
	next := slices.Clone(l.items)
	next[i].Quantity--
	return l.commitItem(ctx, next, i, notify.Updated)
}

func (l *Ledger) Clear(ctx context.Context) error {
	return l.commit(ctx, []models.CartItem{}, notify.Cleared)
}

func find(items []models.CartItem, productID int64) int {
	return slices.IndexFunc(items, func(it models.CartItem) bool { return it.ID == productID })
}

func notInCart(productID int64) error {
	return fmt.Errorf("product %d not in cart: %w", productID, models.ErrNotFound)
}

func (l *Ledger) commitItem(ctx context.Context, next []models.CartItem, i int, ev notify.Event) (models.CartItem, error) {
	if err := l.commit(ctx, next, ev); err != nil {
		return models.CartItem{}, err
	}
	return next[i], nil
}

func (l *Ledger) commit(ctx context.Context, next []models.CartItem, ev notify.Event) error {
	if next == nil {
		next = []models.CartItem{}
	}
	if err := l.col.Save(ctx, next); err != nil {
		return err
	}
	l.items = next
	if l.notifier != nil {
		if err := l.notifier.Publish(ctx, l.topic, ev); err != nil {
			l.log.Warn("cart notification failed", zap.String("topic", l.topic), zap.Error(err))
		}
	}
	return nil
}
