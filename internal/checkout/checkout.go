// Package checkout turns a cart into a recorded order. No payment is taken.
package checkout

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"coffeeshop/internal/audit"
	"coffeeshop/internal/models"
	"coffeeshop/internal/storage"
)

// Form holds the shipping and payment fields of the checkout page.
type Form struct {
	Name          string
	Email         string
	Address       string
	City          string
	Zip           string
	PaymentMethod string
}

func (f Form) missing() []string {
	var fields []string
	for _, c := range []struct{ name, value string }{
		{"name", f.Name},
		{"email", f.Email},
		{"address", f.Address},
		{"city", f.City},
		{"zip", f.Zip},
		{"payment_method", f.PaymentMethod},
	} {
		if strings.TrimSpace(c.value) == "" {
			fields = append(fields, c.name)
		}
	}
	return fields
}

// Cart is the part of the cart ledger checkout needs.
type Cart interface {
	Items() []models.CartItem
	Total() decimal.Decimal
	Clear(ctx context.Context) error
}

type Service struct {
	col      *storage.Collection[[]models.Order]
	orders   []models.Order
	cart     Cart
	recorder audit.Recorder
	log      *zap.Logger
	now      func() time.Time
	newID    func() string
}

type Option func(*Service)

func WithRecorder(r audit.Recorder) Option {
	return func(s *Service) {
		if r != nil {
			s.recorder = r
		}
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithClock overrides the order timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func Open(ctx context.Context, store *storage.Store, cart Cart, opts ...Option) (*Service, error) {
	s := &Service{
		col:      storage.NewCollection[[]models.Order](store, storage.KeyOrders),
		cart:     cart,
		recorder: audit.Nop,
		log:      store.Logger(),
		now:      time.Now,
		newID:    NewOrderID,
	}
	for _, opt := range opts {
		opt(s)
	}
	orders, _, err := s.col.Load(ctx)
	if err != nil {
		return nil, err
	}
	s.orders = orders
	return s, nil
}

// NewOrderID returns an id of the form ORD-1A2B3C4D.
func NewOrderID() string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "ORD-" + strings.ToUpper(hex[:8])
}

// Place records an order for the current cart contents and empties the cart.
func (s *Service) Place(ctx context.Context, f Form) (models.Order, error) {
	items := s.cart.Items()
	if len(items) == 0 {
		return models.Order{}, &models.ValidationError{Fields: []string{"cart"}, Reason: "your cart is empty"}
	}
	if missing := f.missing(); len(missing) > 0 {
		return models.Order{}, models.Invalid(missing...)
	}

	id := s.newID()
	for s.index(id) >= 0 {
		id = s.newID()
	}
	order := models.Order{
		ID:            id,
		CustomerName:  f.Name,
		Email:         f.Email,
		Address:       f.Address,
		City:          f.City,
		Zip:           f.Zip,
		PaymentMethod: f.PaymentMethod,
		Items:         items,
		Total:         s.cart.Total(),
		Status:        models.OrderPending,
		PlacedAt:      s.now().UTC(),
	}
	next := append(slices.Clone(s.orders), order)
	if err := s.col.Save(ctx, next); err != nil {
		return models.Order{}, err
	}
	s.orders = next
	placed := order
	s.recorder.Record(audit.Event{Topic: audit.OrderPlaced, Subject: order.ID, Actor: order.Email, Order: &placed})

	// the order is already saved; a failed clear leaves the items in the cart
	if err := s.cart.Clear(ctx); err != nil {
		s.log.Error("cart not cleared after checkout", zap.String("order_id", order.ID), zap.Error(err))
		return order, err
	}
	return order, nil
}

// Orders returns every order, oldest first.
func (s *Service) Orders() []models.Order { return slices.Clone(s.orders) }

// History returns the orders placed with email, newest first.
func (s *Service) History(email string) []models.Order {
	var out []models.Order
	for i := len(s.orders) - 1; i >= 0; i-- {
		if s.orders[i].Email == email {
			out = append(out, s.orders[i])
		}
	}
	return out
}

func (s *Service) Order(id string) (models.Order, error) {
	if i := s.index(id); i >= 0 {
		return s.orders[i], nil
	}
	return models.Order{}, fmt.Errorf("order %s: %w", id, models.ErrNotFound)
}

func (s *Service) SetStatus(ctx context.Context, id string, status models.OrderStatus) (models.Order, error) {
	if !status.Valid() {
		return models.Order{}, &models.ValidationError{Fields: []string{"status"}, Reason: "unknown order status"}
	}
	i := s.index(id)
	if i < 0 {
		return models.Order{}, fmt.Errorf("order %s: %w", id, models.ErrNotFound)
	}
	next := slices.Clone(s.orders)
	next[i].Status = status
	if err := s.col.Save(ctx, next); err != nil {
		return models.Order{}, err
	}
	s.orders = next
	order := next[i]
	s.recorder.Record(audit.Event{Topic: audit.OrderStatus, Subject: id, Order: &order})
	return order, nil
}

// Sales is the sum of all order totals.
func (s *Service) Sales() decimal.Decimal {
	total := decimal.Zero
	for _, o := range s.orders {
		total = total.Add(o.Total)
	}
	return total
}

func (s *Service) index(id string) int {
	return slices.IndexFunc(s.orders, func(o models.Order) bool { return o.ID == id })
}
