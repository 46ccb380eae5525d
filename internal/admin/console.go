// Package admin is the mock back office: dashboard figures, menu editing and
// order status changes, open to administrator sessions only.
package admin

import (
	"context"
	"io"
	"slices"
	"strconv"

	"github.com/shopspring/decimal"

	"coffeeshop/internal/audit"
	"coffeeshop/internal/catalog"
	"coffeeshop/internal/checkout"
	"coffeeshop/internal/models"
)

// Session is the part of the session directory the console needs.
type Session interface {
	Current() (models.User, bool)
	Users() []models.User
}

type Stats struct {
	TotalSales decimal.Decimal `json:"total_sales"`
	Orders     int             `json:"orders"`
	Products   int             `json:"products"`
	Customers  int             `json:"customers"`
}

type Console struct {
	catalog  *catalog.Catalog
	orders   *checkout.Service
	session  Session
	recorder audit.Recorder
	actor    string
}

// New opens the console for the current session. It fails with
// ErrUnauthenticated when nobody is logged in and ErrForbidden for a
// non-admin.
func New(sess Session, cat *catalog.Catalog, orders *checkout.Service, rec audit.Recorder) (*Console, error) {
	u, ok := sess.Current()
	if !ok {
		return nil, models.ErrUnauthenticated
	}
	if !u.IsAdmin() {
		return nil, models.ErrForbidden
	}
	if rec == nil {
		rec = audit.Nop
	}
	return &Console{catalog: cat, orders: orders, session: sess, recorder: rec, actor: u.Email}, nil
}

func (c *Console) Stats() Stats {
	customers := 0
	for _, u := range c.session.Users() {
		if u.Role == models.RoleUser {
			customers++
		}
	}
	return Stats{
		TotalSales: c.orders.Sales(),
		Orders:     len(c.orders.Orders()),
		Products:   c.catalog.Len(),
		Customers:  customers,
	}
}

func (c *Console) Products() []models.Product { return c.catalog.List() }

func (c *Console) AddProduct(ctx context.Context, draft models.ProductDraft) (models.Product, error) {
	p, err := c.catalog.Add(ctx, draft)
	if err != nil {
		return p, err
	}
	c.record(audit.ProductCreate, strconv.FormatInt(p.ID, 10))
	return p, nil
}

func (c *Console) UpdateProduct(ctx context.Context, id int64, draft models.ProductDraft) (models.Product, error) {
	p, err := c.catalog.Update(ctx, id, draft)
	if err != nil {
		return p, err
	}
	c.record(audit.ProductUpdate, strconv.FormatInt(id, 10))
	return p, nil
}

func (c *Console) DeleteProduct(ctx context.Context, id int64) error {
	if err := c.catalog.Delete(ctx, id); err != nil {
		return err
	}
	c.record(audit.ProductDelete, strconv.FormatInt(id, 10))
	return nil
}

// Orders returns every order, newest first.
func (c *Console) Orders() []models.Order {
	all := c.orders.Orders()
	slices.Reverse(all)
	return all
}

func (c *Console) SetOrderStatus(ctx context.Context, id string, status models.OrderStatus) (models.Order, error) {
	return c.orders.SetStatus(ctx, id, status)
}

func (c *Console) Users() []models.User { return c.session.Users() }

func (c *Console) ExportCatalog(w io.Writer) error { return c.catalog.ExportCSV(w) }

func (c *Console) record(topic, subject string) {
	c.recorder.Record(audit.Event{Topic: topic, Subject: subject, Actor: c.actor})
}
