// Package catalog holds the product collection of one storage namespace.
package catalog

import (
	"context"
	"fmt"
	"slices"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"

	"coffeeshop/internal/models"
	"coffeeshop/internal/storage"
)

type Catalog struct {
	col      *storage.Collection[[]models.Product]
	products []models.Product
	node     *snowflake.Node
	log      *zap.Logger
	seed     []models.Product
}

type Option func(*Catalog)

// WithSeed replaces the default menu used when the collection is absent.
func WithSeed(products []models.Product) Option {
	return func(c *Catalog) { c.seed = products }
}

// WithNode sets the id generator for new products.
func WithNode(node *snowflake.Node) Option {
	return func(c *Catalog) { c.node = node }
}

func WithLogger(log *zap.Logger) Option {
	return func(c *Catalog) {
		if log != nil {
			c.log = log
		}
	}
}

// Open loads the catalog, seeding and persisting the default menu when the
// stored collection is absent or unreadable.
func Open(ctx context.Context, store *storage.Store, opts ...Option) (*Catalog, error) {
	c := &Catalog{
		col: storage.NewCollection[[]models.Product](store, storage.KeyProducts),
		log: store.Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.node == nil {
		node, err := snowflake.NewNode(1)
		if err != nil {
			return nil, err
		}
		c.node = node
	}

	products, ok, err := c.col.Load(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		seed := c.seed
		if seed == nil {
			seed = DefaultProducts()
		}
		products = slices.Clone(seed)
		if err := c.col.Save(ctx, products); err != nil {
			return nil, err
		}
		c.log.Info("catalog seeded", zap.Int("products", len(products)))
	}
	c.products = products
	return c, nil
}

// List returns every product in insertion order.
func (c *Catalog) List() []models.Product {
	return slices.Clone(c.products)
}

func (c *Catalog) Len() int { return len(c.products) }

func (c *Catalog) ListCategory(category string) []models.Product {
	var out []models.Product
	for _, p := range c.products {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out
}

// Categories returns the distinct category labels in first-seen order.
func (c *Catalog) Categories() []string {
	var out []string
	for _, p := range c.products {
		if !slices.Contains(out, p.Category) {
			out = append(out, p.Category)
		}
	}
	return out
}

func (c *Catalog) Get(id int64) (models.Product, error) {
	if i := c.index(id); i >= 0 {
		return c.products[i], nil
	}
	return models.Product{}, fmt.Errorf("product %d: %w", id, models.ErrNotFound)
}

func (c *Catalog) Add(ctx context.Context, draft models.ProductDraft) (models.Product, error) {
	if err := draft.Validate(); err != nil {
		return models.Product{}, err
	}
	id := c.newID()

	p := models.Product{
		ID:          id,
		Name:        draft.Name,
		Price:       draft.Price.Decimal,
		Image:       draft.Image,
		Description: draft.Description,
		Category:    draft.Category,
	}
	if p.Image == "" {
		p.Image = models.DefaultProductImage
	}

	next := append(slices.Clone(c.products), p)
	if err := c.commit(ctx, next); err != nil {
		return models.Product{}, err
	}
	return p, nil
}

// Update replaces the mutable fields of product id. An empty draft image keeps
// the current one.
func (c *Catalog) Update(ctx context.Context, id int64, draft models.ProductDraft) (models.Product, error) {
	i := c.index(id)
	if i < 0 {
		return models.Product{}, fmt.Errorf("product %d: %w", id, models.ErrNotFound)
	}
	if err := draft.Validate(); err != nil {
		return models.Product{}, err
	}

	next := slices.Clone(c.products)
	p := &next[i]
	p.Name = draft.Name
	p.Price = draft.Price.Decimal
	p.Category = draft.Category
	p.Description = draft.Description
	if draft.Image != "" {
		p.Image = draft.Image
	}
	updated := *p
	if err := c.commit(ctx, next); err != nil {
		return models.Product{}, err
	}
	return updated, nil
}

// Delete removes product id. Unknown ids are ignored.
func (c *Catalog) Delete(ctx context.Context, id int64) error {
	next := slices.DeleteFunc(slices.Clone(c.products), func(p models.Product) bool { return p.ID == id })
	return c.commit(ctx, next)
}

// maxSafeID is the largest integer a JavaScript client reads back exactly.
const maxSafeID = 1<<53 - 1

// newID returns the millisecond timestamp of a fresh snowflake, bumped past
// the largest existing id. Ids stay below maxSafeID for centuries.
func (c *Catalog) newID() int64 {
	id := c.node.Generate().Time()
	for _, p := range c.products {
		if p.ID >= id {
			id = p.ID + 1
		}
	}
	return id
}

func (c *Catalog) index(id int64) int {
	return slices.IndexFunc(c.products, func(p models.Product) bool { return p.ID == id })
}

func (c *Catalog) commit(ctx context.Context, next []models.Product) error {
	if next == nil {
		next = []models.Product{}
	}
	if err := c.col.Save(ctx, next); err != nil {
		return err
	}
	c.products = next
	return nil
}
