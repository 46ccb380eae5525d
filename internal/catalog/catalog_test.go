package catalog

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coffeeshop/internal/models"
	"coffeeshop/internal/storage"
)

var decimalEqual = cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) })

func price(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func openCatalog(t *testing.T, mem *storage.Memory, opts ...Option) *Catalog {
	t.Helper()
	c, err := Open(context.Background(), storage.New(mem), opts...)
	require.NoError(t, err)
	return c
}

func TestOpenSeedsDefaults(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory()
	c := openCatalog(t, mem)

	products := c.List()
	require.Len(t, products, 6)
	for i, p := range products {
		assert.Equal(t, int64(i+1), p.ID)
		assert.Equal(t, "coffee", p.Category)
	}
	assert.Equal(t, "Classic Americano", products[0].Name)
	assert.Equal(t, "4.99", products[0].Price.String())
	assert.Equal(t, "Cappuccino", products[5].Name)

	// persisted immediately
	raw, ok, err := mem.Get(ctx, storage.KeyProducts)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, string(raw), "Mocha Delight")

	// a second open reads the stored collection instead of reseeding
	_, err = c.Add(ctx, models.ProductDraft{Name: "Flat White", Price: price("4.20"), Category: "coffee"})
	require.NoError(t, err)
	assert.Equal(t, 7, openCatalog(t, mem).Len())
}

func TestOpenReseedsCorruptCollection(t *testing.T) {
	mem := storage.NewMemory()
	require.NoError(t, mem.Put(context.Background(), storage.KeyProducts, []byte("{broken")))
	assert.Equal(t, 6, openCatalog(t, mem).Len())
}

func TestOpenKeepsEmptyCollection(t *testing.T) {
	mem := storage.NewMemory()
	require.NoError(t, mem.Put(context.Background(), storage.KeyProducts, []byte("[]")))
	assert.Zero(t, openCatalog(t, mem).Len())
}

func TestWithSeed(t *testing.T) {
	seed := []models.Product{{ID: 10, Name: "Tea", Price: decimal.NewFromInt(3), Category: "tea"}}
	c := openCatalog(t, storage.NewMemory(), WithSeed(seed))
	assert.Empty(t, cmp.Diff(seed, c.List(), decimalEqual))

	seed[0].Name = "changed"
	assert.Equal(t, "Tea", c.List()[0].Name)
}

func TestAdd(t *testing.T) {
	ctx := context.Background()
	node, err := snowflake.NewNode(3)
	require.NoError(t, err)
	c := openCatalog(t, storage.NewMemory(), WithNode(node))

	a, err := c.Add(ctx, models.ProductDraft{Name: "Flat White", Price: price("4.20"), Category: "coffee"})
	require.NoError(t, err)
	b, err := c.Add(ctx, models.ProductDraft{Name: "Water", Price: price("0"), Category: "drinks", Image: "https://x.test/w.png"})
	require.NoError(t, err)

	assert.Greater(t, a.ID, int64(6))
	assert.Greater(t, b.ID, a.ID)
	assert.LessOrEqual(t, b.ID, int64(maxSafeID))
	assert.Equal(t, b.ID, int64(float64(b.ID)), "id survives a float64 round trip")
	assert.Equal(t, models.DefaultProductImage, a.Image)
	assert.Equal(t, "https://x.test/w.png", b.Image)
	assert.True(t, b.Price.IsZero())

	got, err := c.Get(a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Flat White", got.Name)
	assert.Equal(t, []string{"coffee", "drinks"}, c.Categories())
	assert.Len(t, c.ListCategory("drinks"), 1)
}

func TestAddAfterLargeIDs(t *testing.T) {
	ctx := context.Background()
	c := openCatalog(t, storage.NewMemory(), WithSeed([]models.Product{
		{ID: 1 << 45, Name: "Future Roast", Price: decimal.RequireFromString("3"), Category: "coffee"},
	}))

	p, err := c.Add(ctx, models.ProductDraft{Name: "Cortado", Price: price("3.50"), Category: "coffee"})
	require.NoError(t, err)
	assert.Equal(t, int64(1<<45+1), p.ID)
}

func TestAddRejectsIncompleteDraft(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory()
	c := openCatalog(t, mem)
	before, _, _ := mem.Get(ctx, storage.KeyProducts)

	for name, draft := range map[string]models.ProductDraft{
		"no name":        {Price: price("1"), Category: "coffee"},
		"no price":       {Name: "A", Category: "coffee"},
		"negative price": {Name: "A", Price: price("-1"), Category: "coffee"},
		"no category":    {Name: "A", Price: price("1")},
	} {
		_, err := c.Add(ctx, draft)
		assert.ErrorIs(t, err, models.ErrValidation, name)
	}
	assert.Equal(t, 6, c.Len())
	after, _, _ := mem.Get(ctx, storage.KeyProducts)
	assert.Equal(t, before, after)
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory()
	c := openCatalog(t, mem)

	p, err := c.Update(ctx, 2, models.ProductDraft{
		Name: "Salted Caramel", Price: price("6.25"), Category: "specials", Description: "new",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), p.ID)
	assert.Equal(t, "Salted Caramel", p.Name)
	assert.Equal(t, "https://images.unsplash.com/photo-1561047029-3000c68339ca?w=400&h=300&fit=crop", p.Image)

	reloaded, err := openCatalog(t, mem).Get(2)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(p, reloaded, decimalEqual))

	_, err = c.Update(ctx, 99, models.ProductDraft{Name: "A", Price: price("1"), Category: "c"})
	assert.ErrorIs(t, err, models.ErrNotFound)
	_, err = c.Update(ctx, 2, models.ProductDraft{Name: "A"})
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory()
	c := openCatalog(t, mem)

	require.NoError(t, c.Delete(ctx, 3))
	require.NoError(t, c.Delete(ctx, 3))
	require.NoError(t, c.Delete(ctx, 12345))
	assert.Equal(t, 5, c.Len())
	_, err := c.Get(3)
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.Equal(t, 5, openCatalog(t, mem).Len())
}

func TestDeleteAllKeepsEmptyCatalog(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory()
	c := openCatalog(t, mem)
	for _, p := range c.List() {
		require.NoError(t, c.Delete(ctx, p.ID))
	}
	raw, _, _ := mem.Get(ctx, storage.KeyProducts)
	assert.Equal(t, "[]", string(raw))
	assert.Zero(t, openCatalog(t, mem).Len())
}

func TestLoadSeedFile(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "menu.yaml")
	require.NoError(t, os.WriteFile(good, []byte(`
- id: 1
  name: Espresso
  price: 2.50
  category: coffee
- id: 2
  name: Chai
  price: "3.75"
  category: tea
  image: https://x.test/chai.png
`), 0o600))

	products, err := LoadSeedFile(good)
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.True(t, products[0].Price.Equal(decimal.RequireFromString("2.5")))
	assert.Equal(t, models.DefaultProductImage, products[0].Image)
	assert.Equal(t, "https://x.test/chai.png", products[1].Image)

	dup := filepath.Join(dir, "dup.yaml")
	require.NoError(t, os.WriteFile(dup, []byte("- {id: 1, name: A, price: 1, category: c}\n- {id: 1, name: B, price: 1, category: c}\n"), 0o600))
	_, err = LoadSeedFile(dup)
	assert.ErrorContains(t, err, "duplicate id")

	_, err = LoadSeedFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestExportCSV(t *testing.T) {
	c := openCatalog(t, storage.NewMemory())
	var buf bytes.Buffer
	require.NoError(t, c.ExportCSV(&buf))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 7)
	assert.Equal(t, "id,name,price,category,description,image", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "1,Classic Americano,4.99,coffee,"))
}
