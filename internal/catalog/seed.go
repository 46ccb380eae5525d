package catalog

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"coffeeshop/internal/models"
)

func unsplash(photo string) string {
	return "https://images.unsplash.com/" + photo + "?w=400&h=300&fit=crop"
}

// DefaultProducts is the menu a fresh namespace starts with.
func DefaultProducts() []models.Product {
	return []models.Product{
		{
			ID:          1,
			Name:        "Classic Americano",
			Price:       decimal.RequireFromString("4.99"),
			Image:       models.DefaultProductImage,
			Description: "Rich and bold coffee with a smooth finish. Perfect for starting your day.",
			Category:    "coffee",
		},
		{
			ID:          2,
			Name:        "Caramel Macchiato",
			Price:       decimal.RequireFromString("5.99"),
			Image:       unsplash("photo-1561047029-3000c68339ca"),
			Description: "Creamy espresso with steamed milk and sweet caramel drizzle.",
			Category:    "coffee",
		},
		{
			ID:          3,
			Name:        "Vanilla Latte",
			Price:       decimal.RequireFromString("5.49"),
			Image:       unsplash("photo-1514432324607-a09d9b4aefdd"),
			Description: "Smooth espresso combined with steamed milk and vanilla syrup.",
			Category:    "coffee",
		},
		{
			ID:          4,
			Name:        "Mocha Delight",
			Price:       decimal.RequireFromString("6.49"),
			Image:       unsplash("photo-1572442388796-11668a67e53d"),
			Description: "Rich chocolate and espresso blend topped with whipped cream.",
			Category:    "coffee",
		},
		{
			ID:          5,
			Name:        "Iced Coffee",
			Price:       decimal.RequireFromString("4.49"),
			Image:       unsplash("photo-1461023058943-07fcbe16d735"),
			Description: "Refreshing cold brew served over ice with your choice of milk.",
			Category:    "coffee",
		},
		{
			ID:          6,
			Name:        "Cappuccino",
			Price:       decimal.RequireFromString("4.79"),
			Image:       unsplash("photo-1572442388796-11668a67e53d"),
			Description: "Perfectly balanced espresso with steamed milk foam.",
			Category:    "coffee",
		},
	}
}

// LoadSeedFile reads a YAML list of products to use instead of the default
// menu.
func LoadSeedFile(path string) ([]models.Product, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var products []models.Product
	if err := yaml.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("parse seed %s: %w", path, err)
	}
	if err := validateSeed(products); err != nil {
		return nil, fmt.Errorf("seed %s: %w", path, err)
	}
	for i := range products {
		if products[i].Image == "" {
			products[i].Image = models.DefaultProductImage
		}
	}
	return products, nil
}

func validateSeed(products []models.Product) error {
	seen := make(map[int64]bool, len(products))
	for i, p := range products {
		if p.ID <= 0 {
			return fmt.Errorf("product %d: id must be positive", i)
		}
		if seen[p.ID] {
			return fmt.Errorf("product %d: duplicate id %d", i, p.ID)
		}
		seen[p.ID] = true
		draft := models.ProductDraft{
			Name:     p.Name,
			Price:    decimal.NewNullDecimal(p.Price),
			Category: p.Category,
		}
		if err := draft.Validate(); err != nil {
			return fmt.Errorf("product %d: %w", i, err)
		}
	}
	return nil
}
