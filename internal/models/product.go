package models

import "github.com/shopspring/decimal"

// DefaultProductImage is used when a product is created without an image.
const DefaultProductImage = "https://images.unsplash.com/photo-1559056199-641a0ac8b55e?w=400&h=300&fit=crop"

type Product struct {
	ID          int64           `json:"id" yaml:"id"`
	Name        string          `json:"name" yaml:"name"`
	Price       decimal.Decimal `json:"price" yaml:"price"`
	Image       string          `json:"image" yaml:"image"`
	Description string          `json:"description" yaml:"description"`
	Category    string          `json:"category" yaml:"category"`
}

// ProductDraft carries the mutable fields of a product. A Price that is not
// Valid means the field was left empty.
type ProductDraft struct {
	Name        string
	Price       decimal.NullDecimal
	Category    string
	Description string
	Image       string
}

// Validate reports the missing or invalid required fields of the draft.
func (d ProductDraft) Validate() error {
	var fields []string
	if d.Name == "" {
		fields = append(fields, "name")
	}
	if !d.Price.Valid || d.Price.Decimal.IsNegative() {
		fields = append(fields, "price")
	}
	if d.Category == "" {
		fields = append(fields, "category")
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}
