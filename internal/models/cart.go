package models

import "github.com/shopspring/decimal"

// CartItem is a snapshot of a product taken when it was first added to the
// cart, plus the quantity ordered. Quantity is never below 1.
type CartItem struct {
	Product
	Quantity int `json:"quantity"`
}

func (i CartItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// CartView is the read model handed to presenters after every cart operation.
type CartView struct {
	Items []CartItem      `json:"items"`
	Total decimal.Decimal `json:"total"`
	Count int             `json:"count"`
}
