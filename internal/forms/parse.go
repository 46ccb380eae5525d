// Package forms turns raw presenter input into the typed values the core
// operations accept.
package forms

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"

	"coffeeshop/internal/models"
)

var errNotInteger = errors.New("not an integer")

// ParseProductID accepts integers, integral floats and decimal strings.
func ParseProductID(v any) (int64, error) {
	var (
		id  int64
		err error
	)
	switch x := v.(type) {
	case string:
		id, err = strconv.ParseInt(strings.TrimSpace(x), 10, 64)
	case float64:
		if x != math.Trunc(x) || math.Abs(x) > math.MaxInt64 {
			err = errNotInteger
		} else {
			id = int64(x)
		}
	case json.Number:
		id, err = x.Int64()
	default:
		id, err = cast.ToInt64E(v)
	}
	if err != nil || id <= 0 {
		return 0, &models.ValidationError{Fields: []string{"id"}, Reason: "invalid product id"}
	}
	return id, nil
}

// ParseQuantity never fails: anything that is not a positive integer becomes 1.
func ParseQuantity(v any) int {
	switch x := v.(type) {
	case string:
		v = strings.TrimSpace(x)
	case json.Number:
		v = x.String()
	}
	f, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(f) || f != math.Trunc(f) || f < 1 || f > math.MaxInt32 {
		return 1
	}
	return int(f)
}

// ParsePrice returns an invalid NullDecimal for a missing value and an error
// for one that is present but not a number.
func ParsePrice(v any) (decimal.NullDecimal, error) {
	bad := &models.ValidationError{Fields: []string{"price"}, Reason: "invalid price"}

	var (
		d   decimal.Decimal
		err error
	)
	switch x := v.(type) {
	case nil:
		return decimal.NullDecimal{}, nil
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return decimal.NullDecimal{}, nil
		}
		d, err = decimal.NewFromString(s)
	case json.Number:
		d, err = decimal.NewFromString(x.String())
	case decimal.Decimal:
		d = x
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return decimal.NullDecimal{}, bad
		}
		d = decimal.NewFromFloat(x)
	case float32:
		d = decimal.NewFromFloat32(x)
	default:
		var n int64
		n, err = cast.ToInt64E(v)
		d = decimal.NewFromInt(n)
	}
	if err != nil {
		return decimal.NullDecimal{}, bad
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}, nil
}
