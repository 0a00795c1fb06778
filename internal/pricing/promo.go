package pricing

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrUnknownPromo = errors.New("invalid promo code")

var promoCodes = map[string]Discount{
	"SAVE10":  {Code: "SAVE10", Kind: DiscountPercentage, Value: decimal.RequireFromString("0.10")},
	"SAVE20":  {Code: "SAVE20", Kind: DiscountPercentage, Value: decimal.RequireFromString("0.20")},
	"FLAT500": {Code: "FLAT500", Kind: DiscountFlat, Value: decimal.NewFromInt(500)},
	"WELCOME": {Code: "WELCOME", Kind: DiscountPercentage, Value: decimal.RequireFromString("0.05")},
}

// LookupPromo resolves a promo code. An empty code means no discount and
// returns (nil, nil).
func LookupPromo(code string) (*Discount, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, nil
	}
	d, ok := promoCodes[code]
	if !ok {
		return nil, ErrUnknownPromo
	}
	return &d, nil
}
