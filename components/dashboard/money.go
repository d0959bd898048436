package dashboard

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/stripe/stripe-go/v84"
)

// Currency is a display currency for amounts recorded in JPY.
type Currency string

const (
	CurrencyJPY Currency = Currency(stripe.CurrencyJPY)
	CurrencyUSD Currency = Currency(stripe.CurrencyUSD)
)

// JPYPerUSD is the fixed display rate. It is not a live exchange rate.
const JPYPerUSD = 150.0

// ErrUnknownCurrency is returned by ParseCurrency for unsupported codes.
var ErrUnknownCurrency = errors.New("dashboard: unknown currency")

// ParseCurrency resolves a case-insensitive currency code.
func ParseCurrency(code string) (Currency, error) {
	switch Currency(strings.ToLower(strings.TrimSpace(code))) {
	case CurrencyJPY:
		return CurrencyJPY, nil
	case CurrencyUSD:
		return CurrencyUSD, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCurrency, code)
}

// Symbol returns the display prefix for the currency.
func (c Currency) Symbol() string {
	if c == CurrencyUSD {
		return "$"
	}
	return "¥"
}

// ConvertToCurrency converts a JPY amount for display in c.
func ConvertToCurrency(amountJPY float64, c Currency) float64 {
	if c == CurrencyUSD {
		return amountJPY / JPYPerUSD
	}
	return amountJPY
}

// FormatCurrency rounds to a whole unit and renders it with thousands separators,
// e.g. "¥15,000", "$100", "-¥1,000".
func FormatCurrency(amount float64, c Currency) string {
	rounded := int64(math.Round(amount))
	sign := ""
	if rounded < 0 {
		sign = "-"
		rounded = -rounded
	}
	return sign + c.Symbol() + humanize.Comma(rounded)
}
