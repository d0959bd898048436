package dashboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatCurrencyJPYAndUSD(t *testing.T) {
	assert.Equal(t, "¥15,000", FormatCurrency(15000, CurrencyJPY))
	assert.Equal(t, "$100", FormatCurrency(ConvertToCurrency(15000, CurrencyUSD), CurrencyUSD))
	assert.Equal(t, "¥0", FormatCurrency(0, CurrencyJPY))
	assert.Equal(t, "-¥1,000", FormatCurrency(-1000, CurrencyJPY))
	assert.Equal(t, "$1,234,568", FormatCurrency(1234567.5, CurrencyUSD))
}

func TestFormatCurrencyRoundsHalfAwayFromZero(t *testing.T) {
	assert.Equal(t, "$3", FormatCurrency(2.5, CurrencyUSD))
	assert.Equal(t, "-$3", FormatCurrency(-2.5, CurrencyUSD))
	assert.Equal(t, "$2", FormatCurrency(2.49, CurrencyUSD))
}

func TestConvertToCurrency(t *testing.T) {
	if got := ConvertToCurrency(300, CurrencyJPY); got != 300 {
		t.Fatalf("expected JPY passthrough, got %v", got)
	}
	if got := ConvertToCurrency(300, CurrencyUSD); got != 2 {
		t.Fatalf("expected 2 USD, got %v", got)
	}
}

func TestParseCurrency(t *testing.T) {
	c, err := ParseCurrency(" USD ")
	require.NoError(t, err)
	assert.Equal(t, CurrencyUSD, c)

	c, err = ParseCurrency("jpy")
	require.NoError(t, err)
	assert.Equal(t, CurrencyJPY, c)

	_, err = ParseCurrency("eur")
	require.ErrorIs(t, err, ErrUnknownCurrency)
}
