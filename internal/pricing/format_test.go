package pricing_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/storefront-bundle/internal/pricing"
)

func TestFormatCurrency(t *testing.T) {
	tests := []struct {
		amount pricing.Money
		code   string
		want   string
	}{
		{amount: 150, code: "USD", want: "$1.50"},
		{amount: 0, code: "USD", want: "$0.00"},
		{amount: 5, code: "usd", want: "$0.05"},
		{amount: 123456, code: "USD", want: "$1,234.56"},
		{amount: 100000000, code: "USD", want: "$1,000,000.00"},
		{amount: 999, code: "EUR", want: "€9.99"},
		{amount: 1050, code: "GBP", want: "£10.50"},
		{amount: 150, code: "", want: "$1.50"},
		{amount: 150, code: "CHF", want: "CHF 1.50"},
		{amount: 150, code: "ZZZ", want: "ZZZ 1.50"},
		{amount: -150, code: "USD", want: "-$1.50"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			require.Equal(t, tt.want, pricing.FormatCurrency(tt.amount, tt.code))
		})
	}
}

func TestValidCurrency(t *testing.T) {
	require.True(t, pricing.ValidCurrency("usd"))
	require.False(t, pricing.ValidCurrency("dollars"))
}
