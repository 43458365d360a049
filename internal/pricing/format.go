package pricing

import (
	"fmt"
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DefaultCurrency is used when no currency code is supplied.
const DefaultCurrency = "USD"

// minorUnitDivisor is fixed at 100 for every currency. Currencies with a
// different minor-unit scale (JPY, BHD) are rendered incorrectly on purpose;
// callers relying on them must convert amounts first.
const minorUnitDivisor = 100

// en-US symbols for the currencies the storefront sells in.
var currencySymbols = map[currency.Unit]string{
	currency.USD: "$",
	currency.EUR: "€",
	currency.GBP: "£",
	currency.JPY: "¥",
	currency.CAD: "CA$",
	currency.AUD: "A$",
	currency.INR: "₹",
}

// FormatCurrency renders an amount in minor units as a currency string using
// en-US conventions, e.g. FormatCurrency(150, "USD") == "$1.50". Unknown or
// unsupported codes are rendered with the upper-cased code as prefix.
func FormatCurrency(amount Money, currencyCode string) string {
	code := strings.ToUpper(strings.TrimSpace(currencyCode))
	if code == "" {
		code = DefaultCurrency
	}
	prefix := code + " "
	if unit, err := currency.ParseISO(code); err == nil {
		if sym, ok := currencySymbols[unit]; ok {
			prefix = sym
		} else {
			prefix = unit.String() + " "
		}
	}

	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	p := message.NewPrinter(language.AmericanEnglish)
	major := p.Sprintf("%d", amount/minorUnitDivisor)
	return fmt.Sprintf("%s%s%s.%02d", sign, prefix, major, amount%minorUnitDivisor)
}

// ValidCurrency reports whether code is a recognised ISO 4217 currency.
func ValidCurrency(code string) bool {
	_, err := currency.ParseISO(strings.ToUpper(strings.TrimSpace(code)))
	return err == nil
}
