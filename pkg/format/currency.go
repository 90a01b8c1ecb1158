// Package format renders calculation results as display strings.
package format

import (
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// Currency returns a whole-dollar currency string with thousands separators
// (e.g., "-$1,235").
func Currency(amount float64) string {
	return currency(amount, 0)
}

// CurrencyCents returns a currency string with cents (e.g., "$1,234.56").
func CurrencyCents(amount float64) string {
	return currency(amount, 2)
}

// Percent returns a percentage with one decimal place (e.g., "21.9%").
func Percent(value float64) string {
	rounded := decimal.NewFromFloat(value).Round(1)
	return rounded.StringFixed(1) + "%"
}

// YearLabel names a year offset (e.g., "Year 5").
func YearLabel(yearIndex int) string {
	return fmt.Sprintf("Year %d", yearIndex)
}

func currency(amount float64, places int32) string {
	rounded := decimal.NewFromFloat(amount).Round(places)
	sign := ""
	if rounded.IsNegative() {
		sign = "-"
		rounded = rounded.Abs()
	}
	verb := fmt.Sprintf("%%.%df", places)
	return sign + "$" + printer.Sprintf(verb, rounded.InexactFloat64())
}
