// Package format renders money for people. Nothing here is parsed back.
package format

import (
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"fintrack/internal/core"
)

// Amount renders m in English with the currency symbol for code, e.g.
// "€ 1,234.50". An unknown code is appended as-is after the number.
func Amount(m core.Money, code string) string {
	return AmountIn(language.English, m, code)
}

// AmountIn is Amount for a specific display language.
func AmountIn(tag language.Tag, m core.Money, code string) string {
	p := message.NewPrinter(tag)

	unit, err := currency.ParseISO(code)
	if err != nil {
		n := p.Sprint(number.Decimal(m.Float64(), number.Scale(2)))
		code = strings.TrimSpace(code)
		if code == "" {
			return n
		}
		return n + " " + code
	}

	scale, _ := currency.Standard.Rounding(unit)
	return p.Sprint(currency.Symbol(unit)) + " " + p.Sprint(number.Decimal(m.Float64(), number.Scale(scale)))
}

// Signed prefixes the amount with "-" for expenses and "+" for income.
func Signed(t core.Transaction, code string) string {
	if t.IsExpense {
		return "-" + Amount(t.Amount, code)
	}
	return "+" + Amount(t.Amount, code)
}
