package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const currencySymbol = "₹"

var printer = message.NewPrinter(language.English)

// FormatMoney renders an amount with two decimals and thousands grouping.
// Example: FormatMoney(1108.46) => "₹1,108.46"
func FormatMoney(amount decimal.Decimal) string {
	neg := amount.IsNegative()
	if neg {
		amount = amount.Neg()
	}
	major := amount.Truncate(0)
	minor := amount.Sub(major).Shift(2).Round(0).IntPart()
	whole := major.IntPart()
	if minor >= 100 {
		whole++
		minor -= 100
	}
	out := currencySymbol + printer.Sprintf("%d", whole) + "." + fmt.Sprintf("%02d", minor)
	if neg {
		return "-" + out
	}
	return out
}

// FormatPercent renders a rate such as 0.18 as "18%".
func FormatPercent(rate decimal.Decimal) string {
	return rate.Shift(2).String() + "%"
}
