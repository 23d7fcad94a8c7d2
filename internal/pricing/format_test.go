package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestFormatMoney(t *testing.T) {
	cases := map[string]string{
		"897":         "₹897.00",
		"161.46":      "₹161.46",
		"1108.46":     "₹1,108.46",
		"50":          "₹50.00",
		"0":           "₹0.00",
		"19.995":      "₹20.00",
		"1234567.891": "₹1,234,567.89",
		"-12.5":       "-₹12.50",
	}
	for in, want := range cases {
		got := FormatMoney(decimal.RequireFromString(in))
		if got != want {
			t.Errorf("FormatMoney(%s) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatMoneyDoesNotMutateInput(t *testing.T) {
	v := decimal.RequireFromString("161.4567")
	_ = FormatMoney(v)
	if !v.Equal(decimal.RequireFromString("161.4567")) {
		t.Fatalf("expected value untouched, got %s", v)
	}
}

func TestFormatPercent(t *testing.T) {
	if got := FormatPercent(DefaultTaxRate); got != "18%" {
		t.Fatalf("expected 18%%, got %q", got)
	}
}
