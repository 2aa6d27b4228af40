package finance

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var brazil = language.BrazilianPortuguese

// FormatBRL renders an amount as Brazilian reais, e.g. "R$ 1.234,56".
func FormatBRL(v float64) string {
	p := message.NewPrinter(brazil)
	if v < 0 {
		return "-" + p.Sprintf("R$ %.2f", math.Abs(v))
	}
	return p.Sprintf("R$ %.2f", v)
}

// FormatShare renders a percentage with one decimal, e.g. "12,5%".
func FormatShare(v float64) string {
	return message.NewPrinter(brazil).Sprintf("%.1f%%", v)
}
