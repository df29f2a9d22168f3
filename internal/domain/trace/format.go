package trace

import (
	"strings"

	"github.com/shopspring/decimal"
	"github.com/taxreform/simulator/internal/types"
)

var hundred = decimal.NewFromInt(100)

// Money renders an amount in Brazilian notation, ex R$ 1.234.567,89
func Money(amount decimal.Decimal) string {
	return types.GetCurrencySymbol(types.CurrencyBRL) + " " + brazilian(amount, 2)
}

// Percent renders a fraction as a percentage, ex 0.177 -> 17,70%
func Percent(fraction decimal.Decimal) string {
	return brazilian(fraction.Mul(hundred), 2) + "%"
}

func brazilian(value decimal.Decimal, places int32) string {
	fixed := value.Abs().StringFixed(places)
	intPart, fracPart, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	if value.Round(places).IsNegative() {
		b.WriteByte('-')
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	if fracPart != "" {
		b.WriteByte(',')
		b.WriteString(fracPart)
	}
	return b.String()
}
