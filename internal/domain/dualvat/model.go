package dualvat

import (
	"github.com/shopspring/decimal"
	"github.com/taxreform/simulator/internal/domain/legacytax"
	"github.com/taxreform/simulator/internal/domain/rules"
)

// CreditBreakdown itemizes the dual-VAT credits by supplier origin
type CreditBreakdown struct {
	Normal  decimal.Decimal `json:"normal"`
	Simples decimal.Decimal `json:"simples"`
	Rural   decimal.Decimal `json:"rural"`
	Imports decimal.Decimal `json:"imports"`
	Prior   decimal.Decimal `json:"prior"`
	Total   decimal.Decimal `json:"total"`
}

// LegacyTaxes is the legacy burden of a year after cross-crediting
type LegacyTaxes struct {
	PIS    decimal.Decimal `json:"pis"`
	COFINS decimal.Decimal `json:"cofins"`
	ICMS   decimal.Decimal `json:"icms"`
	ISS    decimal.Decimal `json:"iss"`
	IPI    decimal.Decimal `json:"ipi"`
	Total  decimal.Decimal `json:"total"`
	// IncentiveSavings is the ICMS avoided through incentives, before cross-crediting
	IncentiveSavings decimal.Decimal `json:"incentive_savings"`
	// Failed is set when the legacy computation failed closed and reported zeros
	Failed bool `json:"failed,omitempty"`
}

func legacyTaxesFrom(r *legacytax.Result) LegacyTaxes {
	return LegacyTaxes{
		PIS:              r.PIS,
		COFINS:           r.COFINS,
		ICMS:             r.ICMS,
		ISS:              r.ISS,
		IPI:              r.IPI,
		Total:            r.Total,
		IncentiveSavings: r.IncentiveSavings,
		Failed:           r.Failed(),
	}
}

func (l *LegacyTaxes) recomputeTotal() {
	l.Total = l.PIS.Add(l.COFINS).Add(l.ICMS).Add(l.ISS).Add(l.IPI)
}

// YearResult is the full tax position of one profile in one year
type YearResult struct {
	Year    int             `json:"year"`
	Base    decimal.Decimal `json:"base"`
	CBS     decimal.Decimal `json:"cbs"`
	IBS     decimal.Decimal `json:"ibs"`
	Gross   decimal.Decimal `json:"gross"`
	Credits CreditBreakdown `json:"credits"`
	NetDue  decimal.Decimal `json:"net_due"`
	Legacy  LegacyTaxes     `json:"legacy"`
	// CrossCredit is the IBS share used to offset ICMS
	CrossCredit   decimal.Decimal `json:"cross_credit"`
	GrandTotal    decimal.Decimal `json:"grand_total"`
	EffectiveRate decimal.Decimal `json:"effective_rate"`
	// Rates are the year's effective rates, SectorRates the full ones applied to Base
	Rates       rules.EffectiveRates `json:"rates"`
	SectorRates rules.EffectiveRates `json:"sector_rates"`
}

// EquivalentRates estimates the CBS and IBS rates that would reproduce a
// stated legacy burden. It is an approximation for comparison only and not a
// legal computation: the CBS share is fixed at one third, adjusted by the
// sector's CBS reduction, and credits are assumed proportional to costs.
type EquivalentRates struct {
	CBS           decimal.Decimal `json:"cbs"`
	IBS           decimal.Decimal `json:"ibs"`
	Total         decimal.Decimal `json:"total"`
	CurrentAmount decimal.Decimal `json:"current_amount"`
	Base          decimal.Decimal `json:"base"`
	// Err is set when the estimate failed closed and every figure is zero
	Err error `json:"-"`
}
