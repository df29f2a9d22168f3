package legacytax

import (
	"github.com/shopspring/decimal"
	"github.com/taxreform/simulator/internal/domain/trace"
	"github.com/taxreform/simulator/internal/types"
)

// ICMSBreakdown exposes the intermediate figures of the incentive stacking
type ICMSBreakdown struct {
	// DebitTotal is the output tax after output incentives
	DebitTotal decimal.Decimal `json:"debit_total"`
	// CreditTotal is the input credit after input incentives
	CreditTotal decimal.Decimal `json:"credit_total"`
	// Balance is max(0, DebitTotal - CreditTotal)
	Balance    decimal.Decimal `json:"balance"`
	Reductions decimal.Decimal `json:"reductions"`
	Due        decimal.Decimal `json:"due"`
	// WithoutIncentives is the ICMS the company would owe with empty lists
	WithoutIncentives decimal.Decimal `json:"without_incentives"`
}

// Result is the legacy-tax burden of one profile in one year
type Result struct {
	PIS              decimal.Decimal `json:"pis"`
	COFINS           decimal.Decimal `json:"cofins"`
	ICMS             decimal.Decimal `json:"icms"`
	ISS              decimal.Decimal `json:"iss"`
	IPI              decimal.Decimal `json:"ipi"`
	Total            decimal.Decimal `json:"total"`
	IncentiveSavings decimal.Decimal `json:"incentive_savings"`
	// SavingsPct is IncentiveSavings over WithoutIncentives, 0 when no ICMS is owed
	SavingsPct decimal.Decimal `json:"savings_pct"`
	ICMSDetail ICMSBreakdown   `json:"icms_detail"`

	Trace *trace.Trace `json:"-"`
	// Err is set when the computation failed closed and every amount is zero
	Err error `json:"-"`
}

// Amount returns the amount of tax
func (r *Result) Amount(tax types.LegacyTax) decimal.Decimal {
	switch tax {
	case types.LegacyTaxPIS:
		return r.PIS
	case types.LegacyTaxCOFINS:
		return r.COFINS
	case types.LegacyTaxICMS:
		return r.ICMS
	case types.LegacyTaxISS:
		return r.ISS
	case types.LegacyTaxIPI:
		return r.IPI
	}
	return decimal.Zero
}

// Sum returns the sum of the five legacy taxes
func (r *Result) Sum() decimal.Decimal {
	return r.PIS.Add(r.COFINS).Add(r.ICMS).Add(r.ISS).Add(r.IPI)
}

// Failed reports whether the computation failed closed
func (r *Result) Failed() bool {
	return r.Err != nil
}

func zeroResult(err error) *Result {
	t := trace.New(types.LegacyTraceSections...)
	t.Add(types.TraceSectionTotal, "Computation failed, all legacy taxes reported as zero: %v", err)
	return &Result{
		PIS:              decimal.Zero,
		COFINS:           decimal.Zero,
		ICMS:             decimal.Zero,
		ISS:              decimal.Zero,
		IPI:              decimal.Zero,
		Total:            decimal.Zero,
		IncentiveSavings: decimal.Zero,
		SavingsPct:       decimal.Zero,
		Trace:            t,
		Err:              err,
	}
}
