package company

import (
	"github.com/shopspring/decimal"
	ierr "github.com/taxreform/simulator/internal/errors"
	"github.com/taxreform/simulator/internal/types"
)

// Profile is the company a simulation runs for. Amounts are annual.
type Profile struct {
	Revenue decimal.Decimal `json:"revenue"`
	// TaxableCosts are purchases from normal-regime suppliers
	TaxableCosts decimal.Decimal `json:"taxable_costs"`
	SimplesCosts decimal.Decimal `json:"simples_costs"`
	RuralCosts   decimal.Decimal `json:"rural_costs"`
	ImportCosts  decimal.Decimal `json:"import_costs"`
	// PriorCredits are credits carried forward from earlier periods
	PriorCredits decimal.Decimal `json:"prior_credits"`
	Sector       types.Sector    `json:"sector"`
	Regime       types.TaxRegime `json:"regime"`
}

type amount struct {
	field string
	value decimal.Decimal
}

// amounts lists every annual amount of the profile by its field name
func (p *Profile) amounts() []amount {
	return []amount{
		{"revenue", p.Revenue},
		{"taxable_costs", p.TaxableCosts},
		{"simples_costs", p.SimplesCosts},
		{"rural_costs", p.RuralCosts},
		{"import_costs", p.ImportCosts},
		{"prior_credits", p.PriorCredits},
	}
}

// ValidateAmounts rejects any negative amount
func (p *Profile) ValidateAmounts() error {
	for _, a := range p.amounts() {
		if a.value.IsNegative() {
			return ierr.NewErrorf("%s cannot be negative", a.field).
				WithHintf("Amount %s must be zero or positive", a.field).
				WithReportableDetails(map[string]any{
					a.field: a.value.String(),
				}).
				Mark(ierr.ErrValidation)
		}
	}
	return nil
}

// Validate checks the profile amounts and the Simples Nacional revenue ceiling
func (p *Profile) Validate(simplesCeiling decimal.Decimal) error {
	if err := p.ValidateAmounts(); err != nil {
		return err
	}

	if p.TaxableCosts.GreaterThan(p.Revenue) {
		return ierr.NewError("taxable costs exceed revenue").
			WithHint("Taxable costs cannot be greater than revenue").
			WithReportableDetails(map[string]any{
				"revenue":       p.Revenue.String(),
				"taxable_costs": p.TaxableCosts.String(),
			}).
			Mark(ierr.ErrValidation)
	}

	if err := p.Regime.Validate(); err != nil {
		return err
	}

	if p.Regime == types.TaxRegimeSimples && p.Revenue.GreaterThan(simplesCeiling) {
		return ierr.NewError("revenue exceeds the simples nacional ceiling").
			WithHintf("Simples Nacional companies must have annual revenue up to %s", simplesCeiling.StringFixed(2)).
			WithReportableDetails(map[string]any{
				"revenue": p.Revenue.String(),
				"ceiling": simplesCeiling.String(),
			}).
			Mark(ierr.ErrValidation)
	}

	return nil
}
