package dto

import (
	"slices"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/taxreform/simulator/internal/domain/company"
	"github.com/taxreform/simulator/internal/domain/dualvat"
	"github.com/taxreform/simulator/internal/domain/trace"
	ierr "github.com/taxreform/simulator/internal/errors"
	"github.com/taxreform/simulator/internal/types"
	"github.com/taxreform/simulator/internal/validator"
)

// CompanyRequest describes the company a scenario runs for
type CompanyRequest struct {
	// revenue is the annual gross revenue
	Revenue decimal.Decimal `json:"revenue" validate:"gte=0"`

	// taxable_costs are purchases from normal-regime suppliers
	TaxableCosts decimal.Decimal `json:"taxable_costs" validate:"gte=0"`

	SimplesCosts decimal.Decimal `json:"simples_costs" validate:"gte=0"`
	RuralCosts   decimal.Decimal `json:"rural_costs" validate:"gte=0"`
	ImportCosts  decimal.Decimal `json:"import_costs" validate:"gte=0"`

	// prior_credits are credits carried forward from earlier periods
	PriorCredits decimal.Decimal `json:"prior_credits" validate:"gte=0"`

	// sector defaults to standard
	Sector types.Sector `json:"sector,omitempty"`

	Regime types.TaxRegime `json:"regime" validate:"required,oneof=normal presumed simples"`
}

// ToProfile converts the request to a company profile
func (r *CompanyRequest) ToProfile() *company.Profile {
	return &company.Profile{
		Revenue:      r.Revenue,
		TaxableCosts: r.TaxableCosts,
		SimplesCosts: r.SimplesCosts,
		RuralCosts:   r.RuralCosts,
		ImportCosts:  r.ImportCosts,
		PriorCredits: r.PriorCredits,
		Sector:       r.Sector.OrStandard(),
		Regime:       r.Regime,
	}
}

// SimulationRequest is one scenario of the transition simulator
type SimulationRequest struct {
	Name    string         `json:"name,omitempty"`
	Company CompanyRequest `json:"company"`

	// years lists the simulated years; when empty start_year..end_year is
	// used, and when those are empty too the configured range
	Years     []int `json:"years,omitempty" validate:"omitempty,dive,gte=2000,lte=2100"`
	StartYear int   `json:"start_year,omitempty" validate:"omitempty,gte=2000,lte=2100"`
	EndYear   int   `json:"end_year,omitempty" validate:"omitempty,gte=2000,lte=2100"`

	// current_burden_pct is the legacy burden in percent of revenue used to
	// estimate equivalent rates, skipped when absent
	CurrentBurdenPct *decimal.Decimal `json:"current_burden_pct,omitempty"`

	// incentives replace the configured ICMS incentive lists for this scenario
	Incentives *IncentivesRequest `json:"incentives,omitempty"`
}

func (r *SimulationRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}

	if r.StartYear != 0 && r.EndYear != 0 && r.EndYear < r.StartYear {
		return ierr.NewError("end year before start year").
			WithHintf("End year %d must not be before start year %d", r.EndYear, r.StartYear).
			Mark(ierr.ErrValidation)
	}

	if r.CurrentBurdenPct != nil && (r.CurrentBurdenPct.IsNegative() || r.CurrentBurdenPct.GreaterThan(decimal.NewFromInt(100))) {
		return ierr.NewError("current burden out of range").
			WithHint("Current burden must be a percentage between 0 and 100").
			WithReportableDetails(map[string]any{
				"current_burden_pct": r.CurrentBurdenPct.String(),
			}).
			Mark(ierr.ErrValidation)
	}

	if r.Incentives != nil {
		if err := r.Incentives.Validate(); err != nil {
			return err
		}
	}

	return nil
}

// ResolveYears returns the years to simulate, ascending and without
// duplicates. fallback is used when the request names no year at all.
func (r *SimulationRequest) ResolveYears(fallback []int) []int {
	var years []int
	switch {
	case len(r.Years) > 0:
		years = slices.Clone(r.Years)
	case r.StartYear != 0 || r.EndYear != 0:
		start, end := r.StartYear, r.EndYear
		if start == 0 {
			start = end
		}
		if end == 0 {
			end = start
		}
		for y := start; y <= end; y++ {
			years = append(years, y)
		}
	default:
		years = slices.Clone(fallback)
	}
	slices.Sort(years)
	return slices.Compact(years)
}

// SimulationResponse is the outcome of one scenario
type SimulationResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Years []int  `json:"years"`

	Results         map[int]*dualvat.YearResult      `json:"results"`
	EquivalentRates map[int]*dualvat.EquivalentRates `json:"equivalent_rates,omitempty"`

	// trace is the computation trace of the last simulated year
	Trace *trace.Trace `json:"trace,omitempty"`

	// warnings flag years whose figures were computed with zeroed parts
	Warnings []string `json:"warnings,omitempty"`
}

// Totals returns the grand total of every simulated year in year order
func (r *SimulationResponse) Totals() []decimal.Decimal {
	return lo.Map(r.Years, func(year int, _ int) decimal.Decimal {
		if result, ok := r.Results[year]; ok {
			return result.GrandTotal
		}
		return decimal.Zero
	})
}

// BatchSimulationItem is the outcome of one scenario of a batch
type BatchSimulationItem struct {
	Index    int                 `json:"index"`
	Response *SimulationResponse `json:"response,omitempty"`
	Error    *ierr.ErrorResponse `json:"error,omitempty"`
}

// BatchSimulationResponse holds the outcome of every scenario in request order
type BatchSimulationResponse struct {
	Items  []*BatchSimulationItem `json:"items"`
	Failed int                    `json:"failed"`
}
