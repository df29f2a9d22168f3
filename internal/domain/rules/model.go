package rules

import (
	"fmt"
	"maps"
	"slices"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	ierr "github.com/taxreform/simulator/internal/errors"
	"github.com/taxreform/simulator/internal/types"
)

var (
	zero = decimal.Zero
	one  = decimal.NewFromInt(1)
)

// BaseRates are the full dual-VAT rates before sector and transition adjustments
type BaseRates struct {
	CBS decimal.Decimal `json:"cbs"`
	IBS decimal.Decimal `json:"ibs"`
}

// SectorRule overrides the IBS rate and reduces the CBS rate for a sector
type SectorRule struct {
	IBS          decimal.Decimal `json:"ibs"`
	CBSReduction decimal.Decimal `json:"cbs_reduction"`
}

// ImportCredit is the usable share of each VAT component on imported inputs
type ImportCredit struct {
	IBS decimal.Decimal `json:"ibs"`
	CBS decimal.Decimal `json:"cbs"`
}

// CreditRules hold the usable credit fraction per supplier origin
type CreditRules struct {
	Normal  decimal.Decimal `json:"normal"`
	Simples decimal.Decimal `json:"simples"`
	// Rural applies to the CBS component only; IBS is credited in full
	Rural   decimal.Decimal `json:"rural"`
	Imports ImportCredit    `json:"imports"`
}

// LegacyRates are the fixed rates of the legacy taxes other than ICMS.
// IPI and ISS are keyed by sector with SectorStandard as fallback.
type LegacyRates struct {
	PIS    decimal.Decimal                  `json:"pis"`
	COFINS decimal.Decimal                  `json:"cofins"`
	IPI    map[types.Sector]decimal.Decimal `json:"ipi"`
	ISS    map[types.Sector]decimal.Decimal `json:"iss"`
}

// IPIRate returns the IPI rate of sector
func (l LegacyRates) IPIRate(sector types.Sector) decimal.Decimal {
	return sectorRate(l.IPI, sector)
}

// ISSRate returns the ISS rate of sector
func (l LegacyRates) ISSRate(sector types.Sector) decimal.Decimal {
	return sectorRate(l.ISS, sector)
}

func sectorRate(table map[types.Sector]decimal.Decimal, sector types.Sector) decimal.Decimal {
	if rate, ok := table[sector]; ok {
		return rate
	}
	return table[types.SectorStandard]
}

// Incentive is one discretionary ICMS benefit. Percentual is the benefit
// strength and ShareOfBase the fraction of the flow (or balance) it covers.
type Incentive struct {
	Description string              `json:"description"`
	Type        types.IncentiveType `json:"type"`
	Percentual  decimal.Decimal     `json:"percentual"`
	ShareOfBase decimal.Decimal     `json:"percentual_of_base"`
}

// Active reports whether the entry takes part in a computation. Inactive
// entries neither contribute nor consume remainder.
func (i Incentive) Active() bool {
	if i.Type == "" || i.Type == types.IncentiveTypeNone {
		return false
	}
	return i.Percentual.IsPositive()
}

func (i Incentive) Validate() error {
	if i.ShareOfBase.LessThan(zero) || i.ShareOfBase.GreaterThan(one) {
		return ierr.NewErrorf("incentive %q share of base out of range", i.Description).
			WithHintf("Share of base must be between 0 and 1, got %s", i.ShareOfBase.String()).
			WithReportableDetails(map[string]any{
				"description":        i.Description,
				"percentual_of_base": i.ShareOfBase.String(),
			}).
			Mark(ierr.ErrValidation)
	}
	if i.Percentual.GreaterThan(one) {
		return ierr.NewErrorf("incentive %q percentual out of range", i.Description).
			WithHintf("Incentive percentual must not exceed 1, got %s", i.Percentual.String()).
			WithReportableDetails(map[string]any{
				"description": i.Description,
				"percentual":  i.Percentual.String(),
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// ICMSConfig holds the regional consumption tax rates and its three ordered
// incentive lists
type ICMSConfig struct {
	InputRate            decimal.Decimal `json:"input_rate"`
	OutputRate           decimal.Decimal `json:"output_rate"`
	OutputIncentives     []Incentive     `json:"output_incentives"`
	InputIncentives      []Incentive     `json:"input_incentives"`
	AssessmentIncentives []Incentive     `json:"assessment_incentives"`
}

// Incentives returns the list of category
func (c ICMSConfig) Incentives(category types.IncentiveCategory) []Incentive {
	switch category {
	case types.IncentiveCategoryOutput:
		return c.OutputIncentives
	case types.IncentiveCategoryInput:
		return c.InputIncentives
	case types.IncentiveCategoryAssessment:
		return c.AssessmentIncentives
	}
	return nil
}

func (c *ICMSConfig) setIncentives(category types.IncentiveCategory, list []Incentive) {
	switch category {
	case types.IncentiveCategoryOutput:
		c.OutputIncentives = list
	case types.IncentiveCategoryInput:
		c.InputIncentives = list
	case types.IncentiveCategoryAssessment:
		c.AssessmentIncentives = list
	}
}

// LegacyShares maps each legacy tax to a fraction
type LegacyShares map[types.LegacyTax]decimal.Decimal

// EffectiveRates are the dual-VAT rates applicable to a sector in a year
type EffectiveRates struct {
	CBS   decimal.Decimal `json:"cbs"`
	IBS   decimal.Decimal `json:"ibs"`
	Total decimal.Decimal `json:"total"`
}

// Configuration holds every rate, schedule and threshold of the simulator.
// A Configuration is treated as an immutable value once published; mutate a
// Clone and publish the copy.
type Configuration struct {
	BaseRates         BaseRates                   `json:"base_rates"`
	Transition        map[int]decimal.Decimal     `json:"transition"`
	Sectors           map[types.Sector]SectorRule `json:"sectors"`
	ZeroRatedProducts []string                    `json:"zero_rated_products"`
	SimplesCeiling    decimal.Decimal             `json:"simples_ceiling"`
	CreditRules       CreditRules                 `json:"credit_rules"`
	Legacy            LegacyRates                 `json:"legacy"`
	ICMS              ICMSConfig                  `json:"icms"`
	LegacyPhaseOut    map[int]LegacyShares        `json:"legacy_phase_out"`
	CrossCredit       map[int]decimal.Decimal     `json:"cross_credit"`
}

// TransitionFraction returns the implementation fraction of year.
// Years outside the schedule are fully implemented.
func (c *Configuration) TransitionFraction(year int) decimal.Decimal {
	if f, ok := c.Transition[year]; ok {
		return f
	}
	return one
}

// SectorRule returns the rule of sector, falling back to the standard sector
func (c *Configuration) SectorRule(sector types.Sector) SectorRule {
	if rule, ok := c.Sectors[sector]; ok {
		return rule
	}
	return c.Sectors[types.SectorStandard]
}

// SectorRates returns the CBS/IBS rates of sector once the transition is complete
func (c *Configuration) SectorRates(sector types.Sector) EffectiveRates {
	rule := c.SectorRule(sector)
	cbs := c.BaseRates.CBS.Mul(one.Sub(rule.CBSReduction))
	return EffectiveRates{
		CBS:   cbs,
		IBS:   rule.IBS,
		Total: cbs.Add(rule.IBS),
	}
}

// EffectiveRates returns the CBS/IBS rates of sector in year, ie the sector
// rates scaled by the transition fraction
func (c *Configuration) EffectiveRates(sector types.Sector, year int) EffectiveRates {
	fraction := c.TransitionFraction(year)
	full := c.SectorRates(sector)

	cbs := full.CBS.Mul(fraction)
	ibs := full.IBS.Mul(fraction)

	return EffectiveRates{
		CBS:   cbs,
		IBS:   ibs,
		Total: cbs.Add(ibs),
	}
}

// CrossCreditFraction returns the share of IBS usable against ICMS in year
func (c *Configuration) CrossCreditFraction(year int) (decimal.Decimal, bool) {
	f, ok := c.CrossCredit[year]
	return f, ok
}

// LegacyPhaseOutFor returns the per-tax fractions of year. Every tax of a
// year missing from the schedule gets 1.
func (c *Configuration) LegacyPhaseOutFor(year int) LegacyShares {
	shares := make(LegacyShares, len(types.LegacyTaxes))
	scheduled := c.LegacyPhaseOut[year]
	for _, tax := range types.LegacyTaxes {
		if f, ok := scheduled[tax]; ok {
			shares[tax] = f
			continue
		}
		shares[tax] = one
	}
	return shares
}

// TransitionYears returns the scheduled years in ascending order
func (c *Configuration) TransitionYears() []int {
	return slices.Sorted(maps.Keys(c.Transition))
}

// Clone returns a deep copy of c
func (c *Configuration) Clone() *Configuration {
	clone := *c
	clone.Transition = maps.Clone(c.Transition)
	clone.Sectors = maps.Clone(c.Sectors)
	clone.ZeroRatedProducts = slices.Clone(c.ZeroRatedProducts)
	clone.Legacy.IPI = maps.Clone(c.Legacy.IPI)
	clone.Legacy.ISS = maps.Clone(c.Legacy.ISS)
	clone.ICMS.OutputIncentives = slices.Clone(c.ICMS.OutputIncentives)
	clone.ICMS.InputIncentives = slices.Clone(c.ICMS.InputIncentives)
	clone.ICMS.AssessmentIncentives = slices.Clone(c.ICMS.AssessmentIncentives)
	clone.LegacyPhaseOut = lo.MapValues(c.LegacyPhaseOut, func(s LegacyShares, _ int) LegacyShares {
		return maps.Clone(s)
	})
	clone.CrossCredit = maps.Clone(c.CrossCredit)
	return &clone
}

// SetIncentives replaces the incentive list of category on c
func (c *Configuration) SetIncentives(category types.IncentiveCategory, list []Incentive) error {
	if err := category.Validate(); err != nil {
		return err
	}
	c.ICMS.setIncentives(category, slices.Clone(list))
	return nil
}

// Validate checks that every rate and fraction lies in [0,1] and that the
// standard sector exists
func (c *Configuration) Validate() error {
	if _, ok := c.Sectors[types.SectorStandard]; !ok {
		return ierr.NewError("standard sector missing").
			WithHint("The sector table must contain the standard sector").
			Mark(ierr.ErrValidation)
	}

	fractions := map[string]decimal.Decimal{
		"base_rates.cbs":           c.BaseRates.CBS,
		"base_rates.ibs":           c.BaseRates.IBS,
		"credit_rules.normal":      c.CreditRules.Normal,
		"credit_rules.simples":     c.CreditRules.Simples,
		"credit_rules.rural":       c.CreditRules.Rural,
		"credit_rules.imports.ibs": c.CreditRules.Imports.IBS,
		"credit_rules.imports.cbs": c.CreditRules.Imports.CBS,
		"legacy.pis":               c.Legacy.PIS,
		"legacy.cofins":            c.Legacy.COFINS,
		"icms.input_rate":          c.ICMS.InputRate,
		"icms.output_rate":         c.ICMS.OutputRate,
	}
	for year, f := range c.Transition {
		fractions[fmt.Sprintf("transition.%d", year)] = f
	}
	for year, f := range c.CrossCredit {
		fractions[fmt.Sprintf("cross_credit.%d", year)] = f
	}
	for sector, rule := range c.Sectors {
		fractions[fmt.Sprintf("sectors.%s.ibs", sector)] = rule.IBS
		fractions[fmt.Sprintf("sectors.%s.cbs_reduction", sector)] = rule.CBSReduction
	}
	for sector, rate := range c.Legacy.IPI {
		fractions[fmt.Sprintf("legacy.ipi.%s", sector)] = rate
	}
	for sector, rate := range c.Legacy.ISS {
		fractions[fmt.Sprintf("legacy.iss.%s", sector)] = rate
	}
	for year, shares := range c.LegacyPhaseOut {
		for tax, f := range shares {
			fractions[fmt.Sprintf("legacy_phase_out.%d.%s", year, tax)] = f
		}
	}

	for _, key := range slices.Sorted(maps.Keys(fractions)) {
		if f := fractions[key]; f.LessThan(zero) || f.GreaterThan(one) {
			return ierr.NewErrorf("%s out of range", key).
				WithHintf("%s must be between 0 and 1, got %s", key, f.String()).
				WithReportableDetails(map[string]any{key: f.String()}).
				Mark(ierr.ErrValidation)
		}
	}

	years := c.TransitionYears()
	for i := 1; i < len(years); i++ {
		if c.Transition[years[i]].LessThan(c.Transition[years[i-1]]) {
			return ierr.NewErrorf("transition fraction of %d decreases", years[i]).
				WithHintf("Transition fractions must not decrease, %d is below %d", years[i], years[i-1]).
				Mark(ierr.ErrValidation)
		}
	}
	if len(years) > 0 && !c.Transition[years[len(years)-1]].Equal(one) {
		return ierr.NewError("transition never completes").
			WithHintf("The transition fraction of the final year %d must be 1", years[len(years)-1]).
			Mark(ierr.ErrValidation)
	}

	if c.SimplesCeiling.IsNegative() {
		return ierr.NewError("simples ceiling is negative").
			WithHint("The Simples Nacional revenue ceiling must not be negative").
			Mark(ierr.ErrValidation)
	}

	for _, category := range []types.IncentiveCategory{
		types.IncentiveCategoryOutput,
		types.IncentiveCategoryInput,
		types.IncentiveCategoryAssessment,
	} {
		for _, entry := range c.ICMS.Incentives(category) {
			if err := entry.Validate(); err != nil {
				return err
			}
		}
	}

	return nil
}
