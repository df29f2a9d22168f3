package dualvat

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/taxreform/simulator/internal/domain/company"
	"github.com/taxreform/simulator/internal/domain/legacytax"
	"github.com/taxreform/simulator/internal/domain/rules"
	"github.com/taxreform/simulator/internal/domain/trace"
	ierr "github.com/taxreform/simulator/internal/errors"
	"github.com/taxreform/simulator/internal/logger"
	"github.com/taxreform/simulator/internal/types"
)

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
	half    = decimal.RequireFromString("0.5")

	// simplesCapShare limits Simples supplier credits to a share of the tax due
	simplesCapShare = decimal.RequireFromString("0.40")
	// simplesDueFactor estimates the tax due from the base credit when no
	// estimate is supplied
	simplesDueFactor = decimal.RequireFromString("2.5")
	// cbsShare is the CBS portion of the dual VAT assumed by EquivalentRates
	cbsShare = one.Div(decimal.NewFromInt(3))
)

// Calculator computes the dual-VAT liability of a company and blends in the
// legacy taxes still owed during the transition
type Calculator struct {
	legacy *legacytax.Calculator
	logger *logger.Logger
}

// NewCalculator returns a Calculator delegating legacy taxes to legacy. A nil
// legacy calculator or logger is replaced with a default.
func NewCalculator(legacy *legacytax.Calculator, log *logger.Logger) *Calculator {
	if log == nil {
		log = logger.NewNopLogger()
	}
	if legacy == nil {
		legacy = legacytax.NewCalculator(log)
	}
	return &Calculator{legacy: legacy, logger: log}
}

// ComputeDue computes the tax position of profile in year.
//
// An invalid profile fails loudly: no result is returned and the error is
// marked ierr.ErrValidation. The returned trace then holds only the
// validation section.
func (c *Calculator) ComputeDue(cfg *rules.Configuration, profile *company.Profile, year int) (*YearResult, *trace.Trace, error) {
	if err := c.validate(cfg, profile); err != nil {
		t := trace.New(types.TraceSectionValidation)
		t.Add(types.TraceSectionValidation, "Validation failed: %s", err.Error())
		return nil, t, err
	}

	t := trace.New(types.DualVatTraceSections...)
	t.Add(types.TraceSectionValidation, "Profile validated")

	sector := profile.Sector.OrStandard()
	base := c.taxableBase(cfg, profile, year, t.Section(types.TraceSectionBase))

	// base already carries the transition fraction, so components use the
	// full sector rates while credits use the year's effective rates
	rates := cfg.EffectiveRates(sector, year)
	sectorRates := cfg.SectorRates(sector)
	t.Add(types.TraceSectionRates, "Rates for sector %s in %d", sector, year)
	t.Add(types.TraceSectionRates, "CBS: %s (effective %s)", trace.Percent(sectorRates.CBS), trace.Percent(rates.CBS))
	t.Add(types.TraceSectionRates, "IBS: %s (effective %s)", trace.Percent(sectorRates.IBS), trace.Percent(rates.IBS))
	t.Add(types.TraceSectionRates, "Total: %s (effective %s)", trace.Percent(sectorRates.Total), trace.Percent(rates.Total))

	cbs := base.Mul(sectorRates.CBS)
	ibs := base.Mul(sectorRates.IBS)
	gross := cbs.Add(ibs)
	t.Add(types.TraceSectionComponentA, "CBS = %s x %s = %s", trace.Money(base), trace.Percent(sectorRates.CBS), trace.Money(cbs))
	t.Add(types.TraceSectionComponentB, "IBS = %s x %s = %s", trace.Money(base), trace.Percent(sectorRates.IBS), trace.Money(ibs))

	taxDue := t.Section(types.TraceSectionTaxDue)
	taxDue.Add("Gross tax = %s + %s = %s", trace.Money(cbs), trace.Money(ibs), trace.Money(gross))

	credits := c.credits(cfg, profile, rates, &gross, t.Section(types.TraceSectionCredits))

	netDue := decimal.Max(decimal.Zero, gross.Sub(credits.Total))
	taxDue.Add("Tax due = max(0, %s - %s) = %s", trace.Money(gross), trace.Money(credits.Total), trace.Money(netDue))

	legacyResult := c.legacy.ComputeAll(cfg, profile, year)
	t.Attach(types.TraceSectionLegacyTaxes, legacyResult.Trace)
	legacy := legacyTaxesFrom(legacyResult)

	crossCredit := c.crossCredit(cfg, year, ibs, &legacy, t.Section(types.TraceSectionCrossCredit))

	grandTotal := netDue.Add(legacy.Total)
	totalDue := t.Section(types.TraceSectionTotalDue)
	totalDue.Add("Total due = %s + %s = %s", trace.Money(netDue), trace.Money(legacy.Total), trace.Money(grandTotal))

	effectiveRate := decimal.Zero
	if profile.Revenue.IsPositive() {
		effectiveRate = grandTotal.Div(profile.Revenue)
		totalDue.Add("Effective rate = %s / %s = %s",
			trace.Money(grandTotal), trace.Money(profile.Revenue), trace.Percent(effectiveRate))
	} else {
		totalDue.Add("Effective rate: 0%% (no revenue)")
	}

	c.logger.Debugw("computed dual vat position",
		"year", year,
		"sector", sector,
		"net_due", netDue.String(),
		"grand_total", grandTotal.String())

	return &YearResult{
		Year:          year,
		Base:          base,
		CBS:           cbs,
		IBS:           ibs,
		Gross:         gross,
		Credits:       credits,
		NetDue:        netDue,
		Legacy:        legacy,
		CrossCredit:   crossCredit,
		GrandTotal:    grandTotal,
		EffectiveRate: effectiveRate,
		Rates:         rates,
		SectorRates:   sectorRates,
	}, t, nil
}

// CompareAcrossYears runs ComputeDue for every year. An empty years list
// means every year of the transition schedule. The returned trace is the one
// of the last year computed.
func (c *Calculator) CompareAcrossYears(cfg *rules.Configuration, profile *company.Profile, years []int) (map[int]*YearResult, *trace.Trace, error) {
	if cfg == nil {
		return nil, nil, errMissingConfiguration()
	}
	if len(years) == 0 {
		years = cfg.TransitionYears()
	}

	results := make(map[int]*YearResult, len(years))
	var last *trace.Trace
	for _, year := range years {
		result, t, err := c.ComputeDue(cfg, profile, year)
		if err != nil {
			return nil, t, err
		}
		results[year] = result
		last = t
	}
	return results, last, nil
}

// EquivalentRates estimates the CBS and IBS rates that would reproduce a
// legacy burden of currentBurdenPct percent of revenue. See EquivalentRates
// for the simplifications involved. The estimate never fails: any internal
// error yields all-zero rates with Err set.
func (c *Calculator) EquivalentRates(cfg *rules.Configuration, profile *company.Profile, currentBurdenPct decimal.Decimal, year int) (result EquivalentRates) {
	defer func() {
		if r := recover(); r != nil {
			err := ierr.NewErrorf("equivalent rate estimate panicked: %v", r).
				WithHint("Equivalent rates could not be estimated").
				Mark(ierr.ErrSystem)
			c.logger.Warnw("equivalent rate estimate failed closed",
				"year", year,
				"panic", fmt.Sprint(r))
			result = zeroEquivalentRates(err)
		}
	}()

	err := c.validatePresent(cfg, profile)
	if err == nil {
		err = profile.ValidateAmounts()
	}
	if err != nil {
		c.logger.Warnw("equivalent rate estimate failed closed",
			"year", year,
			"error", err)
		return zeroEquivalentRates(err)
	}

	base := c.taxableBase(cfg, profile, year, &trace.Section{})
	current := profile.Revenue.Mul(currentBurdenPct).Div(hundred)

	share := cbsShare
	if reduction := cfg.SectorRule(profile.Sector.OrStandard()).CBSReduction; reduction.IsPositive() {
		share = share.Mul(one.Sub(reduction))
	}

	estimatedCredits := decimal.Zero
	if profile.TaxableCosts.IsPositive() {
		estimatedCredits = profile.TaxableCosts.Div(profile.Revenue).Mul(current)
	}
	needed := current.Add(estimatedCredits)

	result = EquivalentRates{
		CBS:           decimal.Zero,
		IBS:           decimal.Zero,
		Total:         decimal.Zero,
		CurrentAmount: current,
		Base:          base,
	}
	if base.IsPositive() {
		total := needed.Div(base)
		result.CBS = total.Mul(share)
		result.IBS = total.Mul(one.Sub(share))
		result.Total = result.CBS.Add(result.IBS)
	}
	return result
}

func (c *Calculator) validatePresent(cfg *rules.Configuration, profile *company.Profile) error {
	if cfg == nil {
		return errMissingConfiguration()
	}
	if profile == nil {
		return ierr.NewError("company profile is missing").
			WithHint("A company profile is required").
			Mark(ierr.ErrValidation)
	}
	return nil
}

func (c *Calculator) validate(cfg *rules.Configuration, profile *company.Profile) error {
	if err := c.validatePresent(cfg, profile); err != nil {
		return err
	}
	return profile.Validate(cfg.SimplesCeiling)
}

// taxableBase scales revenue by the transition fraction and halves it for
// every sector other than the standard one
func (c *Calculator) taxableBase(cfg *rules.Configuration, profile *company.Profile, year int, section *trace.Section) decimal.Decimal {
	fraction := cfg.TransitionFraction(year)
	base := profile.Revenue.Mul(fraction)

	section.Add("Revenue: %s", trace.Money(profile.Revenue))
	section.Add("Transition fraction (%d): %s", year, trace.Percent(fraction))
	section.Add("Base = %s x %s = %s", trace.Money(profile.Revenue), trace.Percent(fraction), trace.Money(base))

	if sector := profile.Sector.OrStandard(); !sector.IsStandard() {
		base = base.Mul(half)
		section.Add("Sector %s: base halved to %s", sector, trace.Money(base))
	}
	return base
}

// credits computes the credits of each supplier origin. taxDueEstimate caps
// the Simples supplier credit; when nil it is derived from the base credit.
func (c *Calculator) credits(cfg *rules.Configuration, profile *company.Profile, rates rules.EffectiveRates, taxDueEstimate *decimal.Decimal, section *trace.Section) CreditBreakdown {
	creditRules := cfg.CreditRules
	breakdown := CreditBreakdown{
		Normal:  decimal.Zero,
		Simples: decimal.Zero,
		Rural:   decimal.Zero,
		Imports: decimal.Zero,
		Prior:   profile.PriorCredits,
	}

	if costs := profile.TaxableCosts; costs.IsPositive() {
		breakdown.Normal = costs.Mul(rates.Total).Mul(creditRules.Normal)
		section.Add("Normal-regime suppliers: %s x %s = %s",
			trace.Money(costs), trace.Percent(rates.Total), trace.Money(breakdown.Normal))
	}

	if costs := profile.SimplesCosts; costs.IsPositive() {
		creditBase := costs.Mul(creditRules.Simples)
		credit := creditBase.Mul(rates.Total)

		estimate := credit.Mul(simplesDueFactor)
		if taxDueEstimate != nil {
			estimate = *taxDueEstimate
		}
		limit := estimate.Mul(simplesCapShare)
		breakdown.Simples = decimal.Min(credit, limit)

		section.Add("Simples suppliers: %s x %s x %s = %s",
			trace.Money(costs), trace.Percent(creditRules.Simples), trace.Percent(rates.Total), trace.Money(credit))
		section.Add("Simples limit: %s x %s = %s, credit %s",
			trace.Money(estimate), trace.Percent(simplesCapShare), trace.Money(limit), trace.Money(breakdown.Simples))
	}

	if costs := profile.RuralCosts; costs.IsPositive() {
		breakdown.Rural = costs.Mul(rates.IBS.Add(rates.CBS.Mul(creditRules.Rural)))
		section.Add("Rural producers: %s x (%s + %s x %s) = %s",
			trace.Money(costs), trace.Percent(rates.IBS), trace.Percent(rates.CBS),
			trace.Percent(creditRules.Rural), trace.Money(breakdown.Rural))
	}

	if costs := profile.ImportCosts; costs.IsPositive() {
		imports := creditRules.Imports
		breakdown.Imports = costs.Mul(rates.IBS.Mul(imports.IBS).Add(rates.CBS.Mul(imports.CBS)))
		section.Add("Imports: %s x (%s x %s + %s x %s) = %s",
			trace.Money(costs), trace.Percent(rates.IBS), trace.Percent(imports.IBS),
			trace.Percent(rates.CBS), trace.Percent(imports.CBS), trace.Money(breakdown.Imports))
	}

	if !breakdown.Prior.IsZero() {
		section.Add("Prior credits: %s", trace.Money(breakdown.Prior))
	}

	breakdown.Total = breakdown.Normal.
		Add(breakdown.Simples).
		Add(breakdown.Rural).
		Add(breakdown.Imports).
		Add(breakdown.Prior)
	section.Add("Total credits: %s", trace.Money(breakdown.Total))
	return breakdown
}

// crossCredit offsets ICMS with a share of IBS when year has a configured
// fraction and returns the amount used
func (c *Calculator) crossCredit(cfg *rules.Configuration, year int, ibs decimal.Decimal, legacy *LegacyTaxes, section *trace.Section) decimal.Decimal {
	fraction, ok := cfg.CrossCreditFraction(year)
	if !ok {
		section.Add("No cross-credit in %d", year)
		return decimal.Zero
	}

	available := ibs.Mul(fraction)
	credit := decimal.Min(available, legacy.ICMS)
	section.Add("IBS usable against ICMS in %d: %s", year, trace.Percent(fraction))
	section.Add("Credit = min(%s x %s, %s) = %s",
		trace.Money(ibs), trace.Percent(fraction), trace.Money(legacy.ICMS), trace.Money(credit))

	legacy.ICMS = legacy.ICMS.Sub(credit)
	legacy.recomputeTotal()
	section.Add("ICMS after cross-credit: %s", trace.Money(legacy.ICMS))
	section.Add("Legacy taxes after cross-credit: %s", trace.Money(legacy.Total))
	return credit
}

func errMissingConfiguration() error {
	return ierr.NewError("rule configuration is missing").
		WithHint("A rule configuration is required").
		Mark(ierr.ErrConfig)
}

func zeroEquivalentRates(err error) EquivalentRates {
	return EquivalentRates{
		CBS:           decimal.Zero,
		IBS:           decimal.Zero,
		Total:         decimal.Zero,
		CurrentAmount: decimal.Zero,
		Base:          decimal.Zero,
		Err:           err,
	}
}
