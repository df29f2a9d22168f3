package legacytax

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/taxreform/simulator/internal/domain/company"
	"github.com/taxreform/simulator/internal/domain/rules"
	"github.com/taxreform/simulator/internal/domain/trace"
	ierr "github.com/taxreform/simulator/internal/errors"
	"github.com/taxreform/simulator/internal/logger"
	"github.com/taxreform/simulator/internal/types"
)

// ipiCreditUtilization is the share of IPI paid on inputs that can be credited
var ipiCreditUtilization = decimal.RequireFromString("0.70")

// Calculator computes the five legacy taxes a company owes today
type Calculator struct {
	logger *logger.Logger
}

// NewCalculator returns a Calculator logging to log, or discarding logs when nil
func NewCalculator(log *logger.Logger) *Calculator {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Calculator{logger: log}
}

// ComputeAll computes PIS, COFINS, ICMS, ISS and IPI for profile in year.
//
// ComputeAll never fails: a malformed incentive entry, a missing
// configuration or a runtime panic yields an all-zero Result with Err set.
// Callers comparing many years keep going and must check Result.Failed.
func (c *Calculator) ComputeAll(cfg *rules.Configuration, profile *company.Profile, year int) (result *Result) {
	defer func() {
		if r := recover(); r != nil {
			err := ierr.NewErrorf("legacy tax computation panicked: %v", r).
				WithHint("Legacy taxes could not be computed").
				Mark(ierr.ErrSystem)
			c.logger.Errorw("legacy tax computation panicked",
				"year", year,
				"panic", fmt.Sprint(r))
			result = zeroResult(err)
		}
	}()

	result, err := c.computeAll(cfg, profile, year)
	if err != nil {
		c.logger.Warnw("legacy tax computation failed closed",
			"year", year,
			"error", err)
		return zeroResult(err)
	}
	return result
}

func (c *Calculator) computeAll(cfg *rules.Configuration, profile *company.Profile, year int) (*Result, error) {
	if cfg == nil {
		return nil, ierr.NewError("rule configuration is missing").
			WithHint("A rule configuration is required to compute legacy taxes").
			Mark(ierr.ErrConfig)
	}
	if profile == nil {
		return nil, ierr.NewError("company profile is missing").
			WithHint("A company profile is required to compute legacy taxes").
			Mark(ierr.ErrValidation)
	}
	if err := profile.ValidateAmounts(); err != nil {
		return nil, err
	}

	t := trace.New(types.LegacyTraceSections...)
	revenue := profile.Revenue
	costs := profile.TaxableCosts
	sector := profile.Sector.OrStandard()

	pis := c.contribution(t.Section(types.TraceSection(types.LegacyTaxPIS)), revenue, costs, cfg.Legacy.PIS)
	cofins := c.contribution(t.Section(types.TraceSection(types.LegacyTaxCOFINS)), revenue, costs, cfg.Legacy.COFINS)

	icmsSection := t.Section(types.TraceSection(types.LegacyTaxICMS))
	s := &stacker{icms: cfg.ICMS, section: icmsSection, logger: c.logger}
	icms, err := s.run(revenue, costs)
	if err != nil {
		return nil, err
	}

	iss := decimal.Zero
	issSection := t.Section(types.TraceSection(types.LegacyTaxISS))
	if sector.PaysISS() {
		rate := cfg.Legacy.ISSRate(sector)
		iss = revenue.Mul(rate)
		issSection.Add("ISS: %s x %s = %s", trace.Money(revenue), trace.Percent(rate), trace.Money(iss))
	} else {
		issSection.Add("Sector %s does not pay ISS", sector)
	}

	ipi := decimal.Zero
	ipiSection := t.Section(types.TraceSection(types.LegacyTaxIPI))
	if sector.PaysIPI() {
		rate := cfg.Legacy.IPIRate(sector)
		debit := revenue.Mul(rate)
		credit := costs.Mul(rate).Mul(ipiCreditUtilization)
		ipi = debit.Sub(credit)
		ipiSection.Add("Debit: %s x %s = %s", trace.Money(revenue), trace.Percent(rate), trace.Money(debit))
		ipiSection.Add("Credit: %s x %s x %s = %s",
			trace.Money(costs), trace.Percent(rate), trace.Percent(ipiCreditUtilization), trace.Money(credit))
		ipiSection.Add("IPI: %s", trace.Money(ipi))
	} else {
		ipiSection.Add("Sector %s does not pay IPI", sector)
	}

	result := &Result{
		PIS:        pis,
		COFINS:     cofins,
		ICMS:       icms.Due,
		ISS:        iss,
		IPI:        ipi,
		ICMSDetail: icms,
		Trace:      t,
	}
	result.Total = result.Sum()
	result.IncentiveSavings = icms.WithoutIncentives.Sub(icms.Due)
	result.SavingsPct = decimal.Zero
	if icms.WithoutIncentives.IsPositive() {
		result.SavingsPct = result.IncentiveSavings.Div(icms.WithoutIncentives)
	}

	total := t.Section(types.TraceSectionTotal)
	total.Add("Year: %d", year)
	total.Add("Total legacy taxes: %s", trace.Money(result.Total))
	total.Add("ICMS without incentives: %s", trace.Money(icms.WithoutIncentives))
	total.Add("Incentive savings: %s (%s)", trace.Money(result.IncentiveSavings), trace.Percent(result.SavingsPct))

	return result, nil
}

// contribution computes PIS or COFINS. Costs are only credited against a
// positive revenue and the result is not floored.
func (c *Calculator) contribution(section *trace.Section, revenue, costs, rate decimal.Decimal) decimal.Decimal {
	debit := revenue.Mul(rate)
	credit := decimal.Zero
	if revenue.IsPositive() {
		credit = costs.Mul(rate)
	}
	due := debit.Sub(credit)

	section.Add("Debit: %s x %s = %s", trace.Money(revenue), trace.Percent(rate), trace.Money(debit))
	section.Add("Credit: %s x %s = %s", trace.Money(costs), trace.Percent(rate), trace.Money(credit))
	section.Add("Due: %s", trace.Money(due))
	return due
}
