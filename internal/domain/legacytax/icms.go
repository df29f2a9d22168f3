package legacytax

import (
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/taxreform/simulator/internal/domain/rules"
	"github.com/taxreform/simulator/internal/domain/trace"
	"github.com/taxreform/simulator/internal/logger"
	"github.com/taxreform/simulator/internal/types"
)

var one = decimal.NewFromInt(1)

// stacker applies the three ICMS incentive passes. Output and input entries
// consume a shrinking remainder of their flow; assessment entries are each
// measured against the original balance.
type stacker struct {
	icms    rules.ICMSConfig
	section *trace.Section
	logger  *logger.Logger
}

// outputPass returns the ICMS debit on revenue
func (s *stacker) outputPass(revenue decimal.Decimal) (decimal.Decimal, error) {
	rate := s.icms.OutputRate
	s.section.Add("Output rate: %s", trace.Percent(rate))

	remainder := revenue
	debit := decimal.Zero
	for i, entry := range s.icms.OutputIncentives {
		if err := entry.Validate(); err != nil {
			return decimal.Zero, err
		}
		if !entry.Active() {
			s.section.Add("Output incentive %d (%s): inactive, skipped", i+1, entry.Description)
			continue
		}

		slice := remainder.Mul(entry.ShareOfBase)
		remainder = remainder.Sub(slice)

		var contribution decimal.Decimal
		switch entry.Type {
		case types.IncentiveTypeRateReduction,
			types.IncentiveTypePresumedCredit,
			types.IncentiveTypeDeferral:
			contribution = slice.Mul(rate.Mul(one.Sub(entry.Percentual)))
		case types.IncentiveTypeBaseReduction:
			contribution = slice.Mul(one.Sub(entry.Percentual)).Mul(rate)
		default:
			contribution = slice.Mul(rate)
		}

		s.section.Add("Output incentive %d (%s, %s): %s of %s = slice %s, debit %s",
			i+1, entry.Description, entry.Type,
			trace.Percent(entry.ShareOfBase), trace.Money(slice.Add(remainder)),
			trace.Money(slice), trace.Money(contribution))
		debit = debit.Add(contribution)
	}

	untouched := remainder.Mul(rate)
	s.section.Add("Revenue without incentive: %s x %s = %s",
		trace.Money(remainder), trace.Percent(rate), trace.Money(untouched))
	debit = debit.Add(untouched)
	s.section.Add("Debit total: %s", trace.Money(debit))
	return debit, nil
}

// inputPass returns the ICMS credit on taxable costs
func (s *stacker) inputPass(costs decimal.Decimal) (decimal.Decimal, error) {
	rate := s.icms.InputRate
	s.section.Add("Input rate: %s", trace.Percent(rate))

	remainder := costs
	credit := decimal.Zero
	for i, entry := range s.icms.InputIncentives {
		if err := entry.Validate(); err != nil {
			return decimal.Zero, err
		}
		if !entry.Active() {
			s.section.Add("Input incentive %d (%s): inactive, skipped", i+1, entry.Description)
			continue
		}

		slice := remainder.Mul(entry.ShareOfBase)
		remainder = remainder.Sub(slice)

		var contribution decimal.Decimal
		switch entry.Type {
		case types.IncentiveTypeRateReduction:
			contribution = slice.Mul(rate.Mul(one.Sub(entry.Percentual)))
		case types.IncentiveTypePresumedCredit:
			base := slice.Mul(rate)
			contribution = base.Add(base.Mul(entry.Percentual))
		case types.IncentiveTypeCreditReversal:
			base := slice.Mul(rate)
			contribution = base.Sub(base.Mul(entry.Percentual))
		default:
			contribution = slice.Mul(rate)
		}

		s.section.Add("Input incentive %d (%s, %s): credit over %s = %s",
			i+1, entry.Description, entry.Type, trace.Money(slice), trace.Money(contribution))
		credit = credit.Add(contribution)
	}

	untouched := remainder.Mul(rate)
	s.section.Add("Costs without incentive: %s x %s = %s",
		trace.Money(remainder), trace.Percent(rate), trace.Money(untouched))
	credit = credit.Add(untouched)
	s.section.Add("Credit total: %s", trace.Money(credit))
	return credit, nil
}

// assessmentPass returns the total reduction applied to balance
func (s *stacker) assessmentPass(balance decimal.Decimal) (decimal.Decimal, error) {
	entries := s.icms.AssessmentIncentives
	if len(entries) == 0 || !balance.IsPositive() {
		return decimal.Zero, nil
	}

	active := lo.Filter(entries, func(entry rules.Incentive, _ int) bool { return entry.Active() })
	allocated := lo.Reduce(active, func(sum decimal.Decimal, entry rules.Incentive, _ int) decimal.Decimal {
		return sum.Add(entry.ShareOfBase)
	}, decimal.Zero)
	if allocated.GreaterThan(one) {
		s.logger.Warnw("assessment incentives cover more than the whole balance",
			"allocated", allocated.String(),
			"entries", len(active))
	}

	reductions := decimal.Zero
	for i, entry := range entries {
		if err := entry.Validate(); err != nil {
			return decimal.Zero, err
		}
		if !entry.Active() {
			s.section.Add("Assessment incentive %d (%s): inactive, skipped", i+1, entry.Description)
			continue
		}

		affected := balance.Mul(entry.ShareOfBase)
		reduction := decimal.Zero
		switch entry.Type {
		case types.IncentiveTypePresumedCredit, types.IncentiveTypeBalanceReduction:
			reduction = affected.Mul(entry.Percentual)
		}

		s.section.Add("Assessment incentive %d (%s, %s): %s of %s = %s",
			i+1, entry.Description, entry.Type,
			trace.Percent(entry.Percentual), trace.Money(affected), trace.Money(reduction))
		reductions = reductions.Add(reduction)
	}
	s.section.Add("Total reduction: %s", trace.Money(reductions))
	return reductions, nil
}

// run stacks every incentive list and returns the breakdown of the ICMS due
func (s *stacker) run(revenue, costs decimal.Decimal) (ICMSBreakdown, error) {
	debit, err := s.outputPass(revenue)
	if err != nil {
		return ICMSBreakdown{}, err
	}
	credit, err := s.inputPass(costs)
	if err != nil {
		return ICMSBreakdown{}, err
	}

	balance := decimal.Max(decimal.Zero, debit.Sub(credit))
	s.section.Add("Balance: max(0, %s - %s) = %s", trace.Money(debit), trace.Money(credit), trace.Money(balance))

	reductions, err := s.assessmentPass(balance)
	if err != nil {
		return ICMSBreakdown{}, err
	}
	due := decimal.Max(decimal.Zero, balance.Sub(reductions))
	s.section.Add("ICMS due: %s", trace.Money(due))

	without := decimal.Max(decimal.Zero,
		revenue.Mul(s.icms.OutputRate).Sub(costs.Mul(s.icms.InputRate)))

	return ICMSBreakdown{
		DebitTotal:        debit,
		CreditTotal:       credit,
		Balance:           balance,
		Reductions:        reductions,
		Due:               due,
		WithoutIncentives: without,
	}, nil
}
