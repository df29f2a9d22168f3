package dualvat

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taxreform/simulator/internal/domain/company"
	"github.com/taxreform/simulator/internal/domain/rules"
	"github.com/taxreform/simulator/internal/domain/trace"
	ierr "github.com/taxreform/simulator/internal/errors"
	"github.com/taxreform/simulator/internal/types"
)

func d(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func assertAmount(t *testing.T, want string, got decimal.Decimal, field string) {
	t.Helper()
	assert.True(t, d(want).Equal(got), "%s: want %s, got %s", field, want, got.String())
}

func profile(revenue, costs string) *company.Profile {
	return &company.Profile{
		Revenue:      d(revenue),
		TaxableCosts: d(costs),
		Sector:       types.SectorStandard,
		Regime:       types.TaxRegimeNormal,
	}
}

func TestCalculator_ComputeDue_FirstTransitionYear(t *testing.T) {
	calc := NewCalculator(nil, nil)

	result, tr, err := calc.ComputeDue(rules.NewDefaultConfiguration(), profile("1000000", "0"), 2026)
	require.NoError(t, err)

	assertAmount(t, "100000", result.Base, "base")
	assertAmount(t, "8800", result.CBS, "cbs")
	assertAmount(t, "17700", result.IBS, "ibs")
	assertAmount(t, "26500", result.Gross, "gross")
	assertAmount(t, "0", result.Credits.Total, "credits")
	assertAmount(t, "26500", result.NetDue, "net due")
	assertAmount(t, "282500", result.Legacy.Total, "legacy total")
	assertAmount(t, "0", result.CrossCredit, "cross credit")
	assertAmount(t, "309000", result.GrandTotal, "grand total")
	assertAmount(t, "0.309", result.EffectiveRate, "effective rate")

	assert.Equal(t, []string{
		"validation", "base", "rates", "component A", "component B",
		"credits", "tax due", "legacy taxes", "cross-credit", "total due",
	}, tr.Keys())
	for _, tax := range types.LegacyTraceSections {
		_, ok := tr.Lookup(types.TraceSectionLegacyTaxes.String(), tax.String())
		assert.True(t, ok, "legacy sub-section %s", tax)
	}
	assert.Contains(t, tr.Lines(types.TraceSectionComponentA), "CBS = R$ 100.000,00 x 8,80% = R$ 8.800,00")
}

func TestCalculator_ComputeDue_NormalCredits(t *testing.T) {
	result, _, err := NewCalculator(nil, nil).ComputeDue(rules.NewDefaultConfiguration(), profile("1000000", "400000"), 2026)
	require.NoError(t, err)

	assertAmount(t, "10600", result.Credits.Normal, "normal credit")
	assertAmount(t, "15900", result.NetDue, "net due")
	assertAmount(t, "114000", result.Legacy.ICMS, "icms")
	assertAmount(t, "169500", result.Legacy.Total, "legacy total")
	assertAmount(t, "185400", result.GrandTotal, "grand total")
	assertAmount(t, "0.1854", result.EffectiveRate, "effective rate")
}

func TestCalculator_ComputeDue_CrossCredit(t *testing.T) {
	t.Run("offsets_icms", func(t *testing.T) {
		result, tr, err := NewCalculator(nil, nil).ComputeDue(rules.NewDefaultConfiguration(), profile("1000000", "400000"), 2028)
		require.NoError(t, err)

		assertAmount(t, "400000", result.Base, "base")
		assertAmount(t, "70800", result.IBS, "ibs")
		assertAmount(t, "28320", result.CrossCredit, "cross credit")
		assertAmount(t, "85680", result.Legacy.ICMS, "icms")
		assertAmount(t, "141180", result.Legacy.Total, "legacy total")
		assert.True(t, result.NetDue.Add(result.Legacy.Total).Equal(result.GrandTotal))
		assert.NotEmpty(t, tr.Lines(types.TraceSectionCrossCredit))
	})

	t.Run("capped_by_icms", func(t *testing.T) {
		cfg := rules.NewDefaultConfiguration()
		cfg.ICMS.AssessmentIncentives = []rules.Incentive{{
			Description: "full relief",
			Type:        types.IncentiveTypeBalanceReduction,
			Percentual:  d("1"),
			ShareOfBase: d("1"),
		}}

		result, _, err := NewCalculator(nil, nil).ComputeDue(cfg, profile("1000000", "400000"), 2030)
		require.NoError(t, err)
		assertAmount(t, "0", result.Legacy.ICMS, "icms")
		assertAmount(t, "0", result.CrossCredit, "cross credit")
	})
}

func TestCalculator_ComputeDue_SectorHalvesBase(t *testing.T) {
	p := profile("1000000", "0")
	p.Sector = types.SectorEducation

	result, tr, err := NewCalculator(nil, nil).ComputeDue(rules.NewDefaultConfiguration(), p, 2033)
	require.NoError(t, err)

	assertAmount(t, "500000", result.Base, "base")
	assertAmount(t, "26400", result.CBS, "cbs")
	assertAmount(t, "62500", result.IBS, "ibs")
	assert.Len(t, tr.Lines(types.TraceSectionBase), 4)
}

func TestCalculator_ComputeDue_CreditOrigins(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *company.Profile)
		field  func(c CreditBreakdown) decimal.Decimal
		want   string
	}{
		{
			name:   "simples_below_cap",
			mutate: func(p *company.Profile) { p.SimplesCosts = d("500000") },
			field:  func(c CreditBreakdown) decimal.Decimal { return c.Simples },
			want:   "26500",
		},
		{
			name:   "simples_capped_at_share_of_gross",
			mutate: func(p *company.Profile) { p.SimplesCosts = d("10000000") },
			field:  func(c CreditBreakdown) decimal.Decimal { return c.Simples },
			want:   "106000",
		},
		{
			name:   "rural_producers",
			mutate: func(p *company.Profile) { p.RuralCosts = d("100000") },
			field:  func(c CreditBreakdown) decimal.Decimal { return c.Rural },
			want:   "22980",
		},
		{
			name:   "imports",
			mutate: func(p *company.Profile) { p.ImportCosts = d("100000") },
			field:  func(c CreditBreakdown) decimal.Decimal { return c.Imports },
			want:   "22100",
		},
		{
			name:   "prior_credits",
			mutate: func(p *company.Profile) { p.PriorCredits = d("5000") },
			field:  func(c CreditBreakdown) decimal.Decimal { return c.Prior },
			want:   "5000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := profile("1000000", "0")
			tt.mutate(p)

			result, _, err := NewCalculator(nil, nil).ComputeDue(rules.NewDefaultConfiguration(), p, 2033)
			require.NoError(t, err)
			assertAmount(t, tt.want, tt.field(result.Credits), "credit")
			assertAmount(t, tt.want, result.Credits.Total, "credit total")
			assertAmount(t, "265000", result.Gross, "gross")
			assert.True(t, result.Gross.Sub(result.Credits.Total).Equal(result.NetDue))
		})
	}
}

func TestCalculator_Credits_SimplesFallbackEstimate(t *testing.T) {
	cfg := rules.NewDefaultConfiguration()
	p := profile("1000000", "0")
	p.SimplesCosts = d("500000")

	credits := NewCalculator(nil, nil).credits(cfg, p, cfg.EffectiveRates(types.SectorStandard, 2033), nil, &trace.Section{})
	// without an estimate the cap equals the base credit itself
	assertAmount(t, "26500", credits.Simples, "simples")
}

func TestCalculator_ComputeDue_NetDueFloor(t *testing.T) {
	p := profile("1000000", "0")
	p.PriorCredits = d("10000000")

	result, _, err := NewCalculator(nil, nil).ComputeDue(rules.NewDefaultConfiguration(), p, 2033)
	require.NoError(t, err)
	assertAmount(t, "0", result.NetDue, "net due")
}

func TestCalculator_ComputeDue_Validation(t *testing.T) {
	tests := []struct {
		name    string
		profile *company.Profile
		check   func(error) bool
	}{
		{
			name: "simples_above_ceiling",
			profile: &company.Profile{
				Revenue: d("5000000"),
				Sector:  types.SectorStandard,
				Regime:  types.TaxRegimeSimples,
			},
			check: ierr.IsValidation,
		},
		{
			name:    "negative_revenue",
			profile: profile("-1", "0"),
			check:   ierr.IsValidation,
		},
		{
			name:    "costs_above_revenue",
			profile: profile("100", "200"),
			check:   ierr.IsValidation,
		},
		{
			name: "negative_prior_credits_with_zero_revenue",
			profile: &company.Profile{
				PriorCredits: d("-1000"),
				Sector:       types.SectorStandard,
				Regime:       types.TaxRegimeNormal,
			},
			check: ierr.IsValidation,
		},
		{
			name: "negative_taxable_costs_with_zero_revenue",
			profile: &company.Profile{
				TaxableCosts: d("-1000"),
				Sector:       types.SectorIndustry,
				Regime:       types.TaxRegimeNormal,
			},
			check: ierr.IsValidation,
		},
		{
			name: "negative_rural_costs",
			profile: &company.Profile{
				Revenue:    d("100"),
				RuralCosts: d("-1000000"),
				Sector:     types.SectorStandard,
				Regime:     types.TaxRegimeNormal,
			},
			check: ierr.IsValidation,
		},
		{
			name:  "missing_profile",
			check: ierr.IsValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, tr, err := NewCalculator(nil, nil).ComputeDue(rules.NewDefaultConfiguration(), tt.profile, 2030)
			require.Error(t, err)
			assert.True(t, tt.check(err))
			assert.Nil(t, result)
			require.NotNil(t, tr)
			assert.Equal(t, []string{"validation"}, tr.Keys())
			assert.Len(t, tr.Lines(types.TraceSectionValidation), 1)
		})
	}

	t.Run("missing_configuration", func(t *testing.T) {
		_, _, err := NewCalculator(nil, nil).ComputeDue(nil, profile("1", "0"), 2030)
		assert.True(t, ierr.IsConfig(err))
	})
}

func TestCalculator_ComputeDue_ZeroRevenue(t *testing.T) {
	cfg := rules.NewDefaultConfiguration()
	p := profile("0", "0")
	p.SimplesCosts = d("1000")
	p.RuralCosts = d("1000")
	p.PriorCredits = d("1000")

	for _, sector := range []types.Sector{types.SectorStandard, types.SectorIndustry, types.SectorServices} {
		p.Sector = sector
		for _, year := range append(cfg.TransitionYears(), 2040) {
			result, _, err := NewCalculator(nil, nil).ComputeDue(cfg, p, year)
			require.NoError(t, err)
			assertAmount(t, "0", result.GrandTotal, "grand total")
			assertAmount(t, "0", result.EffectiveRate, "effective rate")
		}
	}
}

func TestCalculator_ComputeDue_YearOutsideSchedule(t *testing.T) {
	result, _, err := NewCalculator(nil, nil).ComputeDue(rules.NewDefaultConfiguration(), profile("1000000", "0"), 2045)
	require.NoError(t, err)
	assertAmount(t, "1000000", result.Base, "base")
	assertAmount(t, "88000", result.CBS, "cbs")
	assertAmount(t, "177000", result.IBS, "ibs")
}

func TestCalculator_ComputeDue_Idempotent(t *testing.T) {
	cfg := rules.NewDefaultConfiguration()
	cfg.ICMS.OutputIncentives = []rules.Incentive{{
		Description: "Desenvolve",
		Type:        types.IncentiveTypePresumedCredit,
		Percentual:  d("0.3"),
		ShareOfBase: d("0.7"),
	}}
	p := profile("2500000", "900000")
	p.RuralCosts = d("120000")
	calc := NewCalculator(nil, nil)

	first, firstTrace, err := calc.ComputeDue(cfg, p, 2029)
	require.NoError(t, err)
	second, secondTrace, err := calc.ComputeDue(cfg, p, 2029)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, firstTrace.Sections(), secondTrace.Sections())
}

func TestCalculator_CompareAcrossYears(t *testing.T) {
	cfg := rules.NewDefaultConfiguration()
	calc := NewCalculator(nil, nil)

	t.Run("defaults_to_schedule", func(t *testing.T) {
		results, tr, err := calc.CompareAcrossYears(cfg, profile("1000000", "400000"), nil)
		require.NoError(t, err)
		assert.Len(t, results, len(cfg.TransitionYears()))
		require.NotNil(t, tr)
		assert.Contains(t, tr.Lines(types.TraceSectionBase), "Transition fraction (2033): 100,00%")

		for _, year := range cfg.TransitionYears() {
			single, _, err := calc.ComputeDue(cfg, profile("1000000", "400000"), year)
			require.NoError(t, err)
			assert.Equal(t, single, results[year])
		}
	})

	t.Run("explicit_years", func(t *testing.T) {
		results, _, err := calc.CompareAcrossYears(cfg, profile("1000000", "0"), []int{2026, 2040})
		require.NoError(t, err)
		assert.Len(t, results, 2)
		assertAmount(t, "100000", results[2026].Base, "base 2026")
		assertAmount(t, "1000000", results[2040].Base, "base 2040")
	})

	t.Run("validation_failure", func(t *testing.T) {
		results, tr, err := calc.CompareAcrossYears(cfg, profile("10", "20"), nil)
		assert.True(t, ierr.IsValidation(err))
		assert.Nil(t, results)
		assert.Equal(t, []string{"validation"}, tr.Keys())
	})
}

func TestCalculator_EquivalentRates(t *testing.T) {
	cfg := rules.NewDefaultConfiguration()
	calc := NewCalculator(nil, nil)

	t.Run("standard_sector", func(t *testing.T) {
		rates := calc.EquivalentRates(cfg, profile("1000000", "400000"), d("20"), 2033)
		require.NoError(t, rates.Err)

		assertAmount(t, "200000", rates.CurrentAmount, "current")
		assertAmount(t, "1000000", rates.Base, "base")
		assertAmount(t, "0.28", rates.Total, "total")
		assert.True(t, rates.CBS.Sub(d("0.0933")).Abs().LessThan(d("0.0001")), "cbs %s", rates.CBS)
		assert.True(t, rates.IBS.Sub(d("0.1867")).Abs().LessThan(d("0.0001")), "ibs %s", rates.IBS)
	})

	t.Run("cbs_reduction_shifts_share", func(t *testing.T) {
		p := profile("1000000", "0")
		p.Sector = types.SectorEducation

		rates := calc.EquivalentRates(cfg, p, d("10"), 2033)
		require.NoError(t, rates.Err)
		assertAmount(t, "500000", rates.Base, "base")
		assert.True(t, rates.CBS.Sub(d("0.04")).Abs().LessThan(d("0.0001")), "cbs %s", rates.CBS)
		assert.True(t, rates.IBS.Sub(d("0.16")).Abs().LessThan(d("0.0001")), "ibs %s", rates.IBS)
	})

	t.Run("zero_base", func(t *testing.T) {
		rates := calc.EquivalentRates(cfg, profile("0", "0"), d("15"), 2030)
		require.NoError(t, rates.Err)
		assertAmount(t, "0", rates.Total, "total")
	})

	t.Run("division_by_zero_fails_closed", func(t *testing.T) {
		rates := calc.EquivalentRates(cfg, profile("0", "100"), d("15"), 2030)
		require.Error(t, rates.Err)
		assert.True(t, ierr.IsSystem(rates.Err))
		assertAmount(t, "0", rates.CBS, "cbs")
		assertAmount(t, "0", rates.IBS, "ibs")
		assertAmount(t, "0", rates.CurrentAmount, "current")
	})

	t.Run("negative_costs_fail_closed", func(t *testing.T) {
		rates := calc.EquivalentRates(cfg, profile("1000", "-500"), d("15"), 2030)
		assert.True(t, ierr.IsValidation(rates.Err))
		assertAmount(t, "0", rates.Total, "total")
	})

	t.Run("missing_configuration_fails_closed", func(t *testing.T) {
		rates := calc.EquivalentRates(nil, profile("1000", "0"), d("15"), 2030)
		assert.True(t, ierr.IsConfig(rates.Err))
		assertAmount(t, "0", rates.Total, "total")
	})
}
