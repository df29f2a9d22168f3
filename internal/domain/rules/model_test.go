package rules

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	ierr "github.com/taxreform/simulator/internal/errors"
	"github.com/taxreform/simulator/internal/types"
)

func TestConfiguration_EffectiveRates(t *testing.T) {
	cfg := NewDefaultConfiguration()

	tests := []struct {
		name    string
		sector  types.Sector
		year    int
		wantCBS string
		wantIBS string
	}{
		{name: "standard_first_year", sector: types.SectorStandard, year: 2026, wantCBS: "0.0088", wantIBS: "0.0177"},
		{name: "standard_final_year", sector: types.SectorStandard, year: 2033, wantCBS: "0.088", wantIBS: "0.177"},
		{name: "education_reduces_cbs", sector: types.SectorEducation, year: 2033, wantCBS: "0.0528", wantIBS: "0.125"},
		{name: "health_mid_transition", sector: types.SectorHealth, year: 2029, wantCBS: "0.03696", wantIBS: "0.087"},
		{name: "unknown_sector_falls_back", sector: types.Sector("mining"), year: 2028, wantCBS: "0.0352", wantIBS: "0.0708"},
		{name: "year_after_schedule", sector: types.SectorStandard, year: 2040, wantCBS: "0.088", wantIBS: "0.177"},
		{name: "year_before_schedule", sector: types.SectorFood, year: 2020, wantCBS: "0.066", wantIBS: "0.12"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rates := cfg.EffectiveRates(tt.sector, tt.year)
			assert.True(t, decimal.RequireFromString(tt.wantCBS).Equal(rates.CBS), "cbs: got %s", rates.CBS)
			assert.True(t, decimal.RequireFromString(tt.wantIBS).Equal(rates.IBS), "ibs: got %s", rates.IBS)
			assert.True(t, rates.CBS.Add(rates.IBS).Equal(rates.Total))
		})
	}
}

func TestConfiguration_SectorRates(t *testing.T) {
	cfg := NewDefaultConfiguration()

	full := cfg.SectorRates(types.SectorTransport)
	assert.True(t, full.CBS.Equal(d("0.0704")))
	assert.True(t, full.IBS.Equal(d("0.15")))

	scaled := cfg.EffectiveRates(types.SectorTransport, 2027)
	assert.True(t, full.CBS.Mul(d("0.25")).Equal(scaled.CBS))
	assert.True(t, full.IBS.Mul(d("0.25")).Equal(scaled.IBS))
}

func TestConfiguration_Schedules(t *testing.T) {
	cfg := NewDefaultConfiguration()

	assert.True(t, cfg.TransitionFraction(2027).Equal(d("0.25")))
	assert.True(t, cfg.TransitionFraction(2099).Equal(d("1")))
	assert.Equal(t, []int{2026, 2027, 2028, 2029, 2030, 2031, 2032, 2033}, cfg.TransitionYears())

	fraction, ok := cfg.CrossCreditFraction(2030)
	assert.True(t, ok)
	assert.True(t, fraction.Equal(d("0.60")))
	_, ok = cfg.CrossCreditFraction(2033)
	assert.False(t, ok)

	shares := cfg.LegacyPhaseOutFor(2029)
	assert.True(t, shares[types.LegacyTaxICMS].Equal(d("0.56")))
	missing := cfg.LegacyPhaseOutFor(2050)
	for _, tax := range types.LegacyTaxes {
		assert.True(t, missing[tax].Equal(d("1")), "%s defaults to full", tax)
	}

	assert.True(t, cfg.Legacy.IPIRate(types.SectorIndustry).Equal(d("0.15")))
	assert.True(t, cfg.Legacy.IPIRate(types.SectorCommerce).Equal(d("0.10")))
	assert.True(t, cfg.Legacy.ISSRate(types.SectorHealth).Equal(d("0.05")))
}

func TestConfiguration_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Configuration)
		wantErr bool
	}{
		{
			name:   "defaults_are_valid",
			mutate: func(c *Configuration) {},
		},
		{
			name:    "missing_standard_sector",
			mutate:  func(c *Configuration) { delete(c.Sectors, types.SectorStandard) },
			wantErr: true,
		},
		{
			name:    "base_rate_above_one",
			mutate:  func(c *Configuration) { c.BaseRates.IBS = d("1.2") },
			wantErr: true,
		},
		{
			name:    "negative_sector_reduction",
			mutate:  func(c *Configuration) { c.Sectors[types.SectorFood] = SectorRule{IBS: d("0.1"), CBSReduction: d("-0.1")} },
			wantErr: true,
		},
		{
			name:    "decreasing_transition",
			mutate:  func(c *Configuration) { c.Transition[2030] = d("0.5") },
			wantErr: true,
		},
		{
			name:    "transition_never_completes",
			mutate:  func(c *Configuration) { c.Transition[2033] = d("0.99") },
			wantErr: true,
		},
		{
			name:    "cross_credit_above_one",
			mutate:  func(c *Configuration) { c.CrossCredit[2030] = d("1.01") },
			wantErr: true,
		},
		{
			name:    "negative_simples_ceiling",
			mutate:  func(c *Configuration) { c.SimplesCeiling = d("-1") },
			wantErr: true,
		},
		{
			name: "incentive_share_out_of_range",
			mutate: func(c *Configuration) {
				c.ICMS.InputIncentives = []Incentive{{Type: types.IncentiveTypeRateReduction, Percentual: d("0.1"), ShareOfBase: d("2")}}
			},
			wantErr: true,
		},
		{
			name:   "empty_transition_is_valid",
			mutate: func(c *Configuration) { c.Transition = map[int]decimal.Decimal{} },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfiguration()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, ierr.IsValidation(err))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestConfiguration_CloneIsIndependent(t *testing.T) {
	original := NewDefaultConfiguration()
	original.ICMS.OutputIncentives = []Incentive{{Description: "a", Type: types.IncentiveTypeDeferral, Percentual: d("0.5"), ShareOfBase: d("1")}}

	clone := original.Clone()
	clone.Transition[2026] = d("0.5")
	clone.Sectors[types.SectorStandard] = SectorRule{IBS: d("0.2")}
	clone.LegacyPhaseOut[2028][types.LegacyTaxICMS] = d("0.9")
	clone.ICMS.OutputIncentives[0].Percentual = d("0.9")
	clone.CrossCredit[2028] = d("0")
	clone.Legacy.IPI[types.SectorIndustry] = d("0.3")

	assert.True(t, original.Transition[2026].Equal(d("0.10")))
	assert.True(t, original.Sectors[types.SectorStandard].IBS.Equal(d("0.177")))
	assert.True(t, original.LegacyPhaseOut[2028][types.LegacyTaxICMS].Equal(d("0.33")))
	assert.True(t, original.ICMS.OutputIncentives[0].Percentual.Equal(d("0.5")))
	assert.True(t, original.CrossCredit[2028].Equal(d("0.40")))
	assert.True(t, original.Legacy.IPI[types.SectorIndustry].Equal(d("0.15")))
}

func TestConfiguration_SetIncentives(t *testing.T) {
	cfg := NewDefaultConfiguration()
	list := []Incentive{{Description: "Programa", Type: types.IncentiveTypeBalanceReduction, Percentual: d("0.3"), ShareOfBase: d("1")}}

	require.NoError(t, cfg.SetIncentives(types.IncentiveCategoryAssessment, list))
	assert.Equal(t, list, cfg.ICMS.Incentives(types.IncentiveCategoryAssessment))

	list[0].Description = "changed"
	assert.Equal(t, "Programa", cfg.ICMS.AssessmentIncentives[0].Description)

	err := cfg.SetIncentives(types.IncentiveCategory("other"), list)
	assert.True(t, ierr.IsValidation(err))
}

func TestIncentive_Active(t *testing.T) {
	assert.True(t, Incentive{Type: types.IncentiveTypeRateReduction, Percentual: d("0.1")}.Active())
	assert.True(t, Incentive{Type: types.IncentiveType("unknown"), Percentual: d("0.1")}.Active())
	assert.False(t, Incentive{Type: types.IncentiveTypeRateReduction, Percentual: d("0")}.Active())
	assert.False(t, Incentive{Type: types.IncentiveTypeRateReduction, Percentual: d("-0.1")}.Active())
	assert.False(t, Incentive{Type: types.IncentiveTypeNone, Percentual: d("0.5")}.Active())
	assert.False(t, Incentive{Percentual: d("0.5")}.Active())
}

func TestConfiguration_WithDocument(t *testing.T) {
	base := NewDefaultConfiguration()

	t.Run("replaces_present_sections", func(t *testing.T) {
		ceiling := d("3600000")
		next, err := base.WithDocument(&Document{
			BaseRates:      &BaseRates{CBS: d("0.09"), IBS: d("0.18")},
			SimplesCeiling: &ceiling,
		})
		require.NoError(t, err)
		assert.True(t, next.BaseRates.CBS.Equal(d("0.09")))
		assert.True(t, next.SimplesCeiling.Equal(ceiling))
		assert.Equal(t, base.TransitionYears(), next.TransitionYears())
		assert.True(t, base.BaseRates.CBS.Equal(d("0.088")))
	})

	t.Run("invalid_document_is_rejected", func(t *testing.T) {
		next, err := base.WithDocument(&Document{
			Sectors: map[types.Sector]SectorRule{types.SectorFood: {IBS: d("0.1")}},
		})
		assert.Nil(t, next)
		assert.True(t, ierr.IsValidation(err))
	})

	t.Run("round_trip", func(t *testing.T) {
		next, err := NewDefaultConfiguration().WithDocument(base.Document())
		require.NoError(t, err)
		assert.Equal(t, base.Document(), next.Document())
	})
}
