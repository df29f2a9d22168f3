package company

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	ierr "github.com/taxreform/simulator/internal/errors"
	"github.com/taxreform/simulator/internal/types"
)

func TestProfile_Validate(t *testing.T) {
	ceiling := decimal.NewFromInt(4_800_000)

	tests := []struct {
		name    string
		profile Profile
		wantErr bool
	}{
		{
			name: "valid_normal_regime",
			profile: Profile{
				Revenue:      decimal.NewFromInt(1_000_000),
				TaxableCosts: decimal.NewFromInt(400_000),
				Sector:       types.SectorStandard,
				Regime:       types.TaxRegimeNormal,
			},
		},
		{
			name: "zero_revenue",
			profile: Profile{
				Regime: types.TaxRegimePresumed,
			},
		},
		{
			name: "negative_revenue",
			profile: Profile{
				Revenue: decimal.NewFromInt(-1),
				Regime:  types.TaxRegimeNormal,
			},
			wantErr: true,
		},
		{
			name: "negative_taxable_costs",
			profile: Profile{
				Revenue:      decimal.NewFromInt(100),
				TaxableCosts: decimal.NewFromInt(-1000),
				Regime:       types.TaxRegimeNormal,
			},
			wantErr: true,
		},
		{
			name: "negative_simples_costs",
			profile: Profile{
				Revenue:      decimal.NewFromInt(100),
				SimplesCosts: decimal.NewFromInt(-1),
				Regime:       types.TaxRegimeNormal,
			},
			wantErr: true,
		},
		{
			name: "negative_rural_costs",
			profile: Profile{
				Revenue:    decimal.NewFromInt(100),
				RuralCosts: decimal.NewFromInt(-1_000_000),
				Regime:     types.TaxRegimeNormal,
			},
			wantErr: true,
		},
		{
			name: "negative_import_costs",
			profile: Profile{
				Revenue:     decimal.NewFromInt(100),
				ImportCosts: decimal.NewFromInt(-1),
				Regime:      types.TaxRegimeNormal,
			},
			wantErr: true,
		},
		{
			name: "negative_prior_credits_with_zero_revenue",
			profile: Profile{
				PriorCredits: decimal.NewFromInt(-1000),
				Regime:       types.TaxRegimeNormal,
			},
			wantErr: true,
		},
		{
			name: "costs_above_revenue",
			profile: Profile{
				Revenue:      decimal.NewFromInt(100),
				TaxableCosts: decimal.NewFromInt(101),
				Regime:       types.TaxRegimeNormal,
			},
			wantErr: true,
		},
		{
			name: "unknown_regime",
			profile: Profile{
				Revenue: decimal.NewFromInt(100),
				Regime:  types.TaxRegime("mei"),
			},
			wantErr: true,
		},
		{
			name: "simples_at_ceiling",
			profile: Profile{
				Revenue: ceiling,
				Regime:  types.TaxRegimeSimples,
			},
		},
		{
			name: "simples_above_ceiling",
			profile: Profile{
				Revenue: ceiling.Add(decimal.NewFromInt(1)),
				Regime:  types.TaxRegimeSimples,
			},
			wantErr: true,
		},
		{
			name: "normal_above_ceiling",
			profile: Profile{
				Revenue: decimal.NewFromInt(10_000_000),
				Regime:  types.TaxRegimeNormal,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.profile.Validate(ceiling)
			if tt.wantErr {
				assert.Error(t, err)
				assert.True(t, ierr.IsValidation(err))
				return
			}
			assert.NoError(t, err)
		})
	}
}
