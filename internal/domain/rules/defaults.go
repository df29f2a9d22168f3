package rules

import (
	"github.com/shopspring/decimal"
	"github.com/taxreform/simulator/internal/types"
)

func d(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

// NewDefaultConfiguration returns the rule set of the reform as enacted:
// base rates of LC 214/2025 art. 12, the 2026-2033 schedule of annex III and
// the sector reductions of art. 18.
func NewDefaultConfiguration() *Configuration {
	return &Configuration{
		BaseRates: BaseRates{
			CBS: d("0.088"),
			IBS: d("0.177"),
		},
		Transition: map[int]decimal.Decimal{
			2026: d("0.10"),
			2027: d("0.25"),
			2028: d("0.40"),
			2029: d("0.60"),
			2030: d("0.80"),
			2031: d("0.90"),
			2032: d("0.95"),
			2033: d("1.00"),
		},
		Sectors: map[types.Sector]SectorRule{
			types.SectorStandard:  {IBS: d("0.177"), CBSReduction: d("0")},
			types.SectorEducation: {IBS: d("0.125"), CBSReduction: d("0.40")},
			types.SectorHealth:    {IBS: d("0.145"), CBSReduction: d("0.30")},
			types.SectorFood:      {IBS: d("0.120"), CBSReduction: d("0.25")},
			types.SectorTransport: {IBS: d("0.150"), CBSReduction: d("0.20")},
		},
		ZeroRatedProducts: []string{
			"Arroz", "Feijão", "Leite", "Pão", "Frutas", "Hortaliças",
		},
		SimplesCeiling: d("4800000"),
		CreditRules: CreditRules{
			Normal:  d("1.0"),
			Simples: d("0.20"),
			Rural:   d("0.60"),
			Imports: ImportCredit{IBS: d("1.0"), CBS: d("0.50")},
		},
		Legacy: LegacyRates{
			PIS:    d("0.0165"),
			COFINS: d("0.076"),
			IPI: map[types.Sector]decimal.Decimal{
				types.SectorStandard: d("0.10"),
				types.SectorIndustry: d("0.15"),
			},
			ISS: map[types.Sector]decimal.Decimal{
				types.SectorStandard: d("0.05"),
				types.SectorServices: d("0.05"),
			},
		},
		ICMS: ICMSConfig{
			InputRate:            d("0.19"),
			OutputRate:           d("0.19"),
			OutputIncentives:     []Incentive{},
			InputIncentives:      []Incentive{},
			AssessmentIncentives: []Incentive{},
		},
		LegacyPhaseOut: map[int]LegacyShares{
			2026: phaseOut("0", "0", "0", "0", "0"),
			2027: phaseOut("1", "1", "0", "0", "0"),
			2028: phaseOut("1", "1", "0.33", "0.40", "0.3"),
			2029: phaseOut("1", "1", "0.56", "0.70", "0.6"),
			2030: phaseOut("1", "1", "0.70", "0.80", "0.8"),
			2031: phaseOut("1", "1", "0.80", "0.90", "0.9"),
			2032: phaseOut("1", "1", "0.95", "0.95", "0.95"),
			2033: phaseOut("1", "1", "1", "1", "1"),
		},
		CrossCredit: map[int]decimal.Decimal{
			2028: d("0.40"),
			2029: d("0.50"),
			2030: d("0.60"),
			2031: d("0.70"),
			2032: d("0.80"),
		},
	}
}

func phaseOut(pis, cofins, icms, iss, ipi string) LegacyShares {
	return LegacyShares{
		types.LegacyTaxPIS:    d(pis),
		types.LegacyTaxCOFINS: d(cofins),
		types.LegacyTaxICMS:   d(icms),
		types.LegacyTaxISS:    d(iss),
		types.LegacyTaxIPI:    d(ipi),
	}
}
