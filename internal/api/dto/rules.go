package dto

import (
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/taxreform/simulator/internal/domain/rules"
	"github.com/taxreform/simulator/internal/types"
	"github.com/taxreform/simulator/internal/validator"
)

// IncentiveRequest is one ICMS incentive entry
type IncentiveRequest struct {
	Description string `json:"description"`

	// type is one of rate_reduction, presumed_credit, base_reduction,
	// deferral, credit_reversal or balance_reduction; unknown types are
	// computed at the full rate
	Type types.IncentiveType `json:"type"`

	// percentual is the strength of the benefit; entries at or below zero are skipped
	Percentual decimal.Decimal `json:"percentual" validate:"lte=1"`

	// percentual_of_base is the share of the flow or balance the entry covers
	PercentualOfBase decimal.Decimal `json:"percentual_of_base" validate:"gte=0,lte=1"`
}

func (r *IncentiveRequest) ToIncentive() rules.Incentive {
	return rules.Incentive{
		Description: r.Description,
		Type:        r.Type,
		Percentual:  r.Percentual,
		ShareOfBase: r.PercentualOfBase,
	}
}

// IncentivesRequest carries the three ordered ICMS incentive lists
type IncentivesRequest struct {
	Output     []IncentiveRequest `json:"output,omitempty" validate:"dive"`
	Input      []IncentiveRequest `json:"input,omitempty" validate:"dive"`
	Assessment []IncentiveRequest `json:"assessment,omitempty" validate:"dive"`
}

func (r *IncentivesRequest) Validate() error {
	return validator.ValidateRequest(r)
}

// ByCategory returns the converted list of every category
func (r *IncentivesRequest) ByCategory() map[types.IncentiveCategory][]rules.Incentive {
	convert := func(list []IncentiveRequest) []rules.Incentive {
		return lo.Map(list, func(item IncentiveRequest, _ int) rules.Incentive {
			return item.ToIncentive()
		})
	}
	return map[types.IncentiveCategory][]rules.Incentive{
		types.IncentiveCategoryOutput:     convert(r.Output),
		types.IncentiveCategoryInput:      convert(r.Input),
		types.IncentiveCategoryAssessment: convert(r.Assessment),
	}
}
