package types

import (
	"slices"

	ierr "github.com/taxreform/simulator/internal/errors"
)

// IncentiveType is the closed set of ICMS incentive kinds. Unknown values are
// accepted when decoding and computed with the default contribution.
type IncentiveType string

const (
	IncentiveTypeNone             IncentiveType = "none"
	IncentiveTypeRateReduction    IncentiveType = "rate_reduction"
	IncentiveTypePresumedCredit   IncentiveType = "presumed_credit"
	IncentiveTypeBaseReduction    IncentiveType = "base_reduction"
	IncentiveTypeDeferral         IncentiveType = "deferral"
	IncentiveTypeCreditReversal   IncentiveType = "credit_reversal"
	IncentiveTypeBalanceReduction IncentiveType = "balance_reduction"
)

func (t IncentiveType) String() string {
	return string(t)
}

// IsKnown reports whether t is one of the declared incentive types
func (t IncentiveType) IsKnown() bool {
	return slices.Contains([]IncentiveType{
		IncentiveTypeNone,
		IncentiveTypeRateReduction,
		IncentiveTypePresumedCredit,
		IncentiveTypeBaseReduction,
		IncentiveTypeDeferral,
		IncentiveTypeCreditReversal,
		IncentiveTypeBalanceReduction,
	}, t)
}

// IncentiveCategory selects which flow an incentive list applies to
type IncentiveCategory string

const (
	// IncentiveCategoryOutput applies to sales (debits)
	IncentiveCategoryOutput IncentiveCategory = "output"
	// IncentiveCategoryInput applies to purchases (credits)
	IncentiveCategoryInput IncentiveCategory = "input"
	// IncentiveCategoryAssessment applies to the net balance
	IncentiveCategoryAssessment IncentiveCategory = "assessment"
)

func (c IncentiveCategory) String() string {
	return string(c)
}

func (c IncentiveCategory) Validate() error {
	allowedValues := []IncentiveCategory{
		IncentiveCategoryOutput,
		IncentiveCategoryInput,
		IncentiveCategoryAssessment,
	}
	if !slices.Contains(allowedValues, c) {
		return ierr.NewError("invalid incentive category").
			WithHint("Incentive category must be one of output, input or assessment").
			Mark(ierr.ErrValidation)
	}
	return nil
}
