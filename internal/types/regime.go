package types

import (
	"slices"

	ierr "github.com/taxreform/simulator/internal/errors"
)

// TaxRegime is the company's income-tax regime
type TaxRegime string

const (
	TaxRegimeNormal   TaxRegime = "normal"
	TaxRegimePresumed TaxRegime = "presumed"
	TaxRegimeSimples  TaxRegime = "simples"
)

func (r TaxRegime) String() string {
	return string(r)
}

func (r TaxRegime) Validate() error {
	allowedValues := []TaxRegime{
		TaxRegimeNormal,
		TaxRegimePresumed,
		TaxRegimeSimples,
	}
	if !slices.Contains(allowedValues, r) {
		return ierr.NewError("invalid tax regime").
			WithHintf("Tax regime must be one of normal, presumed or simples, got %q", string(r)).
			Mark(ierr.ErrValidation)
	}
	return nil
}
