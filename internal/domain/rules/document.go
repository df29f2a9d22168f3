package rules

import (
	"maps"

	"github.com/shopspring/decimal"
	"github.com/taxreform/simulator/internal/types"
)

// Document is the persisted form of the rate tables. Absent sections are
// nil and leave the corresponding configuration untouched on load.
type Document struct {
	BaseRates      *BaseRates                  `json:"base_rates,omitempty"`
	Transition     map[int]decimal.Decimal     `json:"transition,omitempty"`
	Sectors        map[types.Sector]SectorRule `json:"sectors,omitempty"`
	SimplesCeiling *decimal.Decimal            `json:"simples_ceiling,omitempty"`
	CreditRules    *CreditRules                `json:"credit_rules,omitempty"`
}

// Document returns every persisted section of c
func (c *Configuration) Document() *Document {
	clone := c.Clone()
	return &Document{
		BaseRates:      &clone.BaseRates,
		Transition:     clone.Transition,
		Sectors:        clone.Sectors,
		SimplesCeiling: &clone.SimplesCeiling,
		CreditRules:    &clone.CreditRules,
	}
}

// WithDocument returns a copy of c with the sections present in doc
// replaced. The copy is validated; c is never modified.
func (c *Configuration) WithDocument(doc *Document) (*Configuration, error) {
	next := c.Clone()
	if doc.BaseRates != nil {
		next.BaseRates = *doc.BaseRates
	}
	if doc.Transition != nil {
		next.Transition = maps.Clone(doc.Transition)
	}
	if doc.Sectors != nil {
		next.Sectors = maps.Clone(doc.Sectors)
	}
	if doc.SimplesCeiling != nil {
		next.SimplesCeiling = *doc.SimplesCeiling
	}
	if doc.CreditRules != nil {
		next.CreditRules = *doc.CreditRules
	}

	if err := next.Validate(); err != nil {
		return nil, err
	}
	return next, nil
}
