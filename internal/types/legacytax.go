package types

// LegacyTax names one of the five taxes replaced by the dual VAT
type LegacyTax string

const (
	LegacyTaxPIS    LegacyTax = "PIS"
	LegacyTaxCOFINS LegacyTax = "COFINS"
	LegacyTaxICMS   LegacyTax = "ICMS"
	LegacyTaxISS    LegacyTax = "ISS"
	LegacyTaxIPI    LegacyTax = "IPI"
)

// LegacyTaxes lists the legacy taxes in reporting order
var LegacyTaxes = []LegacyTax{
	LegacyTaxPIS,
	LegacyTaxCOFINS,
	LegacyTaxICMS,
	LegacyTaxISS,
	LegacyTaxIPI,
}

func (t LegacyTax) String() string {
	return string(t)
}
