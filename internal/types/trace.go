package types

// TraceSection is a stable key of the computation trace. Reporting
// collaborators render sections by key without parsing line text.
type TraceSection string

const (
	TraceSectionValidation  TraceSection = "validation"
	TraceSectionBase        TraceSection = "base"
	TraceSectionRates       TraceSection = "rates"
	TraceSectionComponentA  TraceSection = "component A"
	TraceSectionComponentB  TraceSection = "component B"
	TraceSectionCredits     TraceSection = "credits"
	TraceSectionTaxDue      TraceSection = "tax due"
	TraceSectionLegacyTaxes TraceSection = "legacy taxes"
	TraceSectionCrossCredit TraceSection = "cross-credit"
	TraceSectionTotalDue    TraceSection = "total due"

	// TraceSectionTotal closes the legacy-tax sub-trace
	TraceSectionTotal TraceSection = "total"
)

// DualVatTraceSections is the section order of a dual-VAT computation
var DualVatTraceSections = []TraceSection{
	TraceSectionValidation,
	TraceSectionBase,
	TraceSectionRates,
	TraceSectionComponentA,
	TraceSectionComponentB,
	TraceSectionCredits,
	TraceSectionTaxDue,
	TraceSectionLegacyTaxes,
	TraceSectionCrossCredit,
	TraceSectionTotalDue,
}

// LegacyTraceSections is the section order of a legacy-tax computation
var LegacyTraceSections = []TraceSection{
	TraceSection(LegacyTaxPIS),
	TraceSection(LegacyTaxCOFINS),
	TraceSection(LegacyTaxICMS),
	TraceSection(LegacyTaxISS),
	TraceSection(LegacyTaxIPI),
	TraceSectionTotal,
}

func (s TraceSection) String() string {
	return string(s)
}
