package types

// Sector identifies an economic sector. Sectors are keys of the configurable
// sector table; an unknown sector falls back to SectorStandard for rates.
type Sector string

const (
	SectorStandard  Sector = "standard"
	SectorEducation Sector = "education"
	SectorHealth    Sector = "health"
	SectorFood      Sector = "food"
	SectorTransport Sector = "transport"
	SectorServices  Sector = "services"
	SectorIndustry  Sector = "industry"
	SectorCommerce  Sector = "commerce"
)

func (s Sector) String() string {
	return string(s)
}

// OrStandard maps the empty sector to SectorStandard
func (s Sector) OrStandard() Sector {
	if s == "" {
		return SectorStandard
	}
	return s
}

// IsStandard reports whether s is the standard sector
func (s Sector) IsStandard() bool {
	return s.OrStandard() == SectorStandard
}

// PaysISS reports whether the municipal service tax applies to the sector
func (s Sector) PaysISS() bool {
	switch s {
	case SectorServices, SectorEducation, SectorHealth:
		return true
	}
	return false
}

// PaysIPI reports whether the industrial products tax applies to the sector
func (s Sector) PaysIPI() bool {
	return s == SectorIndustry
}
