package enums

import "fmt"

// UnitType is the volumetric unit a rate type bills in.
type UnitType string

const (
	// UnitTypeCBM bills per revenue ton measured in cubic meters.
	UnitTypeCBM UnitType = "cbm"
)

var validUnitTypes = []UnitType{
	UnitTypeCBM,
}

// String implements fmt.Stringer.
func (u UnitType) String() string {
	return string(u)
}

// IsValid reports whether the value is a known UnitType.
func (u UnitType) IsValid() bool {
	for _, candidate := range validUnitTypes {
		if candidate == u {
			return true
		}
	}
	return false
}

// ParseUnitType converts raw input into a UnitType.
func ParseUnitType(value string) (UnitType, error) {
	for _, candidate := range validUnitTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid unit type %q", value)
}
