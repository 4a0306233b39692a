package enums

import "fmt"

// ReplayMode selects which cost values a preset replay uses.
type ReplayMode string

const (
	// ReplayModeAsSaved applies the cost overrides stored in the preset slot.
	ReplayModeAsSaved ReplayMode = "as_saved"
	// ReplayModeLive ignores stored overrides and uses current cost item amounts.
	ReplayModeLive ReplayMode = "live"
)

var validReplayModes = []ReplayMode{
	ReplayModeAsSaved,
	ReplayModeLive,
}

// String implements fmt.Stringer.
func (m ReplayMode) String() string {
	return string(m)
}

// IsValid reports whether the value is a known ReplayMode.
func (m ReplayMode) IsValid() bool {
	for _, candidate := range validReplayModes {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseReplayMode converts raw input into a ReplayMode; empty input means as_saved.
func ParseReplayMode(value string) (ReplayMode, error) {
	if value == "" {
		return ReplayModeAsSaved, nil
	}
	for _, candidate := range validReplayModes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid replay mode %q", value)
}
