package enums

import (
	"fmt"
	"strings"
)

// InspectionReason enumerates why an inventory item was inspected.
type InspectionReason string

const (
	InspectionReasonDamage    InspectionReason = "damage"
	InspectionReasonPromotion InspectionReason = "promotion"
	InspectionReasonOther     InspectionReason = "other"
)

var validInspectionReasons = []InspectionReason{
	InspectionReasonDamage,
	InspectionReasonPromotion,
	InspectionReasonOther,
}

func (r InspectionReason) String() string {
	return string(r)
}

// IsValid checks whether the given reason matches the canonical enum.
func (r InspectionReason) IsValid() bool {
	for _, candidate := range validInspectionReasons {
		if candidate == r {
			return true
		}
	}
	return false
}

// IsFixedInspectionReason reports whether a stored reason is one of the predefined labels.
// Reasons recorded through "other" hold free text and are never fixed.
func IsFixedInspectionReason(stored string) bool {
	switch InspectionReason(strings.ToLower(strings.TrimSpace(stored))) {
	case InspectionReasonDamage, InspectionReasonPromotion:
		return true
	}
	return false
}

// ParseInspectionReason converts raw strings into InspectionReason.
func ParseInspectionReason(value string) (InspectionReason, error) {
	key := InspectionReason(strings.ToLower(strings.TrimSpace(value)))
	for _, candidate := range validInspectionReasons {
		if candidate == key {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid inspection reason %q", value)
}
