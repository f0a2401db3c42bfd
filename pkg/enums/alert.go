package enums

import "fmt"

// AlertKind maps to the alert_kind column.
type AlertKind string

const (
	AlertKindDueToday    AlertKind = "due_today"
	AlertKindDueTomorrow AlertKind = "due_tomorrow"
	AlertKindOverdue     AlertKind = "overdue"
	AlertKindCustom      AlertKind = "custom"
)

var validAlertKinds = []AlertKind{
	AlertKindDueToday,
	AlertKindDueTomorrow,
	AlertKindOverdue,
	AlertKindCustom,
}

func (k AlertKind) String() string {
	return string(k)
}

// IsValid checks whether the given kind matches the canonical enum.
func (k AlertKind) IsValid() bool {
	for _, candidate := range validAlertKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// IsEditable reports whether alerts of this kind accept edits after creation.
func (k AlertKind) IsEditable() bool {
	return k == AlertKindCustom
}

// ParseAlertKind converts raw strings into AlertKind.
func ParseAlertKind(value string) (AlertKind, error) {
	for _, candidate := range validAlertKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid alert kind %q", value)
}
