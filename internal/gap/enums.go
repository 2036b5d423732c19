package gap

import (
	"fmt"
	"strings"
)

// Priority is the weight-adjusted severity tier of a gap.
type Priority string

const (
	PriorityCritical Priority = "Critical"
	PriorityHigh     Priority = "High"
	PriorityMedium   Priority = "Medium"
	PriorityLow      Priority = "Low"
)

// Priorities lists the tiers from most to least urgent.
var Priorities = []Priority{PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow}

func (p Priority) Valid() bool {
	switch p {
	case PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// Rank returns a sort key (lower = more urgent).
func (p Priority) Rank() int {
	switch p {
	case PriorityCritical:
		return 0
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 3
	default:
		return 4
	}
}

// ParsePriority matches a tier name case-insensitively.
func ParsePriority(s string) (Priority, error) {
	for _, p := range Priorities {
		if strings.EqualFold(s, string(p)) {
			return p, nil
		}
	}
	return "", fmt.Errorf("gap.ParsePriority: unknown priority %q", s)
}

// Urgency is the recommended remediation tempo for a gap.
type Urgency string

const (
	UrgencyImmediate Urgency = "Immediate"
	UrgencyHigh      Urgency = "High"
	UrgencyMedium    Urgency = "Medium"
	UrgencyLow       Urgency = "Low"
)

// Urgencies lists urgency levels from most to least pressing.
var Urgencies = []Urgency{UrgencyImmediate, UrgencyHigh, UrgencyMedium, UrgencyLow}

func (u Urgency) Valid() bool {
	switch u {
	case UrgencyImmediate, UrgencyHigh, UrgencyMedium, UrgencyLow:
		return true
	}
	return false
}
