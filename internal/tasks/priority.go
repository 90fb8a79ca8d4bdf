package tasks

import "strings"

// Priority is ordered by sort weight: lower values sort first
type Priority int

const (
	PriorityHighest Priority = iota
	PriorityHigh
	PriorityMedium
	PriorityNone
	PriorityLow
	PriorityLowest
)

var priorityNames = map[Priority]string{
	PriorityHighest: "Highest",
	PriorityHigh:    "High",
	PriorityMedium:  "Medium",
	PriorityNone:    "Normal",
	PriorityLow:     "Low",
	PriorityLowest:  "Lowest",
}

var prioritySigns = map[string]Priority{
	"🔺": PriorityHighest,
	"⏫": PriorityHigh,
	"🔼": PriorityMedium,
	"🔽": PriorityLow,
	"⏬": PriorityLowest,
}

// Name returns the display name, "Normal" for PriorityNone
func (p Priority) Name() string {
	return priorityNames[p]
}

// Sign returns the emoji marker, empty for PriorityNone
func (p Priority) Sign() string {
	for sign, prio := range prioritySigns {
		if prio == p {
			return sign
		}
	}
	return ""
}

// ParsePriority accepts the query keywords highest, high, medium, none, low, lowest
func ParsePriority(value string) (Priority, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "highest":
		return PriorityHighest, true
	case "high":
		return PriorityHigh, true
	case "medium":
		return PriorityMedium, true
	case "none", "normal":
		return PriorityNone, true
	case "low":
		return PriorityLow, true
	case "lowest":
		return PriorityLowest, true
	}
	return PriorityNone, false
}

// urgencyScore is the priority contribution to urgency
func (p Priority) urgencyScore() float64 {
	switch p {
	case PriorityHighest:
		return 9.0
	case PriorityHigh:
		return 6.0
	case PriorityMedium:
		return 3.9
	case PriorityNone:
		return 1.95
	case PriorityLowest:
		return -1.8
	}
	return 0
}
