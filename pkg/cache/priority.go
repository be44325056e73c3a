package cache

import "strconv"

// Priority ranks items for purge eviction: higher priorities are kept longer.
type Priority int

const (
	// PriorityLow items are evicted first.
	PriorityLow Priority = iota + 1
	// PriorityNormal is the default priority.
	PriorityNormal
	// PriorityHigh items are evicted last.
	PriorityHigh
)

// Valid reports whether p is one of the declared priorities.
func (p Priority) Valid() bool {
	return p >= PriorityLow && p <= PriorityHigh
}

// String returns the name of the priority.
func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityNormal:
		return "normal"
	case PriorityHigh:
		return "high"
	default:
		return "priority(" + strconv.Itoa(int(p)) + ")"
	}
}

// ParsePriority maps a priority name to its value. Unknown names map to PriorityNormal
// and false.
func ParsePriority(name string) (Priority, bool) {
	switch name {
	case "low":
		return PriorityLow, true
	case "normal", "":
		return PriorityNormal, true
	case "high":
		return PriorityHigh, true
	default:
		return PriorityNormal, false
	}
}
