// Package emotion defines the closed set of emotion labels the classifier
// can produce and the mapping helpers the rest of the application uses to
// branch on them. Keeping the set closed means tone prefixes, coping
// suggestions, and analytics can be written as exhaustive tables instead of
// free-form string comparisons.
package emotion

import "strings"

// Label is one sentiment category from the classifier's fixed output set.
type Label string

const (
	Anger    Label = "anger"
	Joy      Label = "joy"
	Optimism Label = "optimism"
	Sadness  Label = "sadness"

	// Default is the neutral bucket used whenever the classifier emits a
	// string that is not one of the explicit labels above.
	Default Label = "default"
)

// Known lists the explicit classifier labels, excluding Default.
var Known = []Label{Anger, Joy, Optimism, Sadness}

// Parse maps a raw classifier string onto the closed label set.
// Unrecognized values collapse into Default rather than leaking free-form
// strings into storage.
func Parse(raw string) Label {
	switch Label(strings.ToLower(strings.TrimSpace(raw))) {
	case Anger:
		return Anger
	case Joy:
		return Joy
	case Optimism:
		return Optimism
	case Sadness:
		return Sadness
	default:
		return Default
	}
}

// IsKnown reports whether l is one of the explicit classifier labels.
func (l Label) IsKnown() bool {
	switch l {
	case Anger, Joy, Optimism, Sadness:
		return true
	default:
		return false
	}
}

// String implements fmt.Stringer.
func (l Label) String() string { return string(l) }

// Level places a label on the dashboard's 1..4 mood scale used by the
// emotion timeline: sadness lowest, joy highest, everything else mid-range.
func (l Label) Level() int {
	switch l {
	case Sadness:
		return 1
	case Anger:
		return 2
	case Joy:
		return 4
	default:
		return 3
	}
}
