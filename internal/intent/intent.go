// Package intent scores aggregated audio features against fixed thresholds
// and maps the winning intent to display strings.
package intent

import "fmt"

// Intent is a coarse behavioral category assigned to an utterance.
type Intent int

// Declaration order is the tie-break order.
const (
	Greeting Intent = iota
	Playful
	Hungry
)

// All lists every intent in tie-break order.
var All = []Intent{Greeting, Playful, Hungry}

func (i Intent) String() string {
	switch i {
	case Greeting:
		return "greeting"
	case Playful:
		return "playful"
	case Hungry:
		return "hungry"
	default:
		return fmt.Sprintf("Intent(%d)", int(i))
	}
}

// ParseIntent converts a name back into an Intent.
func ParseIntent(s string) (Intent, error) {
	for _, i := range All {
		if i.String() == s {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown intent %q", s)
}
