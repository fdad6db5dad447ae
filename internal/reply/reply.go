// Package reply picks a canned reply for a line of user input.
package reply

import (
	"math/rand/v2"
	"strings"

	"github.com/Danondso/squeak/internal/config"
	"github.com/Danondso/squeak/internal/grain"
)

// Reply is a clip plus the caption shown with it.
type Reply struct {
	ID      int
	Clip    string
	Caption string
	Tags    []string
	hint    string
}

// Hint returns the synthesis hint for the reply's clip.
func (r Reply) Hint() grain.Hint { return grain.ParseHint(r.hint) }

// FromConfig converts configured replies.
func FromConfig(cfgs []config.ReplyConfig) []Reply {
	out := make([]Reply, len(cfgs))
	for i, c := range cfgs {
		out[i] = Reply{ID: c.ID, Clip: c.Clip, Caption: c.Caption, Tags: c.Tags, hint: c.Hint}
	}
	return out
}

// Score counts the tags of r that appear in input, ignoring case.
func Score(input string, r Reply) int {
	lower := strings.ToLower(input)
	n := 0
	for _, tag := range r.Tags {
		if tag != "" && strings.Contains(lower, strings.ToLower(tag)) {
			n++
		}
	}
	return n
}

// Select returns the reply whose tags best match input. Ties, and input that
// matches nothing, are broken at random. It returns false when replies is
// empty.
func Select(input string, replies []Reply, rng *rand.Rand) (Reply, bool) {
	if len(replies) == 0 {
		return Reply{}, false
	}

	best := 0
	var top []int
	for i, r := range replies {
		s := Score(input, r)
		switch {
		case s > best:
			best = s
			top = append(top[:0], i)
		case s == best && s > 0:
			top = append(top, i)
		}
	}
	if best == 0 {
		return replies[rng.IntN(len(replies))], true
	}
	return replies[top[rng.IntN(len(top))]], true
}
