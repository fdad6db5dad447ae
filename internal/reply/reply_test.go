package reply

import (
	"math/rand/v2"
	"testing"

	"github.com/Danondso/squeak/internal/config"
	"github.com/Danondso/squeak/internal/grain"
)

func defaults() []Reply { return FromConfig(config.DefaultReplies()) }

func TestSelectByTags(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 1))
	cases := map[string]int{
		"I'm so HUNGRY, want an apple?": 1,
		"let's go for a walk and play":  2,
		"hello! nice to meet you":       3,
	}
	for input, want := range cases {
		r, ok := Select(input, defaults(), rng)
		if !ok {
			t.Fatal("expected a reply")
		}
		if r.ID != want {
			t.Errorf("%q: expected reply %d, got %d", input, want, r.ID)
		}
	}
}

func TestSelectNoMatchIsRandom(t *testing.T) {
	rng := rand.New(rand.NewPCG(2, 2))
	seen := map[int]bool{}
	for i := 0; i < 200; i++ {
		r, _ := Select("zzz", defaults(), rng)
		seen[r.ID] = true
	}
	if len(seen) != 3 {
		t.Errorf("expected every reply to be picked eventually, saw %v", seen)
	}
}

func TestSelectTieIsRandomAmongTop(t *testing.T) {
	replies := []Reply{
		{ID: 1, Tags: []string{"ball"}},
		{ID: 2, Tags: []string{"ball"}},
		{ID: 3, Tags: []string{"nap"}},
	}
	rng := rand.New(rand.NewPCG(3, 3))
	seen := map[int]bool{}
	for i := 0; i < 200; i++ {
		r, _ := Select("throw the ball", replies, rng)
		seen[r.ID] = true
	}
	if !seen[1] || !seen[2] || seen[3] {
		t.Errorf("expected only the tied replies, saw %v", seen)
	}
}

func TestSelectEmpty(t *testing.T) {
	if _, ok := Select("hi", nil, rand.New(rand.NewPCG(1, 1))); ok {
		t.Error("expected no reply from an empty table")
	}
}

func TestHint(t *testing.T) {
	r := defaults()
	if r[0].Hint() != grain.HintHungry {
		t.Errorf("expected hungry hint, got %s", r[0].Hint())
	}
	if (Reply{}).Hint() != grain.HintRandom {
		t.Error("expected random hint for a reply without one")
	}
}
