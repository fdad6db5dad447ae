package intent

import "math/rand/v2"

var phrases = map[Intent][]string{
	Greeting: {
		"Hello!",
		"Hey, I'm so happy to see you!",
		"Good morning! You look well.",
		"Good evening~",
		"Long time no see!",
	},
	Playful: {
		"Let's play~!",
		"Run with me!",
		"Want to do something fun?",
		"It's playtime~",
		"This is so exciting!",
	},
	Hungry: {
		"I'm starving~",
		"Is dinner ready yet?",
		"I want a snack...",
		"Got anything tasty?",
		"I smell food!",
	},
}

var onomatopoeia = map[Intent][]string{
	Greeting: {
		"kyu-kyuu~",
		"koon, koon",
		"kyururu~",
		"kukku-kyuu~",
		"kyuuun",
	},
	Playful: {
		"kya! kya! kya!",
		"kyukyukyu~!",
		"kurururu~",
		"kyakya-kyuu!",
		"kurukuru~",
	},
	Hungry: {
		"gururu... kyuu~",
		"kuuun... kuuun",
		"kyuuuuun",
		"guruguru~kyu",
		"kuuuuun",
	},
}

// Phrase returns a random translation line for i.
func Phrase(i Intent, rng *rand.Rand) string {
	return pick(phrases[i], rng)
}

// Onomatopoeia returns a random sound-effect caption for i.
func Onomatopoeia(i Intent, rng *rand.Rand) string {
	return pick(onomatopoeia[i], rng)
}

func pick(list []string, rng *rand.Rand) string {
	if len(list) == 0 {
		return ""
	}
	return list[rng.IntN(len(list))]
}
