package app

import (
	"math"
	"math/rand"
	"strings"
	"unicode"
)

const hiddenRune = '_'

// maskAnswer hides every alphanumeric rune behind a placeholder; punctuation
// and spaces start revealed so the answer's shape stays visible.
func maskAnswer(answer string) []rune {
	mask := []rune(answer)
	for i, r := range mask {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			mask[i] = hiddenRune
		}
	}
	return mask
}

// renderMask spaces out the cells so single revealed characters stay legible
// in a proportional chat font.
func renderMask(mask []rune) string {
	cells := make([]string, len(mask))
	for i, r := range mask {
		cells[i] = string(r)
	}
	return strings.Join(cells, " ")
}

// revealSome uncovers 30% of the still-hidden positions (at least one),
// chosen uniformly at random without replacement. Revealed positions never
// go back to hidden.
func revealSome(mask, answer []rune, rnd *rand.Rand) {
	hidden := make([]int, 0, len(mask))
	for i, r := range mask {
		if r == hiddenRune {
			hidden = append(hidden, i)
		}
	}
	if len(hidden) == 0 {
		return
	}

	n := int(math.Round(0.3 * float64(len(hidden))))
	if n < 1 {
		n = 1
	}
	if n > len(hidden) {
		n = len(hidden)
	}

	for _, j := range rnd.Perm(len(hidden))[:n] {
		i := hidden[j]
		mask[i] = answer[i]
	}
}

// maxHintLevel caps hints for short answers: a single hint when the answer
// has fewer than three characters, otherwise three.
func maxHintLevel(answer string) int {
	if len([]rune(answer)) < 3 {
		return 1
	}
	return 3
}

// answerMatches compares a submission against the stored answer after
// trimming whitespace, ignoring case. No fuzzy or synonym matching.
func answerMatches(submitted, answer string) bool {
	submitted = strings.TrimSpace(submitted)
	answer = strings.TrimSpace(answer)
	if submitted == "" || answer == "" {
		return false
	}
	return strings.EqualFold(submitted, answer)
}
