package app

import (
	"math/rand"
	"testing"
)

func TestMaskAnswerHidesAlphanumericsOnly(t *testing.T) {
	mask := maskAnswer("New York-7!")
	got := string(mask)
	want := "___ ____-_!"
	if got != want {
		t.Fatalf("mask = %q, want %q", got, want)
	}
}

func TestRevealSomeNeverRehides(t *testing.T) {
	answer := []rune("mississippi")
	mask := maskAnswer(string(answer))
	rnd := rand.New(rand.NewSource(1))

	revealed := make(map[int]rune)
	for i := 0; i < 10; i++ {
		revealSome(mask, answer, rnd)
		for pos, r := range mask {
			if r == hiddenRune {
				continue
			}
			if prev, ok := revealed[pos]; ok && prev != r {
				t.Fatalf("position %d changed from %q to %q", pos, prev, r)
			}
			revealed[pos] = r
			if r != answer[pos] {
				t.Fatalf("position %d revealed %q, answer has %q", pos, r, answer[pos])
			}
		}
	}
	if string(mask) != string(answer) {
		t.Fatalf("after many reveals expect full answer, got %q", string(mask))
	}
}

func TestRevealSomeRevealsAtLeastOne(t *testing.T) {
	answer := []rune("ox")
	mask := maskAnswer(string(answer))
	revealSome(mask, answer, rand.New(rand.NewSource(7)))

	hidden := 0
	for _, r := range mask {
		if r == hiddenRune {
			hidden++
		}
	}
	if hidden != 1 {
		t.Fatalf("expected exactly one reveal on a 2-rune answer, %d still hidden", hidden)
	}
}

func TestMaxHintLevelShortAnswers(t *testing.T) {
	if got := maxHintLevel("42"); got != 1 {
		t.Fatalf("short answer cap = %d, want 1", got)
	}
	if got := maxHintLevel("cat"); got != 3 {
		t.Fatalf("normal answer cap = %d, want 3", got)
	}
}

func TestAnswerMatches(t *testing.T) {
	cases := []struct {
		submitted string
		answer    string
		want      bool
	}{
		{"4", "4", true},
		{" 4 ", "4", true},
		{"PARIS", "Paris", true},
		{"FOUR", "4", false},
		{"", "4", false},
		{"paris!", "Paris", false},
	}
	for _, c := range cases {
		if got := answerMatches(c.submitted, c.answer); got != c.want {
			t.Errorf("answerMatches(%q, %q) = %v, want %v", c.submitted, c.answer, got, c.want)
		}
	}
}

func TestScoreTable(t *testing.T) {
	want := map[int]int{0: 5, 1: 3, 2: 2, 3: 1, 4: 1, 9: 1}
	for level, points := range want {
		if got := scoreFor(level); got != points {
			t.Errorf("scoreFor(%d) = %d, want %d", level, got, points)
		}
	}
}
