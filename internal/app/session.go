package app

import (
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"quizbot/internal/domain"
)

// scoreTable maps the hint level active at answer time to awarded points.
// Unknown (higher) levels fall back to 1.
var scoreTable = map[int]int{0: 5, 1: 3, 2: 2, 3: 1}

func scoreFor(hintLevel int) int {
	if points, ok := scoreTable[hintLevel]; ok {
		return points
	}
	return 1
}

// Timings controls the round clock: hints fire at 1x, 2x and 3x the hint
// interval, the round times out at AnswerTimeout.
type Timings struct {
	HintInterval  time.Duration
	AnswerTimeout time.Duration
}

func DefaultTimings() Timings {
	return Timings{
		HintInterval:  8 * time.Second,
		AnswerTimeout: 30 * time.Second,
	}
}

type participantScore struct {
	user   domain.User
	points int
	order  int // first-scored order, stabilizes ties in the standings
}

// standing is one row of the end-of-game scoreboard, highest points first.
type standing struct {
	User   domain.User
	Points int
}

// Session is the live state machine of one quiz in one chat. Timer callbacks
// and answer submissions race for the current round; the mutex serializes
// them and the round token makes late fires from superseded rounds no-ops
// even if cancellation lost the race.
type Session struct {
	chatID    string
	category  string
	questions []domain.Question

	scheduler  Scheduler
	messenger  Messenger
	timings    Timings
	rnd        *rand.Rand
	onFinished func(chatID string, standings []standing)

	mu         sync.Mutex
	current    int
	answered   bool
	roundToken int
	hintLevel  int
	mask       []rune
	cancels    []func()
	scores     map[string]*participantScore
	finished   bool
}

func newSession(chatID, category string, questions []domain.Question, scheduler Scheduler, messenger Messenger, timings Timings, rnd *rand.Rand, onFinished func(string, []standing)) *Session {
	return &Session{
		chatID:     chatID,
		category:   category,
		questions:  questions,
		scheduler:  scheduler,
		messenger:  messenger,
		timings:    timings,
		rnd:        rnd,
		onFinished: onFinished,
		// answered stays true until startRoundLocked opens the first round,
		// so a session that is registered but not yet started ignores input.
		answered: true,
		scores:   make(map[string]*participantScore),
	}
}

// Category reports the category the session was started with.
func (s *Session) Category() string {
	return s.category
}

func (s *Session) start() {
	s.mu.Lock()
	s.startRoundLocked()
	s.mu.Unlock()
}

// startRoundLocked begins the round at s.current: fresh mask, hint level
// zero, three hint timers and one timeout timer, all carrying this round's
// token.
func (s *Session) startRoundLocked() {
	s.cancelTimersLocked()
	s.roundToken++
	token := s.roundToken

	q := s.questions[s.current]
	s.answered = false
	s.hintLevel = 0
	s.mask = maskAnswer(q.Answer)

	s.send(fmt.Sprintf("Question %d/%d [%s]\n\n%s\n\n%s",
		s.current+1, len(s.questions), q.Category, q.Text, renderMask(s.mask)))

	for i := 1; i <= 3; i++ {
		level := i
		delay := time.Duration(i) * s.timings.HintInterval
		s.cancels = append(s.cancels, s.scheduler.Schedule(delay, func() {
			s.fireHint(token, level)
		}))
	}
	s.cancels = append(s.cancels, s.scheduler.Schedule(s.timings.AnswerTimeout, func() {
		s.fireTimeout(token)
	}))
}

func (s *Session) fireHint(token, level int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.finished || token != s.roundToken || s.answered {
		return
	}

	q := s.questions[s.current]
	max := maxHintLevel(q.Answer)
	if level > max {
		return
	}

	revealSome(s.mask, []rune(q.Answer), s.rnd)
	s.hintLevel = level
	s.send(fmt.Sprintf("Hint %d/%d:\n%s", level, max, renderMask(s.mask)))
}

func (s *Session) fireTimeout(token int) {
	s.mu.Lock()
	if s.finished || token != s.roundToken || s.answered {
		s.mu.Unlock()
		return
	}

	s.answered = true
	s.send("Time's up! The correct answer was: " + s.questions[s.current].Answer)
	s.current++

	done, standings := s.advanceLocked()
	s.mu.Unlock()

	if done {
		s.onFinished(s.chatID, standings)
	}
}

// submitAnswer resolves the round if the text matches the current answer.
// Wrong guesses are ignored without a reply; anything arriving after the
// round resolved is a no-op.
func (s *Session) submitAnswer(user domain.User, text string) {
	s.mu.Lock()
	if s.finished || s.answered {
		s.mu.Unlock()
		return
	}

	q := s.questions[s.current]
	if !answerMatches(text, q.Answer) {
		s.mu.Unlock()
		return
	}

	s.answered = true
	s.cancelTimersLocked()

	points := scoreFor(s.hintLevel)
	ps, ok := s.scores[user.ID]
	if !ok {
		ps = &participantScore{user: user, order: len(s.scores)}
		s.scores[user.ID] = ps
	}
	ps.points += points

	s.send(fmt.Sprintf("%s got it right!\nAnswer: %s\nPoints: %d",
		user.Mention(), q.Answer, points))
	s.current++

	done, standings := s.advanceLocked()
	s.mu.Unlock()

	if done {
		s.onFinished(s.chatID, standings)
	}
}

// advanceLocked cancels the resolved round's timers and either starts the
// next round or marks the session finished. The caller invokes onFinished
// after releasing the lock so registry removal and ledger writes happen
// outside the critical section.
func (s *Session) advanceLocked() (bool, []standing) {
	s.cancelTimersLocked()
	if s.current >= len(s.questions) {
		s.finished = true
		return true, s.standingsLocked()
	}
	s.startRoundLocked()
	return false, nil
}

func (s *Session) cancelTimersLocked() {
	for _, cancel := range s.cancels {
		cancel()
	}
	s.cancels = nil
}

func (s *Session) standingsLocked() []standing {
	standings := make([]standing, 0, len(s.scores))
	for _, ps := range s.scores {
		standings = append(standings, standing{User: ps.user, Points: ps.points})
	}
	sort.SliceStable(standings, func(i, j int) bool {
		if standings[i].Points != standings[j].Points {
			return standings[i].Points > standings[j].Points
		}
		return s.scores[standings[i].User.ID].order < s.scores[standings[j].User.ID].order
	})
	return standings
}

func (s *Session) send(text string) {
	s.messenger.Send(s.chatID, text)
}
