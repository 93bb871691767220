package app_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"quizbot/internal/app"
	"quizbot/internal/domain"
	"quizbot/internal/infra/memory"
)

type chatRecorder struct {
	mu       sync.Mutex
	messages []string
}

func (c *chatRecorder) Send(_, text string) {
	c.mu.Lock()
	c.messages = append(c.messages, text)
	c.mu.Unlock()
}

func (c *chatRecorder) contains(substr string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, msg := range c.messages {
		if strings.Contains(msg, substr) {
			return true
		}
	}
	return false
}

func (c *chatRecorder) snapshot() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.messages...)
}

func newTestService(recorder *chatRecorder, pool []domain.Question, timings app.Timings) (*app.QuizService, *memory.ScoreStore) {
	scores := memory.NewScoreStore()
	service := app.NewQuizService(app.Config{
		Questions: memory.NewQuestionRepository(memory.NewStaticPoolLoader(pool), time.Minute),
		Scores:    scores,
		Messenger: recorder,
		Scheduler: app.NewTimerScheduler(),
		Timings:   timings,
	})
	return service, scores
}

// slowTimings keeps timers from firing during a test.
func slowTimings() app.Timings {
	return app.Timings{HintInterval: time.Hour, AnswerTimeout: 4 * time.Hour}
}

func trivia() []domain.Question {
	return []domain.Question{{Text: "2+2?", Answer: "4", Category: "Trivia"}}
}

func startQuiz(t *testing.T, service *app.QuizService, rounds int) {
	t.Helper()
	if err := service.BeginSetup("chat-1"); err != nil {
		t.Fatalf("begin setup: %v", err)
	}
	if err := service.SelectCategory("chat-1", "Trivia"); err != nil {
		t.Fatalf("select category: %v", err)
	}
	if err := service.StartQuiz(context.Background(), "chat-1", rounds); err != nil {
		t.Fatalf("start quiz: %v", err)
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestDuplicateQuizStartRejected(t *testing.T) {
	service, _ := newTestService(&chatRecorder{}, trivia(), slowTimings())

	if err := service.BeginSetup("chat-1"); err != nil {
		t.Fatalf("first setup: %v", err)
	}
	if err := service.BeginSetup("chat-1"); !errors.Is(err, domain.ErrQuizInProgress) {
		t.Fatalf("expected ErrQuizInProgress, got %v", err)
	}
}

func TestRoundSelectionWithoutCategory(t *testing.T) {
	service, _ := newTestService(&chatRecorder{}, trivia(), slowTimings())

	if err := service.SelectCategory("chat-1", "Trivia"); !errors.Is(err, domain.ErrNoPendingSetup) {
		t.Fatalf("expected ErrNoPendingSetup, got %v", err)
	}

	if err := service.BeginSetup("chat-1"); err != nil {
		t.Fatalf("begin setup: %v", err)
	}
	if err := service.StartQuiz(context.Background(), "chat-1", 1); !errors.Is(err, domain.ErrMissingCategory) {
		t.Fatalf("expected ErrMissingCategory, got %v", err)
	}
	// The failed setup is torn down, so the chat can start over.
	if err := service.BeginSetup("chat-1"); err != nil {
		t.Fatalf("setup after missing category: %v", err)
	}
}

func TestInsufficientQuestionsAbortSetup(t *testing.T) {
	service, _ := newTestService(&chatRecorder{}, trivia(), slowTimings())

	if err := service.BeginSetup("chat-1"); err != nil {
		t.Fatalf("begin setup: %v", err)
	}
	if err := service.SelectCategory("chat-1", "Trivia"); err != nil {
		t.Fatalf("select category: %v", err)
	}
	err := service.StartQuiz(context.Background(), "chat-1", 3)
	if !errors.Is(err, domain.ErrInsufficientQuestions) {
		t.Fatalf("expected ErrInsufficientQuestions, got %v", err)
	}

	if err := service.BeginSetup("chat-1"); err != nil {
		t.Fatalf("setup after aborted quiz: %v", err)
	}
}

func TestWinnerFlushedToLedger(t *testing.T) {
	recorder := &chatRecorder{}
	service, scores := newTestService(recorder, trivia(), slowTimings())
	startQuiz(t, service, 1)

	alice := domain.User{ID: "u1", Username: "alice"}

	// Wrong guess is ignored silently, the game stays open.
	service.HandleMessage("chat-1", alice, "FOUR")
	if recorder.contains("got it right") {
		t.Fatalf("wrong answer scored: %v", recorder.snapshot())
	}

	// Padded correct answer matches after trimming.
	service.HandleMessage("chat-1", alice, " 4 ")

	if !recorder.contains("@alice got it right") {
		t.Fatalf("expected announcement, got %v", recorder.snapshot())
	}
	if !recorder.contains("@alice: 5 points") {
		t.Fatalf("expected final scoreboard, got %v", recorder.snapshot())
	}

	rows, err := scores.TopByTotalScore(context.Background(), "chat-1", 5)
	if err != nil {
		t.Fatalf("top by score: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected one ledger row, got %d", len(rows))
	}
	if rows[0].TotalScore != 5 || rows[0].Wins != 1 || rows[0].GamesPlayed != 1 {
		t.Fatalf("unexpected ledger row: %+v", rows[0])
	}

	// Session is gone; a new quiz can start.
	if err := service.BeginSetup("chat-1"); err != nil {
		t.Fatalf("setup after finished game: %v", err)
	}
}

func TestTimeoutEndsGameWithoutScores(t *testing.T) {
	recorder := &chatRecorder{}
	service, scores := newTestService(recorder, trivia(), app.Timings{
		HintInterval:  5 * time.Millisecond,
		AnswerTimeout: 25 * time.Millisecond,
	})
	startQuiz(t, service, 1)

	waitFor(t, "timeout message", func() bool {
		return recorder.contains("Time's up! The correct answer was: 4")
	})
	waitFor(t, "no-score summary", func() bool {
		return recorder.contains("No one scored any points!")
	})

	rows, err := scores.TopByTotalScore(context.Background(), "chat-1", 5)
	if err != nil {
		t.Fatalf("top by score: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("timeout game must not write the ledger: %+v", rows)
	}
}

func TestLeaderboardSections(t *testing.T) {
	recorder := &chatRecorder{}
	service, scores := newTestService(recorder, trivia(), slowTimings())

	seed := []domain.GameResult{
		{User: domain.User{ID: "u1", Username: "alice"}, ChatID: "chat-1", Points: 8, Winner: true},
		{User: domain.User{ID: "u2", Username: "bob"}, ChatID: "chat-1", Points: 3, Winner: false},
		{User: domain.User{ID: "u2", Username: "bob"}, ChatID: "chat-1", Points: 6, Winner: true},
	}
	for _, r := range seed {
		if err := scores.RecordGameResult(context.Background(), r); err != nil {
			t.Fatalf("seed ledger: %v", err)
		}
	}

	if err := service.Leaderboard(context.Background(), "chat-1"); err != nil {
		t.Fatalf("leaderboard: %v", err)
	}

	for _, want := range []string{
		"All-time points:",
		"1. @bob: 9 pts",
		"2. @alice: 8 pts",
		"Most wins:",
		"Most games played:",
		"1. @bob: 2 games",
	} {
		if !recorder.contains(want) {
			t.Fatalf("leaderboard missing %q: %v", want, recorder.snapshot())
		}
	}
}

func TestLeaderboardEmpty(t *testing.T) {
	recorder := &chatRecorder{}
	service, _ := newTestService(recorder, trivia(), slowTimings())

	if err := service.Leaderboard(context.Background(), "chat-1"); err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if !recorder.contains("No leaderboard data yet") {
		t.Fatalf("expected empty-leaderboard message, got %v", recorder.snapshot())
	}
}
