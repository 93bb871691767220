package app

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"quizbot/internal/domain"
)

// QuestionSource supplies the question pool for a new session. Fetch returns
// domain.ErrInsufficientQuestions when the category cannot cover count.
type QuestionSource interface {
	Fetch(ctx context.Context, category string, count int) ([]domain.Question, error)
}

// ScoreStore is the durable cross-session ledger.
type ScoreStore interface {
	RecordGameResult(ctx context.Context, result domain.GameResult) error
	TopByTotalScore(ctx context.Context, chatID string, limit int) ([]domain.ScoreRow, error)
	TopByWins(ctx context.Context, chatID string, limit int) ([]domain.ScoreRow, error)
	TopByGamesPlayed(ctx context.Context, chatID string, limit int) ([]domain.ScoreRow, error)
}

// Messenger delivers bot messages into a chat. Send must not block; slow
// consumers are the transport's problem.
type Messenger interface {
	Send(chatID, text string)
}

const leaderboardLimit = 5

// Config wires the quiz service's collaborators. Timings defaults to
// DefaultTimings when zero.
type Config struct {
	Questions QuestionSource
	Scores    ScoreStore
	Messenger Messenger
	Scheduler Scheduler
	Timings   Timings
}

// QuizService drives quiz setup, the per-chat session machines, and the
// all-time leaderboard.
type QuizService struct {
	registry  *SessionRegistry
	questions QuestionSource
	scores    ScoreStore
	messenger Messenger
	scheduler Scheduler
	timings   Timings
}

func NewQuizService(c Config) *QuizService {
	timings := c.Timings
	if timings.HintInterval <= 0 || timings.AnswerTimeout <= 0 {
		timings = DefaultTimings()
	}
	return &QuizService{
		registry:  NewSessionRegistry(),
		questions: c.Questions,
		scores:    c.Scores,
		messenger: c.Messenger,
		scheduler: c.Scheduler,
		timings:   timings,
	}
}

// BeginSetup claims the chat's quiz slot ahead of category selection.
func (s *QuizService) BeginSetup(chatID string) error {
	if !s.registry.TryBeginSetup(chatID) {
		return domain.ErrQuizInProgress
	}
	return nil
}

// SelectCategory records the category on the pending setup.
func (s *QuizService) SelectCategory(chatID, category string) error {
	if !s.registry.SetCategory(chatID, category) {
		return domain.ErrNoPendingSetup
	}
	return nil
}

// StartQuiz completes setup: it fetches questions for the pending category
// and installs the running session. Setup is torn down on any failure so the
// chat can start over.
func (s *QuizService) StartQuiz(ctx context.Context, chatID string, rounds int) error {
	category, ok := s.registry.PendingCategory(chatID)
	if !ok || category == "" {
		s.registry.Abort(chatID)
		return domain.ErrMissingCategory
	}
	if rounds < 1 {
		s.registry.Abort(chatID)
		return fmt.Errorf("round count must be positive, got %d", rounds)
	}

	questions, err := s.questions.Fetch(ctx, category, rounds)
	if err != nil {
		s.registry.Abort(chatID)
		return err
	}

	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
	session := newSession(chatID, category, questions, s.scheduler, s.messenger, s.timings, rnd, s.finishSession)
	s.registry.Commit(chatID, session)
	session.start()
	return nil
}

// HandleMessage feeds a chat message into the chat's session as an answer
// attempt. Messages for chats without a live session are ignored.
func (s *QuizService) HandleMessage(chatID string, user domain.User, text string) {
	session, ok := s.registry.Get(chatID)
	if !ok {
		return
	}
	session.submitAnswer(user, text)
}

// finishSession runs once per session, after the session released its lock:
// registry removal, ledger flush, and the final scoreboard message.
func (s *QuizService) finishSession(chatID string, standings []standing) {
	s.registry.Remove(chatID)

	if len(standings) == 0 {
		s.messenger.Send(chatID, "Quiz ended. No one scored any points!")
		return
	}

	topScore := standings[0].Points
	lines := make([]string, 0, len(standings))
	for _, st := range standings {
		winner := st.Points == topScore
		prefix := "\U0001F3C5" // medal
		if winner {
			prefix = "\U0001F3C6" // trophy
		}
		lines = append(lines, fmt.Sprintf("%s %s: %d %s", prefix, st.User.Mention(), st.Points, pluralPoints(st.Points)))

		// Ledger writes are best-effort: a failed upsert must not block the
		// in-chat announcement.
		err := s.scores.RecordGameResult(context.Background(), domain.GameResult{
			User:   st.User,
			ChatID: chatID,
			Points: st.Points,
			Winner: winner,
		})
		if err != nil {
			log.Printf("record game result for %s in %s: %v", st.User.ID, chatID, err)
		}
	}

	s.messenger.Send(chatID, "Quiz complete!\n\n"+strings.Join(lines, "\n")+"\n\nCheck /leaderboard for all-time stats!")
}

// Leaderboard sends the chat's all-time standings: top points, most wins,
// most games played.
func (s *QuizService) Leaderboard(ctx context.Context, chatID string) error {
	byScore, err := s.scores.TopByTotalScore(ctx, chatID, leaderboardLimit)
	if err != nil {
		return fmt.Errorf("top by score: %w", err)
	}
	if len(byScore) == 0 {
		s.messenger.Send(chatID, "No leaderboard data yet! Play a quiz to get started.")
		return nil
	}
	byWins, err := s.scores.TopByWins(ctx, chatID, leaderboardLimit)
	if err != nil {
		return fmt.Errorf("top by wins: %w", err)
	}
	byGames, err := s.scores.TopByGamesPlayed(ctx, chatID, leaderboardLimit)
	if err != nil {
		return fmt.Errorf("top by games: %w", err)
	}

	var b strings.Builder
	b.WriteString("Quiz Leaderboard\n\nAll-time points:\n")
	for i, row := range byScore {
		fmt.Fprintf(&b, "%d. %s: %d pts\n", i+1, rowMention(row), row.TotalScore)
	}
	b.WriteString("\nMost wins:\n")
	for i, row := range byWins {
		fmt.Fprintf(&b, "%d. %s: %d wins\n", i+1, rowMention(row), row.Wins)
	}
	b.WriteString("\nMost games played:\n")
	for i, row := range byGames {
		fmt.Fprintf(&b, "%d. %s: %d games\n", i+1, rowMention(row), row.GamesPlayed)
	}

	s.messenger.Send(chatID, strings.TrimRight(b.String(), "\n"))
	return nil
}

func rowMention(row domain.ScoreRow) string {
	u := domain.User{Username: row.Username, FirstName: row.FirstName, LastName: row.LastName}
	return u.Mention()
}

func pluralPoints(n int) string {
	if n == 1 {
		return "point"
	}
	return "points"
}
