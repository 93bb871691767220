package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"quizbot/internal/domain"
)

type ledgerKey struct {
	userID string
	chatID string
}

// ScoreStore is an in-memory score ledger, used when no database is
// configured and in tests. Upsert semantics match the postgres store.
type ScoreStore struct {
	clock func() time.Time

	mu   sync.RWMutex
	rows map[ledgerKey]*domain.ScoreRow
}

func NewScoreStore() *ScoreStore {
	return &ScoreStore{
		clock: time.Now,
		rows:  make(map[ledgerKey]*domain.ScoreRow),
	}
}

func (s *ScoreStore) RecordGameResult(_ context.Context, result domain.GameResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := ledgerKey{userID: result.User.ID, chatID: result.ChatID}
	row, ok := s.rows[key]
	if !ok {
		row = &domain.ScoreRow{UserID: result.User.ID, ChatID: result.ChatID}
		s.rows[key] = row
	}
	row.Username = result.User.Username
	row.FirstName = result.User.FirstName
	row.LastName = result.User.LastName
	row.TotalScore += result.Points
	row.GamesPlayed++
	if result.Winner {
		row.Wins++
	}
	row.LastUpdated = s.clock()
	return nil
}

func (s *ScoreStore) TopByTotalScore(_ context.Context, chatID string, limit int) ([]domain.ScoreRow, error) {
	return s.top(chatID, limit, func(r domain.ScoreRow) int { return r.TotalScore }), nil
}

func (s *ScoreStore) TopByWins(_ context.Context, chatID string, limit int) ([]domain.ScoreRow, error) {
	return s.top(chatID, limit, func(r domain.ScoreRow) int { return r.Wins }), nil
}

func (s *ScoreStore) TopByGamesPlayed(_ context.Context, chatID string, limit int) ([]domain.ScoreRow, error) {
	return s.top(chatID, limit, func(r domain.ScoreRow) int { return r.GamesPlayed }), nil
}

func (s *ScoreStore) top(chatID string, limit int, by func(domain.ScoreRow) int) []domain.ScoreRow {
	s.mu.RLock()
	rows := make([]domain.ScoreRow, 0, len(s.rows))
	for key, row := range s.rows {
		if key.chatID == chatID {
			rows = append(rows, *row)
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(rows, func(i, j int) bool {
		if by(rows[i]) != by(rows[j]) {
			return by(rows[i]) > by(rows[j])
		}
		return rows[i].UserID < rows[j].UserID
	})
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows
}
