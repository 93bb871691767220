package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quizbot/internal/domain"
)

// ScoreStore persists the cumulative ledger in the scores table,
// keyed (user_id, chat_id).
type ScoreStore struct {
	pool *pgxpool.Pool
}

func NewScoreStore(pool *pgxpool.Pool) *ScoreStore {
	return &ScoreStore{pool: pool}
}

func (s *ScoreStore) RecordGameResult(ctx context.Context, result domain.GameResult) error {
	winInc := 0
	if result.Winner {
		winInc = 1
	}

	_, err := s.pool.Exec(ctx, `
INSERT INTO scores (user_id, chat_id, username, first_name, last_name, total_score, games_played, wins, last_updated)
VALUES ($1, $2, $3, $4, $5, $6, 1, $7, CURRENT_TIMESTAMP)
ON CONFLICT (user_id, chat_id) DO UPDATE
    SET username = EXCLUDED.username,
        first_name = EXCLUDED.first_name,
        last_name = EXCLUDED.last_name,
        total_score = scores.total_score + EXCLUDED.total_score,
        games_played = scores.games_played + 1,
        wins = scores.wins + EXCLUDED.wins,
        last_updated = CURRENT_TIMESTAMP`,
		result.User.ID, result.ChatID, result.User.Username, result.User.FirstName, result.User.LastName,
		result.Points, winInc)
	if err != nil {
		return fmt.Errorf("upsert score: %w", err)
	}
	return nil
}

func (s *ScoreStore) TopByTotalScore(ctx context.Context, chatID string, limit int) ([]domain.ScoreRow, error) {
	return s.top(ctx, chatID, limit, "total_score")
}

func (s *ScoreStore) TopByWins(ctx context.Context, chatID string, limit int) ([]domain.ScoreRow, error) {
	return s.top(ctx, chatID, limit, "wins")
}

func (s *ScoreStore) TopByGamesPlayed(ctx context.Context, chatID string, limit int) ([]domain.ScoreRow, error) {
	return s.top(ctx, chatID, limit, "games_played")
}

func (s *ScoreStore) top(ctx context.Context, chatID string, limit int, column string) ([]domain.ScoreRow, error) {
	// column comes from the three exported methods only, never from input.
	query := fmt.Sprintf(`
SELECT user_id, chat_id, username, first_name, last_name, total_score, games_played, wins, last_updated
FROM scores
WHERE chat_id = $1
ORDER BY %s DESC, user_id ASC
LIMIT $2`, column)

	rows, err := s.pool.Query(ctx, query, chatID, limit)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	defer rows.Close()

	return scanRows(rows)
}

func scanRows(rows pgx.Rows) ([]domain.ScoreRow, error) {
	var result []domain.ScoreRow
	for rows.Next() {
		var r domain.ScoreRow
		if err := rows.Scan(&r.UserID, &r.ChatID, &r.Username, &r.FirstName, &r.LastName,
			&r.TotalScore, &r.GamesPlayed, &r.Wins, &r.LastUpdated); err != nil {
			return nil, fmt.Errorf("scan score row: %w", err)
		}
		result = append(result, r)
	}
	return result, rows.Err()
}
