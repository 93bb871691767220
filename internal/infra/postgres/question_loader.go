package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"quizbot/internal/domain"
)

// QuestionLoader reads the question bank from the questions table.
type QuestionLoader struct {
	pool *pgxpool.Pool
}

func NewQuestionLoader(pool *pgxpool.Pool) *QuestionLoader {
	return &QuestionLoader{pool: pool}
}

func (l *QuestionLoader) LoadPool(ctx context.Context) ([]domain.Question, error) {
	rows, err := l.pool.Query(ctx, `SELECT question, answer, category FROM questions`)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	var pool []domain.Question
	for rows.Next() {
		var q domain.Question
		if err := rows.Scan(&q.Text, &q.Answer, &q.Category); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		pool = append(pool, q)
	}
	return pool, rows.Err()
}
