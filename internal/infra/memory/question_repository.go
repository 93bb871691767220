package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"quizbot/internal/domain"
)

// PoolLoader fetches the full question pool from a backing store.
type PoolLoader interface {
	LoadPool(ctx context.Context) ([]domain.Question, error)
}

// QuestionRepository caches the question pool with TTL to avoid re-reading
// the backing store for every quiz, then serves category-filtered random
// samples from it.
type QuestionRepository struct {
	loader PoolLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu        sync.RWMutex
	pool      []domain.Question
	expiresAt time.Time
}

func NewQuestionRepository(loader PoolLoader, ttl time.Duration) *QuestionRepository {
	return &QuestionRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Fetch returns count questions matching category, freshly shuffled.
// Category "All" is unfiltered.
func (r *QuestionRepository) Fetch(ctx context.Context, category string, count int) ([]domain.Question, error) {
	pool, err := r.getPool(ctx)
	if err != nil {
		return nil, err
	}

	candidates := FilterByCategory(pool, category)
	if len(candidates) < count {
		return nil, domain.ErrInsufficientQuestions
	}

	r.mu.Lock()
	picks := r.rnd.Perm(len(candidates))[:count]
	r.mu.Unlock()

	selected := make([]domain.Question, 0, count)
	for _, i := range picks {
		selected = append(selected, candidates[i])
	}
	return selected, nil
}

func (r *QuestionRepository) getPool(ctx context.Context) ([]domain.Question, error) {
	now := r.clock()

	r.mu.RLock()
	if r.pool != nil && r.expiresAt.After(now) {
		pool := r.pool
		r.mu.RUnlock()
		return pool, nil
	}
	r.mu.RUnlock()

	result, err, _ := r.sf.Do("pool", func() (interface{}, error) {
		now := r.clock()
		r.mu.RLock()
		if r.pool != nil && r.expiresAt.After(now) {
			pool := r.pool
			r.mu.RUnlock()
			return pool, nil
		}
		r.mu.RUnlock()

		pool, err := r.loader.LoadPool(ctx)
		if err != nil {
			return nil, err
		}

		ttl := r.ttlWithJitter()

		r.mu.Lock()
		r.pool = pool
		r.expiresAt = now.Add(ttl)
		r.mu.Unlock()
		return pool, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (r *QuestionRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

// FilterByCategory keeps only matching questions; "All" and the empty string
// match everything. Matching is case-insensitive.
func FilterByCategory(pool []domain.Question, category string) []domain.Question {
	if category == "" || strings.EqualFold(category, domain.CategoryAll) {
		return pool
	}
	filtered := make([]domain.Question, 0, len(pool))
	for _, q := range pool {
		if strings.EqualFold(q.Category, category) {
			filtered = append(filtered, q)
		}
	}
	return filtered
}

// StaticPoolLoader serves a fixed slice (useful for tests/demos).
type StaticPoolLoader struct {
	pool []domain.Question
}

func NewStaticPoolLoader(pool []domain.Question) *StaticPoolLoader {
	return &StaticPoolLoader{pool: pool}
}

func (l *StaticPoolLoader) LoadPool(_ context.Context) ([]domain.Question, error) {
	return l.pool, nil
}

// FilePoolLoader reads the question bank from a JSON file
// ([{question, answer, category}, ...]).
type FilePoolLoader struct {
	path string
}

func NewFilePoolLoader(path string) *FilePoolLoader {
	return &FilePoolLoader{path: path}
}

func (l *FilePoolLoader) LoadPool(_ context.Context) ([]domain.Question, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("read question bank: %w", err)
	}
	var pool []domain.Question
	if err := json.Unmarshal(data, &pool); err != nil {
		return nil, fmt.Errorf("parse question bank %s: %w", l.path, err)
	}
	return pool, nil
}
