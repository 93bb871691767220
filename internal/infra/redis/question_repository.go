package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"quizbot/internal/domain"
	"quizbot/internal/infra/memory"
)

const poolKey = "quiz:questions:pool"

// QuestionRepository caches the question pool in Redis as a JSON blob and
// falls back to a loader on cache miss, so multiple bot processes share one
// backing-store read per TTL window.
type QuestionRepository struct {
	client *redis.Client
	loader memory.PoolLoader
	ttl    time.Duration
	sf     singleflight.Group

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewQuestionRepository(client *redis.Client, loader memory.PoolLoader, ttl time.Duration) *QuestionRepository {
	return &QuestionRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Fetch returns count questions matching category, freshly shuffled.
func (r *QuestionRepository) Fetch(ctx context.Context, category string, count int) ([]domain.Question, error) {
	pool, err := r.getPool(ctx)
	if err != nil {
		return nil, err
	}

	candidates := memory.FilterByCategory(pool, category)
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
	if pool, ok := r.cachedPool(ctx); ok {
		return pool, nil
	}

	result, err, _ := r.sf.Do(poolKey, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if pool, ok := r.cachedPool(ctx); ok {
			return pool, nil
		}

		pool, err := r.loader.LoadPool(ctx)
		if err != nil {
			return nil, err
		}

		// A non-positive TTL disables caching; a SET with expiry 0 would
		// keep the pool forever.
		if r.ttl > 0 {
			data, err := json.Marshal(pool)
			if err != nil {
				return nil, err
			}
			// best-effort cache fill
			_ = r.client.Set(ctx, poolKey, data, r.ttlWithJitter()).Err()
		}

		return pool, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (r *QuestionRepository) cachedPool(ctx context.Context) ([]domain.Question, bool) {
	data, err := r.client.Get(ctx, poolKey).Bytes()
	if err != nil || len(data) == 0 {
		return nil, false
	}
	var pool []domain.Question
	if err := json.Unmarshal(data, &pool); err != nil {
		return nil, false
	}
	return pool, true
}

func (r *QuestionRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
