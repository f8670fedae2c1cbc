package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/music-school-api/internal/dto"
)

const intentKeyPrefix = "enrollment:intent:"

// IntentStore persists suspended enrollments between the two enrollment calls.
type IntentStore interface {
	Save(ctx context.Context, intent dto.EnrollmentIntent, ttl time.Duration) error
	Take(ctx context.Context, token string) (*dto.EnrollmentIntent, bool, error)
}

// NewIntentStore uses Redis when a client is given and process memory otherwise.
func NewIntentStore(client redis.Cmdable) IntentStore {
	if client == nil {
		return NewMemoryIntentRepository()
	}
	return NewRedisIntentRepository(client)
}

// RedisIntentRepository keeps suspended enrollments in Redis with a TTL.
type RedisIntentRepository struct {
	client redis.Cmdable
}

// NewRedisIntentRepository constructs the repository.
func NewRedisIntentRepository(client redis.Cmdable) *RedisIntentRepository {
	return &RedisIntentRepository{client: client}
}

// Save stores the intent until ttl elapses.
func (r *RedisIntentRepository) Save(ctx context.Context, intent dto.EnrollmentIntent, ttl time.Duration) error {
	payload, err := json.Marshal(intent)
	if err != nil {
		return fmt.Errorf("marshal enrollment intent: %w", err)
	}
	if err := r.client.Set(ctx, intentKeyPrefix+intent.Token, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis save intent: %w", err)
	}
	return nil
}

// Take atomically reads and removes the intent. ok is false when it is unknown or expired.
func (r *RedisIntentRepository) Take(ctx context.Context, token string) (*dto.EnrollmentIntent, bool, error) {
	raw, err := r.client.GetDel(ctx, intentKeyPrefix+token).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis take intent: %w", err)
	}
	var intent dto.EnrollmentIntent
	if err := json.Unmarshal(raw, &intent); err != nil {
		return nil, false, fmt.Errorf("decode enrollment intent: %w", err)
	}
	return &intent, true, nil
}

// MemoryIntentRepository is the in-process fallback used when Redis is disabled.
type MemoryIntentRepository struct {
	mu    sync.Mutex
	items map[string]dto.EnrollmentIntent
	now   func() time.Time
}

// NewMemoryIntentRepository constructs an empty store.
func NewMemoryIntentRepository() *MemoryIntentRepository {
	return &MemoryIntentRepository{items: make(map[string]dto.EnrollmentIntent), now: time.Now}
}

// Save stores the intent; expired entries are swept on every write.
func (r *MemoryIntentRepository) Save(_ context.Context, intent dto.EnrollmentIntent, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	for token, item := range r.items {
		if !now.Before(item.ExpiresAt) {
			delete(r.items, token)
		}
	}
	if intent.ExpiresAt.IsZero() {
		intent.ExpiresAt = now.Add(ttl)
	}
	r.items[intent.Token] = intent
	return nil
}

// Take removes and returns the intent when it has not expired.
func (r *MemoryIntentRepository) Take(_ context.Context, token string) (*dto.EnrollmentIntent, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	intent, ok := r.items[token]
	if !ok {
		return nil, false, nil
	}
	delete(r.items, token)
	if !r.now().Before(intent.ExpiresAt) {
		return nil, false, nil
	}
	return &intent, true, nil
}
