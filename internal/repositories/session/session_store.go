package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/campus-hq/academics-service/internal/repositories"
)

const keyPrefix = "quiz_session:"

// RedisSessionStore keeps anonymous quiz session tokens in Redis with a TTL.
// Expiry is enforced by Redis itself: a token that has expired simply no
// longer resolves, so abandoned sittings under it become unreachable.
type RedisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSessionStore(client *redis.Client, ttl time.Duration) *RedisSessionStore {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &RedisSessionStore{client: client, ttl: ttl}
}

func (s *RedisSessionStore) Create(ctx context.Context) (*repositories.Session, error) {
	if s.client == nil {
		return nil, fmt.Errorf("session store not available")
	}

	now := time.Now()
	sess := &repositories.Session{
		Token:     uuid.New().String(),
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := s.client.Set(ctx, keyPrefix+sess.Token, data, s.ttl).Err(); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	return sess, nil
}

func (s *RedisSessionStore) Get(ctx context.Context, token string) (*repositories.Session, error) {
	if s.client == nil {
		return nil, repositories.ErrSessionNotFound
	}

	data, err := s.client.Get(ctx, keyPrefix+token).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, repositories.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var sess repositories.Session
	if err := json.Unmarshal([]byte(data), &sess); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	return &sess, nil
}

// Touch extends the token's TTL so active takers are not cut off mid-quiz.
func (s *RedisSessionStore) Touch(ctx context.Context, token string) error {
	if s.client == nil {
		return repositories.ErrSessionNotFound
	}

	ok, err := s.client.Expire(ctx, keyPrefix+token, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to touch session: %w", err)
	}
	if !ok {
		return repositories.ErrSessionNotFound
	}
	return nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, token string) error {
	if s.client == nil {
		return nil
	}
	return s.client.Del(ctx, keyPrefix+token).Err()
}
