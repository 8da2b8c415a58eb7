package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/soyeahso/shopdesk/internal/config"
	"github.com/soyeahso/shopdesk/internal/domain"
)

// DefaultKeyPrefix namespaces session keys in a shared redis.
const DefaultKeyPrefix = "shopdesk:session:"

// NewRedisClient dials redis from cfg and verifies the connection.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	if cfg.ReadTimeout > 0 {
		opts.ReadTimeout = time.Duration(cfg.ReadTimeout) * time.Second
	}
	if cfg.WriteTimeout > 0 {
		opts.WriteTimeout = time.Duration(cfg.WriteTimeout) * time.Second
	}
	if cfg.DialTimeout > 0 {
		opts.DialTimeout = time.Duration(cfg.DialTimeout) * time.Second
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: ping redis: %v", ErrUnavailable, err)
	}
	return client, nil
}

// RedisStore keeps each session as a JSON string whose expiry is refreshed
// on every write, so idle sessions age out without a sweeper.
type RedisStore struct {
	rdb    redis.Cmdable
	ttl    time.Duration
	prefix string
	now    func() time.Time
}

// NewRedisStore creates a store over rdb. A ttl of zero keeps sessions forever.
func NewRedisStore(rdb redis.Cmdable, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &RedisStore{rdb: rdb, ttl: ttl, prefix: prefix, now: time.Now}
}

func (r *RedisStore) key(userID string) string {
	return r.prefix + userID
}

// Get loads the user's session, or a new Idle one when the key is absent.
func (r *RedisStore) Get(ctx context.Context, userID string) (domain.Session, error) {
	raw, err := r.rdb.Get(ctx, r.key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.NewSession(userID), nil
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("%w: get %s: %v", ErrUnavailable, userID, err)
	}

	var s domain.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return domain.Session{}, fmt.Errorf("decoding session %s: %w", userID, err)
	}
	s.UserID = userID
	if s.Fields == nil {
		s.Fields = map[string]string{}
	}
	return s, nil
}

// Set writes the session and refreshes its expiry.
func (r *RedisStore) Set(ctx context.Context, s domain.Session) error {
	s.UpdatedAt = r.now()
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding session %s: %w", s.UserID, err)
	}
	if err := r.rdb.Set(ctx, r.key(s.UserID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("%w: set %s: %v", ErrUnavailable, s.UserID, err)
	}
	return nil
}

// Delete removes the user's session.
func (r *RedisStore) Delete(ctx context.Context, userID string) error {
	if err := r.rdb.Del(ctx, r.key(userID)).Err(); err != nil {
		return fmt.Errorf("%w: delete %s: %v", ErrUnavailable, userID, err)
	}
	return nil
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*RedisStore)(nil)
)
