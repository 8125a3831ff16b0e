package handshake

import (
	"context"
	"encoding/json"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps pending handshakes in Redis so every instance in the
// fleet shares the same view. Expiry is delegated to the key TTL.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a Redis-backed handshake store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: "handshake:",
	}
}

func (r *RedisStore) key(token string) string {
	return r.prefix + token
}

func (r *RedisStore) Put(ctx context.Context, h Handshake) error {
	if h.Token == "" {
		return errors.New("missing handshake token", errors.CategoryBadInput).
			WithCode(errors.CodeBadRequest)
	}

	ttl := time.Until(h.ExpiresAt)
	if ttl <= 0 {
		return ErrHandshakeExpired
	}

	data, err := json.Marshal(h)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to marshal handshake").
			WithCode(errors.CodeInternal)
	}

	if err := r.client.Set(ctx, r.key(h.Token), data, ttl).Err(); err != nil {
		return errors.Wrap(err, ErrStoreUnavailable.Category, ErrStoreUnavailable.Message).
			WithTextCode(ErrStoreUnavailable.TextCode)
	}

	return nil
}

func (r *RedisStore) Get(ctx context.Context, token string) (*Handshake, error) {
	val, err := r.client.Get(ctx, r.key(token)).Result()
	if err == redis.Nil {
		return nil, ErrHandshakeExpired
	}
	if err != nil {
		return nil, errors.Wrap(err, ErrStoreUnavailable.Category, ErrStoreUnavailable.Message).
			WithTextCode(ErrStoreUnavailable.TextCode)
	}

	var h Handshake
	if err := json.Unmarshal([]byte(val), &h); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to unmarshal handshake").
			WithCode(errors.CodeInternal)
	}

	// key TTL should have evicted it already, double check anyway
	if h.Expired(time.Now()) {
		_ = r.client.Del(ctx, r.key(token)).Err()
		return nil, ErrHandshakeExpired
	}

	return &h, nil
}

func (r *RedisStore) Delete(ctx context.Context, token string) error {
	if err := r.client.Del(ctx, r.key(token)).Err(); err != nil {
		return errors.Wrap(err, ErrStoreUnavailable.Category, ErrStoreUnavailable.Message).
			WithTextCode(ErrStoreUnavailable.TextCode)
	}
	return nil
}

var _ Store = (*RedisStore)(nil)
