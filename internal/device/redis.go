package device

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// expiredRetention keeps an expired record around long enough that pollers
// still get a deterministic "expired" answer instead of "invalid code"
// after the Redis key would otherwise be evicted.
const expiredRetention = 10 * time.Minute

// RedisStore implements Store on Redis so multiple instances can share one
// session registry. Sessions are JSON under "<prefix>dc:<deviceCode>"; the
// active user-code index lives under "<prefix>uc:<userCode>" with a TTL
// matching the session deadline. The pending->terminal transition runs in
// a WATCH transaction, giving the same atomicity as the memory store's
// mutex.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a Redis-backed session store. Prefix may be empty.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "device:"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (r *RedisStore) sessionKey(deviceCode string) string { return r.prefix + "dc:" + deviceCode }
func (r *RedisStore) userKey(userCode string) string      { return r.prefix + "uc:" + userCode }

func (r *RedisStore) Create(ctx context.Context, s *Session) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	until := time.Until(s.ExpiresAt)
	if until <= 0 {
		until = time.Second
	}
	// claim the user code first; SetNX loses against any still-active holder
	ok, err := r.client.SetNX(ctx, r.userKey(s.UserCode), s.DeviceCode, until).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrUserCodeTaken
	}
	return r.client.Set(ctx, r.sessionKey(s.DeviceCode), b, until+expiredRetention).Err()
}

func (r *RedisStore) GetByDeviceCode(ctx context.Context, deviceCode string) (*Session, error) {
	b, err := r.client.Get(ctx, r.sessionKey(deviceCode)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	var s Session
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *RedisStore) GetActiveByUserCode(ctx context.Context, userCode string) (*Session, error) {
	dc, err := r.client.Get(ctx, r.userKey(userCode)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	s, err := r.GetByDeviceCode(ctx, dc)
	if err != nil || s == nil {
		return nil, err
	}
	if s.Status != StatusPending || s.ExpiredAt(time.Now().UTC()) {
		return nil, nil
	}
	return s, nil
}

func (r *RedisStore) Approve(ctx context.Context, deviceCode, email, tok string) error {
	return r.transition(ctx, deviceCode, func(s *Session) error {
		if s.Status == StatusApproved && s.Email == email && s.Token == tok {
			return nil
		}
		if s.terminal() || s.ExpiredAt(time.Now().UTC()) {
			return ErrConflict
		}
		s.Status = StatusApproved
		s.Email = email
		s.Token = tok
		return nil
	})
}

func (r *RedisStore) Deny(ctx context.Context, deviceCode string) error {
	return r.transition(ctx, deviceCode, func(s *Session) error {
		if s.terminal() || s.ExpiredAt(time.Now().UTC()) {
			return ErrConflict
		}
		s.Status = StatusDenied
		return nil
	})
}

// transition applies mutate to the stored session inside a WATCH
// transaction and retries on contention.
func (r *RedisStore) transition(ctx context.Context, deviceCode string, mutate func(*Session) error) error {
	key := r.sessionKey(deviceCode)
	txn := func(tx *redis.Tx) error {
		b, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if err == redis.Nil {
				return ErrConflict
			}
			return err
		}
		var s Session
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		before := s
		if err := mutate(&s); err != nil {
			return err
		}
		if s == before {
			// idempotent no-op, nothing to write
			return nil
		}
		nb, err := json.Marshal(&s)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, nb, redis.KeepTTL)
			pipe.Del(ctx, r.userKey(s.UserCode))
			return nil
		})
		return err
	}

	for i := 0; i < 5; i++ {
		err := r.client.Watch(ctx, txn, key)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return ErrConflict
}
