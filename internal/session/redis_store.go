package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/minibus-booking/internal/booking"
)

// RedisStore keeps sessions as JSON strings under "<prefix>:<id>" with a
// sliding TTL.
type RedisStore struct {
	rdb     *redis.Client
	ttl     time.Duration
	lockTTL time.Duration
	prefix  string
}

// DefaultLockTTL bounds how long one Update may hold a session.
const DefaultLockTTL = 15 * time.Second

// NewRedisStore returns a RedisStore.  An empty prefix defaults to
// "session".
func NewRedisStore(rdb *redis.Client, ttl time.Duration, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "session"
	}
	return &RedisStore{rdb: rdb, ttl: ttl, lockTTL: DefaultLockTTL, prefix: prefix}
}

// WithLockTTL sets how long Update may hold a session before the lock
// expires.  Non-positive values are ignored.
func (r *RedisStore) WithLockTTL(d time.Duration) *RedisStore {
	if d > 0 {
		r.lockTTL = d
	}
	return r
}

// LockTTL reports the lock lifetime used by Update.
func (r *RedisStore) LockTTL() time.Duration { return r.lockTTL }

func (r *RedisStore) key(id string) string { return r.prefix + ":" + id }

func (r *RedisStore) Create(ctx context.Context, s *booking.Session) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	ok, err := r.rdb.SetNX(ctx, r.key(s.ID), b, r.ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("session %s already exists", s.ID)
	}
	return nil
}

func (r *RedisStore) Get(ctx context.Context, id string) (*booking.Session, error) {
	return r.get(ctx, id)
}

func (r *RedisStore) get(ctx context.Context, id string) (*booking.Session, error) {
	b, err := r.rdb.Get(ctx, r.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var s booking.Session
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	return &s, nil
}

// unlock deletes KEYS[1] only while it still holds ARGV[1].
var unlock = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
    return redis.call('DEL', KEYS[1])
end
return 0
`)

// writeBack stores ARGV[2] under KEYS[1] for ARGV[3] milliseconds, but only
// (none when not positive) while the lock KEYS[2] still holds ARGV[1] and
// the session still exists.
// It returns 1 on write, 0 when the session is gone and -1 when the lock
// was lost.
var writeBack = redis.NewScript(`
if redis.call('GET', KEYS[2]) ~= ARGV[1] then
    return -1
end
if redis.call('EXISTS', KEYS[1]) == 0 then
    return 0
end
if tonumber(ARGV[3]) > 0 then
    redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
else
    redis.call('SET', KEYS[1], ARGV[2])
end
return 1
`)

// ErrLockExpired is returned by Update when fn outlived the session lock.
// fn's effects on other systems stand; the session itself is not written.
var ErrLockExpired = fmt.Errorf("session lock expired: %w", ErrBusy)

// Update holds a per-session lock for the duration of fn, so fn may call
// out to other systems (such as the booking database) without a second
// request for the same session running alongside it.  A request that finds
// the lock taken gets ErrBusy.  The lock lives for LockTTL and is not
// renewed, so fn must finish within it; callers bound their own work with
// a shorter timeout.  A session deleted while fn runs stays deleted and
// Update returns ErrNotFound.
func (r *RedisStore) Update(ctx context.Context, id string, fn func(*booking.Session) error) (*booking.Session, error) {
	key := r.key(id)
	lockKey := key + ":lock"
	token := uuid.NewString()
	ok, err := r.rdb.SetNX(ctx, lockKey, token, r.lockTTL).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrBusy
	}
	defer func() {
		_ = unlock.Run(context.WithoutCancel(ctx), r.rdb, []string{lockKey}, token).Err()
	}()

	s, err := r.get(ctx, id)
	if err != nil {
		return nil, err
	}
	fnErr := fn(s)
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	res, err := writeBack.Run(ctx, r.rdb, []string{key, lockKey}, token, b, r.ttl.Milliseconds()).Int()
	if err != nil {
		return nil, err
	}
	switch res {
	case 0:
		return nil, ErrNotFound
	case -1:
		return nil, ErrLockExpired
	}
	return s, fnErr
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	return r.rdb.Del(ctx, r.key(id)).Err()
}
