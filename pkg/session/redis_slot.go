package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisSlot keeps the session record in Redis, for kiosk installs where
// several terminals share one staff login. The record carries its own
// expiry, so no Redis TTL is set; expiry stays a client-side policy.
type RedisSlot struct {
	client *redis.Client
	key    string
}

// NewRedisSlot builds a Redis-backed slot.
func NewRedisSlot(addr, password string) *RedisSlot {
	return &RedisSlot{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
		}),
		key: StorageKey,
	}
}

func (r *RedisSlot) Load() (Session, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	val, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Session{}, false, nil
	}
	if err != nil {
		return Session{}, false, err
	}
	var s Session
	if err := json.Unmarshal(val, &s); err != nil {
		return Session{}, false, nil
	}
	return s, s.Token != "", nil
}

func (r *RedisSlot) Save(s Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	return r.client.Set(ctx, r.key, data, 0).Err()
}

func (r *RedisSlot) Clear() error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := r.client.Del(ctx, r.key).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}
