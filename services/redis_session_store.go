package services

import (
	"context"
	"encoding/json"
	"time"

	"symptomwise-backend/models"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const redisSessionPrefix = "symptomwise:session:"

// RedisSessionStore shares guest sessions between server instances. Records
// expire with the key TTL, refreshed on every save.
type RedisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSessionStore(client *redis.Client, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{client: client, ttl: ttl}
}

func (r *RedisSessionStore) key(identity string) string {
	return redisSessionPrefix + identity
}

func (r *RedisSessionStore) Get(ctx context.Context, identity string) (*models.Session, error) {
	data, err := r.client.Get(ctx, r.key(identity)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "redis get session %s", identity)
	}

	var s models.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, errors.Wrap(ErrSessionCorrupt, err.Error())
	}
	if s.Expired(r.ttl, time.Now()) {
		return nil, ErrSessionNotFound
	}
	return &s, nil
}

func (r *RedisSessionStore) Save(ctx context.Context, session *models.Session, expectedVersion int64) error {
	key := r.key(session.Identity)
	next := session.Clone()
	next.Version = expectedVersion + 1

	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := r.storedVersion(ctx, tx, key)
		if err != nil {
			return err
		}
		if current != expectedVersion {
			return ErrSessionConflict
		}

		data, err := json.Marshal(next)
		if err != nil {
			return errors.Wrap(err, "marshal session")
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, r.ttl)
			return nil
		})
		return err
	}, key)

	switch {
	case errors.Is(err, redis.TxFailedErr):
		return ErrSessionConflict
	case errors.Is(err, ErrSessionConflict):
		return err
	case err != nil:
		return errors.Wrapf(err, "redis save session %s", session.Identity)
	}
	session.Version = next.Version
	return nil
}

// storedVersion reads the version of the watched record. Undecodable or
// expired records count as absent so a fresh session can replace them.
func (r *RedisSessionStore) storedVersion(ctx context.Context, tx *redis.Tx, key string) (int64, error) {
	data, err := tx.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	var stored models.Session
	if json.Unmarshal(data, &stored) != nil || stored.Expired(r.ttl, time.Now()) {
		return 0, nil
	}
	return stored.Version, nil
}

func (r *RedisSessionStore) Delete(ctx context.Context, identity string) error {
	return errors.Wrap(r.client.Del(ctx, r.key(identity)).Err(), "redis delete session")
}

func (r *RedisSessionStore) Count(ctx context.Context) (int64, error) {
	var (
		cursor uint64
		n      int64
	)
	for {
		keys, next, err := r.client.Scan(ctx, cursor, redisSessionPrefix+"*", 100).Result()
		if err != nil {
			return 0, errors.Wrap(err, "redis scan sessions")
		}
		n += int64(len(keys))
		if next == 0 {
			return n, nil
		}
		cursor = next
	}
}
