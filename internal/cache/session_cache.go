package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"surveyhub/internal/model"
)

// ErrLocked is returned when another request holds the session's submit lock.
var ErrLocked = errors.New("session is locked")

const submitLockTTL = 30 * time.Second

// releaseLock deletes the lock only while it still holds the caller's token.
var releaseLock = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// SessionCache keeps take-session snapshots between requests
type SessionCache interface {
	Set(ctx context.Context, session *model.TakeSession) error
	Get(ctx context.Context, id string) (*model.TakeSession, error)
	Delete(ctx context.Context, id string) error
	// Lock takes the per-session lock. The returned func releases it unless
	// the lock expired and was taken by someone else in the meantime.
	Lock(ctx context.Context, id string) (func(), error)
}

type sessionCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSessionCache(client *redis.Client, ttl time.Duration) SessionCache {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &sessionCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *sessionCache) key(id string) string {
	return fmt.Sprintf("take:%s", id)
}

func (c *sessionCache) lockKey(id string) string {
	return fmt.Sprintf("take:%s:lock", id)
}

func (c *sessionCache) Set(ctx context.Context, session *model.TakeSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(session.ID), data, c.ttl).Err()
}

func (c *sessionCache) Get(ctx context.Context, id string) (*model.TakeSession, error) {
	data, err := c.client.Get(ctx, c.key(id)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var session model.TakeSession
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *sessionCache) Delete(ctx context.Context, id string) error {
	return c.client.Del(ctx, c.key(id)).Err()
}

func (c *sessionCache) Lock(ctx context.Context, id string) (func(), error) {
	token := uuid.New().String()
	ok, err := c.client.SetNX(ctx, c.lockKey(id), token, submitLockTTL).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLocked
	}
	return func() {
		releaseLock.Run(context.Background(), c.client, []string{c.lockKey(id)}, token)
	}, nil
}
