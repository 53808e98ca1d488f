// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package credential

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore implements [Store] using Redis. The key has no TTL.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore creates a Redis-backed [Store] under [StorageKey].
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, key: StorageKey}
}

/*
Get retrieves the stored API key.

Returns:
  - string: The key
  - error: ErrNotStored or connectivity errors
*/
func (store *RedisStore) Get(ctx context.Context) (string, error) {
	value, err := store.client.Get(ctx, store.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNotStored
		}
		return "", fmt.Errorf("redis_credential_get_failed: %w", err)
	}
	return value, nil
}

// Set stores the API key without expiry.
func (store *RedisStore) Set(ctx context.Context, key string) error {
	if err := store.client.Set(ctx, store.key, key, 0).Err(); err != nil {
		return fmt.Errorf("redis_credential_set_failed: %w", err)
	}
	return nil
}

// Delete removes the stored API key.
func (store *RedisStore) Delete(ctx context.Context) error {
	if err := store.client.Del(ctx, store.key).Err(); err != nil {
		return fmt.Errorf("redis_credential_delete_failed: %w", err)
	}
	return nil
}
