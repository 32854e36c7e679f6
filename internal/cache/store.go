// Package cache keeps short lived read models, such as the last settled
// result of every game lane, in memory or in Redis.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

type Store interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// GetJSON decodes the value under key into dst.
func GetJSON(ctx context.Context, s Store, key string, dst any) (bool, error) {
	b, found, err := s.Get(ctx, key)
	if err != nil || !found {
		return false, err
	}

	err = json.Unmarshal(b, dst)
	if err != nil {
		return false, fmt.Errorf("decode cached %q: %w", key, err)
	}

	return true, nil
}

// SetJSON encodes v and stores it under key.
func SetJSON(ctx context.Context, s Store, key string, v any, ttl time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %q: %w", key, err)
	}

	return s.Set(ctx, key, b, ttl)
}
