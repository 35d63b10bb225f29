package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"goyfeed/internal/middleware"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

var group singleflight.Group

// GetJSON reads key into dest. It returns (false, nil) on a miss or when
// caching is disabled.
func GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	if client == nil {
		return false, nil
	}
	s, err := client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(s), dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON marshals v and stores it under key with ttl.
func SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	if client == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return client.Set(ctx, key, b, ttl).Err()
}

// Aside reads key into dest, or on a miss runs fetch (which must populate
// dest) and stores the result. Concurrent misses for the same key share one
// fetch; callers that did not run it decode their own copy of the result, so
// no two callers share memory. Cache failures never fail the call; the source
// is authoritative.
func Aside(ctx context.Context, key string, dest any, ttl time.Duration, fetch func(ctx context.Context) error) error {
	found, err := GetJSON(ctx, key, dest)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "cache read failed", slog.String("key", key), slog.String("error", err.Error()))
	}
	if found {
		return nil
	}
	if client == nil {
		return fetch(ctx)
	}

	ran := false
	v, err, _ := group.Do(key, func() (interface{}, error) {
		ran = true
		// Followers wait on this fetch; one caller going away must not fail them.
		fetchCtx := context.WithoutCancel(ctx)
		if err := fetch(fetchCtx); err != nil {
			return nil, err
		}
		b, err := json.Marshal(dest)
		if err != nil {
			return nil, err
		}
		if err := client.Set(fetchCtx, key, b, ttl).Err(); err != nil {
			middleware.Logger.WarnContext(ctx, "cache write failed", slog.String("key", key), slog.String("error", err.Error()))
		}
		return b, nil
	})
	if err != nil {
		return err
	}
	if ran {
		return nil
	}
	return json.Unmarshal(v.([]byte), dest)
}
