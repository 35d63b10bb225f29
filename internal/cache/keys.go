package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"goyfeed/internal/middleware"
)

const (
	UserKeyPrefix         = "user:%d"
	PopularPostsKeyPrefix = "posts:popular:v%d:%d"
	popularPostsVersion   = "posts:popular:ver"
)

const (
	UserTTL         = 5 * time.Minute
	PopularPostsTTL = 30 * time.Second
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

// PopularPostsKey names the popular-post page for limit under the current
// generation. A fill that started before InvalidatePopularPosts lands on the
// previous generation's key, which no reader asks for again.
func PopularPostsKey(ctx context.Context, limit int) string {
	var ver int64
	if client != nil {
		v, err := client.Get(ctx, popularPostsVersion).Int64()
		if err == nil {
			ver = v
		}
	}
	return fmt.Sprintf(PopularPostsKeyPrefix, ver, limit)
}

// InvalidatePopularPosts starts a new generation of popular-post pages. It runs
// after any write that can change like counts or the set of posts; pages of
// older generations expire with their TTL.
func InvalidatePopularPosts(ctx context.Context) {
	if client == nil {
		return
	}
	if err := client.Incr(context.WithoutCancel(ctx), popularPostsVersion).Err(); err != nil {
		middleware.Logger.WarnContext(ctx, "popular posts invalidation failed", slog.String("error", err.Error()))
	}
}
