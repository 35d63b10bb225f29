package graph

import (
	"context"
	"errors"
	"testing"
	"time"

	"goyfeed/internal/middleware"
	"goyfeed/internal/models"

	"github.com/alicebob/miniredis/v2"
	graphql "github.com/graph-gophers/graphql-go"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %#v", err)
	assert.Equal(t, code, appErr.Code)
}

func TestNewSchema_Parses(t *testing.T) {
	assert.NotPanics(t, func() {
		NewSchema(NewResolver(Services{}, nil), 10)
	})
}

func TestParseID(t *testing.T) {
	tests := []struct {
		in      graphql.ID
		want    uint
		wantErr bool
	}{
		{in: "42", want: 42},
		{in: "0", wantErr: true},
		{in: "-1", wantErr: true},
		{in: "abc", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(string(tt.in), func(t *testing.T) {
			got, err := parseID(tt.in, "postId")
			if tt.wantErr {
				assertCode(t, err, models.CodeInvalidArgument)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBeginMutation(t *testing.T) {
	anon := context.Background()
	authed := middleware.WithUserID(context.Background(), 7)

	t.Run("read-only context rejected", func(t *testing.T) {
		_, err := beginMutation(WithReadOnly(authed), true)
		assertCode(t, err, models.CodeInvalidArgument)
	})
	t.Run("anonymous needs viewer", func(t *testing.T) {
		_, err := beginMutation(anon, true)
		assertCode(t, err, models.CodeUnauthenticated)
	})
	t.Run("anonymous allowed", func(t *testing.T) {
		uid, err := beginMutation(anon, false)
		require.NoError(t, err)
		assert.Zero(t, uid)
	})
	t.Run("viewer resolved", func(t *testing.T) {
		uid, err := beginMutation(authed, true)
		require.NoError(t, err)
		assert.Equal(t, uint(7), uid)
	})
}

func TestFail(t *testing.T) {
	ctx := context.Background()

	conflict := models.NewConflictError("Post already liked", nil)
	assert.Same(t, conflict, fail(ctx, "likePost", conflict))

	err := fail(ctx, "getPosts", errors.New("pq: relation \"posts\" does not exist"))
	assertCode(t, err, models.CodeInternal)
	assert.NotContains(t, err.Error(), "relation")
}

func TestRateLimit(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	r := NewResolver(Services{}, rdb)
	r.limits = map[string]RateLimit{"login": {Limit: 2, Window: time.Minute}}
	ctx := middleware.WithUserID(context.Background(), 3)

	require.NoError(t, r.rateLimit(ctx, "login"))
	require.NoError(t, r.rateLimit(ctx, "login"))
	assertCode(t, r.rateLimit(ctx, "login"), models.CodeRateLimited)

	// Operations without a configured window are never limited.
	assert.NoError(t, r.rateLimit(ctx, "toggleLike"))

	// Another viewer has its own window.
	assert.NoError(t, r.rateLimit(middleware.WithUserID(context.Background(), 4), "login"))

	mr.FastForward(time.Minute + time.Second)
	assert.NoError(t, r.rateLimit(ctx, "login"))
}

func TestRateLimit_StoreFailurePolicy(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	mr.Close()

	for _, r := range []*Resolver{NewResolver(Services{}, nil), NewResolver(Services{}, rdb)} {
		ctx := context.Background()
		assert.NoError(t, r.rateLimit(ctx, "createPost"), "content limits fail open")
		assertCode(t, r.rateLimit(ctx, "signup"), models.CodeRateLimited)
		assertCode(t, r.rateLimit(ctx, "login"), models.CodeRateLimited)
	}
}

func TestSignup_RateLimitedBeforeService(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	r := NewResolver(Services{}, rdb)
	r.limits = map[string]RateLimit{"signup": {Limit: 0, Window: time.Minute}}

	_, err := r.Signup(context.Background(), struct {
		Username string
		Email    string
		Password string
		Name     *string
	}{Username: "alice", Email: "alice@example.com", Password: "Secret123"})
	assertCode(t, err, models.CodeRateLimited)
}
