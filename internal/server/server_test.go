package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"goyfeed/internal/config"
	"goyfeed/internal/database"
	"goyfeed/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type gqlError struct {
	Message    string                 `json:"message"`
	Extensions map[string]interface{} `json:"extensions"`
}

type gqlResponse struct {
	Data       json.RawMessage        `json:"data"`
	Errors     []gqlError             `json:"errors"`
	Extensions map[string]interface{} `json:"extensions"`
}

func (r gqlResponse) code() string {
	if len(r.Errors) == 0 {
		return ""
	}
	code, _ := r.Errors[0].Extensions["code"].(string)
	return code
}

func testConfig() *config.Config {
	return &config.Config{
		Env:             "test",
		Port:            "0",
		JWTSecret:       "test-secret-key-12345678901234567890123456789012",
		JWTIssuer:       "goyfeed-api",
		JWTAudience:     "goyfeed-client",
		TokenTTLHours:   1,
		BcryptCost:      4,
		DBDriver:        "sqlite",
		GraphQLMaxDepth: 10,
		AllowedOrigins:  "http://localhost:5173",
	}
}

func setupTestApp(t *testing.T) *fiber.App {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), database.GormConfig())
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.Migrate(db))

	srv, err := NewServerWithDeps(testConfig(), db, nil)
	require.NoError(t, err)
	return srv.NewApp()
}

func doGraphQL(t *testing.T, app *fiber.App, token, query string, vars map[string]interface{}) gqlResponse {
	t.Helper()
	body, err := json.Marshal(map[string]interface{}{"query": query, "variables": vars})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/graphql", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out gqlResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func decodeData(t *testing.T, r gqlResponse, dest interface{}) {
	t.Helper()
	require.Empty(t, r.Errors)
	require.NoError(t, json.Unmarshal(r.Data, dest))
}

const signupMutation = `mutation($username: String!, $email: String!, $password: String!) {
	signup(username: $username, email: $email, password: $password) { token user { id username } }
}`

type account struct {
	ID    string
	Token string
}

func signup(t *testing.T, app *fiber.App, username string) account {
	t.Helper()
	resp := doGraphQL(t, app, "", signupMutation, map[string]interface{}{
		"username": username,
		"email":    username + "@example.com",
		"password": "Secret123",
	})
	var data struct {
		Signup struct {
			Token string
			User  struct{ ID, Username string }
		}
	}
	decodeData(t, resp, &data)
	require.NotEmpty(t, data.Signup.Token)
	assert.Equal(t, username, data.Signup.User.Username)
	return account{ID: data.Signup.User.ID, Token: data.Signup.Token}
}

func createPost(t *testing.T, app *fiber.App, token, content string) string {
	t.Helper()
	resp := doGraphQL(t, app, token, `mutation($c: String!) { createPost(content: $c) { id content author { username } } }`,
		map[string]interface{}{"c": content})
	var data struct {
		CreatePost struct{ ID, Content string }
	}
	decodeData(t, resp, &data)
	assert.Equal(t, content, data.CreatePost.Content)
	return data.CreatePost.ID
}

type postView struct {
	ID           string
	Content      string
	IsLiked      bool
	LikeCount    int
	CommentCount int
}

func TestServer_LikeScenario(t *testing.T) {
	app := setupTestApp(t)
	alice := signup(t, app, "alice")
	bob := signup(t, app, "bob")

	postID := createPost(t, app, alice.Token, "hello from alice")

	toggle := `mutation($id: ID!) { toggleLike(postId: $id) { success message isLiked likeCount post { id } } }`
	var toggled struct {
		ToggleLike struct {
			Success   bool
			Message   string
			IsLiked   bool
			LikeCount int
		}
	}
	decodeData(t, doGraphQL(t, app, bob.Token, toggle, map[string]interface{}{"id": postID}), &toggled)
	assert.True(t, toggled.ToggleLike.Success)
	assert.True(t, toggled.ToggleLike.IsLiked)
	assert.Equal(t, 1, toggled.ToggleLike.LikeCount)
	assert.Equal(t, "Post liked", toggled.ToggleLike.Message)

	postsQuery := `{ getPosts { id isLiked likeCount commentCount } }`

	var bobView struct{ GetPosts []postView }
	decodeData(t, doGraphQL(t, app, bob.Token, postsQuery, nil), &bobView)
	require.Len(t, bobView.GetPosts, 1)
	assert.True(t, bobView.GetPosts[0].IsLiked)
	assert.Equal(t, 1, bobView.GetPosts[0].LikeCount)

	var aliceView struct{ GetPosts []postView }
	decodeData(t, doGraphQL(t, app, alice.Token, postsQuery, nil), &aliceView)
	require.Len(t, aliceView.GetPosts, 1)
	assert.False(t, aliceView.GetPosts[0].IsLiked)
	assert.Equal(t, 1, aliceView.GetPosts[0].LikeCount)

	decodeData(t, doGraphQL(t, app, bob.Token, toggle, map[string]interface{}{"id": postID}), &toggled)
	assert.False(t, toggled.ToggleLike.IsLiked)
	assert.Equal(t, 0, toggled.ToggleLike.LikeCount)
	assert.Equal(t, "Post unliked", toggled.ToggleLike.Message)
}

func TestServer_FollowFeedScenario(t *testing.T) {
	app := setupTestApp(t)
	alice := signup(t, app, "alice")
	bob := signup(t, app, "bob")
	carol := signup(t, app, "carol")

	bobPost := createPost(t, app, bob.Token, "bob writes")
	createPost(t, app, carol.Token, "carol writes")

	feedQuery := `{ getFeed { id content } }`
	var feed struct{ GetFeed []postView }

	decodeData(t, doGraphQL(t, app, alice.Token, feedQuery, nil), &feed)
	assert.Empty(t, feed.GetFeed)

	var followed struct {
		FollowUser struct {
			Success bool
			Message string
		}
	}
	decodeData(t, doGraphQL(t, app, alice.Token, `mutation($id: ID!) { followUser(userId: $id) { success message } }`,
		map[string]interface{}{"id": bob.ID}), &followed)
	assert.True(t, followed.FollowUser.Success)
	assert.Equal(t, "User followed", followed.FollowUser.Message)

	decodeData(t, doGraphQL(t, app, alice.Token, feedQuery, nil), &feed)
	require.Len(t, feed.GetFeed, 1)
	assert.Equal(t, bobPost, feed.GetFeed[0].ID)

	dup := doGraphQL(t, app, alice.Token, `mutation($id: ID!) { follow(userId: $id) { id } }`,
		map[string]interface{}{"id": bob.ID})
	assert.Equal(t, "CONFLICT", dup.code())

	var profile struct {
		GetUser struct {
			FollowersCount     int
			IsFollowedByViewer *bool
		}
	}
	decodeData(t, doGraphQL(t, app, alice.Token, `{ getUser(username: "bob") { followersCount isFollowedByViewer } }`, nil), &profile)
	assert.Equal(t, 1, profile.GetUser.FollowersCount)
	require.NotNil(t, profile.GetUser.IsFollowedByViewer)
	assert.True(t, *profile.GetUser.IsFollowedByViewer)

	var unfollowed struct{ Unfollow bool }
	for i := 0; i < 2; i++ {
		decodeData(t, doGraphQL(t, app, alice.Token, `mutation($id: ID!) { unfollow(userId: $id) }`,
			map[string]interface{}{"id": bob.ID}), &unfollowed)
		assert.True(t, unfollowed.Unfollow)
	}

	decodeData(t, doGraphQL(t, app, alice.Token, feedQuery, nil), &feed)
	assert.Empty(t, feed.GetFeed)
}

func TestServer_ErrorCodes(t *testing.T) {
	app := setupTestApp(t)
	alice := signup(t, app, "alice")

	tests := []struct {
		name     string
		token    string
		query    string
		vars     map[string]interface{}
		wantCode string
	}{
		{
			name:  "duplicate email",
			query: signupMutation,
			vars: map[string]interface{}{
				"username": "alice2", "email": "alice@example.com", "password": "Secret123",
			},
			wantCode: "CONFLICT",
		},
		{
			name:     "weak password",
			query:    signupMutation,
			vars:     map[string]interface{}{"username": "dave", "email": "dave@example.com", "password": "short"},
			wantCode: "INVALID_ARGUMENT",
		},
		{
			name:     "unauthenticated createPost",
			query:    `mutation { createPost(content: "hi") { id } }`,
			wantCode: "UNAUTHENTICATED",
		},
		{
			name:     "self follow",
			token:    alice.Token,
			query:    fmt.Sprintf(`mutation { follow(userId: "%s") { id } }`, alice.ID),
			wantCode: "INVALID_ARGUMENT",
		},
		{
			name:     "follow missing user",
			token:    alice.Token,
			query:    `mutation { follow(userId: "999") { id } }`,
			wantCode: "NOT_FOUND",
		},
		{
			name:     "missing post",
			query:    `{ getPost(id: "42") { id } }`,
			wantCode: "NOT_FOUND",
		},
		{
			name:     "unknown login email",
			query:    `mutation { login(email: "nobody@example.com", password: "Secret123") { token } }`,
			wantCode: "NOT_FOUND",
		},
		{
			name:     "wrong password",
			query:    `mutation { login(email: "alice@example.com", password: "Wrong1234") { token } }`,
			wantCode: "UNAUTHORIZED",
		},
		{
			name:     "empty comment",
			token:    alice.Token,
			query:    `mutation { createComment(postId: "1", content: "") { id } }`,
			wantCode: "INVALID_ARGUMENT",
		},
		{
			name:     "invalid token is anonymous",
			token:    "not-a-token",
			query:    `mutation { toggleLike(postId: "1") { isLiked } }`,
			wantCode: "UNAUTHENTICATED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doGraphQL(t, app, tt.token, tt.query, tt.vars)
			require.NotEmpty(t, resp.Errors)
			assert.Equal(t, tt.wantCode, resp.code())
		})
	}
}

func TestServer_LoginAndMe(t *testing.T) {
	app := setupTestApp(t)
	signup(t, app, "alice")

	var login struct {
		Login struct{ Token string }
	}
	decodeData(t, doGraphQL(t, app, "", `mutation { login(email: "ALICE@example.com", password: "Secret123") { token } }`, nil), &login)
	require.NotEmpty(t, login.Login.Token)

	var me struct {
		Me *struct{ Username string }
	}
	decodeData(t, doGraphQL(t, app, login.Login.Token, `{ me { username } }`, nil), &me)
	require.NotNil(t, me.Me)
	assert.Equal(t, "alice", me.Me.Username)

	decodeData(t, doGraphQL(t, app, "", `{ me { username } }`, nil), &me)
	assert.Nil(t, me.Me)
}

func TestServer_PopularAndComments(t *testing.T) {
	app := setupTestApp(t)
	alice := signup(t, app, "alice")
	bob := signup(t, app, "bob")

	quiet := createPost(t, app, alice.Token, "quiet")
	loud := createPost(t, app, alice.Token, "loud")

	like := `mutation($id: ID!) { likePost(postId: $id) { id user { username } post { id } } }`
	decodeData(t, doGraphQL(t, app, alice.Token, like, map[string]interface{}{"id": loud}), &struct{}{})
	decodeData(t, doGraphQL(t, app, bob.Token, like, map[string]interface{}{"id": loud}), &struct{}{})
	decodeData(t, doGraphQL(t, app, bob.Token, like, map[string]interface{}{"id": quiet}), &struct{}{})

	dup := doGraphQL(t, app, bob.Token, like, map[string]interface{}{"id": quiet})
	assert.Equal(t, "CONFLICT", dup.code())

	var popular struct{ GetPopularPosts []postView }
	decodeData(t, doGraphQL(t, app, "", `{ getPopularPosts(limit: 1) { id likeCount } }`, nil), &popular)
	require.Len(t, popular.GetPopularPosts, 1)
	assert.Equal(t, loud, popular.GetPopularPosts[0].ID)
	assert.Equal(t, 2, popular.GetPopularPosts[0].LikeCount)

	var comment struct {
		CreateComment struct {
			Content string
			Author  struct{ Username string }
		}
	}
	decodeData(t, doGraphQL(t, app, bob.Token, `mutation($id: ID!) { createComment(postId: $id, content: "nice") { content author { username } } }`,
		map[string]interface{}{"id": quiet}), &comment)
	assert.Equal(t, "nice", comment.CreateComment.Content)
	assert.Equal(t, "bob", comment.CreateComment.Author.Username)

	var post struct {
		GetPost struct {
			CommentCount int
			Comments     []struct{ Content string }
		}
	}
	decodeData(t, doGraphQL(t, app, "", `query($id: ID!) { getPost(id: $id) { commentCount comments { content } } }`,
		map[string]interface{}{"id": quiet}), &post)
	assert.Equal(t, 1, post.GetPost.CommentCount)
	require.Len(t, post.GetPost.Comments, 1)

	var unliked struct{ UnlikePost bool }
	for i := 0; i < 2; i++ {
		decodeData(t, doGraphQL(t, app, bob.Token, `mutation($id: ID!) { unlikePost(postId: $id) }`,
			map[string]interface{}{"id": quiet}), &unliked)
		assert.True(t, unliked.UnlikePost)
	}
}

func TestServer_GetRequests(t *testing.T) {
	app := setupTestApp(t)
	signup(t, app, "alice")

	get := func(query string) gqlResponse {
		req := httptest.NewRequest(http.MethodGet, "/graphql?query="+url.QueryEscape(query), nil)
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		defer resp.Body.Close()
		var out gqlResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		return out
	}

	t.Run("query allowed", func(t *testing.T) {
		var data struct {
			GetAllUsers []struct{ Username string }
		}
		decodeData(t, get(`{ getAllUsers { username } }`), &data)
		require.Len(t, data.GetAllUsers, 1)
		assert.Equal(t, "alice", data.GetAllUsers[0].Username)
	})

	t.Run("mutation rejected", func(t *testing.T) {
		resp := get(`mutation { login(email: "alice@example.com", password: "Secret123") { token } }`)
		assert.Equal(t, "INVALID_ARGUMENT", resp.code())
	})
}

func TestServer_BadRequests(t *testing.T) {
	app := setupTestApp(t)

	tests := []struct {
		name string
		body string
	}{
		{name: "malformed json", body: `{"query":`},
		{name: "missing query", body: `{"variables":{}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/graphql", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestServer_HealthChecks(t *testing.T) {
	app := setupTestApp(t)

	tests := []struct {
		path string
		want string
	}{
		{path: "/health/live", want: `"status":"up"`},
		{path: "/health/ready", want: `"status":"healthy"`},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, tt.path, nil), -1)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			assert.Contains(t, string(body), tt.want)
		})
	}
}

func TestServer_ReadinessRequiresRedisInProduction(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), database.GormConfig())
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	cfg := testConfig()
	cfg.Env = "production"
	srv, err := NewServerWithDeps(cfg, db, nil)
	require.NoError(t, err)
	app := srv.NewApp()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health/ready", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"redis":"unhealthy"`)
}

func TestGraphQL_TraceIDExtension(t *testing.T) {
	app := setupTestApp(t)

	resp := doGraphQL(t, app, "", `{ getAllUsers { id } }`, nil)
	assert.NotContains(t, resp.Extensions, "traceId")

	tp := sdktrace.NewTracerProvider()
	prev := observability.Tracer
	observability.Tracer = tp.Tracer("goyfeed-test")
	t.Cleanup(func() {
		observability.Tracer = prev
		_ = tp.Shutdown(context.Background())
	})

	resp = doGraphQL(t, app, "", `{ getPost(id: "999") { id } }`, nil)
	assert.Equal(t, "NOT_FOUND", resp.code())
	traceID, ok := resp.Extensions["traceId"].(string)
	require.True(t, ok)
	assert.Len(t, traceID, 32)
}
