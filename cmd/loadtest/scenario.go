package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

const loadtestPassword = "Loadtest123"

// Scenario describes one load run against a live server.
type Scenario struct {
	Target     string           `yaml:"target"`
	Timeout    string           `yaml:"timeout"`
	Users      int              `yaml:"users"`
	ToggleLike ToggleLikeConfig `yaml:"toggle_like"`
	FollowRace FollowRaceConfig `yaml:"follow_race"`
}

type ToggleLikeConfig struct {
	// TogglesPerUser is the base count; odd-indexed users toggle once more so
	// both parities are covered.
	TogglesPerUser int `yaml:"toggles_per_user"`
}

type FollowRaceConfig struct {
	Attempts int `yaml:"attempts"`
}

// LoadScenario reads a YAML scenario and fills defaults.
func LoadScenario(path string) (*Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	sc := &Scenario{}
	if err := yaml.Unmarshal(raw, sc); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if sc.Target == "" {
		sc.Target = "http://localhost:4000"
	}
	if sc.Timeout == "" {
		sc.Timeout = "10s"
	}
	if sc.Users < 3 {
		sc.Users = 3
	}
	if sc.ToggleLike.TogglesPerUser <= 0 {
		sc.ToggleLike.TogglesPerUser = 5
	}
	if sc.FollowRace.Attempts <= 0 {
		sc.FollowRace.Attempts = 8
	}
	return sc, nil
}

// Report summarizes a run. Violations lists every broken invariant.
type Report struct {
	Requests   int64
	Errors     int64
	P50        time.Duration
	P95        time.Duration
	P99        time.Duration
	Max        time.Duration
	LikeCount  int
	Followed   int
	Conflicts  int
	Violations []string
}

type account struct {
	ID    string
	Token string
}

// Runner executes a Scenario.
type Runner struct {
	sc    *Scenario
	c     *client
	runID string
}

func NewRunner(sc *Scenario) (*Runner, error) {
	timeout, err := time.ParseDuration(sc.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid timeout: %w", err)
	}
	return &Runner{
		sc:    sc,
		c:     newClient(sc.Target, timeout),
		runID: strconv.FormatInt(time.Now().UnixNano(), 36),
	}, nil
}

func (r *Runner) Run(ctx context.Context) (*Report, error) {
	users, err := r.signupAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("signup: %w", err)
	}

	var created struct {
		CreatePost struct{ ID string }
	}
	if err := r.c.must(users[0].Token, `mutation($c: String!) { createPost(content: $c) { id } }`,
		map[string]any{"c": "load test post " + r.runID}, &created); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}

	rep := &Report{}
	if err := r.toggleLikes(ctx, users, created.CreatePost.ID, rep); err != nil {
		return nil, err
	}
	if err := r.followRace(ctx, users[1], users[2], rep); err != nil {
		return nil, err
	}
	return rep, nil
}

func (r *Runner) signupAll(ctx context.Context) ([]account, error) {
	users := make([]account, r.sc.Users)
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i := range users {
		g.Go(func() error {
			username := fmt.Sprintf("lt%s_%d", r.runID, i)
			var data struct {
				Signup struct {
					Token string
					User  struct{ ID string }
				}
			}
			err := r.c.must("", `mutation($u: String!, $e: String!, $p: String!) {
				signup(username: $u, email: $e, password: $p) { token user { id } }
			}`, map[string]any{"u": username, "e": username + "@loadtest.local", "p": loadtestPassword}, &data)
			if err != nil {
				return fmt.Errorf("%s: %w", username, err)
			}
			users[i] = account{ID: data.Signup.User.ID, Token: data.Signup.Token}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *Runner) toggleLikes(ctx context.Context, users []account, postID string, rep *Report) error {
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		merged = hdrhistogram.New(1, int64(time.Minute/time.Microsecond), 3)
	)
	toggles := make([]int, len(users))

	for i, u := range users {
		toggles[i] = r.sc.ToggleLike.TogglesPerUser + i%2
		wg.Add(1)
		go func(u account, n int) {
			defer wg.Done()
			hist := hdrhistogram.New(1, int64(time.Minute/time.Microsecond), 3)
			var failed int64
			for j := 0; j < n && ctx.Err() == nil; j++ {
				start := time.Now()
				resp, err := r.c.do(u.Token, `mutation($id: ID!) { toggleLike(postId: $id) { isLiked } }`,
					map[string]any{"id": postID}, nil)
				_ = hist.RecordValue(time.Since(start).Microseconds())
				if err != nil || len(resp.Errors) > 0 {
					failed++
				}
			}
			mu.Lock()
			merged.Merge(hist)
			rep.Errors += failed
			mu.Unlock()
		}(u, toggles[i])
	}
	wg.Wait()

	rep.Requests = merged.TotalCount()
	rep.P50 = time.Duration(merged.ValueAtQuantile(50)) * time.Microsecond
	rep.P95 = time.Duration(merged.ValueAtQuantile(95)) * time.Microsecond
	rep.P99 = time.Duration(merged.ValueAtQuantile(99)) * time.Microsecond
	rep.Max = time.Duration(merged.Max()) * time.Microsecond

	expected := 0
	for i, u := range users {
		wantLiked := toggles[i]%2 == 1
		if wantLiked {
			expected++
		}
		var post struct {
			GetPost struct {
				IsLiked   bool
				LikeCount int
			}
		}
		if err := r.c.must(u.Token, `query($id: ID!) { getPost(id: $id) { isLiked likeCount } }`,
			map[string]any{"id": postID}, &post); err != nil {
			return fmt.Errorf("verify like state: %w", err)
		}
		if post.GetPost.IsLiked != wantLiked {
			rep.Violations = append(rep.Violations,
				fmt.Sprintf("user %s toggled %d times but isLiked=%v", u.ID, toggles[i], post.GetPost.IsLiked))
		}
		rep.LikeCount = post.GetPost.LikeCount
	}
	if rep.Errors == 0 && rep.LikeCount != expected {
		rep.Violations = append(rep.Violations,
			fmt.Sprintf("likeCount=%d, want %d", rep.LikeCount, expected))
	}
	return nil
}

func (r *Runner) followRace(ctx context.Context, follower, target account, rep *Report) error {
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for i := 0; i < r.sc.FollowRace.Attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}
			resp, err := r.c.do(follower.Token, `mutation($id: ID!) { follow(userId: $id) { id } }`,
				map[string]any{"id": target.ID}, nil)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				rep.Violations = append(rep.Violations, "follow request failed: "+err.Error())
			case len(resp.Errors) == 0:
				rep.Followed++
			case resp.Code() == "CONFLICT":
				rep.Conflicts++
			default:
				rep.Violations = append(rep.Violations, "unexpected follow error code "+resp.Code())
			}
		}()
	}
	wg.Wait()

	if rep.Followed != 1 {
		rep.Violations = append(rep.Violations,
			fmt.Sprintf("%d concurrent follows succeeded, want exactly 1", rep.Followed))
	}
	return r.c.must(follower.Token, `mutation($id: ID!) { unfollow(userId: $id) }`,
		map[string]any{"id": target.ID}, nil)
}
