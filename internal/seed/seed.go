// Package seed creates demo social graphs for development, load tests and
// integration tests.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"goyfeed/internal/middleware"
	"goyfeed/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the password every seeded account can log in with.
const DefaultPassword = "Password123"

// Options sizes the generated graph.
type Options struct {
	Users           int
	PostsPerUser    int
	FollowsPerUser  int
	LikesPerPost    int
	CommentsPerPost int
	// MaxDays spreads post timestamps over the given number of past days.
	MaxDays int
	// RandSeed makes generation reproducible; zero uses the clock.
	RandSeed int64
	// FastHash hashes the shared password at bcrypt.MinCost.
	FastHash bool
}

// DefaultOptions is a small graph suitable for local development.
func DefaultOptions() Options {
	return Options{
		Users:           25,
		PostsPerUser:    4,
		FollowsPerUser:  6,
		LikesPerPost:    5,
		CommentsPerPost: 2,
		MaxDays:         30,
	}
}

// Summary reports how many rows each table received.
type Summary struct {
	Users    []models.User
	Posts    []models.Post
	Follows  int
	Likes    int
	Comments int
}

// Seeder writes generated rows through GORM.
type Seeder struct {
	db    *gorm.DB
	opts  Options
	faker *gofakeit.Faker
}

func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	seed := opts.RandSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if opts.MaxDays <= 0 {
		opts.MaxDays = 30
	}
	return &Seeder{db: db, opts: opts, faker: gofakeit.New(seed)}
}

// ClearAll removes every row the service owns.
func (s *Seeder) ClearAll(ctx context.Context) error {
	db := s.db.WithContext(ctx)
	if db.Dialector.Name() == "postgres" {
		return db.Exec(`TRUNCATE TABLE comments, likes, follows, posts, users RESTART IDENTITY CASCADE`).Error
	}
	for _, table := range []string{"comments", "likes", "follows", "posts", "users"} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return nil
}

// SeedSocialGraph creates users, a follow mesh, posts, likes and comments.
func (s *Seeder) SeedSocialGraph(ctx context.Context) (*Summary, error) {
	users, err := s.SeedUsers(ctx, s.opts.Users)
	if err != nil {
		return nil, fmt.Errorf("seed users: %w", err)
	}

	sum := &Summary{Users: users}

	if sum.Follows, err = s.seedFollows(ctx, users); err != nil {
		return nil, fmt.Errorf("seed follows: %w", err)
	}
	if sum.Posts, err = s.seedPosts(ctx, users); err != nil {
		return nil, fmt.Errorf("seed posts: %w", err)
	}
	if sum.Likes, err = s.seedLikes(ctx, users, sum.Posts); err != nil {
		return nil, fmt.Errorf("seed likes: %w", err)
	}
	if sum.Comments, err = s.seedComments(ctx, users, sum.Posts); err != nil {
		return nil, fmt.Errorf("seed comments: %w", err)
	}

	middleware.Logger.InfoContext(ctx, "seeded social graph",
		slog.Int("users", len(sum.Users)),
		slog.Int("posts", len(sum.Posts)),
		slog.Int("follows", sum.Follows),
		slog.Int("likes", sum.Likes),
		slog.Int("comments", sum.Comments),
	)
	return sum, nil
}

// SeedUsers creates count users sharing DefaultPassword.
func (s *Seeder) SeedUsers(ctx context.Context, count int) ([]models.User, error) {
	cost := bcrypt.DefaultCost
	if s.opts.FastHash {
		cost = bcrypt.MinCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	users := make([]models.User, 0, count)
	for i := 0; i < count; i++ {
		username := s.username(i)
		users = append(users, models.User{
			Username: username,
			Email:    username + "@example.com",
			Name:     s.faker.Name(),
			Password: string(hashed),
			Bio:      s.faker.Sentence(10),
			Avatar:   fmt.Sprintf("https://i.pravatar.cc/150?u=%s", username),
		})
	}
	if len(users) == 0 {
		return users, nil
	}
	if err := s.db.WithContext(ctx).CreateInBatches(&users, 100).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// username keeps only characters accepted at signup and appends the index
// for uniqueness.
func (s *Seeder) username(i int) string {
	base := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		}
		return -1
	}, s.faker.Username())
	if base == "" {
		base = "user"
	}
	suffix := fmt.Sprintf("%d", i)
	if len(base)+len(suffix) > 30 {
		base = base[:30-len(suffix)]
	}
	return base + suffix
}

func (s *Seeder) seedFollows(ctx context.Context, users []models.User) (int, error) {
	if len(users) < 2 || s.opts.FollowsPerUser <= 0 {
		return 0, nil
	}
	var follows []models.Follow
	for i, u := range users {
		n := 0
		for _, j := range s.faker.Rand.Perm(len(users)) {
			if n >= s.opts.FollowsPerUser {
				break
			}
			if j == i {
				continue
			}
			follows = append(follows, models.Follow{FollowerID: u.ID, FollowingID: users[j].ID})
			n++
		}
	}
	if err := s.db.WithContext(ctx).CreateInBatches(&follows, 200).Error; err != nil {
		return 0, err
	}
	return len(follows), nil
}

func (s *Seeder) seedPosts(ctx context.Context, users []models.User) ([]models.Post, error) {
	var posts []models.Post
	for _, u := range users {
		for i := 0; i < s.opts.PostsPerUser; i++ {
			post := models.Post{
				AuthorID:  u.ID,
				Content:   s.faker.Paragraph(1, 3, 8, " "),
				CreatedAt: s.pastTime(),
			}
			if s.faker.Number(1, 10) <= 3 {
				post.Image = fmt.Sprintf("https://picsum.photos/seed/%s/800/800", s.faker.UUID())
			}
			posts = append(posts, post)
		}
	}
	if len(posts) == 0 {
		return posts, nil
	}
	if err := s.db.WithContext(ctx).CreateInBatches(&posts, 200).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

func (s *Seeder) seedLikes(ctx context.Context, users []models.User, posts []models.Post) (int, error) {
	if len(users) == 0 || s.opts.LikesPerPost <= 0 {
		return 0, nil
	}
	var likes []models.Like
	for _, p := range posts {
		// Distinct likers per post keep the (user, post) pair unique.
		n := s.faker.Number(0, s.opts.LikesPerPost)
		for _, j := range s.faker.Rand.Perm(len(users))[:min(n, len(users))] {
			likes = append(likes, models.Like{UserID: users[j].ID, PostID: p.ID})
		}
	}
	if len(likes) == 0 {
		return 0, nil
	}
	if err := s.db.WithContext(ctx).CreateInBatches(&likes, 500).Error; err != nil {
		return 0, err
	}
	return len(likes), nil
}

func (s *Seeder) seedComments(ctx context.Context, users []models.User, posts []models.Post) (int, error) {
	if len(users) == 0 || s.opts.CommentsPerPost <= 0 {
		return 0, nil
	}
	var comments []models.Comment
	for _, p := range posts {
		for i := s.faker.Number(0, s.opts.CommentsPerPost); i > 0; i-- {
			author := users[s.faker.Number(0, len(users)-1)]
			comments = append(comments, models.Comment{
				AuthorID:  author.ID,
				PostID:    p.ID,
				Content:   s.faker.Sentence(8),
				CreatedAt: p.CreatedAt.Add(time.Duration(s.faker.Number(1, 600)) * time.Minute),
			})
		}
	}
	if len(comments) == 0 {
		return 0, nil
	}
	if err := s.db.WithContext(ctx).CreateInBatches(&comments, 500).Error; err != nil {
		return 0, err
	}
	return len(comments), nil
}

func (s *Seeder) pastTime() time.Time {
	back := time.Duration(s.faker.Number(0, s.opts.MaxDays*24*60)) * time.Minute
	return time.Now().Add(-back)
}
