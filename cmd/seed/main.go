// Command seed populates the database with a demo social graph.
package main

import (
	"context"
	"flag"
	"log"

	"goyfeed/internal/config"
	"goyfeed/internal/database"
	"goyfeed/internal/seed"
)

func main() {
	defaults := seed.DefaultOptions()
	users := flag.Int("users", defaults.Users, "Number of users to create")
	posts := flag.Int("posts-per-user", defaults.PostsPerUser, "Posts authored by each user")
	follows := flag.Int("follows-per-user", defaults.FollowsPerUser, "Accounts each user follows")
	likes := flag.Int("likes-per-post", defaults.LikesPerPost, "Upper bound of likes per post")
	comments := flag.Int("comments-per-post", defaults.CommentsPerPost, "Upper bound of comments per post")
	randSeed := flag.Int64("rand-seed", 0, "Seed for reproducible data (0 uses the clock)")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("Refusing to seed a production database")
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	ctx := context.Background()
	s := seed.NewSeeder(db, seed.Options{
		Users:           *users,
		PostsPerUser:    *posts,
		FollowsPerUser:  *follows,
		LikesPerPost:    *likes,
		CommentsPerPost: *comments,
		MaxDays:         defaults.MaxDays,
		RandSeed:        *randSeed,
	})

	if *shouldClean {
		if err := s.ClearAll(ctx); err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
	}

	sum, err := s.SeedSocialGraph(ctx)
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("Seeded %d users, %d posts, %d follows, %d likes, %d comments",
		len(sum.Users), len(sum.Posts), sum.Follows, sum.Likes, sum.Comments)
	log.Printf("All seeded users have the password: %s", seed.DefaultPassword)
}
