package service

import (
	"context"

	"goyfeed/internal/models"
	"goyfeed/internal/repository"

	"golang.org/x/sync/errgroup"
)

// Profile is a user with the derived graph and content fields of the
// profile page.
type Profile struct {
	User           *models.User
	FollowersCount int64
	FollowingCount int64
	Followers      []models.User
	Following      []models.User
	Posts          []*models.Post
	// IsFollowedByViewer is nil for anonymous viewers.
	IsFollowedByViewer *bool
}

// ProfileService assembles profiles.
type ProfileService struct {
	userRepo   repository.UserRepository
	followRepo repository.FollowRepository
	postRepo   repository.PostRepository
}

func NewProfileService(userRepo repository.UserRepository, followRepo repository.FollowRepository, postRepo repository.PostRepository) *ProfileService {
	return &ProfileService{userRepo: userRepo, followRepo: followRepo, postRepo: postRepo}
}

// GetProfile loads the user by username and reads the derived fields
// concurrently.
func (s *ProfileService) GetProfile(ctx context.Context, username string, viewerID uint) (*Profile, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewNotFoundError("User", username)
	}

	p := &Profile{User: user}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		p.FollowersCount, err = s.followRepo.CountFollowers(gctx, user.ID)
		return err
	})
	g.Go(func() (err error) {
		p.FollowingCount, err = s.followRepo.CountFollowing(gctx, user.ID)
		return err
	})
	g.Go(func() (err error) {
		p.Followers, err = s.followRepo.ListFollowers(gctx, user.ID)
		return err
	})
	g.Go(func() (err error) {
		p.Following, err = s.followRepo.ListFollowing(gctx, user.ID)
		return err
	})
	g.Go(func() (err error) {
		p.Posts, err = s.postRepo.ListByAuthor(gctx, user.ID, viewerID)
		return err
	})
	if viewerID != 0 {
		g.Go(func() error {
			followed, err := s.followRepo.Exists(gctx, viewerID, user.ID)
			if err != nil {
				return err
			}
			p.IsFollowedByViewer = &followed
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return p, nil
}
