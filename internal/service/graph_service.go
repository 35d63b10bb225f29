package service

import (
	"context"

	"goyfeed/internal/middleware"
	"goyfeed/internal/models"
	"goyfeed/internal/repository"
)

// GraphService manages the directed follow graph.
type GraphService struct {
	followRepo repository.FollowRepository
	userRepo   repository.UserRepository
}

func NewGraphService(followRepo repository.FollowRepository, userRepo repository.UserRepository) *GraphService {
	return &GraphService{followRepo: followRepo, userRepo: userRepo}
}

// Follow creates the edge viewer -> target.
func (s *GraphService) Follow(ctx context.Context, viewerID, targetID uint) (*models.Follow, error) {
	if viewerID == targetID {
		middleware.FollowChanges.WithLabelValues("follow", "invalid").Inc()
		return nil, models.NewValidationError("Cannot follow yourself")
	}

	if _, err := s.userRepo.GetByID(ctx, targetID); err != nil {
		return nil, err
	}

	exists, err := s.followRepo.Exists(ctx, viewerID, targetID)
	if err != nil {
		return nil, err
	}
	if exists {
		middleware.FollowChanges.WithLabelValues("follow", "conflict").Inc()
		return nil, models.NewConflictError("Already following this user", nil)
	}

	follow, err := s.followRepo.Create(ctx, viewerID, targetID)
	if err != nil {
		if models.IsCode(err, models.CodeConflict) {
			middleware.FollowChanges.WithLabelValues("follow", "conflict").Inc()
		}
		return nil, err
	}
	middleware.FollowChanges.WithLabelValues("follow", "created").Inc()
	return follow, nil
}

// Unfollow removes the edge if present. Removing a missing edge succeeds.
func (s *GraphService) Unfollow(ctx context.Context, viewerID, targetID uint) error {
	removed, err := s.followRepo.Delete(ctx, viewerID, targetID)
	if err != nil {
		return err
	}
	result := "noop"
	if removed {
		result = "removed"
	}
	middleware.FollowChanges.WithLabelValues("unfollow", result).Inc()
	return nil
}

// Suggested lists accounts the viewer might follow, newest first.
func (s *GraphService) Suggested(ctx context.Context, viewerID uint, limit int) ([]models.User, error) {
	if limit <= 0 {
		limit = 5
	}
	return s.userRepo.Suggested(ctx, viewerID, limit)
}
