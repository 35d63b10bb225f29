package service

import (
	"context"

	"goyfeed/internal/models"
	"goyfeed/internal/repository"
)

// UserService serves plain user lookups.
type UserService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

func (s *UserService) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// Me returns the viewer, or nil for anonymous requests and deleted accounts.
func (s *UserService) Me(ctx context.Context, viewerID uint) (*models.User, error) {
	if viewerID == 0 {
		return nil, nil
	}
	user, err := s.userRepo.GetByID(ctx, viewerID)
	if models.IsCode(err, models.CodeNotFound) {
		return nil, nil
	}
	return user, err
}

func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	return s.userRepo.List(ctx)
}
