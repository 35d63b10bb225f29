package service

import (
	"context"
	"errors"
	"testing"

	"goyfeed/internal/models"

	"github.com/stretchr/testify/require"
)

type userRepoStub struct {
	getByIDFn       func(context.Context, uint) (*models.User, error)
	getByEmailFn    func(context.Context, string) (*models.User, error)
	getByUsernameFn func(context.Context, string) (*models.User, error)
	createFn        func(context.Context, *models.User) error
	listFn          func(context.Context) ([]models.User, error)
	suggestedFn     func(context.Context, uint, int) ([]models.User, error)
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmailFn(ctx, email)
}
func (s *userRepoStub) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getByUsernameFn(ctx, username)
}
func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) List(ctx context.Context) ([]models.User, error) {
	return s.listFn(ctx)
}
func (s *userRepoStub) Suggested(ctx context.Context, viewerID uint, limit int) ([]models.User, error) {
	return s.suggestedFn(ctx, viewerID, limit)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getByIDFn:       func(_ context.Context, id uint) (*models.User, error) { return &models.User{ID: id}, nil },
		getByEmailFn:    func(context.Context, string) (*models.User, error) { return nil, nil },
		getByUsernameFn: func(context.Context, string) (*models.User, error) { return nil, nil },
		createFn:        func(context.Context, *models.User) error { return nil },
		listFn:          func(context.Context) ([]models.User, error) { return nil, nil },
		suggestedFn:     func(context.Context, uint, int) ([]models.User, error) { return nil, nil },
	}
}

type followRepoStub struct {
	createFn         func(context.Context, uint, uint) (*models.Follow, error)
	deleteFn         func(context.Context, uint, uint) (bool, error)
	existsFn         func(context.Context, uint, uint) (bool, error)
	countFollowersFn func(context.Context, uint) (int64, error)
	countFollowingFn func(context.Context, uint) (int64, error)
	listFollowersFn  func(context.Context, uint) ([]models.User, error)
	listFollowingFn  func(context.Context, uint) ([]models.User, error)
}

func (s *followRepoStub) Create(ctx context.Context, followerID, followingID uint) (*models.Follow, error) {
	return s.createFn(ctx, followerID, followingID)
}
func (s *followRepoStub) Delete(ctx context.Context, followerID, followingID uint) (bool, error) {
	return s.deleteFn(ctx, followerID, followingID)
}
func (s *followRepoStub) Exists(ctx context.Context, followerID, followingID uint) (bool, error) {
	return s.existsFn(ctx, followerID, followingID)
}
func (s *followRepoStub) CountFollowers(ctx context.Context, userID uint) (int64, error) {
	return s.countFollowersFn(ctx, userID)
}
func (s *followRepoStub) CountFollowing(ctx context.Context, userID uint) (int64, error) {
	return s.countFollowingFn(ctx, userID)
}
func (s *followRepoStub) ListFollowers(ctx context.Context, userID uint) ([]models.User, error) {
	return s.listFollowersFn(ctx, userID)
}
func (s *followRepoStub) ListFollowing(ctx context.Context, userID uint) ([]models.User, error) {
	return s.listFollowingFn(ctx, userID)
}

func noopFollowRepo() *followRepoStub {
	return &followRepoStub{
		createFn: func(_ context.Context, a, b uint) (*models.Follow, error) {
			return &models.Follow{ID: 1, FollowerID: a, FollowingID: b}, nil
		},
		deleteFn:         func(context.Context, uint, uint) (bool, error) { return true, nil },
		existsFn:         func(context.Context, uint, uint) (bool, error) { return false, nil },
		countFollowersFn: func(context.Context, uint) (int64, error) { return 0, nil },
		countFollowingFn: func(context.Context, uint) (int64, error) { return 0, nil },
		listFollowersFn:  func(context.Context, uint) ([]models.User, error) { return nil, nil },
		listFollowingFn:  func(context.Context, uint) ([]models.User, error) { return nil, nil },
	}
}

type postRepoStub struct {
	createFn          func(context.Context, *models.Post) error
	existsFn          func(context.Context, uint) (bool, error)
	getByIDFn         func(context.Context, uint, uint) (*models.Post, error)
	listFn            func(context.Context, int, int, uint) ([]*models.Post, error)
	listByAuthorFn    func(context.Context, uint, uint) ([]*models.Post, error)
	feedFn            func(context.Context, uint, int, int) ([]*models.Post, error)
	popularFn         func(context.Context, int, uint) ([]*models.Post, error)
	getLikedPostIDsFn func(context.Context, uint, []uint) ([]uint, error)
}

func (s *postRepoStub) Create(ctx context.Context, post *models.Post) error {
	return s.createFn(ctx, post)
}
func (s *postRepoStub) Exists(ctx context.Context, id uint) (bool, error) {
	return s.existsFn(ctx, id)
}
func (s *postRepoStub) GetByID(ctx context.Context, id, viewerID uint) (*models.Post, error) {
	return s.getByIDFn(ctx, id, viewerID)
}
func (s *postRepoStub) List(ctx context.Context, limit, offset int, viewerID uint) ([]*models.Post, error) {
	return s.listFn(ctx, limit, offset, viewerID)
}
func (s *postRepoStub) ListByAuthor(ctx context.Context, authorID, viewerID uint) ([]*models.Post, error) {
	return s.listByAuthorFn(ctx, authorID, viewerID)
}
func (s *postRepoStub) Feed(ctx context.Context, viewerID uint, limit, offset int) ([]*models.Post, error) {
	return s.feedFn(ctx, viewerID, limit, offset)
}
func (s *postRepoStub) Popular(ctx context.Context, limit int, viewerID uint) ([]*models.Post, error) {
	return s.popularFn(ctx, limit, viewerID)
}
func (s *postRepoStub) GetLikedPostIDs(ctx context.Context, userID uint, postIDs []uint) ([]uint, error) {
	return s.getLikedPostIDsFn(ctx, userID, postIDs)
}

func noopPostRepo() *postRepoStub {
	return &postRepoStub{
		createFn: func(_ context.Context, p *models.Post) error { p.ID = 1; return nil },
		existsFn: func(context.Context, uint) (bool, error) { return true, nil },
		getByIDFn: func(_ context.Context, id, _ uint) (*models.Post, error) {
			return &models.Post{ID: id}, nil
		},
		listFn:            func(context.Context, int, int, uint) ([]*models.Post, error) { return nil, nil },
		listByAuthorFn:    func(context.Context, uint, uint) ([]*models.Post, error) { return nil, nil },
		feedFn:            func(context.Context, uint, int, int) ([]*models.Post, error) { return nil, nil },
		popularFn:         func(context.Context, int, uint) ([]*models.Post, error) { return nil, nil },
		getLikedPostIDsFn: func(context.Context, uint, []uint) ([]uint, error) { return nil, nil },
	}
}

type likeRepoStub struct {
	likeFn       func(context.Context, uint, uint) (*models.Like, error)
	unlikeFn     func(context.Context, uint, uint) error
	toggleFn     func(context.Context, uint, uint) (bool, int64, error)
	listByPostFn func(context.Context, uint) ([]*models.Like, error)
}

func (s *likeRepoStub) Like(ctx context.Context, userID, postID uint) (*models.Like, error) {
	return s.likeFn(ctx, userID, postID)
}
func (s *likeRepoStub) Unlike(ctx context.Context, userID, postID uint) error {
	return s.unlikeFn(ctx, userID, postID)
}
func (s *likeRepoStub) Toggle(ctx context.Context, userID, postID uint) (bool, int64, error) {
	return s.toggleFn(ctx, userID, postID)
}
func (s *likeRepoStub) ListByPost(ctx context.Context, postID uint) ([]*models.Like, error) {
	return s.listByPostFn(ctx, postID)
}

func noopLikeRepo() *likeRepoStub {
	return &likeRepoStub{
		likeFn: func(_ context.Context, u, p uint) (*models.Like, error) {
			return &models.Like{ID: 1, UserID: u, PostID: p}, nil
		},
		unlikeFn:     func(context.Context, uint, uint) error { return nil },
		toggleFn:     func(context.Context, uint, uint) (bool, int64, error) { return true, 1, nil },
		listByPostFn: func(context.Context, uint) ([]*models.Like, error) { return nil, nil },
	}
}

type commentRepoStub struct {
	createFn     func(context.Context, *models.Comment) error
	listByPostFn func(context.Context, uint) ([]*models.Comment, error)
}

func (s *commentRepoStub) Create(ctx context.Context, comment *models.Comment) error {
	return s.createFn(ctx, comment)
}
func (s *commentRepoStub) ListByPost(ctx context.Context, postID uint) ([]*models.Comment, error) {
	return s.listByPostFn(ctx, postID)
}

func noopCommentRepo() *commentRepoStub {
	return &commentRepoStub{
		createFn:     func(_ context.Context, c *models.Comment) error { c.ID = 1; return nil },
		listByPostFn: func(context.Context, uint) ([]*models.Comment, error) { return nil, nil },
	}
}

func assertAppErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %#v", err)
	require.Equal(t, code, appErr.Code, appErr.Message)
}
