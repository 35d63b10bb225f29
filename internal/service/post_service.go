package service

import (
	"context"
	"strings"

	"goyfeed/internal/middleware"
	"goyfeed/internal/models"
	"goyfeed/internal/repository"
	"goyfeed/internal/storage"
	"goyfeed/internal/validation"
)

// ToggleLikeResult is the state of a like after toggleLike.
type ToggleLikeResult struct {
	IsLiked   bool
	LikeCount int64
	Post      *models.Post
}

// PostService handles posts, likes and comments.
type PostService struct {
	postRepo    repository.PostRepository
	likeRepo    repository.LikeRepository
	commentRepo repository.CommentRepository
	images      storage.ImageStore
}

func NewPostService(
	postRepo repository.PostRepository,
	likeRepo repository.LikeRepository,
	commentRepo repository.CommentRepository,
	images storage.ImageStore,
) *PostService {
	if images == nil {
		images = storage.PassthroughStore{}
	}
	return &PostService{
		postRepo:    postRepo,
		likeRepo:    likeRepo,
		commentRepo: commentRepo,
		images:      images,
	}
}

// CreatePost stores a post for authorID. Content may be blank only when an
// image is attached; inline data: images are uploaded first.
func (s *PostService) CreatePost(ctx context.Context, authorID uint, in validation.CreatePostInput) (*models.Post, error) {
	in.Content = strings.TrimSpace(in.Content)
	in.Image = strings.TrimSpace(in.Image)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	image, err := s.images.Resolve(ctx, in.Image)
	if err != nil {
		return nil, err
	}

	post := &models.Post{
		AuthorID: authorID,
		Content:  in.Content,
		Image:    image,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}
	return s.postRepo.GetByID(ctx, post.ID, authorID)
}

func (s *PostService) GetPost(ctx context.Context, id, viewerID uint) (*models.Post, error) {
	return s.postRepo.GetByID(ctx, id, viewerID)
}

// ListPosts returns every post, newest first.
func (s *PostService) ListPosts(ctx context.Context, page validation.PageInput, viewerID uint) ([]*models.Post, error) {
	if err := validation.Struct(page); err != nil {
		return nil, err
	}
	return s.postRepo.List(ctx, page.Limit, page.Offset, viewerID)
}

func (s *PostService) ListByAuthor(ctx context.Context, authorID, viewerID uint) ([]*models.Post, error) {
	return s.postRepo.ListByAuthor(ctx, authorID, viewerID)
}

// Feed returns posts from authors the viewer follows.
func (s *PostService) Feed(ctx context.Context, viewerID uint, page validation.PageInput) ([]*models.Post, error) {
	if err := validation.Struct(page); err != nil {
		return nil, err
	}
	return s.postRepo.Feed(ctx, viewerID, page.Limit, page.Offset)
}

func (s *PostService) Popular(ctx context.Context, limit int, viewerID uint) ([]*models.Post, error) {
	if limit <= 0 {
		limit = 5
	}
	return s.postRepo.Popular(ctx, limit, viewerID)
}

// ToggleLike flips the viewer's like on the post.
func (s *PostService) ToggleLike(ctx context.Context, viewerID, postID uint) (*ToggleLikeResult, error) {
	liked, count, err := s.likeRepo.Toggle(ctx, viewerID, postID)
	if err != nil {
		return nil, err
	}

	state := "unliked"
	if liked {
		state = "liked"
	}
	middleware.LikeToggles.WithLabelValues(state).Inc()

	post, err := s.postRepo.GetByID(ctx, postID, viewerID)
	if err != nil {
		return nil, err
	}
	return &ToggleLikeResult{IsLiked: liked, LikeCount: count, Post: post}, nil
}

// LikePost adds a like. Liking twice is a conflict.
func (s *PostService) LikePost(ctx context.Context, viewerID, postID uint) (*models.Like, error) {
	if err := s.requirePost(ctx, postID); err != nil {
		return nil, err
	}
	return s.likeRepo.Like(ctx, viewerID, postID)
}

// UnlikePost removes a like if present.
func (s *PostService) UnlikePost(ctx context.Context, viewerID, postID uint) error {
	return s.likeRepo.Unlike(ctx, viewerID, postID)
}

func (s *PostService) CreateComment(ctx context.Context, authorID uint, in validation.CreateCommentInput) (*models.Comment, error) {
	in.Content = strings.TrimSpace(in.Content)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if err := s.requirePost(ctx, in.PostID); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		AuthorID: authorID,
		PostID:   in.PostID,
		Content:  in.Content,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

func (s *PostService) Comments(ctx context.Context, postID uint) ([]*models.Comment, error) {
	return s.commentRepo.ListByPost(ctx, postID)
}

func (s *PostService) Likes(ctx context.Context, postID uint) ([]*models.Like, error) {
	return s.likeRepo.ListByPost(ctx, postID)
}

func (s *PostService) requirePost(ctx context.Context, postID uint) error {
	exists, err := s.postRepo.Exists(ctx, postID)
	if err != nil {
		return err
	}
	if !exists {
		return models.NewNotFoundError("Post", postID)
	}
	return nil
}
