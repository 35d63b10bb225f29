package repository

import (
	"context"

	"goyfeed/internal/cache"
	"goyfeed/internal/database"
	"goyfeed/internal/models"

	"gorm.io/gorm"
)

// LikeRepository stores likes and serializes toggles per (user, post).
type LikeRepository interface {
	Like(ctx context.Context, userID, postID uint) (*models.Like, error)
	Unlike(ctx context.Context, userID, postID uint) error
	Toggle(ctx context.Context, userID, postID uint) (liked bool, count int64, err error)
	ListByPost(ctx context.Context, postID uint) ([]*models.Like, error)
}

type likeRepository struct {
	db *gorm.DB
}

func NewLikeRepository(db *gorm.DB) LikeRepository {
	return &likeRepository{db: db}
}

func (r *likeRepository) Like(ctx context.Context, userID, postID uint) (*models.Like, error) {
	like := &models.Like{UserID: userID, PostID: postID}
	if err := r.db.WithContext(ctx).Create(like).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return nil, models.NewConflictError("Post already liked", err)
		}
		return nil, err
	}
	cache.InvalidatePopularPosts(ctx)
	return like, nil
}

func (r *likeRepository) Unlike(ctx context.Context, userID, postID uint) error {
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Delete(&models.Like{}).Error
	if err == nil {
		cache.InvalidatePopularPosts(ctx)
	}
	return err
}

// Toggle flips the like in one transaction and returns the new state with
// the post's like count read inside the same transaction. On PostgreSQL a
// transaction-scoped advisory lock keyed on the pair serializes concurrent
// toggles; the unique index rejects whatever slips past it.
func (r *likeRepository) Toggle(ctx context.Context, userID, postID uint) (bool, int64, error) {
	var (
		liked bool
		count int64
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if tx.Dialector.Name() == "postgres" {
			if err := tx.Exec("SELECT pg_advisory_xact_lock(?, ?)", int32(userID), int32(postID)).Error; err != nil {
				return err
			}
		}

		var posts int64
		if err := tx.Model(&models.Post{}).Where("id = ?", postID).Count(&posts).Error; err != nil {
			return err
		}
		if posts == 0 {
			return models.NewNotFoundError("Post", postID)
		}

		result := tx.Where("user_id = ? AND post_id = ?", userID, postID).Delete(&models.Like{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			if err := tx.Create(&models.Like{UserID: userID, PostID: postID}).Error; err != nil {
				if database.IsUniqueViolation(err) {
					return models.NewConflictError("Like changed concurrently, retry", err)
				}
				return err
			}
			liked = true
		}

		return tx.Model(&models.Like{}).Where("post_id = ?", postID).Count(&count).Error
	})
	if err != nil {
		return false, 0, err
	}
	cache.InvalidatePopularPosts(ctx)
	return liked, count, nil
}

func (r *likeRepository) ListByPost(ctx context.Context, postID uint) ([]*models.Like, error) {
	var likes []*models.Like
	err := readDB(r.db).WithContext(ctx).
		Preload("User").
		Where("post_id = ?", postID).
		Order("created_at ASC, id ASC").
		Find(&likes).Error
	return likes, err
}
