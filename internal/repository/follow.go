package repository

import (
	"context"

	"inkraft/internal/models"

	"gorm.io/gorm"
)

// FollowRepository stores follows of authors and categories.
type FollowRepository interface {
	FollowAuthor(ctx context.Context, followerID, authorID uint) error
	UnfollowAuthor(ctx context.Context, followerID, authorID uint) error
	FollowCategory(ctx context.Context, followerID, categoryID uint) error
	UnfollowCategory(ctx context.Context, followerID, categoryID uint) error
	FollowedAuthorIDs(ctx context.Context, followerID uint) ([]uint, error)
	FollowedCategoryIDs(ctx context.Context, followerID uint) ([]uint, error)
}

type followRepository struct {
	db *gorm.DB
}

// NewFollowRepository creates a new FollowRepository
func NewFollowRepository(db *gorm.DB) FollowRepository {
	return &followRepository{db: db}
}

// The unique index over (follower, author, category) does not stop duplicates
// when one side is NULL, so existence is checked before inserting.
func (r *followRepository) follow(ctx context.Context, f models.Follow, column string, target uint) error {
	err := r.db.WithContext(ctx).
		Where("follower_id = ? AND "+column+" = ?", f.FollowerID, target).
		FirstOrCreate(&f).Error
	if err != nil && !isUniqueConstraintError(err) {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *followRepository) unfollow(ctx context.Context, followerID uint, column string, target uint) error {
	res := r.db.WithContext(ctx).
		Where("follower_id = ? AND "+column+" = ?", followerID, target).
		Delete(&models.Follow{})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Follow", target)
	}
	return nil
}

func (r *followRepository) FollowAuthor(ctx context.Context, followerID, authorID uint) error {
	return r.follow(ctx, models.Follow{FollowerID: followerID, AuthorID: &authorID}, "author_id", authorID)
}

func (r *followRepository) UnfollowAuthor(ctx context.Context, followerID, authorID uint) error {
	return r.unfollow(ctx, followerID, "author_id", authorID)
}

func (r *followRepository) FollowCategory(ctx context.Context, followerID, categoryID uint) error {
	return r.follow(ctx, models.Follow{FollowerID: followerID, CategoryID: &categoryID}, "category_id", categoryID)
}

func (r *followRepository) UnfollowCategory(ctx context.Context, followerID, categoryID uint) error {
	return r.unfollow(ctx, followerID, "category_id", categoryID)
}

func (r *followRepository) pluck(ctx context.Context, followerID uint, column string) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ? AND "+column+" IS NOT NULL", followerID).
		Pluck(column, &ids).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return ids, nil
}

func (r *followRepository) FollowedAuthorIDs(ctx context.Context, followerID uint) ([]uint, error) {
	return r.pluck(ctx, followerID, "author_id")
}

func (r *followRepository) FollowedCategoryIDs(ctx context.Context, followerID uint) ([]uint, error) {
	return r.pluck(ctx, followerID, "category_id")
}
