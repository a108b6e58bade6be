package repository

import (
	"context"
	"time"

	"inkraft/internal/models"

	"gorm.io/gorm"
)

// CommentFilter narrows admin comment listings.
type CommentFilter struct {
	Status         models.ModerationStatus
	PostID         uint
	UserID         uint
	IncludeDeleted bool
	Limit          int
	Offset         int
}

// CommentRepository defines interface for comment operations
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id uint) (*models.Comment, error)
	ListByPost(ctx context.Context, postID uint) ([]*models.Comment, error)
	List(ctx context.Context, f CommentFilter) ([]*models.Comment, int64, error)
	Count(ctx context.Context, f CommentFilter) (int64, error)
	UpdateContent(ctx context.Context, id uint, content string) error
	SoftDelete(ctx context.Context, comment *models.Comment, by uint, at time.Time) error
	SetModeration(ctx context.Context, id uint, status models.ModerationStatus, by uint, at time.Time) error
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

var (
	incrementCommentCount = gorm.Expr("comment_count + 1")
	decrementCommentCount = gorm.Expr("CASE WHEN comment_count > 0 THEN comment_count - 1 ELSE 0 END")
)

// Create inserts the comment and bumps the post and author counters in one
// transaction.
func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(comment).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Post{}).Where("id = ?", comment.PostID).
			UpdateColumn("comment_count", incrementCommentCount).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).Where("id = ?", comment.UserID).
			UpdateColumn("comment_count", incrementCommentCount).Error
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *commentRepository) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).Preload("User", preloadPublicUser).First(&comment, id).Error; err != nil {
		return nil, notFoundOr(err, "Comment", id)
	}
	return &comment, nil
}

// ListByPost returns every comment of the post, deleted and unmoderated ones
// included, oldest first. Callers decide visibility.
func (r *commentRepository) ListByPost(ctx context.Context, postID uint) ([]*models.Comment, error) {
	var comments []*models.Comment
	err := r.db.WithContext(ctx).
		Preload("User", preloadPublicUser).
		Where("post_id = ?", postID).
		Order("created_at ASC, id ASC").
		Find(&comments).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return comments, nil
}

func (r *commentRepository) filtered(ctx context.Context, f CommentFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&models.Comment{})
	if !f.IncludeDeleted {
		q = q.Where("deleted = ?", false)
	}
	if f.Status != "" {
		q = q.Where("moderation_status = ?", f.Status)
	}
	if f.PostID != 0 {
		q = q.Where("post_id = ?", f.PostID)
	}
	if f.UserID != 0 {
		q = q.Where("user_id = ?", f.UserID)
	}
	return q.Session(&gorm.Session{})
}

func (r *commentRepository) List(ctx context.Context, f CommentFilter) ([]*models.Comment, int64, error) {
	limit, offset := Page(f.Limit, f.Offset)
	q := r.filtered(ctx, f)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	var comments []*models.Comment
	err := q.Preload("User", preloadPublicUser).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&comments).Error
	if err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return comments, total, nil
}

func (r *commentRepository) Count(ctx context.Context, f CommentFilter) (int64, error) {
	var n int64
	if err := r.filtered(ctx, f).Count(&n).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}

func (r *commentRepository) UpdateContent(ctx context.Context, id uint, content string) error {
	res := r.db.WithContext(ctx).Model(&models.Comment{}).
		Where("id = ? AND deleted = ?", id, false).
		Update("content", content)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Comment", id)
	}
	return nil
}

// SoftDelete flags the comment and decrements both counters, floored at 0.
// A comment that is already deleted is reported as not found.
func (r *commentRepository) SoftDelete(ctx context.Context, comment *models.Comment, by uint, at time.Time) error {
	var gone bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Comment{}).
			Where("id = ? AND deleted = ?", comment.ID, false).
			Updates(map[string]any{"deleted": true, "deleted_at": at, "deleted_by": by})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			gone = true
			return nil
		}
		if err := tx.Model(&models.Post{}).Where("id = ?", comment.PostID).
			UpdateColumn("comment_count", decrementCommentCount).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).Where("id = ?", comment.UserID).
			UpdateColumn("comment_count", decrementCommentCount).Error
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	if gone {
		return models.NewNotFoundError("Comment", comment.ID)
	}
	return nil
}

// SetModeration records an admin decision on a pending comment.
func (r *commentRepository) SetModeration(ctx context.Context, id uint, status models.ModerationStatus, by uint, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&models.Comment{}).
		Where("id = ? AND moderation_status = ?", id, models.ModerationPending).
		Updates(map[string]any{"moderation_status": status, "moderated_by": by, "moderated_at": at})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewConflictError("Comment is not pending moderation")
	}
	return nil
}
