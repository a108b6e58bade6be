package repository

import (
	"context"
	"time"

	"inkraft/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LibraryRepository stores a reader's saved posts and reading history.
type LibraryRepository interface {
	Save(ctx context.Context, userID, postID uint) error
	Unsave(ctx context.Context, userID, postID uint) error
	ListSaved(ctx context.Context, userID uint, limit, offset int) ([]models.SavedPost, error)
	RecordProgress(ctx context.Context, userID, postID uint, progress int, at time.Time) error
	ListHistory(ctx context.Context, userID uint, limit, offset int) ([]models.ReadingHistory, error)
	ClearHistory(ctx context.Context, userID uint) (int64, error)
}

type libraryRepository struct {
	db *gorm.DB
}

// NewLibraryRepository creates a new LibraryRepository
func NewLibraryRepository(db *gorm.DB) LibraryRepository {
	return &libraryRepository{db: db}
}

func preloadLivePost(db *gorm.DB) *gorm.DB {
	return db.Where("deleted = ?", false)
}

// Save is idempotent.
func (r *libraryRepository) Save(ctx context.Context, userID, postID uint) error {
	s := models.SavedPost{UserID: userID, PostID: postID}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&s).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *libraryRepository) Unsave(ctx context.Context, userID, postID uint) error {
	res := r.db.WithContext(ctx).Where("user_id = ? AND post_id = ?", userID, postID).Delete(&models.SavedPost{})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Saved post", postID)
	}
	return nil
}

func (r *libraryRepository) ListSaved(ctx context.Context, userID uint, limit, offset int) ([]models.SavedPost, error) {
	limit, offset = Page(limit, offset)
	var saved []models.SavedPost
	err := r.db.WithContext(ctx).
		Preload("Post", preloadLivePost).
		Preload("Post.Author", preloadPublicUser).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&saved).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return saved, nil
}

// RecordProgress upserts the reader's position in a post.
func (r *libraryRepository) RecordProgress(ctx context.Context, userID, postID uint, progress int, at time.Time) error {
	h := models.ReadingHistory{UserID: userID, PostID: postID, Progress: progress, LastReadAt: at}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "post_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"progress", "last_read_at"}),
	}).Create(&h).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *libraryRepository) ListHistory(ctx context.Context, userID uint, limit, offset int) ([]models.ReadingHistory, error) {
	limit, offset = Page(limit, offset)
	var history []models.ReadingHistory
	err := r.db.WithContext(ctx).
		Preload("Post", preloadLivePost).
		Preload("Post.Author", preloadPublicUser).
		Where("user_id = ?", userID).
		Order("last_read_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&history).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return history, nil
}

func (r *libraryRepository) ClearHistory(ctx context.Context, userID uint) (int64, error) {
	res := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.ReadingHistory{})
	if res.Error != nil {
		return 0, models.NewInternalError(res.Error)
	}
	return res.RowsAffected, nil
}
