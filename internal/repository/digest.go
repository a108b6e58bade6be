package repository

import (
	"context"
	"database/sql"
	"time"

	"inkraft/internal/models"

	"gorm.io/gorm"
)

// DigestRepository stores digests and their ordered items.
type DigestRepository interface {
	Create(ctx context.Context, d *models.Digest) error
	GetBySlug(ctx context.Context, slug string) (*models.Digest, error)
	ListPublished(ctx context.Context, limit, offset int) ([]models.Digest, error)
	AddItem(ctx context.Context, item *models.DigestItem) error
	RemoveItem(ctx context.Context, digestID, postID uint) error
	Reorder(ctx context.Context, digestID uint, postIDs []uint) error
	Publish(ctx context.Context, id uint, at time.Time) error
}

type digestRepository struct {
	db *gorm.DB
}

// NewDigestRepository creates a new DigestRepository
func NewDigestRepository(db *gorm.DB) DigestRepository {
	return &digestRepository{db: db}
}

func (r *digestRepository) Create(ctx context.Context, d *models.Digest) error {
	if err := r.db.WithContext(ctx).Create(d).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("Digest slug already in use")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *digestRepository) GetBySlug(ctx context.Context, slug string) (*models.Digest, error) {
	var d models.Digest
	err := r.db.WithContext(ctx).
		Preload("Curator", preloadPublicUser).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Items.Post", preloadLivePost).
		Preload("Items.Post.Author", preloadPublicUser).
		Where("slug = ?", slug).
		First(&d).Error
	if err != nil {
		return nil, notFoundOr(err, "Digest", slug)
	}
	return &d, nil
}

func (r *digestRepository) ListPublished(ctx context.Context, limit, offset int) ([]models.Digest, error) {
	limit, offset = Page(limit, offset)
	var digests []models.Digest
	err := r.db.WithContext(ctx).
		Preload("Curator", preloadPublicUser).
		Where("published = ?", true).
		Order("published_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&digests).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return digests, nil
}

// AddItem appends the post at the end of the digest.
func (r *digestRepository) AddItem(ctx context.Context, item *models.DigestItem) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var maxPos sql.NullInt64
		if err := tx.Model(&models.DigestItem{}).
			Where("digest_id = ?", item.DigestID).
			Select("MAX(position)").
			Row().Scan(&maxPos); err != nil {
			return err
		}
		item.Position = 0
		if maxPos.Valid {
			item.Position = int(maxPos.Int64) + 1
		}
		return tx.Create(item).Error
	})
	if err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("Post is already in this digest")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *digestRepository) RemoveItem(ctx context.Context, digestID, postID uint) error {
	res := r.db.WithContext(ctx).
		Where("digest_id = ? AND post_id = ?", digestID, postID).
		Delete(&models.DigestItem{})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Digest item", postID)
	}
	return nil
}

// Reorder assigns positions following postIDs, which must name exactly the
// digest's current items.
func (r *digestRepository) Reorder(ctx context.Context, digestID uint, postIDs []uint) error {
	var invalid bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current []uint
		if err := tx.Model(&models.DigestItem{}).Where("digest_id = ?", digestID).Pluck("post_id", &current).Error; err != nil {
			return err
		}
		if !sameIDs(current, postIDs) {
			invalid = true
			return nil
		}
		for pos, postID := range postIDs {
			if err := tx.Model(&models.DigestItem{}).
				Where("digest_id = ? AND post_id = ?", digestID, postID).
				UpdateColumn("position", pos).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	if invalid {
		return models.NewValidationError("Order must list every item of the digest exactly once")
	}
	return nil
}

func sameIDs(a, b []uint) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[uint]int, len(a))
	for _, id := range a {
		seen[id]++
	}
	for _, id := range b {
		if seen[id] == 0 {
			return false
		}
		seen[id]--
	}
	return true
}

func (r *digestRepository) Publish(ctx context.Context, id uint, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&models.Digest{}).
		Where("id = ?", id).
		Updates(map[string]any{"published": true, "published_at": at})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Digest", id)
	}
	return nil
}
