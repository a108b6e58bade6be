package repository

import (
	"context"

	"inkraft/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PublicationRepository stores publications and their editors.
type PublicationRepository interface {
	Create(ctx context.Context, pub *models.Publication) error
	GetBySlug(ctx context.Context, slug string) (*models.Publication, error)
	GetByID(ctx context.Context, id uint) (*models.Publication, error)
	List(ctx context.Context, limit, offset int) ([]models.Publication, error)
	AddMember(ctx context.Context, publicationID, userID uint) error
	IsMember(ctx context.Context, publicationID, userID uint) (bool, error)
}

type publicationRepository struct {
	db *gorm.DB
}

// NewPublicationRepository creates a new PublicationRepository
func NewPublicationRepository(db *gorm.DB) PublicationRepository {
	return &publicationRepository{db: db}
}

func (r *publicationRepository) Create(ctx context.Context, pub *models.Publication) error {
	if err := r.db.WithContext(ctx).Create(pub).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("Publication slug already in use")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *publicationRepository) withMembers(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Owner", preloadPublicUser).
		Preload("Members", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Members.User", preloadPublicUser)
}

func (r *publicationRepository) GetBySlug(ctx context.Context, slug string) (*models.Publication, error) {
	var pub models.Publication
	if err := r.withMembers(r.db.WithContext(ctx)).Where("slug = ?", slug).First(&pub).Error; err != nil {
		return nil, notFoundOr(err, "Publication", slug)
	}
	return &pub, nil
}

func (r *publicationRepository) GetByID(ctx context.Context, id uint) (*models.Publication, error) {
	var pub models.Publication
	if err := r.withMembers(r.db.WithContext(ctx)).First(&pub, id).Error; err != nil {
		return nil, notFoundOr(err, "Publication", id)
	}
	return &pub, nil
}

func (r *publicationRepository) List(ctx context.Context, limit, offset int) ([]models.Publication, error) {
	limit, offset = Page(limit, offset)
	var pubs []models.Publication
	err := r.db.WithContext(ctx).
		Preload("Owner", preloadPublicUser).
		Order("name ASC").
		Limit(limit).
		Offset(offset).
		Find(&pubs).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return pubs, nil
}

// AddMember is idempotent.
func (r *publicationRepository) AddMember(ctx context.Context, publicationID, userID uint) error {
	m := models.PublicationMember{PublicationID: publicationID, UserID: userID}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&m).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *publicationRepository) IsMember(ctx context.Context, publicationID, userID uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.PublicationMember{}).
		Where("publication_id = ? AND user_id = ?", publicationID, userID).
		Count(&n).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return n > 0, nil
}
