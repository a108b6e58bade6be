package repository

import (
	"context"
	"time"

	"inkraft/internal/models"

	"gorm.io/gorm"
)

// AlertFilter narrows alert listings.
type AlertFilter struct {
	Status       models.AlertStatus
	Type         models.AlertType
	TargetUserID uint
	Limit        int
	Offset       int
}

// AlertRepository persists admin alerts.
type AlertRepository interface {
	Create(ctx context.Context, alert *models.Alert) error
	GetByID(ctx context.Context, id uint) (*models.Alert, error)
	List(ctx context.Context, f AlertFilter) ([]models.Alert, int64, error)
	CountOpen(ctx context.Context) (int64, error)
	Resolve(ctx context.Context, id uint, action models.AlertAction, by uint, at time.Time) error
}

type alertRepository struct {
	db *gorm.DB
}

// NewAlertRepository creates a new AlertRepository
func NewAlertRepository(db *gorm.DB) AlertRepository {
	return &alertRepository{db: db}
}

func (r *alertRepository) Create(ctx context.Context, alert *models.Alert) error {
	if err := r.db.WithContext(ctx).Create(alert).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *alertRepository) GetByID(ctx context.Context, id uint) (*models.Alert, error) {
	var alert models.Alert
	if err := r.db.WithContext(ctx).Preload("TargetUser", preloadPublicUser).First(&alert, id).Error; err != nil {
		return nil, notFoundOr(err, "Alert", id)
	}
	return &alert, nil
}

func (r *alertRepository) List(ctx context.Context, f AlertFilter) ([]models.Alert, int64, error) {
	limit, offset := Page(f.Limit, f.Offset)
	q := r.db.WithContext(ctx).Model(&models.Alert{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if f.TargetUserID != 0 {
		q = q.Where("target_user_id = ?", f.TargetUserID)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	var alerts []models.Alert
	err := q.Preload("TargetUser", preloadPublicUser).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&alerts).Error
	if err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return alerts, total, nil
}

func (r *alertRepository) CountOpen(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Alert{}).Where("status = ?", models.AlertOpen).Count(&n).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}

// Resolve closes an open alert. Resolving a resolved alert is a conflict.
func (r *alertRepository) Resolve(ctx context.Context, id uint, action models.AlertAction, by uint, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&models.Alert{}).
		Where("id = ? AND status = ?", id, models.AlertOpen).
		Updates(map[string]any{
			"status":              models.AlertResolved,
			"resolution_action":   action,
			"resolved_by_user_id": by,
			"resolved_at":         at,
		})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewConflictError("Alert already resolved")
	}
	return nil
}
