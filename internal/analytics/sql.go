package analytics

import (
	"context"
	"fmt"

	"inkraft/internal/models"
	"inkraft/internal/observability"

	"gorm.io/gorm"
)

// SQLStore keeps view events in the view_events table.
type SQLStore struct {
	db *gorm.DB
}

// NewSQLStore returns a Store backed by gorm.
func NewSQLStore(db *gorm.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) Name() string { return StoreSQL }

func (s *SQLStore) RecordView(ctx context.Context, ev models.ViewEvent) error {
	ctx, span := observability.GetTraceLayer().TraceRepositoryMethod(ctx, s.db.Dialector.Name(), "RecordView", "view_events")
	defer span.End()
	defer observability.TrackQuery("insert", "view_events")()
	if err := s.db.WithContext(ctx).Create(&ev).Error; err != nil {
		return fmt.Errorf("record view: %w", err)
	}
	observability.ViewsRecorded.WithLabelValues(StoreSQL).Inc()
	return nil
}

func (s *SQLStore) scoped(ctx context.Context, r Range) *gorm.DB {
	q := s.db.WithContext(ctx).Model(&models.ViewEvent{}).
		Where("day >= ? AND day <= ?", r.From, r.To)
	if r.AuthorID != 0 {
		q = q.Where("author_id = ?", r.AuthorID)
	}
	return q
}

func (s *SQLStore) ViewsByDay(ctx context.Context, r Range) ([]models.DayCount, error) {
	defer observability.TrackQuery("aggregate", "view_events")()
	var out []models.DayCount
	err := s.scoped(ctx, r).
		Select("day, COUNT(*) AS count").
		Group("day").
		Order("day ASC").
		Scan(&out).Error
	if err != nil {
		return nil, fmt.Errorf("views by day: %w", err)
	}
	return out, nil
}

func (s *SQLStore) TopPosts(ctx context.Context, r Range, limit int) ([]models.PostViews, error) {
	defer observability.TrackQuery("aggregate", "view_events")()
	if limit <= 0 {
		limit = 10
	}
	var out []models.PostViews
	err := s.scoped(ctx, r).
		Select("post_id, COUNT(*) AS views").
		Group("post_id").
		Order("views DESC, post_id ASC").
		Limit(limit).
		Scan(&out).Error
	if err != nil {
		return nil, fmt.Errorf("top posts: %w", err)
	}
	return out, nil
}

func (s *SQLStore) TotalViews(ctx context.Context, r Range) (int64, error) {
	var n int64
	if err := s.scoped(ctx, r).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("total views: %w", err)
	}
	return n, nil
}
