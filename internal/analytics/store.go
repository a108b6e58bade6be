// Package analytics records post views and answers the dashboard queries
// over them. Events go to the SQL database by default or to MongoDB.
package analytics

import (
	"context"
	"fmt"
	"time"

	"inkraft/internal/models"
)

// Store backends.
const (
	StoreSQL   = "sql"
	StoreMongo = "mongo"
)

// Range selects view events by day bucket, inclusive on both ends. A zero
// AuthorID means site-wide.
type Range struct {
	AuthorID uint
	From     string
	To       string
}

// LastDays builds the range covering the last n days up to now, today included.
func LastDays(now time.Time, n int, authorID uint) Range {
	if n <= 0 {
		n = 30
	}
	now = now.UTC()
	return Range{
		AuthorID: authorID,
		From:     now.AddDate(0, 0, -(n - 1)).Format(models.DayLayout),
		To:       now.Format(models.DayLayout),
	}
}

// Store persists view events and aggregates them.
type Store interface {
	Name() string
	RecordView(ctx context.Context, ev models.ViewEvent) error
	ViewsByDay(ctx context.Context, r Range) ([]models.DayCount, error)
	TopPosts(ctx context.Context, r Range, limit int) ([]models.PostViews, error)
	TotalViews(ctx context.Context, r Range) (int64, error)
}

// NewEvent stamps the day bucket of a view at occurredAt.
func NewEvent(postID, authorID uint, viewerID *uint, visitorHash, referrer string, occurredAt time.Time) models.ViewEvent {
	occurredAt = occurredAt.UTC()
	return models.ViewEvent{
		PostID:      postID,
		AuthorID:    authorID,
		ViewerID:    viewerID,
		VisitorHash: visitorHash,
		Referrer:    referrer,
		OccurredAt:  occurredAt,
		Day:         occurredAt.Format(models.DayLayout),
	}
}

// FillDays returns one bucket per day of r, in order, with zero counts for
// days without views.
func FillDays(r Range, counts []models.DayCount) ([]models.DayCount, error) {
	from, err := time.Parse(models.DayLayout, r.From)
	if err != nil {
		return nil, fmt.Errorf("parse range start: %w", err)
	}
	to, err := time.Parse(models.DayLayout, r.To)
	if err != nil {
		return nil, fmt.Errorf("parse range end: %w", err)
	}
	byDay := make(map[string]int64, len(counts))
	for _, c := range counts {
		byDay[c.Day] = c.Count
	}
	var out []models.DayCount
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		key := d.Format(models.DayLayout)
		out = append(out, models.DayCount{Day: key, Count: byDay[key]})
	}
	return out, nil
}
