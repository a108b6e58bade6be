package models

import "time"

// DayLayout is the format of ViewEvent.Day buckets.
const DayLayout = "2006-01-02"

// ViewEvent records a single read of a published post.
type ViewEvent struct {
	ID          uint      `gorm:"primaryKey" json:"id" bson:"-"`
	PostID      uint      `gorm:"not null;index" json:"post_id" bson:"post_id"`
	AuthorID    uint      `gorm:"not null;index:idx_view_author_day" json:"author_id" bson:"author_id"`
	ViewerID    *uint     `json:"viewer_id,omitempty" bson:"viewer_id,omitempty"`
	VisitorHash string    `gorm:"size:64" json:"visitor_hash" bson:"visitor_hash"`
	Referrer    string    `json:"referrer" bson:"referrer"`
	OccurredAt  time.Time `gorm:"not null" json:"occurred_at" bson:"occurred_at"`
	Day         string    `gorm:"size:10;not null;index;index:idx_view_author_day" json:"day" bson:"day"`
}

// DayCount is one bucket of a views-by-day series.
type DayCount struct {
	Day   string `json:"day" bson:"_id"`
	Count int64  `json:"count" bson:"count"`
}

// PostViews ranks a post by views over a period.
type PostViews struct {
	PostID uint  `json:"post_id" bson:"_id"`
	Views  int64 `json:"views" bson:"views"`
}
