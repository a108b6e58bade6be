package models

import "time"

// SEO holds search metadata edited alongside a post.
type SEO struct {
	MetaTitle       string   `gorm:"size:70" json:"meta_title"`
	MetaDescription string   `gorm:"size:160" json:"meta_description"`
	CanonicalURL    string   `json:"canonical_url"`
	OGImage         string   `json:"og_image"`
	Keywords        []string `gorm:"type:text;serializer:json" json:"keywords"`
}

// Post represents an article on Inkraft.
type Post struct {
	ID            uint         `gorm:"primaryKey" json:"id"`
	Slug          string       `gorm:"size:160;uniqueIndex;not null" json:"slug"`
	Title         string       `gorm:"size:300;not null" json:"title"`
	Content       string       `gorm:"type:text;not null" json:"content"`
	Excerpt       string       `gorm:"type:text" json:"excerpt"`
	AuthorID      uint         `gorm:"not null;index" json:"author_id"`
	Author        *User        `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	CategoryID    *uint        `gorm:"index" json:"category_id,omitempty"`
	Category      *Category    `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Tags          []string     `gorm:"type:text;serializer:json" json:"tags"`
	PublicationID *uint        `gorm:"index" json:"publication_id,omitempty"`
	Publication   *Publication `gorm:"foreignKey:PublicationID" json:"publication,omitempty"`
	Published     bool         `gorm:"not null;default:false;index" json:"published"`
	PublishedAt   *time.Time   `gorm:"index" json:"published_at,omitempty"`
	EditorsPick   bool         `gorm:"not null;default:false;index" json:"editors_pick"`
	SEO           SEO          `gorm:"embedded;embeddedPrefix:seo_" json:"seo"`
	Views         int64        `gorm:"not null;default:0" json:"views"`
	Upvotes       float64      `gorm:"not null;default:0" json:"upvotes"`
	Downvotes     float64      `gorm:"not null;default:0" json:"downvotes"`
	CommentCount  int          `gorm:"not null;default:0" json:"comment_count"`
	Deleted       bool         `gorm:"not null;default:false;index" json:"-"`
	DeletedAt     *time.Time   `json:"-"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`

	// Score is computed per request by the ranking package and never persisted.
	Score float64 `gorm:"-" json:"score,omitempty"`
}

// AgeAt returns how long the post has been published at now. Drafts fall
// back to their creation time.
func (p *Post) AgeAt(now time.Time) time.Duration {
	from := p.CreatedAt
	if p.PublishedAt != nil {
		from = *p.PublishedAt
	}
	if d := now.Sub(from); d > 0 {
		return d
	}
	return 0
}

// Category groups posts by topic.
type Category struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Slug        string    `gorm:"size:64;uniqueIndex;not null" json:"slug"`
	Name        string    `gorm:"size:120;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// VoteDirection is +1 for an upvote and -1 for a downvote.
type VoteDirection int

const (
	VoteUp   VoteDirection = 1
	VoteDown VoteDirection = -1
)

// VoteAction is what casting a vote did to the user's existing vote.
type VoteAction string

const (
	VoteAdded   VoteAction = "added"
	VoteRemoved VoteAction = "removed"
	VoteFlipped VoteAction = "flipped"
)

// Vote is one user's trust-weighted vote on a post.
type Vote struct {
	ID        uint          `gorm:"primaryKey" json:"id"`
	UserID    uint          `gorm:"not null;uniqueIndex:idx_vote_user_post" json:"user_id"`
	PostID    uint          `gorm:"not null;uniqueIndex:idx_vote_user_post;index" json:"post_id"`
	Direction VoteDirection `gorm:"not null" json:"direction"`
	Weight    float64       `gorm:"not null" json:"weight"`
	CreatedAt time.Time     `gorm:"index" json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// SavedPost is an entry of a user's library.
type SavedPost struct {
	UserID    uint      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	PostID    uint      `gorm:"primaryKey;autoIncrement:false" json:"post_id"`
	Post      *Post     `gorm:"foreignKey:PostID" json:"post,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ReadingHistory tracks how far a user got through a post.
type ReadingHistory struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null;uniqueIndex:idx_history_user_post" json:"user_id"`
	PostID     uint      `gorm:"not null;uniqueIndex:idx_history_user_post" json:"post_id"`
	Post       *Post     `gorm:"foreignKey:PostID" json:"post,omitempty"`
	Progress   int       `gorm:"not null;default:0" json:"progress"`
	LastReadAt time.Time `gorm:"index" json:"last_read_at"`
}

// TableName keeps the history table name singular-free.
func (ReadingHistory) TableName() string {
	return "reading_history"
}

// RankScore exposes Score to the ranking package.
func (p *Post) RankScore() float64 {
	return p.Score
}
