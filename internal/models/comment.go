package models

import "time"

// ModerationStatus defines the review state of a comment.
type ModerationStatus string

const (
	// ModerationPending indicates the comment awaits an admin decision.
	ModerationPending ModerationStatus = "pending"
	// ModerationApproved indicates the comment is publicly visible.
	ModerationApproved ModerationStatus = "approved"
	// ModerationRejected indicates the comment was declined.
	ModerationRejected ModerationStatus = "rejected"
)

// MaxCommentDepth is the deepest reply level allowed (0 is top level).
const MaxCommentDepth = 2

// DeletedCommentPlaceholder replaces the content of deleted comments kept in a thread.
const DeletedCommentPlaceholder = "[deleted]"

// Comment represents a comment on a post.
type Comment struct {
	ID               uint             `gorm:"primaryKey" json:"id"`
	Content          string           `gorm:"type:text;not null" json:"content"`
	PostID           uint             `gorm:"not null;index" json:"post_id"`
	UserID           uint             `gorm:"not null;index" json:"user_id"`
	User             *User            `gorm:"foreignKey:UserID" json:"user,omitempty"`
	ParentID         *uint            `gorm:"index" json:"parent_id,omitempty"`
	Depth            int              `gorm:"not null;default:0" json:"depth"`
	ModerationStatus ModerationStatus `gorm:"type:varchar(16);not null;default:'pending';index" json:"moderation_status"`
	ModeratedBy      *uint            `json:"moderated_by,omitempty"`
	ModeratedAt      *time.Time       `json:"moderated_at,omitempty"`
	Deleted          bool             `gorm:"not null;default:false;index" json:"deleted"`
	DeletedAt        *time.Time       `json:"-"`
	DeletedBy        *uint            `json:"-"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`

	Replies []*Comment `gorm:"-" json:"replies,omitempty"`
}
