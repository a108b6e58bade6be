// Package models contains data structures for the application's domain models.
package models

import "time"

// Role is a user's platform-wide role.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleAuthor Role = "author"
	RoleReader Role = "reader"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleAuthor, RoleReader:
		return true
	}
	return false
}

// DefaultTrustScore is assigned to every new account.
const DefaultTrustScore = 1.0

// User represents an account on Inkraft.
type User struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	Username       string     `gorm:"size:40;uniqueIndex;not null" json:"username"`
	Email          string     `gorm:"size:254;uniqueIndex;not null" json:"email,omitempty"`
	Password       string     `gorm:"not null" json:"-"`
	Name           string     `gorm:"size:120" json:"name"`
	Bio            string     `gorm:"type:text" json:"bio"`
	Avatar         string     `json:"avatar"`
	Role           Role       `gorm:"type:varchar(16);not null;default:'author';index" json:"role"`
	IsBanned       bool       `gorm:"not null;default:false" json:"is_banned"`
	BannedAt       *time.Time `json:"banned_at,omitempty"`
	BannedReason   string     `gorm:"type:text" json:"banned_reason,omitempty"`
	BannedByUserID *uint      `json:"banned_by_user_id,omitempty"`
	TrustScore     float64    `gorm:"not null;default:1" json:"trust_score"`
	TrustFrozen    bool       `gorm:"not null;default:false" json:"trust_frozen"`
	CommentCount   int        `gorm:"not null;default:0" json:"comment_count"`
	TotalUpvotes   int        `gorm:"not null;default:0" json:"total_upvotes"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// CanAuthor reports whether the user may write posts.
func (u *User) CanAuthor() bool {
	return u != nil && (u.Role == RoleAuthor || u.Role == RoleAdmin)
}

// Public returns a copy without private fields, for embedding in other resources.
func (u User) Public() User {
	u.Email = ""
	u.BannedReason = ""
	u.BannedByUserID = nil
	return u
}

// Follow links a follower to either an author or a category.
type Follow struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	FollowerID uint      `gorm:"not null;uniqueIndex:idx_follow_target" json:"follower_id"`
	AuthorID   *uint     `gorm:"uniqueIndex:idx_follow_target" json:"author_id,omitempty"`
	CategoryID *uint     `gorm:"uniqueIndex:idx_follow_target" json:"category_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
