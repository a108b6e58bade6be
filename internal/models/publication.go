package models

import "time"

// Publication is a named collection of posts run by an owner and its editors.
type Publication struct {
	ID          uint                `gorm:"primaryKey" json:"id"`
	Slug        string              `gorm:"size:64;uniqueIndex;not null" json:"slug"`
	Name        string              `gorm:"size:120;not null" json:"name"`
	Description string              `gorm:"type:text" json:"description"`
	OwnerID     uint                `gorm:"not null;index" json:"owner_id"`
	Owner       *User               `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Members     []PublicationMember `gorm:"foreignKey:PublicationID" json:"members,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// PublicationMember maps an editor to a publication.
type PublicationMember struct {
	PublicationID uint      `gorm:"primaryKey;autoIncrement:false" json:"publication_id"`
	UserID        uint      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	User          *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Digest is a curated, ordered list of posts published on its own.
type Digest struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	Slug        string       `gorm:"size:160;uniqueIndex;not null" json:"slug"`
	Title       string       `gorm:"size:300;not null" json:"title"`
	Intro       string       `gorm:"type:text" json:"intro"`
	CuratorID   uint         `gorm:"not null;index" json:"curator_id"`
	Curator     *User        `gorm:"foreignKey:CuratorID" json:"curator,omitempty"`
	Published   bool         `gorm:"not null;default:false;index" json:"published"`
	PublishedAt *time.Time   `json:"published_at,omitempty"`
	Items       []DigestItem `gorm:"foreignKey:DigestID" json:"items,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// DigestItem places a post at a position inside a digest.
type DigestItem struct {
	DigestID  uint      `gorm:"primaryKey;autoIncrement:false" json:"digest_id"`
	PostID    uint      `gorm:"primaryKey;autoIncrement:false" json:"post_id"`
	Post      *Post     `gorm:"foreignKey:PostID" json:"post,omitempty"`
	Position  int       `gorm:"not null" json:"position"`
	Note      string    `gorm:"type:text" json:"note"`
	CreatedAt time.Time `json:"created_at"`
}
