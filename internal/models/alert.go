package models

import "time"

// AlertType classifies an abuse signal raised by the detection job.
type AlertType string

const (
	AlertVoteSpike          AlertType = "vote_spike"
	AlertSpamVelocity       AlertType = "spam_velocity"
	AlertLowTrustEngagement AlertType = "low_trust_engagement"
	AlertRepeatedReports    AlertType = "repeated_reports"
	AlertSuspiciousActivity AlertType = "suspicious_activity"
)

// Valid reports whether t belongs to the alert taxonomy.
func (t AlertType) Valid() bool {
	switch t {
	case AlertVoteSpike, AlertSpamVelocity, AlertLowTrustEngagement, AlertRepeatedReports, AlertSuspiciousActivity:
		return true
	}
	return false
}

// AlertStatus is open until an admin resolves the alert.
type AlertStatus string

const (
	AlertOpen     AlertStatus = "open"
	AlertResolved AlertStatus = "resolved"
)

// AlertAction is the resolution an admin applies to an alert.
type AlertAction string

const (
	ActionDismiss      AlertAction = "dismiss"
	ActionBanUser      AlertAction = "ban_user"
	ActionFreezeTrust  AlertAction = "freeze_trust"
	ActionNullifyVotes AlertAction = "nullify_votes"
)

// Valid reports whether a is a known resolution action.
func (a AlertAction) Valid() bool {
	switch a {
	case ActionDismiss, ActionBanUser, ActionFreezeTrust, ActionNullifyVotes:
		return true
	}
	return false
}

// Alert is an admin-facing abuse signal about a user, optionally tied to a post.
type Alert struct {
	ID               uint        `gorm:"primaryKey" json:"id"`
	Type             AlertType   `gorm:"type:varchar(32);not null;index" json:"type"`
	Status           AlertStatus `gorm:"type:varchar(16);not null;default:'open';index" json:"status"`
	TargetUserID     uint        `gorm:"not null;index" json:"target_user_id"`
	TargetUser       *User       `gorm:"foreignKey:TargetUserID" json:"target_user,omitempty"`
	TargetPostID     *uint       `gorm:"index" json:"target_post_id,omitempty"`
	Details          string      `gorm:"type:text" json:"details"`
	ResolutionAction AlertAction `gorm:"type:varchar(32)" json:"resolution_action,omitempty"`
	ResolvedByUserID *uint       `json:"resolved_by_user_id,omitempty"`
	ResolvedAt       *time.Time  `json:"resolved_at,omitempty"`
	CreatedAt        time.Time   `gorm:"index" json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}
