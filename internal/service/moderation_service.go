package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"inkraft/internal/models"
	"inkraft/internal/notifications"
	"inkraft/internal/observability"
	"inkraft/internal/repository"
	"inkraft/internal/trust"
)

const maxAlertDetailsLen = 4000

// AdminUserDetail aggregates a user and their moderation history for admin views.
type AdminUserDetail struct {
	User           models.User       `json:"user"`
	RecentComments []*models.Comment `json:"recent_comments"`
	Alerts         []models.Alert    `json:"alerts"`
	Warnings       []string          `json:"warnings,omitempty"`
}

type CreateAlertInput struct {
	Type         models.AlertType
	TargetUserID uint
	TargetPostID *uint
	Details      string
}

// AdminUserUpdate changes a user's standing. Nil fields are left unchanged.
type AdminUserUpdate struct {
	Role         *models.Role
	Banned       *bool
	BannedReason string
	TrustScore   *float64
	TrustFrozen  *bool
}

// ModerationService provides admin moderation: alerts and user standing.
type ModerationService struct {
	alerts   repository.AlertRepository
	users    repository.UserRepository
	votes    repository.VoteRepository
	comments repository.CommentRepository
	notifier *notifications.Notifier
	now      func() time.Time
}

// NewModerationService returns a new ModerationService.
func NewModerationService(
	alerts repository.AlertRepository,
	users repository.UserRepository,
	votes repository.VoteRepository,
	comments repository.CommentRepository,
	notifier *notifications.Notifier,
) *ModerationService {
	return &ModerationService{
		alerts:   alerts,
		users:    users,
		votes:    votes,
		comments: comments,
		notifier: notifier,
		now:      utcNow,
	}
}

// CreateAlert records an abuse signal raised by the detection job.
func (s *ModerationService) CreateAlert(ctx context.Context, in CreateAlertInput) (*models.Alert, error) {
	if !in.Type.Valid() {
		return nil, models.NewValidationError("Unknown alert type")
	}
	if len(in.Details) > maxAlertDetailsLen {
		return nil, models.NewValidationError("Details too long (max 4000 characters)")
	}
	if _, err := s.users.GetByID(ctx, in.TargetUserID); err != nil {
		return nil, err
	}
	alert := &models.Alert{
		Type:         in.Type,
		Status:       models.AlertOpen,
		TargetUserID: in.TargetUserID,
		TargetPostID: in.TargetPostID,
		Details:      in.Details,
	}
	if err := s.alerts.Create(ctx, alert); err != nil {
		return nil, err
	}
	return s.alerts.GetByID(ctx, alert.ID)
}

func (s *ModerationService) ListAlerts(ctx context.Context, f repository.AlertFilter) ([]models.Alert, int64, error) {
	if f.Status != "" && f.Status != models.AlertOpen && f.Status != models.AlertResolved {
		return nil, 0, models.NewValidationError("status must be open or resolved")
	}
	if f.Type != "" && !f.Type.Valid() {
		return nil, 0, models.NewValidationError("Unknown alert type")
	}
	return s.alerts.List(ctx, f)
}

// ResolveAlert applies action to the alert's target and marks it resolved.
func (s *ModerationService) ResolveAlert(ctx context.Context, adminID, alertID uint, action models.AlertAction) (*models.Alert, error) {
	if !action.Valid() {
		return nil, models.NewValidationError("action must be one of dismiss, ban_user, freeze_trust, nullify_votes")
	}
	alert, err := s.alerts.GetByID(ctx, alertID)
	if err != nil {
		return nil, err
	}
	if alert.Status == models.AlertResolved {
		return nil, models.NewConflictError("Alert already resolved")
	}

	fields := map[string]interface{}{"alert_type": string(alert.Type)}
	switch action {
	case models.ActionBanUser:
		if err := s.ban(ctx, adminID, alert.TargetUserID, "Alert "+string(alert.Type)); err != nil {
			return nil, err
		}
	case models.ActionFreezeTrust:
		if err := s.users.UpdateFields(ctx, alert.TargetUserID, map[string]any{"trust_frozen": true}); err != nil {
			return nil, err
		}
	case models.ActionNullifyVotes:
		removed, err := s.votes.NullifyUserVotes(ctx, alert.TargetUserID, alert.TargetPostID)
		if err != nil {
			return nil, err
		}
		fields["votes_removed"] = removed
	}

	if err := s.alerts.Resolve(ctx, alert.ID, action, adminID, s.now()); err != nil {
		return nil, err
	}
	observability.AlertsResolved.WithLabelValues(string(action)).Inc()
	observability.NewAuditLogger().LogAdminAction(ctx, adminID, "resolve_alert_"+string(action), "user", alert.TargetUserID, fields)
	return s.alerts.GetByID(ctx, alert.ID)
}

func (s *ModerationService) ban(ctx context.Context, adminID, userID uint, reason string) error {
	if adminID == userID {
		return models.NewValidationError("You cannot ban yourself")
	}
	target, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if target.IsAdmin() {
		return models.NewForbiddenError("Admins cannot be banned")
	}
	if target.IsBanned {
		return nil
	}
	now := s.now()
	err = s.users.UpdateFields(ctx, userID, map[string]any{
		"is_banned":         true,
		"banned_at":         now,
		"banned_reason":     reason,
		"banned_by_user_id": adminID,
	})
	if err != nil {
		return err
	}
	if err := s.notifier.Notify(ctx, userID, notifications.Event{Type: notifications.EventAccountBanned, ActorID: adminID, Message: reason}); err != nil {
		slog.WarnContext(ctx, "failed to publish ban notification", "user_id", userID, "err", err)
	}
	return nil
}

// UpdateUser applies an admin change to a user's role, ban state or trust.
func (s *ModerationService) UpdateUser(ctx context.Context, adminID, userID uint, in AdminUserUpdate) (*models.User, error) {
	target, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if in.Role != nil {
		if !in.Role.Valid() {
			return nil, models.NewValidationError("role must be admin, author or reader")
		}
		if adminID == userID && *in.Role != models.RoleAdmin {
			return nil, models.NewValidationError("You cannot demote yourself")
		}
		fields["role"] = *in.Role
	}
	if in.TrustScore != nil {
		if *in.TrustScore < trust.MinWeight || *in.TrustScore > trust.MaxWeight {
			return nil, models.NewValidationError("trust_score must be between 0.1 and 3.0")
		}
		fields["trust_score"] = *in.TrustScore
	}
	if in.TrustFrozen != nil {
		fields["trust_frozen"] = *in.TrustFrozen
	}
	if in.Banned != nil && !*in.Banned && target.IsBanned {
		fields["is_banned"] = false
		fields["banned_at"] = nil
		fields["banned_reason"] = ""
		fields["banned_by_user_id"] = nil
	}

	if len(fields) > 0 {
		if err := s.users.UpdateFields(ctx, userID, fields); err != nil {
			return nil, err
		}
	}
	if in.Banned != nil && *in.Banned {
		reason := strings.TrimSpace(in.BannedReason)
		if reason == "" {
			reason = "Banned by an administrator"
		}
		if err := s.ban(ctx, adminID, userID, reason); err != nil {
			return nil, err
		}
	}

	observability.NewAuditLogger().LogAdminAction(ctx, adminID, "update_user", "user", userID, map[string]interface{}{
		"role_changed":   in.Role != nil,
		"banned":         in.Banned,
		"trust_changed":  in.TrustScore != nil,
		"frozen_changed": in.TrustFrozen != nil,
	})
	return s.users.GetByID(ctx, userID)
}

func (s *ModerationService) ListUsers(ctx context.Context, f repository.UserFilter) ([]models.User, int64, error) {
	if f.Role != "" && !f.Role.Valid() {
		return nil, 0, models.NewValidationError("role must be admin, author or reader")
	}
	return s.users.List(ctx, f)
}

// GetAdminUserDetail returns a user with their recent comments and alerts.
// Failures loading the history degrade to warnings.
func (s *ModerationService) GetAdminUserDetail(ctx context.Context, userID uint) (*AdminUserDetail, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	detail := &AdminUserDetail{User: *user}

	comments, _, err := s.comments.List(ctx, repository.CommentFilter{UserID: userID, IncludeDeleted: true, Limit: 50})
	if err != nil {
		slog.WarnContext(ctx, "failed to load comments for user", "user_id", userID, "err", err)
		detail.Warnings = append(detail.Warnings, "Partial data: Comments could not be loaded.")
	}
	detail.RecentComments = comments

	alerts, _, err := s.alerts.List(ctx, repository.AlertFilter{TargetUserID: userID, Limit: 50})
	if err != nil {
		slog.WarnContext(ctx, "failed to load alerts for user", "user_id", userID, "err", err)
		detail.Warnings = append(detail.Warnings, "Partial data: Alerts could not be loaded.")
	}
	detail.Alerts = alerts
	return detail, nil
}
