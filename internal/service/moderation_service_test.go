package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"inkraft/internal/models"
	"inkraft/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func moderationUsers() *userRepoStub {
	return usersByID(
		&models.User{ID: 9, Role: models.RoleAdmin},
		&models.User{ID: 8, Role: models.RoleAdmin},
		&models.User{ID: 20, Role: models.RoleAuthor, TrustScore: 1.4},
	)
}

func newTestModerationService(alerts *alertRepoStub, users *userRepoStub, votes *voteRepoStub) *ModerationService {
	svc := NewModerationService(alerts, users, votes, noopCommentRepo(), nil)
	svc.now = fixedClock
	return svc
}

func TestModerationService_CreateAlert(t *testing.T) {
	t.Parallel()

	var created *models.Alert
	alerts := noopAlertRepo()
	alerts.createFn = func(_ context.Context, a *models.Alert) error {
		a.ID = 3
		created = a
		return nil
	}
	svc := newTestModerationService(alerts, moderationUsers(), noopVoteRepo())
	ctx := context.Background()

	_, err := svc.CreateAlert(ctx, CreateAlertInput{Type: "brigading", TargetUserID: 20})
	assertValidationError(t, err)

	_, err = svc.CreateAlert(ctx, CreateAlertInput{Type: models.AlertSpamVelocity, TargetUserID: 404})
	assertCode(t, err, models.CodeNotFound)

	_, err = svc.CreateAlert(ctx, CreateAlertInput{Type: models.AlertSpamVelocity, TargetUserID: 20, TargetPostID: uintPtr(4), Details: "12 comments/min"})
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, models.AlertOpen, created.Status)
	assert.Equal(t, uint(4), *created.TargetPostID)
}

func TestModerationService_ResolveAlert_Actions(t *testing.T) {
	t.Parallel()

	t.Run("dismiss", func(t *testing.T) {
		t.Parallel()
		var resolved models.AlertAction
		alerts := noopAlertRepo()
		alerts.resolveFn = func(_ context.Context, id uint, action models.AlertAction, by uint, at time.Time) error {
			assert.Equal(t, uint(9), by)
			assert.Equal(t, fixedNow, at)
			resolved = action
			return nil
		}
		users := moderationUsers()
		users.updateFieldsFn = func(_ context.Context, _ uint, _ map[string]any) error {
			t.Error("dismiss must not touch the user")
			return nil
		}
		svc := newTestModerationService(alerts, users, noopVoteRepo())
		_, err := svc.ResolveAlert(context.Background(), 9, 1, models.ActionDismiss)
		require.NoError(t, err)
		assert.Equal(t, models.ActionDismiss, resolved)
	})

	t.Run("ban user", func(t *testing.T) {
		t.Parallel()
		var fields map[string]any
		users := moderationUsers()
		users.updateFieldsFn = func(_ context.Context, id uint, f map[string]any) error {
			assert.Equal(t, uint(20), id)
			fields = f
			return nil
		}
		svc := newTestModerationService(noopAlertRepo(), users, noopVoteRepo())
		_, err := svc.ResolveAlert(context.Background(), 9, 1, models.ActionBanUser)
		require.NoError(t, err)
		assert.Equal(t, true, fields["is_banned"])
		assert.Equal(t, uint(9), fields["banned_by_user_id"])
		assert.Equal(t, fixedNow, fields["banned_at"])
	})

	t.Run("freeze trust", func(t *testing.T) {
		t.Parallel()
		var fields map[string]any
		users := moderationUsers()
		users.updateFieldsFn = func(_ context.Context, _ uint, f map[string]any) error {
			fields = f
			return nil
		}
		svc := newTestModerationService(noopAlertRepo(), users, noopVoteRepo())
		_, err := svc.ResolveAlert(context.Background(), 9, 1, models.ActionFreezeTrust)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"trust_frozen": true}, fields)
	})

	t.Run("nullify votes scoped to the alert post", func(t *testing.T) {
		t.Parallel()
		alerts := noopAlertRepo()
		alerts.getByIDFn = func(_ context.Context, id uint) (*models.Alert, error) {
			return &models.Alert{ID: id, Status: models.AlertOpen, TargetUserID: 20, TargetPostID: uintPtr(4)}, nil
		}
		var gotUser uint
		var gotPost *uint
		votes := noopVoteRepo()
		votes.nullifyFn = func(_ context.Context, userID uint, postID *uint) (int64, error) {
			gotUser, gotPost = userID, postID
			return 3, nil
		}
		svc := newTestModerationService(alerts, moderationUsers(), votes)
		_, err := svc.ResolveAlert(context.Background(), 9, 1, models.ActionNullifyVotes)
		require.NoError(t, err)
		assert.Equal(t, uint(20), gotUser)
		require.NotNil(t, gotPost)
		assert.Equal(t, uint(4), *gotPost)
	})
}

func TestModerationService_ResolveAlert_Errors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	svc := newTestModerationService(noopAlertRepo(), moderationUsers(), noopVoteRepo())
	_, err := svc.ResolveAlert(ctx, 9, 1, "delete_account")
	assertValidationError(t, err)

	resolved := noopAlertRepo()
	resolved.getByIDFn = func(_ context.Context, id uint) (*models.Alert, error) {
		return &models.Alert{ID: id, Status: models.AlertResolved, TargetUserID: 20}, nil
	}
	svc = newTestModerationService(resolved, moderationUsers(), noopVoteRepo())
	_, err = svc.ResolveAlert(ctx, 9, 1, models.ActionDismiss)
	assertCode(t, err, models.CodeConflict)

	// An admin target cannot be banned, and the alert stays open.
	adminTarget := noopAlertRepo()
	adminTarget.getByIDFn = func(_ context.Context, id uint) (*models.Alert, error) {
		return &models.Alert{ID: id, Status: models.AlertOpen, TargetUserID: 8}, nil
	}
	adminTarget.resolveFn = func(_ context.Context, _ uint, _ models.AlertAction, _ uint, _ time.Time) error {
		t.Error("alert must stay open when the action fails")
		return nil
	}
	svc = newTestModerationService(adminTarget, moderationUsers(), noopVoteRepo())
	_, err = svc.ResolveAlert(ctx, 9, 1, models.ActionBanUser)
	assertForbiddenError(t, err)
}

func TestModerationService_UpdateUser(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	reader := models.RoleReader
	bogus := models.Role("owner")
	tooHigh := 3.5
	trustScore := 0.4
	frozen := true
	unban := false

	t.Run("validation", func(t *testing.T) {
		t.Parallel()
		svc := newTestModerationService(noopAlertRepo(), moderationUsers(), noopVoteRepo())
		_, err := svc.UpdateUser(ctx, 9, 20, AdminUserUpdate{Role: &bogus})
		assertValidationError(t, err)
		_, err = svc.UpdateUser(ctx, 9, 20, AdminUserUpdate{TrustScore: &tooHigh})
		assertValidationError(t, err)
		_, err = svc.UpdateUser(ctx, 9, 9, AdminUserUpdate{Role: &reader})
		assertValidationError(t, err)
	})

	t.Run("applies fields", func(t *testing.T) {
		t.Parallel()
		var fields map[string]any
		users := moderationUsers()
		users.updateFieldsFn = func(_ context.Context, _ uint, f map[string]any) error {
			fields = f
			return nil
		}
		svc := newTestModerationService(noopAlertRepo(), users, noopVoteRepo())
		_, err := svc.UpdateUser(ctx, 9, 20, AdminUserUpdate{Role: &reader, TrustScore: &trustScore, TrustFrozen: &frozen, Banned: &unban})
		require.NoError(t, err)
		assert.Equal(t, models.RoleReader, fields["role"])
		assert.Equal(t, 0.4, fields["trust_score"])
		assert.Equal(t, true, fields["trust_frozen"])
		// The user was not banned, so there is nothing to lift.
		assert.NotContains(t, fields, "is_banned")
	})
}

func TestModerationService_GetAdminUserDetail_PartialData(t *testing.T) {
	t.Parallel()

	alerts := noopAlertRepo()
	alerts.listFn = func(_ context.Context, f repository.AlertFilter) ([]models.Alert, int64, error) {
		assert.Equal(t, uint(20), f.TargetUserID)
		return nil, 0, errors.New("alerts table locked")
	}
	svc := newTestModerationService(alerts, moderationUsers(), noopVoteRepo())

	detail, err := svc.GetAdminUserDetail(context.Background(), 20)
	require.NoError(t, err)
	assert.Equal(t, uint(20), detail.User.ID)
	require.Len(t, detail.Warnings, 1)
	assert.Contains(t, detail.Warnings[0], "Alerts")
}
