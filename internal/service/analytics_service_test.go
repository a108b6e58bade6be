package service

import (
	"context"
	"testing"

	"inkraft/internal/models"
	"inkraft/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyticsService_AuthorDashboard(t *testing.T) {
	t.Parallel()

	views := &viewStoreStub{
		byDay: []models.DayCount{{Day: "2026-03-09", Count: 4}, {Day: "2026-03-10", Count: 6}},
		top:   []models.PostViews{{PostID: 1, Views: 7}, {PostID: 99, Views: 3}},
		total: 10,
	}
	posts := noopPostRepo()
	posts.getByIDsFn = func(_ context.Context, ids []uint) ([]*models.Post, error) {
		assert.Equal(t, []uint{1, 99}, ids)
		// Post 99 was deleted since it was viewed.
		return []*models.Post{{ID: 1, Slug: "hello", Title: "Hello"}}, nil
	}
	posts.authorTotalsFn = func(_ context.Context, authorID uint) (repository.PostTotals, error) {
		assert.Equal(t, uint(10), authorID)
		return repository.PostTotals{Posts: 3, Views: 120, Upvotes: 7.5, Downvotes: 1, Comments: 9}, nil
	}
	svc := NewAnalyticsService(views, posts, usersByID(&models.User{ID: 10}), noopCommentRepo(), noopAlertRepo())
	svc.now = fixedClock

	_, err := svc.AuthorDashboard(context.Background(), 10, 400)
	assertValidationError(t, err)

	d, err := svc.AuthorDashboard(context.Background(), 10, 7)
	require.NoError(t, err)
	assert.Equal(t, 7, d.Days)
	assert.Equal(t, int64(3), d.Posts)
	assert.Equal(t, int64(120), d.TotalViews)
	assert.Equal(t, int64(10), d.PeriodViews)
	assert.Equal(t, 7.5, d.Upvotes)
	require.Len(t, d.ViewsByDay, 7)
	assert.Equal(t, "2026-03-04", d.ViewsByDay[0].Day)
	assert.Equal(t, int64(0), d.ViewsByDay[0].Count)
	assert.Equal(t, int64(6), d.ViewsByDay[6].Count)
	require.Len(t, d.TopPosts, 1)
	assert.Equal(t, TopPost{PostID: 1, Slug: "hello", Title: "Hello", Views: 7}, d.TopPosts[0])
}

func TestAnalyticsService_AdminDashboard(t *testing.T) {
	t.Parallel()

	users := noopUserRepo()
	users.countFn = func(_ context.Context) (int64, error) { return 42, nil }
	posts := noopPostRepo()
	posts.countFn = func(_ context.Context, f repository.PostFilter) (int64, error) {
		assert.Equal(t, repository.PostsAll, f.Status)
		return 17, nil
	}
	comments := noopCommentRepo()
	comments.countFn = func(_ context.Context, f repository.CommentFilter) (int64, error) {
		if f.Status == models.ModerationPending {
			return 5, nil
		}
		return 80, nil
	}
	alerts := noopAlertRepo()
	alerts.countOpenFn = func(_ context.Context) (int64, error) { return 2, nil }
	svc := NewAnalyticsService(&viewStoreStub{total: 300}, posts, users, comments, alerts)
	svc.now = fixedClock

	d, err := svc.AdminDashboard(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 30, d.Days)
	assert.Equal(t, int64(42), d.Users)
	assert.Equal(t, int64(17), d.Posts)
	assert.Equal(t, int64(80), d.Comments)
	assert.Equal(t, int64(5), d.PendingComments)
	assert.Equal(t, int64(2), d.OpenAlerts)
	assert.Equal(t, int64(300), d.PeriodViews)
	assert.Len(t, d.ViewsByDay, 30)
	assert.Empty(t, d.TopPosts)
}
