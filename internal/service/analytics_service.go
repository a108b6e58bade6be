package service

import (
	"context"
	"time"

	"inkraft/internal/analytics"
	"inkraft/internal/models"
	"inkraft/internal/repository"
)

const (
	maxDashboardDays = 365
	dashboardTopN    = 10
)

// TopPost is a post ranked by views over the dashboard period.
type TopPost struct {
	PostID uint   `json:"post_id"`
	Slug   string `json:"slug"`
	Title  string `json:"title"`
	Views  int64  `json:"views"`
}

// AuthorDashboard summarizes one author's posts.
type AuthorDashboard struct {
	Days        int               `json:"days"`
	Posts       int64             `json:"posts"`
	TotalViews  int64             `json:"total_views"`
	PeriodViews int64             `json:"period_views"`
	Upvotes     float64           `json:"upvotes"`
	Downvotes   float64           `json:"downvotes"`
	Comments    int64             `json:"comments"`
	ViewsByDay  []models.DayCount `json:"views_by_day"`
	TopPosts    []TopPost         `json:"top_posts"`
}

// AdminDashboard summarizes the whole site.
type AdminDashboard struct {
	Days            int               `json:"days"`
	Users           int64             `json:"users"`
	Posts           int64             `json:"posts"`
	Comments        int64             `json:"comments"`
	PendingComments int64             `json:"pending_comments"`
	OpenAlerts      int64             `json:"open_alerts"`
	PeriodViews     int64             `json:"period_views"`
	ViewsByDay      []models.DayCount `json:"views_by_day"`
	TopPosts        []TopPost         `json:"top_posts"`
}

type AnalyticsService struct {
	views    analytics.Store
	posts    repository.PostRepository
	users    repository.UserRepository
	comments repository.CommentRepository
	alerts   repository.AlertRepository
	now      func() time.Time
}

func NewAnalyticsService(
	views analytics.Store,
	posts repository.PostRepository,
	users repository.UserRepository,
	comments repository.CommentRepository,
	alerts repository.AlertRepository,
) *AnalyticsService {
	return &AnalyticsService{views: views, posts: posts, users: users, comments: comments, alerts: alerts, now: utcNow}
}

func clampDays(days int) (int, error) {
	if days == 0 {
		return 30, nil
	}
	if days < 1 || days > maxDashboardDays {
		return 0, models.NewValidationError("days must be between 1 and 365")
	}
	return days, nil
}

// series returns the filled views-by-day series, the period total and the top posts.
func (s *AnalyticsService) series(ctx context.Context, r analytics.Range) ([]models.DayCount, int64, []TopPost, error) {
	counts, err := s.views.ViewsByDay(ctx, r)
	if err != nil {
		return nil, 0, nil, models.NewInternalError(err)
	}
	byDay, err := analytics.FillDays(r, counts)
	if err != nil {
		return nil, 0, nil, models.NewInternalError(err)
	}
	total, err := s.views.TotalViews(ctx, r)
	if err != nil {
		return nil, 0, nil, models.NewInternalError(err)
	}
	ranked, err := s.views.TopPosts(ctx, r, dashboardTopN)
	if err != nil {
		return nil, 0, nil, models.NewInternalError(err)
	}
	top, err := s.describe(ctx, ranked)
	if err != nil {
		return nil, 0, nil, err
	}
	return byDay, total, top, nil
}

// describe attaches slugs and titles, skipping posts deleted since.
func (s *AnalyticsService) describe(ctx context.Context, ranked []models.PostViews) ([]TopPost, error) {
	ids := make([]uint, 0, len(ranked))
	for _, pv := range ranked {
		ids = append(ids, pv.PostID)
	}
	posts, err := s.posts.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]*models.Post, len(posts))
	for _, p := range posts {
		byID[p.ID] = p
	}
	top := make([]TopPost, 0, len(ranked))
	for _, pv := range ranked {
		p, ok := byID[pv.PostID]
		if !ok {
			continue
		}
		top = append(top, TopPost{PostID: p.ID, Slug: p.Slug, Title: p.Title, Views: pv.Views})
	}
	return top, nil
}

func (s *AnalyticsService) AuthorDashboard(ctx context.Context, authorID uint, days int) (*AuthorDashboard, error) {
	days, err := clampDays(days)
	if err != nil {
		return nil, err
	}
	if _, err := activeUser(ctx, s.users, authorID); err != nil {
		return nil, err
	}
	totals, err := s.posts.AuthorTotals(ctx, authorID)
	if err != nil {
		return nil, err
	}
	byDay, period, top, err := s.series(ctx, analytics.LastDays(s.now(), days, authorID))
	if err != nil {
		return nil, err
	}
	return &AuthorDashboard{
		Days:        days,
		Posts:       totals.Posts,
		TotalViews:  totals.Views,
		PeriodViews: period,
		Upvotes:     totals.Upvotes,
		Downvotes:   totals.Downvotes,
		Comments:    totals.Comments,
		ViewsByDay:  byDay,
		TopPosts:    top,
	}, nil
}

func (s *AnalyticsService) AdminDashboard(ctx context.Context, days int) (*AdminDashboard, error) {
	days, err := clampDays(days)
	if err != nil {
		return nil, err
	}
	d := &AdminDashboard{Days: days}
	if d.Users, err = s.users.Count(ctx); err != nil {
		return nil, err
	}
	if d.Posts, err = s.posts.Count(ctx, repository.PostFilter{Status: repository.PostsAll}); err != nil {
		return nil, err
	}
	if d.Comments, err = s.comments.Count(ctx, repository.CommentFilter{}); err != nil {
		return nil, err
	}
	if d.PendingComments, err = s.comments.Count(ctx, repository.CommentFilter{Status: models.ModerationPending}); err != nil {
		return nil, err
	}
	if d.OpenAlerts, err = s.alerts.CountOpen(ctx); err != nil {
		return nil, err
	}
	if d.ViewsByDay, d.PeriodViews, d.TopPosts, err = s.series(ctx, analytics.LastDays(s.now(), days, 0)); err != nil {
		return nil, err
	}
	return d, nil
}
