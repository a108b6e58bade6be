package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"inkraft/internal/analytics"
	"inkraft/internal/models"
	"inkraft/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// assertCode asserts that err is an AppError with the given code.
func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}

func assertValidationError(t *testing.T, err error) {
	t.Helper()
	assertCode(t, err, models.CodeValidation)
}

func assertForbiddenError(t *testing.T, err error) {
	t.Helper()
	assertCode(t, err, models.CodeForbidden)
}

var fixedNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func uintPtr(v uint) *uint { return &v }

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	getByIDFn      func(context.Context, uint) (*models.User, error)
	getByEmailFn   func(context.Context, string) (*models.User, error)
	createFn       func(context.Context, *models.User) error
	updateFn       func(context.Context, *models.User) error
	updateFieldsFn func(context.Context, uint, map[string]any) error
	listFn         func(context.Context, repository.UserFilter) ([]models.User, int64, error)
	countFn        func(context.Context) (int64, error)
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmailFn(ctx, email)
}
func (s *userRepoStub) GetByUsername(_ context.Context, _ string) (*models.User, error) {
	return nil, nil
}
func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) Update(ctx context.Context, user *models.User) error {
	return s.updateFn(ctx, user)
}
func (s *userRepoStub) UpdateFields(ctx context.Context, id uint, fields map[string]any) error {
	return s.updateFieldsFn(ctx, id, fields)
}
func (s *userRepoStub) List(ctx context.Context, f repository.UserFilter) ([]models.User, int64, error) {
	return s.listFn(ctx, f)
}
func (s *userRepoStub) ListByRole(_ context.Context, _ models.Role) ([]models.User, error) {
	return nil, nil
}
func (s *userRepoStub) Count(ctx context.Context) (int64, error) {
	return s.countFn(ctx)
}

// usersByID serves GetByID from a fixed set of users.
func usersByID(users ...*models.User) *userRepoStub {
	byID := make(map[uint]*models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	repo := noopUserRepo()
	repo.getByIDFn = func(_ context.Context, id uint) (*models.User, error) {
		u, ok := byID[id]
		if !ok {
			return nil, models.NewNotFoundError("User", id)
		}
		cp := *u
		return &cp, nil
	}
	return repo
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getByIDFn: func(_ context.Context, id uint) (*models.User, error) {
			return &models.User{ID: id, Role: models.RoleAuthor, TrustScore: models.DefaultTrustScore}, nil
		},
		getByEmailFn:   func(_ context.Context, _ string) (*models.User, error) { return nil, nil },
		createFn:       func(_ context.Context, _ *models.User) error { return nil },
		updateFn:       func(_ context.Context, _ *models.User) error { return nil },
		updateFieldsFn: func(_ context.Context, _ uint, _ map[string]any) error { return nil },
		listFn: func(_ context.Context, _ repository.UserFilter) ([]models.User, int64, error) {
			return nil, 0, nil
		},
		countFn: func(_ context.Context) (int64, error) { return 0, nil },
	}
}

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	createFn           func(context.Context, *models.Post) error
	getByIDFn          func(context.Context, uint) (*models.Post, error)
	getBySlugFn        func(context.Context, string) (*models.Post, error)
	getByIDsFn         func(context.Context, []uint) ([]*models.Post, error)
	slugExistsFn       func(context.Context, string) (bool, error)
	listFn             func(context.Context, repository.PostFilter) ([]*models.Post, error)
	countFn            func(context.Context, repository.PostFilter) (int64, error)
	updateFn           func(context.Context, *models.Post) error
	setPublishedFn     func(context.Context, uint, bool, *time.Time) error
	setEditorsPickFn   func(context.Context, uint, bool) error
	softDeleteFn       func(context.Context, uint, time.Time) error
	incrementViewsFn   func(context.Context, uint) error
	countersFn         func(context.Context, uint) (repository.PostCounters, error)
	trendingActivityFn func(context.Context, []uint, time.Time) (map[uint]repository.TrendingCounts, error)
	authorTotalsFn     func(context.Context, uint) (repository.PostTotals, error)
}

func (s *postRepoStub) Create(ctx context.Context, post *models.Post) error {
	return s.createFn(ctx, post)
}
func (s *postRepoStub) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	return s.getByIDFn(ctx, id)
}
func (s *postRepoStub) GetBySlug(ctx context.Context, slug string) (*models.Post, error) {
	return s.getBySlugFn(ctx, slug)
}
func (s *postRepoStub) GetByIDs(ctx context.Context, ids []uint) ([]*models.Post, error) {
	return s.getByIDsFn(ctx, ids)
}
func (s *postRepoStub) SlugExists(ctx context.Context, slug string) (bool, error) {
	return s.slugExistsFn(ctx, slug)
}
func (s *postRepoStub) List(ctx context.Context, f repository.PostFilter) ([]*models.Post, error) {
	return s.listFn(ctx, f)
}
func (s *postRepoStub) Count(ctx context.Context, f repository.PostFilter) (int64, error) {
	return s.countFn(ctx, f)
}
func (s *postRepoStub) Update(ctx context.Context, post *models.Post) error {
	return s.updateFn(ctx, post)
}
func (s *postRepoStub) SetPublished(ctx context.Context, id uint, published bool, at *time.Time) error {
	return s.setPublishedFn(ctx, id, published, at)
}
func (s *postRepoStub) SetEditorsPick(ctx context.Context, id uint, pick bool) error {
	return s.setEditorsPickFn(ctx, id, pick)
}
func (s *postRepoStub) SoftDelete(ctx context.Context, id uint, at time.Time) error {
	return s.softDeleteFn(ctx, id, at)
}
func (s *postRepoStub) IncrementViews(ctx context.Context, id uint) error {
	return s.incrementViewsFn(ctx, id)
}
func (s *postRepoStub) Counters(ctx context.Context, id uint) (repository.PostCounters, error) {
	return s.countersFn(ctx, id)
}
func (s *postRepoStub) TrendingActivity(ctx context.Context, ids []uint, now time.Time) (map[uint]repository.TrendingCounts, error) {
	return s.trendingActivityFn(ctx, ids, now)
}
func (s *postRepoStub) AuthorTotals(ctx context.Context, authorID uint) (repository.PostTotals, error) {
	return s.authorTotalsFn(ctx, authorID)
}

func noopPostRepo() *postRepoStub {
	published := func() *models.Post {
		at := fixedNow.Add(-time.Hour)
		return &models.Post{ID: 1, Slug: "hello", Title: "Hello", Content: "body", AuthorID: 10, Published: true, PublishedAt: &at}
	}
	return &postRepoStub{
		createFn:  func(_ context.Context, _ *models.Post) error { return nil },
		getByIDFn: func(_ context.Context, _ uint) (*models.Post, error) { return published(), nil },
		getBySlugFn: func(_ context.Context, slug string) (*models.Post, error) {
			p := published()
			p.Slug = slug
			return p, nil
		},
		getByIDsFn:       func(_ context.Context, _ []uint) ([]*models.Post, error) { return nil, nil },
		slugExistsFn:     func(_ context.Context, _ string) (bool, error) { return false, nil },
		listFn:           func(_ context.Context, _ repository.PostFilter) ([]*models.Post, error) { return nil, nil },
		countFn:          func(_ context.Context, _ repository.PostFilter) (int64, error) { return 0, nil },
		updateFn:         func(_ context.Context, _ *models.Post) error { return nil },
		setPublishedFn:   func(_ context.Context, _ uint, _ bool, _ *time.Time) error { return nil },
		setEditorsPickFn: func(_ context.Context, _ uint, _ bool) error { return nil },
		softDeleteFn:     func(_ context.Context, _ uint, _ time.Time) error { return nil },
		incrementViewsFn: func(_ context.Context, _ uint) error { return nil },
		countersFn: func(_ context.Context, _ uint) (repository.PostCounters, error) {
			return repository.PostCounters{}, nil
		},
		trendingActivityFn: func(_ context.Context, _ []uint, _ time.Time) (map[uint]repository.TrendingCounts, error) {
			return map[uint]repository.TrendingCounts{}, nil
		},
		authorTotalsFn: func(_ context.Context, _ uint) (repository.PostTotals, error) {
			return repository.PostTotals{}, nil
		},
	}
}

// commentRepoStub is a stub for repository.CommentRepository.
type commentRepoStub struct {
	createFn        func(context.Context, *models.Comment) error
	getByIDFn       func(context.Context, uint) (*models.Comment, error)
	listByPostFn    func(context.Context, uint) ([]*models.Comment, error)
	listFn          func(context.Context, repository.CommentFilter) ([]*models.Comment, int64, error)
	countFn         func(context.Context, repository.CommentFilter) (int64, error)
	updateContentFn func(context.Context, uint, string) error
	softDeleteFn    func(context.Context, *models.Comment, uint, time.Time) error
	setModerationFn func(context.Context, uint, models.ModerationStatus, uint, time.Time) error
}

func (s *commentRepoStub) Create(ctx context.Context, comment *models.Comment) error {
	return s.createFn(ctx, comment)
}
func (s *commentRepoStub) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	return s.getByIDFn(ctx, id)
}
func (s *commentRepoStub) ListByPost(ctx context.Context, postID uint) ([]*models.Comment, error) {
	return s.listByPostFn(ctx, postID)
}
func (s *commentRepoStub) List(ctx context.Context, f repository.CommentFilter) ([]*models.Comment, int64, error) {
	return s.listFn(ctx, f)
}
func (s *commentRepoStub) Count(ctx context.Context, f repository.CommentFilter) (int64, error) {
	return s.countFn(ctx, f)
}
func (s *commentRepoStub) UpdateContent(ctx context.Context, id uint, content string) error {
	return s.updateContentFn(ctx, id, content)
}
func (s *commentRepoStub) SoftDelete(ctx context.Context, c *models.Comment, by uint, at time.Time) error {
	return s.softDeleteFn(ctx, c, by, at)
}
func (s *commentRepoStub) SetModeration(ctx context.Context, id uint, status models.ModerationStatus, by uint, at time.Time) error {
	return s.setModerationFn(ctx, id, status, by, at)
}

func noopCommentRepo() *commentRepoStub {
	return &commentRepoStub{
		createFn: func(_ context.Context, _ *models.Comment) error { return nil },
		getByIDFn: func(_ context.Context, id uint) (*models.Comment, error) {
			return &models.Comment{ID: id, PostID: 1, ModerationStatus: models.ModerationApproved}, nil
		},
		listByPostFn: func(_ context.Context, _ uint) ([]*models.Comment, error) { return nil, nil },
		listFn: func(_ context.Context, _ repository.CommentFilter) ([]*models.Comment, int64, error) {
			return nil, 0, nil
		},
		countFn:         func(_ context.Context, _ repository.CommentFilter) (int64, error) { return 0, nil },
		updateContentFn: func(_ context.Context, _ uint, _ string) error { return nil },
		softDeleteFn:    func(_ context.Context, _ *models.Comment, _ uint, _ time.Time) error { return nil },
		setModerationFn: func(_ context.Context, _ uint, _ models.ModerationStatus, _ uint, _ time.Time) error {
			return nil
		},
	}
}

// voteRepoStub is a stub for repository.VoteRepository.
type voteRepoStub struct {
	applyFn   func(context.Context, repository.VoteChange) (repository.VoteResult, error)
	nullifyFn func(context.Context, uint, *uint) (int64, error)
}

func (s *voteRepoStub) Get(_ context.Context, _, _ uint) (*models.Vote, error) {
	return nil, nil
}
func (s *voteRepoStub) ApplyVote(ctx context.Context, ch repository.VoteChange) (repository.VoteResult, error) {
	return s.applyFn(ctx, ch)
}
func (s *voteRepoStub) NullifyUserVotes(ctx context.Context, userID uint, postID *uint) (int64, error) {
	return s.nullifyFn(ctx, userID, postID)
}

func noopVoteRepo() *voteRepoStub {
	return &voteRepoStub{
		applyFn: func(_ context.Context, ch repository.VoteChange) (repository.VoteResult, error) {
			return repository.VoteResult{Action: models.VoteAdded, Vote: &models.Vote{
				UserID: ch.UserID, PostID: ch.PostID, Direction: ch.Direction, Weight: ch.Weight,
			}}, nil
		},
		nullifyFn: func(_ context.Context, _ uint, _ *uint) (int64, error) { return 0, nil },
	}
}

// alertRepoStub is a stub for repository.AlertRepository.
type alertRepoStub struct {
	createFn    func(context.Context, *models.Alert) error
	getByIDFn   func(context.Context, uint) (*models.Alert, error)
	listFn      func(context.Context, repository.AlertFilter) ([]models.Alert, int64, error)
	countOpenFn func(context.Context) (int64, error)
	resolveFn   func(context.Context, uint, models.AlertAction, uint, time.Time) error
}

func (s *alertRepoStub) Create(ctx context.Context, a *models.Alert) error { return s.createFn(ctx, a) }
func (s *alertRepoStub) GetByID(ctx context.Context, id uint) (*models.Alert, error) {
	return s.getByIDFn(ctx, id)
}
func (s *alertRepoStub) List(ctx context.Context, f repository.AlertFilter) ([]models.Alert, int64, error) {
	return s.listFn(ctx, f)
}
func (s *alertRepoStub) CountOpen(ctx context.Context) (int64, error) { return s.countOpenFn(ctx) }
func (s *alertRepoStub) Resolve(ctx context.Context, id uint, action models.AlertAction, by uint, at time.Time) error {
	return s.resolveFn(ctx, id, action, by, at)
}

func noopAlertRepo() *alertRepoStub {
	return &alertRepoStub{
		createFn: func(_ context.Context, _ *models.Alert) error { return nil },
		getByIDFn: func(_ context.Context, id uint) (*models.Alert, error) {
			return &models.Alert{ID: id, Status: models.AlertOpen, Type: models.AlertVoteSpike, TargetUserID: 20}, nil
		},
		listFn: func(_ context.Context, _ repository.AlertFilter) ([]models.Alert, int64, error) {
			return nil, 0, nil
		},
		countOpenFn: func(_ context.Context) (int64, error) { return 0, nil },
		resolveFn:   func(_ context.Context, _ uint, _ models.AlertAction, _ uint, _ time.Time) error { return nil },
	}
}

// followRepoStub keeps follows in memory.
type followRepoStub struct {
	authors    map[uint][]uint
	categories map[uint][]uint
}

func newFollowRepoStub() *followRepoStub {
	return &followRepoStub{authors: map[uint][]uint{}, categories: map[uint][]uint{}}
}

func (s *followRepoStub) FollowAuthor(_ context.Context, followerID, authorID uint) error {
	s.authors[followerID] = append(s.authors[followerID], authorID)
	return nil
}
func (s *followRepoStub) UnfollowAuthor(_ context.Context, _, _ uint) error { return nil }
func (s *followRepoStub) FollowCategory(_ context.Context, followerID, categoryID uint) error {
	s.categories[followerID] = append(s.categories[followerID], categoryID)
	return nil
}
func (s *followRepoStub) UnfollowCategory(_ context.Context, _, _ uint) error { return nil }
func (s *followRepoStub) FollowedAuthorIDs(_ context.Context, followerID uint) ([]uint, error) {
	return s.authors[followerID], nil
}
func (s *followRepoStub) FollowedCategoryIDs(_ context.Context, followerID uint) ([]uint, error) {
	return s.categories[followerID], nil
}

// categoryRepoStub serves a fixed set of categories.
type categoryRepoStub struct {
	categories []models.Category
}

func (s *categoryRepoStub) List(_ context.Context) ([]models.Category, error) { return s.categories, nil }
func (s *categoryRepoStub) GetBySlug(_ context.Context, slug string) (*models.Category, error) {
	for i := range s.categories {
		if s.categories[i].Slug == slug {
			return &s.categories[i], nil
		}
	}
	return nil, models.NewNotFoundError("Category", slug)
}
func (s *categoryRepoStub) GetByID(_ context.Context, id uint) (*models.Category, error) {
	for i := range s.categories {
		if s.categories[i].ID == id {
			return &s.categories[i], nil
		}
	}
	return nil, models.NewNotFoundError("Category", id)
}
func (s *categoryRepoStub) Create(_ context.Context, c *models.Category) error {
	c.ID = uint(len(s.categories) + 1)
	s.categories = append(s.categories, *c)
	return nil
}

// publicationRepoStub serves one publication with a member list.
type publicationRepoStub struct {
	pub     *models.Publication
	members map[uint]bool
}

func (s *publicationRepoStub) Create(_ context.Context, pub *models.Publication) error {
	pub.ID = 1
	s.pub = pub
	return nil
}
func (s *publicationRepoStub) get(key any) (*models.Publication, error) {
	if s.pub == nil {
		return nil, models.NewNotFoundError("Publication", key)
	}
	cp := *s.pub
	return &cp, nil
}
func (s *publicationRepoStub) GetBySlug(_ context.Context, slug string) (*models.Publication, error) {
	return s.get(slug)
}
func (s *publicationRepoStub) GetByID(_ context.Context, id uint) (*models.Publication, error) {
	return s.get(id)
}
func (s *publicationRepoStub) List(_ context.Context, _, _ int) ([]models.Publication, error) {
	return nil, nil
}
func (s *publicationRepoStub) AddMember(_ context.Context, _, userID uint) error {
	if s.members == nil {
		s.members = map[uint]bool{}
	}
	s.members[userID] = true
	return nil
}
func (s *publicationRepoStub) IsMember(_ context.Context, _, userID uint) (bool, error) {
	return s.members[userID], nil
}

// viewStoreStub records events in memory.
type viewStoreStub struct {
	events []models.ViewEvent
	byDay  []models.DayCount
	top    []models.PostViews
	total  int64
}

func (s *viewStoreStub) Name() string { return "stub" }
func (s *viewStoreStub) RecordView(_ context.Context, ev models.ViewEvent) error {
	s.events = append(s.events, ev)
	return nil
}
func (s *viewStoreStub) ViewsByDay(_ context.Context, _ analytics.Range) ([]models.DayCount, error) {
	return s.byDay, nil
}
func (s *viewStoreStub) TopPosts(_ context.Context, _ analytics.Range, _ int) ([]models.PostViews, error) {
	return s.top, nil
}
func (s *viewStoreStub) TotalViews(_ context.Context, _ analytics.Range) (int64, error) {
	return s.total, nil
}
