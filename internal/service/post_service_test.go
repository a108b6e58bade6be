package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"inkraft/internal/models"
	"inkraft/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPostService(posts *postRepoStub, users *userRepoStub, views *viewStoreStub) *PostService {
	svc := NewPostService(posts, users, &categoryRepoStub{categories: []models.Category{{ID: 3, Slug: "go", Name: "Go"}}},
		&publicationRepoStub{}, views, nil)
	svc.now = fixedClock
	return svc
}

func TestPostService_CreatePost_Validation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	users := usersByID(
		&models.User{ID: 1, Role: models.RoleAuthor},
		&models.User{ID: 2, Role: models.RoleReader},
		&models.User{ID: 3, Role: models.RoleAuthor, IsBanned: true},
	)
	svc := newTestPostService(noopPostRepo(), users, nil)

	t.Run("reader cannot author", func(t *testing.T) {
		t.Parallel()
		_, err := svc.CreatePost(ctx, CreatePostInput{UserID: 2, Title: "T", Content: "C"})
		assertForbiddenError(t, err)
	})

	t.Run("banned author", func(t *testing.T) {
		t.Parallel()
		_, err := svc.CreatePost(ctx, CreatePostInput{UserID: 3, Title: "T", Content: "C"})
		assertForbiddenError(t, err)
	})

	t.Run("anonymous", func(t *testing.T) {
		t.Parallel()
		_, err := svc.CreatePost(ctx, CreatePostInput{Title: "T", Content: "C"})
		assertCode(t, err, models.CodeUnauthorized)
	})

	cases := map[string]CreatePostInput{
		"empty title":    {UserID: 1, Content: "C"},
		"empty content":  {UserID: 1, Title: "T"},
		"title too long": {UserID: 1, Title: strings.Repeat("t", 301), Content: "C"},
		"too many tags":  {UserID: 1, Title: "T", Content: "C", Tags: strings.Split("a,b,c,d,e,f,g,h,i,j,k", ",")},
		"quoted tag":     {UserID: 1, Title: "T", Content: "C", Tags: []string{`go"lang`}},
		"meta title":     {UserID: 1, Title: "T", Content: "C", SEO: models.SEO{MetaTitle: strings.Repeat("m", 71)}},
		"canonical url":  {UserID: 1, Title: "T", Content: "C", SEO: models.SEO{CanonicalURL: "example.com/x"}},
		"bad slug":       {UserID: 1, Title: "T", Content: "C", Slug: "Not A Slug"},
	}
	for name, in := range cases {
		in := in
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := svc.CreatePost(ctx, in)
			assertValidationError(t, err)
		})
	}

	t.Run("unknown category", func(t *testing.T) {
		t.Parallel()
		_, err := svc.CreatePost(ctx, CreatePostInput{UserID: 1, Title: "T", Content: "C", CategoryID: uintPtr(99)})
		assertCode(t, err, models.CodeNotFound)
	})
}

func TestPostService_CreatePost_UniqueSlugAndTags(t *testing.T) {
	t.Parallel()

	taken := map[string]bool{"hello-world": true, "hello-world-2": true}
	var created *models.Post
	posts := noopPostRepo()
	posts.slugExistsFn = func(_ context.Context, slug string) (bool, error) { return taken[slug], nil }
	posts.createFn = func(_ context.Context, p *models.Post) error {
		p.ID = 7
		created = p
		return nil
	}
	posts.getByIDFn = func(_ context.Context, _ uint) (*models.Post, error) { return created, nil }

	svc := newTestPostService(posts, usersByID(&models.User{ID: 1, Role: models.RoleAuthor}), nil)
	post, err := svc.CreatePost(context.Background(), CreatePostInput{
		UserID:     1,
		Title:      "  Hello, World!  ",
		Content:    "<p>body</p>",
		Tags:       []string{"Go", "go ", "", "Web"},
		CategoryID: uintPtr(3),
		Publish:    true,
	})
	require.NoError(t, err)
	assert.Equal(t, "hello-world-3", post.Slug)
	assert.Equal(t, "Hello, World!", post.Title)
	assert.Equal(t, []string{"go", "web"}, post.Tags)
	assert.Equal(t, uint(1), post.AuthorID)
	assert.True(t, post.Published)
	require.NotNil(t, post.PublishedAt)
	assert.Equal(t, fixedNow, *post.PublishedAt)
}

func TestPostService_CreatePost_PublicationMembership(t *testing.T) {
	t.Parallel()

	pubs := &publicationRepoStub{pub: &models.Publication{ID: 5, Slug: "weekly", OwnerID: 1}}
	users := usersByID(
		&models.User{ID: 1, Role: models.RoleAuthor},
		&models.User{ID: 2, Role: models.RoleAuthor},
		&models.User{ID: 3, Role: models.RoleAuthor},
	)
	require.NoError(t, pubs.AddMember(context.Background(), 5, 3))
	svc := NewPostService(noopPostRepo(), users, &categoryRepoStub{}, pubs, nil, nil)

	for userID, wantErr := range map[uint]bool{1: false, 2: true, 3: false} {
		_, err := svc.CreatePost(context.Background(), CreatePostInput{
			UserID: userID, Title: "Pub post", Content: "C", PublicationID: uintPtr(5),
		})
		if wantErr {
			assertForbiddenError(t, err)
		} else {
			assert.NoError(t, err, "user %d", userID)
		}
	}
}

func TestPostService_GetPost_Visibility(t *testing.T) {
	t.Parallel()

	draft := &models.Post{ID: 4, Slug: "draft", AuthorID: 1}
	posts := noopPostRepo()
	posts.getBySlugFn = func(_ context.Context, slug string) (*models.Post, error) {
		cp := *draft
		return &cp, nil
	}
	posts.incrementViewsFn = func(_ context.Context, _ uint) error {
		t.Error("drafts must not count views")
		return nil
	}
	users := usersByID(
		&models.User{ID: 1, Role: models.RoleAuthor},
		&models.User{ID: 2, Role: models.RoleReader},
		&models.User{ID: 9, Role: models.RoleAdmin},
	)
	svc := newTestPostService(posts, users, nil)
	ctx := context.Background()

	_, err := svc.GetPost(ctx, "draft", ViewContext{})
	assertCode(t, err, models.CodeNotFound)

	_, err = svc.GetPost(ctx, "draft", ViewContext{ViewerID: 2})
	assertCode(t, err, models.CodeNotFound)

	got, err := svc.GetPost(ctx, "draft", ViewContext{ViewerID: 1})
	require.NoError(t, err)
	assert.Equal(t, uint(4), got.ID)

	_, err = svc.GetPost(ctx, "draft", ViewContext{ViewerID: 9})
	require.NoError(t, err)
}

func TestPostService_GetPost_CountsViews(t *testing.T) {
	t.Parallel()

	increments := 0
	posts := noopPostRepo()
	posts.incrementViewsFn = func(_ context.Context, _ uint) error {
		increments++
		return nil
	}
	views := &viewStoreStub{}
	users := usersByID(&models.User{ID: 10, Role: models.RoleAuthor}, &models.User{ID: 2, Role: models.RoleReader})
	svc := newTestPostService(posts, users, views)
	ctx := context.Background()

	post, err := svc.GetPost(ctx, "hello", ViewContext{VisitorHash: "abc", Referrer: "https://news.example"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), post.Views)

	_, err = svc.GetPost(ctx, "hello", ViewContext{ViewerID: 2, VisitorHash: "def"})
	require.NoError(t, err)

	// The author reading their own post is not a view.
	_, err = svc.GetPost(ctx, "hello", ViewContext{ViewerID: 10})
	require.NoError(t, err)

	assert.Equal(t, 2, increments)
	require.Len(t, views.events, 2)
	assert.Nil(t, views.events[0].ViewerID)
	assert.Equal(t, "abc", views.events[0].VisitorHash)
	assert.Equal(t, "2026-03-10", views.events[0].Day)
	assert.Equal(t, uint(10), views.events[0].AuthorID)
	require.NotNil(t, views.events[1].ViewerID)
	assert.Equal(t, uint(2), *views.events[1].ViewerID)
}

func TestPostService_UpdatePost_Ownership(t *testing.T) {
	t.Parallel()

	users := usersByID(&models.User{ID: 10, Role: models.RoleAuthor}, &models.User{ID: 9, Role: models.RoleAdmin})
	posts := noopPostRepo()
	var saved *models.Post
	posts.updateFn = func(_ context.Context, p *models.Post) error {
		saved = p
		return nil
	}
	svc := newTestPostService(posts, users, nil)
	title := "New title"

	_, err := svc.UpdatePost(context.Background(), UpdatePostInput{UserID: 9, Slug: "hello", Title: &title})
	assertForbiddenError(t, err)

	_, err = svc.UpdatePost(context.Background(), UpdatePostInput{UserID: 10, Slug: "hello", Title: &title})
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, "New title", saved.Title)
}

func TestPostService_SetPublished_KeepsFirstPublicationTime(t *testing.T) {
	t.Parallel()

	first := fixedNow.Add(-48 * time.Hour)
	var gotAt *time.Time
	posts := noopPostRepo()
	posts.getBySlugFn = func(_ context.Context, _ string) (*models.Post, error) {
		return &models.Post{ID: 1, Slug: "hello", AuthorID: 10, PublishedAt: &first}, nil
	}
	posts.setPublishedFn = func(_ context.Context, _ uint, published bool, at *time.Time) error {
		assert.True(t, published)
		gotAt = at
		return nil
	}
	svc := newTestPostService(posts, usersByID(&models.User{ID: 10, Role: models.RoleAuthor}), nil)

	post, err := svc.SetPublished(context.Background(), 10, "hello", true)
	require.NoError(t, err)
	assert.True(t, post.Published)
	require.NotNil(t, gotAt)
	assert.Equal(t, first, *gotAt)
}

func TestPostService_DeletePost_Ownership(t *testing.T) {
	t.Parallel()

	users := usersByID(
		&models.User{ID: 10, Role: models.RoleAuthor},
		&models.User{ID: 2, Role: models.RoleAuthor},
		&models.User{ID: 9, Role: models.RoleAdmin},
	)
	deleted := 0
	posts := noopPostRepo()
	posts.softDeleteFn = func(_ context.Context, _ uint, at time.Time) error {
		assert.Equal(t, fixedNow, at)
		deleted++
		return nil
	}
	svc := newTestPostService(posts, users, nil)
	ctx := context.Background()

	assertForbiddenError(t, svc.DeletePost(ctx, 2, "hello"))
	require.NoError(t, svc.DeletePost(ctx, 10, "hello"))
	require.NoError(t, svc.DeletePost(ctx, 9, "hello"))
	assert.Equal(t, 2, deleted)
}

func trendingCandidates() []*models.Post {
	at := func(h float64) *time.Time {
		t := fixedNow.Add(-time.Duration(h * float64(time.Hour)))
		return &t
	}
	return []*models.Post{
		{ID: 1, Slug: "fresh", Published: true, PublishedAt: at(2)},
		{ID: 2, Slug: "quiet", Published: true, PublishedAt: at(10)},
		{ID: 3, Slug: "older", Published: true, PublishedAt: at(30)},
		{ID: 4, Slug: "hot", Published: true, PublishedAt: at(1)},
	}
}

func TestPostService_ListPosts_Trending(t *testing.T) {
	t.Parallel()

	posts := noopPostRepo()
	posts.listFn = func(_ context.Context, f repository.PostFilter) ([]*models.Post, error) {
		require.NotNil(t, f.PublishedSince)
		assert.Equal(t, fixedNow.Add(-7*24*time.Hour), *f.PublishedSince)
		assert.Equal(t, rankedCandidateLimit, f.Limit)
		return trendingCandidates(), nil
	}
	posts.trendingActivityFn = func(_ context.Context, ids []uint, now time.Time) (map[uint]repository.TrendingCounts, error) {
		assert.Len(t, ids, 4)
		return map[uint]repository.TrendingCounts{
			1: {Votes24h: 10, Votes72h: 10},
			2: {Comments24h: 1, Comments72h: 1},
			// Older than a day: only the 72h window counts.
			3: {Votes24h: 0, Votes72h: 6},
			4: {Votes24h: 2, Comments24h: 3, Comments72h: 3},
		}, nil
	}
	svc := newTestPostService(posts, noopUserRepo(), nil)

	got, err := svc.ListPosts(context.Background(), ListPostsInput{Sort: SortTrending})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"hot", "fresh", "older"}, []string{got[0].Slug, got[1].Slug, got[2].Slug})
	for _, p := range got {
		assert.Greater(t, p.Score, 0.0)
	}

	page, err := svc.ListPosts(context.Background(), ListPostsInput{Sort: SortTrending, Limit: 1, Offset: 2})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "older", page[0].Slug)
}

func TestPostService_ListPosts_Engagement(t *testing.T) {
	t.Parallel()

	old := fixedNow.Add(-14 * 24 * time.Hour)
	recent := fixedNow.Add(-time.Hour)
	posts := noopPostRepo()
	posts.listFn = func(_ context.Context, f repository.PostFilter) ([]*models.Post, error) {
		assert.Nil(t, f.PublishedSince)
		assert.Equal(t, "golang", f.Tag)
		return []*models.Post{
			{ID: 1, Slug: "old-popular", PublishedAt: &old, Upvotes: 12},
			{ID: 2, Slug: "new-modest", PublishedAt: &recent, Upvotes: 5},
			{ID: 3, Slug: "downvoted", PublishedAt: &recent, Downvotes: 10},
		}, nil
	}
	svc := newTestPostService(posts, noopUserRepo(), nil)

	got, err := svc.ListPosts(context.Background(), ListPostsInput{Sort: SortEngagement, Tag: " GoLang "})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "new-modest", got[0].Slug)
	assert.Equal(t, "old-popular", got[1].Slug)
	assert.Equal(t, 0.0, got[2].Score)
}

func TestPostService_ListPosts_FiltersAndSort(t *testing.T) {
	t.Parallel()

	var seen repository.PostFilter
	posts := noopPostRepo()
	posts.listFn = func(_ context.Context, f repository.PostFilter) ([]*models.Post, error) {
		seen = f
		return nil, nil
	}
	svc := newTestPostService(posts, noopUserRepo(), nil)
	ctx := context.Background()

	_, err := svc.ListPosts(ctx, ListPostsInput{CategorySlug: "go", EditorsPick: true, Query: " gorm ", Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, uint(3), seen.CategoryID)
	assert.True(t, seen.EditorsPick)
	assert.Equal(t, "gorm", seen.Query)
	assert.Equal(t, 5, seen.Limit)

	_, err = svc.ListPosts(ctx, ListPostsInput{CategorySlug: "rust"})
	assertCode(t, err, models.CodeNotFound)

	_, err = svc.ListPosts(ctx, ListPostsInput{Sort: "hot"})
	assertValidationError(t, err)
}

func TestPostService_Trending_WithoutRedis(t *testing.T) {
	t.Parallel()

	posts := noopPostRepo()
	posts.listFn = func(_ context.Context, _ repository.PostFilter) ([]*models.Post, error) {
		return trendingCandidates(), nil
	}
	posts.trendingActivityFn = func(_ context.Context, _ []uint, _ time.Time) (map[uint]repository.TrendingCounts, error) {
		return map[uint]repository.TrendingCounts{1: {Votes24h: 5}}, nil
	}
	svc := newTestPostService(posts, noopUserRepo(), nil)

	got, err := svc.Trending(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "fresh", got[0].Slug)
}
