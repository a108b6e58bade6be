package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"inkraft/internal/analytics"
	"inkraft/internal/cache"
	"inkraft/internal/models"
	"inkraft/internal/observability"
	"inkraft/internal/ranking"
	"inkraft/internal/repository"
	"inkraft/internal/validation"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
)

// Sort orders accepted by ListPosts.
const (
	SortNew        = "new"
	SortEngagement = "engagement"
	SortTrending   = "trending"
)

const (
	maxTitleLen   = 300
	maxContentLen = 100000
	maxExcerptLen = 500
	maxTags       = 10
	maxTagLen     = 32

	// rankedCandidateLimit bounds how many posts are scored in memory per ranked listing.
	rankedCandidateLimit = 500
	trendingLookback     = 7 * 24 * time.Hour
	maxSlugAttempts      = 50
)

type PostService struct {
	posts        repository.PostRepository
	users        repository.UserRepository
	categories   repository.CategoryRepository
	publications repository.PublicationRepository
	views        analytics.Store
	rdb          *redis.Client
	now          func() time.Time
}

type CreatePostInput struct {
	UserID        uint
	Title         string
	Slug          string
	Content       string
	Excerpt       string
	CategoryID    *uint
	PublicationID *uint
	Tags          []string
	SEO           models.SEO
	Publish       bool
}

// UpdatePostInput carries a partial update; nil fields are left unchanged.
type UpdatePostInput struct {
	UserID        uint
	Slug          string
	Title         *string
	Content       *string
	Excerpt       *string
	CategoryID    *uint
	PublicationID *uint
	Tags          *[]string
	SEO           *models.SEO
}

type ListPostsInput struct {
	Sort            string
	CategorySlug    string
	Tag             string
	AuthorID        uint
	PublicationSlug string
	EditorsPick     bool
	Query           string
	Limit           int
	Offset          int
}

// ViewContext describes who is reading a post.
type ViewContext struct {
	ViewerID    uint
	VisitorHash string
	Referrer    string
}

func NewPostService(
	posts repository.PostRepository,
	users repository.UserRepository,
	categories repository.CategoryRepository,
	publications repository.PublicationRepository,
	views analytics.Store,
	rdb *redis.Client,
) *PostService {
	return &PostService{
		posts:        posts,
		users:        users,
		categories:   categories,
		publications: publications,
		views:        views,
		rdb:          rdb,
		now:          utcNow,
	}
}

func normalizeTags(tags []string) ([]string, error) {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if utf8.RuneCountInString(t) > maxTagLen || strings.ContainsAny(t, `"\`) {
			return nil, models.NewValidationError(fmt.Sprintf("Invalid tag %q", t))
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	if len(out) > maxTags {
		return nil, models.NewValidationError(fmt.Sprintf("At most %d tags are allowed", maxTags))
	}
	return out, nil
}

func validateSEO(seo models.SEO) error {
	err := validation.ValidateSEO(validation.SEOFields{
		MetaTitle:       seo.MetaTitle,
		MetaDescription: seo.MetaDescription,
		CanonicalURL:    seo.CanonicalURL,
		OGImage:         seo.OGImage,
		Keywords:        seo.Keywords,
	})
	if err != nil {
		return models.NewValidationError(err.Error())
	}
	return nil
}

func validatePostText(title, content, excerpt string) error {
	if strings.TrimSpace(title) == "" {
		return models.NewValidationError("Title is required")
	}
	if utf8.RuneCountInString(title) > maxTitleLen {
		return models.NewValidationError("Title too long (max 300 characters)")
	}
	if strings.TrimSpace(content) == "" {
		return models.NewValidationError("Content is required")
	}
	if len(content) > maxContentLen {
		return models.NewValidationError("Content too long (max 100000 characters)")
	}
	if utf8.RuneCountInString(excerpt) > maxExcerptLen {
		return models.NewValidationError("Excerpt too long (max 500 characters)")
	}
	return nil
}

// uniqueSlug returns base, or base-2, base-3 ... for the first free slug.
func (s *PostService) uniqueSlug(ctx context.Context, base string) (string, error) {
	candidate := base
	for i := 2; i <= maxSlugAttempts+1; i++ {
		taken, err := s.posts.SlugExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
	return "", models.NewConflictError("Could not find a free slug, pick one explicitly")
}

func (s *PostService) checkPublication(ctx context.Context, user *models.User, publicationID *uint) error {
	if publicationID == nil {
		return nil
	}
	pub, err := s.publications.GetByID(ctx, *publicationID)
	if err != nil {
		return err
	}
	if pub.OwnerID == user.ID || user.IsAdmin() {
		return nil
	}
	member, err := s.publications.IsMember(ctx, pub.ID, user.ID)
	if err != nil {
		return err
	}
	if !member {
		return models.NewForbiddenError("Only members of the publication can post to it")
	}
	return nil
}

func (s *PostService) checkCategory(ctx context.Context, categoryID *uint) error {
	if categoryID == nil {
		return nil
	}
	_, err := s.categories.GetByID(ctx, *categoryID)
	return err
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	user, err := activeUser(ctx, s.users, in.UserID)
	if err != nil {
		return nil, err
	}
	if !user.CanAuthor() {
		return nil, models.NewForbiddenError("Only authors can write posts")
	}
	if err := validatePostText(in.Title, in.Content, in.Excerpt); err != nil {
		return nil, err
	}
	tags, err := normalizeTags(in.Tags)
	if err != nil {
		return nil, err
	}
	if err := validateSEO(in.SEO); err != nil {
		return nil, err
	}
	if err := s.checkCategory(ctx, in.CategoryID); err != nil {
		return nil, err
	}
	if err := s.checkPublication(ctx, user, in.PublicationID); err != nil {
		return nil, err
	}

	base := strings.TrimSpace(in.Slug)
	if base != "" {
		if err := validation.ValidateSlug(base); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
	} else if base = validation.Slugify(in.Title); base == "" {
		base = "post"
	}
	slug, err := s.uniqueSlug(ctx, base)
	if err != nil {
		return nil, err
	}

	post := &models.Post{
		Slug:          slug,
		Title:         strings.TrimSpace(in.Title),
		Content:       in.Content,
		Excerpt:       in.Excerpt,
		AuthorID:      user.ID,
		CategoryID:    in.CategoryID,
		PublicationID: in.PublicationID,
		Tags:          tags,
		SEO:           in.SEO,
	}
	if in.Publish {
		now := s.now()
		post.Published = true
		post.PublishedAt = &now
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, err
	}
	return s.posts.GetByID(ctx, post.ID)
}

// loadVisible returns the post when viewer may see it: published posts for
// everyone, drafts only for their author and admins.
func (s *PostService) loadVisible(ctx context.Context, slug string, viewer *models.User) (*models.Post, error) {
	if viewer == nil {
		var post models.Post
		err := cache.Aside(ctx, s.rdb, cache.PostKey(slug), &post, cache.PostTTL, func() error {
			p, err := s.posts.GetBySlug(ctx, slug)
			if err != nil {
				return err
			}
			if !p.Published {
				return models.NewNotFoundError("Post", slug)
			}
			post = *p
			return nil
		})
		if err != nil {
			return nil, err
		}
		// The cached copy carries the body only; counters move on every vote,
		// comment and read.
		c, err := s.posts.Counters(ctx, post.ID)
		if err != nil {
			if models.HasCode(err, models.CodeNotFound) {
				s.invalidate(ctx, slug)
			}
			return nil, err
		}
		post.Views, post.Upvotes, post.Downvotes, post.CommentCount = c.Views, c.Upvotes, c.Downvotes, c.CommentCount
		return &post, nil
	}

	post, err := s.posts.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !post.Published && !ownsOrAdmin(viewer, post.AuthorID) {
		return nil, models.NewNotFoundError("Post", slug)
	}
	return post, nil
}

// GetPost returns a post and counts the read. Authors reading their own post
// are not counted.
func (s *PostService) GetPost(ctx context.Context, slug string, view ViewContext) (*models.Post, error) {
	var viewer *models.User
	if view.ViewerID != 0 {
		u, err := s.users.GetByID(ctx, view.ViewerID)
		if err != nil && !models.HasCode(err, models.CodeNotFound) {
			return nil, err
		}
		viewer = u
	}

	post, err := s.loadVisible(ctx, slug, viewer)
	if err != nil {
		return nil, err
	}
	if !post.Published || (viewer != nil && viewer.ID == post.AuthorID) {
		return post, nil
	}

	if err := s.posts.IncrementViews(ctx, post.ID); err != nil {
		slog.WarnContext(ctx, "failed to increment post views", "post_id", post.ID, "err", err)
	} else {
		post.Views++
	}
	if s.views != nil {
		var viewerID *uint
		if viewer != nil {
			viewerID = &viewer.ID
		}
		ev := analytics.NewEvent(post.ID, post.AuthorID, viewerID, view.VisitorHash, view.Referrer, s.now())
		if err := s.views.RecordView(ctx, ev); err != nil {
			slog.WarnContext(ctx, "failed to record view event", "post_id", post.ID, "store", s.views.Name(), "err", err)
		}
	}
	return post, nil
}

func (s *PostService) loadOwned(ctx context.Context, userID uint, slug string) (*models.User, *models.Post, error) {
	user, err := activeUser(ctx, s.users, userID)
	if err != nil {
		return nil, nil, err
	}
	post, err := s.posts.GetBySlug(ctx, slug)
	if err != nil {
		return nil, nil, err
	}
	return user, post, nil
}

func (s *PostService) invalidate(ctx context.Context, slug string) {
	cache.Invalidate(ctx, s.rdb, cache.PostKey(slug))
}

func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (*models.Post, error) {
	user, post, err := s.loadOwned(ctx, in.UserID, in.Slug)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != user.ID {
		return nil, models.NewForbiddenError("You can only edit your own posts")
	}

	if in.Title != nil {
		post.Title = strings.TrimSpace(*in.Title)
	}
	if in.Content != nil {
		post.Content = *in.Content
	}
	if in.Excerpt != nil {
		post.Excerpt = *in.Excerpt
	}
	if err := validatePostText(post.Title, post.Content, post.Excerpt); err != nil {
		return nil, err
	}
	if in.Tags != nil {
		tags, err := normalizeTags(*in.Tags)
		if err != nil {
			return nil, err
		}
		post.Tags = tags
	}
	if in.SEO != nil {
		if err := validateSEO(*in.SEO); err != nil {
			return nil, err
		}
		post.SEO = *in.SEO
	}
	if in.CategoryID != nil {
		if err := s.checkCategory(ctx, in.CategoryID); err != nil {
			return nil, err
		}
		post.CategoryID = in.CategoryID
	}
	if in.PublicationID != nil {
		if err := s.checkPublication(ctx, user, in.PublicationID); err != nil {
			return nil, err
		}
		post.PublicationID = in.PublicationID
	}

	if err := s.posts.Update(ctx, post); err != nil {
		return nil, err
	}
	s.invalidate(ctx, post.Slug)
	return s.posts.GetByID(ctx, post.ID)
}

// SetPublished publishes or unpublishes a post. The first publication time is
// kept across unpublish/publish cycles.
func (s *PostService) SetPublished(ctx context.Context, userID uint, slug string, publish bool) (*models.Post, error) {
	user, post, err := s.loadOwned(ctx, userID, slug)
	if err != nil {
		return nil, err
	}
	if !ownsOrAdmin(user, post.AuthorID) {
		return nil, models.NewForbiddenError("You can only publish your own posts")
	}
	at := post.PublishedAt
	if publish && at == nil {
		now := s.now()
		at = &now
	}
	if err := s.posts.SetPublished(ctx, post.ID, publish, at); err != nil {
		return nil, err
	}
	s.invalidate(ctx, post.Slug)
	post.Published = publish
	post.PublishedAt = at
	return post, nil
}

func (s *PostService) DeletePost(ctx context.Context, userID uint, slug string) error {
	user, post, err := s.loadOwned(ctx, userID, slug)
	if err != nil {
		return err
	}
	if !ownsOrAdmin(user, post.AuthorID) {
		return models.NewForbiddenError("You can only delete your own posts")
	}
	if err := s.posts.SoftDelete(ctx, post.ID, s.now()); err != nil {
		return err
	}
	s.invalidate(ctx, post.Slug)
	if user.ID != post.AuthorID {
		observability.NewAuditLogger().LogAdminAction(ctx, user.ID, "delete_post", "post", post.ID, map[string]interface{}{"slug": post.Slug})
	}
	return nil
}

// SetEditorsPick toggles the curation flag. Callers are admins.
func (s *PostService) SetEditorsPick(ctx context.Context, adminID uint, slug string, pick bool) (*models.Post, error) {
	post, err := s.posts.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if err := s.posts.SetEditorsPick(ctx, post.ID, pick); err != nil {
		return nil, err
	}
	s.invalidate(ctx, post.Slug)
	observability.NewAuditLogger().LogAdminAction(ctx, adminID, "editors_pick", "post", post.ID, map[string]interface{}{"pick": pick})
	post.EditorsPick = pick
	return post, nil
}

func (s *PostService) filterFor(ctx context.Context, in ListPostsInput) (repository.PostFilter, error) {
	f := repository.PostFilter{
		AuthorID:    in.AuthorID,
		Tag:         strings.ToLower(strings.TrimSpace(in.Tag)),
		EditorsPick: in.EditorsPick,
		Query:       strings.TrimSpace(in.Query),
		Limit:       in.Limit,
		Offset:      in.Offset,
	}
	if in.CategorySlug != "" {
		c, err := s.categories.GetBySlug(ctx, in.CategorySlug)
		if err != nil {
			return f, err
		}
		f.CategoryID = c.ID
	}
	if in.PublicationSlug != "" {
		p, err := s.publications.GetBySlug(ctx, in.PublicationSlug)
		if err != nil {
			return f, err
		}
		f.PublicationID = p.ID
	}
	return f, nil
}

// ListPosts lists published posts. Ranked sorts score a bounded candidate set
// of the most recent matching posts and paginate in memory.
func (s *PostService) ListPosts(ctx context.Context, in ListPostsInput) ([]*models.Post, error) {
	f, err := s.filterFor(ctx, in)
	if err != nil {
		return nil, err
	}

	switch in.Sort {
	case "", SortNew:
		return s.posts.List(ctx, f)
	case SortEngagement:
		candidates, err := s.candidates(ctx, f, nil)
		if err != nil {
			return nil, err
		}
		s.scoreEngagement(candidates)
		return paginate(candidates, in.Limit, in.Offset), nil
	case SortTrending:
		ranked, err := s.rankTrending(ctx, f)
		if err != nil {
			return nil, err
		}
		return paginate(ranked, in.Limit, in.Offset), nil
	default:
		return nil, models.NewValidationError("sort must be one of new, engagement, trending")
	}
}

func (s *PostService) candidates(ctx context.Context, f repository.PostFilter, since *time.Time) ([]*models.Post, error) {
	f.Limit = rankedCandidateLimit
	f.Offset = 0
	f.PublishedSince = since
	return s.posts.List(ctx, f)
}

func (s *PostService) scoreEngagement(posts []*models.Post) {
	now := s.now()
	for _, p := range posts {
		days := p.AgeAt(now).Hours() / 24
		p.Score = ranking.EngagementScore(p.Upvotes, p.Downvotes, p.CommentCount, days)
	}
	ranking.SortDesc(posts)
}

// rankTrending scores posts published in the last week on their recent
// activity and drops the ones that do not qualify.
func (s *PostService) rankTrending(ctx context.Context, f repository.PostFilter) ([]*models.Post, error) {
	span, ctx := observability.NewSpan(ctx, "PostService.rankTrending")
	defer span.End()

	now := s.now()
	since := now.Add(-trendingLookback)
	posts, err := s.candidates(ctx, f, &since)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	ids := make([]uint, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.ID)
	}
	activity, err := s.posts.TrendingActivity(ctx, ids, now)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	ranked := make([]*models.Post, 0, len(posts))
	for _, p := range posts {
		age := p.AgeAt(now)
		a := activity[p.ID]
		votes, comments := a.Votes72h, a.Comments72h
		if ranking.TrendingWindow(age) == 24*time.Hour {
			votes, comments = a.Votes24h, a.Comments24h
		}
		p.Score = ranking.TrendingScore(votes, comments, age.Hours())
		if p.Score > 0 {
			ranked = append(ranked, p)
		}
	}
	ranking.SortDesc(ranked)
	span.AddAttributes(
		attribute.Int("candidates", len(posts)),
		attribute.Int("trending", len(ranked)),
	)
	return ranked, nil
}

// Trending returns the site-wide trending list, cached briefly in Redis.
func (s *PostService) Trending(ctx context.Context, limit int) ([]*models.Post, error) {
	limit, _ = repository.Page(limit, 0)
	var posts []*models.Post
	err := cache.Aside(ctx, s.rdb, cache.TrendingKey(limit), &posts, cache.TrendingTTL, func() error {
		ranked, err := s.rankTrending(ctx, repository.PostFilter{})
		if err != nil {
			return err
		}
		posts = paginate(ranked, limit, 0)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return posts, nil
}

func (s *PostService) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := cache.Aside(ctx, s.rdb, cache.CategoriesKey, &categories, cache.CategoriesTTL, func() error {
		list, err := s.categories.List(ctx)
		categories = list
		return err
	})
	return categories, err
}

// CreateCategory is an admin operation.
func (s *PostService) CreateCategory(ctx context.Context, adminID uint, slug, name, description string) (*models.Category, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		slug = validation.Slugify(name)
	}
	if err := validation.ValidateSlug(slug); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if strings.TrimSpace(name) == "" {
		return nil, models.NewValidationError("Name is required")
	}
	c := &models.Category{Slug: slug, Name: strings.TrimSpace(name), Description: description}
	if err := s.categories.Create(ctx, c); err != nil {
		return nil, err
	}
	cache.Invalidate(ctx, s.rdb, cache.CategoriesKey)
	observability.NewAuditLogger().LogAdminAction(ctx, adminID, "create_category", "category", c.ID, nil)
	return c, nil
}

// AdminListPosts lists posts in any state, deleted ones included.
func (s *PostService) AdminListPosts(ctx context.Context, status repository.PostStatus, query string, limit, offset int) ([]*models.Post, int64, error) {
	if status == "" {
		status = repository.PostsAll
	}
	f := repository.PostFilter{Status: status, IncludeDeleted: true, Query: query, Limit: limit, Offset: offset}
	total, err := s.posts.Count(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	posts, err := s.posts.List(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}
