package repository

import (
	"context"
	"time"

	"inkraft/internal/models"

	"gorm.io/gorm"
)

// PostStatus selects posts by publication state.
type PostStatus string

const (
	PostsPublished PostStatus = "published"
	PostsDrafts    PostStatus = "draft"
	PostsAll       PostStatus = "all"
)

// PostFilter narrows post listings. The zero value lists published,
// non-deleted posts, newest first.
type PostFilter struct {
	Status         PostStatus
	IncludeDeleted bool
	AuthorID       uint
	CategoryID     uint
	PublicationID  uint
	Tag            string
	EditorsPick    bool
	Query          string
	PublishedSince *time.Time
	Limit          int
	Offset         int
}

// TrendingCounts holds recent activity for one post in both trending windows.
type TrendingCounts struct {
	Votes24h    int
	Votes72h    int
	Comments24h int
	Comments72h int
}

// PostTotals aggregates counters across an author's posts.
type PostTotals struct {
	Posts     int64   `json:"posts"`
	Views     int64   `json:"views"`
	Upvotes   float64 `json:"upvotes"`
	Downvotes float64 `json:"downvotes"`
	Comments  int64   `json:"comments"`
}

// PostCounters are the engagement columns that change on every vote, comment
// and read.
type PostCounters struct {
	Views        int64
	Upvotes      float64
	Downvotes    float64
	CommentCount int
}

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	GetBySlug(ctx context.Context, slug string) (*models.Post, error)
	GetByIDs(ctx context.Context, ids []uint) ([]*models.Post, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	List(ctx context.Context, f PostFilter) ([]*models.Post, error)
	Count(ctx context.Context, f PostFilter) (int64, error)
	Update(ctx context.Context, post *models.Post) error
	SetPublished(ctx context.Context, id uint, published bool, at *time.Time) error
	SetEditorsPick(ctx context.Context, id uint, pick bool) error
	SoftDelete(ctx context.Context, id uint, at time.Time) error
	IncrementViews(ctx context.Context, id uint) error
	Counters(ctx context.Context, id uint) (PostCounters, error)
	TrendingActivity(ctx context.Context, postIDs []uint, now time.Time) (map[uint]TrendingCounts, error)
	AuthorTotals(ctx context.Context, authorID uint) (PostTotals, error)
}

// postRepository implements PostRepository
type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

// editablePostColumns are the columns Update writes. Counters are only
// changed through single-statement increments.
var editablePostColumns = []string{
	"title", "content", "excerpt", "category_id", "tags", "publication_id",
	"seo_meta_title", "seo_meta_description", "seo_canonical_url", "seo_og_image", "seo_keywords",
	"updated_at",
}

func (r *postRepository) withRelations(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Author", preloadPublicUser).
		Preload("Category").
		Preload("Publication")
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("Slug already in use")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	err := r.withRelations(r.db.WithContext(ctx)).
		Where("deleted = ?", false).
		First(&post, id).Error
	if err != nil {
		return nil, notFoundOr(err, "Post", id)
	}
	return &post, nil
}

func (r *postRepository) GetBySlug(ctx context.Context, slug string) (*models.Post, error) {
	var post models.Post
	err := r.withRelations(r.db.WithContext(ctx)).
		Where("slug = ? AND deleted = ?", slug, false).
		First(&post).Error
	if err != nil {
		return nil, notFoundOr(err, "Post", slug)
	}
	return &post, nil
}

func (r *postRepository) GetByIDs(ctx context.Context, ids []uint) ([]*models.Post, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var posts []*models.Post
	if err := r.withRelations(r.db.WithContext(ctx)).Where("id IN ? AND deleted = ?", ids, false).Find(&posts).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

// SlugExists also sees deleted posts, since they keep their slug.
func (r *postRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Post{}).Where("slug = ?", slug).Count(&n).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return n > 0, nil
}

func (r *postRepository) filtered(ctx context.Context, f PostFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&models.Post{})
	if !f.IncludeDeleted {
		q = q.Where("posts.deleted = ?", false)
	}
	switch f.Status {
	case PostsAll:
	case PostsDrafts:
		q = q.Where("posts.published = ?", false)
	default:
		q = q.Where("posts.published = ?", true)
	}
	if f.AuthorID != 0 {
		q = q.Where("posts.author_id = ?", f.AuthorID)
	}
	if f.CategoryID != 0 {
		q = q.Where("posts.category_id = ?", f.CategoryID)
	}
	if f.PublicationID != 0 {
		q = q.Where("posts.publication_id = ?", f.PublicationID)
	}
	if f.Tag != "" {
		q = q.Where("posts.tags LIKE ?"+likeEscapeClause, tagPattern(f.Tag))
	}
	if f.EditorsPick {
		q = q.Where("posts.editors_pick = ?", true)
	}
	if f.Query != "" {
		q = q.Where("LOWER(posts.title) LIKE ?"+likeEscapeClause, likePattern(f.Query))
	}
	if f.PublishedSince != nil {
		q = q.Where("posts.published_at >= ?", *f.PublishedSince)
	}
	return q
}

func (r *postRepository) List(ctx context.Context, f PostFilter) ([]*models.Post, error) {
	limit, offset := Page(f.Limit, f.Offset)
	if f.Limit > maxLimit {
		// Ranking callers pull a wider candidate set than one page.
		limit = f.Limit
	}
	var posts []*models.Post
	err := r.withRelations(r.filtered(ctx, f)).
		Order("COALESCE(posts.published_at, posts.created_at) DESC, posts.id DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func (r *postRepository) Count(ctx context.Context, f PostFilter) (int64, error) {
	var n int64
	if err := r.filtered(ctx, f).Count(&n).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}

func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	err := r.db.WithContext(ctx).Model(post).Select(editablePostColumns).Updates(post).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *postRepository) updateColumns(ctx context.Context, id uint, fields map[string]any) error {
	res := r.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ? AND deleted = ?", id, false).
		Updates(fields)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Post", id)
	}
	return nil
}

func (r *postRepository) SetPublished(ctx context.Context, id uint, published bool, at *time.Time) error {
	return r.updateColumns(ctx, id, map[string]any{"published": published, "published_at": at})
}

func (r *postRepository) SetEditorsPick(ctx context.Context, id uint, pick bool) error {
	return r.updateColumns(ctx, id, map[string]any{"editors_pick": pick})
}

func (r *postRepository) SoftDelete(ctx context.Context, id uint, at time.Time) error {
	return r.updateColumns(ctx, id, map[string]any{"deleted": true, "deleted_at": at})
}

func (r *postRepository) IncrementViews(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + ?", 1)).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *postRepository) Counters(ctx context.Context, id uint) (PostCounters, error) {
	var c PostCounters
	err := r.db.WithContext(ctx).Model(&models.Post{}).
		Select("views, upvotes, downvotes, comment_count").
		Where("id = ? AND deleted = ?", id, false).
		Take(&c).Error
	if err != nil {
		return PostCounters{}, notFoundOr(err, "Post", id)
	}
	return c, nil
}

type windowCount struct {
	PostID     uint
	ShortCount int
	LongCount  int
}

// TrendingActivity counts votes and non-deleted comments per post over the
// last 24h and 72h.
func (r *postRepository) TrendingActivity(ctx context.Context, postIDs []uint, now time.Time) (map[uint]TrendingCounts, error) {
	out := make(map[uint]TrendingCounts, len(postIDs))
	if len(postIDs) == 0 {
		return out, nil
	}
	short := now.Add(-24 * time.Hour)
	long := now.Add(-72 * time.Hour)

	var votes []windowCount
	err := r.db.WithContext(ctx).Model(&models.Vote{}).
		Select("post_id, SUM(CASE WHEN created_at >= ? THEN 1 ELSE 0 END) AS short_count, COUNT(*) AS long_count", short).
		Where("post_id IN ? AND created_at >= ?", postIDs, long).
		Group("post_id").
		Scan(&votes).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	var comments []windowCount
	err = r.db.WithContext(ctx).Model(&models.Comment{}).
		Select("post_id, SUM(CASE WHEN created_at >= ? THEN 1 ELSE 0 END) AS short_count, COUNT(*) AS long_count", short).
		Where("post_id IN ? AND created_at >= ? AND deleted = ?", postIDs, long, false).
		Group("post_id").
		Scan(&comments).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	for _, v := range votes {
		c := out[v.PostID]
		c.Votes24h, c.Votes72h = v.ShortCount, v.LongCount
		out[v.PostID] = c
	}
	for _, cm := range comments {
		c := out[cm.PostID]
		c.Comments24h, c.Comments72h = cm.ShortCount, cm.LongCount
		out[cm.PostID] = c
	}
	return out, nil
}

func (r *postRepository) AuthorTotals(ctx context.Context, authorID uint) (PostTotals, error) {
	var t PostTotals
	err := r.db.WithContext(ctx).Model(&models.Post{}).
		Select("COUNT(*) AS posts, COALESCE(SUM(views), 0) AS views, COALESCE(SUM(upvotes), 0) AS upvotes, "+
			"COALESCE(SUM(downvotes), 0) AS downvotes, COALESCE(SUM(comment_count), 0) AS comments").
		Where("author_id = ? AND deleted = ?", authorID, false).
		Scan(&t).Error
	if err != nil {
		return PostTotals{}, models.NewInternalError(err)
	}
	return t, nil
}
