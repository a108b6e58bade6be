package seed

import (
	"context"
	"testing"
	"time"

	"inkraft/internal/config"
	"inkraft/internal/database"
	"inkraft/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	cfg := &config.Config{Env: "test", DBDriver: "sqlite"}
	require.NoError(t, database.ApplySchema(context.Background(), db, cfg))
	return db
}

func TestParseCategories(t *testing.T) {
	items, err := BuiltInCategories()
	require.NoError(t, err)
	assert.NotEmpty(t, items)

	_, err = ParseCategories([]byte("categories:\n  - slug: a\n    name: A\n  - slug: a\n    name: B\n"))
	assert.ErrorContains(t, err, "duplicate")

	_, err = ParseCategories([]byte("categories:\n  - slug: nameless\n"))
	assert.Error(t, err)

	_, err = ParseCategories([]byte("categories: [unterminated"))
	assert.Error(t, err)
}

func TestCategories_Idempotent(t *testing.T) {
	db := setupSQLiteDB(t)

	first, err := Categories(db)
	require.NoError(t, err)
	second, err := Categories(db)
	require.NoError(t, err)
	require.Len(t, second, len(first))

	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
	}

	var count int64
	require.NoError(t, db.Model(&models.Category{}).Count(&count).Error)
	assert.Equal(t, int64(len(first)), count)
}

func TestFactory_DryRun(t *testing.T) {
	f := NewFactory(nil, Options{DryRun: true, SkipBcrypt: true, MaxDays: 10, RandomSeed: 42})

	author, err := f.CreateUser(models.RoleAuthor)
	require.NoError(t, err)
	assert.NotZero(t, author.ID)
	assert.LessOrEqual(t, len(author.Username), 30)
	assert.GreaterOrEqual(t, author.TrustScore, 0.6)
	assert.LessOrEqual(t, author.TrustScore, 1.8)

	cat := models.Category{ID: 3, Slug: "engineering"}
	post := f.BuildPost(author, []models.Category{cat})
	assert.Equal(t, author.ID, post.AuthorID)
	require.NotNil(t, post.CategoryID)
	assert.Equal(t, uint(3), *post.CategoryID)
	assert.NotEmpty(t, post.Slug)
	assert.LessOrEqual(t, len(post.SEO.MetaTitle), 70)
	assert.WithinDuration(t, time.Now(), post.CreatedAt, 11*24*time.Hour)
	if post.Published {
		require.NotNil(t, post.PublishedAt)
		assert.False(t, post.PublishedAt.Before(post.CreatedAt))
	}

	require.NoError(t, f.CreatePostsBatch([]*models.Post{post}))
	assert.NotZero(t, post.ID)

	trusted := f.BuildUser(models.RoleReader, func(u *models.User) { u.TrustScore = 1.5 })
	c, err := f.CreateComment(context.Background(), trusted, post, nil)
	require.NoError(t, err)
	assert.Equal(t, models.ModerationApproved, c.ModerationStatus)

	newcomer := f.BuildUser(models.RoleReader, func(u *models.User) { u.TrustScore = 1.0 })
	reply, err := f.CreateComment(context.Background(), newcomer, post, c)
	require.NoError(t, err)
	assert.Equal(t, models.ModerationPending, reply.ModerationStatus)
	assert.Equal(t, 1, reply.Depth)
}

func TestSeed_SQLite(t *testing.T) {
	db := setupSQLiteDB(t)

	sum, err := Seed(context.Background(), db, Options{
		NumUsers:        9,
		NumPosts:        12,
		CommentsPerPost: 3,
		SkipBcrypt:      true,
		MaxDays:         14,
		RandomSeed:      7,
	})
	require.NoError(t, err)
	assert.Equal(t, 9, sum.Users)
	assert.Equal(t, 12, sum.Posts)
	assert.Equal(t, 1, sum.Publications)

	var posts []models.Post
	require.NoError(t, db.Find(&posts).Error)
	require.Len(t, posts, 12)

	// Counters written through the repositories match the rows.
	for _, p := range posts {
		var comments int64
		require.NoError(t, db.Model(&models.Comment{}).Where("post_id = ?", p.ID).Count(&comments).Error)
		assert.Equal(t, int(comments), p.CommentCount, "post %d", p.ID)

		var up float64
		require.NoError(t, db.Model(&models.Vote{}).Where("post_id = ? AND direction = ?", p.ID, models.VoteUp).
			Select("COALESCE(SUM(weight), 0)").Scan(&up).Error)
		assert.InDelta(t, up, p.Upvotes, 1e-6, "post %d", p.ID)
	}

	var authors int64
	require.NoError(t, db.Model(&models.User{}).Where("role = ?", models.RoleAuthor).Count(&authors).Error)
	assert.Equal(t, int64(3), authors)
}

func TestSeed_RequiresTwoUsers(t *testing.T) {
	_, err := Seed(context.Background(), nil, Options{NumUsers: 1, DryRun: true})
	assert.Error(t, err)
}

func TestClearData(t *testing.T) {
	db := setupSQLiteDB(t)
	_, err := Seed(context.Background(), db, Options{NumUsers: 3, NumPosts: 2, SkipBcrypt: true, RandomSeed: 1})
	require.NoError(t, err)

	require.NoError(t, clearData(db))

	var users, categories int64
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	require.NoError(t, db.Model(&models.Category{}).Count(&categories).Error)
	assert.Zero(t, users)
	assert.Zero(t, categories)
}
