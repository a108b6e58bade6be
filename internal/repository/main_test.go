package repository

import (
	"context"
	"testing"
	"time"

	"inkraft/internal/config"
	"inkraft/internal/database"
	"inkraft/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

// setupSQLiteDB returns a migrated in-memory database. A single connection
// keeps every query on the same memory database.
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

func createUser(t *testing.T, db *gorm.DB, username string, trust float64) *models.User {
	t.Helper()
	u := &models.User{
		Username:   username,
		Email:      username + "@example.com",
		Password:   "x",
		Role:       models.RoleAuthor,
		TrustScore: trust,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func createPost(t *testing.T, db *gorm.DB, author *models.User, slug string, publishedAt time.Time) *models.Post {
	t.Helper()
	at := publishedAt.UTC()
	p := &models.Post{
		Slug:        slug,
		Title:       "Title " + slug,
		Content:     "<p>body</p>",
		AuthorID:    author.ID,
		Published:   true,
		PublishedAt: &at,
		Tags:        []string{"go"},
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

func reloadPost(t *testing.T, db *gorm.DB, id uint) models.Post {
	t.Helper()
	var p models.Post
	require.NoError(t, db.First(&p, id).Error)
	return p
}

func reloadUser(t *testing.T, db *gorm.DB, id uint) models.User {
	t.Helper()
	var u models.User
	require.NoError(t, db.First(&u, id).Error)
	return u
}
