//go:build integration

package seed

import (
	"context"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"inkraft/internal/config"
	"inkraft/internal/database"
	"inkraft/internal/models"
)

func parseDatabaseURLToConfig(dsn string) (*config.Config, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return nil, err
	}
	password := ""
	if u.User != nil {
		password, _ = u.User.Password()
	}
	host := u.Hostname()
	port := u.Port()
	if port == "" {
		port = "5432"
	}
	dbname := strings.TrimPrefix(u.Path, "/")
	cfg := &config.Config{
		DBDriver:     "postgres",
		DBHost:       host,
		DBPort:       port,
		DBUser:       u.User.Username(),
		DBPassword:   password,
		DBName:       dbname,
		DBSSLMode:    "disable",
		Env:          "test",
		DBSchemaMode: "auto",
	}
	return cfg, nil
}

func TestIntegration_SeedPostgres(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set; skipping integration seed test")
	}
	cfg, err := parseDatabaseURLToConfig(dsn)
	if err != nil {
		t.Fatalf("failed parse dsn: %v", err)
	}
	db, err := database.Connect(cfg)
	if err != nil {
		t.Fatalf("db connect failed: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if schemaErr := database.ApplySchema(ctx, db, cfg); schemaErr != nil {
		t.Fatalf("apply schema failed: %v", schemaErr)
	}

	sum, err := Seed(ctx, db, Options{NumUsers: 10, NumPosts: 20, CommentsPerPost: 4, ShouldClean: true, SkipBcrypt: true, MaxDays: 30})
	if err != nil {
		t.Fatalf("Seed failed: %v", err)
	}

	var cnt int64
	if err := db.Model(&models.Post{}).Count(&cnt).Error; err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	if cnt != int64(sum.Posts) {
		t.Fatalf("expected %d seeded posts, got %d", sum.Posts, cnt)
	}
}
