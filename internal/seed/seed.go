package seed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"inkraft/internal/database"
	"inkraft/internal/models"

	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers        int
	NumPosts        int
	CommentsPerPost int
	ShouldClean     bool
	SkipBcrypt      bool
	DryRun          bool
	MaxDays         int
	BatchSize       int
	RandomSeed      int64
	// AutoApproveTrust mirrors AUTO_APPROVE_TRUST; zero means the default.
	AutoApproveTrust float64
}

const defaultAutoApproveTrust = 1.2

func (o Options) autoApproveTrust() float64 {
	if o.AutoApproveTrust > 0 {
		return o.AutoApproveTrust
	}
	return defaultAutoApproveTrust
}

// Summary counts what a seeding run created.
type Summary struct {
	Categories   int
	Users        int
	Posts        int
	Comments     int
	Votes        int
	Follows      int
	Publications int
	Digests      int
}

// Seed populates the database with demo data: the built-in categories,
// authors and readers, posts, comment threads, votes, follows, one
// publication and one published digest.
func Seed(ctx context.Context, db *gorm.DB, opts Options) (*Summary, error) {
	slog.Info("Starting database seeding", "users", opts.NumUsers, "posts", opts.NumPosts, "dry_run", opts.DryRun)
	if opts.NumUsers < 2 {
		return nil, fmt.Errorf("seeding needs at least 2 users, got %d", opts.NumUsers)
	}

	if opts.ShouldClean && !opts.DryRun {
		if err := clearData(db); err != nil {
			slog.Warn("Could not clear all existing data, continuing anyway", "error", err)
		}
	}

	sum := &Summary{}
	f := NewFactory(db, opts)

	var categories []models.Category
	if !opts.DryRun {
		var err error
		categories, err = Categories(db)
		if err != nil {
			return nil, err
		}
	}
	sum.Categories = len(categories)

	// Roughly a third of the accounts write; the rest read and comment.
	var authors, everyone []*models.User
	for i := 0; i < opts.NumUsers; i++ {
		role := models.RoleReader
		if i%3 == 0 {
			role = models.RoleAuthor
		}
		u, err := f.CreateUser(role)
		if err != nil {
			return nil, fmt.Errorf("create user: %w", err)
		}
		if role == models.RoleAuthor {
			authors = append(authors, u)
		}
		everyone = append(everyone, u)
	}
	sum.Users = len(everyone)
	slog.Info("Seeded users", "count", sum.Users, "authors", len(authors))

	posts := make([]*models.Post, 0, opts.NumPosts)
	for i := 0; i < opts.NumPosts; i++ {
		posts = append(posts, f.BuildPost(authors[f.rng.Intn(len(authors))], categories))
	}
	if err := f.CreatePostsBatch(posts); err != nil {
		return nil, fmt.Errorf("create posts: %w", err)
	}
	sum.Posts = len(posts)

	var published []*models.Post
	for _, p := range posts {
		if p.Published {
			published = append(published, p)
		}
	}

	for _, p := range published {
		n, err := seedThread(ctx, f, everyone, p, opts.CommentsPerPost)
		if err != nil {
			return nil, err
		}
		sum.Comments += n

		for _, u := range everyone {
			if u.ID == p.AuthorID || f.rng.Float64() > 0.3 {
				continue
			}
			dir := models.VoteUp
			if f.rng.Float64() < 0.2 {
				dir = models.VoteDown
			}
			if err := f.CreateVote(ctx, u, p, dir); err != nil {
				return nil, fmt.Errorf("vote on post %d: %w", p.ID, err)
			}
			sum.Votes++
		}
	}
	slog.Info("Seeded engagement", "comments", sum.Comments, "votes", sum.Votes)

	if opts.DryRun {
		slog.Info("Dry run finished, nothing written")
		return sum, nil
	}

	follows, err := seedFollows(db, f, everyone, authors)
	if err != nil {
		return nil, err
	}
	sum.Follows = follows

	if err := seedCuration(db, authors, published, sum); err != nil {
		return nil, err
	}

	slog.Info("Database seeding completed", "summary", fmt.Sprintf("%+v", *sum))
	return sum, nil
}

func seedThread(ctx context.Context, f *Factory, users []*models.User, post *models.Post, perPost int) (int, error) {
	if perPost <= 0 {
		return 0, nil
	}
	created := 0
	var roots []*models.Comment
	for i := 0; i < f.rng.Intn(perPost+1); i++ {
		var parent *models.Comment
		if len(roots) > 0 && f.rng.Float64() < 0.4 {
			parent = roots[f.rng.Intn(len(roots))]
		}
		c, err := f.CreateComment(ctx, users[f.rng.Intn(len(users))], post, parent)
		if err != nil {
			return created, fmt.Errorf("comment on post %d: %w", post.ID, err)
		}
		if parent == nil {
			roots = append(roots, c)
		}
		created++
	}
	return created, nil
}

func seedFollows(db *gorm.DB, f *Factory, users, authors []*models.User) (int, error) {
	count := 0
	for _, u := range users {
		for _, a := range authors {
			if a.ID == u.ID || f.rng.Float64() > 0.25 {
				continue
			}
			authorID := a.ID
			if err := db.Create(&models.Follow{FollowerID: u.ID, AuthorID: &authorID}).Error; err != nil {
				return count, fmt.Errorf("follow author %d: %w", a.ID, err)
			}
			count++
		}
	}
	return count, nil
}

func seedCuration(db *gorm.DB, authors []*models.User, published []*models.Post, sum *Summary) error {
	owner := authors[0]
	pub := models.Publication{
		Slug:        fmt.Sprintf("the-inkraft-review-%d", owner.ID),
		Name:        "The Inkraft Review",
		Description: "Selected writing from the Inkraft community.",
		OwnerID:     owner.ID,
	}
	if err := db.Create(&pub).Error; err != nil {
		return fmt.Errorf("create publication: %w", err)
	}
	if len(authors) > 1 {
		if err := db.Create(&models.PublicationMember{PublicationID: pub.ID, UserID: authors[1].ID}).Error; err != nil {
			return fmt.Errorf("add publication member: %w", err)
		}
	}
	sum.Publications = 1

	if len(published) == 0 {
		return nil
	}
	now := time.Now().UTC()
	digest := models.Digest{
		Slug:        fmt.Sprintf("weekly-picks-%d", now.Unix()),
		Title:       "Weekly Picks",
		Intro:       "A handful of posts worth your time this week.",
		CuratorID:   owner.ID,
		Published:   true,
		PublishedAt: &now,
	}
	if err := db.Create(&digest).Error; err != nil {
		return fmt.Errorf("create digest: %w", err)
	}
	for i, p := range published {
		if i == 5 {
			break
		}
		item := models.DigestItem{DigestID: digest.ID, PostID: p.ID, Position: i}
		if err := db.Create(&item).Error; err != nil {
			return fmt.Errorf("add digest item: %w", err)
		}
	}
	sum.Digests = 1
	return nil
}

// clearData removes every row from the schema-managed tables, children first.
func clearData(db *gorm.DB) error {
	slog.Info("Clearing existing data")
	if db.Dialector.Name() == "postgres" {
		return db.Exec(`TRUNCATE TABLE view_events, alerts, digest_items, digests, reading_history,
			saved_posts, follows, votes, comments, posts, publication_members, publications,
			categories, users RESTART IDENTITY CASCADE`).Error
	}
	all := database.PersistentModels()
	for i := len(all) - 1; i >= 0; i-- {
		if err := db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(all[i]).Error; err != nil {
			return err
		}
	}
	return nil
}
