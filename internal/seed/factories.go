// Package seed provides helpers to create demo data for the application
// database. These helpers are intended for development and testing only.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"inkraft/internal/models"
	"inkraft/internal/repository"
	"inkraft/internal/trust"
	"inkraft/internal/validation"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the password of every seeded account.
const DefaultPassword = "Inkraft-Demo-2026!"

// Factory builds domain entities and persists them to the database.
// Comments and votes go through the repositories so post and user counters
// stay consistent with the rows.
type Factory struct {
	db       *gorm.DB
	opts     Options
	rng      *rand.Rand
	comments repository.CommentRepository
	votes    repository.VoteRepository
	password string
	// synthetic ID counter when running in DryRun mode
	nextID uint
}

// NewFactory creates a new Factory bound to the provided Gorm DB. db may be
// nil in DryRun mode.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	seed := opts.RandomSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	gofakeit.Seed(seed)

	f := &Factory{
		db:     db,
		opts:   opts,
		rng:    rand.New(rand.NewSource(seed)), //nolint:gosec // demo data
		nextID: 1000,
	}
	if db != nil {
		f.comments = repository.NewCommentRepository(db)
		f.votes = repository.NewVoteRepository(db)
	}
	return f
}

func (f *Factory) hashedPassword() string {
	if f.password != "" {
		return f.password
	}
	if f.opts.SkipBcrypt {
		f.password = DefaultPassword
		return f.password
	}
	hashed, _ := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.DefaultCost)
	f.password = string(hashed)
	return f.password
}

func (f *Factory) assignID() uint {
	f.nextID++
	return f.nextID
}

// BuildUser constructs an unsaved user with a trust score spread around the
// default so seeded comments exercise both moderation paths.
func (f *Factory) BuildUser(role models.Role, overrides ...func(*models.User)) *models.User {
	username := strings.ToLower(gofakeit.Username()) + fmt.Sprintf("%d", gofakeit.Number(100, 999))
	if len(username) > 30 {
		username = username[:30]
	}
	user := &models.User{
		Username:   username,
		Email:      username + "@example.com",
		Password:   f.hashedPassword(),
		Name:       gofakeit.Name(),
		Bio:        gofakeit.Sentence(10),
		Avatar:     fmt.Sprintf("https://i.pravatar.cc/150?u=%s", gofakeit.UUID()),
		Role:       role,
		TrustScore: 0.6 + f.rng.Float64()*1.2,
	}
	for _, override := range overrides {
		override(user)
	}
	return user
}

// CreateUser builds and persists a user.
func (f *Factory) CreateUser(role models.Role, overrides ...func(*models.User)) (*models.User, error) {
	user := f.BuildUser(role, overrides...)
	if f.opts.DryRun {
		user.ID = f.assignID()
		slog.Debug("dry-run CreateUser", "username", user.Username, "role", user.Role)
		return user, nil
	}
	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// BuildPost constructs an unsaved post by author. Published posts get a
// publish time spread over the last MaxDays days.
func (f *Factory) BuildPost(author *models.User, categories []models.Category, overrides ...func(*models.Post)) *models.Post {
	title := strings.TrimSuffix(gofakeit.Sentence(6), ".")
	post := &models.Post{
		Title:     title,
		Slug:      fmt.Sprintf("%s-%d", validation.Slugify(title), f.rng.Intn(1_000_000)),
		Content:   gofakeit.Paragraph(4, 5, 12, "\n\n"),
		Excerpt:   gofakeit.Sentence(20),
		AuthorID:  author.ID,
		Tags:      []string{strings.ToLower(gofakeit.HackerNoun()), strings.ToLower(gofakeit.BuzzWord())},
		Published: f.rng.Float64() < 0.85,
	}
	if len(categories) > 0 {
		cat := categories[f.rng.Intn(len(categories))]
		post.CategoryID = &cat.ID
	}

	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 30
	}
	created := time.Now().UTC().Add(-time.Duration(f.rng.Intn(maxDays*24*60)) * time.Minute)
	post.CreatedAt = created
	if post.Published {
		at := created.Add(time.Duration(f.rng.Intn(120)) * time.Minute)
		if at.After(time.Now().UTC()) {
			at = time.Now().UTC()
		}
		post.PublishedAt = &at
	}
	post.SEO = models.SEO{MetaTitle: title, MetaDescription: post.Excerpt}
	if len(post.SEO.MetaTitle) > 70 {
		post.SEO.MetaTitle = post.SEO.MetaTitle[:70]
	}
	if len(post.SEO.MetaDescription) > 160 {
		post.SEO.MetaDescription = post.SEO.MetaDescription[:160]
	}

	for _, override := range overrides {
		override(post)
	}
	return post
}

// CreatePostsBatch persists multiple posts in a single DB call.
func (f *Factory) CreatePostsBatch(posts []*models.Post) error {
	if f.opts.DryRun {
		for _, p := range posts {
			p.ID = f.assignID()
		}
		slog.Debug("dry-run CreatePostsBatch", "count", len(posts))
		return nil
	}
	batch := f.opts.BatchSize
	if batch <= 0 {
		batch = 100
	}
	return f.db.CreateInBatches(posts, batch).Error
}

// CreateComment persists a comment by user on post. The moderation status
// follows the same trust threshold the comment service applies.
func (f *Factory) CreateComment(ctx context.Context, user *models.User, post *models.Post, parent *models.Comment) (*models.Comment, error) {
	comment := &models.Comment{
		Content:          gofakeit.Sentence(f.rng.Intn(25) + 5),
		PostID:           post.ID,
		UserID:           user.ID,
		ModerationStatus: models.ModerationPending,
	}
	if trust.AutoApproves(user.TrustScore, f.opts.autoApproveTrust()) {
		comment.ModerationStatus = models.ModerationApproved
	}
	if parent != nil {
		comment.ParentID = &parent.ID
		comment.Depth = parent.Depth + 1
	}

	if f.opts.DryRun {
		comment.ID = f.assignID()
		return comment, nil
	}
	if err := f.comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// CreateVote casts a trust-weighted vote by user on post.
func (f *Factory) CreateVote(ctx context.Context, user *models.User, post *models.Post, dir models.VoteDirection) error {
	if f.opts.DryRun {
		return nil
	}
	_, err := f.votes.ApplyVote(ctx, repository.VoteChange{
		UserID:    user.ID,
		PostID:    post.ID,
		AuthorID:  post.AuthorID,
		Direction: dir,
		Weight:    trust.VoteWeight(user.TrustScore, user.TrustFrozen),
	})
	return err
}
