package service

import (
	"context"
	"strings"
	"time"

	"inkraft/internal/models"
	"inkraft/internal/repository"
	"inkraft/internal/validation"
)

const maxDigestItems = 50

type DigestService struct {
	digests repository.DigestRepository
	posts   repository.PostRepository
	users   repository.UserRepository
	now     func() time.Time
}

type CreateDigestInput struct {
	UserID uint
	Slug   string
	Title  string
	Intro  string
}

type AddDigestItemInput struct {
	UserID     uint
	DigestSlug string
	PostSlug   string
	Note       string
}

func NewDigestService(digests repository.DigestRepository, posts repository.PostRepository, users repository.UserRepository) *DigestService {
	return &DigestService{digests: digests, posts: posts, users: users, now: utcNow}
}

func (s *DigestService) Create(ctx context.Context, in CreateDigestInput) (*models.Digest, error) {
	user, err := activeUser(ctx, s.users, in.UserID)
	if err != nil {
		return nil, err
	}
	if !user.CanAuthor() {
		return nil, models.NewForbiddenError("Only authors can curate digests")
	}
	title := strings.TrimSpace(in.Title)
	if title == "" || len(title) > maxTitleLen {
		return nil, models.NewValidationError("Title is required (max 300 characters)")
	}
	slug := strings.TrimSpace(in.Slug)
	if slug == "" {
		slug = validation.Slugify(title)
	}
	if err := validation.ValidateSlug(slug); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	d := &models.Digest{Slug: slug, Title: title, Intro: in.Intro, CuratorID: user.ID}
	if err := s.digests.Create(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// curated loads a digest the actor may edit.
func (s *DigestService) curated(ctx context.Context, actorID uint, slug string) (*models.Digest, error) {
	actor, err := activeUser(ctx, s.users, actorID)
	if err != nil {
		return nil, err
	}
	d, err := s.digests.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !ownsOrAdmin(actor, d.CuratorID) {
		return nil, models.NewForbiddenError("Only the curator can edit this digest")
	}
	return d, nil
}

func (s *DigestService) AddItem(ctx context.Context, in AddDigestItemInput) (*models.Digest, error) {
	d, err := s.curated(ctx, in.UserID, in.DigestSlug)
	if err != nil {
		return nil, err
	}
	if len(d.Items) >= maxDigestItems {
		return nil, models.NewValidationError("A digest holds at most 50 posts")
	}
	post, err := s.posts.GetBySlug(ctx, in.PostSlug)
	if err != nil {
		return nil, err
	}
	if !post.Published {
		return nil, models.NewValidationError("Only published posts can be added to a digest")
	}
	if err := s.digests.AddItem(ctx, &models.DigestItem{DigestID: d.ID, PostID: post.ID, Note: in.Note}); err != nil {
		return nil, err
	}
	return s.digests.GetBySlug(ctx, d.Slug)
}

func (s *DigestService) RemoveItem(ctx context.Context, actorID uint, slug string, postID uint) (*models.Digest, error) {
	d, err := s.curated(ctx, actorID, slug)
	if err != nil {
		return nil, err
	}
	if err := s.digests.RemoveItem(ctx, d.ID, postID); err != nil {
		return nil, err
	}
	return s.digests.GetBySlug(ctx, d.Slug)
}

// Reorder takes the digest's post IDs in their new order.
func (s *DigestService) Reorder(ctx context.Context, actorID uint, slug string, postIDs []uint) (*models.Digest, error) {
	d, err := s.curated(ctx, actorID, slug)
	if err != nil {
		return nil, err
	}
	if err := s.digests.Reorder(ctx, d.ID, postIDs); err != nil {
		return nil, err
	}
	return s.digests.GetBySlug(ctx, d.Slug)
}

func (s *DigestService) Publish(ctx context.Context, actorID uint, slug string) (*models.Digest, error) {
	d, err := s.curated(ctx, actorID, slug)
	if err != nil {
		return nil, err
	}
	if d.Published {
		return d, nil
	}
	if len(d.Items) == 0 {
		return nil, models.NewValidationError("Cannot publish an empty digest")
	}
	if err := s.digests.Publish(ctx, d.ID, s.now()); err != nil {
		return nil, err
	}
	return s.digests.GetBySlug(ctx, d.Slug)
}

// Get returns a digest. Unpublished digests are visible to their curator and
// admins only, and readers never see items whose post went away.
func (s *DigestService) Get(ctx context.Context, viewerID uint, slug string) (*models.Digest, error) {
	d, err := s.digests.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	var viewer *models.User
	if viewerID != 0 {
		if u, err := s.users.GetByID(ctx, viewerID); err == nil {
			viewer = u
		}
	}
	editor := ownsOrAdmin(viewer, d.CuratorID)
	if !d.Published && !editor {
		return nil, models.NewNotFoundError("Digest", slug)
	}
	if !editor {
		items := d.Items[:0]
		for _, it := range d.Items {
			if it.Post != nil && it.Post.Published {
				items = append(items, it)
			}
		}
		d.Items = items
	}
	return d, nil
}

func (s *DigestService) ListPublished(ctx context.Context, limit, offset int) ([]models.Digest, error) {
	return s.digests.ListPublished(ctx, limit, offset)
}
