package service

import (
	"context"
	"time"

	"inkraft/internal/models"
	"inkraft/internal/repository"
)

type LibraryService struct {
	library repository.LibraryRepository
	posts   repository.PostRepository
	now     func() time.Time
}

func NewLibraryService(library repository.LibraryRepository, posts repository.PostRepository) *LibraryService {
	return &LibraryService{library: library, posts: posts, now: utcNow}
}

func (s *LibraryService) publishedPost(ctx context.Context, slug string) (*models.Post, error) {
	post, err := s.posts.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !post.Published {
		return nil, models.NewNotFoundError("Post", slug)
	}
	return post, nil
}

func (s *LibraryService) Save(ctx context.Context, userID uint, slug string) error {
	post, err := s.publishedPost(ctx, slug)
	if err != nil {
		return err
	}
	return s.library.Save(ctx, userID, post.ID)
}

func (s *LibraryService) Unsave(ctx context.Context, userID uint, slug string) error {
	post, err := s.posts.GetBySlug(ctx, slug)
	if err != nil {
		return err
	}
	return s.library.Unsave(ctx, userID, post.ID)
}

// ListSaved drops entries whose post was deleted or unpublished since.
func (s *LibraryService) ListSaved(ctx context.Context, userID uint, limit, offset int) ([]models.SavedPost, error) {
	saved, err := s.library.ListSaved(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	out := saved[:0]
	for _, sp := range saved {
		if sp.Post != nil && sp.Post.Published {
			out = append(out, sp)
		}
	}
	return out, nil
}

// RecordProgress stores how far (0-100 percent) the user read a post.
func (s *LibraryService) RecordProgress(ctx context.Context, userID uint, slug string, progress int) error {
	if progress < 0 || progress > 100 {
		return models.NewValidationError("progress must be between 0 and 100")
	}
	post, err := s.publishedPost(ctx, slug)
	if err != nil {
		return err
	}
	return s.library.RecordProgress(ctx, userID, post.ID, progress, s.now())
}

func (s *LibraryService) ListHistory(ctx context.Context, userID uint, limit, offset int) ([]models.ReadingHistory, error) {
	return s.library.ListHistory(ctx, userID, limit, offset)
}

func (s *LibraryService) ClearHistory(ctx context.Context, userID uint) (int64, error) {
	return s.library.ClearHistory(ctx, userID)
}
