package service

import (
	"context"
	"strings"

	"inkraft/internal/models"
	"inkraft/internal/repository"
	"inkraft/internal/validation"
)

type PublicationService struct {
	publications repository.PublicationRepository
	users        repository.UserRepository
	posts        repository.PostRepository
}

type CreatePublicationInput struct {
	UserID      uint
	Slug        string
	Name        string
	Description string
}

func NewPublicationService(publications repository.PublicationRepository, users repository.UserRepository, posts repository.PostRepository) *PublicationService {
	return &PublicationService{publications: publications, users: users, posts: posts}
}

func (s *PublicationService) Create(ctx context.Context, in CreatePublicationInput) (*models.Publication, error) {
	user, err := activeUser(ctx, s.users, in.UserID)
	if err != nil {
		return nil, err
	}
	if !user.CanAuthor() {
		return nil, models.NewForbiddenError("Only authors can create publications")
	}
	name := strings.TrimSpace(in.Name)
	if name == "" || len(name) > 120 {
		return nil, models.NewValidationError("Name is required (max 120 characters)")
	}
	slug := strings.TrimSpace(in.Slug)
	if slug == "" {
		slug = validation.Slugify(name)
	}
	if err := validation.ValidateSlug(slug); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	pub := &models.Publication{Slug: slug, Name: name, Description: in.Description, OwnerID: user.ID}
	if err := s.publications.Create(ctx, pub); err != nil {
		return nil, err
	}
	return s.publications.GetByID(ctx, pub.ID)
}

func (s *PublicationService) Get(ctx context.Context, slug string) (*models.Publication, error) {
	return s.publications.GetBySlug(ctx, slug)
}

func (s *PublicationService) List(ctx context.Context, limit, offset int) ([]models.Publication, error) {
	return s.publications.List(ctx, limit, offset)
}

// AddMember lets the owner (or an admin) add an editor.
func (s *PublicationService) AddMember(ctx context.Context, actorID uint, slug string, memberID uint) (*models.Publication, error) {
	actor, err := activeUser(ctx, s.users, actorID)
	if err != nil {
		return nil, err
	}
	pub, err := s.publications.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !ownsOrAdmin(actor, pub.OwnerID) {
		return nil, models.NewForbiddenError("Only the owner can add members")
	}
	member, err := s.users.GetByID(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if member.IsBanned {
		return nil, models.NewValidationError("Banned users cannot join a publication")
	}
	if member.ID == pub.OwnerID {
		return pub, nil
	}
	if err := s.publications.AddMember(ctx, pub.ID, member.ID); err != nil {
		return nil, err
	}
	return s.publications.GetByID(ctx, pub.ID)
}

// ListPosts lists the publication's published posts, newest first.
func (s *PublicationService) ListPosts(ctx context.Context, slug string, limit, offset int) ([]*models.Post, error) {
	pub, err := s.publications.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	return s.posts.List(ctx, repository.PostFilter{PublicationID: pub.ID, Limit: limit, Offset: offset})
}
