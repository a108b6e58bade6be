package service

import (
	"context"

	"inkraft/internal/models"
	"inkraft/internal/repository"
)

type FollowService struct {
	follows    repository.FollowRepository
	users      repository.UserRepository
	categories repository.CategoryRepository
}

func NewFollowService(follows repository.FollowRepository, users repository.UserRepository, categories repository.CategoryRepository) *FollowService {
	return &FollowService{follows: follows, users: users, categories: categories}
}

func (s *FollowService) FollowAuthor(ctx context.Context, userID, authorID uint) error {
	if _, err := activeUser(ctx, s.users, userID); err != nil {
		return err
	}
	if userID == authorID {
		return models.NewValidationError("You cannot follow yourself")
	}
	if _, err := s.users.GetByID(ctx, authorID); err != nil {
		return err
	}
	return s.follows.FollowAuthor(ctx, userID, authorID)
}

func (s *FollowService) UnfollowAuthor(ctx context.Context, userID, authorID uint) error {
	return s.follows.UnfollowAuthor(ctx, userID, authorID)
}

func (s *FollowService) FollowCategory(ctx context.Context, userID uint, slug string) error {
	if _, err := activeUser(ctx, s.users, userID); err != nil {
		return err
	}
	c, err := s.categories.GetBySlug(ctx, slug)
	if err != nil {
		return err
	}
	return s.follows.FollowCategory(ctx, userID, c.ID)
}

func (s *FollowService) UnfollowCategory(ctx context.Context, userID uint, slug string) error {
	c, err := s.categories.GetBySlug(ctx, slug)
	if err != nil {
		return err
	}
	return s.follows.UnfollowCategory(ctx, userID, c.ID)
}
