package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"inkraft/internal/models"
	"inkraft/internal/repository"
)

type UserService struct {
	userRepo repository.UserRepository
}

// UpdateProfileInput carries profile edits. Empty fields are left unchanged.
type UpdateProfileInput struct {
	UserID uint
	Name   string
	Bio    string
	Avatar string
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// GetPublicProfile hides private fields and banned accounts.
func (s *UserService) GetPublicProfile(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.IsBanned {
		return nil, models.NewNotFoundError("User", id)
	}
	public := user.Public()
	return &public, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	user, err := activeUser(ctx, s.userRepo, in.UserID)
	if err != nil {
		return nil, err
	}

	const maxBioLen = 500
	const maxNameLen = 120

	if in.Name != "" {
		name := strings.TrimSpace(in.Name)
		if utf8.RuneCountInString(name) > maxNameLen {
			return nil, models.NewValidationError("Name too long (max 120 characters)")
		}
		user.Name = name
	}
	if in.Bio != "" {
		if utf8.RuneCountInString(in.Bio) > maxBioLen {
			return nil, models.NewValidationError("Bio too long (max 500 characters)")
		}
		user.Bio = in.Bio
	}
	if in.Avatar != "" {
		if !strings.HasPrefix(in.Avatar, "https://") && !strings.HasPrefix(in.Avatar, "http://") {
			return nil, models.NewValidationError("Avatar must be an absolute http(s) URL")
		}
		user.Avatar = in.Avatar
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return s.userRepo.GetByID(ctx, user.ID)
}

// SetRole changes a user's role; used by the admin CLI.
func (s *UserService) SetRole(ctx context.Context, targetID uint, role models.Role) (*models.User, error) {
	if !role.Valid() {
		return nil, models.NewValidationError("role must be admin, author or reader")
	}
	if err := s.userRepo.UpdateFields(ctx, targetID, map[string]any{"role": role}); err != nil {
		return nil, err
	}
	return s.userRepo.GetByID(ctx, targetID)
}
