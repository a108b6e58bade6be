// Package service holds Inkraft's business rules on top of the repositories.
package service

import (
	"context"
	"math/rand"
	"time"

	"inkraft/internal/models"
	"inkraft/internal/repository"
)

func utcNow() time.Time { return time.Now().UTC() }

func seededRNG() *rand.Rand {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

// activeUser loads the acting user and rejects banned accounts.
func activeUser(ctx context.Context, users repository.UserRepository, id uint) (*models.User, error) {
	if id == 0 {
		return nil, models.NewUnauthorizedError("Authentication required")
	}
	user, err := users.GetByID(ctx, id)
	if err != nil {
		if models.HasCode(err, models.CodeNotFound) {
			return nil, models.NewUnauthorizedError("Account no longer exists")
		}
		return nil, err
	}
	if user.IsBanned {
		return nil, models.NewForbiddenError("Your account is banned")
	}
	return user, nil
}

func ownsOrAdmin(user *models.User, ownerID uint) bool {
	return user != nil && (user.ID == ownerID || user.IsAdmin())
}

// paginate slices an in-memory ranked list.
func paginate[T any](items []T, limit, offset int) []T {
	limit, offset = repository.Page(limit, offset)
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
