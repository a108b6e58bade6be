package service

import (
	"context"
	"testing"

	"inkraft/internal/models"
	"inkraft/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVoteService_Vote_Rules(t *testing.T) {
	t.Parallel()

	users := usersByID(
		&models.User{ID: 1, TrustScore: 1.0},
		&models.User{ID: 3, TrustScore: 1.0, IsBanned: true},
		&models.User{ID: 10, Role: models.RoleAuthor, TrustScore: 1.0},
	)
	svc := NewVoteService(noopVoteRepo(), noopPostRepo(), users)
	ctx := context.Background()

	t.Run("bad direction", func(t *testing.T) {
		t.Parallel()
		_, err := svc.Vote(ctx, VoteInput{UserID: 1, PostSlug: "hello", Direction: 2})
		assertValidationError(t, err)
	})

	t.Run("own post", func(t *testing.T) {
		t.Parallel()
		_, err := svc.Vote(ctx, VoteInput{UserID: 10, PostSlug: "hello", Direction: models.VoteUp})
		assertValidationError(t, err)
	})

	t.Run("banned", func(t *testing.T) {
		t.Parallel()
		_, err := svc.Vote(ctx, VoteInput{UserID: 3, PostSlug: "hello", Direction: models.VoteUp})
		assertForbiddenError(t, err)
	})

	t.Run("draft", func(t *testing.T) {
		t.Parallel()
		posts := noopPostRepo()
		posts.getBySlugFn = func(_ context.Context, slug string) (*models.Post, error) {
			return &models.Post{ID: 1, Slug: slug, AuthorID: 10}, nil
		}
		_, err := NewVoteService(noopVoteRepo(), posts, users).Vote(ctx, VoteInput{UserID: 1, PostSlug: "hello", Direction: models.VoteUp})
		assertCode(t, err, models.CodeNotFound)
	})
}

func TestVoteService_Vote_TrustWeight(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		user   models.User
		weight float64
	}{
		{"default trust", models.User{ID: 1, TrustScore: 1.0}, 1.0},
		{"high trust", models.User{ID: 1, TrustScore: 2.5}, 2.5},
		{"above cap", models.User{ID: 1, TrustScore: 4.0}, 3.0},
		{"below floor", models.User{ID: 1, TrustScore: 0.01}, 0.1},
		{"frozen high trust", models.User{ID: 1, TrustScore: 2.5, TrustFrozen: true}, 1.0},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var change repository.VoteChange
			votes := noopVoteRepo()
			apply := votes.applyFn
			votes.applyFn = func(ctx context.Context, ch repository.VoteChange) (repository.VoteResult, error) {
				change = ch
				return apply(ctx, ch)
			}
			posts := noopPostRepo()
			posts.getByIDFn = func(_ context.Context, id uint) (*models.Post, error) {
				return &models.Post{ID: id, Upvotes: tt.weight}, nil
			}
			svc := NewVoteService(votes, posts, usersByID(&tt.user))

			out, err := svc.Vote(context.Background(), VoteInput{UserID: 1, PostSlug: "hello", Direction: models.VoteUp})
			require.NoError(t, err)
			assert.InDelta(t, tt.weight, change.Weight, 1e-9)
			assert.Equal(t, uint(10), change.AuthorID)
			assert.Equal(t, models.VoteAdded, out.Action)
			assert.Equal(t, models.VoteUp, out.Direction)
			assert.InDelta(t, tt.weight, out.Upvotes, 1e-9)
		})
	}
}

func TestVoteService_Vote_Removed(t *testing.T) {
	t.Parallel()

	votes := noopVoteRepo()
	votes.applyFn = func(_ context.Context, _ repository.VoteChange) (repository.VoteResult, error) {
		return repository.VoteResult{Action: models.VoteRemoved}, nil
	}
	svc := NewVoteService(votes, noopPostRepo(), usersByID(&models.User{ID: 1, TrustScore: 1}))

	out, err := svc.Vote(context.Background(), VoteInput{UserID: 1, PostSlug: "hello", Direction: models.VoteDown})
	require.NoError(t, err)
	assert.Equal(t, models.VoteRemoved, out.Action)
	assert.Zero(t, out.Direction)
	assert.Zero(t, out.Weight)
}
