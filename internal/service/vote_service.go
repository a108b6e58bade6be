package service

import (
	"context"
	"strconv"

	"inkraft/internal/models"
	"inkraft/internal/observability"
	"inkraft/internal/repository"
	"inkraft/internal/trust"
)

type VoteService struct {
	votes repository.VoteRepository
	posts repository.PostRepository
	users repository.UserRepository
}

type VoteInput struct {
	UserID    uint
	PostSlug  string
	Direction models.VoteDirection
}

// VoteOutcome is the caller's vote after the change and the post's new counters.
type VoteOutcome struct {
	Action    models.VoteAction    `json:"action"`
	Direction models.VoteDirection `json:"direction"`
	Weight    float64              `json:"weight"`
	Upvotes   float64              `json:"upvotes"`
	Downvotes float64              `json:"downvotes"`
}

func NewVoteService(votes repository.VoteRepository, posts repository.PostRepository, users repository.UserRepository) *VoteService {
	return &VoteService{votes: votes, posts: posts, users: users}
}

// Vote casts, toggles off, or flips the user's vote on a published post.
func (s *VoteService) Vote(ctx context.Context, in VoteInput) (*VoteOutcome, error) {
	if in.Direction != models.VoteUp && in.Direction != models.VoteDown {
		return nil, models.NewValidationError("direction must be 1 or -1")
	}
	user, err := activeUser(ctx, s.users, in.UserID)
	if err != nil {
		return nil, err
	}
	post, err := s.posts.GetBySlug(ctx, in.PostSlug)
	if err != nil {
		return nil, err
	}
	if !post.Published {
		return nil, models.NewNotFoundError("Post", in.PostSlug)
	}
	if post.AuthorID == user.ID {
		return nil, models.NewValidationError("You cannot vote on your own post")
	}

	res, err := s.votes.ApplyVote(ctx, repository.VoteChange{
		UserID:    user.ID,
		PostID:    post.ID,
		AuthorID:  post.AuthorID,
		Direction: in.Direction,
		Weight:    trust.VoteWeight(user.TrustScore, user.TrustFrozen),
	})
	if err != nil {
		return nil, err
	}
	observability.VotesCast.WithLabelValues(strconv.Itoa(int(in.Direction)), string(res.Action)).Inc()

	updated, err := s.posts.GetByID(ctx, post.ID)
	if err != nil {
		return nil, err
	}
	out := &VoteOutcome{Action: res.Action, Upvotes: updated.Upvotes, Downvotes: updated.Downvotes}
	if res.Vote != nil {
		out.Direction = res.Vote.Direction
		out.Weight = res.Vote.Weight
	}
	return out, nil
}
