package service

import (
	"context"
	"math/rand"
	"time"

	"inkraft/internal/featureflags"
	"inkraft/internal/models"
	"inkraft/internal/observability"
	"inkraft/internal/ranking"
	"inkraft/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

const feedLookback = 14 * 24 * time.Hour

// FeedService builds the personalized home feed.
type FeedService struct {
	posts   repository.PostRepository
	follows repository.FollowRepository
	flags   *featureflags.Manager
	now     func() time.Time
	rng     func() *rand.Rand
}

func NewFeedService(posts repository.PostRepository, follows repository.FollowRepository, flags *featureflags.Manager) *FeedService {
	return &FeedService{posts: posts, follows: follows, flags: flags, now: utcNow, rng: seededRNG}
}

func idSet(ids []uint) map[uint]struct{} {
	set := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// Feed ranks recent posts for userID. Follow signals dominate, engagement and
// freshness order the rest, and near ties are shuffled per request.
func (s *FeedService) Feed(ctx context.Context, userID uint, limit, offset int) ([]*models.Post, error) {
	span, ctx := observability.NewSpan(ctx, "FeedService.Feed")
	defer span.End()

	authorIDs, err := s.follows.FollowedAuthorIDs(ctx, userID)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	categoryIDs, err := s.follows.FollowedCategoryIDs(ctx, userID)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	authors, categories := idSet(authorIDs), idSet(categoryIDs)

	now := s.now()
	since := now.Add(-feedLookback)
	posts, err := s.posts.List(ctx, repository.PostFilter{PublishedSince: &since, Limit: rankedCandidateLimit})
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	personalized := s.flags.Enabled(featureflags.PersonalizedFeed, userID)
	feed := make([]*models.Post, 0, len(posts))
	for _, p := range posts {
		if p.AuthorID == userID {
			continue
		}
		_, byAuthor := authors[p.AuthorID]
		byCategory := false
		if p.CategoryID != nil {
			_, byCategory = categories[*p.CategoryID]
		}
		if !personalized {
			if byAuthor || byCategory {
				feed = append(feed, p)
			}
			continue
		}
		age := p.AgeAt(now)
		p.Score = ranking.PersonalizedFeedScore(ranking.FeedSignals{
			FollowsAuthor:     byAuthor,
			FollowsCategory:   byCategory,
			Engagement:        ranking.EngagementScore(p.Upvotes, p.Downvotes, p.CommentCount, age.Hours()/24),
			HoursSincePublish: age.Hours(),
		})
		feed = append(feed, p)
	}

	if personalized {
		ranking.SortDesc(feed)
		ranking.TieBreak(feed, s.rng())
	}
	span.AddAttributes(
		attribute.Bool("personalized", personalized),
		attribute.Int("candidates", len(posts)),
		attribute.Int("follows", len(authorIDs)+len(categoryIDs)),
	)
	return paginate(feed, limit, offset), nil
}
