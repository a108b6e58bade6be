// Package ranking scores posts for listing. Scores are computed on read and
// never persisted.
package ranking

import (
	"math"
	"math/rand"
	"sort"
	"time"
)

const (
	// commentWeight is how much a comment counts relative to a vote.
	commentWeight = 2.0
	// downvotePenalty scales downvotes in the engagement score.
	downvotePenalty = 0.5
	// engagementHalfWeek controls the engagement decay: the score halves after a week.
	engagementHalfWeek = 7.0

	trendingGravity     = 1.5
	trendingHourOffset  = 2.0
	minTrendingVotes    = 5
	minTrendingComments = 3

	followAuthorBoost   = 10.0
	followCategoryBoost = 5.0
	maxEngagementBoost  = 5.0
	maxFreshnessBoost   = 5.0
	freshnessHorizon    = 48.0

	// TieWindow is the score distance within which items are considered tied.
	TieWindow = 2.0
)

// EngagementScore is the weighted, time-decayed engagement of a post.
func EngagementScore(upvotes, downvotes float64, commentCount int, daysSincePublish float64) float64 {
	raw := upvotes - downvotePenalty*downvotes + commentWeight*float64(commentCount)
	if raw <= 0 {
		return 0
	}
	return raw / (1 + clamp(daysSincePublish)/engagementHalfWeek)
}

// TrendingWindow returns how far back recent activity is counted for a post of
// the given age.
func TrendingWindow(age time.Duration) time.Duration {
	if age < 24*time.Hour {
		return 24 * time.Hour
	}
	return 72 * time.Hour
}

// Qualifies reports whether a post has enough recent activity to trend.
func Qualifies(recentVotes, recentComments int) bool {
	return recentVotes >= minTrendingVotes || recentComments >= minTrendingComments
}

// TrendingScore divides recent velocity by a gravity term on the post's age.
// Posts that do not qualify score 0.
func TrendingScore(recentVotes, recentComments int, hoursSincePublish float64) float64 {
	if !Qualifies(recentVotes, recentComments) {
		return 0
	}
	velocity := float64(recentVotes) + commentWeight*float64(recentComments)
	return velocity / math.Pow(clamp(hoursSincePublish)+trendingHourOffset, trendingGravity)
}

// FeedSignals are the per-reader inputs of the personalized feed score.
type FeedSignals struct {
	FollowsAuthor     bool
	FollowsCategory   bool
	Engagement        float64
	HoursSincePublish float64
}

// PersonalizedFeedScore ranks a post for one reader.
func PersonalizedFeedScore(s FeedSignals) float64 {
	score := 0.0
	if s.FollowsAuthor {
		score += followAuthorBoost
	}
	if s.FollowsCategory {
		score += followCategoryBoost
	}
	score += math.Min(maxEngagementBoost, math.Log1p(clamp(s.Engagement)))
	score += maxFreshnessBoost * math.Max(0, 1-clamp(s.HoursSincePublish)/freshnessHorizon)
	return score
}

// Scored is anything that carries a ranking score.
type Scored interface {
	RankScore() float64
}

// SortDesc orders items by descending score. Equal scores keep their order.
func SortDesc[T Scored](items []T) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].RankScore() > items[j].RankScore()
	})
}

// TieBreak shuffles runs of near-equal items in a list already sorted by
// descending score. A run starts at its head and extends while scores stay
// within TieWindow of the head, so items further apart are never swapped.
func TieBreak[T Scored](items []T, rng *rand.Rand) {
	if rng == nil || len(items) < 2 {
		return
	}
	for start := 0; start < len(items); {
		head := items[start].RankScore()
		end := start + 1
		for end < len(items) && head-items[end].RankScore() <= TieWindow {
			end++
		}
		if end-start > 1 {
			run := items[start:end]
			rng.Shuffle(len(run), func(i, j int) { run[i], run[j] = run[j], run[i] })
		}
		start = end
	}
}

func clamp(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	return v
}
