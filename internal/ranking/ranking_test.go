package ranking

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type item struct {
	id    int
	score float64
}

func (i item) RankScore() float64 { return i.score }

func TestEngagementScore(t *testing.T) {
	tests := []struct {
		name     string
		up, down float64
		comments int
		days     float64
		want     float64
	}{
		{"fresh post", 10, 2, 3, 0, 15},
		{"one week old halves", 10, 2, 3, 7, 7.5},
		{"negative floors at zero", 1, 10, 0, 0, 0},
		{"negative age clamps", 4, 0, 0, -3, 4},
		{"no activity", 0, 0, 0, 2, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, EngagementScore(tt.up, tt.down, tt.comments, tt.days), 1e-9)
		})
	}
}

func TestTrendingWindow(t *testing.T) {
	assert.Equal(t, 24*time.Hour, TrendingWindow(3*time.Hour))
	assert.Equal(t, 72*time.Hour, TrendingWindow(24*time.Hour))
	assert.Equal(t, 72*time.Hour, TrendingWindow(5*24*time.Hour))
}

func TestTrendingScore(t *testing.T) {
	t.Run("below threshold scores zero", func(t *testing.T) {
		assert.Zero(t, TrendingScore(4, 2, 1))
	})

	t.Run("votes threshold", func(t *testing.T) {
		want := 5 / math.Pow(2, 1.5)
		assert.InDelta(t, want, TrendingScore(5, 0, 0), 1e-9)
	})

	t.Run("comments threshold counts double", func(t *testing.T) {
		want := 6 / math.Pow(4, 1.5)
		assert.InDelta(t, want, TrendingScore(0, 3, 2), 1e-9)
	})

	t.Run("older posts decay", func(t *testing.T) {
		assert.Greater(t, TrendingScore(10, 3, 1), TrendingScore(10, 3, 30))
	})
}

func TestPersonalizedFeedScore(t *testing.T) {
	full := PersonalizedFeedScore(FeedSignals{FollowsAuthor: true, FollowsCategory: true, Engagement: 1e6})
	assert.InDelta(t, 25, full, 1e-9)

	stale := PersonalizedFeedScore(FeedSignals{HoursSincePublish: 100})
	assert.Zero(t, stale)

	half := PersonalizedFeedScore(FeedSignals{HoursSincePublish: 24, Engagement: math.E - 1})
	assert.InDelta(t, 3.5, half, 1e-9)
}

func TestSortDescAndTieBreak(t *testing.T) {
	items := []item{{1, 1}, {2, 20}, {3, 9}, {4, 19.5}, {5, 10}, {6, 18.5}}
	SortDesc(items)
	assert.Equal(t, []int{2, 4, 6, 5, 3, 1}, ids(items))

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 50; i++ {
		shuffled := append([]item(nil), items...)
		TieBreak(shuffled, rng)

		// 20, 19.5 and 18.5 form one run; 10 and 9 another; 1 stands alone.
		assert.ElementsMatch(t, []int{2, 4, 6}, ids(shuffled[:3]))
		assert.ElementsMatch(t, []int{5, 3}, ids(shuffled[3:5]))
		assert.Equal(t, 1, shuffled[5].id)
	}
}

func TestTieBreakNilRandIsNoop(t *testing.T) {
	items := []item{{1, 5}, {2, 4}}
	TieBreak(items, nil)
	assert.Equal(t, []int{1, 2}, ids(items))
}

func ids(items []item) []int {
	out := make([]int, len(items))
	for i, it := range items {
		out[i] = it.id
	}
	return out
}
