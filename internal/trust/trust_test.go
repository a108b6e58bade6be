package trust

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVoteWeight(t *testing.T) {
	assert.Equal(t, 1.0, VoteWeight(1.0, false))
	assert.Equal(t, MinWeight, VoteWeight(0, false))
	assert.Equal(t, MinWeight, VoteWeight(-4, false))
	assert.Equal(t, MaxWeight, VoteWeight(9, false))
	assert.Equal(t, 1.7, VoteWeight(1.7, false))
}

func TestVoteWeightFrozen(t *testing.T) {
	assert.Equal(t, FrozenMaxWeight, VoteWeight(2.5, true))
	assert.Equal(t, 0.4, VoteWeight(0.4, true))
}

func TestAfterModeration(t *testing.T) {
	assert.InDelta(t, 1.05, AfterModeration(1.0, false, true), 1e-9)
	assert.InDelta(t, 0.9, AfterModeration(1.0, false, false), 1e-9)
	assert.Equal(t, ScoreCeiling, AfterModeration(1.98, false, true))
	assert.Equal(t, ScoreFloor, AfterModeration(0.15, false, false))
	assert.Equal(t, 1.3, AfterModeration(1.3, true, false))
}

func TestAutoApproves(t *testing.T) {
	assert.True(t, AutoApproves(1.2, 1.2))
	assert.True(t, AutoApproves(2, 1.2))
	assert.False(t, AutoApproves(1.19, 1.2))
}

func TestAfterModerationKeepsAdminOverrides(t *testing.T) {
	assert.Equal(t, 2.6, AfterModeration(2.6, false, true))
	assert.Equal(t, 0.05, AfterModeration(0.05, false, false))
}
