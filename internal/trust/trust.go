// Package trust turns a user's trust score into voting and moderation effects.
package trust

import "math"

const (
	// MinWeight and MaxWeight bound a vote's weight.
	MinWeight = 0.1
	MaxWeight = 3.0
	// FrozenMaxWeight caps the weight of users whose trust was frozen by an admin.
	FrozenMaxWeight = 1.0

	// ScoreFloor and ScoreCeiling bound moderation-driven trust adjustments.
	ScoreFloor   = 0.1
	ScoreCeiling = 2.0

	approvalDelta  = 0.05
	rejectionDelta = -0.1
)

// VoteWeight returns the weight a vote cast with the given trust carries.
func VoteWeight(score float64, frozen bool) float64 {
	w := clamp(score, MinWeight, MaxWeight)
	if frozen && w > FrozenMaxWeight {
		w = FrozenMaxWeight
	}
	return w
}

// AfterModeration returns the trust score an author ends up with after one of
// their comments is approved or rejected. Frozen scores do not move.
func AfterModeration(score float64, frozen, approved bool) float64 {
	if frozen {
		return score
	}
	delta := rejectionDelta
	if approved {
		delta = approvalDelta
	}
	// Scores set by an admin outside the range are left alone.
	if (approved && score >= ScoreCeiling) || (!approved && score <= ScoreFloor) {
		return score
	}
	next := score + delta
	// Round away float drift so repeated adjustments stay on the 0.05 grid.
	next = math.Round(next*1000) / 1000
	return clamp(next, ScoreFloor, ScoreCeiling)
}

// AutoApproves reports whether a comment by a user with this trust skips the
// moderation queue.
func AutoApproves(score, threshold float64) bool {
	return score >= threshold
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
