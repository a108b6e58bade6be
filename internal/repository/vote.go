package repository

import (
	"context"
	"errors"

	"inkraft/internal/models"

	"gorm.io/gorm"
)

// VoteChange is one vote request on a post by a user.
type VoteChange struct {
	UserID    uint
	PostID    uint
	AuthorID  uint
	Direction models.VoteDirection
	Weight    float64
}

// VoteResult reports what ApplyVote did. Vote is nil when the vote was removed.
type VoteResult struct {
	Action models.VoteAction
	Vote   *models.Vote
}

// VoteRepository stores votes and keeps the weighted post counters and the
// author's upvote count in step with them.
type VoteRepository interface {
	Get(ctx context.Context, userID, postID uint) (*models.Vote, error)
	ApplyVote(ctx context.Context, ch VoteChange) (VoteResult, error)
	NullifyUserVotes(ctx context.Context, userID uint, postID *uint) (int64, error)
}

type voteRepository struct {
	db *gorm.DB
}

// NewVoteRepository creates a new VoteRepository
func NewVoteRepository(db *gorm.DB) VoteRepository {
	return &voteRepository{db: db}
}

func counterColumn(dir models.VoteDirection) string {
	if dir == models.VoteUp {
		return "upvotes"
	}
	return "downvotes"
}

func addWeight(tx *gorm.DB, postID uint, dir models.VoteDirection, w float64) error {
	col := counterColumn(dir)
	return tx.Model(&models.Post{}).Where("id = ?", postID).
		UpdateColumn(col, gorm.Expr(col+" + ?", w)).Error
}

func subtractWeight(tx *gorm.DB, postID uint, dir models.VoteDirection, w float64) error {
	col := counterColumn(dir)
	return tx.Model(&models.Post{}).Where("id = ?", postID).
		UpdateColumn(col, gorm.Expr("CASE WHEN "+col+" - ? > 0 THEN "+col+" - ? ELSE 0 END", w, w)).Error
}

func bumpAuthorUpvotes(tx *gorm.DB, authorID uint, delta int) error {
	expr := gorm.Expr("total_upvotes + 1")
	if delta < 0 {
		expr = gorm.Expr("CASE WHEN total_upvotes > 0 THEN total_upvotes - 1 ELSE 0 END")
	}
	return tx.Model(&models.User{}).Where("id = ?", authorID).UpdateColumn("total_upvotes", expr).Error
}

func (r *voteRepository) Get(ctx context.Context, userID, postID uint) (*models.Vote, error) {
	var v models.Vote
	err := r.db.WithContext(ctx).Where("user_id = ? AND post_id = ?", userID, postID).First(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &v, nil
}

// ApplyVote adds a new vote, removes the vote when the same direction is cast
// again, or moves it to the other counter on a flip. A flip re-weighs the vote
// with the current weight.
func (r *voteRepository) ApplyVote(ctx context.Context, ch VoteChange) (VoteResult, error) {
	var out VoteResult
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Vote
		err := tx.Where("user_id = ? AND post_id = ?", ch.UserID, ch.PostID).First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			v := &models.Vote{UserID: ch.UserID, PostID: ch.PostID, Direction: ch.Direction, Weight: ch.Weight}
			if err := tx.Create(v).Error; err != nil {
				return err
			}
			if err := addWeight(tx, ch.PostID, ch.Direction, ch.Weight); err != nil {
				return err
			}
			if ch.Direction == models.VoteUp {
				if err := bumpAuthorUpvotes(tx, ch.AuthorID, 1); err != nil {
					return err
				}
			}
			out = VoteResult{Action: models.VoteAdded, Vote: v}
			return nil
		case err != nil:
			return err
		}

		if existing.Direction == ch.Direction {
			if err := tx.Delete(&existing).Error; err != nil {
				return err
			}
			if err := subtractWeight(tx, ch.PostID, existing.Direction, existing.Weight); err != nil {
				return err
			}
			if existing.Direction == models.VoteUp {
				if err := bumpAuthorUpvotes(tx, ch.AuthorID, -1); err != nil {
					return err
				}
			}
			out = VoteResult{Action: models.VoteRemoved}
			return nil
		}

		if err := subtractWeight(tx, ch.PostID, existing.Direction, existing.Weight); err != nil {
			return err
		}
		if err := addWeight(tx, ch.PostID, ch.Direction, ch.Weight); err != nil {
			return err
		}
		delta := 1
		if existing.Direction == models.VoteUp {
			delta = -1
		}
		if err := bumpAuthorUpvotes(tx, ch.AuthorID, delta); err != nil {
			return err
		}
		existing.Direction = ch.Direction
		existing.Weight = ch.Weight
		if err := tx.Model(&existing).Select("direction", "weight", "updated_at").Updates(&existing).Error; err != nil {
			return err
		}
		out = VoteResult{Action: models.VoteFlipped, Vote: &existing}
		return nil
	})
	if err != nil {
		if isUniqueConstraintError(err) {
			return VoteResult{}, models.NewConflictError("Vote changed concurrently, retry")
		}
		return VoteResult{}, models.NewInternalError(err)
	}
	return out, nil
}

type postAuthor struct {
	ID       uint
	AuthorID uint
}

// NullifyUserVotes deletes the user's votes, optionally only on one post, and
// takes their weights back out of the post counters. It returns how many votes
// were removed.
func (r *voteRepository) NullifyUserVotes(ctx context.Context, userID uint, postID *uint) (int64, error) {
	var removed int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Where("user_id = ?", userID)
		if postID != nil {
			q = q.Where("post_id = ?", *postID)
		}
		var votes []models.Vote
		if err := q.Find(&votes).Error; err != nil {
			return err
		}
		if len(votes) == 0 {
			return nil
		}

		postIDs := make([]uint, 0, len(votes))
		for _, v := range votes {
			postIDs = append(postIDs, v.PostID)
		}
		var owners []postAuthor
		if err := tx.Model(&models.Post{}).Select("id, author_id").Where("id IN ?", postIDs).Scan(&owners).Error; err != nil {
			return err
		}
		authorOf := make(map[uint]uint, len(owners))
		for _, o := range owners {
			authorOf[o.ID] = o.AuthorID
		}

		ids := make([]uint, 0, len(votes))
		for _, v := range votes {
			if err := subtractWeight(tx, v.PostID, v.Direction, v.Weight); err != nil {
				return err
			}
			if v.Direction == models.VoteUp {
				if err := bumpAuthorUpvotes(tx, authorOf[v.PostID], -1); err != nil {
					return err
				}
			}
			ids = append(ids, v.ID)
		}
		res := tx.Where("id IN ?", ids).Delete(&models.Vote{})
		if res.Error != nil {
			return res.Error
		}
		removed = res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return removed, nil
}
