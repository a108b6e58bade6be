package repository

import (
	"context"
	"testing"
	"time"

	"inkraft/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVoteRepository_ToggleAndFlip(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewVoteRepository(db)
	ctx := context.Background()

	author := createUser(t, db, "author", 1)
	voter := createUser(t, db, "voter", 2)
	post := createPost(t, db, author, "votes", time.Now())

	change := VoteChange{UserID: voter.ID, PostID: post.ID, AuthorID: author.ID, Direction: models.VoteUp, Weight: 2}

	res, err := repo.ApplyVote(ctx, change)
	require.NoError(t, err)
	assert.Equal(t, models.VoteAdded, res.Action)
	p := reloadPost(t, db, post.ID)
	assert.InDelta(t, 2.0, p.Upvotes, 1e-9)
	assert.Equal(t, 1, reloadUser(t, db, author.ID).TotalUpvotes)

	// Flip re-weighs with the weight passed now.
	change.Direction = models.VoteDown
	change.Weight = 1.5
	res, err = repo.ApplyVote(ctx, change)
	require.NoError(t, err)
	assert.Equal(t, models.VoteFlipped, res.Action)
	require.NotNil(t, res.Vote)
	assert.Equal(t, models.VoteDown, res.Vote.Direction)
	p = reloadPost(t, db, post.ID)
	assert.InDelta(t, 0.0, p.Upvotes, 1e-9)
	assert.InDelta(t, 1.5, p.Downvotes, 1e-9)
	assert.Equal(t, 0, reloadUser(t, db, author.ID).TotalUpvotes)

	// Same direction again removes the vote.
	res, err = repo.ApplyVote(ctx, change)
	require.NoError(t, err)
	assert.Equal(t, models.VoteRemoved, res.Action)
	assert.Nil(t, res.Vote)
	p = reloadPost(t, db, post.ID)
	assert.InDelta(t, 0.0, p.Upvotes, 1e-9)
	assert.InDelta(t, 0.0, p.Downvotes, 1e-9)

	v, err := repo.Get(ctx, voter.ID, post.ID)
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestVoteRepository_NullifyUserVotes(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewVoteRepository(db)
	ctx := context.Background()

	author := createUser(t, db, "author", 1)
	abuser := createUser(t, db, "abuser", 3)
	honest := createUser(t, db, "honest", 1)
	a := createPost(t, db, author, "a", time.Now())
	b := createPost(t, db, author, "b", time.Now())

	for _, ch := range []VoteChange{
		{UserID: abuser.ID, PostID: a.ID, AuthorID: author.ID, Direction: models.VoteUp, Weight: 3},
		{UserID: abuser.ID, PostID: b.ID, AuthorID: author.ID, Direction: models.VoteDown, Weight: 3},
		{UserID: honest.ID, PostID: a.ID, AuthorID: author.ID, Direction: models.VoteUp, Weight: 1},
	} {
		_, err := repo.ApplyVote(ctx, ch)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, reloadUser(t, db, author.ID).TotalUpvotes)

	t.Run("scoped to one post", func(t *testing.T) {
		n, err := repo.NullifyUserVotes(ctx, abuser.ID, &b.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
		assert.InDelta(t, 0.0, reloadPost(t, db, b.ID).Downvotes, 1e-9)
		assert.InDelta(t, 4.0, reloadPost(t, db, a.ID).Upvotes, 1e-9)
	})

	t.Run("all remaining votes", func(t *testing.T) {
		n, err := repo.NullifyUserVotes(ctx, abuser.ID, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
		assert.InDelta(t, 1.0, reloadPost(t, db, a.ID).Upvotes, 1e-9)
		assert.Equal(t, 1, reloadUser(t, db, author.ID).TotalUpvotes)
	})

	t.Run("nothing left", func(t *testing.T) {
		n, err := repo.NullifyUserVotes(ctx, abuser.ID, nil)
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}
