package repository

import (
	"context"
	"testing"

	"myblog/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommentRepository_ListByPost(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewCommentRepository(db)
	ctx := context.Background()
	alice := testutil.CreateUser(t, db, "alice")
	post := testutil.CreatePost(t, db, alice, "Post", testutil.PostOpts{})
	other := testutil.CreatePost(t, db, alice, "Other", testutil.PostOpts{})

	first := testutil.CreateComment(t, db, post, alice, "first", true)
	hidden := testutil.CreateComment(t, db, post, alice, "hidden", false)
	third := testutil.CreateComment(t, db, post, alice, "third", true)
	testutil.CreateComment(t, db, other, alice, "elsewhere", true)

	visible, err := repo.ListByPost(ctx, post.ID, true)
	require.NoError(t, err)
	require.Len(t, visible, 2)
	assert.Equal(t, first.ID, visible[0].ID)
	assert.Equal(t, third.ID, visible[1].ID)

	all, err := repo.ListByPost(ctx, post.ID, false)
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, hidden.ID, all[1].ID)
}

func TestCommentRepository_Moderate(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewCommentRepository(db)
	ctx := context.Background()
	alice := testutil.CreateUser(t, db, "alice")
	post := testutil.CreatePost(t, db, alice, "Post", testutil.PostOpts{})
	c := testutil.CreateComment(t, db, post, alice, "hi", true)

	require.NoError(t, repo.SetActive(ctx, c.ID, false))
	got, err := repo.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.False(t, got.Active)

	require.NoError(t, repo.UpdateBody(ctx, c.ID, "edited"))
	got, err = repo.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "edited", got.Body)

	require.NoError(t, repo.Delete(ctx, c.ID))
	_, err = repo.GetByID(ctx, c.ID)
	assert.Error(t, err)
}
