package repository

import (
	"context"
	"testing"
	"time"

	"myblog/internal/models"
	"myblog/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postTitles(posts []*models.Post) []string {
	out := make([]string, 0, len(posts))
	for _, p := range posts {
		out = append(out, p.Title)
	}
	return out
}

func TestPostRepository_ListPublishedOrder(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()
	author := testutil.CreateUser(t, db, "alice")

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	testutil.CreatePost(t, db, author, "Oldest", testutil.PostOpts{Publish: base})
	testutil.CreatePost(t, db, author, "Newest", testutil.PostOpts{Publish: base.Add(48 * time.Hour)})
	testutil.CreatePost(t, db, author, "Middle", testutil.PostOpts{Publish: base.Add(24 * time.Hour)})
	testutil.CreatePost(t, db, author, "Draft", testutil.PostOpts{Publish: base.Add(72 * time.Hour), Status: models.StatusDraft})

	posts, err := repo.Published(ctx, 0, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"Newest", "Middle", "Oldest"}, postTitles(posts))
	assert.Equal(t, "alice", posts[0].Author.Username)

	n, err := repo.CountPublished(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	page, err := repo.Published(ctx, 0, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"Oldest"}, postTitles(page))
}

func TestPostRepository_ListFilters(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()
	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bob")

	testutil.CreatePost(t, db, alice, "Go tips", testutil.PostOpts{Tags: []string{"go", "tips"}})
	testutil.CreatePost(t, db, bob, "Rust tips", testutil.PostOpts{Tags: []string{"rust", "tips"}})
	testutil.CreatePost(t, db, alice, "Alice draft", testutil.PostOpts{Status: models.StatusDraft, Tags: []string{"go"}})
	testutil.CreatePost(t, db, bob, "Bob draft", testutil.PostOpts{Status: models.StatusDraft})

	goTag := testutil.EnsureTags(t, db, "go")[0]
	tips := testutil.EnsureTags(t, db, "tips")[0]

	tests := []struct {
		name  string
		query func() ([]*models.Post, error)
		want  []string
	}{
		{"published with tag", func() ([]*models.Post, error) { return repo.Published(ctx, goTag.ID, 10, 0) }, []string{"Go tips"}},
		{"shared tag", func() ([]*models.Post, error) { return repo.Published(ctx, tips.ID, 10, 0) }, []string{"Go tips", "Rust tips"}},
		{"drafts by author", func() ([]*models.Post, error) { return repo.DraftedBy(ctx, alice.ID) }, []string{"Alice draft"}},
		{"drafts by other author", func() ([]*models.Post, error) { return repo.DraftedBy(ctx, bob.ID) }, []string{"Bob draft"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			posts, err := tt.query()
			require.NoError(t, err)
			assert.ElementsMatch(t, tt.want, postTitles(posts))
		})
	}

	n, err := repo.CountPublished(ctx, tips.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestPostRepository_FindByPermalink(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()
	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bob")

	publish := time.Date(2024, 5, 10, 9, 30, 0, 0, time.UTC)
	testutil.CreatePost(t, db, alice, "Hello World", testutil.PostOpts{Publish: publish})
	testutil.CreatePost(t, db, alice, "Secret", testutil.PostOpts{Publish: publish, Status: models.StatusDraft})

	day := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	next := day.AddDate(0, 0, 1)

	tests := []struct {
		name  string
		q     PermalinkQuery
		found bool
	}{
		{"exact match", PermalinkQuery{Slug: "hello-world", Start: day, End: next, Status: models.StatusPublished}, true},
		{"wrong day", PermalinkQuery{Slug: "hello-world", Start: next, End: next.AddDate(0, 0, 1), Status: models.StatusPublished}, false},
		{"wrong slug", PermalinkQuery{Slug: "hello", Start: day, End: next, Status: models.StatusPublished}, false},
		{"wrong status", PermalinkQuery{Slug: "hello-world", Start: day, End: next, Status: models.StatusDraft}, false},
		{"draft by author", PermalinkQuery{Slug: "secret", Start: day, End: next, Status: models.StatusDraft, AuthorID: alice.ID}, true},
		{"draft by stranger", PermalinkQuery{Slug: "secret", Start: day, End: next, Status: models.StatusDraft, AuthorID: bob.ID}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			post, err := repo.FindByPermalink(ctx, tt.q)
			if !tt.found {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.q.Slug, post.Slug)
		})
	}
}

func TestPostRepository_SlugTakenOn(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()
	alice := testutil.CreateUser(t, db, "alice")

	publish := time.Date(2024, 5, 10, 23, 59, 0, 0, time.UTC)
	testutil.CreatePost(t, db, alice, "Daily", testutil.PostOpts{Publish: publish, Status: models.StatusDraft})

	day := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	taken, err := repo.SlugTakenOn(ctx, "daily", day, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.True(t, taken, "drafts count toward uniqueness")

	taken, err = repo.SlugTakenOn(ctx, "daily", day.AddDate(0, 0, 1), day.AddDate(0, 0, 2))
	require.NoError(t, err)
	assert.False(t, taken)
}

func TestPostRepository_TagFilterHonoursContext(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewPostRepository(db)
	alice := testutil.CreateUser(t, db, "alice")
	post := testutil.CreatePost(t, db, alice, "Tagged", testutil.PostOpts{Tags: []string{"go"}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.Published(ctx, post.Tags[0].ID, 10, 0)
	assert.ErrorIs(t, err, context.Canceled)
	_, err = repo.CountPublished(ctx, post.Tags[0].ID)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPostRepository_ZonedWindows(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()
	alice := testutil.CreateUser(t, db, "alice")

	loc := time.FixedZone("UTC+2", 2*60*60)
	// 00:30 on May 11 in loc, still May 10 in UTC.
	publish := time.Date(2024, 5, 11, 0, 30, 0, 0, loc)
	testutil.CreatePost(t, db, alice, "Zoned", testutil.PostOpts{Publish: publish})

	var stored models.Post
	require.NoError(t, db.First(&stored, "slug = ?", "zoned").Error)
	assert.True(t, stored.Publish.Equal(publish))

	day := time.Date(2024, 5, 11, 0, 0, 0, 0, loc)
	next := day.AddDate(0, 0, 1)

	post, err := repo.FindByPermalink(ctx, PermalinkQuery{Slug: "zoned", Start: day, End: next, Status: models.StatusPublished})
	require.NoError(t, err)
	assert.Equal(t, "zoned", post.Slug)

	taken, err := repo.SlugTakenOn(ctx, "zoned", day, next)
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = repo.SlugTakenOn(ctx, "zoned", day.AddDate(0, 0, -1), day)
	require.NoError(t, err)
	assert.False(t, taken)
}

func TestPostRepository_UpdateReplacesTags(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()
	alice := testutil.CreateUser(t, db, "alice")

	post := testutil.CreatePost(t, db, alice, "Tagged", testutil.PostOpts{Tags: []string{"a", "b"}})

	post.Title = "Retitled"
	post.Tags = testutil.EnsureTags(t, db, "b", "c")
	require.NoError(t, repo.Update(ctx, post))

	got, err := repo.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "Retitled", got.Title)
	assert.Equal(t, "tagged", got.Slug)
	assert.Equal(t, []string{"b", "c"}, got.TagNames())
}

func TestPostRepository_DeleteIsSoft(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()
	alice := testutil.CreateUser(t, db, "alice")
	post := testutil.CreatePost(t, db, alice, "Gone", testutil.PostOpts{})

	require.NoError(t, repo.Delete(ctx, post.ID))
	_, err := repo.GetByID(ctx, post.ID)
	assert.Error(t, err)

	var n int64
	require.NoError(t, db.Unscoped().Model(&models.Post{}).Where("id = ?", post.ID).Count(&n).Error)
	assert.Equal(t, int64(1), n)
}
