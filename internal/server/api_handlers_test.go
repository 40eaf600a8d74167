package server

import (
	"net/http"
	"testing"
	"time"

	"myblog/internal/models"
	"myblog/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPILogin(t *testing.T) {
	env := newTestEnv(t)
	testutil.CreateUser(t, env.db, "alice")

	resp, body := env.do(t, apiRequest(http.MethodPost, "/api/auth/login",
		map[string]string{"username": "alice", "password": "nope"}, ""))
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	var errResp models.ErrorResponse
	decode(t, body, &errResp)
	assert.Equal(t, models.CodeValidation, errResp.Code)

	resp, body = env.do(t, apiRequest(http.MethodPost, "/api/auth/login",
		map[string]string{"username": "alice", "password": testutil.Password}, ""))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var login struct {
		Token string      `json:"token"`
		User  models.User `json:"user"`
	}
	decode(t, body, &login)
	require.NotEmpty(t, login.Token)
	assert.Equal(t, "alice", login.User.Username)

	bearer := "Bearer " + login.Token
	resp, _ = env.do(t, apiRequest(http.MethodGet, "/api/posts/drafts", nil, bearer))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = env.do(t, apiRequest(http.MethodPost, "/api/auth/logout", nil, bearer))
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	resp, _ = env.do(t, apiRequest(http.MethodGet, "/api/posts/drafts", nil, bearer))
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestAPIPosts_Lifecycle(t *testing.T) {
	env := newTestEnv(t)
	writer := testutil.CreateUser(t, env.db, "writer", models.PermAddPost)
	reader := testutil.CreateUser(t, env.db, "reader")
	writerAuth := env.bearer(t, writer)
	readerAuth := env.bearer(t, reader)

	resp, _ := env.do(t, apiRequest(http.MethodPost, "/api/posts", map[string]any{"title": "x", "body": "y"}, ""))
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp, _ = env.do(t, apiRequest(http.MethodPost, "/api/posts",
		map[string]any{"title": "Nope", "body": "y"}, readerAuth))
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, body := env.do(t, apiRequest(http.MethodPost, "/api/posts",
		map[string]any{"title": "", "body": "y"}, writerAuth))
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	var errResp models.ErrorResponse
	decode(t, body, &errResp)
	assert.Contains(t, errResp.Fields, "title")

	resp, body = env.do(t, apiRequest(http.MethodPost, "/api/posts", map[string]any{
		"title": "API Post",
		"body":  "Written over JSON",
		"tags":  []string{"go", "api"},
	}, writerAuth))
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var created PostResponse
	decode(t, body, &created)
	assert.Equal(t, "api-post", created.Slug)
	assert.Equal(t, models.StatusDraft, created.Status)
	assert.Equal(t, "writer", created.Author)
	assert.Contains(t, created.URL, "/draft/")
	assert.NotContains(t, body, "writer@example.com")
	postPath := "/api/posts/" + itoa(created.ID)

	t.Run("draft hidden from others", func(t *testing.T) {
		resp, _ := env.do(t, apiRequest(http.MethodGet, postPath, nil, ""))
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
		resp, _ = env.do(t, apiRequest(http.MethodGet, postPath, nil, writerAuth))
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})

	t.Run("patch keeps omitted fields", func(t *testing.T) {
		resp, body := env.do(t, apiRequest(http.MethodPatch, postPath,
			map[string]any{"title": "API Post, Renamed"}, writerAuth))
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		var updated PostResponse
		decode(t, body, &updated)
		assert.Equal(t, "API Post, Renamed", updated.Title)
		assert.Equal(t, "Written over JSON", updated.Body)
		assert.Equal(t, "api-post", updated.Slug)
		assert.Len(t, updated.Tags, 2)

		resp, _ = env.do(t, apiRequest(http.MethodPatch, postPath, map[string]any{"title": "Hijack"}, readerAuth))
		assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	})

	t.Run("publish", func(t *testing.T) {
		resp, _ := env.do(t, apiRequest(http.MethodPost, postPath+"/publish", nil, readerAuth))
		assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

		resp, body := env.do(t, apiRequest(http.MethodPost, postPath+"/publish", nil, writerAuth))
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		var published PostResponse
		decode(t, body, &published)
		assert.Equal(t, models.StatusPublished, published.Status)
		assert.NotContains(t, published.URL, "/draft/")

		resp, body = env.do(t, apiRequest(http.MethodGet, "/api/posts", nil, ""))
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		var list PostListResponse
		decode(t, body, &list)
		assert.EqualValues(t, 1, list.Count)
		assert.Equal(t, 1, list.Page)
		require.Len(t, list.Results, 1)
		assert.Equal(t, "API Post, Renamed", list.Results[0].Title)
	})

	t.Run("invalid id", func(t *testing.T) {
		resp, body := env.do(t, apiRequest(http.MethodGet, "/api/posts/abc", nil, ""))
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, body, "Invalid ID")
	})

	t.Run("delete", func(t *testing.T) {
		resp, _ := env.do(t, apiRequest(http.MethodDelete, postPath, nil, readerAuth))
		assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

		resp, _ = env.do(t, apiRequest(http.MethodDelete, postPath, nil, writerAuth))
		assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)

		resp, _ = env.do(t, apiRequest(http.MethodGet, postPath, nil, ""))
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	})
}

func TestAPIPosts_ListFilters(t *testing.T) {
	env := newTestEnv(t)
	author := testutil.CreateUser(t, env.db, "alice")
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, title := range []string{"One", "Two", "Three", "Four"} {
		testutil.CreatePost(t, env.db, author, title, testutil.PostOpts{
			Publish: base.AddDate(0, 0, i),
			Tags:    []string{"all"},
		})
	}

	var list PostListResponse
	resp, body := env.do(t, apiRequest(http.MethodGet, "/api/posts?page=2", nil, ""))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	decode(t, body, &list)
	assert.EqualValues(t, 4, list.Count)
	assert.Equal(t, 2, list.NumPages)
	assert.Equal(t, 2, list.Page)
	require.Len(t, list.Results, 1)
	assert.Equal(t, "One", list.Results[0].Title)

	resp, _ = env.do(t, apiRequest(http.MethodGet, "/api/posts?tag=none", nil, ""))
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, body = env.do(t, apiRequest(http.MethodGet, "/api/posts?tag=all&page=zzz", nil, ""))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	decode(t, body, &list)
	assert.Equal(t, 1, list.Page)
	assert.Len(t, list.Results, 3)
}

func TestAPISimilarPosts(t *testing.T) {
	env := newTestEnv(t)
	author := testutil.CreateUser(t, env.db, "alice")
	post := testutil.CreatePost(t, env.db, author, "Base", testutil.PostOpts{Tags: []string{"a", "b"}})
	testutil.CreatePost(t, env.db, author, "Both", testutil.PostOpts{Tags: []string{"a", "b"}})
	testutil.CreatePost(t, env.db, author, "One", testutil.PostOpts{Tags: []string{"a"}})
	testutil.CreatePost(t, env.db, author, "None", testutil.PostOpts{Tags: []string{"z"}})

	resp, body := env.do(t, apiRequest(http.MethodGet, "/api/posts/"+itoa(post.ID)+"/similar", nil, ""))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var similar []PostResponse
	decode(t, body, &similar)
	require.Len(t, similar, 2)
	assert.Equal(t, "Both", similar[0].Title)
	assert.Equal(t, "One", similar[1].Title)
}

func TestAPIComments(t *testing.T) {
	env := newTestEnv(t)
	alice := testutil.CreateUser(t, env.db, "alice")
	bob := testutil.CreateUser(t, env.db, "bob")
	mod := testutil.CreateUser(t, env.db, "mod", models.PermChangeComment)
	post := testutil.CreatePost(t, env.db, alice, "Hello", testutil.PostOpts{})
	commentsPath := "/api/posts/" + itoa(post.ID) + "/comments"

	resp, _ := env.do(t, apiRequest(http.MethodPost, commentsPath, map[string]string{"body": "hi"}, ""))
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp, body := env.do(t, apiRequest(http.MethodPost, commentsPath, map[string]string{"body": "hello there"}, env.bearer(t, bob)))
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var comment models.Comment
	decode(t, body, &comment)
	assert.Equal(t, "bob", comment.Name)
	assert.True(t, comment.Active)
	commentPath := "/api/comments/" + itoa(comment.ID)

	resp, _ = env.do(t, apiRequest(http.MethodPut, commentPath, map[string]string{"body": "edited"}, env.bearer(t, alice)))
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, body = env.do(t, apiRequest(http.MethodPut, commentPath, map[string]string{"body": "edited"}, env.bearer(t, bob)))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	decode(t, body, &comment)
	assert.Equal(t, "edited", comment.Body)

	resp, _ = env.do(t, apiRequest(http.MethodPost, commentPath+"/moderate", map[string]any{"active": false}, env.bearer(t, bob)))
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, _ = env.do(t, apiRequest(http.MethodPost, commentPath+"/moderate", map[string]any{}, env.bearer(t, mod)))
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, body = env.do(t, apiRequest(http.MethodPost, commentPath+"/moderate", map[string]any{"active": false}, env.bearer(t, mod)))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	decode(t, body, &comment)
	assert.False(t, comment.Active)

	var listed []models.Comment
	_, body = env.do(t, apiRequest(http.MethodGet, commentsPath, nil, ""))
	decode(t, body, &listed)
	assert.Empty(t, listed)

	_, body = env.do(t, apiRequest(http.MethodGet, commentsPath, nil, env.bearer(t, mod)))
	decode(t, body, &listed)
	assert.Len(t, listed, 1)

	resp, _ = env.do(t, apiRequest(http.MethodGet, commentPath, nil, env.bearer(t, alice)))
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, _ = env.do(t, apiRequest(http.MethodDelete, commentPath, nil, env.bearer(t, bob)))
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	resp, _ = env.do(t, apiRequest(http.MethodGet, commentPath, nil, env.bearer(t, mod)))
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
