// Package testutil provides shared database fixtures for package tests.
package testutil

import (
	"testing"
	"time"

	"myblog/internal/database"
	"myblog/internal/models"
	"myblog/internal/slug"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Password is the plain-text password of every fixture user.
const Password = "s3cret-Passw0rd"

// NewTestDB returns a migrated in-memory SQLite database private to t.
func NewTestDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := database.Open(sqlite.Open(":memory:"), logger.Silent)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// Every connection to ":memory:" is a fresh database.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

// CreateUser inserts an active user with Password and the given permissions.
func CreateUser(t testing.TB, db *gorm.DB, username string, perms ...string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(Password), bcrypt.MinCost)
	require.NoError(t, err)

	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: string(hash),
		IsActive: true,
	}
	require.NoError(t, db.Create(user).Error)

	for _, p := range perms {
		require.NoError(t, db.Create(&models.UserPermission{UserID: user.ID, Codename: p}).Error)
	}
	return user
}

// PostOpts customises CreatePost.
type PostOpts struct {
	Status  models.PostStatus
	Publish time.Time
	Tags    []string
	Slug    string
}

// CreatePost inserts a post by author, bypassing service validation.
func CreatePost(t testing.TB, db *gorm.DB, author *models.User, title string, opts PostOpts) *models.Post {
	t.Helper()

	if opts.Status == "" {
		opts.Status = models.StatusPublished
	}
	if opts.Publish.IsZero() {
		opts.Publish = time.Now().UTC()
	}
	if opts.Slug == "" {
		opts.Slug = slug.Make(title)
	}

	post := &models.Post{
		Title:    title,
		Slug:     opts.Slug,
		Body:     "Body of " + title,
		AuthorID: author.ID,
		Publish:  opts.Publish,
		Status:   opts.Status,
		Tags:     EnsureTags(t, db, opts.Tags...),
	}
	require.NoError(t, db.Omit("Author").Create(post).Error)
	return post
}

// EnsureTags returns persisted tags for names, creating them on demand.
func EnsureTags(t testing.TB, db *gorm.DB, names ...string) []models.Tag {
	t.Helper()

	tags := make([]models.Tag, 0, len(names))
	for _, name := range names {
		var tag models.Tag
		require.NoError(t, db.Where(models.Tag{Slug: slug.Make(name)}).
			Attrs(models.Tag{Name: name}).
			FirstOrCreate(&tag).Error)
		tags = append(tags, tag)
	}
	return tags
}

// CreateComment inserts a comment on post by user.
func CreateComment(t testing.TB, db *gorm.DB, post *models.Post, user *models.User, body string, active bool) *models.Comment {
	t.Helper()

	c := &models.Comment{
		PostID: post.ID,
		UserID: user.ID,
		Name:   user.Username,
		Body:   body,
		Active: true,
	}
	require.NoError(t, db.Omit("User").Create(c).Error)
	if !active {
		require.NoError(t, db.Model(c).Update("active", false).Error)
		c.Active = false
	}
	return c
}
