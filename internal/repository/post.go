// Package repository provides data access layer implementations for the blog.
package repository

import (
	"context"
	"time"

	"myblog/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// postFilter narrows post listings. Zero values mean "any".
type postFilter struct {
	Status   models.PostStatus
	AuthorID uint
	TagID    uint
}

// PermalinkQuery locates a single post by calendar day and slug.
type PermalinkQuery struct {
	Slug     string
	Start    time.Time
	End      time.Time
	Status   models.PostStatus
	AuthorID uint
}

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id uint) error
	// Published lists published posts newest first, optionally restricted to a tag.
	Published(ctx context.Context, tagID uint, limit, offset int) ([]*models.Post, error)
	CountPublished(ctx context.Context, tagID uint) (int64, error)
	// DraftedBy lists the drafts of a single author newest first.
	DraftedBy(ctx context.Context, authorID uint) ([]*models.Post, error)
	FindByPermalink(ctx context.Context, q PermalinkQuery) (*models.Post, error)
	SlugTakenOn(ctx context.Context, slug string, start, end time.Time) (bool, error)
	SimilarTo(ctx context.Context, post *models.Post, limit int) ([]*models.Post, error)
}

// postRepository implements PostRepository
type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Omit("Author").Create(post).Error
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Tags", orderTags).
		First(&post, id).Error
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// Update saves scalar fields and replaces the tag set. Slug and publish are
// written as given; callers own their immutability.
func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(post).Error; err != nil {
			return err
		}
		return tx.Model(post).Association("Tags").Replace(post.Tags)
	})
}

func (r *postRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Post{}, id).Error
}

func (r *postRepository) Published(ctx context.Context, tagID uint, limit, offset int) ([]*models.Post, error) {
	return r.list(ctx, postFilter{Status: models.StatusPublished, TagID: tagID}, limit, offset)
}

func (r *postRepository) CountPublished(ctx context.Context, tagID uint) (int64, error) {
	var n int64
	err := r.filtered(ctx, postFilter{Status: models.StatusPublished, TagID: tagID}).Count(&n).Error
	return n, err
}

func (r *postRepository) DraftedBy(ctx context.Context, authorID uint) ([]*models.Post, error) {
	return r.list(ctx, postFilter{Status: models.StatusDraft, AuthorID: authorID}, -1, -1)
}

func (r *postRepository) list(ctx context.Context, filter postFilter, limit, offset int) ([]*models.Post, error) {
	var posts []*models.Post
	err := r.filtered(ctx, filter).
		Preload("Author").
		Preload("Tags", orderTags).
		Order("posts.publish DESC").
		Order("posts.id DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	return posts, err
}

func (r *postRepository) filtered(ctx context.Context, filter postFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&models.Post{})
	if filter.Status != "" {
		q = q.Where("posts.status = ?", filter.Status)
	}
	if filter.AuthorID != 0 {
		q = q.Where("posts.author_id = ?", filter.AuthorID)
	}
	if filter.TagID != 0 {
		q = q.Where("posts.id IN (?)",
			r.db.WithContext(ctx).Table("post_tags").Select("post_id").Where("tag_id = ?", filter.TagID))
	}
	return q
}

func (r *postRepository) FindByPermalink(ctx context.Context, q PermalinkQuery) (*models.Post, error) {
	db := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Tags", orderTags).
		Where("slug = ?", q.Slug).
		Where("publish >= ? AND publish < ?", q.Start.UTC(), q.End.UTC()).
		Where("status = ?", q.Status)
	if q.AuthorID != 0 {
		db = db.Where("author_id = ?", q.AuthorID)
	}

	var post models.Post
	if err := db.Order("id").First(&post).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

// SlugTakenOn reports whether any post, regardless of status, already uses
// slug within the [start, end) publish window.
func (r *postRepository) SlugTakenOn(ctx context.Context, slug string, start, end time.Time) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Post{}).
		Where("slug = ?", slug).
		Where("publish >= ? AND publish < ?", start.UTC(), end.UTC()).
		Count(&n).Error
	return n > 0, err
}

// SimilarTo ranks published posts by the number of tags they share with
// post, most recent first among equals. The post itself is excluded.
func (r *postRepository) SimilarTo(ctx context.Context, post *models.Post, limit int) ([]*models.Post, error) {
	tagIDs := make([]uint, 0, len(post.Tags))
	for _, t := range post.Tags {
		tagIDs = append(tagIDs, t.ID)
	}
	if len(tagIDs) == 0 || limit <= 0 {
		return []*models.Post{}, nil
	}

	var posts []*models.Post
	err := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Select("posts.*, COUNT(post_tags.tag_id) AS shared_tags").
		Joins("JOIN post_tags ON post_tags.post_id = posts.id").
		Where("post_tags.tag_id IN ?", tagIDs).
		Where("posts.id <> ?", post.ID).
		Where("posts.status = ?", models.StatusPublished).
		Group("posts.id").
		Order("shared_tags DESC").
		Order("posts.publish DESC").
		Order("posts.id DESC").
		Limit(limit).
		Preload("Author").
		Preload("Tags", orderTags).
		Find(&posts).Error
	return posts, err
}

func orderTags(db *gorm.DB) *gorm.DB {
	return db.Order("tags.name")
}
