package repository

import (
	"context"

	"myblog/internal/models"

	"gorm.io/gorm"
)

// TagRepository defines the interface for tag data operations
type TagRepository interface {
	GetBySlug(ctx context.Context, slug string) (*models.Tag, error)
	// Ensure returns tags for the given slug/name pairs, creating missing ones.
	Ensure(ctx context.Context, tags []models.Tag) ([]models.Tag, error)
	List(ctx context.Context) ([]models.Tag, error)
}

type tagRepository struct {
	db *gorm.DB
}

// NewTagRepository creates a new tag repository
func NewTagRepository(db *gorm.DB) TagRepository {
	return &tagRepository{db: db}
}

func (r *tagRepository) GetBySlug(ctx context.Context, slug string) (*models.Tag, error) {
	var tag models.Tag
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&tag).Error; err != nil {
		return nil, err
	}
	return &tag, nil
}

func (r *tagRepository) Ensure(ctx context.Context, tags []models.Tag) ([]models.Tag, error) {
	out := make([]models.Tag, 0, len(tags))
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, t := range tags {
			tag := models.Tag{}
			if err := tx.Where(models.Tag{Slug: t.Slug}).
				Attrs(models.Tag{Name: t.Name}).
				FirstOrCreate(&tag).Error; err != nil {
				return err
			}
			out = append(out, tag)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *tagRepository) List(ctx context.Context) ([]models.Tag, error) {
	var tags []models.Tag
	err := r.db.WithContext(ctx).Order("name").Find(&tags).Error
	return tags, err
}
