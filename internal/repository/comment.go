package repository

import (
	"context"

	"myblog/internal/models"

	"gorm.io/gorm"
)

// CommentRepository defines the interface for comment data operations
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id uint) (*models.Comment, error)
	// ListByPost returns comments oldest first. activeOnly hides moderated ones.
	ListByPost(ctx context.Context, postID uint, activeOnly bool) ([]*models.Comment, error)
	UpdateBody(ctx context.Context, id uint, body string) error
	SetActive(ctx context.Context, id uint, active bool) error
	Delete(ctx context.Context, id uint) error
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new comment repository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	return r.db.WithContext(ctx).Omit("User").Create(comment).Error
}

func (r *commentRepository) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).First(&comment, id).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *commentRepository) ListByPost(ctx context.Context, postID uint, activeOnly bool) ([]*models.Comment, error) {
	q := r.db.WithContext(ctx).Where("post_id = ?", postID)
	if activeOnly {
		q = q.Where("active = ?", true)
	}

	var comments []*models.Comment
	err := q.Order("created_at ASC").Order("id ASC").Find(&comments).Error
	return comments, err
}

func (r *commentRepository) UpdateBody(ctx context.Context, id uint, body string) error {
	return r.db.WithContext(ctx).Model(&models.Comment{ID: id}).Update("body", body).Error
}

func (r *commentRepository) SetActive(ctx context.Context, id uint, active bool) error {
	return r.db.WithContext(ctx).Model(&models.Comment{ID: id}).Update("active", active).Error
}

func (r *commentRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Comment{}, id).Error
}
