package service

import (
	"context"
	"strconv"
	"strings"

	"myblog/internal/middleware"
	"myblog/internal/models"
	"myblog/internal/observability"
	"myblog/internal/repository"
	"myblog/internal/validation"

	"go.opentelemetry.io/otel/attribute"
)

const maxCommentLen = 10000

type CommentService struct {
	comments repository.CommentRepository
	posts    repository.PostRepository
	users    repository.UserRepository
	perms    PermissionChecker
}

func NewCommentService(
	comments repository.CommentRepository,
	posts repository.PostRepository,
	users repository.UserRepository,
	perms PermissionChecker,
) *CommentService {
	return &CommentService{
		comments: comments,
		posts:    posts,
		users:    users,
		perms:    perms,
	}
}

func validateCommentBody(body string) error {
	errs := validation.Errors{}
	errs.Check("body", validation.Required(body))
	errs.Check("body", validation.MaxLength(body, maxCommentLen))
	if !errs.Empty() {
		return models.NewFieldErrors(errs)
	}
	return nil
}

// AddComment attaches an active comment by userID to a published post.
// Missing and unpublished posts are both NOT_FOUND.
func (s *CommentService) AddComment(ctx context.Context, postID, userID uint, body string) (*models.Comment, error) {
	span, ctx := observability.NewSpan(ctx, "CommentService.AddComment", attribute.Int("post.id", int(postID)))
	defer span.End()

	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, notFound(err, "Post", postID)
	}
	if !post.IsPublished() {
		return nil, models.NewNotFoundError("Post", postID)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, models.NewUnauthorizedError("Authentication required")
	}

	body = strings.TrimSpace(body)
	if err := validateCommentBody(body); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		PostID: post.ID,
		UserID: user.ID,
		Name:   user.Username,
		Body:   body,
		Active: true,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		span.SetError(err)
		return nil, models.NewInternalError(err)
	}
	observability.CommentsCreated.Inc()
	middleware.Logger.InfoContext(ctx, "comment added", "post_id", post.ID, "comment_id", comment.ID)
	return comment, nil
}

// VisibleComments returns the active comments of a post, oldest first.
func (s *CommentService) VisibleComments(ctx context.Context, postID uint) ([]*models.Comment, error) {
	comments, err := s.comments.ListByPost(ctx, postID, true)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return comments, nil
}

// ListForPost is VisibleComments for most callers; moderators also see
// inactive comments.
func (s *CommentService) ListForPost(ctx context.Context, viewerID, postID uint) ([]*models.Comment, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, notFound(err, "Post", postID)
	}
	if !post.IsPublished() && post.AuthorID != viewerID {
		return nil, models.NewNotFoundError("Post", postID)
	}

	activeOnly := true
	if viewerID != 0 {
		if ok, _ := s.perms.HasPermission(ctx, viewerID, models.PermChangeComment); ok {
			activeOnly = false
		}
	}
	comments, err := s.comments.ListByPost(ctx, postID, activeOnly)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return comments, nil
}

// GetComment returns an active comment, or any comment to moderators.
func (s *CommentService) GetComment(ctx context.Context, viewerID, id uint) (*models.Comment, error) {
	comment, err := s.comments.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Comment", id)
	}
	if !comment.Active && comment.UserID != viewerID {
		if ok, _ := s.perms.HasPermission(ctx, viewerID, models.PermChangeComment); !ok {
			return nil, models.NewNotFoundError("Comment", id)
		}
	}
	return comment, nil
}

// UpdateComment lets the comment's author edit its body.
func (s *CommentService) UpdateComment(ctx context.Context, actorID, id uint, body string) (*models.Comment, error) {
	comment, err := s.comments.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Comment", id)
	}
	if comment.UserID != actorID {
		if err := requirePermission(ctx, s.perms, actorID, models.PermChangeComment); err != nil {
			return nil, err
		}
	}

	body = strings.TrimSpace(body)
	if err := validateCommentBody(body); err != nil {
		return nil, err
	}
	if err := s.comments.UpdateBody(ctx, id, body); err != nil {
		return nil, models.NewInternalError(err)
	}
	comment.Body = body
	return comment, nil
}

// SetActive hides or restores a comment. Requires blog.change_comment.
func (s *CommentService) SetActive(ctx context.Context, actorID, id uint, active bool) (*models.Comment, error) {
	if err := requirePermission(ctx, s.perms, actorID, models.PermChangeComment); err != nil {
		return nil, err
	}
	comment, err := s.comments.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Comment", id)
	}
	if comment.Active == active {
		return comment, nil
	}
	if err := s.comments.SetActive(ctx, id, active); err != nil {
		return nil, models.NewInternalError(err)
	}
	comment.Active = active
	observability.CommentsModerated.WithLabelValues(strconv.FormatBool(active)).Inc()
	middleware.Logger.InfoContext(ctx, "comment moderated", "comment_id", id, "active", active)
	return comment, nil
}

// DeleteComment soft-deletes a comment. Allowed for its author and blog.delete_comment holders.
func (s *CommentService) DeleteComment(ctx context.Context, actorID, id uint) error {
	comment, err := s.comments.GetByID(ctx, id)
	if err != nil {
		return notFound(err, "Comment", id)
	}
	if comment.UserID != actorID {
		if err := requirePermission(ctx, s.perms, actorID, models.PermDeleteComment); err != nil {
			return err
		}
	}
	if err := s.comments.Delete(ctx, id); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
