package service

import (
	"context"
	"fmt"
	"strings"

	"myblog/internal/mail"
	"myblog/internal/middleware"
	"myblog/internal/models"
	"myblog/internal/observability"
	"myblog/internal/repository"
	"myblog/internal/validation"
)

type ShareService struct {
	posts   repository.PostRepository
	mailer  mail.Mailer
	links   *PostService
	from    string
	siteURL string
}

// ShareInput is the recommend-by-email form. Comments is optional.
type ShareInput struct {
	PostID   uint
	Name     string
	To       string
	Comments string
	// BaseURL overrides the configured site URL when building the post link.
	BaseURL string
}

func NewShareService(posts repository.PostRepository, mailer mail.Mailer, links *PostService, from, siteURL string) *ShareService {
	return &ShareService{
		posts:   posts,
		mailer:  mailer,
		links:   links,
		from:    from,
		siteURL: strings.TrimRight(siteURL, "/"),
	}
}

// SharablePost returns id if it is published; drafts cannot be shared.
func (s *ShareService) SharablePost(ctx context.Context, id uint) (*models.Post, error) {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Post", id)
	}
	if !post.IsPublished() {
		return nil, models.NewNotFoundError("Post", id)
	}
	return post, nil
}

func validateShare(in ShareInput) error {
	errs := validation.Errors{}
	errs.Check("name", validation.Required(in.Name))
	errs.Check("name", validation.MaxLength(in.Name, 25))
	errs.Check("to", validation.ValidateEmail(in.To))
	if !errs.Empty() {
		return models.NewFieldErrors(errs)
	}
	return nil
}

// Share emails a recommendation for a published post. Nothing is stored;
// mail delivery errors are returned unchanged.
func (s *ShareService) Share(ctx context.Context, in ShareInput) (*models.Post, error) {
	span, ctx := observability.NewSpan(ctx, "ShareService.Share")
	defer span.End()

	post, err := s.SharablePost(ctx, in.PostID)
	if err != nil {
		return nil, err
	}

	in.Name = strings.TrimSpace(in.Name)
	in.To = strings.TrimSpace(in.To)
	if err := validateShare(in); err != nil {
		return post, err
	}

	base := s.siteURL
	if in.BaseURL != "" {
		base = strings.TrimRight(in.BaseURL, "/")
	}
	postURL := base + s.links.DetailPath(post)

	msg := mail.Message{
		Subject: fmt.Sprintf("%s recommends you read %s", in.Name, post.Title),
		Body:    fmt.Sprintf("Read %s at %s\n\n%s's comments: %s", post.Title, postURL, in.Name, in.Comments),
		From:    s.from,
		To:      []string{in.To},
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		span.SetError(err)
		observability.EmailsSent.WithLabelValues("share", "error").Inc()
		return post, fmt.Errorf("share post %d: %w", post.ID, err)
	}
	observability.EmailsSent.WithLabelValues("share", "ok").Inc()
	middleware.Logger.InfoContext(ctx, "post shared", "post_id", post.ID)
	return post, nil
}
