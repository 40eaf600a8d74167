package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"myblog/internal/middleware"
	"myblog/internal/models"
	"myblog/internal/observability"
	"myblog/internal/repository"
	"myblog/internal/slug"
	"myblog/internal/validation"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
)

const (
	maxTitleLen = 250
	// SimilarLimit is how many related posts the detail page shows.
	SimilarLimit = 4
)

type PostService struct {
	posts repository.PostRepository
	tags  repository.TagRepository
	perms PermissionChecker
	loc   *time.Location
	now   func() time.Time
}

type CreatePostInput struct {
	AuthorID uint
	Title    string
	Body     string
	Status   models.PostStatus
	Tags     []string
}

type UpdatePostInput struct {
	ActorID uint
	PostID  uint
	Title   string
	Body    string
	Status  models.PostStatus
	Tags    []string
}

// PostPage is one page of the published listing.
type PostPage struct {
	Posts []*models.Post
	Page  Page
	Tag   *models.Tag
}

func NewPostService(
	posts repository.PostRepository,
	tags repository.TagRepository,
	perms PermissionChecker,
	loc *time.Location,
) *PostService {
	if loc == nil {
		loc = time.UTC
	}
	return &PostService{
		posts: posts,
		tags:  tags,
		perms: perms,
		loc:   loc,
		now:   time.Now,
	}
}

// Location is the zone permalink dates are computed in.
func (s *PostService) Location() *time.Location {
	return s.loc
}

// Permalink resolves the canonical date/slug key of post.
func (s *PostService) Permalink(post *models.Post) models.Permalink {
	return models.PermalinkFor(post, s.loc)
}

// DetailPath is the public path for published posts and the preview path for drafts.
func (s *PostService) DetailPath(post *models.Post) string {
	return models.PathFor(post, s.loc)
}

func validatePost(title, body string, status models.PostStatus) error {
	errs := validation.Errors{}
	errs.Check("title", validation.Required(title))
	errs.Check("title", validation.MaxLength(title, maxTitleLen))
	errs.Check("body", validation.Required(body))
	if !status.Valid() {
		errs["status"] = "Select a valid choice. " + string(status) + " is not one of the available choices."
	}
	if !errs.Empty() {
		return models.NewFieldErrors(errs)
	}
	return nil
}

// CreatePost stores a new post authored by in.AuthorID. The slug is derived
// from the title once and must be unique among posts published on the same day.
func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	span, ctx := observability.NewSpan(ctx, "PostService.CreatePost", attribute.Int("author.id", int(in.AuthorID)))
	defer span.End()

	if in.Status == "" {
		in.Status = models.StatusDraft
	}
	in.Title = strings.TrimSpace(in.Title)

	if err := requirePermission(ctx, s.perms, in.AuthorID, models.PermAddPost); err != nil {
		return nil, err
	}
	if err := validatePost(in.Title, in.Body, in.Status); err != nil {
		return nil, err
	}

	postSlug := slug.Make(in.Title)
	if postSlug == "" {
		return nil, models.NewFieldError("title", "Title must contain at least one letter or digit.")
	}

	now := s.now().UTC()
	link := models.PermalinkFor(&models.Post{Publish: now, Slug: postSlug}, s.loc)
	start, end, _ := link.DayRange(s.loc)
	taken, err := s.posts.SlugTakenOn(ctx, postSlug, start, end)
	if err != nil {
		span.SetError(err)
		return nil, models.NewInternalError(err)
	}
	if taken {
		return nil, models.NewFieldError("title", "A post with this title was already created on this date.")
	}

	tags, err := s.ensureTags(ctx, in.Tags)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	post := &models.Post{
		Title:    in.Title,
		Slug:     postSlug,
		Body:     in.Body,
		AuthorID: in.AuthorID,
		Publish:  now,
		Status:   models.StatusDraft,
		Tags:     tags,
	}
	published := in.Status == models.StatusPublished && s.publish(post)

	if err := s.posts.Create(ctx, post); err != nil {
		span.SetError(err)
		return nil, models.NewInternalError(err)
	}
	observability.PostsCreated.WithLabelValues(string(in.Status)).Inc()
	if published {
		observability.PostsPublished.Inc()
	}
	middleware.Logger.InfoContext(ctx, "post created",
		"post_id", post.ID, "slug", post.Slug, "status", post.Status)

	return s.getPost(ctx, post.ID)
}

// publish moves post to PUBLISHED, keeping an existing publish timestamp.
// It reports whether a transition happened.
func (s *PostService) publish(post *models.Post) bool {
	if post.IsPublished() {
		return false
	}
	if post.Publish.IsZero() {
		post.Publish = s.now().UTC()
	}
	post.Status = models.StatusPublished
	return true
}

// Publish transitions a draft to published on behalf of actorID, who must be
// the author or hold blog.change_post. Publishing twice is a no-op.
func (s *PostService) Publish(ctx context.Context, actorID, postID uint) (*models.Post, error) {
	span, ctx := observability.NewSpan(ctx, "PostService.Publish", attribute.Int("post.id", int(postID)))
	defer span.End()

	post, err := s.getPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeChange(ctx, actorID, post); err != nil {
		return nil, err
	}
	if !s.publish(post) {
		return post, nil
	}
	if err := s.posts.Update(ctx, post); err != nil {
		span.SetError(err)
		return nil, models.NewInternalError(err)
	}
	observability.PostsPublished.Inc()
	return post, nil
}

// UpdatePost edits title, body, status and tags. The slug and publish date
// are left untouched so existing links keep working.
func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (*models.Post, error) {
	span, ctx := observability.NewSpan(ctx, "PostService.UpdatePost", attribute.Int("post.id", int(in.PostID)))
	defer span.End()

	post, err := s.getPost(ctx, in.PostID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeChange(ctx, in.ActorID, post); err != nil {
		return nil, err
	}

	if in.Status == "" {
		in.Status = post.Status
	}
	in.Title = strings.TrimSpace(in.Title)
	if err := validatePost(in.Title, in.Body, in.Status); err != nil {
		return nil, err
	}

	tags, err := s.ensureTags(ctx, in.Tags)
	if err != nil {
		return nil, err
	}

	post.Title = in.Title
	post.Body = in.Body
	post.Tags = tags

	published := false
	if in.Status == models.StatusPublished {
		published = s.publish(post)
	} else {
		post.Status = models.StatusDraft
	}

	if err := s.posts.Update(ctx, post); err != nil {
		span.SetError(err)
		return nil, models.NewInternalError(err)
	}
	if published {
		observability.PostsPublished.Inc()
	}
	return s.getPost(ctx, post.ID)
}

// DeletePost soft-deletes a post. Allowed for the author and blog.delete_post holders.
func (s *PostService) DeletePost(ctx context.Context, actorID, postID uint) error {
	post, err := s.getPost(ctx, postID)
	if err != nil {
		return err
	}
	if post.AuthorID != actorID {
		if err := requirePermission(ctx, s.perms, actorID, models.PermDeletePost); err != nil {
			return err
		}
	}
	if err := s.posts.Delete(ctx, postID); err != nil {
		return models.NewInternalError(err)
	}
	middleware.Logger.InfoContext(ctx, "post deleted", "post_id", postID)
	return nil
}

func (s *PostService) authorizeChange(ctx context.Context, actorID uint, post *models.Post) error {
	if actorID != 0 && post.AuthorID == actorID {
		return nil
	}
	return requirePermission(ctx, s.perms, actorID, models.PermChangePost)
}

// EditablePost returns a post actorID may update, drafts included.
func (s *PostService) EditablePost(ctx context.Context, actorID, id uint) (*models.Post, error) {
	post, err := s.getPost(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeChange(ctx, actorID, post); err != nil {
		return nil, err
	}
	return post, nil
}

// CanEdit reports whether userID may update post, for showing edit links.
func (s *PostService) CanEdit(ctx context.Context, userID uint, post *models.Post) bool {
	if userID == 0 {
		return false
	}
	return s.authorizeChange(ctx, userID, post) == nil
}

func (s *PostService) ensureTags(ctx context.Context, names []string) ([]models.Tag, error) {
	tags := normalizeTags(names)
	if len(tags) == 0 {
		return []models.Tag{}, nil
	}
	saved, err := s.tags.Ensure(ctx, tags)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return saved, nil
}

func (s *PostService) getPost(ctx context.Context, id uint) (*models.Post, error) {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Post", id)
	}
	return post, nil
}

// GetPost returns a post visible to viewerID: any published post, or a draft
// authored by the viewer.
func (s *PostService) GetPost(ctx context.Context, viewerID, id uint) (*models.Post, error) {
	post, err := s.getPost(ctx, id)
	if err != nil {
		return nil, err
	}
	if !post.IsPublished() && post.AuthorID != viewerID {
		return nil, models.NewNotFoundError("Post", id)
	}
	return post, nil
}

// ListPublished returns one page of published posts, optionally for a tag slug.
// An unknown tag is NOT_FOUND.
func (s *PostService) ListPublished(ctx context.Context, tagSlug, rawPage string, perPage int) (*PostPage, error) {
	span, ctx := observability.NewSpan(ctx, "PostService.ListPublished")
	defer span.End()

	result := &PostPage{}
	var tagID uint
	if tagSlug != "" {
		tag, err := s.tags.GetBySlug(ctx, tagSlug)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, models.NewNotFoundMessage("No tag matches the given query.")
			}
			return nil, models.NewInternalError(err)
		}
		result.Tag = tag
		tagID = tag.ID
	}

	total, err := s.posts.CountPublished(ctx, tagID)
	if err != nil {
		span.SetError(err)
		return nil, models.NewInternalError(err)
	}
	result.Page = Paginate(rawPage, total, perPage)

	result.Posts, err = s.posts.Published(ctx, tagID, result.Page.Size, result.Page.Offset())
	if err != nil {
		span.SetError(err)
		return nil, models.NewInternalError(err)
	}
	return result, nil
}

// ListDrafts returns the drafts authored by authorID only.
func (s *PostService) ListDrafts(ctx context.Context, authorID uint) ([]*models.Post, error) {
	posts, err := s.posts.DraftedBy(ctx, authorID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

// FindPublished reverses a public permalink. Any mismatch is NOT_FOUND.
func (s *PostService) FindPublished(ctx context.Context, link models.Permalink) (*models.Post, error) {
	return s.findByPermalink(ctx, link, models.StatusPublished, 0)
}

// FindDraft reverses a draft preview permalink for its author.
func (s *PostService) FindDraft(ctx context.Context, link models.Permalink, authorID uint) (*models.Post, error) {
	if authorID == 0 {
		return nil, models.NewNotFoundMessage("No post matches the given query.")
	}
	return s.findByPermalink(ctx, link, models.StatusDraft, authorID)
}

func (s *PostService) findByPermalink(ctx context.Context, link models.Permalink, status models.PostStatus, authorID uint) (*models.Post, error) {
	start, end, ok := link.DayRange(s.loc)
	if !ok || link.Slug == "" {
		return nil, models.NewNotFoundMessage("No post matches the given query.")
	}
	post, err := s.posts.FindByPermalink(ctx, repository.PermalinkQuery{
		Slug:     link.Slug,
		Start:    start,
		End:      end,
		Status:   status,
		AuthorID: authorID,
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundMessage("No post matches the given query.")
		}
		return nil, models.NewInternalError(err)
	}
	return post, nil
}

// SimilarPosts ranks other published posts by shared tags, then recency.
func (s *PostService) SimilarPosts(ctx context.Context, post *models.Post, limit int) ([]*models.Post, error) {
	span, ctx := observability.NewSpan(ctx, "PostService.SimilarPosts", attribute.Int("post.id", int(post.ID)))
	defer span.End()

	posts, err := s.posts.SimilarTo(ctx, post, limit)
	if err != nil {
		span.SetError(err)
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}
