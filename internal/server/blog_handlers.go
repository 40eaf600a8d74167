package server

import (
	"myblog/internal/models"
	"myblog/internal/service"

	"github.com/gofiber/fiber/v2"
)

type postForm struct {
	Title  string `form:"title"`
	Body   string `form:"body"`
	Status string `form:"status"`
	Tags   string `form:"tags"`
}

type shareForm struct {
	Name     string `form:"name"`
	To       string `form:"to"`
	Comments string `form:"comments"`
}

type commentForm struct {
	Body string `form:"body"`
}

var postStatuses = []models.PostStatus{models.StatusDraft, models.StatusPublished}

// PostList handles GET / and GET /tag/:tag
func (s *Server) PostList(c *fiber.Ctx) error {
	result, err := s.postService.ListPublished(c.UserContext(), c.Params("tag"), c.Query("page"), s.config.PostsPerPage)
	if err != nil {
		return err
	}
	return s.render(c, "blog/post/list", fiber.Map{
		"Posts": result.Posts,
		"Page":  result.Page,
		"Tag":   result.Tag,
	})
}

// PostDetail handles GET /:year/:month/:day/:slug
func (s *Server) PostDetail(c *fiber.Ctx) error {
	ctx := c.UserContext()
	link, ok := permalinkParams(c)
	if !ok {
		return fiber.ErrNotFound
	}

	post, err := s.postService.FindPublished(ctx, link)
	if err != nil {
		return err
	}
	comments, err := s.commentService.VisibleComments(ctx, post.ID)
	if err != nil {
		return err
	}
	similar, err := s.postService.SimilarPosts(ctx, post, service.SimilarLimit)
	if err != nil {
		return err
	}

	return s.render(c, "blog/post/detail", fiber.Map{
		"Post":     post,
		"Comments": comments,
		"Similar":  similar,
		"Form":     commentForm{},
		"CanEdit":  s.postService.CanEdit(ctx, currentUserID(c), post),
	})
}

// PostDraftDetail handles GET /draft/:year/:month/:day/:slug. Drafts are shown
// to their author only, without comments or related posts.
func (s *Server) PostDraftDetail(c *fiber.Ctx) error {
	ctx := c.UserContext()
	link, ok := permalinkParams(c)
	if !ok {
		return fiber.ErrNotFound
	}

	post, err := s.postService.FindDraft(ctx, link, currentUserID(c))
	if err != nil {
		return err
	}
	return s.render(c, "blog/post/detail", fiber.Map{
		"Post":    post,
		"Draft":   true,
		"CanEdit": true,
	})
}

// PostDrafts handles GET /drafts
func (s *Server) PostDrafts(c *fiber.Ctx) error {
	posts, err := s.postService.ListDrafts(c.UserContext(), currentUserID(c))
	if err != nil {
		return err
	}
	return s.render(c, "blog/post/drafts", fiber.Map{"Posts": posts})
}

// PostShareForm handles GET /:id/share
func (s *Server) PostShareForm(c *fiber.Ctx) error {
	id, err := pageID(c)
	if err != nil {
		return err
	}
	post, err := s.shareService.SharablePost(c.UserContext(), id)
	if err != nil {
		return err
	}
	return s.render(c, "blog/post/share", fiber.Map{"Post": post, "Form": shareForm{}})
}

// PostShare handles POST /:id/share
func (s *Server) PostShare(c *fiber.Ctx) error {
	id, err := pageID(c)
	if err != nil {
		return err
	}

	var form shareForm
	if err := c.BodyParser(&form); err != nil {
		return models.NewValidationError("Invalid form submission")
	}

	post, err := s.shareService.Share(c.UserContext(), service.ShareInput{
		PostID:   id,
		Name:     form.Name,
		To:       form.To,
		Comments: form.Comments,
		BaseURL:  c.BaseURL(),
	})
	if errs, ok := fieldErrors(err); ok {
		return s.render(c, "blog/post/share", fiber.Map{"Post": post, "Form": form, "Errors": errs})
	}
	if err != nil {
		return err
	}
	return s.render(c, "blog/post/share", fiber.Map{"Post": post, "Form": form, "Sent": true})
}

// PostComment handles POST /:id/comment
func (s *Server) PostComment(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id, err := pageID(c)
	if err != nil {
		return err
	}

	var form commentForm
	if err := c.BodyParser(&form); err != nil {
		return models.NewValidationError("Invalid form submission")
	}

	comment, err := s.commentService.AddComment(ctx, id, currentUserID(c), form.Body)
	errs, invalid := fieldErrors(err)
	if err != nil && !invalid {
		return err
	}

	post, perr := s.postService.GetPost(ctx, currentUserID(c), id)
	if perr != nil {
		return perr
	}
	return s.render(c, "blog/post/comment", fiber.Map{
		"Post":    post,
		"Comment": comment,
		"Form":    form,
		"Errors":  errs,
	})
}

// PostCreateForm handles GET /create
func (s *Server) PostCreateForm(c *fiber.Ctx) error {
	if err := s.requireAddPost(c); err != nil {
		return err
	}
	return s.renderPostForm(c, "/create", nil, postForm{Status: string(models.StatusDraft)}, nil)
}

// PostCreate handles POST /create
func (s *Server) PostCreate(c *fiber.Ctx) error {
	var form postForm
	if err := c.BodyParser(&form); err != nil {
		return models.NewValidationError("Invalid form submission")
	}

	_, err := s.postService.CreatePost(c.UserContext(), service.CreatePostInput{
		AuthorID: currentUserID(c),
		Title:    form.Title,
		Body:     form.Body,
		Status:   models.PostStatus(form.Status),
		Tags:     service.ParseTagInput(form.Tags),
	})
	if errs, ok := fieldErrors(err); ok {
		return s.renderPostForm(c, "/create", nil, form, errs)
	}
	if err != nil {
		return err
	}
	return c.Redirect("/", fiber.StatusFound)
}

// PostUpdateForm handles GET /:id/update
func (s *Server) PostUpdateForm(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id, err := pageID(c)
	if err != nil {
		return err
	}

	post, err := s.postService.EditablePost(ctx, currentUserID(c), id)
	if err != nil {
		return err
	}

	form := postForm{
		Title:  post.Title,
		Body:   post.Body,
		Status: string(post.Status),
		Tags:   service.FormatTagInput(post.Tags),
	}
	return s.renderPostForm(c, c.Path(), post, form, nil)
}

// PostUpdate handles POST /:id/update. It redirects to the public page of a
// published post and to the preview page of a draft.
func (s *Server) PostUpdate(c *fiber.Ctx) error {
	id, err := pageID(c)
	if err != nil {
		return err
	}

	var form postForm
	if err := c.BodyParser(&form); err != nil {
		return models.NewValidationError("Invalid form submission")
	}

	post, err := s.postService.UpdatePost(c.UserContext(), service.UpdatePostInput{
		ActorID: currentUserID(c),
		PostID:  id,
		Title:   form.Title,
		Body:    form.Body,
		Status:  models.PostStatus(form.Status),
		Tags:    service.ParseTagInput(form.Tags),
	})
	if errs, ok := fieldErrors(err); ok {
		existing, gerr := s.postService.EditablePost(c.UserContext(), currentUserID(c), id)
		if gerr != nil {
			return gerr
		}
		return s.renderPostForm(c, c.Path(), existing, form, errs)
	}
	if err != nil {
		return err
	}
	return c.Redirect(s.postService.DetailPath(post), fiber.StatusFound)
}

func (s *Server) requireAddPost(c *fiber.Ctx) error {
	ok, err := s.userRepo.HasPermission(c.UserContext(), currentUserID(c), models.PermAddPost)
	if err != nil || !ok {
		return models.NewPermissionDeniedError("You do not have permission to perform this action")
	}
	return nil
}

func (s *Server) renderPostForm(c *fiber.Ctx, action string, post *models.Post, form postForm, errs map[string]string) error {
	return s.render(c, "blog/post/form", fiber.Map{
		"Action":   action,
		"Post":     post,
		"Form":     form,
		"Errors":   errs,
		"Statuses": postStatuses,
	})
}
