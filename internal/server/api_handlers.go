package server

import (
	"time"

	"myblog/internal/middleware"
	"myblog/internal/models"
	"myblog/internal/service"

	"github.com/gofiber/fiber/v2"
)

// PostResponse is a post with its canonical URL path. The author is
// reduced to a username.
type PostResponse struct {
	*models.Post
	Author string `json:"author"`
	URL    string `json:"url"`
}

// PostListResponse is one page of the published list.
type PostListResponse struct {
	Count    int64          `json:"count"`
	NumPages int            `json:"num_pages"`
	Page     int            `json:"page"`
	Results  []PostResponse `json:"results"`
}

type postRequest struct {
	Title  *string   `json:"title"`
	Body   *string   `json:"body"`
	Status *string   `json:"status"`
	Tags   *[]string `json:"tags"`
}

func (s *Server) postResponse(post *models.Post) PostResponse {
	return PostResponse{Post: post, Author: post.Author.Username, URL: s.postService.DetailPath(post)}
}

func (s *Server) postResponses(posts []*models.Post) []PostResponse {
	out := make([]PostResponse, 0, len(posts))
	for _, p := range posts {
		out = append(out, s.postResponse(p))
	}
	return out
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

// APILogin handles POST /api/auth/login
// @Summary Obtain an access token
// @Description Authenticate with username and password and return a bearer token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{username=string,password=string} true "Login credentials"
// @Success 200 {object} object{token=string,expires_at=string,user=models.User}
// @Failure 400 {object} models.ErrorResponse
// @Router /auth/login [post]
func (s *Server) APILogin(c *fiber.Ctx) error {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.userService.Authenticate(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return respondError(c, err)
	}

	token, claims, err := s.tokens.Issue(user)
	if err != nil {
		return respondError(c, models.NewInternalError(err))
	}

	return c.JSON(fiber.Map{
		"token":      token,
		"expires_at": claims.ExpiresAt.Time.Format(time.RFC3339),
		"user":       user,
	})
}

// APILogout handles POST /api/auth/logout
// @Summary Revoke the current token
// @Tags auth
// @Security BearerAuth
// @Success 204
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/logout [post]
func (s *Server) APILogout(c *fiber.Ctx) error {
	if err := s.tokens.Revoke(c.UserContext(), middleware.CurrentClaims(c)); err != nil {
		return respondError(c, models.NewInternalError(err))
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// APIListPosts handles GET /api/posts
// @Summary List published posts
// @Tags posts
// @Produce json
// @Param page query string false "Page number; invalid values select the first page"
// @Param tag query string false "Tag slug"
// @Success 200 {object} PostListResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts [get]
func (s *Server) APIListPosts(c *fiber.Ctx) error {
	result, err := s.postService.ListPublished(c.UserContext(), c.Query("tag"), c.Query("page"), s.config.PostsPerPage)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(PostListResponse{
		Count:    result.Page.TotalCount,
		NumPages: result.Page.NumPages,
		Page:     result.Page.Number,
		Results:  s.postResponses(result.Posts),
	})
}

// APIListDrafts handles GET /api/posts/drafts
// @Summary List the caller's drafts
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Success 200 {array} PostResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /posts/drafts [get]
func (s *Server) APIListDrafts(c *fiber.Ctx) error {
	posts, err := s.postService.ListDrafts(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(s.postResponses(posts))
}

// APIGetPost handles GET /api/posts/:id
// @Summary Get a post
// @Description Published posts are public; drafts are visible to their author only
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} PostResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [get]
func (s *Server) APIGetPost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	post, err := s.postService.GetPost(c.UserContext(), currentUserID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(s.postResponse(post))
}

// APISimilarPosts handles GET /api/posts/:id/similar
// @Summary Posts sharing the most tags with a published post
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {array} PostResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/similar [get]
func (s *Server) APISimilarPosts(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	post, err := s.postService.GetPost(ctx, 0, id)
	if err != nil {
		return respondError(c, err)
	}
	similar, err := s.postService.SimilarPosts(ctx, post, service.SimilarLimit)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(s.postResponses(similar))
}

// APICreatePost handles POST /api/posts
// @Summary Create a post
// @Description The caller becomes the author; the slug is derived from the title
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{title=string,body=string,status=string,tags=[]string} true "Post"
// @Success 201 {object} PostResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /posts [post]
func (s *Server) APICreatePost(c *fiber.Ctx) error {
	var req postRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	post, err := s.postService.CreatePost(c.UserContext(), service.CreatePostInput{
		AuthorID: currentUserID(c),
		Title:    deref(req.Title),
		Body:     deref(req.Body),
		Status:   models.PostStatus(deref(req.Status)),
		Tags:     deref(req.Tags),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(s.postResponse(post))
}

// APIUpdatePost handles PUT and PATCH /api/posts/:id. Omitted fields keep
// their current values.
// @Summary Update a post
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param request body object{title=string,body=string,status=string,tags=[]string} true "Fields to change"
// @Success 200 {object} PostResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [put]
func (s *Server) APIUpdatePost(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req postRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	current, err := s.postService.EditablePost(ctx, currentUserID(c), id)
	if err != nil {
		return respondError(c, err)
	}

	in := service.UpdatePostInput{
		ActorID: currentUserID(c),
		PostID:  id,
		Title:   current.Title,
		Body:    current.Body,
		Status:  current.Status,
		Tags:    current.TagNames(),
	}
	if req.Title != nil {
		in.Title = *req.Title
	}
	if req.Body != nil {
		in.Body = *req.Body
	}
	if req.Status != nil {
		in.Status = models.PostStatus(*req.Status)
	}
	if req.Tags != nil {
		in.Tags = *req.Tags
	}

	post, err := s.postService.UpdatePost(ctx, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(s.postResponse(post))
}

// APIDeletePost handles DELETE /api/posts/:id
// @Summary Delete a post
// @Tags posts
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [delete]
func (s *Server) APIDeletePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.postService.DeletePost(c.UserContext(), currentUserID(c), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// APIPublishPost handles POST /api/posts/:id/publish
// @Summary Publish a draft
// @Description Idempotent; the publish date set at creation is kept
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} PostResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/publish [post]
func (s *Server) APIPublishPost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	post, err := s.postService.Publish(c.UserContext(), currentUserID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(s.postResponse(post))
}

// APIListComments handles GET /api/posts/:id/comments
// @Summary List comments of a post
// @Description Active comments, oldest first; moderators also see hidden ones
// @Tags comments
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {array} models.Comment
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/comments [get]
func (s *Server) APIListComments(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	comments, err := s.commentService.ListForPost(c.UserContext(), currentUserID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(comments)
}

// APICreateComment handles POST /api/posts/:id/comments
// @Summary Comment on a published post
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param request body object{body=string} true "Comment"
// @Success 201 {object} models.Comment
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/comments [post]
func (s *Server) APICreateComment(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Body string `json:"body"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	comment, err := s.commentService.AddComment(c.UserContext(), id, currentUserID(c), req.Body)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// APIGetComment handles GET /api/comments/:id
// @Summary Get a comment
// @Tags comments
// @Produce json
// @Param id path int true "Comment ID"
// @Success 200 {object} models.Comment
// @Failure 404 {object} models.ErrorResponse
// @Router /comments/{id} [get]
func (s *Server) APIGetComment(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	comment, err := s.commentService.GetComment(c.UserContext(), currentUserID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(comment)
}

// APIUpdateComment handles PUT /api/comments/:id
// @Summary Edit a comment
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Comment ID"
// @Param request body object{body=string} true "Comment"
// @Success 200 {object} models.Comment
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /comments/{id} [put]
func (s *Server) APIUpdateComment(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Body string `json:"body"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	comment, err := s.commentService.UpdateComment(c.UserContext(), currentUserID(c), id, req.Body)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(comment)
}

// APIDeleteComment handles DELETE /api/comments/:id
// @Summary Delete a comment
// @Tags comments
// @Security BearerAuth
// @Param id path int true "Comment ID"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Router /comments/{id} [delete]
func (s *Server) APIDeleteComment(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.commentService.DeleteComment(c.UserContext(), currentUserID(c), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// APIModerateComment handles POST /api/comments/:id/moderate
// @Summary Hide or restore a comment
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Comment ID"
// @Param request body object{active=bool} true "Visibility"
// @Success 200 {object} models.Comment
// @Failure 403 {object} models.ErrorResponse
// @Router /comments/{id}/moderate [post]
func (s *Server) APIModerateComment(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Active *bool `json:"active"`
	}
	if err := c.BodyParser(&req); err != nil || req.Active == nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewFieldError("active", "This field is required."))
	}

	comment, err := s.commentService.SetActive(c.UserContext(), currentUserID(c), id, *req.Active)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(comment)
}
