package server

import (
	"time"

	"inkraft/internal/models"
	"inkraft/internal/service"

	"github.com/gofiber/fiber/v2"
)

type createPostRequest struct {
	Title         string     `json:"title"`
	Slug          string     `json:"slug"`
	Content       string     `json:"content"`
	Excerpt       string     `json:"excerpt"`
	CategoryID    *uint      `json:"category_id"`
	PublicationID *uint      `json:"publication_id"`
	Tags          []string   `json:"tags"`
	SEO           models.SEO `json:"seo"`
	Publish       bool       `json:"publish"`
}

type updatePostRequest struct {
	Title         *string     `json:"title"`
	Content       *string     `json:"content"`
	Excerpt       *string     `json:"excerpt"`
	CategoryID    *uint       `json:"category_id"`
	PublicationID *uint       `json:"publication_id"`
	Tags          *[]string   `json:"tags"`
	SEO           *models.SEO `json:"seo"`
}

// GetPosts handles GET /api/posts
// @Summary List posts
// @Description List published posts, newest first or ranked by engagement or trending score
// @Tags posts
// @Produce json
// @Param sort query string false "new, engagement or trending"
// @Param category query string false "Category slug"
// @Param tag query string false "Tag"
// @Param author query int false "Author ID"
// @Param publication query string false "Publication slug"
// @Param editors_pick query bool false "Only editor's picks"
// @Param q query string false "Search title and excerpt"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {array} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Router /posts [get]
func (s *Server) GetPosts(c *fiber.Ctx) error {
	page := parsePagination(c, 20)
	posts, err := s.postService.ListPosts(c.UserContext(), service.ListPostsInput{
		Sort:            c.Query("sort"),
		CategorySlug:    c.Query("category"),
		Tag:             c.Query("tag"),
		AuthorID:        uint(max(c.QueryInt("author", 0), 0)),
		PublicationSlug: c.Query("publication"),
		EditorsPick:     c.QueryBool("editors_pick", false),
		Query:           c.Query("q"),
		Limit:           page.Limit,
		Offset:          page.Offset,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(orEmpty(posts))
}

// GetTrendingPosts handles GET /api/posts/trending
// @Summary Trending posts
// @Tags posts
// @Produce json
// @Param limit query int false "Number of posts"
// @Success 200 {array} models.Post
// @Router /posts/trending [get]
func (s *Server) GetTrendingPosts(c *fiber.Ctx) error {
	page := parsePagination(c, 10)
	posts, err := s.postService.Trending(c.UserContext(), page.Limit)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(orEmpty(posts))
}

// GetPost handles GET /api/posts/:slug
// @Summary Get a post
// @Description Drafts are only visible to their author and admins. Each read is recorded as a view.
// @Tags posts
// @Produce json
// @Param slug path string true "Post slug"
// @Success 200 {object} models.Post
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{slug} [get]
func (s *Server) GetPost(c *fiber.Ctx) error {
	post, err := s.postService.GetPost(c.UserContext(), c.Params("slug"), service.ViewContext{
		ViewerID:    callerID(c),
		VisitorHash: visitorHash(c.IP(), c.Get(fiber.HeaderUserAgent), time.Now()),
		Referrer:    c.Get(fiber.HeaderReferer),
	})
	return respond(c, fiber.StatusOK, post, err)
}

// CreatePost handles POST /api/posts
// @Summary Create a post
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body createPostRequest true "Post"
// @Success 201 {object} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /posts [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req createPostRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	post, err := s.postService.CreatePost(c.UserContext(), service.CreatePostInput{
		UserID:        callerID(c),
		Title:         req.Title,
		Slug:          req.Slug,
		Content:       req.Content,
		Excerpt:       req.Excerpt,
		CategoryID:    req.CategoryID,
		PublicationID: req.PublicationID,
		Tags:          req.Tags,
		SEO:           req.SEO,
		Publish:       req.Publish,
	})
	return respond(c, fiber.StatusCreated, post, err)
}

// UpdatePost handles PUT /api/posts/:slug
// @Summary Update a post
// @Description Only the author may edit. Omitted fields are left unchanged.
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param slug path string true "Post slug"
// @Param request body updatePostRequest true "Changes"
// @Success 200 {object} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{slug} [put]
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	var req updatePostRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	post, err := s.postService.UpdatePost(c.UserContext(), service.UpdatePostInput{
		UserID:        callerID(c),
		Slug:          c.Params("slug"),
		Title:         req.Title,
		Content:       req.Content,
		Excerpt:       req.Excerpt,
		CategoryID:    req.CategoryID,
		PublicationID: req.PublicationID,
		Tags:          req.Tags,
		SEO:           req.SEO,
	})
	return respond(c, fiber.StatusOK, post, err)
}

// DeletePost handles DELETE /api/posts/:slug
// @Summary Delete a post
// @Tags posts
// @Security BearerAuth
// @Param slug path string true "Post slug"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{slug} [delete]
func (s *Server) DeletePost(c *fiber.Ctx) error {
	if err := s.postService.DeletePost(c.UserContext(), callerID(c), c.Params("slug")); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// PublishPost handles POST /api/posts/:slug/publish
// @Summary Publish a draft
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param slug path string true "Post slug"
// @Success 200 {object} models.Post
// @Router /posts/{slug}/publish [post]
func (s *Server) PublishPost(c *fiber.Ctx) error {
	post, err := s.postService.SetPublished(c.UserContext(), callerID(c), c.Params("slug"), true)
	return respond(c, fiber.StatusOK, post, err)
}

// UnpublishPost handles POST /api/posts/:slug/unpublish
// @Summary Return a post to draft
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param slug path string true "Post slug"
// @Success 200 {object} models.Post
// @Router /posts/{slug}/unpublish [post]
func (s *Server) UnpublishPost(c *fiber.Ctx) error {
	post, err := s.postService.SetPublished(c.UserContext(), callerID(c), c.Params("slug"), false)
	return respond(c, fiber.StatusOK, post, err)
}

// VotePost handles POST /api/posts/:slug/vote
// @Summary Vote on a post
// @Description Voting the same direction again removes the vote; the opposite direction flips it.
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param slug path string true "Post slug"
// @Param request body object{direction=int} true "1 for up, -1 for down"
// @Success 200 {object} service.VoteOutcome
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /posts/{slug}/vote [post]
func (s *Server) VotePost(c *fiber.Ctx) error {
	var req struct {
		Direction int `json:"direction"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	outcome, err := s.voteService.Vote(c.UserContext(), service.VoteInput{
		UserID:    callerID(c),
		PostSlug:  c.Params("slug"),
		Direction: models.VoteDirection(req.Direction),
	})
	return respond(c, fiber.StatusOK, outcome, err)
}

// GetCategories handles GET /api/categories
// @Summary List categories
// @Tags posts
// @Produce json
// @Success 200 {array} models.Category
// @Router /categories [get]
func (s *Server) GetCategories(c *fiber.Ctx) error {
	categories, err := s.postService.ListCategories(c.UserContext())
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(orEmpty(categories))
}
