package server

import (
	"inkraft/internal/models"
	"inkraft/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetPublications handles GET /api/publications
// @Summary List publications
// @Tags publications
// @Produce json
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {array} models.Publication
// @Router /publications [get]
func (s *Server) GetPublications(c *fiber.Ctx) error {
	page := parsePagination(c, 20)
	pubs, err := s.publicationService.List(c.UserContext(), page.Limit, page.Offset)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(orEmpty(pubs))
}

// GetPublication handles GET /api/publications/:slug
// @Summary Get a publication
// @Tags publications
// @Produce json
// @Param slug path string true "Publication slug"
// @Success 200 {object} models.Publication
// @Failure 404 {object} models.ErrorResponse
// @Router /publications/{slug} [get]
func (s *Server) GetPublication(c *fiber.Ctx) error {
	pub, err := s.publicationService.Get(c.UserContext(), c.Params("slug"))
	return respond(c, fiber.StatusOK, pub, err)
}

// GetPublicationPosts handles GET /api/publications/:slug/posts
// @Summary List a publication's posts
// @Tags publications
// @Produce json
// @Param slug path string true "Publication slug"
// @Success 200 {array} models.Post
// @Router /publications/{slug}/posts [get]
func (s *Server) GetPublicationPosts(c *fiber.Ctx) error {
	page := parsePagination(c, 20)
	posts, err := s.publicationService.ListPosts(c.UserContext(), c.Params("slug"), page.Limit, page.Offset)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(orEmpty(posts))
}

// CreatePublication handles POST /api/publications
// @Summary Create a publication
// @Tags publications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{name=string,slug=string,description=string} true "Publication"
// @Success 201 {object} models.Publication
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /publications [post]
func (s *Server) CreatePublication(c *fiber.Ctx) error {
	var req struct {
		Name        string `json:"name"`
		Slug        string `json:"slug"`
		Description string `json:"description"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	pub, err := s.publicationService.Create(c.UserContext(), service.CreatePublicationInput{
		UserID:      callerID(c),
		Slug:        req.Slug,
		Name:        req.Name,
		Description: req.Description,
	})
	return respond(c, fiber.StatusCreated, pub, err)
}

// AddPublicationMember handles POST /api/publications/:slug/members
// @Summary Add an editor to a publication
// @Tags publications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param slug path string true "Publication slug"
// @Param request body object{user_id=int} true "Member"
// @Success 200 {object} models.Publication
// @Failure 403 {object} models.ErrorResponse
// @Router /publications/{slug}/members [post]
func (s *Server) AddPublicationMember(c *fiber.Ctx) error {
	var req struct {
		UserID uint `json:"user_id"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	if req.UserID == 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("user_id is required"))
	}

	pub, err := s.publicationService.AddMember(c.UserContext(), callerID(c), c.Params("slug"), req.UserID)
	return respond(c, fiber.StatusOK, pub, err)
}

// GetDigests handles GET /api/digests
// @Summary List published digests
// @Tags digests
// @Produce json
// @Success 200 {array} models.Digest
// @Router /digests [get]
func (s *Server) GetDigests(c *fiber.Ctx) error {
	page := parsePagination(c, 20)
	digests, err := s.digestService.ListPublished(c.UserContext(), page.Limit, page.Offset)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(orEmpty(digests))
}

// GetDigest handles GET /api/digests/:slug
// @Summary Get a digest
// @Description Unpublished digests are visible to their curator and admins only.
// @Tags digests
// @Produce json
// @Param slug path string true "Digest slug"
// @Success 200 {object} models.Digest
// @Failure 404 {object} models.ErrorResponse
// @Router /digests/{slug} [get]
func (s *Server) GetDigest(c *fiber.Ctx) error {
	digest, err := s.digestService.Get(c.UserContext(), callerID(c), c.Params("slug"))
	return respond(c, fiber.StatusOK, digest, err)
}

// CreateDigest handles POST /api/digests
// @Summary Create a digest
// @Tags digests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{title=string,slug=string,intro=string} true "Digest"
// @Success 201 {object} models.Digest
// @Router /digests [post]
func (s *Server) CreateDigest(c *fiber.Ctx) error {
	var req struct {
		Title string `json:"title"`
		Slug  string `json:"slug"`
		Intro string `json:"intro"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	digest, err := s.digestService.Create(c.UserContext(), service.CreateDigestInput{
		UserID: callerID(c),
		Slug:   req.Slug,
		Title:  req.Title,
		Intro:  req.Intro,
	})
	return respond(c, fiber.StatusCreated, digest, err)
}

// AddDigestItem handles POST /api/digests/:slug/items
// @Summary Append a post to a digest
// @Tags digests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param slug path string true "Digest slug"
// @Param request body object{post_slug=string,note=string} true "Item"
// @Success 200 {object} models.Digest
// @Router /digests/{slug}/items [post]
func (s *Server) AddDigestItem(c *fiber.Ctx) error {
	var req struct {
		PostSlug string `json:"post_slug"`
		Note     string `json:"note"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	digest, err := s.digestService.AddItem(c.UserContext(), service.AddDigestItemInput{
		UserID:     callerID(c),
		DigestSlug: c.Params("slug"),
		PostSlug:   req.PostSlug,
		Note:       req.Note,
	})
	return respond(c, fiber.StatusOK, digest, err)
}

// ReorderDigestItems handles PUT /api/digests/:slug/items/order
// @Summary Reorder a digest's items
// @Tags digests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param slug path string true "Digest slug"
// @Param request body object{post_ids=[]int} true "Post IDs in their new order"
// @Success 200 {object} models.Digest
// @Router /digests/{slug}/items/order [put]
func (s *Server) ReorderDigestItems(c *fiber.Ctx) error {
	var req struct {
		PostIDs []uint `json:"post_ids"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	digest, err := s.digestService.Reorder(c.UserContext(), callerID(c), c.Params("slug"), req.PostIDs)
	return respond(c, fiber.StatusOK, digest, err)
}

// RemoveDigestItem handles DELETE /api/digests/:slug/items/:postId
// @Summary Remove a post from a digest
// @Tags digests
// @Produce json
// @Security BearerAuth
// @Param slug path string true "Digest slug"
// @Param postId path int true "Post ID"
// @Success 200 {object} models.Digest
// @Router /digests/{slug}/items/{postId} [delete]
func (s *Server) RemoveDigestItem(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "postId")
	if err != nil {
		return nil
	}

	digest, err := s.digestService.RemoveItem(c.UserContext(), callerID(c), c.Params("slug"), postID)
	return respond(c, fiber.StatusOK, digest, err)
}

// PublishDigest handles POST /api/digests/:slug/publish
// @Summary Publish a digest
// @Tags digests
// @Produce json
// @Security BearerAuth
// @Param slug path string true "Digest slug"
// @Success 200 {object} models.Digest
// @Failure 400 {object} models.ErrorResponse
// @Router /digests/{slug}/publish [post]
func (s *Server) PublishDigest(c *fiber.Ctx) error {
	digest, err := s.digestService.Publish(c.UserContext(), callerID(c), c.Params("slug"))
	return respond(c, fiber.StatusOK, digest, err)
}

// GetSavedPosts handles GET /api/library/saved
// @Summary List saved posts
// @Tags library
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.SavedPost
// @Router /library/saved [get]
func (s *Server) GetSavedPosts(c *fiber.Ctx) error {
	page := parsePagination(c, 20)
	saved, err := s.libraryService.ListSaved(c.UserContext(), callerID(c), page.Limit, page.Offset)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(orEmpty(saved))
}

// SavePost handles POST /api/library/saved/:slug
// @Summary Save a post to the library
// @Tags library
// @Security BearerAuth
// @Param slug path string true "Post slug"
// @Success 204
// @Router /library/saved/{slug} [post]
func (s *Server) SavePost(c *fiber.Ctx) error {
	if err := s.libraryService.Save(c.UserContext(), callerID(c), c.Params("slug")); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// UnsavePost handles DELETE /api/library/saved/:slug
// @Summary Remove a post from the library
// @Tags library
// @Security BearerAuth
// @Param slug path string true "Post slug"
// @Success 204
// @Router /library/saved/{slug} [delete]
func (s *Server) UnsavePost(c *fiber.Ctx) error {
	if err := s.libraryService.Unsave(c.UserContext(), callerID(c), c.Params("slug")); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetReadingHistory handles GET /api/library/history
// @Summary Reading history
// @Tags library
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.ReadingHistory
// @Router /library/history [get]
func (s *Server) GetReadingHistory(c *fiber.Ctx) error {
	page := parsePagination(c, 20)
	history, err := s.libraryService.ListHistory(c.UserContext(), callerID(c), page.Limit, page.Offset)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(orEmpty(history))
}

// RecordReadingProgress handles POST /api/library/history
// @Summary Record reading progress
// @Tags library
// @Accept json
// @Security BearerAuth
// @Param request body object{post_slug=string,progress=int} true "Progress from 0 to 100"
// @Success 204
// @Failure 400 {object} models.ErrorResponse
// @Router /library/history [post]
func (s *Server) RecordReadingProgress(c *fiber.Ctx) error {
	var req struct {
		PostSlug string `json:"post_slug"`
		Progress int    `json:"progress"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	if err := s.libraryService.RecordProgress(c.UserContext(), callerID(c), req.PostSlug, req.Progress); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ClearReadingHistory handles DELETE /api/library/history
// @Summary Clear reading history
// @Tags library
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{cleared=int}
// @Router /library/history [delete]
func (s *Server) ClearReadingHistory(c *fiber.Ctx) error {
	n, err := s.libraryService.ClearHistory(c.UserContext(), callerID(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"cleared": n})
}
