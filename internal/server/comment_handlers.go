package server

import (
	"inkraft/internal/models"
	"inkraft/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetComments handles GET /api/posts/:slug/comments
// @Summary Get a post's comment thread
// @Description Returns the nested thread. Pending comments are only shown to their author; deleted comments with replies keep a placeholder.
// @Tags comments
// @Produce json
// @Param slug path string true "Post slug"
// @Success 200 {array} models.Comment
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{slug}/comments [get]
func (s *Server) GetComments(c *fiber.Ctx) error {
	tree, err := s.commentService.ListComments(c.UserContext(), c.Params("slug"), callerID(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(orEmpty(tree))
}

// CreateComment handles POST /api/posts/:slug/comments
// @Summary Comment on a post
// @Description Trusted users are approved immediately; others wait for moderation. Rate limited per user by trust score.
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param slug path string true "Post slug"
// @Param request body object{content=string,parent_id=int} true "Comment"
// @Success 201 {object} models.Comment
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 429 {object} models.ErrorResponse
// @Router /posts/{slug}/comments [post]
func (s *Server) CreateComment(c *fiber.Ctx) error {
	var req struct {
		Content  string `json:"content"`
		ParentID *uint  `json:"parent_id"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	comment, err := s.commentService.CreateComment(c.UserContext(), service.CreateCommentInput{
		UserID:   callerID(c),
		PostSlug: c.Params("slug"),
		ParentID: req.ParentID,
		Content:  req.Content,
	})
	return respond(c, fiber.StatusCreated, comment, err)
}

// UpdateComment handles PUT /api/posts/:slug/comments/:commentId
// @Summary Edit a comment
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param slug path string true "Post slug"
// @Param commentId path int true "Comment ID"
// @Param request body object{content=string} true "New content"
// @Success 200 {object} models.Comment
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{slug}/comments/{commentId} [put]
func (s *Server) UpdateComment(c *fiber.Ctx) error {
	commentID, err := s.parseID(c, "commentId")
	if err != nil {
		return nil
	}
	var req struct {
		Content string `json:"content"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	comment, err := s.commentService.UpdateComment(c.UserContext(), service.UpdateCommentInput{
		UserID:    callerID(c),
		PostSlug:  c.Params("slug"),
		CommentID: commentID,
		Content:   req.Content,
	})
	return respond(c, fiber.StatusOK, comment, err)
}

// DeleteComment handles DELETE /api/posts/:slug/comments/:commentId
// @Summary Delete a comment
// @Tags comments
// @Security BearerAuth
// @Param slug path string true "Post slug"
// @Param commentId path int true "Comment ID"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{slug}/comments/{commentId} [delete]
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	commentID, err := s.parseID(c, "commentId")
	if err != nil {
		return nil
	}

	if err := s.commentService.DeleteComment(c.UserContext(), service.DeleteCommentInput{
		UserID:    callerID(c),
		PostSlug:  c.Params("slug"),
		CommentID: commentID,
	}); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
