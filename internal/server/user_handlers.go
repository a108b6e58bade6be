package server

import (
	"context"
	"errors"
	"time"

	"inkraft/internal/models"
	"inkraft/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetUserProfile handles GET /api/users/:id
// @Summary Public user profile
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} models.User
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{id} [get]
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	user, err := s.userService.GetPublicProfile(c.UserContext(), id)
	return respond(c, fiber.StatusOK, user, err)
}

// GetMyProfile handles GET /api/users/me
// @Summary Current user's profile
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.User
// @Router /users/me [get]
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	user, err := s.userService.GetUserByID(c.UserContext(), callerID(c))
	return respond(c, fiber.StatusOK, user, err)
}

// UpdateMyProfile handles PUT /api/users/me
// @Summary Update the current user's profile
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{name=string,bio=string,avatar=string} true "Profile fields"
// @Success 200 {object} models.User
// @Failure 400 {object} models.ErrorResponse
// @Router /users/me [put]
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	var req struct {
		Name   string `json:"name"`
		Bio    string `json:"bio"`
		Avatar string `json:"avatar"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	user, err := s.userService.UpdateProfile(c.UserContext(), service.UpdateProfileInput{
		UserID: callerID(c),
		Name:   req.Name,
		Bio:    req.Bio,
		Avatar: req.Avatar,
	})
	return respond(c, fiber.StatusOK, user, err)
}

// FollowAuthor handles POST /api/follows/authors/:id
// @Summary Follow an author
// @Tags follows
// @Security BearerAuth
// @Param id path int true "Author ID"
// @Success 204
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /follows/authors/{id} [post]
func (s *Server) FollowAuthor(c *fiber.Ctx) error {
	authorID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.followService.FollowAuthor(c.UserContext(), callerID(c), authorID); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// UnfollowAuthor handles DELETE /api/follows/authors/:id
// @Summary Unfollow an author
// @Tags follows
// @Security BearerAuth
// @Param id path int true "Author ID"
// @Success 204
// @Router /follows/authors/{id} [delete]
func (s *Server) UnfollowAuthor(c *fiber.Ctx) error {
	authorID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.followService.UnfollowAuthor(c.UserContext(), callerID(c), authorID); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// FollowCategory handles POST /api/follows/categories/:slug
// @Summary Follow a category
// @Tags follows
// @Security BearerAuth
// @Param slug path string true "Category slug"
// @Success 204
// @Failure 404 {object} models.ErrorResponse
// @Router /follows/categories/{slug} [post]
func (s *Server) FollowCategory(c *fiber.Ctx) error {
	if err := s.followService.FollowCategory(c.UserContext(), callerID(c), c.Params("slug")); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// UnfollowCategory handles DELETE /api/follows/categories/:slug
// @Summary Unfollow a category
// @Tags follows
// @Security BearerAuth
// @Param slug path string true "Category slug"
// @Success 204
// @Router /follows/categories/{slug} [delete]
func (s *Server) UnfollowCategory(c *fiber.Ctx) error {
	if err := s.followService.UnfollowCategory(c.UserContext(), callerID(c), c.Params("slug")); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetFeed handles GET /api/feed
// @Summary Personalized feed
// @Description Recent posts from followed authors and categories plus popular posts, ranked for the reader.
// @Tags feed
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {array} models.Post
// @Router /feed [get]
func (s *Server) GetFeed(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	page := parsePagination(c, 20)
	posts, err := s.feedService.Feed(ctx, callerID(c), page.Limit, page.Offset)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return c.Status(fiber.StatusGatewayTimeout).JSON(models.ErrorResponse{
				Error: "Request timeout",
			})
		}
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(orEmpty(posts))
}
