package server

import (
	"strings"

	"inkraft/internal/models"
	"inkraft/internal/repository"
	"inkraft/internal/service"

	"github.com/gofiber/fiber/v2"
)

const maxAdminUserSearchLen = 64

// AdminListUsers handles GET /api/admin/users.
// @Summary List users for admin
// @Description List users with search, role and ban filters.
// @Tags moderation-admin
// @Produce json
// @Param q query string false "Search query (username or email)"
// @Param role query string false "admin, author or reader"
// @Param banned query bool false "Filter by ban state"
// @Success 200 {object} object{items=[]models.User,total=int}
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /admin/users [get]
func (s *Server) AdminListUsers(c *fiber.Ctx) error {
	page := parsePagination(c, 50)
	q := strings.TrimSpace(c.Query("q"))
	if len(q) > maxAdminUserSearchLen {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Search query too long (max 64 characters)"))
	}

	f := repository.UserFilter{
		Query:  q,
		Role:   models.Role(strings.ToLower(c.Query("role"))),
		Limit:  page.Limit,
		Offset: page.Offset,
	}
	if raw := c.Query("banned"); raw != "" {
		banned := c.QueryBool("banned")
		f.Banned = &banned
	}

	users, total, err := s.moderationService.ListUsers(c.UserContext(), f)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(newListResponse(users, total, page))
}

// AdminGetUser handles GET /api/admin/users/:id.
// @Summary Get user detail for admin
// @Description Fetch a user with their recent comments and alerts.
// @Tags moderation-admin
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} service.AdminUserDetail
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /admin/users/{id} [get]
func (s *Server) AdminGetUser(c *fiber.Ctx) error {
	targetID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	detail, err := s.moderationService.GetAdminUserDetail(c.UserContext(), targetID)
	return respond(c, fiber.StatusOK, detail, err)
}

// AdminUpdateUser handles PUT /api/admin/users/:id.
// @Summary Update a user's standing
// @Description Change role, ban or unban, set or freeze trust. Omitted fields are unchanged.
// @Tags moderation-admin
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param request body object{role=string,banned=bool,banned_reason=string,trust_score=number,trust_frozen=bool} true "Changes"
// @Success 200 {object} models.User
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /admin/users/{id} [put]
func (s *Server) AdminUpdateUser(c *fiber.Ctx) error {
	targetID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Role         *models.Role `json:"role"`
		Banned       *bool        `json:"banned"`
		BannedReason string       `json:"banned_reason"`
		TrustScore   *float64     `json:"trust_score"`
		TrustFrozen  *bool        `json:"trust_frozen"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	user, err := s.moderationService.UpdateUser(c.UserContext(), callerID(c), targetID, service.AdminUserUpdate{
		Role:         req.Role,
		Banned:       req.Banned,
		BannedReason: req.BannedReason,
		TrustScore:   req.TrustScore,
		TrustFrozen:  req.TrustFrozen,
	})
	return respond(c, fiber.StatusOK, user, err)
}

// AdminListPosts handles GET /api/admin/posts.
// @Summary List posts for admin
// @Description Includes drafts and deleted posts.
// @Tags moderation-admin
// @Produce json
// @Param status query string false "published, draft or all"
// @Param q query string false "Title search"
// @Success 200 {object} object{items=[]models.Post,total=int}
// @Security BearerAuth
// @Router /admin/posts [get]
func (s *Server) AdminListPosts(c *fiber.Ctx) error {
	page := parsePagination(c, 50)
	status := repository.PostStatus(strings.ToLower(c.Query("status", string(repository.PostsAll))))
	switch status {
	case repository.PostsAll, repository.PostsPublished, repository.PostsDrafts:
	default:
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("status must be published, draft or all"))
	}

	posts, total, err := s.postService.AdminListPosts(c.UserContext(), status, c.Query("q"), page.Limit, page.Offset)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(newListResponse(posts, total, page))
}

// AdminSetEditorsPick handles PUT /api/admin/posts/:slug/pick.
// @Summary Set or clear editor's pick
// @Tags moderation-admin
// @Accept json
// @Produce json
// @Param slug path string true "Post slug"
// @Param request body object{pick=bool} true "Pick state"
// @Success 200 {object} models.Post
// @Security BearerAuth
// @Router /admin/posts/{slug}/pick [put]
func (s *Server) AdminSetEditorsPick(c *fiber.Ctx) error {
	var req struct {
		Pick bool `json:"pick"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	post, err := s.postService.SetEditorsPick(c.UserContext(), callerID(c), c.Params("slug"), req.Pick)
	return respond(c, fiber.StatusOK, post, err)
}

// AdminDeletePost handles DELETE /api/admin/posts/:slug.
// @Summary Delete any post
// @Tags moderation-admin
// @Param slug path string true "Post slug"
// @Success 204
// @Security BearerAuth
// @Router /admin/posts/{slug} [delete]
func (s *Server) AdminDeletePost(c *fiber.Ctx) error {
	if err := s.postService.DeletePost(c.UserContext(), callerID(c), c.Params("slug")); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// AdminListComments handles GET /api/admin/comments.
// @Summary List comments for moderation
// @Tags moderation-admin
// @Produce json
// @Param status query string false "pending, approved or rejected (default pending)"
// @Param post_id query int false "Post ID"
// @Param user_id query int false "Author ID"
// @Success 200 {object} object{items=[]models.Comment,total=int}
// @Security BearerAuth
// @Router /admin/comments [get]
func (s *Server) AdminListComments(c *fiber.Ctx) error {
	page := parsePagination(c, 50)
	status := models.ModerationStatus(strings.ToLower(c.Query("status", string(models.ModerationPending))))
	if status == "all" {
		status = ""
	}
	switch status {
	case "", models.ModerationPending, models.ModerationApproved, models.ModerationRejected:
	default:
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("status must be pending, approved, rejected or all"))
	}

	comments, total, err := s.commentService.AdminListComments(c.UserContext(), repository.CommentFilter{
		Status: status,
		PostID: uint(max(c.QueryInt("post_id", 0), 0)),
		UserID: uint(max(c.QueryInt("user_id", 0), 0)),
		Limit:  page.Limit,
		Offset: page.Offset,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(newListResponse(comments, total, page))
}

// AdminModerateComment handles POST /api/admin/comments/:id/moderate.
// @Summary Approve or reject a pending comment
// @Tags moderation-admin
// @Accept json
// @Produce json
// @Param id path int true "Comment ID"
// @Param request body object{action=string} true "approve or reject"
// @Success 200 {object} models.Comment
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /admin/comments/{id}/moderate [post]
func (s *Server) AdminModerateComment(c *fiber.Ctx) error {
	commentID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		Action string `json:"action"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	var approve bool
	switch strings.ToLower(strings.TrimSpace(req.Action)) {
	case "approve":
		approve = true
	case "reject":
	default:
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("action must be approve or reject"))
	}

	comment, err := s.commentService.ModerateComment(c.UserContext(), callerID(c), commentID, approve)
	return respond(c, fiber.StatusOK, comment, err)
}

// AdminListAlerts handles GET /api/admin/alerts.
// @Summary List admin alerts
// @Tags moderation-admin
// @Produce json
// @Param status query string false "open or resolved"
// @Param type query string false "Alert type"
// @Success 200 {object} object{items=[]models.Alert,total=int}
// @Security BearerAuth
// @Router /admin/alerts [get]
func (s *Server) AdminListAlerts(c *fiber.Ctx) error {
	page := parsePagination(c, 50)
	alerts, total, err := s.moderationService.ListAlerts(c.UserContext(), repository.AlertFilter{
		Status:       models.AlertStatus(strings.ToLower(c.Query("status"))),
		Type:         models.AlertType(strings.ToLower(c.Query("type"))),
		TargetUserID: uint(max(c.QueryInt("user_id", 0), 0)),
		Limit:        page.Limit,
		Offset:       page.Offset,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(newListResponse(alerts, total, page))
}

// AdminCreateAlert handles POST /api/admin/alerts.
// @Summary Raise an alert
// @Description Used by the abuse detection job to file alerts for review.
// @Tags moderation-admin
// @Accept json
// @Produce json
// @Param request body object{type=string,target_user_id=int,target_post_id=int,details=string} true "Alert"
// @Success 201 {object} models.Alert
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /admin/alerts [post]
func (s *Server) AdminCreateAlert(c *fiber.Ctx) error {
	var req struct {
		Type         models.AlertType `json:"type"`
		TargetUserID uint             `json:"target_user_id"`
		TargetPostID *uint            `json:"target_post_id"`
		Details      string           `json:"details"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	alert, err := s.moderationService.CreateAlert(c.UserContext(), service.CreateAlertInput{
		Type:         req.Type,
		TargetUserID: req.TargetUserID,
		TargetPostID: req.TargetPostID,
		Details:      req.Details,
	})
	return respond(c, fiber.StatusCreated, alert, err)
}

// AdminResolveAlert handles POST /api/admin/alerts/:id/resolve.
// @Summary Resolve an alert
// @Tags moderation-admin
// @Accept json
// @Produce json
// @Param id path int true "Alert ID"
// @Param request body object{action=string} true "dismiss, ban_user, freeze_trust or nullify_votes"
// @Success 200 {object} models.Alert
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /admin/alerts/{id}/resolve [post]
func (s *Server) AdminResolveAlert(c *fiber.Ctx) error {
	alertID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		Action models.AlertAction `json:"action"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	alert, err := s.moderationService.ResolveAlert(c.UserContext(), callerID(c), alertID, req.Action)
	return respond(c, fiber.StatusOK, alert, err)
}

// AdminCreateCategory handles POST /api/admin/categories.
// @Summary Create a category
// @Tags moderation-admin
// @Accept json
// @Produce json
// @Param request body object{slug=string,name=string,description=string} true "Category"
// @Success 201 {object} models.Category
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /admin/categories [post]
func (s *Server) AdminCreateCategory(c *fiber.Ctx) error {
	var req struct {
		Slug        string `json:"slug"`
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	category, err := s.postService.CreateCategory(c.UserContext(), callerID(c), req.Slug, req.Name, req.Description)
	return respond(c, fiber.StatusCreated, category, err)
}
