package server

import (
	"github.com/gofiber/fiber/v2"
)

// GetMyAnalytics handles GET /api/analytics/me
// @Summary Author analytics dashboard
// @Description Totals for the caller's posts, views by day and top posts over the period.
// @Tags analytics
// @Produce json
// @Security BearerAuth
// @Param days query int false "Period in days (1-365, default 30)"
// @Success 200 {object} service.AuthorDashboard
// @Failure 400 {object} models.ErrorResponse
// @Router /analytics/me [get]
func (s *Server) GetMyAnalytics(c *fiber.Ctx) error {
	dashboard, err := s.analyticsService.AuthorDashboard(c.UserContext(), callerID(c), c.QueryInt("days", 0))
	return respond(c, fiber.StatusOK, dashboard, err)
}

// GetAdminAnalytics handles GET /api/admin/analytics
// @Summary Site analytics dashboard
// @Tags moderation-admin
// @Produce json
// @Security BearerAuth
// @Param days query int false "Period in days (1-365, default 30)"
// @Success 200 {object} service.AdminDashboard
// @Failure 400 {object} models.ErrorResponse
// @Router /admin/analytics [get]
func (s *Server) GetAdminAnalytics(c *fiber.Ctx) error {
	dashboard, err := s.analyticsService.AdminDashboard(c.UserContext(), c.QueryInt("days", 0))
	return respond(c, fiber.StatusOK, dashboard, err)
}
