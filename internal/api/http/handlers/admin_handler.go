package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/mionax/starfusion-manager/internal/auth"
	"github.com/mionax/starfusion-manager/internal/service"
	apperrors "github.com/mionax/starfusion-manager/pkg/util"
)

// AdminHandler exposes operational endpoints.
type AdminHandler struct {
	workflows *service.WorkflowService
}

// NewAdminHandler constructs handler.
func NewAdminHandler(workflows *service.WorkflowService) *AdminHandler {
	return &AdminHandler{workflows: workflows}
}

// ClearCache handles POST /admin/cache/clear. Drops every cached listing
// and entitlement mapping so the next request refetches from upstream.
func (h *AdminHandler) ClearCache(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	if err := h.workflows.ClearCache(c.UserContext(), principal.User.ID); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"status": "cache cleared"})
}
