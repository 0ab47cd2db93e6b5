package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/mionax/starfusion-manager/internal/api/dto"
	"github.com/mionax/starfusion-manager/internal/auth"
	"github.com/mionax/starfusion-manager/internal/service"
	apperrors "github.com/mionax/starfusion-manager/pkg/util"
)

// UserWorkflowsHandler serves the entitlement-filtered workflow surface.
// Every route requires an authenticated principal.
type UserWorkflowsHandler struct {
	workflows *service.WorkflowService
}

// NewUserWorkflowsHandler constructs handler.
func NewUserWorkflowsHandler(workflows *service.WorkflowService) *UserWorkflowsHandler {
	return &UserWorkflowsHandler{workflows: workflows}
}

// List handles GET /user/workflows.
func (h *UserWorkflowsHandler) List(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	folders, err := h.workflows.AuthorizedListing(c.UserContext(), principal.User.ID, principal.Token)
	if err != nil {
		return err
	}
	return c.JSON(folders)
}

// Get handles GET /user/workflows/*.
func (h *UserWorkflowsHandler) Get(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	relPath, err := workflowPath(c)
	if err != nil {
		return err
	}

	content, err := h.workflows.UserWorkflow(c.UserContext(), principal.User.ID, principal.Token, relPath)
	if err != nil {
		return err
	}
	return sendWorkflow(c, content)
}

// Entitlements handles GET /user/entitlements.
func (h *UserWorkflowsHandler) Entitlements(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	resolved, err := h.workflows.Entitlements(c.UserContext(), principal.User.ID, principal.Token)
	if err != nil {
		return err
	}
	return c.JSON(dto.EntitlementsResponse{
		WorkflowList:    resolved.WorkflowIDs(),
		WorkflowDetails: resolved.Details(),
	})
}

// Check handles POST /user/entitlements/check.
func (h *UserWorkflowsHandler) Check(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.CheckWorkflowRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewMalformedInput("invalid payload")
	}
	if req.WorkflowID == "" {
		return apperrors.NewValidationError("workflow_id required", nil)
	}

	result, err := h.workflows.CheckWorkflow(c.UserContext(), principal.User.ID, principal.Token, req.WorkflowID)
	if err != nil {
		return err
	}
	return c.JSON(result)
}
