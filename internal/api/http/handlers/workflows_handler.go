package handlers

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/mionax/starfusion-manager/internal/service"
	apperrors "github.com/mionax/starfusion-manager/pkg/util"
)

// WorkflowsHandler serves the local and the unfiltered remote workflow
// trees.
type WorkflowsHandler struct {
	workflows *service.WorkflowService
}

// NewWorkflowsHandler constructs handler.
func NewWorkflowsHandler(workflows *service.WorkflowService) *WorkflowsHandler {
	return &WorkflowsHandler{workflows: workflows}
}

// LocalList handles GET /workflows/local.
func (h *WorkflowsHandler) LocalList(c *fiber.Ctx) error {
	return c.JSON(h.workflows.LocalListing())
}

// LocalGet handles GET /workflows/local/*.
func (h *WorkflowsHandler) LocalGet(c *fiber.Ctx) error {
	relPath, err := workflowPath(c)
	if err != nil {
		return err
	}
	content, err := h.workflows.LocalWorkflow(relPath)
	if err != nil {
		return err
	}
	return sendWorkflow(c, content)
}

// RemoteList handles GET /workflows/remote.
func (h *WorkflowsHandler) RemoteList(c *fiber.Ctx) error {
	return c.JSON(h.workflows.RemoteListing(c.UserContext()))
}

// RemoteGet handles GET /workflows/remote/*.
func (h *WorkflowsHandler) RemoteGet(c *fiber.Ctx) error {
	relPath, err := workflowPath(c)
	if err != nil {
		return err
	}
	content, err := h.workflows.RemoteWorkflow(c.UserContext(), relPath)
	if err != nil {
		return err
	}
	return sendWorkflow(c, content)
}

func workflowPath(c *fiber.Ctx) (string, error) {
	relPath := c.Params("*")
	if relPath == "" {
		return "", apperrors.NewValidationError("workflow path required", nil)
	}
	return relPath, nil
}

// sendWorkflow replies with the stored workflow document. Content that no
// longer parses is a server-side fault, not the caller's.
func sendWorkflow(c *fiber.Ctx, content string) error {
	if !json.Valid([]byte(content)) {
		return apperrors.NewInternalError(errors.New("stored workflow is not valid JSON"))
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.SendString(content)
}
