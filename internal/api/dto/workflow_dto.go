package dto

import "github.com/mionax/starfusion-manager/internal/entitlement"

// EntitlementsResponse lists the user's authorized workflows with the
// effective grant behind each one.
type EntitlementsResponse struct {
	WorkflowList    []string                     `json:"workflow_list"`
	WorkflowDetails map[string]entitlement.Entry `json:"workflow_details"`
}

// CheckWorkflowRequest asks for the authorization state of one workflow.
type CheckWorkflowRequest struct {
	WorkflowID string `json:"workflow_id"`
}
