// Package web provides the HTTP boundary for workflow management and
// workflow actions.
package web

import "github.com/anilrana004/Workline/pkg/models"

// TriggerActionRequest is the body for POST /workflows/trigger.
type TriggerActionRequest struct {
	Collection string `json:"collection"  validate:"required"`
	DocumentID string `json:"document_id" validate:"required"`
	WorkflowID string `json:"workflow_id" validate:"required"`
	Action     string `json:"action"      validate:"required,oneof=approved rejected commented"`
	Comment    string `json:"comment,omitempty"`
}

// AssignWorkflowRequest is the body for POST /workflows/assign.
type AssignWorkflowRequest struct {
	Collection string `json:"collection"  validate:"required"`
	DocumentID string `json:"document_id" validate:"required"`
	WorkflowID string `json:"workflow_id" validate:"required"`
	AutoStart  bool   `json:"auto_start"`
}

// CreateWorkflowRequest is the body for POST /workflows.
type CreateWorkflowRequest struct {
	Name                  string         `json:"name"        validate:"required,min=3"`
	Description           string         `json:"description"`
	IsActive              bool           `json:"is_active"`
	ApplicableCollections []string       `json:"applicable_collections"`
	Steps                 []*models.Step `json:"steps"       validate:"required,min=1"`
}

// CreateDocumentRequest is the body for POST /documents. Creation runs the
// lifecycle hook that may auto-assign a workflow.
type CreateDocumentRequest struct {
	Collection string         `json:"collection" validate:"required"`
	Title      string         `json:"title"`
	Fields     map[string]any `json:"fields,omitempty"`
}

// StatusResponse is the payload for GET /workflows/status/:docId.
type StatusResponse struct {
	Document         *models.Document   `json:"document"`
	Workflow         *models.Workflow   `json:"workflow,omitempty"`
	CurrentStep      *models.Step       `json:"current_step,omitempty"`
	IsCompleted      bool               `json:"is_completed"`
	Progress         int                `json:"progress"`
	AvailableActions []string           `json:"available_actions"`
	SLA              *models.SLAStatus  `json:"sla,omitempty"`
	RecentLogs       []*models.LogEntry `json:"recent_logs"`
}

// PendingAssignment is one entry in GET /workflows/pending.
type PendingAssignment struct {
	WorkflowID string             `json:"workflow_id"`
	Document   models.DocumentRef `json:"document"`
	Step       models.StepRef     `json:"step"`
	AssignedAt string             `json:"assigned_at"`
}
