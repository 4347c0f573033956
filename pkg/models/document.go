package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Document is a generic CMS record. The workflow-relevant fields are typed;
// everything else lives in Fields and is only reachable through the dot-path
// getter used by condition evaluation.
type Document struct {
	ID             string          `json:"id"`
	Collection     string          `json:"collection"`
	Title          string          `json:"title"`
	CreatedBy      string          `json:"created_by"`
	Workflow       string          `json:"workflow,omitempty"`
	WorkflowStatus *WorkflowStatus `json:"workflow_status,omitempty"`
	Fields         map[string]any  `json:"fields,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// WorkflowStatus is the progress marker embedded in a document. It is mutated
// exclusively by the workflow engine.
type WorkflowStatus struct {
	CurrentStep int        `json:"current_step"`
	IsCompleted bool       `json:"is_completed"`
	LastUpdated time.Time  `json:"last_updated"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// NewDocument creates a document with a fresh id and no workflow attached.
func NewDocument(collection, title, createdBy string, fields map[string]any) *Document {
	now := time.Now().UTC()

	return &Document{
		ID:         uuid.New().String(),
		Collection: collection,
		Title:      title,
		CreatedBy:  createdBy,
		Fields:     fields,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// DisplayTitle returns the document title, falling back to a "name" field and
// finally to "Untitled".
func (d *Document) DisplayTitle() string {
	if d.Title != "" {
		return d.Title
	}

	if name, ok := d.Fields["name"].(string); ok && name != "" {
		return name
	}

	return "Untitled"
}

// CurrentStepNumber returns the step the document sits on, or 0 before the
// workflow has been started.
func (d *Document) CurrentStepNumber() int {
	if d.WorkflowStatus == nil {
		return 0
	}

	return d.WorkflowStatus.CurrentStep
}

// HasWorkflow reports whether a workflow is assigned to the document.
func (d *Document) HasWorkflow() bool {
	return d.Workflow != ""
}

// FieldByPath resolves a dot-path against the document. The synthetic fields
// title, createdBy, collection and id resolve from the typed document fields;
// everything else traverses the opaque Fields mapping. The second return
// value reports whether the path resolved.
func (d *Document) FieldByPath(path string) (any, bool) {
	switch path {
	case "title":
		return d.Title, true
	case "createdBy":
		return d.CreatedBy, true
	case "collection":
		return d.Collection, true
	case "id":
		return d.ID, true
	}

	var value any = d.Fields

	for _, segment := range strings.Split(path, ".") {
		mapping, ok := value.(map[string]any)
		if !ok {
			return nil, false
		}

		value, ok = mapping[segment]
		if !ok {
			return nil, false
		}
	}

	return value, true
}
