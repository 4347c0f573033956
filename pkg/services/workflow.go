package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xeipuuv/gojsonschema"

	"github.com/anilrana004/Workline/pkg/models"
	"github.com/anilrana004/Workline/pkg/persistence"
)

// Workflow manages workflow definitions: validation, lifecycle and the
// built-in templates. Runtime transitions live in the workflow package.
type Workflow struct {
	persistence persistence.Persistence
	schema      *gojsonschema.Schema
	logger      *slog.Logger
}

// NewWorkflow creates a new workflow service.
func NewWorkflow(store persistence.Persistence, logger *slog.Logger) (*Workflow, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(workflowSchema))
	if err != nil {
		return nil, fmt.Errorf("failed to compile workflow schema: %w", err)
	}

	return &Workflow{
		persistence: store,
		schema:      schema,
		logger:      logger.With("module", "workflow_service"),
	}, nil
}

// HealthCheck checks the health of the persistence layer.
func (s *Workflow) HealthCheck(ctx context.Context) (string, bool) {
	if s.persistence == nil {
		return "Persistence layer not initialized", false
	}

	if err := s.persistence.HealthCheck(ctx); err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// normalize fills the defaults a definition may omit. It runs before
// validation so a request without collections passes the schema.
func normalize(workflow *models.Workflow) {
	if workflow == nil {
		return
	}

	workflow.NormalizeSteps()

	if len(workflow.ApplicableCollections) == 0 {
		workflow.ApplicableCollections = []string{models.CollectionAll}
	}
}

// Create validates and persists a new workflow. Steps are renumbered 1..N
// in input order regardless of the numbers they carried.
func (s *Workflow) Create(ctx context.Context, workflow *models.Workflow, createdBy string) (*models.Workflow, error) {
	const op = "workflow_service.create"

	normalize(workflow)

	if err := s.validate(workflow); err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	workflow.ID = uuid.New().String()
	workflow.CreatedBy = createdBy
	workflow.CreatedAt = now
	workflow.UpdatedAt = now

	if err := s.persistence.WorkflowRepository().SaveWorkflow(ctx, workflow); err != nil {
		return nil, &ServiceError{Op: op, Err: err}
	}

	s.logger.InfoContext(ctx, "Workflow created", "workflow_id", workflow.ID, "name", workflow.Name)

	return workflow, nil
}

// Update validates and replaces an existing workflow definition.
func (s *Workflow) Update(ctx context.Context, id string, workflow *models.Workflow) (*models.Workflow, error) {
	const op = "workflow_service.update"

	existing, err := s.persistence.WorkflowRepository().WorkflowByID(ctx, id)
	if err != nil {
		return nil, &ServiceError{Op: op, Err: err}
	}

	normalize(workflow)

	if err := s.validate(workflow); err != nil {
		return nil, err
	}

	workflow.ID = existing.ID
	workflow.CreatedBy = existing.CreatedBy
	workflow.CreatedAt = existing.CreatedAt
	workflow.UpdatedAt = time.Now().UTC()

	if err := s.persistence.WorkflowRepository().SaveWorkflow(ctx, workflow); err != nil {
		return nil, &ServiceError{Op: op, Err: err}
	}

	return workflow, nil
}

// FetchByID returns one workflow.
func (s *Workflow) FetchByID(ctx context.Context, id string) (*models.Workflow, error) {
	return s.persistence.WorkflowRepository().WorkflowByID(ctx, id)
}

// ListRequest contains options for listing workflows.
type ListRequest struct {
	Active *bool
	Search string
}

// List returns workflows, oldest first, optionally filtered by active flag
// and a case-insensitive text match over name and description.
func (s *Workflow) List(ctx context.Context, req ListRequest) ([]*models.Workflow, error) {
	workflows, err := s.persistence.WorkflowRepository().Workflows(ctx)
	if err != nil {
		return nil, err
	}

	if req.Active == nil && req.Search == "" {
		return workflows, nil
	}

	search := strings.ToLower(req.Search)
	filtered := make([]*models.Workflow, 0, len(workflows))

	for _, workflow := range workflows {
		if req.Active != nil && workflow.IsActive != *req.Active {
			continue
		}

		if search != "" &&
			!strings.Contains(strings.ToLower(workflow.Name), search) &&
			!strings.Contains(strings.ToLower(workflow.Description), search) {
			continue
		}

		filtered = append(filtered, workflow)
	}

	return filtered, nil
}

// Delete removes a workflow definition. A workflow with documents still in
// flight cannot be deleted; deactivate it instead.
func (s *Workflow) Delete(ctx context.Context, id string) error {
	const op = "workflow_service.delete"

	if _, err := s.persistence.WorkflowRepository().WorkflowByID(ctx, id); err != nil {
		return &ServiceError{Op: op, Err: err}
	}

	inFlight, err := s.hasDocumentsInFlight(ctx, id)
	if err != nil {
		return &ServiceError{Op: op, Err: err}
	}

	if inFlight {
		return &ServiceError{Op: op, Err: ErrWorkflowInUse}
	}

	return s.persistence.WorkflowRepository().DeleteWorkflow(ctx, id)
}

// Clone copies a workflow under a new id. The copy is created inactive so
// it can be edited before going live.
func (s *Workflow) Clone(ctx context.Context, id, createdBy string) (*models.Workflow, error) {
	const op = "workflow_service.clone"

	source, err := s.persistence.WorkflowRepository().WorkflowByID(ctx, id)
	if err != nil {
		return nil, &ServiceError{Op: op, Err: err}
	}

	clone := &models.Workflow{
		Name:                  source.Name + " (Copy)",
		Description:           source.Description,
		IsActive:              false,
		ApplicableCollections: append([]string(nil), source.ApplicableCollections...),
		Steps:                 cloneSteps(source.Steps),
	}

	now := time.Now().UTC()
	clone.ID = uuid.New().String()
	clone.CreatedBy = createdBy
	clone.CreatedAt = now
	clone.UpdatedAt = now

	if err := s.persistence.WorkflowRepository().SaveWorkflow(ctx, clone); err != nil {
		return nil, &ServiceError{Op: op, Err: err}
	}

	return clone, nil
}

// SetActive flips a workflow's active flag. Deactivation never halts
// documents already in flight.
func (s *Workflow) SetActive(ctx context.Context, id string, active bool) (*models.Workflow, error) {
	const op = "workflow_service.set_active"

	workflow, err := s.persistence.WorkflowRepository().WorkflowByID(ctx, id)
	if err != nil {
		return nil, &ServiceError{Op: op, Err: err}
	}

	if workflow.IsActive == active {
		return workflow, nil
	}

	workflow.IsActive = active
	workflow.UpdatedAt = time.Now().UTC()

	if err := s.persistence.WorkflowRepository().SaveWorkflow(ctx, workflow); err != nil {
		return nil, &ServiceError{Op: op, Err: err}
	}

	return workflow, nil
}

func (s *Workflow) validate(workflow *models.Workflow) error {
	const op = "workflow_service.validate"

	if workflow == nil {
		return &ServiceError{Op: op, Err: ErrWorkflowNil}
	}

	if strings.TrimSpace(workflow.Name) == "" {
		return &ServiceError{Op: op, Err: ErrWorkflowNameRequired}
	}

	if len(workflow.Steps) == 0 {
		return &ServiceError{Op: op, Err: ErrStepsRequired}
	}

	raw, err := json.Marshal(workflow)
	if err != nil {
		return &ServiceError{Op: op, Err: err}
	}

	result, err := s.schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return &ServiceError{Op: op, Err: err}
	}

	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}

		return &ServiceError{Op: op, Message: strings.Join(details, "; "), Err: ErrInvalidDefinition}
	}

	return nil
}

func (s *Workflow) hasDocumentsInFlight(ctx context.Context, workflowID string) (bool, error) {
	collections, err := s.persistence.DocumentRepository().Collections(ctx)
	if err != nil {
		return false, err
	}

	for _, collection := range collections {
		documents, err := s.persistence.DocumentRepository().DocumentsByCollection(ctx, collection)
		if err != nil {
			return false, err
		}

		for _, document := range documents {
			if document.Workflow != workflowID {
				continue
			}

			if document.WorkflowStatus != nil && !document.WorkflowStatus.IsCompleted {
				return true, nil
			}
		}
	}

	return false, nil
}

func cloneSteps(steps []*models.Step) []*models.Step {
	cloned := make([]*models.Step, 0, len(steps))

	for _, step := range steps {
		copied := *step
		copied.Assignees.Roles = append([]string(nil), step.Assignees.Roles...)
		copied.Assignees.Users = append([]string(nil), step.Assignees.Users...)
		copied.Assignees.Departments = append([]string(nil), step.Assignees.Departments...)
		copied.Assignees.DynamicRules = append([]models.DynamicRule(nil), step.Assignees.DynamicRules...)
		copied.Conditions = append([]models.Condition(nil), step.Conditions...)
		copied.NextSteps = append([]models.NextStepRule(nil), step.NextSteps...)

		if step.SLA != nil {
			sla := *step.SLA
			copied.SLA = &sla
		}

		cloned = append(cloned, &copied)
	}

	return cloned
}
