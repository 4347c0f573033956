package web

import (
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/anilrana004/Workline/pkg/models"
	"github.com/anilrana004/Workline/pkg/persistence"
	"github.com/anilrana004/Workline/pkg/services"
	"github.com/anilrana004/Workline/pkg/workflow"
)

// UserIDHeader carries the acting user. Authentication itself happens in
// front of this service; the header is trusted as-is.
const UserIDHeader = "X-User-ID"

const recentLogLimit = 20

type APIHandlers struct {
	engine          *workflow.Engine
	workflowService *services.Workflow
	persistence     persistence.Persistence
	validator       *validator.Validate
}

func NewAPIHandlers(
	engine *workflow.Engine,
	workflowService *services.Workflow,
	store persistence.Persistence,
	validate *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		engine:          engine,
		workflowService: workflowService,
		persistence:     store,
		validator:       validate,
	}
}

// RegisterRoutes mounts every endpoint on the app.
func (h *APIHandlers) RegisterRoutes(app *fiber.App) {
	w := app.Group("/workflows")
	w.Post("/trigger", h.TriggerAction)
	w.Post("/assign", h.AssignWorkflow)
	w.Get("/status/:docId", h.GetStatus)
	w.Get("/pending", h.GetPending)
	w.Get("/templates", h.GetTemplates)
	w.Get("/sla/overdue", h.GetOverdue)
	w.Post("/sla/escalate", h.EscalateOverdue)
	w.Get("/", h.GetWorkflows)
	w.Post("/", h.CreateWorkflow)
	w.Get("/:id", h.GetWorkflow)
	w.Put("/:id", h.UpdateWorkflow)
	w.Delete("/:id", h.DeleteWorkflow)
	w.Post("/:id/activate", h.ActivateWorkflow)
	w.Post("/:id/deactivate", h.DeactivateWorkflow)
	w.Post("/:id/clone", h.CloneWorkflow)

	d := app.Group("/documents")
	d.Post("/", h.CreateDocument)
	d.Get("/:collection/:id/logs", h.GetDocumentLogs)

	app.Get("/health", h.HealthCheck)
}

func (h *APIHandlers) actingUser(c fiber.Ctx) string {
	return c.Get(UserIDHeader)
}

// TriggerAction applies an approval action to a document's current step.
func (h *APIHandlers) TriggerAction(c fiber.Ctx) error {
	var req TriggerActionRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	userID := h.actingUser(c)
	if userID == "" {
		return forbidden(c, "missing "+UserIDHeader+" header")
	}

	result, err := h.engine.TriggerAction(c.Context(), workflow.TriggerInput{
		Collection: req.Collection,
		DocumentID: req.DocumentID,
		WorkflowID: req.WorkflowID,
		Action:     models.LogAction(req.Action),
		UserID:     userID,
		Comment:    req.Comment,
	})
	if err != nil {
		return handleEngineError(c, err)
	}

	return c.JSON(result)
}

// AssignWorkflow attaches a workflow to a document.
func (h *APIHandlers) AssignWorkflow(c fiber.Ctx) error {
	var req AssignWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	document, err := h.engine.AssignWorkflow(c.Context(), req.Collection, req.DocumentID, req.WorkflowID, req.AutoStart)
	if err != nil {
		return handleEngineError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(document)
}

// GetStatus returns the workflow progress snapshot for one document.
func (h *APIHandlers) GetStatus(c fiber.Ctx) error {
	documentID := c.Params("docId")
	collection := c.Query("collection")

	if documentID == "" || collection == "" {
		return badRequest(c, "document id and collection are required")
	}

	snapshot, err := h.engine.Status(c.Context(), collection, documentID)
	if err != nil {
		return handleEngineError(c, err)
	}

	return c.JSON(h.statusResponse(snapshot))
}

func (h *APIHandlers) statusResponse(snapshot *workflow.StatusSnapshot) *StatusResponse {
	resp := &StatusResponse{
		Document:         snapshot.Document,
		Workflow:         snapshot.Workflow,
		CurrentStep:      snapshot.CurrentStep,
		IsCompleted:      snapshot.IsCompleted,
		SLA:              snapshot.SLA,
		AvailableActions: []string{},
		RecentLogs:       snapshot.History,
	}

	if len(resp.RecentLogs) > recentLogLimit {
		resp.RecentLogs = resp.RecentLogs[len(resp.RecentLogs)-recentLogLimit:]
	}

	if snapshot.Workflow != nil && len(snapshot.Workflow.Steps) > 0 {
		switch {
		case snapshot.IsCompleted:
			resp.Progress = 100
		case snapshot.CurrentStep != nil:
			resp.Progress = (snapshot.CurrentStep.StepNumber - 1) * 100 / len(snapshot.Workflow.Steps)
		}
	}

	if step := snapshot.CurrentStep; step != nil && !snapshot.IsCompleted {
		resp.AvailableActions = append(resp.AvailableActions, string(models.ActionApproved), string(models.ActionRejected))
		if step.AllowComments {
			resp.AvailableActions = append(resp.AvailableActions, string(models.ActionCommented))
		}
	}

	return resp
}

// GetPending lists the acting user's open assignments.
func (h *APIHandlers) GetPending(c fiber.Ctx) error {
	userID := h.actingUser(c)
	if userID == "" {
		return forbidden(c, "missing "+UserIDHeader+" header")
	}

	entries, err := h.persistence.LogRepository().PendingAssignments(c.Context(), userID)
	if err != nil {
		return internalError(c, err)
	}

	pending := make([]PendingAssignment, 0, len(entries))

	for _, entry := range entries {
		resolved, err := h.stepStillOpen(c, entry)
		if err != nil {
			return internalError(c, err)
		}

		if !resolved {
			continue
		}

		pending = append(pending, PendingAssignment{
			WorkflowID: entry.WorkflowID,
			Document:   entry.Document,
			Step:       entry.Step,
			AssignedAt: entry.Timestamp.Format("2006-01-02T15:04:05Z07:00"),
		})
	}

	return c.JSON(fiber.Map{"pending": pending, "count": len(pending)})
}

func (h *APIHandlers) stepStillOpen(c fiber.Ctx, entry *models.LogEntry) (bool, error) {
	_, resolved, err := h.engine.AuditLog().StepResolved(
		c.Context(), entry.WorkflowID, entry.Document.ID, entry.Step.StepNumber)
	if err != nil {
		return false, err
	}

	return !resolved, nil
}

// GetWorkflows lists workflow definitions.
func (h *APIHandlers) GetWorkflows(c fiber.Ctx) error {
	req := services.ListRequest{Search: c.Query("search")}

	if activeStr := c.Query("active"); activeStr != "" {
		active, err := strconv.ParseBool(activeStr)
		if err != nil {
			return badRequest(c, "Invalid active filter: "+err.Error())
		}

		req.Active = &active
	}

	workflows, err := h.workflowService.List(c.Context(), req)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"workflows": workflows, "count": len(workflows)})
}

// GetWorkflow returns one workflow definition.
func (h *APIHandlers) GetWorkflow(c fiber.Ctx) error {
	wf, err := h.workflowService.FetchByID(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(wf)
}

// CreateWorkflow creates a workflow definition.
func (h *APIHandlers) CreateWorkflow(c fiber.Ctx) error {
	var req CreateWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	created, err := h.workflowService.Create(c.Context(), &models.Workflow{
		Name:                  req.Name,
		Description:           req.Description,
		IsActive:              req.IsActive,
		ApplicableCollections: req.ApplicableCollections,
		Steps:                 req.Steps,
	}, h.actingUser(c))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

// UpdateWorkflow replaces a workflow definition.
func (h *APIHandlers) UpdateWorkflow(c fiber.Ctx) error {
	var req CreateWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	updated, err := h.workflowService.Update(c.Context(), c.Params("id"), &models.Workflow{
		Name:                  req.Name,
		Description:           req.Description,
		IsActive:              req.IsActive,
		ApplicableCollections: req.ApplicableCollections,
		Steps:                 req.Steps,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

// DeleteWorkflow removes a workflow definition.
func (h *APIHandlers) DeleteWorkflow(c fiber.Ctx) error {
	if err := h.workflowService.Delete(c.Context(), c.Params("id")); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// ActivateWorkflow enables a workflow for new documents.
func (h *APIHandlers) ActivateWorkflow(c fiber.Ctx) error {
	return h.setActive(c, true)
}

// DeactivateWorkflow stops a workflow from picking up new documents.
func (h *APIHandlers) DeactivateWorkflow(c fiber.Ctx) error {
	return h.setActive(c, false)
}

func (h *APIHandlers) setActive(c fiber.Ctx, active bool) error {
	wf, err := h.workflowService.SetActive(c.Context(), c.Params("id"), active)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(wf)
}

// CloneWorkflow copies a workflow definition.
func (h *APIHandlers) CloneWorkflow(c fiber.Ctx) error {
	clone, err := h.workflowService.Clone(c.Context(), c.Params("id"), h.actingUser(c))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(clone)
}

// GetTemplates lists the built-in workflow templates.
func (h *APIHandlers) GetTemplates(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"templates": h.workflowService.Templates()})
}

// GetOverdue lists every in-flight step past its SLA budget.
func (h *APIHandlers) GetOverdue(c fiber.Ctx) error {
	overdue, err := h.engine.AuditLog().OverdueAssignments(c.Context())
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{"overdue": overdue, "count": len(overdue)})
}

// EscalateOverdue runs the escalation sweep on demand.
func (h *APIHandlers) EscalateOverdue(c fiber.Ctx) error {
	results, err := h.engine.EscalateOverdue(c.Context())
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{"escalations": results, "count": len(results)})
}

// GetDocumentLogs returns the audit history of one document.
func (h *APIHandlers) GetDocumentLogs(c fiber.Ctx) error {
	collection := c.Params("collection")
	documentID := c.Params("id")

	document, err := h.persistence.DocumentRepository().DocumentByID(c.Context(), collection, documentID)
	if err != nil {
		return handleEngineError(c, err)
	}

	if !document.HasWorkflow() {
		return c.JSON(fiber.Map{"logs": []*models.LogEntry{}, "count": 0})
	}

	wf, err := h.workflowService.FetchByID(c.Context(), document.Workflow)
	if err != nil {
		return handleServiceError(c, err)
	}

	logs, err := h.engine.AuditLog().DocumentHistory(c.Context(), wf, documentID)
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{"logs": logs, "count": len(logs)})
}

// CreateDocument stores a document and runs the lifecycle hook that may
// auto-assign the first applicable active workflow.
func (h *APIHandlers) CreateDocument(c fiber.Ctx) error {
	var req CreateDocumentRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	userID := h.actingUser(c)
	if userID == "" {
		return forbidden(c, "missing "+UserIDHeader+" header")
	}

	document := models.NewDocument(req.Collection, req.Title, userID, req.Fields)
	if err := h.persistence.DocumentRepository().SaveDocument(c.Context(), document); err != nil {
		return internalError(c, err)
	}

	assigned, err := h.engine.HandleDocumentCreated(c.Context(), document)
	if err != nil {
		return handleEngineError(c, err)
	}

	// Re-read so the response reflects the hook's writes.
	stored, err := h.persistence.DocumentRepository().DocumentByID(c.Context(), req.Collection, document.ID)
	if err != nil {
		return internalError(c, err)
	}

	response := fiber.Map{"document": stored}
	if assigned != nil {
		response["assigned_workflow"] = assigned.ID
	}

	return c.Status(fiber.StatusCreated).JSON(response)
}

// HealthCheck reports persistence health.
func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	message, healthy := h.workflowService.HealthCheck(c.Context())
	status := fiber.StatusOK

	if !healthy {
		status = fiber.StatusServiceUnavailable
	}

	return c.Status(status).JSON(fiber.Map{"status": message, "healthy": healthy})
}
