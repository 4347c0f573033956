// Package workflow implements the document approval state machine: step
// transitions, condition gating, assignee resolution and the audit trail
// behind them.
package workflow

import (
	"context"
	"log/slog"
	"time"

	"github.com/anilrana004/Workline/pkg/eventbus"
	"github.com/anilrana004/Workline/pkg/events"
	"github.com/anilrana004/Workline/pkg/models"
	"github.com/anilrana004/Workline/pkg/notification"
	"github.com/anilrana004/Workline/pkg/persistence"
)

// Engine drives documents through their workflow. Each document moves
// UNASSIGNED -> ACTIVE(step) -> COMPLETED; every transition is recorded in
// the audit log before notifications are dispatched.
//
// Transitions on the same document are serialized by a per-document lock so
// the resolved-check, log append and status write never interleave.
type Engine struct {
	persistence persistence.Persistence
	evaluator   *models.ConditionEvaluator
	resolver    *AssigneeResolver
	auditLog    *AuditLog
	dispatcher  notification.Dispatcher
	logger      *slog.Logger
	locks       *keyedMutex
	now         func() time.Time
}

func NewEngine(store persistence.Persistence, dispatcher notification.Dispatcher, logger *slog.Logger) *Engine {
	evaluator := models.NewConditionEvaluator(logger)
	auditLog := NewAuditLog(store, logger)

	return &Engine{
		persistence: store,
		evaluator:   evaluator,
		resolver:    NewAssigneeResolver(store.UserRepository(), auditLog, evaluator, logger),
		auditLog:    auditLog,
		dispatcher:  dispatcher,
		logger:      logger.With("module", "workflow_engine"),
		locks:       newKeyedMutex(),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// AuditLog exposes the engine's audit log for read-only consumers.
func (e *Engine) AuditLog() *AuditLog {
	return e.auditLog
}

// Resolver exposes assignee resolution for read-only consumers.
func (e *Engine) Resolver() *AssigneeResolver {
	return e.resolver
}

// TriggerInput is one inbound workflow action.
type TriggerInput struct {
	Collection string
	DocumentID string
	WorkflowID string
	Action     models.LogAction
	UserID     string
	Comment    string
}

// TriggerResult reports the state after an action was applied.
type TriggerResult struct {
	LogID           string       `json:"log_id,omitempty"`
	NewStep         *models.Step `json:"new_step,omitempty"`
	IsCompleted     bool         `json:"is_completed"`
	AlreadyResolved bool         `json:"already_resolved,omitempty"`
}

// TriggerAction applies a user action to a document's current workflow
// step: permission check, audit log append, then transition or completion.
// The whole sequence runs under the document's lock; a second concurrent
// action on the same step observes the first one's resolution and becomes
// a no-op.
func (e *Engine) TriggerAction(ctx context.Context, input TriggerInput) (*TriggerResult, error) {
	const op = "engine.trigger_action"

	if input.Action != models.ActionApproved && input.Action != models.ActionRejected && input.Action != models.ActionCommented {
		return nil, newEngineError(op, input.Collection, input.DocumentID, ErrInvalidAction)
	}

	unlock := e.locks.lock(input.Collection + "/" + input.DocumentID)
	defer unlock()

	document, err := e.persistence.DocumentRepository().DocumentByID(ctx, input.Collection, input.DocumentID)
	if err != nil {
		return nil, newEngineError(op, input.Collection, input.DocumentID, err)
	}

	wf, err := e.persistence.WorkflowRepository().WorkflowByID(ctx, input.WorkflowID)
	if err != nil {
		return nil, newEngineError(op, input.Collection, input.DocumentID, err)
	}

	// Deactivation does not halt in-flight documents, but new actions are
	// rejected here at the boundary.
	if !wf.IsActive {
		return nil, newEngineError(op, input.Collection, input.DocumentID, ErrWorkflowInactive)
	}

	if document.WorkflowStatus != nil && document.WorkflowStatus.IsCompleted {
		return nil, newEngineError(op, input.Collection, input.DocumentID, ErrWorkflowCompleted)
	}

	step := wf.StepByNumber(document.CurrentStepNumber())
	if step == nil {
		// A stale or missing status restarts the run from step one.
		if err := e.StartWorkflow(ctx, document, wf); err != nil {
			return nil, err
		}

		step = wf.StepByNumber(1)
		if step == nil {
			return nil, newEngineError(op, input.Collection, input.DocumentID, ErrStepNotFound)
		}
	}

	if entry, resolved, err := e.auditLog.StepResolved(ctx, wf.ID, document.ID, step.StepNumber); err != nil {
		return nil, newEngineError(op, input.Collection, input.DocumentID, err)
	} else if resolved && input.Action != models.ActionCommented {
		return &TriggerResult{
			LogID:           entry.ID,
			NewStep:         step,
			IsCompleted:     document.WorkflowStatus != nil && document.WorkflowStatus.IsCompleted,
			AlreadyResolved: true,
		}, nil
	}

	// Fail closed: nothing is written until the actor is confirmed to be
	// an assignee of the current step.
	if err := e.ValidateActionPermissions(ctx, input.UserID, wf, step, document); err != nil {
		return nil, newEngineError(op, input.Collection, input.DocumentID, err)
	}

	if step.RequireComments && input.Comment == "" && input.Action != models.ActionCommented {
		return nil, newEngineError(op, input.Collection, input.DocumentID, ErrCommentRequired)
	}

	logID, err := e.auditLog.Append(ctx, &models.LogEntry{
		WorkflowID: wf.ID,
		Document:   documentRef(document),
		Step:       stepRef(step),
		Action:     input.Action,
		UserID:     input.UserID,
		Timestamp:  e.now(),
		Comment:    input.Comment,
	})
	if err != nil {
		return nil, newEngineError(op, input.Collection, input.DocumentID, err)
	}

	e.dispatchActionLogged(ctx, wf, document, step, input)

	if input.Action == models.ActionCommented {
		return &TriggerResult{LogID: logID, NewStep: step, IsCompleted: false}, nil
	}

	next := e.DetermineNextStep(wf, step, input.Action)
	if next == nil {
		if err := e.CompleteWorkflow(ctx, document, wf, input.Action); err != nil {
			return nil, err
		}

		return &TriggerResult{LogID: logID, IsCompleted: true}, nil
	}

	if err := e.MoveToNextStep(ctx, document, wf, next); err != nil {
		return nil, err
	}

	return &TriggerResult{LogID: logID, NewStep: next, IsCompleted: false}, nil
}

// StartWorkflow begins a run at step one. The caller is responsible for
// checking the document was not already started; a second start re-logs a
// started event.
func (e *Engine) StartWorkflow(ctx context.Context, document *models.Document, wf *models.Workflow) error {
	const op = "engine.start_workflow"

	if !wf.IsActive {
		return newEngineError(op, document.Collection, document.ID, ErrWorkflowInactive)
	}

	// Resolve step 1 before touching the document so a stepless
	// definition fails without leaving a half-started run behind.
	first := wf.StepByNumber(1)
	if first == nil {
		return newEngineError(op, document.Collection, document.ID, ErrStepNotFound)
	}

	started := e.now()
	document.Workflow = wf.ID
	document.WorkflowStatus = &models.WorkflowStatus{
		CurrentStep: 1,
		IsCompleted: false,
		LastUpdated: started,
		StartedAt:   &started,
	}
	document.UpdatedAt = started

	if err := e.persistence.DocumentRepository().SaveDocument(ctx, document); err != nil {
		return newEngineError(op, document.Collection, document.ID, err)
	}

	if _, err := e.auditLog.Append(ctx, &models.LogEntry{
		WorkflowID: wf.ID,
		Document:   documentRef(document),
		Step:       stepRef(first),
		Action:     models.ActionStarted,
		UserID:     models.SystemUser,
		Timestamp:  started,
	}); err != nil {
		return newEngineError(op, document.Collection, document.ID, err)
	}

	e.dispatch(ctx, document.ID, events.WorkflowStarted{
		BaseEvent:    events.NewBaseEvent(events.WorkflowStartedEvent, wf.ID),
		WorkflowName: wf.Name,
		Document:     documentContext(document),
	})

	return e.ProcessStep(ctx, document, wf, first)
}

// ProcessStep assigns a step. Already-resolved steps are a no-op; a step
// whose gating conditions fail against the document is skipped and the run
// advances. An empty assignee set still produces an assigned entry, which
// surfaces the stalled step in the audit log.
func (e *Engine) ProcessStep(ctx context.Context, document *models.Document, wf *models.Workflow, step *models.Step) error {
	const op = "engine.process_step"

	_, resolved, err := e.auditLog.StepResolved(ctx, wf.ID, document.ID, step.StepNumber)
	if err != nil {
		return newEngineError(op, document.Collection, document.ID, err)
	}

	if resolved {
		return nil
	}

	if !e.evaluator.EvaluateAll(step.Conditions, document) {
		return e.skipStep(ctx, document, wf, step)
	}

	assignees, err := e.resolver.Resolve(ctx, wf, step, document)
	if err != nil {
		return newEngineError(op, document.Collection, document.ID, err)
	}

	if len(assignees) == 0 {
		e.logger.WarnContext(ctx, "Step assigned with no resolvable assignees",
			"workflow_id", wf.ID, "document_id", document.ID, "step", step.StepNumber)
	}

	if _, err := e.auditLog.Append(ctx, &models.LogEntry{
		WorkflowID: wf.ID,
		Document:   documentRef(document),
		Step:       stepRef(step),
		Action:     models.ActionAssigned,
		UserID:     models.SystemUser,
		Timestamp:  e.now(),
		Metadata:   map[string]any{models.MetadataAssignees: UserIDs(assignees)},
	}); err != nil {
		return newEngineError(op, document.Collection, document.ID, err)
	}

	e.dispatch(ctx, document.ID, events.StepAssigned{
		BaseEvent:    events.NewBaseEvent(events.StepAssignedEvent, wf.ID),
		WorkflowName: wf.Name,
		Document:     documentContext(document),
		Step:         stepContext(step),
		Recipients:   events.RecipientsFromUsers(assignees),
	})

	return nil
}

// skipStep records a skipped entry for a non-applicable step and advances
// as if the step had been approved.
func (e *Engine) skipStep(ctx context.Context, document *models.Document, wf *models.Workflow, step *models.Step) error {
	const op = "engine.skip_step"

	if _, err := e.auditLog.Append(ctx, &models.LogEntry{
		WorkflowID: wf.ID,
		Document:   documentRef(document),
		Step:       stepRef(step),
		Action:     models.ActionSkipped,
		UserID:     models.SystemUser,
		Timestamp:  e.now(),
	}); err != nil {
		return newEngineError(op, document.Collection, document.ID, err)
	}

	next := e.DetermineNextStep(wf, step, models.ActionApproved)
	if next == nil {
		return e.CompleteWorkflow(ctx, document, wf, models.ActionSkipped)
	}

	return e.MoveToNextStep(ctx, document, wf, next)
}

// DetermineNextStep picks the step that follows an action. Explicit next
// step rules are evaluated in declaration order; the first whose condition
// equals the action, or is "always", wins. Without a matching rule only an
// approval advances, to the next step number; any other action ends the
// run. Rules pointing at a missing step number fall through to the next
// rule.
func (e *Engine) DetermineNextStep(wf *models.Workflow, current *models.Step, action models.LogAction) *models.Step {
	for _, rule := range current.NextSteps {
		if rule.Condition != string(action) && rule.Condition != models.NextStepAlways {
			continue
		}

		if target := wf.StepByNumber(rule.NextStepNumber); target != nil {
			return target
		}

		e.logger.Warn("Next step rule targets missing step",
			"workflow_id", wf.ID, "step", current.StepNumber, "target", rule.NextStepNumber)
	}

	if action == models.ActionApproved {
		return wf.StepByNumber(current.StepNumber + 1)
	}

	return nil
}

// MoveToNextStep advances the document's status and assigns the new step.
func (e *Engine) MoveToNextStep(ctx context.Context, document *models.Document, wf *models.Workflow, next *models.Step) error {
	const op = "engine.move_to_next_step"

	now := e.now()
	status := document.WorkflowStatus

	if status == nil {
		status = &models.WorkflowStatus{StartedAt: &now}
		document.WorkflowStatus = status
	}

	status.CurrentStep = next.StepNumber
	status.IsCompleted = false
	status.LastUpdated = now
	document.UpdatedAt = now

	if err := e.persistence.DocumentRepository().SaveDocument(ctx, document); err != nil {
		return newEngineError(op, document.Collection, document.ID, err)
	}

	return e.ProcessStep(ctx, document, wf, next)
}

// CompleteWorkflow ends the run and notifies the document author and the
// workflow creator, de-duplicated when they are the same identity.
func (e *Engine) CompleteWorkflow(ctx context.Context, document *models.Document, wf *models.Workflow, finalAction models.LogAction) error {
	const op = "engine.complete_workflow"

	now := e.now()
	status := document.WorkflowStatus

	if status == nil {
		status = &models.WorkflowStatus{StartedAt: &now}
		document.WorkflowStatus = status
	}

	status.CurrentStep = len(wf.Steps)
	status.IsCompleted = true
	status.LastUpdated = now
	status.CompletedAt = &now
	document.UpdatedAt = now

	if err := e.persistence.DocumentRepository().SaveDocument(ctx, document); err != nil {
		return newEngineError(op, document.Collection, document.ID, err)
	}

	if _, err := e.auditLog.Append(ctx, &models.LogEntry{
		WorkflowID: wf.ID,
		Document:   documentRef(document),
		Step:       models.StepRef{StepNumber: status.CurrentStep, StepName: "Completed"},
		Action:     models.ActionCompleted,
		UserID:     models.SystemUser,
		Timestamp:  now,
		Metadata:   map[string]any{"final_action": string(finalAction)},
	}); err != nil {
		return newEngineError(op, document.Collection, document.ID, err)
	}

	recipients, err := e.completionRecipients(ctx, document, wf)
	if err != nil {
		e.logger.WarnContext(ctx, "Failed to resolve completion recipients",
			"workflow_id", wf.ID, "document_id", document.ID, "error", err)
	}

	e.dispatch(ctx, document.ID, events.WorkflowCompleted{
		BaseEvent:    events.NewBaseEvent(events.WorkflowCompletedEvent, wf.ID),
		WorkflowName: wf.Name,
		Document:     documentContext(document),
		FinalAction:  string(finalAction),
		Recipients:   recipients,
	})

	return nil
}

func (e *Engine) completionRecipients(ctx context.Context, document *models.Document, wf *models.Workflow) ([]events.Recipient, error) {
	seen := make(map[string]bool, 2)

	var users []*models.User

	for _, id := range []string{document.CreatedBy, wf.CreatedBy} {
		if id == "" || id == models.SystemUser || seen[id] {
			continue
		}

		seen[id] = true

		user, err := e.persistence.UserRepository().UserByID(ctx, id)
		if err != nil {
			if persistence.IsUserNotFound(err) {
				continue
			}

			return nil, err
		}

		if user.IsActive {
			users = append(users, user)
		}
	}

	return events.RecipientsFromUsers(users), nil
}

// ValidateActionPermissions confirms the actor belongs to the step's
// resolved assignee set. It fails closed: resolution errors deny.
func (e *Engine) ValidateActionPermissions(ctx context.Context, userID string, wf *models.Workflow, step *models.Step, document *models.Document) error {
	if userID == "" {
		return ErrPermissionDenied
	}

	assignees, err := e.resolver.Resolve(ctx, wf, step, document)
	if err != nil {
		e.logger.WarnContext(ctx, "Assignee resolution failed during permission check",
			"workflow_id", wf.ID, "document_id", document.ID, "step", step.StepNumber, "error", err)

		return ErrPermissionDenied
	}

	if !IsAssignee(assignees, userID) {
		return ErrPermissionDenied
	}

	return nil
}

// AssignWorkflow attaches a workflow to a document, optionally starting it
// immediately. A document with an in-flight run cannot be reassigned.
func (e *Engine) AssignWorkflow(ctx context.Context, collection, documentID, workflowID string, autoStart bool) (*models.Document, error) {
	const op = "engine.assign_workflow"

	unlock := e.locks.lock(collection + "/" + documentID)
	defer unlock()

	document, err := e.persistence.DocumentRepository().DocumentByID(ctx, collection, documentID)
	if err != nil {
		return nil, newEngineError(op, collection, documentID, err)
	}

	if document.HasWorkflow() && document.WorkflowStatus != nil && !document.WorkflowStatus.IsCompleted {
		return nil, newEngineError(op, collection, documentID, ErrAlreadyAssigned)
	}

	wf, err := e.persistence.WorkflowRepository().WorkflowByID(ctx, workflowID)
	if err != nil {
		return nil, newEngineError(op, collection, documentID, err)
	}

	if !wf.IsActive {
		return nil, newEngineError(op, collection, documentID, ErrWorkflowInactive)
	}

	if !wf.AppliesTo(collection) {
		return nil, newEngineError(op, collection, documentID, ErrWorkflowNotApplicable)
	}

	if autoStart {
		if err := e.StartWorkflow(ctx, document, wf); err != nil {
			return nil, err
		}

		return document, nil
	}

	document.Workflow = wf.ID
	document.WorkflowStatus = nil
	document.UpdatedAt = e.now()

	if err := e.persistence.DocumentRepository().SaveDocument(ctx, document); err != nil {
		return nil, newEngineError(op, collection, documentID, err)
	}

	return document, nil
}

// StatusSnapshot is the read model for a document's workflow progress.
type StatusSnapshot struct {
	Document    *models.Document   `json:"document"`
	Workflow    *models.Workflow   `json:"workflow,omitempty"`
	CurrentStep *models.Step       `json:"current_step,omitempty"`
	IsCompleted bool               `json:"is_completed"`
	History     []*models.LogEntry `json:"history"`
	SLA         *models.SLAStatus  `json:"sla,omitempty"`
}

// Status returns the document's workflow progress with full history and
// on-demand SLA state for the current step.
func (e *Engine) Status(ctx context.Context, collection, documentID string) (*StatusSnapshot, error) {
	const op = "engine.status"

	document, err := e.persistence.DocumentRepository().DocumentByID(ctx, collection, documentID)
	if err != nil {
		return nil, newEngineError(op, collection, documentID, err)
	}

	snapshot := &StatusSnapshot{Document: document, History: []*models.LogEntry{}}

	if !document.HasWorkflow() {
		return snapshot, nil
	}

	wf, err := e.persistence.WorkflowRepository().WorkflowByID(ctx, document.Workflow)
	if err != nil {
		return nil, newEngineError(op, collection, documentID, err)
	}

	snapshot.Workflow = wf
	snapshot.IsCompleted = document.WorkflowStatus != nil && document.WorkflowStatus.IsCompleted

	history, err := e.auditLog.DocumentHistory(ctx, wf, document.ID)
	if err != nil {
		return nil, newEngineError(op, collection, documentID, err)
	}

	snapshot.History = history

	if snapshot.IsCompleted {
		return snapshot, nil
	}

	step := wf.StepByNumber(document.CurrentStepNumber())
	if step == nil {
		return snapshot, nil
	}

	snapshot.CurrentStep = step

	assignment, err := e.auditLog.LatestAssignment(ctx, wf.ID, document.ID, step.StepNumber)
	if err != nil {
		return nil, newEngineError(op, collection, documentID, err)
	}

	if assignment != nil {
		status := e.auditLog.ComputeOverdue(step.SLA, assignment.Timestamp, e.now())
		snapshot.SLA = &status
	}

	return snapshot, nil
}

func (e *Engine) dispatchActionLogged(ctx context.Context, wf *models.Workflow, document *models.Document, step *models.Step, input TriggerInput) {
	e.dispatch(ctx, document.ID, events.ActionLogged{
		BaseEvent: events.NewBaseEvent(events.ActionLoggedEvent, wf.ID),
		Document:  documentContext(document),
		Step:      stepContext(step),
		Action:    string(input.Action),
		UserID:    input.UserID,
		Comment:   input.Comment,
	})
}

// dispatch publishes best effort. Delivery failures never roll back or
// block a committed transition.
func (e *Engine) dispatch(ctx context.Context, key string, event eventbus.Event) {
	if e.dispatcher == nil {
		return
	}

	if err := e.dispatcher.Dispatch(ctx, key, event); err != nil {
		e.logger.WarnContext(ctx, "Notification dispatch failed",
			"event_type", string(event.GetType()), "key", key, "error", err)
	}
}

func documentRef(document *models.Document) models.DocumentRef {
	return models.DocumentRef{
		Collection: document.Collection,
		ID:         document.ID,
		Title:      document.DisplayTitle(),
	}
}

func documentContext(document *models.Document) events.DocumentContext {
	return events.DocumentContext{
		Collection: document.Collection,
		ID:         document.ID,
		Title:      document.DisplayTitle(),
	}
}

func stepRef(step *models.Step) models.StepRef {
	return models.StepRef{
		StepNumber: step.StepNumber,
		StepName:   step.Name,
		StepType:   step.StepType,
	}
}

func stepContext(step *models.Step) events.StepContext {
	return events.StepContext{
		StepNumber: step.StepNumber,
		StepName:   step.Name,
		StepType:   string(step.StepType),
	}
}
