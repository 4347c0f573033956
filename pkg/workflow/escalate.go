package workflow

import (
	"context"

	"github.com/anilrana004/Workline/pkg/events"
	"github.com/anilrana004/Workline/pkg/models"
)

// EscalationResult reports what one escalation did.
type EscalationResult struct {
	Document     models.DocumentRef `json:"document"`
	StepNumber   int                `json:"step_number"`
	Action       string             `json:"action"`
	OverdueHours float64            `json:"overdue_hours"`
	Skipped      bool               `json:"skipped,omitempty"`
}

// EscalateOverdue sweeps every overdue assignment and applies each step's
// configured escalation action. Errors on individual documents are logged
// and the sweep continues.
func (e *Engine) EscalateOverdue(ctx context.Context) ([]*EscalationResult, error) {
	overdue, err := e.auditLog.OverdueAssignments(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]*EscalationResult, 0, len(overdue))

	for _, assignment := range overdue {
		result, err := e.Escalate(ctx, assignment)
		if err != nil {
			e.logger.ErrorContext(ctx, "Escalation failed",
				"workflow_id", assignment.Workflow.ID,
				"document_id", assignment.Document.ID,
				"step", assignment.Step.StepNumber,
				"error", err)

			continue
		}

		results = append(results, result)
	}

	return results, nil
}

// Escalate applies the step's escalation action to one overdue assignment.
// A step already escalated since its latest assignment is skipped, so
// repeated sweeps do not spam.
func (e *Engine) Escalate(ctx context.Context, overdue *OverdueAssignment) (*EscalationResult, error) {
	const op = "engine.escalate"

	document := overdue.Document
	wf := overdue.Workflow
	step := overdue.Step

	unlock := e.locks.lock(document.Collection + "/" + document.ID)
	defer unlock()

	escalated, err := e.alreadyEscalated(ctx, wf.ID, document.ID, step.StepNumber, overdue)
	if err != nil {
		return nil, newEngineError(op, document.Collection, document.ID, err)
	}

	result := &EscalationResult{
		Document:     documentRef(document),
		StepNumber:   step.StepNumber,
		Action:       escalationAction(step),
		OverdueHours: overdue.SLA.OverdueHours,
	}

	if escalated {
		result.Skipped = true

		return result, nil
	}

	if _, err := e.auditLog.Append(ctx, &models.LogEntry{
		WorkflowID: wf.ID,
		Document:   documentRef(document),
		Step:       stepRef(step),
		Action:     models.ActionEscalated,
		UserID:     models.SystemUser,
		Timestamp:  e.now(),
		Metadata: map[string]any{
			"escalation_action": result.Action,
			"overdue_hours":     overdue.SLA.OverdueHours,
		},
		SLAStatus: &overdue.SLA,
	}); err != nil {
		return nil, newEngineError(op, document.Collection, document.ID, err)
	}

	recipients, err := e.escalationRecipients(ctx, overdue)
	if err != nil {
		e.logger.WarnContext(ctx, "Failed to resolve escalation recipients",
			"workflow_id", wf.ID, "document_id", document.ID, "error", err)
	}

	e.dispatch(ctx, document.ID, events.SLAEscalated{
		BaseEvent:        events.NewBaseEvent(events.SLAEscalatedEvent, wf.ID),
		WorkflowName:     wf.Name,
		Document:         documentContext(document),
		Step:             stepContext(step),
		OverdueHours:     overdue.SLA.OverdueHours,
		EscalationAction: result.Action,
		Recipients:       recipients,
	})

	if result.Action == models.EscalationAutoApprove {
		if err := e.autoApprove(ctx, document, wf, step); err != nil {
			return nil, err
		}
	}

	return result, nil
}

// alreadyEscalated reports whether an escalated entry was logged for the
// step after its latest assignment.
func (e *Engine) alreadyEscalated(ctx context.Context, workflowID, documentID string, stepNumber int, overdue *OverdueAssignment) (bool, error) {
	entries, err := e.persistence.LogRepository().StepLogs(ctx, workflowID, documentID, stepNumber)
	if err != nil {
		return false, err
	}

	for _, entry := range entries {
		if entry.Action == models.ActionEscalated && !entry.Timestamp.Before(overdue.AssignedAt) {
			return true, nil
		}
	}

	return false, nil
}

// autoApprove resolves the stalled step on behalf of the system and
// advances the run. It does not go through permission validation.
func (e *Engine) autoApprove(ctx context.Context, document *models.Document, wf *models.Workflow, step *models.Step) error {
	const op = "engine.auto_approve"

	_, resolved, err := e.auditLog.StepResolved(ctx, wf.ID, document.ID, step.StepNumber)
	if err != nil {
		return newEngineError(op, document.Collection, document.ID, err)
	}

	if resolved {
		return nil
	}

	if _, err := e.auditLog.Append(ctx, &models.LogEntry{
		WorkflowID: wf.ID,
		Document:   documentRef(document),
		Step:       stepRef(step),
		Action:     models.ActionApproved,
		UserID:     models.SystemUser,
		Timestamp:  e.now(),
		Comment:    "Auto-approved after SLA breach",
	}); err != nil {
		return newEngineError(op, document.Collection, document.ID, err)
	}

	next := e.DetermineNextStep(wf, step, models.ActionApproved)
	if next == nil {
		return e.CompleteWorkflow(ctx, document, wf, models.ActionApproved)
	}

	return e.MoveToNextStep(ctx, document, wf, next)
}

// escalationRecipients picks who hears about the breach based on the
// step's escalation action.
func (e *Engine) escalationRecipients(ctx context.Context, overdue *OverdueAssignment) ([]events.Recipient, error) {
	switch escalationAction(overdue.Step) {
	case models.EscalationManager:
		return e.managersOf(ctx, overdue.Assignees)
	case models.EscalationDirector:
		users, err := e.persistence.UserRepository().UsersByRoles(ctx, []string{"director"})
		if err != nil {
			return nil, err
		}

		return events.RecipientsFromUsers(onlyActive(users)), nil
	default:
		users, err := e.resolver.activeByIDs(ctx, overdue.Assignees)
		if err != nil {
			return nil, err
		}

		return events.RecipientsFromUsers(users), nil
	}
}

func (e *Engine) managersOf(ctx context.Context, userIDs []string) ([]events.Recipient, error) {
	seen := make(map[string]bool)

	var managerIDs []string

	for _, id := range userIDs {
		user, err := e.persistence.UserRepository().UserByID(ctx, id)
		if err != nil || user.Manager == "" || seen[user.Manager] {
			continue
		}

		seen[user.Manager] = true
		managerIDs = append(managerIDs, user.Manager)
	}

	managers, err := e.resolver.activeByIDs(ctx, managerIDs)
	if err != nil {
		return nil, err
	}

	return events.RecipientsFromUsers(managers), nil
}

func escalationAction(step *models.Step) string {
	if step.SLA == nil || step.SLA.EscalationAction == "" {
		return models.EscalationNotification
	}

	return step.SLA.EscalationAction
}
