package workflow

import (
	"context"
	"log/slog"
	"time"

	"github.com/anilrana004/Workline/pkg/models"
	"github.com/anilrana004/Workline/pkg/persistence"
)

// AuditLog wraps the append-only log repository with the workflow-level
// reads the engine needs: step resolution checks, history views and SLA
// overdue computation.
type AuditLog struct {
	persistence persistence.Persistence
	logger      *slog.Logger
	now         func() time.Time
}

func NewAuditLog(store persistence.Persistence, logger *slog.Logger) *AuditLog {
	return &AuditLog{
		persistence: store,
		logger:      logger.With("module", "audit_log"),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Append records one workflow event. Entries are immutable once written.
func (a *AuditLog) Append(ctx context.Context, entry *models.LogEntry) (string, error) {
	id, err := a.persistence.LogRepository().Append(ctx, entry)
	if err != nil {
		return "", err
	}

	a.logger.InfoContext(ctx, "Audit entry recorded",
		"action", string(entry.Action),
		"workflow_id", entry.WorkflowID,
		"collection", entry.Document.Collection,
		"document_id", entry.Document.ID,
		"step", entry.Step.StepNumber,
		"user_id", entry.UserID)

	return id, nil
}

// StepResolved reports whether the step already carries an approved or
// rejected entry, and returns that entry when it does.
func (a *AuditLog) StepResolved(ctx context.Context, workflowID, documentID string, stepNumber int) (*models.LogEntry, bool, error) {
	entries, err := a.persistence.LogRepository().StepLogs(ctx, workflowID, documentID, stepNumber)
	if err != nil {
		return nil, false, err
	}

	for _, entry := range entries {
		if entry.IsResolution() {
			return entry, true, nil
		}
	}

	return nil, false, nil
}

// LatestAssignment returns the most recent assigned entry for the step,
// or nil when the step was never assigned.
func (a *AuditLog) LatestAssignment(ctx context.Context, workflowID, documentID string, stepNumber int) (*models.LogEntry, error) {
	entries, err := a.persistence.LogRepository().StepLogs(ctx, workflowID, documentID, stepNumber)
	if err != nil {
		return nil, err
	}

	var latest *models.LogEntry

	for _, entry := range entries {
		if entry.Action == models.ActionAssigned {
			latest = entry
		}
	}

	return latest, nil
}

// DocumentHistory returns the full ordered history of a document's
// workflow, oldest first, with SLA status attached to assigned entries.
func (a *AuditLog) DocumentHistory(ctx context.Context, workflow *models.Workflow, documentID string) ([]*models.LogEntry, error) {
	entries, err := a.persistence.LogRepository().DocumentLogs(ctx, workflow.ID, documentID)
	if err != nil {
		return nil, err
	}

	now := a.now()

	for _, entry := range entries {
		if entry.Action != models.ActionAssigned {
			continue
		}

		step := workflow.StepByNumber(entry.Step.StepNumber)
		if step == nil {
			continue
		}

		status := a.ComputeOverdue(step.SLA, entry.Timestamp, now)
		entry.SLAStatus = &status
	}

	return entries, nil
}

// ComputeOverdue measures elapsed time since assignment against the step's
// SLA budget. With BusinessHours set only Mon-Fri 09:00-17:00 UTC counts;
// otherwise elapsed is wall-clock. A disabled or zero-hour SLA is never
// overdue.
func (a *AuditLog) ComputeOverdue(sla *models.SLA, assignedAt, now time.Time) models.SLAStatus {
	if sla == nil || !sla.Enabled || sla.Hours <= 0 {
		return models.SLAStatus{}
	}

	var elapsed float64
	if sla.BusinessHours {
		elapsed = businessHoursBetween(assignedAt, now)
	} else {
		elapsed = now.Sub(assignedAt).Hours()
	}

	budget := float64(sla.Hours)
	if elapsed <= budget {
		return models.SLAStatus{}
	}

	return models.SLAStatus{IsOverdue: true, OverdueHours: elapsed - budget}
}

// OverdueAssignment is one in-flight step that has breached its SLA.
type OverdueAssignment struct {
	Document   *models.Document `json:"document"`
	Workflow   *models.Workflow `json:"workflow"`
	Step       *models.Step     `json:"step"`
	AssignedAt time.Time        `json:"assigned_at"`
	Assignees  []string         `json:"assignees"`
	SLA        models.SLAStatus `json:"sla"`
}

// OverdueAssignments scans every in-flight document and returns the ones
// whose current step is past its SLA budget. Overdue state is computed on
// demand here, never stored.
func (a *AuditLog) OverdueAssignments(ctx context.Context) ([]*OverdueAssignment, error) {
	workflows, err := a.persistence.WorkflowRepository().Workflows(ctx)
	if err != nil {
		return nil, err
	}

	workflowsByID := make(map[string]*models.Workflow, len(workflows))
	for _, wf := range workflows {
		workflowsByID[wf.ID] = wf
	}

	collections, err := a.persistence.DocumentRepository().Collections(ctx)
	if err != nil {
		return nil, err
	}

	now := a.now()

	var overdue []*OverdueAssignment

	for _, collection := range collections {
		documents, err := a.persistence.DocumentRepository().DocumentsByCollection(ctx, collection)
		if err != nil {
			return nil, err
		}

		for _, document := range documents {
			if !document.HasWorkflow() || document.WorkflowStatus == nil || document.WorkflowStatus.IsCompleted {
				continue
			}

			wf, ok := workflowsByID[document.Workflow]
			if !ok {
				a.logger.WarnContext(ctx, "Document references unknown workflow",
					"collection", collection, "document_id", document.ID, "workflow_id", document.Workflow)

				continue
			}

			step := wf.StepByNumber(document.WorkflowStatus.CurrentStep)
			if step == nil || step.SLA == nil || !step.SLA.Enabled {
				continue
			}

			assignment, err := a.LatestAssignment(ctx, wf.ID, document.ID, step.StepNumber)
			if err != nil {
				return nil, err
			}

			if assignment == nil {
				continue
			}

			status := a.ComputeOverdue(step.SLA, assignment.Timestamp, now)
			if !status.IsOverdue {
				continue
			}

			overdue = append(overdue, &OverdueAssignment{
				Document:   document,
				Workflow:   wf,
				Step:       step,
				AssignedAt: assignment.Timestamp,
				Assignees:  assignment.Assignees(),
				SLA:        status,
			})
		}
	}

	return overdue, nil
}

const (
	businessDayOpen  = 9
	businessDayClose = 17
)

// businessHoursBetween sums the Mon-Fri 09:00-17:00 UTC overlap of the
// interval, in hours.
func businessHoursBetween(from, to time.Time) float64 {
	from = from.UTC()
	to = to.UTC()

	if !to.After(from) {
		return 0
	}

	total := 0.0
	day := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)

	for day.Before(to) {
		if weekday := day.Weekday(); weekday != time.Saturday && weekday != time.Sunday {
			open := day.Add(businessDayOpen * time.Hour)
			close := day.Add(businessDayClose * time.Hour)

			start := open
			if from.After(start) {
				start = from
			}

			end := close
			if to.Before(end) {
				end = to
			}

			if end.After(start) {
				total += end.Sub(start).Hours()
			}
		}

		day = day.AddDate(0, 0, 1)
	}

	return total
}
