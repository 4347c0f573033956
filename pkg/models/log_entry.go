package models

import "time"

// LogAction is the kind of event recorded in the audit log.
type LogAction string

const (
	ActionStarted   LogAction = "started"
	ActionAssigned  LogAction = "assigned"
	ActionApproved  LogAction = "approved"
	ActionRejected  LogAction = "rejected"
	ActionCommented LogAction = "commented"
	ActionCompleted LogAction = "completed"
	ActionEscalated LogAction = "escalated"
	ActionSkipped   LogAction = "skipped"
)

// SystemUser is the sentinel actor recorded for engine-initiated events.
const SystemUser = "system"

// DocumentRef identifies the document a log entry belongs to.
type DocumentRef struct {
	Collection string `json:"collection"`
	ID         string `json:"id"`
	Title      string `json:"title,omitempty"`
}

// StepRef identifies the step a log entry belongs to.
type StepRef struct {
	StepNumber int      `json:"step_number"`
	StepName   string   `json:"step_name"`
	StepType   StepType `json:"step_type"`
}

// SLAStatus is the overdue computation attached to a log entry on read.
type SLAStatus struct {
	IsOverdue    bool    `json:"is_overdue"`
	OverdueHours float64 `json:"overdue_hours"`
}

// LogEntry is one immutable audit record: created once per workflow event,
// read many times, never updated or deleted. It is the system of record for
// what happened and when.
type LogEntry struct {
	ID         string         `json:"id"`
	WorkflowID string         `json:"workflow_id"`
	Document   DocumentRef    `json:"document"`
	Step       StepRef        `json:"step"`
	Action     LogAction      `json:"action"`
	UserID     string         `json:"user_id"`
	Timestamp  time.Time      `json:"timestamp"`
	Comment    string         `json:"comment,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	SLAStatus  *SLAStatus     `json:"sla_status,omitempty"`
}

// MetadataAssignees is the metadata key carrying the resolved assignee ids
// of an assigned entry. Assigned entries are written by the engine itself,
// so their UserID is the system sentinel and the real recipients live here.
const MetadataAssignees = "assignees"

// IsResolution reports whether the entry resolves its step. A step with an
// approved or rejected entry is treated as already processed.
func (e *LogEntry) IsResolution() bool {
	return e.Action == ActionApproved || e.Action == ActionRejected
}

// Assignees returns the assignee ids recorded in the entry metadata. The
// slice survives a JSON round trip as []any, so both shapes are handled.
// Entries without metadata fall back to the acting user, unless that is
// the system sentinel.
func (e *LogEntry) Assignees() []string {
	raw, ok := e.Metadata[MetadataAssignees]
	if !ok {
		if e.UserID != "" && e.UserID != SystemUser {
			return []string{e.UserID}
		}

		return nil
	}

	switch value := raw.(type) {
	case []string:
		return value
	case []any:
		ids := make([]string, 0, len(value))

		for _, v := range value {
			if id, ok := v.(string); ok {
				ids = append(ids, id)
			}
		}

		return ids
	}

	return nil
}

// AssignedTo reports whether the entry's assignee list contains the user.
func (e *LogEntry) AssignedTo(userID string) bool {
	for _, id := range e.Assignees() {
		if id == userID {
			return true
		}
	}

	return false
}
