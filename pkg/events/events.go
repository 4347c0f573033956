// Package events defines the event types published on the workflow event bus.
package events

import (
	"time"

	"github.com/anilrana004/Workline/pkg/models"
	"github.com/google/uuid"
)

type EventType string

// Topic carries every workflow event.
const Topic = "workline.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	WorkflowStartedEvent   EventType = "workflow.started"
	StepAssignedEvent      EventType = "workflow.step.assigned"
	ActionLoggedEvent      EventType = "workflow.action.logged"
	WorkflowCompletedEvent EventType = "workflow.completed"
	SLAEscalatedEvent      EventType = "workflow.sla.escalated"
)

type BaseEvent struct {
	ID         string         `json:"id"`
	Type       EventType      `json:"type"`
	Timestamp  time.Time      `json:"timestamp"`
	WorkflowID string         `json:"workflow_id"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// Recipient is a resolved notification target carried on the event so
// downstream consumers never need the user directory.
type Recipient struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// DocumentContext identifies the document an event concerns.
type DocumentContext struct {
	Collection string `json:"collection"`
	ID         string `json:"id"`
	Title      string `json:"title,omitempty"`
}

// StepContext identifies the step an event concerns.
type StepContext struct {
	StepNumber int    `json:"step_number"`
	StepName   string `json:"step_name"`
	StepType   string `json:"step_type"`
}

type WorkflowStarted struct {
	BaseEvent

	WorkflowName string          `json:"workflow_name"`
	Document     DocumentContext `json:"document"`
	Recipients   []Recipient     `json:"recipients,omitempty"`
}

func (e WorkflowStarted) GetType() EventType {
	return WorkflowStartedEvent
}

type StepAssigned struct {
	BaseEvent

	WorkflowName string          `json:"workflow_name"`
	Document     DocumentContext `json:"document"`
	Step         StepContext     `json:"step"`
	Recipients   []Recipient     `json:"recipients"`
}

func (e StepAssigned) GetType() EventType {
	return StepAssignedEvent
}

type ActionLogged struct {
	BaseEvent

	Document DocumentContext `json:"document"`
	Step     StepContext     `json:"step"`
	Action   string          `json:"action"`
	UserID   string          `json:"user_id"`
	Comment  string          `json:"comment,omitempty"`
}

func (e ActionLogged) GetType() EventType {
	return ActionLoggedEvent
}

type WorkflowCompleted struct {
	BaseEvent

	WorkflowName string          `json:"workflow_name"`
	Document     DocumentContext `json:"document"`
	FinalAction  string          `json:"final_action"`
	Recipients   []Recipient     `json:"recipients"`
}

func (e WorkflowCompleted) GetType() EventType {
	return WorkflowCompletedEvent
}

type SLAEscalated struct {
	BaseEvent

	WorkflowName     string          `json:"workflow_name"`
	Document         DocumentContext `json:"document"`
	Step             StepContext     `json:"step"`
	OverdueHours     float64         `json:"overdue_hours"`
	EscalationAction string          `json:"escalation_action,omitempty"`
	Recipients       []Recipient     `json:"recipients"`
}

func (e SLAEscalated) GetType() EventType {
	return SLAEscalatedEvent
}

// NewBaseEvent creates the common event envelope.
func NewBaseEvent(eventType EventType, workflowID string) BaseEvent {
	return BaseEvent{
		ID:         uuid.New().String(),
		Type:       eventType,
		Timestamp:  time.Now().UTC(),
		WorkflowID: workflowID,
	}
}

// RecipientsFromUsers converts directory users to event recipients.
func RecipientsFromUsers(users []*models.User) []Recipient {
	recipients := make([]Recipient, 0, len(users))

	for _, user := range users {
		recipients = append(recipients, Recipient{
			ID:    user.ID,
			Name:  user.Name,
			Email: user.Email,
		})
	}

	return recipients
}
