package notification

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/anilrana004/Workline/pkg/events"
)

// Message is a rendered notification ready for delivery.
type Message struct {
	To      []events.Recipient
	Subject string
	Body    string
}

// Sender delivers rendered messages. The default deployment only logs;
// wiring a real mail or chat transport is a Sender implementation away.
type Sender interface {
	Send(ctx context.Context, message *Message) error
}

// Render turns a workflow event into a human-readable message. It returns
// false for events that carry no recipients or that consumers do not
// notify on.
func Render(event any) (*Message, bool) {
	// Bus subscriptions deliver pointers; dispatch sites pass values.
	switch evt := event.(type) {
	case *events.WorkflowStarted:
		event = *evt
	case *events.StepAssigned:
		event = *evt
	case *events.WorkflowCompleted:
		event = *evt
	case *events.SLAEscalated:
		event = *evt
	}

	switch evt := event.(type) {
	case events.StepAssigned:
		if len(evt.Recipients) == 0 {
			return nil, false
		}

		return &Message{
			To:      evt.Recipients,
			Subject: fmt.Sprintf("Approval required: %s", titleOrID(evt.Document)),
			Body: fmt.Sprintf(
				"You have been assigned step %d (%s) of workflow %q for %s %q. Please review and take action.",
				evt.Step.StepNumber, evt.Step.StepName, evt.WorkflowName,
				evt.Document.Collection, titleOrID(evt.Document)),
		}, true
	case events.WorkflowCompleted:
		if len(evt.Recipients) == 0 {
			return nil, false
		}

		return &Message{
			To:      evt.Recipients,
			Subject: fmt.Sprintf("Workflow %s: %s", evt.FinalAction, titleOrID(evt.Document)),
			Body: fmt.Sprintf(
				"Workflow %q for %s %q has completed with final action %q.",
				evt.WorkflowName, evt.Document.Collection, titleOrID(evt.Document), evt.FinalAction),
		}, true
	case events.SLAEscalated:
		if len(evt.Recipients) == 0 {
			return nil, false
		}

		return &Message{
			To:      evt.Recipients,
			Subject: fmt.Sprintf("SLA overdue: %s", titleOrID(evt.Document)),
			Body: fmt.Sprintf(
				"Step %d (%s) of workflow %q for %s %q is %.1f hours past its SLA. Escalation action: %s.",
				evt.Step.StepNumber, evt.Step.StepName, evt.WorkflowName,
				evt.Document.Collection, titleOrID(evt.Document),
				evt.OverdueHours, escalationLabel(evt.EscalationAction)),
		}, true
	case events.WorkflowStarted:
		if len(evt.Recipients) == 0 {
			return nil, false
		}

		return &Message{
			To:      evt.Recipients,
			Subject: fmt.Sprintf("Workflow started: %s", titleOrID(evt.Document)),
			Body: fmt.Sprintf(
				"Workflow %q has started for %s %q.",
				evt.WorkflowName, evt.Document.Collection, titleOrID(evt.Document)),
		}, true
	default:
		return nil, false
	}
}

func titleOrID(doc events.DocumentContext) string {
	if doc.Title != "" {
		return doc.Title
	}

	return doc.ID
}

func escalationLabel(action string) string {
	if action == "" {
		return "notification"
	}

	return strings.ReplaceAll(action, "_", " ")
}

// LogSender writes messages to the structured log instead of delivering
// them. It stands in for a mail transport in development.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger.With("module", "notification_sender")}
}

func (s *LogSender) Send(ctx context.Context, message *Message) error {
	addresses := make([]string, 0, len(message.To))
	for _, recipient := range message.To {
		addresses = append(addresses, recipient.Email)
	}

	s.logger.InfoContext(ctx, "Notification",
		"to", strings.Join(addresses, ", "),
		"subject", message.Subject,
		"body", message.Body)

	return nil
}
