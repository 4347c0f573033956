// Package persistence provides the data storage abstraction for workflows,
// documents, users and the audit log.
package persistence

import (
	"context"

	"github.com/anilrana004/Workline/pkg/models"
)

// WorkflowRepository stores workflow definitions.
type WorkflowRepository interface {
	Workflows(ctx context.Context) ([]*models.Workflow, error)
	WorkflowByID(ctx context.Context, id string) (*models.Workflow, error)
	SaveWorkflow(ctx context.Context, workflow *models.Workflow) error
	DeleteWorkflow(ctx context.Context, id string) error
}

// DocumentRepository stores CMS documents, keyed by collection and id.
type DocumentRepository interface {
	DocumentByID(ctx context.Context, collection, id string) (*models.Document, error)
	SaveDocument(ctx context.Context, document *models.Document) error
	DocumentsByCollection(ctx context.Context, collection string) ([]*models.Document, error)
	Collections(ctx context.Context) ([]string, error)
}

// UserRepository is the user directory the assignee resolver queries.
type UserRepository interface {
	UserByID(ctx context.Context, id string) (*models.User, error)
	UsersByRoles(ctx context.Context, roles []string) ([]*models.User, error)
	UsersByDepartments(ctx context.Context, departments []string) ([]*models.User, error)
	SaveUser(ctx context.Context, user *models.User) error
}

// LogRepository is the append-only audit log. There is deliberately no update
// or delete operation: entries are immutable once appended.
type LogRepository interface {
	Append(ctx context.Context, entry *models.LogEntry) (string, error)

	// StepLogs and DocumentLogs return entries ordered by timestamp ascending.
	StepLogs(ctx context.Context, workflowID, documentID string, stepNumber int) ([]*models.LogEntry, error)
	DocumentLogs(ctx context.Context, workflowID, documentID string) ([]*models.LogEntry, error)

	// WorkflowLogs and UserLogs return the most recent entries first.
	WorkflowLogs(ctx context.Context, workflowID string, limit int) ([]*models.LogEntry, error)
	UserLogs(ctx context.Context, userID string, limit int) ([]*models.LogEntry, error)

	// PendingAssignments returns assigned entries addressed to the user,
	// most recent first.
	PendingAssignments(ctx context.Context, userID string) ([]*models.LogEntry, error)
}

// Persistence aggregates the repositories behind a single backend.
type Persistence interface {
	WorkflowRepository() WorkflowRepository
	DocumentRepository() DocumentRepository
	UserRepository() UserRepository
	LogRepository() LogRepository

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}
