package file

import (
	"context"
	"path/filepath"
	"sort"
	"time"

	"github.com/anilrana004/Workline/pkg/models"
	"github.com/anilrana004/Workline/pkg/persistence"
	"github.com/google/uuid"
)

// LogRepository stores audit entries under root/logs, one file per entry.
// The package exposes no update or delete path: once written, an entry is
// immutable.
type LogRepository struct {
	root string
}

func (lr *LogRepository) dir() string {
	return filepath.Join(lr.root, "logs")
}

func (lr *LogRepository) path(id string) string {
	return filepath.Join(lr.dir(), id+".json")
}

// Append persists the entry and returns its id. An empty id or timestamp is
// filled in here so callers can stay oblivious.
func (lr *LogRepository) Append(_ context.Context, entry *models.LogEntry) (string, error) {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}

	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	if err := writeJSON(lr.path(entry.ID), entry); err != nil {
		return "", persistence.NewStoreError("Append", entry.ID, err)
	}

	return entry.ID, nil
}

func (lr *LogRepository) StepLogs(ctx context.Context, workflowID, documentID string, stepNumber int) ([]*models.LogEntry, error) {
	return lr.query(ctx, func(entry *models.LogEntry) bool {
		return entry.WorkflowID == workflowID &&
			entry.Document.ID == documentID &&
			entry.Step.StepNumber == stepNumber
	}, ascending, 0)
}

func (lr *LogRepository) DocumentLogs(ctx context.Context, workflowID, documentID string) ([]*models.LogEntry, error) {
	return lr.query(ctx, func(entry *models.LogEntry) bool {
		return entry.WorkflowID == workflowID && entry.Document.ID == documentID
	}, ascending, 0)
}

func (lr *LogRepository) WorkflowLogs(ctx context.Context, workflowID string, limit int) ([]*models.LogEntry, error) {
	return lr.query(ctx, func(entry *models.LogEntry) bool {
		return entry.WorkflowID == workflowID
	}, descending, limit)
}

func (lr *LogRepository) UserLogs(ctx context.Context, userID string, limit int) ([]*models.LogEntry, error) {
	return lr.query(ctx, func(entry *models.LogEntry) bool {
		return entry.UserID == userID
	}, descending, limit)
}

// PendingAssignments returns assigned entries addressed to the user.
// Assigned entries are recorded by the engine under the system actor, so
// the match runs against the assignee list in the entry metadata. The
// caller is responsible for filtering out steps that were resolved since.
func (lr *LogRepository) PendingAssignments(ctx context.Context, userID string) ([]*models.LogEntry, error) {
	return lr.query(ctx, func(entry *models.LogEntry) bool {
		return entry.Action == models.ActionAssigned && entry.AssignedTo(userID)
	}, descending, 0)
}

type order int

const (
	ascending order = iota
	descending
)

func (lr *LogRepository) query(_ context.Context, match func(*models.LogEntry) bool, ord order, limit int) ([]*models.LogEntry, error) {
	ids, err := listJSON(lr.dir())
	if err != nil {
		return nil, persistence.NewStoreError("QueryLogs", "", err)
	}

	entries := make([]*models.LogEntry, 0)

	for _, id := range ids {
		var entry models.LogEntry
		if err := readJSON(lr.path(id), &entry); err != nil {
			return nil, persistence.NewStoreError("QueryLogs", id, err)
		}

		if match(&entry) {
			entries = append(entries, &entry)
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Timestamp.Equal(b.Timestamp) {
			// Stable tie-break so equal-timestamp entries keep one order.
			if ord == ascending {
				return a.ID < b.ID
			}

			return a.ID > b.ID
		}

		if ord == ascending {
			return a.Timestamp.Before(b.Timestamp)
		}

		return a.Timestamp.After(b.Timestamp)
	})

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	return entries, nil
}
