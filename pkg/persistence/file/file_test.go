package file

import (
	"testing"
	"time"

	"github.com/anilrana004/Workline/pkg/models"
	"github.com/anilrana004/Workline/pkg/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPersistence_HealthCheck(t *testing.T) {
	t.Parallel()

	p := NewPersistence(t.TempDir())
	require.NoError(t, p.HealthCheck(t.Context()))

	missing := NewPersistence("/nonexistent/workline-test-root")
	assert.Error(t, missing.HealthCheck(t.Context()))

	assert.NoError(t, p.Close(t.Context()))
}

func TestWorkflowRepository_RoundTrip(t *testing.T) {
	t.Parallel()

	p := NewPersistence(t.TempDir())
	repo := p.WorkflowRepository()

	created := &models.Workflow{
		ID:                    "wf-1",
		Name:                  "Blog Approval",
		IsActive:              true,
		ApplicableCollections: []string{"blogs"},
		Steps: []*models.Step{
			{StepNumber: 1, Name: "Review", StepType: models.StepTypeReview},
		},
		CreatedBy: "admin",
		CreatedAt: time.Now().UTC(),
	}

	require.NoError(t, repo.SaveWorkflow(t.Context(), created))

	fetched, err := repo.WorkflowByID(t.Context(), "wf-1")
	require.NoError(t, err)
	assert.Equal(t, "Blog Approval", fetched.Name)
	require.Len(t, fetched.Steps, 1)
	assert.Equal(t, models.StepTypeReview, fetched.Steps[0].StepType)

	_, err = repo.WorkflowByID(t.Context(), "missing")
	assert.True(t, persistence.IsWorkflowNotFound(err))

	require.NoError(t, repo.DeleteWorkflow(t.Context(), "wf-1"))
	assert.True(t, persistence.IsWorkflowNotFound(repo.DeleteWorkflow(t.Context(), "wf-1")))
}

func TestWorkflowRepository_OrderedByCreation(t *testing.T) {
	t.Parallel()

	p := NewPersistence(t.TempDir())
	repo := p.WorkflowRepository()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"wf-c", "wf-a", "wf-b"} {
		require.NoError(t, repo.SaveWorkflow(t.Context(), &models.Workflow{
			ID:        id,
			Name:      "Workflow " + id,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}

	workflows, err := repo.Workflows(t.Context())
	require.NoError(t, err)
	require.Len(t, workflows, 3)
	assert.Equal(t, "wf-c", workflows[0].ID)
	assert.Equal(t, "wf-a", workflows[1].ID)
	assert.Equal(t, "wf-b", workflows[2].ID)
}

func TestDocumentRepository_RoundTrip(t *testing.T) {
	t.Parallel()

	p := NewPersistence(t.TempDir())
	repo := p.DocumentRepository()

	doc := &models.Document{
		ID:         "doc-1",
		Collection: "blogs",
		Title:      "Post",
		CreatedBy:  "author-1",
		Fields:     map[string]any{"amount": 12.5},
		CreatedAt:  time.Now().UTC(),
	}

	require.NoError(t, repo.SaveDocument(t.Context(), doc))

	fetched, err := repo.DocumentByID(t.Context(), "blogs", "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "Post", fetched.Title)
	assert.InDelta(t, 12.5, fetched.Fields["amount"], 0.001)

	_, err = repo.DocumentByID(t.Context(), "blogs", "nope")
	assert.True(t, persistence.IsDocumentNotFound(err))

	docs, err := repo.DocumentsByCollection(t.Context(), "blogs")
	require.NoError(t, err)
	assert.Len(t, docs, 1)

	collections, err := repo.Collections(t.Context())
	require.NoError(t, err)
	assert.Equal(t, []string{"blogs"}, collections)
}

func TestUserRepository_Queries(t *testing.T) {
	t.Parallel()

	p := NewPersistence(t.TempDir())
	repo := p.UserRepository()

	users := []*models.User{
		{ID: "u1", Name: "Ana", Email: "ana@example.com", Role: "editor", Department: "marketing", IsActive: true},
		{ID: "u2", Name: "Ben", Email: "ben@example.com", Role: "manager", Department: "finance", IsActive: true},
		{ID: "u3", Name: "Cid", Email: "cid@example.com", Role: "editor", Department: "finance", IsActive: false},
	}
	for _, user := range users {
		require.NoError(t, repo.SaveUser(t.Context(), user))
	}

	editors, err := repo.UsersByRoles(t.Context(), []string{"editor"})
	require.NoError(t, err)
	require.Len(t, editors, 2)
	assert.Equal(t, "u1", editors[0].ID)
	assert.Equal(t, "u3", editors[1].ID)

	finance, err := repo.UsersByDepartments(t.Context(), []string{"finance"})
	require.NoError(t, err)
	assert.Len(t, finance, 2)

	_, err = repo.UserByID(t.Context(), "ghost")
	assert.True(t, persistence.IsUserNotFound(err))
}

func TestLogRepository_AppendAndQuery(t *testing.T) {
	t.Parallel()

	p := NewPersistence(t.TempDir())
	repo := p.LogRepository()

	base := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	actions := []models.LogAction{models.ActionStarted, models.ActionAssigned, models.ActionApproved}

	for i, action := range actions {
		entry := &models.LogEntry{
			WorkflowID: "wf-1",
			Document:   models.DocumentRef{Collection: "blogs", ID: "doc-1"},
			Step:       models.StepRef{StepNumber: 1, StepName: "Review", StepType: models.StepTypeReview},
			Action:     action,
			UserID:     "u1",
			Timestamp:  base.Add(time.Duration(i) * time.Minute),
		}

		id, err := repo.Append(t.Context(), entry)
		require.NoError(t, err)
		assert.NotEmpty(t, id)
	}

	stepLogs, err := repo.StepLogs(t.Context(), "wf-1", "doc-1", 1)
	require.NoError(t, err)
	require.Len(t, stepLogs, 3)
	assert.Equal(t, models.ActionStarted, stepLogs[0].Action)
	assert.Equal(t, models.ActionApproved, stepLogs[2].Action)

	docLogs, err := repo.DocumentLogs(t.Context(), "wf-1", "doc-1")
	require.NoError(t, err)
	assert.Len(t, docLogs, 3)

	recent, err := repo.WorkflowLogs(t.Context(), "wf-1", 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, models.ActionApproved, recent[0].Action)

	userLogs, err := repo.UserLogs(t.Context(), "u1", 0)
	require.NoError(t, err)
	assert.Len(t, userLogs, 3)

	pending, err := repo.PendingAssignments(t.Context(), "u1")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, models.ActionAssigned, pending[0].Action)
}

func TestLogRepository_PendingAssignmentsByMetadata(t *testing.T) {
	t.Parallel()

	p := NewPersistence(t.TempDir())
	repo := p.LogRepository()

	// Assigned entries are written by the engine under the system actor;
	// the recipients live in the metadata.
	entries := []*models.LogEntry{
		{
			WorkflowID: "wf-1",
			Document:   models.DocumentRef{Collection: "blogs", ID: "doc-1"},
			Step:       models.StepRef{StepNumber: 1, StepName: "Review", StepType: models.StepTypeReview},
			Action:     models.ActionAssigned,
			UserID:     models.SystemUser,
			Metadata:   map[string]any{models.MetadataAssignees: []string{"u1", "u2"}},
		},
		{
			WorkflowID: "wf-1",
			Document:   models.DocumentRef{Collection: "blogs", ID: "doc-2"},
			Step:       models.StepRef{StepNumber: 1, StepName: "Review", StepType: models.StepTypeReview},
			Action:     models.ActionAssigned,
			UserID:     models.SystemUser,
			Metadata:   map[string]any{models.MetadataAssignees: []string{"u3"}},
		},
	}

	for _, entry := range entries {
		_, err := repo.Append(t.Context(), entry)
		require.NoError(t, err)
	}

	pending, err := repo.PendingAssignments(t.Context(), "u1")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "doc-1", pending[0].Document.ID)
	assert.Equal(t, []string{"u1", "u2"}, pending[0].Assignees())

	pending, err = repo.PendingAssignments(t.Context(), "u3")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "doc-2", pending[0].Document.ID)

	pending, err = repo.PendingAssignments(t.Context(), "ghost")
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestLogRepository_FillsIDAndTimestamp(t *testing.T) {
	t.Parallel()

	p := NewPersistence(t.TempDir())
	repo := p.LogRepository()

	entry := &models.LogEntry{
		WorkflowID: "wf-1",
		Document:   models.DocumentRef{Collection: "blogs", ID: "doc-1"},
		Action:     models.ActionStarted,
		UserID:     models.SystemUser,
	}

	id, err := repo.Append(t.Context(), entry)
	require.NoError(t, err)
	assert.Equal(t, id, entry.ID)
	assert.False(t, entry.Timestamp.IsZero())
}
