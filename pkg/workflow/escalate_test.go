package workflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anilrana004/Workline/pkg/events"
	"github.com/anilrana004/Workline/pkg/models"
	"github.com/anilrana004/Workline/pkg/testutil"
)

func seedOverdueRun(t *testing.T, engine *Engine, escalationAction string) (*models.Workflow, *models.Document) {
	t.Helper()

	ctx := t.Context()
	store := engine.persistence

	editor := testutil.CreateTestUser(func(u *models.User) {
		u.ID = "editor-1"
		u.Manager = "manager-1"
	})
	manager := testutil.CreateTestUser(testutil.WithRole("manager"), func(u *models.User) {
		u.ID = "manager-1"
		u.Email = "manager@example.com"
	})
	require.NoError(t, store.UserRepository().SaveUser(ctx, editor))
	require.NoError(t, store.UserRepository().SaveUser(ctx, manager))

	wf := testutil.CreateTestWorkflow(testutil.WithSteps(&models.Step{
		StepNumber: 1,
		Name:       "Editor Review",
		StepType:   models.StepTypeReview,
		Assignees:  models.AssigneeSpec{Type: models.AssigneeTypeRole, Roles: []string{"editor"}},
		SLA:        &models.SLA{Enabled: true, Hours: 1, EscalationAction: escalationAction},
	}))
	require.NoError(t, store.WorkflowRepository().SaveWorkflow(ctx, wf))

	document := testutil.CreateTestDocument()
	require.NoError(t, store.DocumentRepository().SaveDocument(ctx, document))

	_, err := engine.AssignWorkflow(ctx, document.Collection, document.ID, wf.ID, true)
	require.NoError(t, err)

	return wf, document
}

func TestEscalateReminderLogsOnce(t *testing.T) {
	t.Parallel()

	engine, store, dispatcher, clock := newTestEngine(t)
	ctx := t.Context()
	wf, document := seedOverdueRun(t, engine, models.EscalationReminder)

	clock.mu.Lock()
	clock.t = clock.t.Add(3 * time.Hour)
	clock.mu.Unlock()

	results, err := engine.EscalateOverdue(ctx)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.False(t, results[0].Skipped)
	assert.Equal(t, models.EscalationReminder, results[0].Action)
	assert.Greater(t, results[0].OverdueHours, 1.9)

	entries, err := store.LogRepository().StepLogs(ctx, wf.ID, document.ID, 1)
	require.NoError(t, err)

	var escalated int

	for _, entry := range entries {
		if entry.Action == models.ActionEscalated {
			escalated++
			require.NotNil(t, entry.SLAStatus)
			assert.True(t, entry.SLAStatus.IsOverdue)
		}
	}

	assert.Equal(t, 1, escalated)

	// A second sweep skips the already-escalated step.
	results, err = engine.EscalateOverdue(ctx)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Skipped)

	escalationEvents := dispatcher.ofType(events.SLAEscalatedEvent)
	require.Len(t, escalationEvents, 1)
}

func TestEscalateToManagerNotifiesManager(t *testing.T) {
	t.Parallel()

	engine, _, dispatcher, clock := newTestEngine(t)
	ctx := t.Context()
	seedOverdueRun(t, engine, models.EscalationManager)

	clock.mu.Lock()
	clock.t = clock.t.Add(3 * time.Hour)
	clock.mu.Unlock()

	_, err := engine.EscalateOverdue(ctx)
	require.NoError(t, err)

	escalationEvents := dispatcher.ofType(events.SLAEscalatedEvent)
	require.Len(t, escalationEvents, 1)

	event, ok := escalationEvents[0].(events.SLAEscalated)
	require.True(t, ok)
	require.Len(t, event.Recipients, 1)
	assert.Equal(t, "manager@example.com", event.Recipients[0].Email)
}

func TestEscalateAutoApproveAdvancesRun(t *testing.T) {
	t.Parallel()

	engine, store, _, clock := newTestEngine(t)
	ctx := t.Context()
	wf, document := seedOverdueRun(t, engine, models.EscalationAutoApprove)

	clock.mu.Lock()
	clock.t = clock.t.Add(3 * time.Hour)
	clock.mu.Unlock()

	_, err := engine.EscalateOverdue(ctx)
	require.NoError(t, err)

	entries, err := store.LogRepository().StepLogs(ctx, wf.ID, document.ID, 1)
	require.NoError(t, err)

	var approvedBySystem bool

	for _, entry := range entries {
		if entry.Action == models.ActionApproved && entry.UserID == models.SystemUser {
			approvedBySystem = true
		}
	}

	assert.True(t, approvedBySystem)

	stored, err := store.DocumentRepository().DocumentByID(ctx, document.Collection, document.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.WorkflowStatus)
	assert.True(t, stored.WorkflowStatus.IsCompleted)
}
