package services_test

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anilrana004/Workline/pkg/models"
	"github.com/anilrana004/Workline/pkg/persistence"
	"github.com/anilrana004/Workline/pkg/persistence/file"
	"github.com/anilrana004/Workline/pkg/services"
	"github.com/anilrana004/Workline/pkg/testutil"
)

func newService(t *testing.T) (*services.Workflow, persistence.Persistence) {
	t.Helper()

	store := file.NewPersistence(t.TempDir())
	service, err := services.NewWorkflow(store, slog.Default())
	require.NoError(t, err)

	return service, store
}

func TestCreateNormalizesStepNumbers(t *testing.T) {
	t.Parallel()

	service, _ := newService(t)

	workflow := testutil.CreateTestWorkflow()
	workflow.Steps[0].StepNumber = 7
	workflow.Steps[1].StepNumber = 3

	created, err := service.Create(t.Context(), workflow, "admin")
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, 1, created.Steps[0].StepNumber)
	assert.Equal(t, 2, created.Steps[1].StepNumber)
	assert.Equal(t, "admin", created.CreatedBy)
}

func TestCreateDefaultsCollections(t *testing.T) {
	t.Parallel()

	service, _ := newService(t)

	workflow := testutil.CreateTestWorkflow()
	workflow.ApplicableCollections = nil

	created, err := service.Create(t.Context(), workflow, "admin")
	require.NoError(t, err)
	assert.Equal(t, []string{models.CollectionAll}, created.ApplicableCollections)
	assert.True(t, created.AppliesTo("invoices"))
}

func TestCreateValidation(t *testing.T) {
	t.Parallel()

	service, _ := newService(t)
	ctx := t.Context()

	_, err := service.Create(ctx, nil, "admin")
	require.Error(t, err)
	assert.True(t, services.IsValidationError(err))

	noName := testutil.CreateTestWorkflow()
	noName.Name = "   "
	_, err = service.Create(ctx, noName, "admin")
	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrWorkflowNameRequired)

	noSteps := testutil.CreateTestWorkflow(testutil.WithSteps())
	_, err = service.Create(ctx, noSteps, "admin")
	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrStepsRequired)

	badOperator := testutil.CreateTestWorkflow()
	badOperator.Steps[0].Conditions = []models.Condition{
		{Field: "amount", Operator: "between", Value: "1"},
	}
	_, err = service.Create(ctx, badOperator, "admin")
	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrInvalidDefinition)

	badAssignee := testutil.CreateTestWorkflow()
	badAssignee.Steps[0].Assignees.Type = "committee"
	_, err = service.Create(ctx, badAssignee, "admin")
	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrInvalidDefinition)
}

func TestUpdatePreservesIdentity(t *testing.T) {
	t.Parallel()

	service, _ := newService(t)
	ctx := t.Context()

	created, err := service.Create(ctx, testutil.CreateTestWorkflow(), "admin")
	require.NoError(t, err)

	replacement := testutil.CreateTestWorkflow()
	replacement.Name = "Renamed Approval"

	updated, err := service.Update(ctx, created.ID, replacement)
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, created.CreatedBy, updated.CreatedBy)
	assert.Equal(t, "Renamed Approval", updated.Name)
}

func TestDeleteRefusesInFlightWorkflow(t *testing.T) {
	t.Parallel()

	service, store := newService(t)
	ctx := t.Context()

	created, err := service.Create(ctx, testutil.CreateTestWorkflow(), "admin")
	require.NoError(t, err)

	document := testutil.CreateTestDocument()
	document.Workflow = created.ID
	document.WorkflowStatus = &models.WorkflowStatus{CurrentStep: 1, LastUpdated: time.Now().UTC()}
	require.NoError(t, store.DocumentRepository().SaveDocument(ctx, document))

	err = service.Delete(ctx, created.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrWorkflowInUse)
	assert.True(t, services.IsConflictError(err))

	// A completed run no longer blocks deletion.
	document.WorkflowStatus.IsCompleted = true
	require.NoError(t, store.DocumentRepository().SaveDocument(ctx, document))

	require.NoError(t, service.Delete(ctx, created.ID))

	_, err = service.FetchByID(ctx, created.ID)
	assert.ErrorIs(t, err, services.ErrWorkflowNotFound)
}

func TestCloneIsInactiveCopy(t *testing.T) {
	t.Parallel()

	service, _ := newService(t)
	ctx := t.Context()

	created, err := service.Create(ctx, testutil.CreateTestWorkflow(), "admin")
	require.NoError(t, err)

	clone, err := service.Clone(ctx, created.ID, "editor-1")
	require.NoError(t, err)
	assert.NotEqual(t, created.ID, clone.ID)
	assert.Equal(t, created.Name+" (Copy)", clone.Name)
	assert.False(t, clone.IsActive)
	assert.Equal(t, "editor-1", clone.CreatedBy)
	require.Len(t, clone.Steps, len(created.Steps))

	// Mutating the clone's steps leaves the source untouched.
	clone.Steps[0].Assignees.Roles[0] = "changed"
	source, err := service.FetchByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "editor", source.Steps[0].Assignees.Roles[0])
}

func TestSetActive(t *testing.T) {
	t.Parallel()

	service, _ := newService(t)
	ctx := t.Context()

	created, err := service.Create(ctx, testutil.CreateTestWorkflow(), "admin")
	require.NoError(t, err)
	require.True(t, created.IsActive)

	deactivated, err := service.SetActive(ctx, created.ID, false)
	require.NoError(t, err)
	assert.False(t, deactivated.IsActive)

	reactivated, err := service.SetActive(ctx, created.ID, true)
	require.NoError(t, err)
	assert.True(t, reactivated.IsActive)
}

func TestListFilters(t *testing.T) {
	t.Parallel()

	service, _ := newService(t)
	ctx := t.Context()

	blog := testutil.CreateTestWorkflow()
	blog.Name = "Blog Approval"
	_, err := service.Create(ctx, blog, "admin")
	require.NoError(t, err)

	contract := testutil.CreateTestWorkflow(testutil.WithInactive())
	contract.Name = "Contract Approval"
	_, err = service.Create(ctx, contract, "admin")
	require.NoError(t, err)

	all, err := service.List(ctx, services.ListRequest{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	active := true
	onlyActive, err := service.List(ctx, services.ListRequest{Active: &active})
	require.NoError(t, err)
	require.Len(t, onlyActive, 1)
	assert.Equal(t, "Blog Approval", onlyActive[0].Name)

	matched, err := service.List(ctx, services.ListRequest{Search: "contract"})
	require.NoError(t, err)
	require.Len(t, matched, 1)
	assert.Equal(t, "Contract Approval", matched[0].Name)
}

func TestTemplatesAreValidDefinitions(t *testing.T) {
	t.Parallel()

	service, _ := newService(t)
	ctx := t.Context()

	templates := service.Templates()
	require.NotEmpty(t, templates)

	ids := make(map[string]bool, len(templates))

	for _, template := range templates {
		assert.False(t, ids[template.ID], "duplicate template id %s", template.ID)
		ids[template.ID] = true

		created, err := service.Create(ctx, template.Workflow, "admin")
		require.NoError(t, err, "template %s should pass validation", template.ID)
		assert.NotEmpty(t, created.ID)
	}
}
