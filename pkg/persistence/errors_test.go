package persistence_test

import (
	"errors"
	"testing"

	"github.com/anilrana004/Workline/pkg/persistence"
	"github.com/stretchr/testify/assert"
)

func TestStoreErrorWrapping(t *testing.T) {
	t.Parallel()

	err := persistence.NewStoreError("WorkflowByID", "wf-123", persistence.ErrWorkflowNotFound)

	assert.True(t, persistence.IsWorkflowNotFound(err))
	assert.True(t, errors.Is(err, persistence.ErrWorkflowNotFound))
	assert.Contains(t, err.Error(), "WorkflowByID")
	assert.Contains(t, err.Error(), "wf-123")
	assert.Contains(t, err.Error(), "workflow not found")
}

func TestIsNotFoundHelpers(t *testing.T) {
	t.Parallel()

	assert.True(t, persistence.IsNotFound(persistence.ErrDocumentNotFound))
	assert.True(t, persistence.IsNotFound(persistence.NewStoreError("UserByID", "u1", persistence.ErrUserNotFound)))
	assert.False(t, persistence.IsNotFound(errors.New("disk on fire")))

	assert.True(t, persistence.IsDocumentNotFound(persistence.ErrDocumentNotFound))
	assert.False(t, persistence.IsDocumentNotFound(persistence.ErrWorkflowNotFound))
}
