package file

import (
	"context"
	"os"
	"path/filepath"
	"sort"

	"github.com/anilrana004/Workline/pkg/models"
	"github.com/anilrana004/Workline/pkg/persistence"
)

// WorkflowRepository handles workflow definition files under root/workflows.
type WorkflowRepository struct {
	root string
}

func (wr *WorkflowRepository) dir() string {
	return filepath.Join(wr.root, "workflows")
}

func (wr *WorkflowRepository) path(id string) string {
	return filepath.Join(wr.dir(), id+".json")
}

// Workflows returns every stored workflow, ordered by creation time then id
// so auto-assignment scans are stable.
func (wr *WorkflowRepository) Workflows(ctx context.Context) ([]*models.Workflow, error) {
	ids, err := listJSON(wr.dir())
	if err != nil {
		return nil, persistence.NewStoreError("Workflows", "", err)
	}

	workflows := make([]*models.Workflow, 0, len(ids))

	for _, id := range ids {
		workflow, err := wr.WorkflowByID(ctx, id)
		if err != nil {
			return nil, err
		}

		workflows = append(workflows, workflow)
	}

	sort.Slice(workflows, func(i, j int) bool {
		if workflows[i].CreatedAt.Equal(workflows[j].CreatedAt) {
			return workflows[i].ID < workflows[j].ID
		}

		return workflows[i].CreatedAt.Before(workflows[j].CreatedAt)
	})

	return workflows, nil
}

func (wr *WorkflowRepository) WorkflowByID(_ context.Context, id string) (*models.Workflow, error) {
	var workflow models.Workflow

	err := readJSON(wr.path(id), &workflow)
	if os.IsNotExist(err) {
		return nil, persistence.NewStoreError("WorkflowByID", id, persistence.ErrWorkflowNotFound)
	}

	if err != nil {
		return nil, persistence.NewStoreError("WorkflowByID", id, err)
	}

	return &workflow, nil
}

func (wr *WorkflowRepository) SaveWorkflow(_ context.Context, workflow *models.Workflow) error {
	if err := writeJSON(wr.path(workflow.ID), workflow); err != nil {
		return persistence.NewStoreError("SaveWorkflow", workflow.ID, err)
	}

	return nil
}

func (wr *WorkflowRepository) DeleteWorkflow(_ context.Context, id string) error {
	err := os.Remove(wr.path(id))
	if os.IsNotExist(err) {
		return persistence.NewStoreError("DeleteWorkflow", id, persistence.ErrWorkflowNotFound)
	}

	if err != nil {
		return persistence.NewStoreError("DeleteWorkflow", id, err)
	}

	return nil
}
