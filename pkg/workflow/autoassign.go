package workflow

import (
	"context"
	"errors"

	"github.com/anilrana004/Workline/pkg/models"
)

// HandleDocumentCreated is the document lifecycle hook. A freshly created
// document with no workflow picks up the first active workflow applicable
// to its collection, in workflow creation order, and starts it. At most
// one workflow is ever auto-assigned.
func (e *Engine) HandleDocumentCreated(ctx context.Context, document *models.Document) (*models.Workflow, error) {
	const op = "engine.handle_document_created"

	if document.HasWorkflow() {
		return nil, nil
	}

	workflows, err := e.persistence.WorkflowRepository().Workflows(ctx)
	if err != nil {
		return nil, newEngineError(op, document.Collection, document.ID, err)
	}

	for _, wf := range workflows {
		if !wf.IsActive || !wf.AppliesTo(document.Collection) {
			continue
		}

		if _, err := e.AssignWorkflow(ctx, document.Collection, document.ID, wf.ID, true); err != nil {
			// A concurrent assignment won the race; the document has its
			// workflow either way.
			if errors.Is(err, ErrAlreadyAssigned) {
				return nil, nil
			}

			return nil, err
		}

		e.logger.InfoContext(ctx, "Workflow auto-assigned",
			"workflow_id", wf.ID, "collection", document.Collection, "document_id", document.ID)

		return wf, nil
	}

	return nil, nil
}
