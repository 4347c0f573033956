package web

import (
	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"

	"github.com/anilrana004/Workline/pkg/persistence"
	"github.com/anilrana004/Workline/pkg/services"
	"github.com/anilrana004/Workline/pkg/workflow"
)

func badRequest(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(400).
		WithInstance(c.Path()).
		WithType("validation_error").
		WithDetail(detail)

	return c.Status(fiber.StatusBadRequest).JSON(problem)
}

func notFound(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(404).
		WithInstance(c.Path()).
		WithType("not_found").
		WithDetail(detail)

	return c.Status(fiber.StatusNotFound).JSON(problem)
}

func forbidden(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(403).
		WithInstance(c.Path()).
		WithType("permission_denied").
		WithDetail(detail)

	return c.Status(fiber.StatusForbidden).JSON(problem)
}

func conflict(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(409).
		WithInstance(c.Path()).
		WithType("conflict").
		WithDetail(detail)

	return c.Status(fiber.StatusConflict).JSON(problem)
}

func internalError(c fiber.Ctx, err error) error {
	problem := problems.NewStatusProblem(500).
		WithInstance(c.Path()).
		WithType("internal_error").
		WithError(err)

	return c.Status(fiber.StatusInternalServerError).JSON(problem)
}

// handleEngineError maps workflow engine errors onto the API error
// taxonomy. Unexpected errors become 500s without exposing details.
func handleEngineError(c fiber.Ctx, err error) error {
	switch {
	case workflow.IsPermissionDenied(err):
		return forbidden(c, "user is not assigned to the current step")
	case workflow.IsConflict(err):
		return conflict(c, err.Error())
	case workflow.IsValidation(err):
		return badRequest(c, err.Error())
	case persistence.IsNotFound(err):
		return notFound(c, err.Error())
	default:
		return internalError(c, err)
	}
}

// handleServiceError maps workflow service errors onto the API error
// taxonomy.
func handleServiceError(c fiber.Ctx, err error) error {
	switch {
	case services.IsValidationError(err):
		return badRequest(c, err.Error())
	case services.IsConflictError(err):
		return conflict(c, err.Error())
	case persistence.IsWorkflowNotFound(err):
		return notFound(c, "workflow not found")
	default:
		return internalError(c, err)
	}
}
