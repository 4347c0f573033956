package workflow

import (
	"context"
	"log/slog"

	"github.com/anilrana004/Workline/pkg/models"
	"github.com/anilrana004/Workline/pkg/persistence"
)

// AssigneeResolver turns a step's AssigneeSpec into the concrete set of
// users who must act. Resolution never fails the workflow: an unknown
// selector or an empty directory result yields an empty set, which the
// engine records as an unassigned step.
type AssigneeResolver struct {
	users     persistence.UserRepository
	auditLog  *AuditLog
	evaluator *models.ConditionEvaluator
	logger    *slog.Logger
}

func NewAssigneeResolver(users persistence.UserRepository, auditLog *AuditLog, evaluator *models.ConditionEvaluator, logger *slog.Logger) *AssigneeResolver {
	return &AssigneeResolver{
		users:     users,
		auditLog:  auditLog,
		evaluator: evaluator,
		logger:    logger.With("module", "assignee_resolver"),
	}
}

// Resolve returns the active users assigned to the step for the given
// document. Inactive users are always filtered out.
func (r *AssigneeResolver) Resolve(ctx context.Context, workflow *models.Workflow, step *models.Step, document *models.Document) ([]*models.User, error) {
	spec := step.Assignees

	switch spec.Type {
	case models.AssigneeTypeRole:
		return r.activeByRoles(ctx, spec.Roles)
	case models.AssigneeTypeUser:
		return r.activeByIDs(ctx, spec.Users)
	case models.AssigneeTypeDepartment:
		users, err := r.users.UsersByDepartments(ctx, spec.Departments)
		if err != nil {
			return nil, err
		}

		return onlyActive(users), nil
	case models.AssigneeTypeCreator:
		return r.activeByIDs(ctx, []string{document.CreatedBy})
	case models.AssigneeTypeManager:
		return r.resolveManager(ctx, document)
	case models.AssigneeTypePreviousApprover:
		return r.resolvePreviousApprover(ctx, workflow, step, document)
	case models.AssigneeTypeDynamic:
		return r.resolveDynamic(ctx, spec.DynamicRules, document)
	default:
		r.logger.WarnContext(ctx, "Unknown assignee type", "type", string(spec.Type))

		return nil, nil
	}
}

func (r *AssigneeResolver) activeByRoles(ctx context.Context, roles []string) ([]*models.User, error) {
	if len(roles) == 0 {
		return nil, nil
	}

	users, err := r.users.UsersByRoles(ctx, roles)
	if err != nil {
		return nil, err
	}

	return onlyActive(users), nil
}

func (r *AssigneeResolver) activeByIDs(ctx context.Context, ids []string) ([]*models.User, error) {
	var users []*models.User

	for _, id := range ids {
		if id == "" {
			continue
		}

		user, err := r.users.UserByID(ctx, id)
		if err != nil {
			if persistence.IsUserNotFound(err) {
				r.logger.WarnContext(ctx, "Assigned user not found", "user_id", id)

				continue
			}

			return nil, err
		}

		if user.IsActive {
			users = append(users, user)
		}
	}

	return users, nil
}

// resolveManager assigns the manager of the document's creator.
func (r *AssigneeResolver) resolveManager(ctx context.Context, document *models.Document) ([]*models.User, error) {
	if document.CreatedBy == "" {
		return nil, nil
	}

	creator, err := r.users.UserByID(ctx, document.CreatedBy)
	if err != nil {
		if persistence.IsUserNotFound(err) {
			return nil, nil
		}

		return nil, err
	}

	if creator.Manager == "" {
		return nil, nil
	}

	return r.activeByIDs(ctx, []string{creator.Manager})
}

// resolvePreviousApprover assigns whoever approved the most recent earlier
// step of this document's run.
func (r *AssigneeResolver) resolvePreviousApprover(ctx context.Context, workflow *models.Workflow, step *models.Step, document *models.Document) ([]*models.User, error) {
	entries, err := r.auditLog.persistence.LogRepository().DocumentLogs(ctx, workflow.ID, document.ID)
	if err != nil {
		return nil, err
	}

	approver := ""

	for _, entry := range entries {
		if entry.Action == models.ActionApproved && entry.Step.StepNumber < step.StepNumber {
			approver = entry.UserID
		}
	}

	if approver == "" || approver == models.SystemUser {
		return nil, nil
	}

	return r.activeByIDs(ctx, []string{approver})
}

// resolveDynamic evaluates rules in declaration order; the first rule whose
// condition holds against the document decides the target role.
func (r *AssigneeResolver) resolveDynamic(ctx context.Context, rules []models.DynamicRule, document *models.Document) ([]*models.User, error) {
	for _, rule := range rules {
		if !r.evaluator.EvaluateAll([]models.Condition{rule.When}, document) {
			continue
		}

		return r.activeByRoles(ctx, []string{rule.AssignTo})
	}

	return nil, nil
}

func onlyActive(users []*models.User) []*models.User {
	active := make([]*models.User, 0, len(users))

	for _, user := range users {
		if user.IsActive {
			active = append(active, user)
		}
	}

	return active
}

// UserIDs projects users to their identifiers.
func UserIDs(users []*models.User) []string {
	ids := make([]string, 0, len(users))

	for _, user := range users {
		ids = append(ids, user.ID)
	}

	return ids
}

// IsAssignee reports whether the user belongs to the resolved assignee set.
func IsAssignee(users []*models.User, userID string) bool {
	for _, user := range users {
		if user.ID == userID {
			return true
		}
	}

	return false
}
