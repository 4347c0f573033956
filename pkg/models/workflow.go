// Package models defines the core domain models for document approval workflows.
package models

import "time"

// StepType classifies what kind of action a step expects from its assignees.
// The four built-in types cover the common cases; any other non-empty string
// is treated as a custom step type.
type StepType string

const (
	StepTypeApproval StepType = "approval"
	StepTypeReview   StepType = "review"
	StepTypeSignoff  StepType = "signoff"
	StepTypeComment  StepType = "comment"
)

// Workflow is an ordered sequence of approval steps applied to documents of
// the collections it declares itself applicable to.
type Workflow struct {
	ID                    string    `json:"id"`
	Name                  string    `json:"name"                   validate:"required,min=3"`
	Description           string    `json:"description"`
	IsActive              bool      `json:"is_active"`
	ApplicableCollections []string  `json:"applicable_collections"`
	Steps                 []*Step   `json:"steps"`
	CreatedBy             string    `json:"created_by"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// Step is one stage of a workflow. StepNumber is 1-based and dense within
// the owning workflow; NormalizeSteps enforces that on save.
type Step struct {
	StepNumber      int            `json:"step_number"`
	Name            string         `json:"name"       validate:"required"`
	Description     string         `json:"description,omitempty"`
	StepType        StepType       `json:"step_type"  validate:"required"`
	Assignees       AssigneeSpec   `json:"assignees"`
	Conditions      []Condition    `json:"conditions,omitempty"`
	SLA             *SLA           `json:"sla,omitempty"`
	NextSteps       []NextStepRule `json:"next_steps,omitempty"`
	IsRequired      bool           `json:"is_required"`
	AllowComments   bool           `json:"allow_comments"`
	RequireComments bool           `json:"require_comments"`
}

// AssigneeType selects the strategy used to resolve a step's assignees.
type AssigneeType string

const (
	AssigneeTypeRole             AssigneeType = "role"
	AssigneeTypeUser             AssigneeType = "user"
	AssigneeTypeDepartment       AssigneeType = "department"
	AssigneeTypeManager          AssigneeType = "manager"
	AssigneeTypeCreator          AssigneeType = "creator"
	AssigneeTypePreviousApprover AssigneeType = "previous_approver"
	AssigneeTypeDynamic          AssigneeType = "dynamic"
)

// AssigneeSpec declares who must act on a step. Exactly one selector is
// meaningful depending on Type; the rest are ignored.
type AssigneeSpec struct {
	Type         AssigneeType  `json:"type" validate:"required"`
	Roles        []string      `json:"roles,omitempty"`
	Users        []string      `json:"users,omitempty"`
	Departments  []string      `json:"departments,omitempty"`
	DynamicRules []DynamicRule `json:"dynamic_rules,omitempty"`
}

// DynamicRule pairs a trigger condition with a target role. Rules are
// evaluated in declaration order against the document; the first rule whose
// condition holds wins and its AssignTo role is resolved.
type DynamicRule struct {
	When     Condition `json:"when"`
	AssignTo string    `json:"assign_to" validate:"required"`
}

// SLA is the time budget within which a step's assignees are expected to act.
// When BusinessHours is set, only Mon-Fri 09:00-17:00 UTC hours count toward
// the elapsed time.
type SLA struct {
	Enabled          bool   `json:"enabled"`
	Hours            int    `json:"hours,omitempty"`
	BusinessHours    bool   `json:"business_hours,omitempty"`
	EscalationAction string `json:"escalation_action,omitempty"`
}

// Escalation actions.
const (
	EscalationReminder     = "reminder"
	EscalationAutoApprove  = "auto_approve"
	EscalationManager      = "escalate_manager"
	EscalationDirector     = "escalate_director"
	EscalationNotification = "notification"
)

// NextStepRule routes the workflow after an action on the owning step. A rule
// matches when its Condition equals the taken action, or is "always".
type NextStepRule struct {
	Condition      string `json:"condition"        validate:"required"`
	NextStepNumber int    `json:"next_step_number" validate:"required"`
}

// NextStepAlways matches any action in a NextStepRule.
const NextStepAlways = "always"

// NormalizeSteps renumbers the workflow's steps 1..N in slice order,
// regardless of the numbers they carried. Called whenever the step list is
// saved.
func (w *Workflow) NormalizeSteps() {
	for i, step := range w.Steps {
		step.StepNumber = i + 1
	}
}

// StepByNumber returns the step with the given number, or nil.
func (w *Workflow) StepByNumber(number int) *Step {
	for _, step := range w.Steps {
		if step.StepNumber == number {
			return step
		}
	}

	return nil
}

// AppliesTo reports whether the workflow is declared applicable to the given
// collection. The special collection tag "all" matches every collection.
func (w *Workflow) AppliesTo(collection string) bool {
	for _, c := range w.ApplicableCollections {
		if c == collection || c == CollectionAll {
			return true
		}
	}

	return false
}

// CollectionAll is the applicable-collections wildcard.
const CollectionAll = "all"
