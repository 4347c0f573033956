package services

import "github.com/anilrana004/Workline/pkg/models"

// Template is a ready-made workflow definition offered as a starting point.
type Template struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Workflow    *models.Workflow `json:"workflow"`
}

// Templates returns the built-in workflow templates. Templates are not
// persisted; instantiating one goes through Create like any other
// definition.
func (s *Workflow) Templates() []Template {
	return []Template{
		{
			ID:          "simple-approval",
			Name:        "Simple Approval",
			Description: "A single editor review step.",
			Workflow: &models.Workflow{
				Name:                  "Simple Approval",
				ApplicableCollections: []string{models.CollectionAll},
				Steps: []*models.Step{
					{
						StepNumber:    1,
						Name:          "Editor Review",
						StepType:      models.StepTypeReview,
						Assignees:     models.AssigneeSpec{Type: models.AssigneeTypeRole, Roles: []string{"editor"}},
						IsRequired:    true,
						AllowComments: true,
					},
				},
			},
		},
		{
			ID:          "content-publication",
			Name:        "Content Publication",
			Description: "Editor review followed by manager approval, with a one business day SLA on the approval.",
			Workflow: &models.Workflow{
				Name:                  "Content Publication",
				ApplicableCollections: []string{"blogs"},
				Steps: []*models.Step{
					{
						StepNumber:    1,
						Name:          "Editor Review",
						StepType:      models.StepTypeReview,
						Assignees:     models.AssigneeSpec{Type: models.AssigneeTypeRole, Roles: []string{"editor"}},
						IsRequired:    true,
						AllowComments: true,
					},
					{
						StepNumber: 2,
						Name:       "Manager Approval",
						StepType:   models.StepTypeApproval,
						Assignees:  models.AssigneeSpec{Type: models.AssigneeTypeManager},
						SLA: &models.SLA{
							Enabled:          true,
							Hours:            8,
							BusinessHours:    true,
							EscalationAction: models.EscalationReminder,
						},
						IsRequired:      true,
						AllowComments:   true,
						RequireComments: false,
					},
				},
			},
		},
		{
			ID:          "expense-approval",
			Name:        "Expense Approval",
			Description: "Requester's manager review, finance sign-off above a value threshold, and director approval for large amounts.",
			Workflow: &models.Workflow{
				Name:                  "Expense Approval",
				ApplicableCollections: []string{"expenses"},
				Steps: []*models.Step{
					{
						StepNumber:      1,
						Name:            "Manager Review",
						StepType:        models.StepTypeReview,
						Assignees:       models.AssigneeSpec{Type: models.AssigneeTypeManager},
						IsRequired:      true,
						AllowComments:   true,
						RequireComments: true,
					},
					{
						StepNumber: 2,
						Name:       "Finance Sign-off",
						StepType:   models.StepTypeSignoff,
						Assignees:  models.AssigneeSpec{Type: models.AssigneeTypeDepartment, Departments: []string{"finance"}},
						Conditions: []models.Condition{
							{Field: "amount", Operator: models.OpGt, Value: "1000"},
						},
						SLA: &models.SLA{
							Enabled:          true,
							Hours:            24,
							EscalationAction: models.EscalationManager,
						},
						IsRequired:    true,
						AllowComments: true,
					},
					{
						StepNumber: 3,
						Name:       "Director Approval",
						StepType:   models.StepTypeApproval,
						Assignees: models.AssigneeSpec{
							Type: models.AssigneeTypeDynamic,
							DynamicRules: []models.DynamicRule{
								{
									When:     models.Condition{Field: "amount", Operator: models.OpGt, Value: "10000"},
									AssignTo: "director",
								},
								{
									When:     models.Condition{Field: "amount", Operator: models.OpGt, Value: "0"},
									AssignTo: "manager",
								},
							},
						},
						SLA: &models.SLA{
							Enabled:          true,
							Hours:            48,
							EscalationAction: models.EscalationDirector,
						},
						IsRequired:    true,
						AllowComments: true,
					},
				},
			},
		},
	}
}
