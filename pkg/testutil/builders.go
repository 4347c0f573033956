// Package testutil provides test data builders and utilities for testing.
package testutil

import (
	"time"

	"github.com/google/uuid"

	"github.com/anilrana004/Workline/pkg/models"
)

// CreateTestWorkflow creates an active two-step approval workflow with
// default values that can be overridden.
func CreateTestWorkflow(overrides ...func(*models.Workflow)) *models.Workflow {
	workflow := &models.Workflow{
		ID:                    uuid.New().String(),
		Name:                  "Test Approval",
		Description:           "Two step approval for tests",
		IsActive:              true,
		ApplicableCollections: []string{"blogs"},
		Steps: []*models.Step{
			{
				StepNumber: 1,
				Name:       "Editor Review",
				StepType:   models.StepTypeReview,
				Assignees:  models.AssigneeSpec{Type: models.AssigneeTypeRole, Roles: []string{"editor"}},
				IsRequired: true,
			},
			{
				StepNumber: 2,
				Name:       "Manager Approval",
				StepType:   models.StepTypeApproval,
				Assignees:  models.AssigneeSpec{Type: models.AssigneeTypeRole, Roles: []string{"manager"}},
				IsRequired: true,
			},
		},
		CreatedBy: "admin",
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	for _, override := range overrides {
		override(workflow)
	}

	return workflow
}

// WithSteps replaces the workflow's steps.
func WithSteps(steps ...*models.Step) func(*models.Workflow) {
	return func(w *models.Workflow) {
		w.Steps = steps
	}
}

// WithCollections sets the applicable collections.
func WithCollections(collections ...string) func(*models.Workflow) {
	return func(w *models.Workflow) {
		w.ApplicableCollections = collections
	}
}

// WithInactive deactivates the workflow.
func WithInactive() func(*models.Workflow) {
	return func(w *models.Workflow) {
		w.IsActive = false
	}
}

// CreateTestDocument creates a blog document with default values that can
// be overridden.
func CreateTestDocument(overrides ...func(*models.Document)) *models.Document {
	document := &models.Document{
		ID:         uuid.New().String(),
		Collection: "blogs",
		Title:      "Test Post",
		CreatedBy:  "author-1",
		Fields:     map[string]any{"status": "draft"},
		CreatedAt:  time.Now().UTC(),
		UpdatedAt:  time.Now().UTC(),
	}

	for _, override := range overrides {
		override(document)
	}

	return document
}

// WithFields sets the document's opaque field map.
func WithFields(fields map[string]any) func(*models.Document) {
	return func(d *models.Document) {
		d.Fields = fields
	}
}

// WithCreatedBy sets the document author.
func WithCreatedBy(userID string) func(*models.Document) {
	return func(d *models.Document) {
		d.CreatedBy = userID
	}
}

// CreateTestUser creates an active editor with default values that can be
// overridden.
func CreateTestUser(overrides ...func(*models.User)) *models.User {
	user := &models.User{
		ID:        uuid.New().String(),
		Name:      "Test User",
		Email:     "user@example.com",
		Role:      "editor",
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	for _, override := range overrides {
		override(user)
	}

	return user
}

// WithRole sets the user's role.
func WithRole(role string) func(*models.User) {
	return func(u *models.User) {
		u.Role = role
	}
}

// WithDepartment sets the user's department.
func WithDepartment(department string) func(*models.User) {
	return func(u *models.User) {
		u.Department = department
	}
}

// WithManager sets the user's manager reference.
func WithManager(managerID string) func(*models.User) {
	return func(u *models.User) {
		u.Manager = managerID
	}
}

// WithInactiveUser deactivates the user.
func WithInactiveUser() func(*models.User) {
	return func(u *models.User) {
		u.IsActive = false
	}
}
