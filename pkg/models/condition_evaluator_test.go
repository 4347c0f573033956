package models

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func testDocument(fields map[string]any) *Document {
	return &Document{
		ID:         "doc-1",
		Collection: "blogs",
		Title:      "Quarterly Report",
		CreatedBy:  "user-1",
		Fields:     fields,
	}
}

func TestConditionEvaluator_EvaluateAll_Vacuous(t *testing.T) {
	t.Parallel()

	evaluator := NewConditionEvaluator(slog.Default())

	assert.True(t, evaluator.EvaluateAll(nil, testDocument(nil)))
	assert.True(t, evaluator.EvaluateAll([]Condition{}, testDocument(nil)))
}

func TestConditionEvaluator_EvaluateAll_Conjunction(t *testing.T) {
	t.Parallel()

	evaluator := NewConditionEvaluator(slog.Default())
	doc := testDocument(map[string]any{"amount": 15000, "status": "draft"})

	conditions := []Condition{
		{Field: "amount", Operator: OpGt, Value: "10000"},
		{Field: "status", Operator: OpEq, Value: "draft"},
	}
	assert.True(t, evaluator.EvaluateAll(conditions, doc))

	conditions[1].Value = "published"
	assert.False(t, evaluator.EvaluateAll(conditions, doc))
}

func TestConditionEvaluator_NumericComparisons(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		fields    map[string]any
		condition Condition
		expected  bool
	}{
		{
			name:      "gt matches when coerced number exceeds threshold",
			fields:    map[string]any{"amount": 10001},
			condition: Condition{Field: "amount", Operator: OpGt, Value: "10000"},
			expected:  true,
		},
		{
			name:      "gt fails on equal value",
			fields:    map[string]any{"amount": 10000},
			condition: Condition{Field: "amount", Operator: OpGt, Value: "10000"},
			expected:  false,
		},
		{
			name:      "gt coerces string field value",
			fields:    map[string]any{"amount": "25000.50"},
			condition: Condition{Field: "amount", Operator: OpGt, Value: "10000"},
			expected:  true,
		},
		{
			name:      "gt on missing field is false",
			fields:    map[string]any{},
			condition: Condition{Field: "amount", Operator: OpGt, Value: "10000"},
			expected:  false,
		},
		{
			name:      "gt on non-numeric field is false",
			fields:    map[string]any{"amount": "lots"},
			condition: Condition{Field: "amount", Operator: OpGt, Value: "10000"},
			expected:  false,
		},
		{
			name:      "lte holds on boundary",
			fields:    map[string]any{"amount": 1000},
			condition: Condition{Field: "amount", Operator: OpLte, Value: "1000"},
			expected:  true,
		},
		{
			name:      "lt with float json value",
			fields:    map[string]any{"amount": float64(999)},
			condition: Condition{Field: "amount", Operator: OpLt, Value: "1000"},
			expected:  true,
		},
		{
			name:      "gte fails below threshold",
			fields:    map[string]any{"amount": 5},
			condition: Condition{Field: "amount", Operator: OpGte, Value: "10"},
			expected:  false,
		},
	}

	evaluator := NewConditionEvaluator(slog.Default())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result := evaluator.EvaluateAll([]Condition{tt.condition}, testDocument(tt.fields))
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestConditionEvaluator_EqualityCoercion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		fields    map[string]any
		condition Condition
		expected  bool
	}{
		{
			name:      "numeric eq across types",
			fields:    map[string]any{"amount": 100},
			condition: Condition{Field: "amount", Operator: OpEq, Value: "100"},
			expected:  true,
		},
		{
			name:      "numeric eq with float field",
			fields:    map[string]any{"amount": 100.0},
			condition: Condition{Field: "amount", Operator: OpEq, Value: "100"},
			expected:  true,
		},
		{
			name:      "boolean eq with bool field",
			fields:    map[string]any{"published": true},
			condition: Condition{Field: "published", Operator: OpEq, Value: "true"},
			expected:  true,
		},
		{
			name:      "boolean eq with string field",
			fields:    map[string]any{"published": "true"},
			condition: Condition{Field: "published", Operator: OpEq, Value: "true"},
			expected:  true,
		},
		{
			name:      "boolean ne",
			fields:    map[string]any{"published": false},
			condition: Condition{Field: "published", Operator: OpNe, Value: "true"},
			expected:  true,
		},
		{
			name:      "string eq is case sensitive",
			fields:    map[string]any{"status": "Draft"},
			condition: Condition{Field: "status", Operator: OpEq, Value: "draft"},
			expected:  false,
		},
		{
			name:      "ne on missing field matches",
			fields:    map[string]any{},
			condition: Condition{Field: "status", Operator: OpNe, Value: "draft"},
			expected:  true,
		},
		{
			name:      "numeric literal against non numeric field",
			fields:    map[string]any{"status": "draft"},
			condition: Condition{Field: "status", Operator: OpEq, Value: "42"},
			expected:  false,
		},
	}

	evaluator := NewConditionEvaluator(slog.Default())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result := evaluator.EvaluateAll([]Condition{tt.condition}, testDocument(tt.fields))
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestConditionEvaluator_StringOperators(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		fields    map[string]any
		condition Condition
		expected  bool
	}{
		{
			name:      "contains is case insensitive",
			fields:    map[string]any{"category": "Legal Review"},
			condition: Condition{Field: "category", Operator: OpContains, Value: "legal"},
			expected:  true,
		},
		{
			name:      "not_contains negates contains",
			fields:    map[string]any{"category": "Legal Review"},
			condition: Condition{Field: "category", Operator: OpNotContains, Value: "finance"},
			expected:  true,
		},
		{
			name:      "not_contains on missing field matches",
			fields:    map[string]any{},
			condition: Condition{Field: "category", Operator: OpNotContains, Value: "finance"},
			expected:  true,
		},
		{
			name:      "starts_with is case insensitive",
			fields:    map[string]any{"summary": "DRAFT: budget"},
			condition: Condition{Field: "summary", Operator: OpStartsWith, Value: "draft"},
			expected:  true,
		},
		{
			name:      "starts_with on synthetic title",
			fields:    nil,
			condition: Condition{Field: "title", Operator: OpStartsWith, Value: "quarterly"},
			expected:  true,
		},
		{
			name:      "ends_with",
			fields:    map[string]any{"filename": "contract.PDF"},
			condition: Condition{Field: "filename", Operator: OpEndsWith, Value: ".pdf"},
			expected:  true,
		},
	}

	evaluator := NewConditionEvaluator(slog.Default())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result := evaluator.EvaluateAll([]Condition{tt.condition}, testDocument(tt.fields))
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestConditionEvaluator_ListOperators(t *testing.T) {
	t.Parallel()

	evaluator := NewConditionEvaluator(slog.Default())

	in := Condition{Field: "department", Operator: OpIn, MultipleValues: []string{"a", "b"}}
	notIn := Condition{Field: "department", Operator: OpNotIn, MultipleValues: []string{"a", "b"}}

	for _, value := range []string{"a", "b"} {
		doc := testDocument(map[string]any{"department": value})
		assert.True(t, evaluator.EvaluateAll([]Condition{in}, doc), "in should match %q", value)
		assert.False(t, evaluator.EvaluateAll([]Condition{notIn}, doc), "not_in should reject %q", value)
	}

	doc := testDocument(map[string]any{"department": "c"})
	assert.False(t, evaluator.EvaluateAll([]Condition{in}, doc))
	assert.True(t, evaluator.EvaluateAll([]Condition{notIn}, doc))

	// Per-element coercion applies to list membership too.
	numeric := Condition{Field: "amount", Operator: OpIn, MultipleValues: []string{"10", "20"}}
	assert.True(t, evaluator.EvaluateAll([]Condition{numeric}, testDocument(map[string]any{"amount": 20})))
}

func TestConditionEvaluator_EmptinessOperators(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		fields    map[string]any
		condition Condition
		expected  bool
	}{
		{
			name:      "is_empty on missing field",
			fields:    map[string]any{},
			condition: Condition{Field: "tags", Operator: OpIsEmpty},
			expected:  true,
		},
		{
			name:      "is_empty on blank string",
			fields:    map[string]any{"tags": "   "},
			condition: Condition{Field: "tags", Operator: OpIsEmpty},
			expected:  true,
		},
		{
			name:      "is_empty on empty list",
			fields:    map[string]any{"tags": []any{}},
			condition: Condition{Field: "tags", Operator: OpIsEmpty},
			expected:  true,
		},
		{
			name:      "is_not_empty on populated list",
			fields:    map[string]any{"tags": []any{"x"}},
			condition: Condition{Field: "tags", Operator: OpIsNotEmpty},
			expected:  true,
		},
		{
			name:      "is_null on missing field",
			fields:    map[string]any{},
			condition: Condition{Field: "reviewer", Operator: OpIsNull},
			expected:  true,
		},
		{
			name:      "is_null on explicit nil",
			fields:    map[string]any{"reviewer": nil},
			condition: Condition{Field: "reviewer", Operator: OpIsNull},
			expected:  true,
		},
		{
			name:      "is_not_null on zero value",
			fields:    map[string]any{"reviewer": ""},
			condition: Condition{Field: "reviewer", Operator: OpIsNotNull},
			expected:  true,
		},
	}

	evaluator := NewConditionEvaluator(slog.Default())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result := evaluator.EvaluateAll([]Condition{tt.condition}, testDocument(tt.fields))
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestConditionEvaluator_NestedFieldPath(t *testing.T) {
	t.Parallel()

	evaluator := NewConditionEvaluator(slog.Default())
	doc := testDocument(map[string]any{
		"vendor": map[string]any{
			"address": map[string]any{"country": "DE"},
		},
	})

	nested := Condition{Field: "vendor.address.country", Operator: OpEq, Value: "DE"}
	assert.True(t, evaluator.EvaluateAll([]Condition{nested}, doc))

	missing := Condition{Field: "vendor.address.zip", Operator: OpEq, Value: "10115"}
	assert.False(t, evaluator.EvaluateAll([]Condition{missing}, doc))

	throughScalar := Condition{Field: "vendor.address.country.code", Operator: OpEq, Value: "DE"}
	assert.False(t, evaluator.EvaluateAll([]Condition{throughScalar}, doc))
}

func TestConditionEvaluator_UnknownOperator(t *testing.T) {
	t.Parallel()

	evaluator := NewConditionEvaluator(slog.Default())
	doc := testDocument(map[string]any{"status": "draft"})

	// Unknown operators degrade to a non-match, they never panic or error.
	condition := Condition{Field: "status", Operator: Operator("matches_regex"), Value: ".*"}
	assert.False(t, evaluator.EvaluateAll([]Condition{condition}, doc))
}
