package models

// Operator is the comparison applied by a condition.
type Operator string

const (
	OpEq          Operator = "eq"
	OpNe          Operator = "ne"
	OpGt          Operator = "gt"
	OpLt          Operator = "lt"
	OpGte         Operator = "gte"
	OpLte         Operator = "lte"
	OpContains    Operator = "contains"
	OpNotContains Operator = "not_contains"
	OpStartsWith  Operator = "starts_with"
	OpEndsWith    Operator = "ends_with"
	OpIn          Operator = "in"
	OpNotIn       Operator = "not_in"
	OpIsEmpty     Operator = "is_empty"
	OpIsNotEmpty  Operator = "is_not_empty"
	OpIsNull      Operator = "is_null"
	OpIsNotNull   Operator = "is_not_null"
)

// Condition is a single field/operator/value predicate matched against a
// document. Field is a dot-path into the document's fields. MultipleValues is
// only consulted by the in/not_in operators.
type Condition struct {
	Field          string   `json:"field"    validate:"required"`
	Operator       Operator `json:"operator" validate:"required"`
	Value          string   `json:"value"`
	MultipleValues []string `json:"multiple_values,omitempty"`
}

// Operators lists every operator the evaluator understands, in the order the
// admin UI presents them.
func Operators() []Operator {
	return []Operator{
		OpEq, OpNe, OpGt, OpLt, OpGte, OpLte,
		OpContains, OpNotContains, OpStartsWith, OpEndsWith,
		OpIn, OpNotIn,
		OpIsEmpty, OpIsNotEmpty, OpIsNull, OpIsNotNull,
	}
}
