package models

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

// ConditionEvaluator matches condition lists against documents. It is a pure
// predicate over its inputs: no I/O, no mutation, and it never fails.
// Malformed input degrades to "no match".
type ConditionEvaluator struct {
	logger *slog.Logger
}

func NewConditionEvaluator(logger *slog.Logger) *ConditionEvaluator {
	if logger == nil {
		logger = slog.Default()
	}

	return &ConditionEvaluator{logger: logger.With("module", "condition_evaluator")}
}

// EvaluateAll returns true iff every condition holds against the document.
// An empty condition list is vacuously true; there is no disjunction.
func (e *ConditionEvaluator) EvaluateAll(conditions []Condition, doc *Document) bool {
	for _, condition := range conditions {
		value, present := doc.FieldByPath(condition.Field)
		if !e.EvaluateValue(value, present, condition) {
			return false
		}
	}

	return true
}

// EvaluateValue applies a single condition to an already-extracted field
// value. present reports whether the field path resolved at all; an absent
// field is "no match" for the positive operators, matches the negated ones,
// and counts as empty/null for the emptiness operators.
func (e *ConditionEvaluator) EvaluateValue(value any, present bool, condition Condition) bool {
	switch condition.Operator {
	case OpEq:
		return present && equalsCoerced(value, condition.Value)
	case OpNe:
		return !(present && equalsCoerced(value, condition.Value))
	case OpGt:
		return compareNumeric(value, condition.Value, present, func(a, b float64) bool { return a > b })
	case OpLt:
		return compareNumeric(value, condition.Value, present, func(a, b float64) bool { return a < b })
	case OpGte:
		return compareNumeric(value, condition.Value, present, func(a, b float64) bool { return a >= b })
	case OpLte:
		return compareNumeric(value, condition.Value, present, func(a, b float64) bool { return a <= b })
	case OpContains:
		return present && containsFold(stringify(value), condition.Value)
	case OpNotContains:
		return !(present && containsFold(stringify(value), condition.Value))
	case OpStartsWith:
		return present && strings.HasPrefix(foldCase(stringify(value)), foldCase(condition.Value))
	case OpEndsWith:
		return present && strings.HasSuffix(foldCase(stringify(value)), foldCase(condition.Value))
	case OpIn:
		return present && inList(value, condition.MultipleValues)
	case OpNotIn:
		return !(present && inList(value, condition.MultipleValues))
	case OpIsEmpty:
		return isEmpty(value, present)
	case OpIsNotEmpty:
		return !isEmpty(value, present)
	case OpIsNull:
		return !present || value == nil
	case OpIsNotNull:
		return present && value != nil
	default:
		e.logger.Warn("Unknown condition operator", "operator", string(condition.Operator), "field", condition.Field)

		return false
	}
}

// equalsCoerced compares a live field value with a string literal using the
// coercion policy: numeric when either side is numeric-like, boolean when
// either side is a boolean literal, plain string comparison otherwise.
func equalsCoerced(value any, literal string) bool {
	if fieldNum, ok := toNumber(value); ok {
		if literalNum, err := strconv.ParseFloat(strings.TrimSpace(literal), 64); err == nil {
			return fieldNum == literalNum
		}
	} else if isNumericLiteral(literal) {
		// Literal is numeric but the field value is not coercible.
		return false
	}

	if isBoolLiteral(literal) || isBoolValue(value) {
		return truthy(value) == (strings.EqualFold(strings.TrimSpace(literal), "true"))
	}

	return stringify(value) == literal
}

func compareNumeric(value any, literal string, present bool, cmp func(a, b float64) bool) bool {
	if !present {
		return false
	}

	fieldNum, ok := toNumber(value)
	if !ok {
		return false
	}

	literalNum, err := strconv.ParseFloat(strings.TrimSpace(literal), 64)
	if err != nil {
		return false
	}

	return cmp(fieldNum, literalNum)
}

func inList(value any, list []string) bool {
	for _, candidate := range list {
		if equalsCoerced(value, candidate) {
			return true
		}
	}

	return false
}

func isEmpty(value any, present bool) bool {
	if !present || value == nil {
		return true
	}

	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v) == ""
	case []any:
		return len(v) == 0
	case []string:
		return len(v) == 0
	case map[string]any:
		return len(v) == 0
	default:
		return false
	}
}

func toNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}

		return n, true
	default:
		return 0, false
	}
}

func isNumericLiteral(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}

	_, err := strconv.ParseFloat(s, 64)

	return err == nil
}

func isBoolLiteral(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))

	return s == "true" || s == "false"
}

func isBoolValue(value any) bool {
	_, ok := value.(bool)

	return ok
}

func truthy(value any) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(strings.TrimSpace(v), "true")
	case nil:
		return false
	default:
		if n, ok := toNumber(value); ok {
			return n != 0
		}

		return false
	}
}

func stringify(value any) string {
	if value == nil {
		return ""
	}

	if s, ok := value.(string); ok {
		return s
	}

	return fmt.Sprint(value)
}

func foldCase(s string) string {
	return strings.ToLower(s)
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(foldCase(haystack), foldCase(needle))
}
