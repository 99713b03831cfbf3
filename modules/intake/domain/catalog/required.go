package catalog

import "strings"

// IsRequired decides whether a question is currently required, given a
// snapshot of all current answers. A conditional question is only ever
// required while its trigger condition holds, regardless of its own
// required flag. Missing answers are treated as empty strings.
func IsRequired(q QuestionDef, answers map[string]string) bool {
	if !q.Required {
		return false
	}
	if q.Conditional == nil {
		return true
	}

	current := answers[q.Conditional.QuestionID]
	switch q.Conditional.Operator {
	case OperatorEquals:
		return current == q.Conditional.Value
	case OperatorNotEquals:
		return current != q.Conditional.Value
	case OperatorIncludes:
		return strings.Contains(current, q.Conditional.Value)
	default:
		return false
	}
}
