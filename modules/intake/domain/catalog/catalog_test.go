package catalog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad_Default(t *testing.T) {
	r := Default()
	require.Equal(t, []string{"COMPLIANCE_REFRESH", "NEW_PROCESS_ROLLOUT", "PERFORMANCE_PROBLEM"}, r.TrainingTypes())

	questions, err := r.QuestionsFor("PERFORMANCE_PROBLEM")
	require.NoError(t, err)
	require.NotEmpty(t, questions)

	for i := 1; i < len(questions); i++ {
		require.LessOrEqual(t, questions[i-1].Order, questions[i].Order, "questions must stay in display order")
	}

	require.Equal(t, "Performance Problem Analysis", r.TrainingTypeLabel("PERFORMANCE_PROBLEM"))
}

func TestLoad_UnknownTrainingType(t *testing.T) {
	_, err := Default().QuestionsFor("UNKNOWN")
	require.ErrorIs(t, err, ErrUnknownTrainingType)
}

func TestLoad_RejectsUnknownOperator(t *testing.T) {
	_, err := Load(strings.NewReader(`
trainingTypes:
  T:
    label: T
    questions:
      - id: q1
        text: one
        fieldType: text
        required: true
        order: 1
      - id: q2
        text: two
        fieldType: text
        required: true
        order: 2
        conditional:
          questionId: q1
          operator: matches
          value: x
`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown operator")
}

func TestLoad_RejectsForwardReference(t *testing.T) {
	_, err := Load(strings.NewReader(`
trainingTypes:
  T:
    label: T
    questions:
      - id: q1
        text: one
        fieldType: text
        required: true
        order: 1
        conditional:
          questionId: q2
          operator: equals
          value: x
      - id: q2
        text: two
        fieldType: text
        required: true
        order: 2
`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "must appear earlier")
}

func TestLoad_RejectsChainedConditionals(t *testing.T) {
	_, err := Load(strings.NewReader(`
trainingTypes:
  T:
    label: T
    questions:
      - id: q1
        text: one
        fieldType: text
        required: true
        order: 1
      - id: q2
        text: two
        fieldType: text
        required: true
        order: 2
        conditional:
          questionId: q1
          operator: equals
          value: x
      - id: q3
        text: three
        fieldType: text
        required: true
        order: 3
        conditional:
          questionId: q2
          operator: equals
          value: y
`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "chained conditionals are unsupported")
}

func TestIsRequired(t *testing.T) {
	base := QuestionDef{ID: "q2", Required: true}
	conditional := func(op Operator, value string) QuestionDef {
		q := base
		q.Conditional = &Conditional{QuestionID: "q1", Operator: op, Value: value}
		return q
	}

	tests := []struct {
		name     string
		question QuestionDef
		answers  map[string]string
		want     bool
	}{
		{"optional question never required", QuestionDef{ID: "q", Required: false}, nil, false},
		{"unconditional required", base, nil, true},
		{"equals satisfied", conditional(OperatorEquals, "yes"), map[string]string{"q1": "yes"}, true},
		{"equals unsatisfied", conditional(OperatorEquals, "yes"), map[string]string{"q1": "no"}, false},
		{"equals missing answer", conditional(OperatorEquals, "yes"), map[string]string{}, false},
		{"not_equals satisfied", conditional(OperatorNotEquals, "no"), map[string]string{"q1": "yes"}, true},
		{"not_equals missing answer treated as empty", conditional(OperatorNotEquals, "no"), map[string]string{}, true},
		{"includes satisfied", conditional(OperatorIncludes, "lms"), map[string]string{"q1": "needs lms tracking"}, true},
		{"includes unsatisfied", conditional(OperatorIncludes, "lms"), map[string]string{"q1": "classroom only"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, IsRequired(tt.question, tt.answers))
		})
	}
}

func TestIsRequired_ConditionFalseOverridesRequiredFlag(t *testing.T) {
	q := QuestionDef{
		ID:       "q2",
		Required: true,
		Conditional: &Conditional{
			QuestionID: "q1",
			Operator:   OperatorEquals,
			Value:      "yes",
		},
	}
	require.False(t, IsRequired(q, map[string]string{"q1": "no"}))
}
