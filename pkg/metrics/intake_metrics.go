package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SubmissionTransitions counts lifecycle transitions by target status.
	SubmissionTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "intake_submission_transitions_total",
		Help: "Number of intake submission lifecycle transitions.",
	}, []string{"to_status"})

	// ResponsesChanged counts response rows created or updated by respondent saves.
	ResponsesChanged = promauto.NewCounter(prometheus.CounterOpts{
		Name: "intake_responses_changed_total",
		Help: "Number of intake response values created or updated.",
	})

	// TokenRejections counts respondent requests refused by the token validator.
	TokenRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "intake_token_rejections_total",
		Help: "Number of respondent requests rejected at token validation.",
	}, []string{"reason"})
)
