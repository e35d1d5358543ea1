// Package metrics exposes workflow counters: accepted transitions and refused
// attempts by error class.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"supplierportal/internal/apperr"
)

// Subjects of a transition.
const (
	SubjectApplication = "application"
	SubjectContract    = "contract"
)

// Workflow counts transitions. A nil *Workflow records nothing.
type Workflow struct {
	transitions *prometheus.CounterVec
	refusals    *prometheus.CounterVec
}

// NewWorkflow registers the workflow counters on reg.
func NewWorkflow(reg prometheus.Registerer) (*Workflow, error) {
	w := &Workflow{
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "workflow_transitions_total",
				Help: "Accepted status transitions.",
			},
			[]string{"subject", "action", "to"},
		),
		refusals: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "workflow_refusals_total",
				Help: "Refused transition attempts by error class.",
			},
			[]string{"subject", "action", "reason"},
		),
	}
	for _, c := range []prometheus.Collector{w.transitions, w.refusals} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return w, nil
}

// Transition records an accepted transition.
func (w *Workflow) Transition(subject, action, to string) {
	if w == nil {
		return
	}
	w.transitions.WithLabelValues(subject, action, to).Inc()
}

// Refusal records a failed attempt. Errors outside the workflow taxonomy are
// not counted.
func (w *Workflow) Refusal(subject, action string, err error) {
	if w == nil {
		return
	}
	if reason := Reason(err); reason != "" {
		w.refusals.WithLabelValues(subject, action, reason).Inc()
	}
}

// Reason classifies err as validation, conflict or policy. Anything else is "".
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case apperr.IsValidation(err):
		return "validation"
	case apperr.IsConflict(err):
		return "conflict"
	case apperr.IsPolicy(err):
		return "policy"
	}
	return ""
}
