package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supplierportal/internal/apperr"
)

func TestWorkflow(t *testing.T) {
	reg := prometheus.NewRegistry()
	w, err := NewWorkflow(reg)
	require.NoError(t, err)

	w.Transition(SubjectApplication, "approve", "pending_legal")
	w.Transition(SubjectApplication, "approve", "pending_legal")
	assert.Equal(t, float64(2), testutil.ToFloat64(w.transitions.WithLabelValues("application", "approve", "pending_legal")))

	w.Refusal(SubjectApplication, "reject", apperr.Policy("a comment is required"))
	w.Refusal(SubjectContract, "activate", &apperr.ConflictError{Message: "moved"})
	w.Refusal(SubjectApplication, "submit", errors.New("db down"))
	assert.Equal(t, float64(1), testutil.ToFloat64(w.refusals.WithLabelValues("application", "reject", "policy")))
	assert.Equal(t, float64(1), testutil.ToFloat64(w.refusals.WithLabelValues("contract", "activate", "conflict")))
	assert.Equal(t, 2, testutil.CollectAndCount(w.refusals))

	_, err = NewWorkflow(reg)
	assert.Error(t, err, "second registration on the same registry")
}

func TestWorkflow_Nil(t *testing.T) {
	var w *Workflow
	assert.NotPanics(t, func() {
		w.Transition(SubjectApplication, "submit", "pending_procurement")
		w.Refusal(SubjectApplication, "submit", apperr.Validation("x"))
	})
}

func TestReason(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{apperr.Validation("x"), "validation"},
		{&apperr.ConflictError{}, "conflict"},
		{apperr.Policy("x"), "policy"},
		{apperr.ErrNotFound, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Reason(tt.err))
	}
}
