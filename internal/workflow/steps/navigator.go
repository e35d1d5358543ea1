// Package steps moves an applicant through the linear form, saving the draft
// at every transition so progress survives a reload.
package steps

import (
	"context"
	"errors"
	"fmt"

	"supplierportal/internal/apperr"
	"supplierportal/internal/model"
	"supplierportal/internal/workflow/draft"
	"supplierportal/internal/workflow/form"
)

// ErrFirstStep is returned by Retreat on the first step.
var ErrFirstStep = errors.New("already on the first step")

// ErrReloadAfterSubmit wraps a failed reload that followed an accepted
// submission. The application is submitted; only the local copy is behind.
var ErrReloadAfterSubmit = errors.New("application submitted but reloading it failed")

// Step is one position in the form.
type Step struct {
	Index int
	Name  string
}

// All lists the form steps in order.
func All() []Step {
	out := make([]Step, len(form.StepNames))
	for i, name := range form.StepNames {
		out[i] = Step{Index: i, Name: name}
	}
	return out
}

// Navigator tracks the visible step for one draft.
type Navigator struct {
	draft     *draft.Manager
	validator *form.Validator
	current   int
}

// New starts on the draft's resume step.
func New(d *draft.Manager, v *form.Validator) *Navigator {
	if v == nil {
		v = form.NewValidator()
	}
	return &Navigator{draft: d, validator: v, current: d.CurrentStep()}
}

// Resume loads a persisted record and jumps to its saved step. An out of
// range step starts the form from the beginning.
func (n *Navigator) Resume(rec *model.Application) {
	n.draft.Load(rec)
	n.current = n.draft.CurrentStep()
}

func (n *Navigator) Current() Step {
	return Step{Index: n.current, Name: form.StepNames[n.current]}
}

func (n *Navigator) IsFirst() bool { return n.current == 0 }

func (n *Navigator) IsTerminal() bool { return n.current == form.StepCount()-1 }

// Validate checks what the current step needs before it can be left forward.
// On the terminal step that is the whole submission.
func (n *Navigator) Validate() error {
	if n.IsTerminal() {
		return n.validator.Submission(n.draft.Values(), n.draft.AttachedDocuments())
	}
	return n.validator.Step(n.draft.Values(), n.current)
}

// CanAdvance reports whether Advance would pass validation.
func (n *Navigator) CanAdvance() bool {
	return n.draft.Status() == model.StatusDraft && !n.draft.Saving() && n.Validate() == nil
}

// Advance validates the current step, saves with the next step as resume
// point and only then moves forward. On the terminal step it submits
// instead. The pointer does not move when anything fails.
func (n *Navigator) Advance(ctx context.Context) error {
	if err := n.editable(); err != nil {
		return err
	}
	if err := n.Validate(); err != nil {
		return err
	}
	if n.IsTerminal() {
		return n.submit(ctx)
	}

	next := n.current + 1
	if err := n.draft.Save(ctx, next); err != nil {
		return err
	}
	n.current = next
	return nil
}

// Retreat saves with the previous step as resume point and moves back.
// Partial data is kept without validation.
func (n *Navigator) Retreat(ctx context.Context) error {
	if n.IsFirst() {
		return ErrFirstStep
	}
	if err := n.editable(); err != nil {
		return err
	}
	prev := n.current - 1
	if err := n.draft.Save(ctx, prev); err != nil {
		return err
	}
	n.current = prev
	return nil
}

func (n *Navigator) submit(ctx context.Context) error {
	if _, err := n.draft.Submit(ctx, n.current); err != nil {
		return err
	}
	if err := n.draft.Refresh(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrReloadAfterSubmit, err)
	}
	return nil
}

func (n *Navigator) editable() error {
	if s := n.draft.Status(); s != model.StatusDraft {
		return apperr.Policy("application is %s and can no longer be edited", s)
	}
	return nil
}
