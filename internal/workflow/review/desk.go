// Package review is the reviewer side of the workflow: it holds one fetched
// application, checks actions against the status machine before calling the
// server, and reloads the record after every accepted transition.
package review

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"supplierportal/internal/apperr"
	"supplierportal/internal/model"
	"supplierportal/internal/workflow/status"
)

var (
	// ErrNotOpen is returned when an action runs before Open.
	ErrNotOpen = errors.New("no application is open")
	// ErrStale is returned after a conflict until the record is refreshed.
	ErrStale = errors.New("application changed since it was loaded; refresh before acting")
)

// Collaborator performs reviewer transitions on the server.
type Collaborator interface {
	GetByID(ctx context.Context, id string) (*model.Application, error)
	Approve(ctx context.Context, id string, in model.TransitionInput) error
	Reject(ctx context.Context, id string, in model.TransitionInput) error
	RequestInfo(ctx context.Context, id string, in model.TransitionInput) error
	AssignVendorNumber(ctx context.Context, id string, in model.TransitionInput) error
}

// Desk is one reviewer's view of one application.
type Desk struct {
	store   Collaborator
	machine *status.Machine
	actor   model.Actor

	mu    sync.Mutex
	app   *model.Application
	stale bool
}

// New returns a Desk acting as actor. A nil machine uses the default routing;
// routing only matters on the server, the local check is about guards.
func New(store Collaborator, machine *status.Machine, actor model.Actor) *Desk {
	if machine == nil {
		machine = status.NewMachine(nil)
	}
	return &Desk{store: store, machine: machine, actor: actor}
}

// Open fetches the application to review.
func (d *Desk) Open(ctx context.Context, id string) error {
	app, err := d.store.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("open application %s: %w", id, err)
	}
	d.mu.Lock()
	d.app = app
	d.stale = false
	d.mu.Unlock()
	return nil
}

// Refresh refetches the open application and clears the stale mark.
func (d *Desk) Refresh(ctx context.Context) error {
	d.mu.Lock()
	app := d.app
	d.mu.Unlock()
	if app == nil {
		return ErrNotOpen
	}
	return d.Open(ctx, app.ID)
}

// Application returns a copy of the record as last fetched.
func (d *Desk) Application() *model.Application {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.app == nil {
		return nil
	}
	cp := *d.app
	cp.ApprovalHistory = append([]model.HistoryEntry(nil), d.app.ApprovalHistory...)
	return &cp
}

// Stale reports whether the last action hit a conflict.
func (d *Desk) Stale() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stale
}

// AllowedActions lists what the reviewer may do now. A stale view allows
// nothing.
func (d *Desk) AllowedActions() []model.Action {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.app == nil || d.stale {
		return nil
	}
	return status.AllowedActions(d.app, d.actor)
}

func (d *Desk) Approve(ctx context.Context, comments string) error {
	return d.act(ctx, model.ActionApprove, model.TransitionInput{Comments: comments})
}

func (d *Desk) Reject(ctx context.Context, reason string) error {
	return d.act(ctx, model.ActionReject, model.TransitionInput{Comments: reason})
}

func (d *Desk) RequestInfo(ctx context.Context, comments string) error {
	return d.act(ctx, model.ActionRequestInfo, model.TransitionInput{Comments: comments})
}

func (d *Desk) AssignVendorNumber(ctx context.Context, vendorNumber string) error {
	return d.act(ctx, model.ActionAssignVendorNumber, model.TransitionInput{VendorNumber: vendorNumber})
}

func (d *Desk) act(ctx context.Context, action model.Action, in model.TransitionInput) error {
	d.mu.Lock()
	app, stale := d.app, d.stale
	d.mu.Unlock()
	if app == nil {
		return ErrNotOpen
	}
	if stale {
		return ErrStale
	}
	in.ExpectedStatus = string(app.Status)

	if _, err := d.machine.Fire(app, status.Request{
		Action:       action,
		Actor:        d.actor,
		Comments:     in.Comments,
		VendorNumber: in.VendorNumber,
	}); err != nil {
		return err
	}

	var err error
	switch action {
	case model.ActionApprove:
		err = d.store.Approve(ctx, app.ID, in)
	case model.ActionReject:
		err = d.store.Reject(ctx, app.ID, in)
	case model.ActionRequestInfo:
		err = d.store.RequestInfo(ctx, app.ID, in)
	case model.ActionAssignVendorNumber:
		err = d.store.AssignVendorNumber(ctx, app.ID, in)
	default:
		return apperr.Policy("%s is not a reviewer action", action)
	}
	if err != nil {
		if apperr.IsConflict(err) {
			d.mu.Lock()
			d.stale = true
			d.mu.Unlock()
		}
		return fmt.Errorf("%s application %s: %w", action, app.ID, err)
	}
	return d.Refresh(ctx)
}
