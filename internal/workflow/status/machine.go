// Package status holds the application and contract state machines: the
// legal states, the role-gated transition tables, and the history entries
// each transition produces.
//
// Firing a transition is pure. It returns an Outcome that the caller persists
// (state and history together) and then applies with Apply.
package status

import (
	"strings"
	"time"

	"supplierportal/internal/apperr"
	"supplierportal/internal/model"
)

var applicationRules = table[model.Status]{
	{action: model.ActionSubmit, from: model.StatusDraft, roles: roles(model.RoleApplicant), to: model.StatusPendingProcurement, owner: true},

	{action: model.ActionApprove, from: model.StatusSubmitted, roles: roles(model.RoleProcurement)},
	{action: model.ActionApprove, from: model.StatusPendingProcurement, roles: roles(model.RoleProcurement)},
	{action: model.ActionApprove, from: model.StatusMoreInfoRequired, roles: roles(model.RoleProcurement)},
	{action: model.ActionApprove, from: model.StatusPendingLegal, roles: roles(model.RoleLegal), to: model.StatusApproved},

	{action: model.ActionReject, from: model.StatusPendingProcurement, roles: roles(model.RoleProcurement), to: model.StatusRejected, comment: true},
	{action: model.ActionReject, from: model.StatusPendingLegal, roles: roles(model.RoleLegal), to: model.StatusRejected, comment: true},

	{action: model.ActionRequestInfo, from: model.StatusSubmitted, roles: roles(model.RoleProcurement), to: model.StatusMoreInfoRequired, comment: true},
	{action: model.ActionRequestInfo, from: model.StatusPendingProcurement, roles: roles(model.RoleProcurement), to: model.StatusMoreInfoRequired, comment: true},
	{action: model.ActionRequestInfo, from: model.StatusPendingLegal, roles: roles(model.RoleLegal), to: model.StatusMoreInfoRequired, comment: true},

	{action: model.ActionAssignVendorNumber, from: model.StatusApproved, roles: roles(model.RoleProcurement), to: model.StatusApproved},
}

func roles(rs ...model.Role) []model.Role { return rs }

// Request describes a transition attempt.
type Request struct {
	Action            model.Action
	Actor             model.Actor
	Comments          string
	VendorNumber      string
	AttachedDocuments int
}

// Outcome is the full effect of an accepted transition.
type Outcome struct {
	From            model.Status
	To              model.Status
	Entry           model.HistoryEntry
	VendorNumber    *string
	RejectionReason *string
}

// Machine fires application transitions.
type Machine struct {
	policy RoutingPolicy
	now    func() time.Time
}

// NewMachine returns a Machine using policy to route procurement approvals.
// A nil policy routes everything to legal review.
func NewMachine(policy RoutingPolicy) *Machine {
	if policy == nil {
		policy = AlwaysLegal()
	}
	return &Machine{policy: policy, now: time.Now}
}

// WithClock replaces the time source used for history timestamps.
func (m *Machine) WithClock(now func() time.Time) *Machine {
	m.now = now
	return m
}

// Fire checks req against the current state of app and returns what the
// transition does. app is not modified.
func (m *Machine) Fire(app *model.Application, req Request) (Outcome, error) {
	if app == nil {
		return Outcome{}, apperr.Validation("application is required")
	}
	if applicationRules.terminal(app.Status) {
		return Outcome{}, apperr.Policy("application is %s; no further transitions are permitted", app.Status)
	}

	r, err := applicationRules.authorize(app.Status, req.Action, req.Actor.Role)
	if err != nil {
		return Outcome{}, err
	}
	if r.owner && req.Actor.ID != app.OwnerID {
		return Outcome{}, apperr.Policy("only the applicant who owns the application may %s it", req.Action)
	}

	comments := strings.TrimSpace(req.Comments)
	if r.comment && comments == "" {
		return Outcome{}, apperr.Policy("a comment is required to %s", req.Action)
	}

	out := Outcome{From: app.Status, To: r.to}
	switch req.Action {
	case model.ActionSubmit:
		if req.AttachedDocuments < 1 {
			return Outcome{}, &apperr.ValidationError{
				Message: "at least one document must be attached before submitting",
				Fields:  map[string]string{"documents": "required"},
			}
		}
	case model.ActionApprove:
		if out.To == "" {
			out.To = model.StatusApproved
			if m.policy(app) {
				out.To = model.StatusPendingLegal
			}
		}
	case model.ActionReject:
		reason := comments
		out.RejectionReason = &reason
	case model.ActionAssignVendorNumber:
		if app.VendorNumber != nil {
			return Outcome{}, apperr.Policy("vendor number %q is already assigned", *app.VendorNumber)
		}
		vn := strings.TrimSpace(req.VendorNumber)
		if vn == "" {
			return Outcome{}, apperr.Policy("a vendor number is required")
		}
		out.VendorNumber = &vn
	}

	out.Entry = model.HistoryEntry{
		Action:     req.Action,
		ActorID:    req.Actor.ID,
		ActorRole:  req.Actor.Role,
		FromStatus: string(out.From),
		ToStatus:   string(out.To),
		Timestamp:  m.now().UTC(),
		Comments:   comments,
	}
	return out, nil
}

// Apply writes an accepted outcome into app.
func Apply(app *model.Application, out Outcome) {
	app.Status = out.To
	if out.VendorNumber != nil {
		vn := *out.VendorNumber
		app.VendorNumber = &vn
	}
	if out.RejectionReason != nil {
		reason := *out.RejectionReason
		app.RejectionReason = &reason
	}
	app.ApprovalHistory = append(app.ApprovalHistory, out.Entry)
}

// IsActionableBy reports whether role has any transition from s. This is the
// "my tasks" filter.
func IsActionableBy(s model.Status, role model.Role) bool {
	return applicationRules.actionable(s, role)
}

// ActionableStatuses lists the statuses role can act on, in lifecycle order.
func ActionableStatuses(role model.Role) []model.Status {
	var out []model.Status
	for _, s := range model.Statuses {
		if IsActionableBy(s, role) {
			out = append(out, s)
		}
	}
	return out
}

// IsTerminal reports whether s has no outgoing transition.
func IsTerminal(s model.Status) bool {
	return applicationRules.terminal(s)
}

// AllowedActions lists what actor may do to app right now.
func AllowedActions(app *model.Application, actor model.Actor) []model.Action {
	if app == nil {
		return nil
	}
	var out []model.Action
	for _, a := range applicationRules.actions(app.Status, actor.Role) {
		switch a {
		case model.ActionSubmit:
			if actor.ID != app.OwnerID {
				continue
			}
		case model.ActionAssignVendorNumber:
			if app.VendorNumber != nil {
				continue
			}
		}
		out = append(out, a)
	}
	return out
}

// CanApprove reports whether actor may approve app in its current state.
func CanApprove(app *model.Application, actor model.Actor) bool {
	for _, a := range AllowedActions(app, actor) {
		if a == model.ActionApprove {
			return true
		}
	}
	return false
}
