package status

import (
	"strings"

	"supplierportal/internal/apperr"
	"supplierportal/internal/model"
)

var contractRules = table[model.ContractStatus]{
	{action: model.ActionActivate, from: model.ContractDraft, roles: roles(model.RoleProcurement, model.RoleAdmin), to: model.ContractActive},
	{action: model.ActionExpire, from: model.ContractActive, roles: roles(model.RoleProcurement, model.RoleAdmin), to: model.ContractExpired},
	{action: model.ActionTerminate, from: model.ContractActive, roles: roles(model.RoleProcurement, model.RoleLegal, model.RoleAdmin), to: model.ContractTerminated, comment: true},
	{action: model.ActionRenew, from: model.ContractActive, roles: roles(model.RoleProcurement, model.RoleAdmin), to: model.ContractRenewed},
	{action: model.ActionRenew, from: model.ContractExpired, roles: roles(model.RoleProcurement, model.RoleAdmin), to: model.ContractRenewed},
}

// ContractRequest describes a contract transition attempt. Supplier is the
// application the contract belongs to; activation requires it to be fully
// onboarded.
type ContractRequest struct {
	Action   model.Action
	Actor    model.Actor
	Comments string
	Supplier *model.Application
}

// ContractOutcome is the full effect of an accepted contract transition.
type ContractOutcome struct {
	From  model.ContractStatus
	To    model.ContractStatus
	Entry model.HistoryEntry
}

// FireContract checks req against the current state of c.
func (m *Machine) FireContract(c *model.Contract, req ContractRequest) (ContractOutcome, error) {
	if c == nil {
		return ContractOutcome{}, apperr.Validation("contract is required")
	}
	if contractRules.terminal(c.Status) {
		return ContractOutcome{}, apperr.Policy("contract is %s; no further transitions are permitted", c.Status)
	}
	r, err := contractRules.authorize(c.Status, req.Action, req.Actor.Role)
	if err != nil {
		return ContractOutcome{}, err
	}

	comments := strings.TrimSpace(req.Comments)
	if r.comment && comments == "" {
		return ContractOutcome{}, apperr.Policy("a comment is required to %s", req.Action)
	}
	if req.Action == model.ActionActivate && !IsOnboarded(req.Supplier) {
		return ContractOutcome{}, apperr.Policy("supplier must be approved with a vendor number before a contract is activated")
	}

	return ContractOutcome{
		From: c.Status,
		To:   r.to,
		Entry: model.HistoryEntry{
			Action:     req.Action,
			ActorID:    req.Actor.ID,
			ActorRole:  req.Actor.Role,
			FromStatus: string(c.Status),
			ToStatus:   string(r.to),
			Timestamp:  m.now().UTC(),
			Comments:   comments,
		},
	}, nil
}

// ApplyContract writes an accepted outcome into c.
func ApplyContract(c *model.Contract, out ContractOutcome) {
	c.Status = out.To
	c.History = append(c.History, out.Entry)
}

// IsOnboarded reports an approved application carrying a vendor number.
func IsOnboarded(app *model.Application) bool {
	return app != nil && app.Status == model.StatusApproved && app.VendorNumber != nil && *app.VendorNumber != ""
}

// ContractActions lists what role may do to a contract in state s.
func ContractActions(s model.ContractStatus, role model.Role) []model.Action {
	return contractRules.actions(s, role)
}
