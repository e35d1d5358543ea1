package status

import (
	"supplierportal/internal/apperr"
	"supplierportal/internal/model"
)

// rule is one row of a transition table. An empty to means the destination
// is decided by the machine at fire time.
type rule[S ~string] struct {
	action  model.Action
	from    S
	roles   []model.Role
	to      S
	comment bool
	owner   bool
}

type table[S ~string] []rule[S]

func (t table[S]) rulesFor(from S, action model.Action) []rule[S] {
	var out []rule[S]
	for _, r := range t {
		if r.from == from && r.action == action {
			out = append(out, r)
		}
	}
	return out
}

// authorize picks the rule that lets role perform action from state from.
func (t table[S]) authorize(from S, action model.Action, role model.Role) (rule[S], error) {
	rules := t.rulesFor(from, action)
	if len(rules) == 0 {
		return rule[S]{}, apperr.Policy("%s is not permitted from %s", action, from)
	}
	for _, r := range rules {
		if hasRole(r.roles, role) {
			return r, nil
		}
	}
	return rule[S]{}, apperr.Policy("role %q may not %s from %s", role, action, from)
}

func (t table[S]) actions(from S, role model.Role) []model.Action {
	var out []model.Action
	seen := map[model.Action]bool{}
	for _, r := range t {
		if r.from == from && hasRole(r.roles, role) && !seen[r.action] {
			seen[r.action] = true
			out = append(out, r.action)
		}
	}
	return out
}

func (t table[S]) actionable(from S, role model.Role) bool {
	for _, r := range t {
		if r.from == from && hasRole(r.roles, role) {
			return true
		}
	}
	return false
}

func (t table[S]) terminal(from S) bool {
	for _, r := range t {
		if r.from == from {
			return false
		}
	}
	return true
}

func hasRole(roles []model.Role, role model.Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
