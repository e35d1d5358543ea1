package model

// Status is the lifecycle state of a supplier application.
// The set is closed; ParseStatus rejects anything else.
type Status string

const (
	StatusDraft              Status = "draft"
	StatusSubmitted          Status = "submitted"
	StatusPendingProcurement Status = "pending_procurement"
	StatusPendingLegal       Status = "pending_legal"
	StatusMoreInfoRequired   Status = "more_info_required"
	StatusApproved           Status = "approved"
	StatusRejected           Status = "rejected"
)

// Statuses lists every application status in lifecycle order.
var Statuses = []Status{
	StatusDraft,
	StatusSubmitted,
	StatusPendingProcurement,
	StatusPendingLegal,
	StatusMoreInfoRequired,
	StatusApproved,
	StatusRejected,
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	for _, v := range Statuses {
		if v == s {
			return true
		}
	}
	return false
}

// ContractStatus is the lifecycle state of a supplier contract.
type ContractStatus string

const (
	ContractDraft      ContractStatus = "draft"
	ContractActive     ContractStatus = "active"
	ContractExpired    ContractStatus = "expired"
	ContractTerminated ContractStatus = "terminated"
	ContractRenewed    ContractStatus = "renewed"
)

// Role identifies what an authenticated actor may do.
type Role string

const (
	RoleApplicant   Role = "applicant"
	RoleProcurement Role = "procurement"
	RoleLegal       Role = "legal"
	RoleAdmin       Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleApplicant, RoleProcurement, RoleLegal, RoleAdmin:
		return true
	}
	return false
}

// Action names a transition. It is what gets recorded in history entries.
type Action string

const (
	ActionSubmit             Action = "submit"
	ActionApprove            Action = "approve"
	ActionReject             Action = "reject"
	ActionRequestInfo        Action = "request_info"
	ActionAssignVendorNumber Action = "assign_vendor_number"

	ActionActivate  Action = "activate"
	ActionExpire    Action = "expire"
	ActionTerminate Action = "terminate"
	ActionRenew     Action = "renew"
)

// Actor is the authenticated caller of an operation.
type Actor struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}
