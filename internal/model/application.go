package model

import "time"

// Application is a supplier record while it moves through onboarding.
// Fields holds the flat scalar attributes of every form step; file slots are
// split into single-valued Files and ordered FileLists.
type Application struct {
	ID              string              `json:"id"`
	OwnerID         string              `json:"owner_id"`
	Status          Status              `json:"status"`
	CurrentStep     int                 `json:"current_step"`
	Fields          map[string]any      `json:"fields"`
	Files           map[string]*string  `json:"files"`
	FileLists       map[string][]string `json:"file_lists"`
	VendorNumber    *string             `json:"vendor_number"`
	RejectionReason *string             `json:"rejection_reason"`
	ApprovalHistory []HistoryEntry      `json:"approval_history"`
	Documents       []Document          `json:"documents,omitempty"`
	Version         int                 `json:"version"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// HistoryEntry records one status transition. Entries are never edited once
// appended.
type HistoryEntry struct {
	Action     Action    `json:"action"`
	ActorID    string    `json:"actor_id"`
	ActorRole  Role      `json:"actor_role"`
	FromStatus string    `json:"from_status"`
	ToStatus   string    `json:"to_status"`
	Timestamp  time.Time `json:"timestamp"`
	Comments   string    `json:"comments,omitempty"`
}

// ApplicationPayload is the full snapshot a draft save transmits. The server
// replaces the stored draft with it.
type ApplicationPayload struct {
	Status      Status              `json:"status"`
	CurrentStep int                 `json:"current_step"`
	Fields      map[string]any      `json:"fields"`
	Files       map[string]*string  `json:"files"`
	FileLists   map[string][]string `json:"file_lists"`
}

// TransitionInput carries the optional inputs of a reviewer action.
// ExpectedStatus is the status the caller saw; when set, the action is
// refused with a conflict if the stored status has moved on.
type TransitionInput struct {
	Comments       string `json:"comments,omitempty"`
	VendorNumber   string `json:"vendor_number,omitempty"`
	ExpectedStatus string `json:"expected_status,omitempty"`
}

// StaleStatus reports whether ExpectedStatus is set and differs from actual.
func (in TransitionInput) StaleStatus(actual string) bool {
	return in.ExpectedStatus != "" && in.ExpectedStatus != actual
}
