// Package repository contains data access layer abstractions.
// Implementations live in subpackages; postgres is the only one.
package repository

import "supplierportal/internal/model"

// PageQuery holds limit/offset pagination parameters.
type PageQuery struct {
	Limit  int
	Offset int
}

// PageResult is a generic pagination result wrapper.
type PageResult[T any] struct {
	Items []T
	Total int
}

// Transition is an accepted status change ready to be persisted. The status
// update is conditional on From; the history entry is written in the same
// transaction.
type Transition struct {
	From            model.Status
	To              model.Status
	Entry           model.HistoryEntry
	VendorNumber    *string
	RejectionReason *string
	// Payload, when set, replaces the stored draft content as part of the
	// transition (submit).
	Payload *model.ApplicationPayload
}
