package repository

import (
	"context"

	"supplierportal/internal/model"
)

// ContractRepository persists contracts and their history.
type ContractRepository interface {
	Create(ctx context.Context, c *model.Contract) (*model.Contract, error)
	FindByID(ctx context.Context, id string) (*model.Contract, error)
	ListByApplication(ctx context.Context, applicationID string) ([]model.Contract, error)

	// Transition moves the contract from one status to another and appends
	// entry, conditional on the stored status still being from.
	Transition(ctx context.Context, id string, from, to model.ContractStatus, entry model.HistoryEntry) error
}
