package repository

import (
	"context"

	"supplierportal/internal/model"
)

// ApplicationRepository persists applications and their approval history.
// No business logic here; transitions arrive already checked.
type ApplicationRepository interface {
	// Create inserts a new draft and returns it with database defaults filled.
	Create(ctx context.Context, app *model.Application) (*model.Application, error)

	// FindByID returns the application with its history, oldest entry first.
	FindByID(ctx context.Context, id string) (*model.Application, error)

	// UpdateDraft replaces the stored draft content. It fails with a
	// ConflictError when the row is no longer a draft.
	UpdateDraft(ctx context.Context, id string, payload model.ApplicationPayload) (*model.Application, error)

	// ListByOwner returns an applicant's applications, newest first.
	ListByOwner(ctx context.Context, ownerID string, pq PageQuery) (*PageResult[model.Application], error)

	// ListByStatus returns applications in any of statuses, oldest first,
	// skipping approved records that already have a vendor number.
	ListByStatus(ctx context.Context, statuses []model.Status, pq PageQuery) (*PageResult[model.Application], error)

	// Transition applies t atomically: state and history together or neither.
	Transition(ctx context.Context, id string, t Transition) error
}
