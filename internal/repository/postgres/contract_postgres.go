package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"supplierportal/internal/apperr"
	"supplierportal/internal/database"
	"supplierportal/internal/model"
	"supplierportal/internal/repository"
)

const contractColumns = `id, application_id, title, starts_at, ends_at, status, version, created_at, updated_at`

// ContractPostgres is a PostgreSQL implementation of repository.ContractRepository.
type ContractPostgres struct {
	db *sql.DB
}

func NewContractPostgres(db *sql.DB) *ContractPostgres {
	return &ContractPostgres{db: db}
}

var _ repository.ContractRepository = (*ContractPostgres)(nil)

func scanContract(s scanner) (*model.Contract, error) {
	var (
		c      model.Contract
		status string
	)
	if err := s.Scan(&c.ID, &c.ApplicationID, &c.Title, &c.StartsAt, &c.EndsAt, &status, &c.Version, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.Status = model.ContractStatus(status)
	c.History = []model.HistoryEntry{}
	return &c, nil
}

func (r *ContractPostgres) Create(ctx context.Context, c *model.Contract) (*model.Contract, error) {
	q := `
		INSERT INTO contracts (application_id, title, starts_at, ends_at, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + contractColumns
	return scanContract(r.db.QueryRowContext(ctx, q, c.ApplicationID, c.Title, c.StartsAt, c.EndsAt, string(c.Status)))
}

func (r *ContractPostgres) FindByID(ctx context.Context, id string) (*model.Contract, error) {
	c, err := scanContract(r.db.QueryRowContext(ctx, `SELECT `+contractColumns+` FROM contracts WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	history, err := loadHistory(ctx, r.db, subjectContract, id)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	c.History = history
	return c, nil
}

func (r *ContractPostgres) ListByApplication(ctx context.Context, applicationID string) ([]model.Contract, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+contractColumns+` FROM contracts WHERE application_id = $1 ORDER BY created_at DESC, id DESC`, applicationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Contract, 0)
	for rows.Next() {
		c, err := scanContract(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (r *ContractPostgres) Transition(ctx context.Context, id string, from, to model.ContractStatus, entry model.HistoryEntry) error {
	return database.InTx(ctx, r.db, func(tx *sql.Tx) error {
		const q = `
			UPDATE contracts
			SET status = $3, version = version + 1, updated_at = now()
			WHERE id = $1 AND status = $2
		`
		res, err := tx.ExecContext(ctx, q, id, string(from), string(to))
		if err != nil {
			return fmt.Errorf("update contract status: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			var actual string
			if err := tx.QueryRowContext(ctx, `SELECT status FROM contracts WHERE id = $1`, id).Scan(&actual); err != nil {
				return notFound(err)
			}
			return &apperr.ConflictError{Message: "contract status changed", Expected: string(from), Actual: actual}
		}
		return insertHistory(ctx, tx, subjectContract, id, entry)
	})
}
