package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"supplierportal/internal/apperr"
	"supplierportal/internal/database"
	"supplierportal/internal/model"
	"supplierportal/internal/repository"
)

const applicationColumns = `id, owner_id, status, current_step, fields, files, file_lists, vendor_number, rejection_reason, version, created_at, updated_at`

// ApplicationPostgres is a PostgreSQL implementation of repository.ApplicationRepository.
type ApplicationPostgres struct {
	db *sql.DB
}

// NewApplicationPostgres creates a new ApplicationPostgres repository.
func NewApplicationPostgres(db *sql.DB) *ApplicationPostgres {
	return &ApplicationPostgres{db: db}
}

var _ repository.ApplicationRepository = (*ApplicationPostgres)(nil)

func scanApplication(s scanner) (*model.Application, error) {
	var (
		a                         model.Application
		status                    string
		fields, files, fileLists  []byte
		vendorNumber, rejectionRn sql.NullString
	)
	if err := s.Scan(
		&a.ID,
		&a.OwnerID,
		&status,
		&a.CurrentStep,
		&fields,
		&files,
		&fileLists,
		&vendorNumber,
		&rejectionRn,
		&a.Version,
		&a.CreatedAt,
		&a.UpdatedAt,
	); err != nil {
		return nil, err
	}
	a.Status = model.Status(status)
	a.VendorNumber = stringPtr(vendorNumber)
	a.RejectionReason = stringPtr(rejectionRn)

	a.Fields = map[string]any{}
	a.Files = map[string]*string{}
	a.FileLists = map[string][]string{}
	if err := unmarshalNonEmpty(fields, &a.Fields); err != nil {
		return nil, fmt.Errorf("decode fields: %w", err)
	}
	if err := unmarshalNonEmpty(files, &a.Files); err != nil {
		return nil, fmt.Errorf("decode files: %w", err)
	}
	if err := unmarshalNonEmpty(fileLists, &a.FileLists); err != nil {
		return nil, fmt.Errorf("decode file_lists: %w", err)
	}
	a.ApprovalHistory = []model.HistoryEntry{}
	return &a, nil
}

func unmarshalNonEmpty(b []byte, v any) error {
	if len(b) == 0 {
		return nil
	}
	return json.Unmarshal(b, v)
}

type encodedPayload struct {
	fields, files, fileLists string
}

func encodePayload(fields map[string]any, files map[string]*string, fileLists map[string][]string) (encodedPayload, error) {
	var (
		out encodedPayload
		err error
	)
	if out.fields, err = jsonb(fields); err != nil {
		return out, fmt.Errorf("encode fields: %w", err)
	}
	if out.files, err = jsonb(files); err != nil {
		return out, fmt.Errorf("encode files: %w", err)
	}
	if out.fileLists, err = jsonb(fileLists); err != nil {
		return out, fmt.Errorf("encode file_lists: %w", err)
	}
	return out, nil
}

// Create inserts a new application row and returns the stored record.
func (r *ApplicationPostgres) Create(ctx context.Context, app *model.Application) (*model.Application, error) {
	enc, err := encodePayload(app.Fields, app.Files, app.FileLists)
	if err != nil {
		return nil, err
	}
	q := `
		INSERT INTO applications (owner_id, status, current_step, fields, files, file_lists)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + applicationColumns
	out, err := scanApplication(r.db.QueryRowContext(ctx, q,
		app.OwnerID,
		string(app.Status),
		app.CurrentStep,
		enc.fields,
		enc.files,
		enc.fileLists,
	))
	if err != nil {
		return nil, err
	}
	return out, nil
}

// FindByID fetches an application and its history.
func (r *ApplicationPostgres) FindByID(ctx context.Context, id string) (*model.Application, error) {
	q := `SELECT ` + applicationColumns + ` FROM applications WHERE id = $1`
	app, err := scanApplication(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		return nil, notFound(err)
	}
	history, err := loadHistory(ctx, r.db, subjectApplication, id)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	app.ApprovalHistory = history
	return app, nil
}

// UpdateDraft replaces draft content while the row is still a draft.
func (r *ApplicationPostgres) UpdateDraft(ctx context.Context, id string, p model.ApplicationPayload) (*model.Application, error) {
	enc, err := encodePayload(p.Fields, p.Files, p.FileLists)
	if err != nil {
		return nil, err
	}
	q := `
		UPDATE applications
		SET current_step = $2, fields = $3, files = $4, file_lists = $5, version = version + 1, updated_at = now()
		WHERE id = $1 AND status = 'draft'
		RETURNING ` + applicationColumns
	app, err := scanApplication(r.db.QueryRowContext(ctx, q, id, p.CurrentStep, enc.fields, enc.files, enc.fileLists))
	if err == nil {
		return app, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	return nil, explainMiss(ctx, r.db, id, model.StatusDraft)
}

// explainMiss tells a missing row apart from one whose status moved on.
func explainMiss(ctx context.Context, q rowQueryer, id string, expected model.Status) error {
	var actual string
	if err := q.QueryRowContext(ctx, `SELECT status FROM applications WHERE id = $1`, id).Scan(&actual); err != nil {
		return notFound(err)
	}
	return &apperr.ConflictError{
		Message:  "application status changed",
		Expected: string(expected),
		Actual:   actual,
	}
}

// ListByOwner returns an applicant's applications, newest first.
func (r *ApplicationPostgres) ListByOwner(ctx context.Context, ownerID string, pq repository.PageQuery) (*repository.PageResult[model.Application], error) {
	return r.list(ctx, `owner_id = $1`, `ORDER BY created_at DESC, id DESC`, []any{ownerID}, pq)
}

// ListByStatus returns applications in any of statuses, oldest first so the
// longest-waiting task comes up first. Approved records that already carry a
// vendor number are left out; nothing more can happen to them.
func (r *ApplicationPostgres) ListByStatus(ctx context.Context, statuses []model.Status, pq repository.PageQuery) (*repository.PageResult[model.Application], error) {
	if len(statuses) == 0 {
		return &repository.PageResult[model.Application]{Items: []model.Application{}}, nil
	}
	placeholders := make([]string, len(statuses))
	args := make([]any, len(statuses))
	for i, s := range statuses {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = string(s)
	}
	where := `status IN (` + strings.Join(placeholders, ", ") + `) AND NOT (status = 'approved' AND vendor_number IS NOT NULL)`
	return r.list(ctx, where, `ORDER BY updated_at ASC, id ASC`, args, pq)
}

func (r *ApplicationPostgres) list(ctx context.Context, where, order string, args []any, pq repository.PageQuery) (*repository.PageResult[model.Application], error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM applications WHERE `+where, args...).Scan(&total); err != nil {
		return nil, err
	}

	n := len(args)
	q := fmt.Sprintf(`SELECT %s FROM applications WHERE %s %s LIMIT $%d OFFSET $%d`, applicationColumns, where, order, n+1, n+2)
	rows, err := r.db.QueryContext(ctx, q, append(args, pq.Limit, pq.Offset)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Application, 0)
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *app)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &repository.PageResult[model.Application]{Items: items, Total: total}, nil
}

// Transition applies a checked status change and its history entry in one
// transaction. The update only matches while the stored status is t.From
// and, when a vendor number is being set, none is stored yet.
func (r *ApplicationPostgres) Transition(ctx context.Context, id string, t repository.Transition) error {
	return database.InTx(ctx, r.db, func(tx *sql.Tx) error {
		var (
			res sql.Result
			err error
		)
		if t.Payload != nil {
			enc, encErr := encodePayload(t.Payload.Fields, t.Payload.Files, t.Payload.FileLists)
			if encErr != nil {
				return encErr
			}
			const q = `
				UPDATE applications
				SET status = $3, vendor_number = COALESCE($4, vendor_number), rejection_reason = COALESCE($5, rejection_reason),
				    current_step = $6, fields = $7, files = $8, file_lists = $9, version = version + 1, updated_at = now()
				WHERE id = $1 AND status = $2 AND ($4::text IS NULL OR vendor_number IS NULL)
			`
			res, err = tx.ExecContext(ctx, q, id, string(t.From), string(t.To),
				nullString(t.VendorNumber), nullString(t.RejectionReason),
				t.Payload.CurrentStep, enc.fields, enc.files, enc.fileLists)
		} else {
			const q = `
				UPDATE applications
				SET status = $3, vendor_number = COALESCE($4, vendor_number), rejection_reason = COALESCE($5, rejection_reason),
				    version = version + 1, updated_at = now()
				WHERE id = $1 AND status = $2 AND ($4::text IS NULL OR vendor_number IS NULL)
			`
			res, err = tx.ExecContext(ctx, q, id, string(t.From), string(t.To),
				nullString(t.VendorNumber), nullString(t.RejectionReason))
		}
		if err != nil {
			return fmt.Errorf("update status: %w", err)
		}

		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return explainMiss(ctx, tx, id, t.From)
		}
		return insertHistory(ctx, tx, subjectApplication, id, t.Entry)
	})
}
