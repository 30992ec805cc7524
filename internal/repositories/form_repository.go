package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"

	"turcrm/internal/models"
)

type FormRepository interface {
	Create(ctx context.Context, f *models.Form) error
	GetByID(ctx context.Context, id int64) (*models.Form, error)
	List(ctx context.Context) ([]*models.Form, error)
	Update(ctx context.Context, f *models.Form) error
	Delete(ctx context.Context, id int64) error

	ListFields(ctx context.Context, formID int64) ([]*models.FormField, error)
	GetField(ctx context.Context, id int64) (*models.FormField, error)
	CreateField(ctx context.Context, f *models.FormField) error
	UpdateField(ctx context.Context, f *models.FormField) error
	DeleteField(ctx context.Context, id int64) error
	ReorderFields(ctx context.Context, formID int64, ids []int64) error

	CreateSubmission(ctx context.Context, s *models.FormSubmission) error
	ListSubmissions(ctx context.Context, formID int64) ([]*models.FormSubmission, error)
}

type formRepository struct {
	db *sql.DB
}

func NewFormRepository(db *sql.DB) FormRepository {
	return &formRepository{db: db}
}

func (r *formRepository) Create(ctx context.Context, f *models.Form) error {
	const q = `
		INSERT INTO forms (name, description, is_active)
		VALUES ($1,$2,$3)
		RETURNING id, created_at, updated_at`
	if err := r.db.QueryRowContext(ctx, q, f.Name, f.Description, f.IsActive).
		Scan(&f.ID, &f.CreatedAt, &f.UpdatedAt); err != nil {
		return fmt.Errorf("create form: %w", err)
	}
	return nil
}

// GetByID возвращает форму вместе с полями в порядке sort_order.
func (r *formRepository) GetByID(ctx context.Context, id int64) (*models.Form, error) {
	const q = `SELECT id, name, description, is_active, created_at, updated_at FROM forms WHERE id=$1`
	var f models.Form
	err := r.db.QueryRowContext(ctx, q, id).
		Scan(&f.ID, &f.Name, &f.Description, &f.IsActive, &f.CreatedAt, &f.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get form: %w", err)
	}
	fields, err := r.ListFields(ctx, id)
	if err != nil {
		return nil, err
	}
	f.Fields = fields
	return &f, nil
}

func (r *formRepository) List(ctx context.Context) ([]*models.Form, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, description, is_active, created_at, updated_at FROM forms ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list forms: %w", err)
	}
	defer rows.Close()

	out := []*models.Form{}
	for rows.Next() {
		var f models.Form
		if err := rows.Scan(&f.ID, &f.Name, &f.Description, &f.IsActive, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan form: %w", err)
		}
		f.Fields = []*models.FormField{}
		out = append(out, &f)
	}
	return out, rows.Err()
}

func (r *formRepository) Update(ctx context.Context, f *models.Form) error {
	const q = `UPDATE forms SET name=$1, description=$2, is_active=$3, updated_at=NOW() WHERE id=$4`
	if _, err := r.db.ExecContext(ctx, q, f.Name, f.Description, f.IsActive, f.ID); err != nil {
		return fmt.Errorf("update form: %w", err)
	}
	return nil
}

func (r *formRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM forms WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete form: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

const fieldColumns = `id, form_id, key, label, type, required, sort_order, options, placeholder`

func scanField(row rowScanner) (*models.FormField, error) {
	var (
		f       models.FormField
		options []string
	)
	err := row.Scan(&f.ID, &f.FormID, &f.Key, &f.Label, &f.Type, &f.Required, &f.Order,
		pq.Array(&options), &f.Placeholder)
	if err != nil {
		return nil, err
	}
	if options == nil {
		options = []string{}
	}
	f.Options = options
	return &f, nil
}

func (r *formRepository) ListFields(ctx context.Context, formID int64) ([]*models.FormField, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+fieldColumns+` FROM form_fields WHERE form_id=$1 ORDER BY sort_order, id`, formID)
	if err != nil {
		return nil, fmt.Errorf("list fields: %w", err)
	}
	defer rows.Close()

	out := []*models.FormField{}
	for rows.Next() {
		f, err := scanField(rows)
		if err != nil {
			return nil, fmt.Errorf("scan field: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (r *formRepository) GetField(ctx context.Context, id int64) (*models.FormField, error) {
	f, err := scanField(r.db.QueryRowContext(ctx, `SELECT `+fieldColumns+` FROM form_fields WHERE id=$1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get field: %w", err)
	}
	return f, nil
}

// CreateField добавляет поле в конец формы.
func (r *formRepository) CreateField(ctx context.Context, f *models.FormField) error {
	const q = `
		INSERT INTO form_fields (form_id, key, label, type, required, sort_order, options, placeholder)
		VALUES ($1,$2,$3,$4,$5,
			(SELECT COALESCE(MAX(sort_order)+1, 0) FROM form_fields WHERE form_id=$1),
			$6,$7)
		RETURNING id, sort_order`
	err := r.db.QueryRowContext(ctx, q,
		f.FormID, f.Key, f.Label, f.Type, f.Required, pq.Array(f.Options), f.Placeholder,
	).Scan(&f.ID, &f.Order)
	if err != nil {
		return fmt.Errorf("create field: %w", err)
	}
	return nil
}

func (r *formRepository) UpdateField(ctx context.Context, f *models.FormField) error {
	const q = `
		UPDATE form_fields
		SET key=$1, label=$2, type=$3, required=$4, options=$5, placeholder=$6
		WHERE id=$7`
	_, err := r.db.ExecContext(ctx, q,
		f.Key, f.Label, f.Type, f.Required, pq.Array(f.Options), f.Placeholder, f.ID)
	if err != nil {
		return fmt.Errorf("update field: %w", err)
	}
	return nil
}

func (r *formRepository) DeleteField(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM form_fields WHERE id=$1`, id); err != nil {
		return fmt.Errorf("delete field: %w", err)
	}
	return nil
}

// ReorderFields делает один UPDATE на весь список, порядок поля = его индекс в ids.
func (r *formRepository) ReorderFields(ctx context.Context, formID int64, ids []int64) error {
	const q = `
		UPDATE form_fields f
		SET sort_order = o.ord - 1
		FROM unnest($2::bigint[]) WITH ORDINALITY AS o(id, ord)
		WHERE f.id = o.id AND f.form_id = $1`
	res, err := r.db.ExecContext(ctx, q, formID, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("reorder fields: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reorder fields: %w", err)
	}
	if int(n) != len(ids) {
		return fmt.Errorf("reorder fields: updated %d of %d", n, len(ids))
	}
	return nil
}

func (r *formRepository) CreateSubmission(ctx context.Context, s *models.FormSubmission) error {
	var leadID any
	if s.LeadID != nil {
		leadID = *s.LeadID
	}
	const q = `
		INSERT INTO form_submissions (form_id, data, lead_id)
		VALUES ($1,$2,$3)
		RETURNING id, created_at`
	if err := r.db.QueryRowContext(ctx, q, s.FormID, []byte(s.Data), leadID).
		Scan(&s.ID, &s.CreatedAt); err != nil {
		return fmt.Errorf("create submission: %w", err)
	}
	return nil
}

func (r *formRepository) ListSubmissions(ctx context.Context, formID int64) ([]*models.FormSubmission, error) {
	const q = `
		SELECT id, form_id, data, lead_id, created_at
		FROM form_submissions WHERE form_id=$1 ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, q, formID)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	defer rows.Close()

	out := []*models.FormSubmission{}
	for rows.Next() {
		var (
			s      models.FormSubmission
			data   []byte
			leadID sql.NullInt64
		)
		if err := rows.Scan(&s.ID, &s.FormID, &data, &leadID, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		s.Data = json.RawMessage(data)
		if leadID.Valid {
			id := leadID.Int64
			s.LeadID = &id
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}
