package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"turcrm/internal/models"
)

type LeadRepository interface {
	Create(ctx context.Context, lead *models.Lead) error
	GetByID(ctx context.Context, id int64) (*models.Lead, error)
	Update(ctx context.Context, lead *models.Lead) error
	UpdateStatus(ctx context.Context, id int64, upd models.LeadStatusUpdate) error
	UpdateWithStatus(ctx context.Context, lead *models.Lead, upd models.LeadStatusUpdate) error
	SetArchived(ctx context.Context, id int64, archived bool) error
	UpdateSelectedCities(ctx context.Context, id int64, cities []string) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter models.LeadFilter) ([]*models.Lead, int, error)
	CountByStatus(ctx context.Context) (map[models.LeadStatus]int, error)
	CountByEvent(ctx context.Context, eventID int64) (int, error)
}

type leadRepository struct {
	db *sql.DB
}

func NewLeadRepository(db *sql.DB) LeadRepository {
	return &leadRepository{db: db}
}

const leadColumns = `id, first_name, last_name, middle_name, phone, email, comment, source,
	status, outcome_type, postpone_reason, postponed_until, failure_reason,
	is_archived, has_been_contacted, color, event_id, selected_cities,
	cost, advance, remainder, currency, owner_id, created_at, updated_at`

func scanLead(row rowScanner) (*models.Lead, error) {
	var (
		l        models.Lead
		outcome  sql.NullString
		postpone sql.NullString
		until    sql.NullTime
		failure  sql.NullString
		color    sql.NullString
		eventID  sql.NullInt64
		cities   []string
	)
	err := row.Scan(
		&l.ID, &l.FirstName, &l.LastName, &l.MiddleName, &l.Phone, &l.Email, &l.Comment, &l.Source,
		&l.Status, &outcome, &postpone, &until, &failure,
		&l.IsArchived, &l.HasBeenContacted, &color, &eventID, pq.Array(&cities),
		&l.Cost, &l.Advance, &l.Remainder, &l.Currency, &l.OwnerID, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if outcome.Valid {
		ot := models.OutcomeType(outcome.String)
		l.OutcomeType = &ot
	}
	l.PostponeReason = strOut(postpone)
	l.PostponedUntil = dateOut(until)
	l.FailureReason = strOut(failure)
	l.Color = strOut(color)
	if eventID.Valid {
		id := eventID.Int64
		l.EventID = &id
	}
	if cities == nil {
		cities = []string{}
	}
	l.SelectedCities = cities
	return &l, nil
}

func outcomeIn(ot *models.OutcomeType) any {
	if ot == nil {
		return nil
	}
	return string(*ot)
}

func eventIn(id *int64) any {
	if id == nil || *id == 0 {
		return nil
	}
	return *id
}

func (r *leadRepository) Create(ctx context.Context, lead *models.Lead) error {
	const q = `
		INSERT INTO leads (
			first_name, last_name, middle_name, phone, email, comment, source,
			status, outcome_type, postpone_reason, postponed_until, failure_reason,
			is_archived, has_been_contacted, color, event_id, selected_cities,
			cost, advance, remainder, currency, owner_id
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22)
		RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, q,
		lead.FirstName, lead.LastName, lead.MiddleName, lead.Phone, lead.Email, lead.Comment, lead.Source,
		lead.Status, outcomeIn(lead.OutcomeType), strIn(lead.PostponeReason), dateIn(lead.PostponedUntil), strIn(lead.FailureReason),
		lead.IsArchived, lead.HasBeenContacted, strIn(lead.Color), eventIn(lead.EventID), pq.Array(lead.SelectedCities),
		lead.Cost, lead.Advance, lead.Remainder, lead.Currency, lead.OwnerID,
	).Scan(&lead.ID, &lead.CreatedAt, &lead.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create lead: %w", err)
	}
	return nil
}

func (r *leadRepository) GetByID(ctx context.Context, id int64) (*models.Lead, error) {
	q := `SELECT ` + leadColumns + ` FROM leads WHERE id=$1`
	lead, err := scanLead(r.db.QueryRowContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get lead: %w", err)
	}
	return lead, nil
}

// Update пишет всё, кроме статуса и полей исхода: они меняются только через UpdateStatus.
// execer: *sql.DB или *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (r *leadRepository) Update(ctx context.Context, lead *models.Lead) error {
	return updateLead(ctx, r.db, lead)
}

func (r *leadRepository) UpdateStatus(ctx context.Context, id int64, upd models.LeadStatusUpdate) error {
	return updateLeadStatus(ctx, r.db, id, upd)
}

// UpdateWithStatus пишет поля и статус одной транзакцией: PATCH либо применяется
// целиком, либо никак.
func (r *leadRepository) UpdateWithStatus(ctx context.Context, lead *models.Lead, upd models.LeadStatusUpdate) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if err := updateLead(ctx, tx, lead); err != nil {
		return err
	}
	if err := updateLeadStatus(ctx, tx, lead.ID, upd); err != nil {
		return err
	}
	return tx.Commit()
}

func updateLead(ctx context.Context, ex execer, lead *models.Lead) error {
	const q = `
		UPDATE leads
		SET first_name=$1, last_name=$2, middle_name=$3, phone=$4, email=$5, comment=$6, source=$7,
		    color=$8, event_id=$9, selected_cities=$10,
		    cost=$11, advance=$12, remainder=$13, currency=$14, owner_id=$15, updated_at=NOW()
		WHERE id=$16`
	_, err := ex.ExecContext(ctx, q,
		lead.FirstName, lead.LastName, lead.MiddleName, lead.Phone, lead.Email, lead.Comment, lead.Source,
		strIn(lead.Color), eventIn(lead.EventID), pq.Array(lead.SelectedCities),
		lead.Cost, lead.Advance, lead.Remainder, lead.Currency, lead.OwnerID, lead.ID,
	)
	if err != nil {
		return fmt.Errorf("update lead: %w", err)
	}
	return nil
}

func updateLeadStatus(ctx context.Context, ex execer, id int64, upd models.LeadStatusUpdate) error {
	const q = `
		UPDATE leads
		SET status=$1, outcome_type=$2, postpone_reason=$3, postponed_until=$4, failure_reason=$5,
		    has_been_contacted=$6, updated_at=NOW()
		WHERE id=$7`
	_, err := ex.ExecContext(ctx, q,
		upd.Status, outcomeIn(upd.OutcomeType), strIn(upd.PostponeReason), dateIn(upd.PostponedUntil), strIn(upd.FailureReason),
		upd.HasBeenContacted, id,
	)
	if err != nil {
		return fmt.Errorf("update lead status: %w", err)
	}
	return nil
}

func (r *leadRepository) SetArchived(ctx context.Context, id int64, archived bool) error {
	const q = `UPDATE leads SET is_archived=$1, updated_at=NOW() WHERE id=$2`
	if _, err := r.db.ExecContext(ctx, q, archived, id); err != nil {
		return fmt.Errorf("archive lead: %w", err)
	}
	return nil
}

func (r *leadRepository) UpdateSelectedCities(ctx context.Context, id int64, cities []string) error {
	const q = `UPDATE leads SET selected_cities=$1, updated_at=NOW() WHERE id=$2`
	if _, err := r.db.ExecContext(ctx, q, pq.Array(cities), id); err != nil {
		return fmt.Errorf("update selected cities: %w", err)
	}
	return nil
}

func (r *leadRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM leads WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete lead: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete lead: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *leadRepository) List(ctx context.Context, f models.LeadFilter) ([]*models.Lead, int, error) {
	where := " WHERE 1=1"
	args := []any{}
	i := 1

	switch {
	case f.Archived:
		where += " AND is_archived = TRUE"
	case !f.IncludeArchived:
		where += " AND is_archived = FALSE"
	}
	if f.Status != nil {
		where += fmt.Sprintf(" AND status = $%d", i)
		args = append(args, *f.Status)
		i++
	}
	if f.EventID != nil {
		where += fmt.Sprintf(" AND event_id = $%d", i)
		args = append(args, *f.EventID)
		i++
	}
	if f.OwnerID != nil {
		where += fmt.Sprintf(" AND owner_id = $%d", i)
		args = append(args, *f.OwnerID)
		i++
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		where += fmt.Sprintf(
			" AND (first_name ILIKE $%d OR last_name ILIKE $%d OR phone ILIKE $%d OR email ILIKE $%d)",
			i, i, i, i,
		)
		args = append(args, "%"+q+"%")
		i++
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM leads`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count leads: %w", err)
	}

	query := `SELECT ` + leadColumns + ` FROM leads` + where + " ORDER BY created_at DESC"
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", i, i+1)
		args = append(args, f.Limit, f.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()

	out := []*models.Lead{}
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan lead: %w", err)
		}
		out = append(out, l)
	}
	return out, total, rows.Err()
}

func (r *leadRepository) CountByStatus(ctx context.Context) (map[models.LeadStatus]int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM leads WHERE is_archived = FALSE GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.LeadStatus]int)
	for rows.Next() {
		var (
			status models.LeadStatus
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

func (r *leadRepository) CountByEvent(ctx context.Context, eventID int64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM leads WHERE event_id=$1`, eventID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count leads by event: %w", err)
	}
	return n, nil
}
