package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"turcrm/internal/models"
)

type TouristRepository interface {
	ListByLead(ctx context.Context, leadID int64) ([]*models.Tourist, error)
	GetByID(ctx context.Context, id int64) (*models.Tourist, error)
	Create(ctx context.Context, t *models.Tourist) error
	Update(ctx context.Context, t *models.Tourist) error
	SetPrimary(ctx context.Context, leadID, touristID int64) error
	Delete(ctx context.Context, t *models.Tourist) error
	ListByEvent(ctx context.Context, eventID int64) ([]*models.EventTourist, error)
	CountByEvent(ctx context.Context, eventID int64) (int, error)
}

// ErrLastTourist: у заявки остался бы ноль туристов.
var ErrLastTourist = errors.New("cannot delete the only tourist of a lead")

type touristRepository struct {
	db *sql.DB
}

func NewTouristRepository(db *sql.DB) TouristRepository {
	return &touristRepository{db: db}
}

const touristColumns = `t.id, t.lead_id, t.last_name, t.first_name, t.middle_name, t.last_name_latin, t.first_name_latin,
	t.birth_date, t.passport_series, t.passport_number, t.passport_issued_at, t.passport_expires_at,
	t.passport_issued_by, t.citizenship, t.phone, t.email, t.visa_status, t.notes,
	t.is_primary, t.created_at, t.updated_at`

func scanTourist(row rowScanner, extra ...any) (*models.Tourist, error) {
	var (
		t                      models.Tourist
		birth, issued, expires sql.NullTime
	)
	dest := []any{
		&t.ID, &t.LeadID, &t.LastName, &t.FirstName, &t.MiddleName, &t.LastNameLatin, &t.FirstNameLatin,
		&birth, &t.PassportSeries, &t.PassportNumber, &issued, &expires,
		&t.PassportIssuer, &t.Citizenship, &t.Phone, &t.Email, &t.VisaStatus, &t.Notes,
		&t.IsPrimary, &t.CreatedAt, &t.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	t.BirthDate = dateOut(birth)
	t.PassportIssued = dateOut(issued)
	t.PassportExpires = dateOut(expires)
	return &t, nil
}

func (r *touristRepository) ListByLead(ctx context.Context, leadID int64) ([]*models.Tourist, error) {
	q := `SELECT ` + touristColumns + ` FROM tourists t
		WHERE t.lead_id=$1
		ORDER BY t.is_primary DESC, t.created_at, t.id`
	rows, err := r.db.QueryContext(ctx, q, leadID)
	if err != nil {
		return nil, fmt.Errorf("list tourists: %w", err)
	}
	defer rows.Close()

	out := []*models.Tourist{}
	for rows.Next() {
		t, err := scanTourist(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tourist: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *touristRepository) GetByID(ctx context.Context, id int64) (*models.Tourist, error) {
	q := `SELECT ` + touristColumns + ` FROM tourists t WHERE t.id=$1`
	t, err := scanTourist(r.db.QueryRowContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get tourist: %w", err)
	}
	return t, nil
}

// lockLead блокирует строку заявки до конца транзакции и считает её туристов.
// Параллельные Create/Delete по одной заявке идут строго по очереди.
func lockLead(ctx context.Context, tx *sql.Tx, leadID int64) (int, error) {
	var id int64
	if err := tx.QueryRowContext(ctx, `SELECT id FROM leads WHERE id=$1 FOR UPDATE`, leadID).Scan(&id); err != nil {
		return 0, fmt.Errorf("lock lead: %w", err)
	}
	var n int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM tourists WHERE lead_id=$1`, leadID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count tourists: %w", err)
	}
	return n, nil
}

// Create: первый турист заявки всегда основной. Если новый турист основной,
// в той же транзакции снимаем флаг с текущего.
func (r *touristRepository) Create(ctx context.Context, t *models.Tourist) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	count, err := lockLead(ctx, tx, t.LeadID)
	if err != nil {
		return err
	}
	if count == 0 {
		t.IsPrimary = true
	} else if t.IsPrimary {
		if _, err := tx.ExecContext(ctx,
			`UPDATE tourists SET is_primary=FALSE, updated_at=NOW() WHERE lead_id=$1 AND is_primary`,
			t.LeadID,
		); err != nil {
			return fmt.Errorf("demote primary: %w", err)
		}
	}

	const q = `
		INSERT INTO tourists (
			lead_id, last_name, first_name, middle_name, last_name_latin, first_name_latin,
			birth_date, passport_series, passport_number, passport_issued_at, passport_expires_at,
			passport_issued_by, citizenship, phone, email, visa_status, notes, is_primary
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
		RETURNING id, created_at, updated_at`
	err = tx.QueryRowContext(ctx, q,
		t.LeadID, t.LastName, t.FirstName, t.MiddleName, t.LastNameLatin, t.FirstNameLatin,
		dateIn(t.BirthDate), t.PassportSeries, t.PassportNumber, dateIn(t.PassportIssued), dateIn(t.PassportExpires),
		t.PassportIssuer, t.Citizenship, t.Phone, t.Email, t.VisaStatus, t.Notes, t.IsPrimary,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create tourist: %w", err)
	}
	return tx.Commit()
}

// Update не трогает is_primary: для этого SetPrimary.
func (r *touristRepository) Update(ctx context.Context, t *models.Tourist) error {
	const q = `
		UPDATE tourists
		SET last_name=$1, first_name=$2, middle_name=$3, last_name_latin=$4, first_name_latin=$5,
		    birth_date=$6, passport_series=$7, passport_number=$8, passport_issued_at=$9, passport_expires_at=$10,
		    passport_issued_by=$11, citizenship=$12, phone=$13, email=$14, visa_status=$15, notes=$16,
		    updated_at=NOW()
		WHERE id=$17`
	_, err := r.db.ExecContext(ctx, q,
		t.LastName, t.FirstName, t.MiddleName, t.LastNameLatin, t.FirstNameLatin,
		dateIn(t.BirthDate), t.PassportSeries, t.PassportNumber, dateIn(t.PassportIssued), dateIn(t.PassportExpires),
		t.PassportIssuer, t.Citizenship, t.Phone, t.Email, t.VisaStatus, t.Notes, t.ID,
	)
	if err != nil {
		return fmt.Errorf("update tourist: %w", err)
	}
	return nil
}

// SetPrimary в одной транзакции снимает флаг со всех остальных, потом ставит целевому.
// Если целевой не найден в заявке, откат и sql.ErrNoRows.
func (r *touristRepository) SetPrimary(ctx context.Context, leadID, touristID int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE tourists SET is_primary=FALSE, updated_at=NOW() WHERE lead_id=$1 AND is_primary AND id<>$2`,
		leadID, touristID,
	); err != nil {
		return fmt.Errorf("demote primary: %w", err)
	}
	res, err := tx.ExecContext(ctx,
		`UPDATE tourists SET is_primary=TRUE, updated_at=NOW() WHERE id=$1 AND lead_id=$2`,
		touristID, leadID,
	)
	if err != nil {
		return fmt.Errorf("promote primary: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("promote primary: %w", err)
	} else if n == 0 {
		return sql.ErrNoRows
	}
	return tx.Commit()
}

// Delete: единственного туриста заявки не удаляем (ErrLastTourist). При удалении
// основного основным становится самый ранний из оставшихся.
func (r *touristRepository) Delete(ctx context.Context, t *models.Tourist) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	count, err := lockLead(ctx, tx, t.LeadID)
	if err != nil {
		return err
	}
	if count <= 1 {
		return ErrLastTourist
	}

	var wasPrimary bool
	err = tx.QueryRowContext(ctx,
		`DELETE FROM tourists WHERE id=$1 AND lead_id=$2 RETURNING is_primary`,
		t.ID, t.LeadID,
	).Scan(&wasPrimary)
	if err != nil {
		return fmt.Errorf("delete tourist: %w", err)
	}
	if wasPrimary {
		const q = `
			UPDATE tourists SET is_primary=TRUE, updated_at=NOW()
			WHERE id = (SELECT id FROM tourists WHERE lead_id=$1 ORDER BY created_at, id LIMIT 1)`
		if _, err := tx.ExecContext(ctx, q, t.LeadID); err != nil {
			return fmt.Errorf("promote next primary: %w", err)
		}
	}
	return tx.Commit()
}

// ListByEvent: туристы активных (не архив, не lost) заявок тура.
func (r *touristRepository) ListByEvent(ctx context.Context, eventID int64) ([]*models.EventTourist, error) {
	q := `SELECT ` + touristColumns + `,
			TRIM(CONCAT_WS(' ', l.last_name, l.first_name)), l.status
		FROM tourists t
		JOIN leads l ON l.id = t.lead_id
		WHERE l.event_id=$1 AND NOT l.is_archived AND l.status <> 'lost'
		ORDER BY t.lead_id, t.is_primary DESC, t.created_at, t.id`
	rows, err := r.db.QueryContext(ctx, q, eventID)
	if err != nil {
		return nil, fmt.Errorf("list event tourists: %w", err)
	}
	defer rows.Close()

	out := []*models.EventTourist{}
	for rows.Next() {
		var (
			leadName   string
			leadStatus models.LeadStatus
		)
		t, err := scanTourist(rows, &leadName, &leadStatus)
		if err != nil {
			return nil, fmt.Errorf("scan event tourist: %w", err)
		}
		out = append(out, &models.EventTourist{Tourist: *t, LeadName: leadName, LeadStatus: leadStatus})
	}
	return out, rows.Err()
}

func (r *touristRepository) CountByEvent(ctx context.Context, eventID int64) (int, error) {
	const q = `
		SELECT COUNT(*) FROM tourists t
		JOIN leads l ON l.id = t.lead_id
		WHERE l.event_id=$1 AND NOT l.is_archived AND l.status <> 'lost'`
	var n int
	if err := r.db.QueryRowContext(ctx, q, eventID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count event tourists: %w", err)
	}
	return n, nil
}
