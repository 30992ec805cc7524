package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"turcrm/internal/models"
)

type VisitRepository interface {
	Create(ctx context.Context, v *models.Visit) error
	GetByID(ctx context.Context, id int64) (*models.Visit, error)
	Update(ctx context.Context, v *models.Visit) error
	Delete(ctx context.Context, id int64) error
	ListByEvent(ctx context.Context, eventID int64) ([]*models.Visit, error)
}

type visitRepository struct {
	db *sql.DB
}

func NewVisitRepository(db *sql.DB) VisitRepository {
	return &visitRepository{db: db}
}

const visitColumns = `v.id, v.tourist_id, v.city, v.arrival_date, v.departure_date,
	v.hotel, v.status, v.notes, v.created_at, v.updated_at`

func scanVisit(row rowScanner) (*models.Visit, error) {
	var (
		v                  models.Visit
		arrival, departure sql.NullTime
	)
	err := row.Scan(&v.ID, &v.TouristID, &v.City, &arrival, &departure,
		&v.Hotel, &v.Status, &v.Notes, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	v.ArrivalDate = dateOut(arrival)
	v.DepartureDate = dateOut(departure)
	return &v, nil
}

func (r *visitRepository) Create(ctx context.Context, v *models.Visit) error {
	const q = `
		INSERT INTO visits (tourist_id, city, arrival_date, departure_date, hotel, status, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, q,
		v.TouristID, v.City, dateIn(v.ArrivalDate), dateIn(v.DepartureDate), v.Hotel, v.Status, v.Notes,
	).Scan(&v.ID, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create visit: %w", err)
	}
	return nil
}

func (r *visitRepository) GetByID(ctx context.Context, id int64) (*models.Visit, error) {
	v, err := scanVisit(r.db.QueryRowContext(ctx, `SELECT `+visitColumns+` FROM visits v WHERE v.id=$1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get visit: %w", err)
	}
	return v, nil
}

func (r *visitRepository) Update(ctx context.Context, v *models.Visit) error {
	const q = `
		UPDATE visits
		SET city=$1, arrival_date=$2, departure_date=$3, hotel=$4, status=$5, notes=$6, updated_at=NOW()
		WHERE id=$7`
	_, err := r.db.ExecContext(ctx, q,
		v.City, dateIn(v.ArrivalDate), dateIn(v.DepartureDate), v.Hotel, v.Status, v.Notes, v.ID,
	)
	if err != nil {
		return fmt.Errorf("update visit: %w", err)
	}
	return nil
}

func (r *visitRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM visits WHERE id=$1`, id); err != nil {
		return fmt.Errorf("delete visit: %w", err)
	}
	return nil
}

// ListByEvent: визиты туристов тура (только активные заявки, как в сводке).
func (r *visitRepository) ListByEvent(ctx context.Context, eventID int64) ([]*models.Visit, error) {
	q := `SELECT ` + visitColumns + `
		FROM visits v
		JOIN tourists t ON t.id = v.tourist_id
		JOIN leads l ON l.id = t.lead_id
		WHERE l.event_id=$1 AND NOT l.is_archived AND l.status <> 'lost'
		ORDER BY v.tourist_id, v.arrival_date NULLS LAST, v.id`
	rows, err := r.db.QueryContext(ctx, q, eventID)
	if err != nil {
		return nil, fmt.Errorf("list visits: %w", err)
	}
	defer rows.Close()

	out := []*models.Visit{}
	for rows.Next() {
		v, err := scanVisit(rows)
		if err != nil {
			return nil, fmt.Errorf("scan visit: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
