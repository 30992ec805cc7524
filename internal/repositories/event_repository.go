package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"turcrm/internal/models"
)

type EventRepository interface {
	Create(ctx context.Context, e *models.Event) error
	GetByID(ctx context.Context, id int64) (*models.Event, error)
	List(ctx context.Context) ([]*models.Event, error)
	Update(ctx context.Context, e *models.Event) error
	Delete(ctx context.Context, id int64) error
}

type eventRepository struct {
	db *sql.DB
}

func NewEventRepository(db *sql.DB) EventRepository {
	return &eventRepository{db: db}
}

const eventColumns = `id, name, country, cities, start_date, end_date, participant_limit,
	price, currency, description, created_at, updated_at`

func scanEvent(row rowScanner) (*models.Event, error) {
	var (
		e          models.Event
		cities     []string
		start, end sql.NullTime
	)
	err := row.Scan(
		&e.ID, &e.Name, &e.Country, pq.Array(&cities), &start, &end, &e.ParticipantLimit,
		&e.Price, &e.Currency, &e.Description, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if cities == nil {
		cities = []string{}
	}
	e.Cities = cities
	if s := dateOut(start); s != nil {
		e.StartDate = *s
	}
	if s := dateOut(end); s != nil {
		e.EndDate = *s
	}
	return &e, nil
}

func (r *eventRepository) Create(ctx context.Context, e *models.Event) error {
	const q = `
		INSERT INTO events (name, country, cities, start_date, end_date, participant_limit, price, currency, description)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, q,
		e.Name, e.Country, pq.Array(e.Cities), dateIn(&e.StartDate), dateIn(&e.EndDate),
		e.ParticipantLimit, e.Price, e.Currency, e.Description,
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

func (r *eventRepository) GetByID(ctx context.Context, id int64) (*models.Event, error) {
	e, err := scanEvent(r.db.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id=$1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	return e, nil
}

func (r *eventRepository) List(ctx context.Context) ([]*models.Event, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+eventColumns+` FROM events ORDER BY start_date, id`)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	out := []*models.Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *eventRepository) Update(ctx context.Context, e *models.Event) error {
	const q = `
		UPDATE events
		SET name=$1, country=$2, cities=$3, start_date=$4, end_date=$5,
		    participant_limit=$6, price=$7, currency=$8, description=$9, updated_at=NOW()
		WHERE id=$10`
	_, err := r.db.ExecContext(ctx, q,
		e.Name, e.Country, pq.Array(e.Cities), dateIn(&e.StartDate), dateIn(&e.EndDate),
		e.ParticipantLimit, e.Price, e.Currency, e.Description, e.ID,
	)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	return nil
}

func (r *eventRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
