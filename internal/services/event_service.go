package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"strconv"
	"strings"
	"time"

	"turcrm/internal/models"
	"turcrm/internal/repositories"
)

type EventService interface {
	Create(ctx context.Context, p models.EventPayload) (*models.Event, error)
	Get(ctx context.Context, id int64) (*models.Event, error)
	List(ctx context.Context) ([]*models.Event, error)
	Update(ctx context.Context, id int64, p models.EventPayload) (*models.Event, error)
	Delete(ctx context.Context, id int64) error
	Participants(ctx context.Context, id int64) (*models.EventParticipants, error)
}

type eventService struct {
	repo     repositories.EventRepository
	leads    repositories.LeadRepository
	tourists repositories.TouristRepository
	feed     changeFeed
}

func NewEventService(
	repo repositories.EventRepository,
	leads repositories.LeadRepository,
	tourists repositories.TouristRepository,
	listeners ...ChangeListener,
) EventService {
	return &eventService{repo: repo, leads: leads, tourists: tourists, feed: listeners}
}

var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// NormalizeDate приводит дату к "YYYY-MM-DD". Принимает time.Time, *time.Time,
// строку "YYYY-MM-DD" или ISO-таймстемп (берётся дата в его собственном смещении).
func NormalizeDate(v any) (string, error) {
	switch d := v.(type) {
	case time.Time:
		if d.IsZero() {
			return "", errors.New("empty date")
		}
		return d.Format(dateLayout), nil
	case *time.Time:
		if d == nil || d.IsZero() {
			return "", errors.New("empty date")
		}
		return d.Format(dateLayout), nil
	case string:
		s := strings.TrimSpace(d)
		if t, err := time.Parse(dateLayout, s); err == nil {
			return t.Format(dateLayout), nil
		}
		for _, layout := range isoLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.Format(dateLayout), nil
			}
		}
		return "", fmt.Errorf("unsupported date %q", d)
	}
	return "", fmt.Errorf("unsupported date type %T", v)
}

func toInt(v any) (int, error) {
	f, err := toFloat(v)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("not an integer: %v", v)
	}
	return int(f), nil
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case json.Number:
		return n.Float64()
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(n), " ", "")
		s = strings.ReplaceAll(s, ",", ".")
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, fmt.Errorf("not a number: %q", n)
		}
		return f, nil
	}
	return 0, fmt.Errorf("not a number: %T", v)
}

// NormalizeCities: trim, без пустых и повторов, порядок маршрута сохраняется.
func NormalizeCities(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, c := range in {
		c = strings.TrimSpace(c)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

// NormalizePayload собирает тур из сырого тела запроса поверх base (nil: создание).
// Все ошибки возвращаются до обращения к репозиторию.
func NormalizePayload(p models.EventPayload, base *models.Event) (*models.Event, error) {
	e := &models.Event{Currency: "KZT", Cities: []string{}}
	if base != nil {
		cp := *base
		e = &cp
	}
	verr := &ValidationError{}

	if p.Name != nil {
		e.Name = strings.TrimSpace(*p.Name)
	}
	if e.Name == "" {
		verr.add("name", "required")
	}
	if p.Country != nil {
		e.Country = strings.TrimSpace(*p.Country)
	}
	if p.Description != nil {
		e.Description = strings.TrimSpace(*p.Description)
	}
	if p.Currency != nil {
		if c := strings.ToUpper(strings.TrimSpace(*p.Currency)); c != "" {
			e.Currency = c
		}
	}
	if p.Cities != nil {
		e.Cities = NormalizeCities(*p.Cities)
	}

	if p.StartDate != nil {
		d, err := NormalizeDate(p.StartDate)
		if err != nil {
			verr.add("startDate", "must be a date (YYYY-MM-DD)")
		}
		e.StartDate = d
	}
	if p.EndDate != nil {
		d, err := NormalizeDate(p.EndDate)
		if err != nil {
			verr.add("endDate", "must be a date (YYYY-MM-DD)")
		}
		e.EndDate = d
	}
	if e.StartDate == "" {
		verr.add("startDate", "required")
	}
	if e.EndDate == "" {
		verr.add("endDate", "required")
	}
	if e.StartDate != "" && e.EndDate != "" && e.EndDate < e.StartDate {
		verr.add("endDate", "must not be before start date")
	}

	if p.ParticipantLimit != nil {
		n, err := toInt(p.ParticipantLimit)
		switch {
		case err != nil:
			verr.add("participantLimit", "must be an integer")
		case n < 0:
			verr.add("participantLimit", "must not be negative")
		default:
			e.ParticipantLimit = n
		}
	}
	if p.Price != nil {
		f, err := toFloat(p.Price)
		switch {
		case err != nil:
			verr.add("price", "must be a number")
		case f < 0:
			verr.add("price", "must not be negative")
		default:
			e.Price = f
		}
	}

	if err := verr.err(); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *eventService) load(ctx context.Context, id int64) (*models.Event, error) {
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, ErrEventNotFound
	}
	return e, nil
}

func (s *eventService) Create(ctx context.Context, p models.EventPayload) (*models.Event, error) {
	e, err := NormalizePayload(p, nil)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, e); err != nil {
		return nil, err
	}
	log.Printf("[event][create] id=%d %s %s..%s", e.ID, e.Name, e.StartDate, e.EndDate)
	return e, nil
}

func (s *eventService) Get(ctx context.Context, id int64) (*models.Event, error) {
	return s.load(ctx, id)
}

func (s *eventService) List(ctx context.Context) ([]*models.Event, error) {
	return s.repo.List(ctx)
}

func (s *eventService) Update(ctx context.Context, id int64, p models.EventPayload) (*models.Event, error) {
	base, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	e, err := NormalizePayload(p, base)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, e); err != nil {
		return nil, err
	}
	log.Printf("[event][update] id=%d", id)
	s.feed.emit(ctx, models.ChangeEvent{Type: models.ChangeEventUpdated, EventID: &e.ID})
	return e, nil
}

// Delete: тур, к которому привязаны заявки, удалять нельзя.
func (s *eventService) Delete(ctx context.Context, id int64) error {
	n, err := s.leads.CountByEvent(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrEventInUse
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrEventNotFound
		}
		return err
	}
	log.Printf("[event][delete] id=%d", id)
	return nil
}

func (s *eventService) Participants(ctx context.Context, id int64) (*models.EventParticipants, error) {
	e, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	n, err := s.tourists.CountByEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	left := 0
	if e.ParticipantLimit > n {
		left = e.ParticipantLimit - n
	}
	return &models.EventParticipants{
		EventID:          id,
		ParticipantLimit: e.ParticipantLimit,
		Participants:     n,
		SeatsLeft:        left,
	}, nil
}
