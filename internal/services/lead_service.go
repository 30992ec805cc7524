package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"turcrm/internal/metrics"
	"turcrm/internal/models"
	"turcrm/internal/repositories"
)

type LeadService interface {
	Create(ctx context.Context, ownerID int, in models.LeadPatch) (*models.Lead, error)
	Get(ctx context.Context, id int64) (*models.Lead, error)
	Update(ctx context.Context, id int64, patch models.LeadPatch) (*models.Lead, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter models.LeadFilter) ([]*models.Lead, int, error)
	Board(ctx context.Context, filter models.LeadFilter) ([]models.BoardColumn, error)
	ChangeStatus(ctx context.Context, id int64, ch models.StatusChange) (*models.Lead, error)
	Archive(ctx context.Context, id int64) (*models.Lead, error)
	Unarchive(ctx context.Context, id int64) (*models.Lead, error)
	ToggleCity(ctx context.Context, id int64, city string) (*models.Lead, error)
	Stats(ctx context.Context) (map[models.LeadStatus]int, error)
}

type leadService struct {
	repo    repositories.LeadRepository
	events  repositories.EventRepository
	metrics *metrics.CRMMetrics
	feed    changeFeed
	now     func() time.Time
}

func NewLeadService(
	repo repositories.LeadRepository,
	events repositories.EventRepository,
	m *metrics.CRMMetrics,
	listeners ...ChangeListener,
) LeadService {
	return &leadService{repo: repo, events: events, metrics: m, feed: listeners, now: time.Now}
}

func decorate(l *models.Lead) *models.Lead {
	if l != nil {
		l.DisplayColor = DisplayColor(l)
	}
	return l
}

func (s *leadService) load(ctx context.Context, id int64) (*models.Lead, error) {
	lead, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if lead == nil {
		return nil, ErrLeadNotFound
	}
	return lead, nil
}

func (s *leadService) Create(ctx context.Context, ownerID int, in models.LeadPatch) (*models.Lead, error) {
	lead := &models.Lead{
		Status:         models.LeadStatusNew,
		Currency:       "KZT",
		OwnerID:        ownerID,
		SelectedCities: []string{},
	}
	if err := s.applyFields(ctx, lead, in); err != nil {
		return nil, err
	}
	if trimmed(&lead.FirstName) == "" && trimmed(&lead.LastName) == "" &&
		trimmed(&lead.Phone) == "" && trimmed(&lead.Email) == "" {
		return nil, fieldError("firstName", "name, phone or email is required")
	}

	if in.Status != nil && *in.Status != models.LeadStatusNew {
		ch := models.StatusChange{
			Status:         *in.Status,
			OutcomeType:    in.OutcomeType,
			PostponeReason: in.PostponeReason,
			PostponedUntil: in.PostponedUntil,
			FailureReason:  in.FailureReason,
		}
		upd, _, err := planStatusChange(&models.Lead{}, ch, s.now())
		if err != nil {
			return nil, err
		}
		applyStatus(lead, upd)
	}

	if err := s.repo.Create(ctx, lead); err != nil {
		return nil, err
	}
	log.Printf("[lead][create] id=%d owner=%d status=%s", lead.ID, ownerID, lead.Status)
	s.feed.emit(ctx, models.ChangeEvent{Type: models.ChangeLeadCreated, LeadID: lead.ID, EventID: lead.EventID})
	return decorate(lead), nil
}

func (s *leadService) Get(ctx context.Context, id int64) (*models.Lead, error) {
	lead, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return decorate(lead), nil
}

// Update: частичное обновление. Статус и поля исхода идут через ту же проверку,
// что и ChangeStatus. Поля и статус вместе пишутся одной транзакцией.
func (s *leadService) Update(ctx context.Context, id int64, patch models.LeadPatch) (*models.Lead, error) {
	lead, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	prevEvent := lead.EventID

	var (
		upd      models.LeadStatusUpdate
		statusOK bool
	)
	if hasStatusFields(patch) {
		ch := models.StatusChange{
			Status:         lead.Status,
			OutcomeType:    patch.OutcomeType,
			PostponeReason: patch.PostponeReason,
			PostponedUntil: patch.PostponedUntil,
			FailureReason:  patch.FailureReason,
		}
		if patch.Status != nil {
			ch.Status = *patch.Status
		}
		var noop bool
		upd, noop, err = planStatusChange(lead, ch, s.now())
		if err != nil {
			return nil, err
		}
		statusOK = !noop
	}

	dataOK := hasDataFields(patch)
	if dataOK {
		if err := s.applyFields(ctx, lead, patch); err != nil {
			return nil, err
		}
	}
	switch {
	case dataOK && statusOK:
		if err := s.repo.UpdateWithStatus(ctx, lead, upd); err != nil {
			return nil, err
		}
		s.statusWritten(lead, upd)
	case dataOK:
		if err := s.repo.Update(ctx, lead); err != nil {
			return nil, err
		}
	case statusOK:
		if err := s.writeStatus(ctx, lead, upd); err != nil {
			return nil, err
		}
	}

	log.Printf("[lead][update] id=%d", id)
	s.feed.emit(ctx, models.ChangeEvent{Type: models.ChangeLeadUpdated, LeadID: id, EventID: lead.EventID})
	if prevEvent != nil && (lead.EventID == nil || *lead.EventID != *prevEvent) {
		s.feed.emit(ctx, models.ChangeEvent{Type: models.ChangeLeadUpdated, LeadID: id, EventID: prevEvent})
	}
	return decorate(lead), nil
}

func hasStatusFields(p models.LeadPatch) bool {
	return p.Status != nil || p.OutcomeType != nil || p.PostponeReason != nil ||
		p.PostponedUntil != nil || p.FailureReason != nil
}

func hasDataFields(p models.LeadPatch) bool {
	return p.FirstName != nil || p.LastName != nil || p.MiddleName != nil || p.Phone != nil ||
		p.Email != nil || p.Comment != nil || p.Source != nil || p.Color != nil ||
		p.EventID != nil || p.SelectedCities != nil || p.Cost != nil || p.Advance != nil ||
		p.Remainder != nil || p.Currency != nil || p.OwnerID != nil
}

// applyFields переносит в заявку всё, кроме статуса и исхода.
func (s *leadService) applyFields(ctx context.Context, lead *models.Lead, p models.LeadPatch) error {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	set(&lead.FirstName, p.FirstName)
	set(&lead.LastName, p.LastName)
	set(&lead.MiddleName, p.MiddleName)
	set(&lead.Phone, p.Phone)
	set(&lead.Email, p.Email)
	set(&lead.Comment, p.Comment)
	set(&lead.Source, p.Source)
	set(&lead.Currency, p.Currency)

	if p.Color != nil {
		if c := strings.TrimSpace(*p.Color); c == "" {
			lead.Color = nil
		} else {
			lead.Color = &c
		}
	}
	if p.OwnerID != nil {
		lead.OwnerID = *p.OwnerID
	}

	verr := &ValidationError{}
	if p.Cost != nil {
		lead.Cost = *p.Cost
	}
	if p.Advance != nil {
		lead.Advance = *p.Advance
	}
	switch {
	case p.Remainder != nil:
		lead.Remainder = *p.Remainder
	case p.Cost != nil || p.Advance != nil:
		lead.Remainder = lead.Cost - lead.Advance
	}
	if lead.Cost < 0 {
		verr.add("cost", "must not be negative")
	}
	if lead.Advance < 0 {
		verr.add("advance", "must not be negative")
	}

	eventChanged := false
	if p.EventID != nil {
		if *p.EventID == 0 {
			lead.EventID = nil
			lead.SelectedCities = []string{}
		} else if lead.EventID == nil || *lead.EventID != *p.EventID {
			lead.EventID = ptr(*p.EventID)
			eventChanged = true
		}
	}

	if lead.EventID != nil && (eventChanged || p.SelectedCities != nil) {
		event, err := s.events.GetByID(ctx, *lead.EventID)
		if err != nil {
			return err
		}
		if event == nil {
			verr.add("eventId", "event not found")
			return verr
		}
		cities := lead.SelectedCities
		if p.SelectedCities != nil {
			cities = *p.SelectedCities
		}
		kept := make([]string, 0, len(cities))
		seen := map[string]bool{}
		for _, c := range cities {
			c = strings.TrimSpace(c)
			if seen[c] {
				continue
			}
			seen[c] = true
			if !event.HasCity(c) {
				if p.SelectedCities != nil {
					verr.add("selectedCities", fmt.Sprintf("%q is not on the event route", c))
				}
				continue
			}
			kept = append(kept, c)
		}
		lead.SelectedCities = kept
	} else if lead.EventID == nil && p.SelectedCities != nil && len(*p.SelectedCities) > 0 {
		verr.add("selectedCities", "lead is not bound to an event")
	}
	return verr.err()
}

func applyStatus(lead *models.Lead, upd models.LeadStatusUpdate) {
	lead.Status = upd.Status
	lead.OutcomeType = upd.OutcomeType
	lead.PostponeReason = upd.PostponeReason
	lead.PostponedUntil = upd.PostponedUntil
	lead.FailureReason = upd.FailureReason
	lead.HasBeenContacted = upd.HasBeenContacted
}

func (s *leadService) writeStatus(ctx context.Context, lead *models.Lead, upd models.LeadStatusUpdate) error {
	if err := s.repo.UpdateStatus(ctx, lead.ID, upd); err != nil {
		return err
	}
	s.statusWritten(lead, upd)
	return nil
}

func (s *leadService) statusWritten(lead *models.Lead, upd models.LeadStatusUpdate) {
	from := lead.Status
	applyStatus(lead, upd)
	s.metrics.ObserveTransition(string(from), string(upd.Status))
	log.Printf("[lead][status] id=%d %s -> %s", lead.ID, from, upd.Status)
}

func (s *leadService) ChangeStatus(ctx context.Context, id int64, ch models.StatusChange) (*models.Lead, error) {
	lead, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	upd, noop, err := planStatusChange(lead, ch, s.now())
	if err != nil {
		return nil, err
	}
	if noop {
		return decorate(lead), nil
	}
	if err := s.writeStatus(ctx, lead, upd); err != nil {
		return nil, err
	}
	s.feed.emit(ctx, models.ChangeEvent{Type: models.ChangeLeadStatus, LeadID: id, EventID: lead.EventID})
	return decorate(lead), nil
}

func (s *leadService) Delete(ctx context.Context, id int64) error {
	lead, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrLeadNotFound
		}
		return err
	}
	log.Printf("[lead][delete] id=%d", id)
	s.feed.emit(ctx, models.ChangeEvent{Type: models.ChangeLeadDeleted, LeadID: id, EventID: lead.EventID})
	return nil
}

func (s *leadService) List(ctx context.Context, filter models.LeadFilter) ([]*models.Lead, int, error) {
	leads, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	for _, l := range leads {
		decorate(l)
	}
	return leads, total, nil
}

// Board: колонки в каноническом порядке; старый "won" показываем в converted.
func (s *leadService) Board(ctx context.Context, filter models.LeadFilter) ([]models.BoardColumn, error) {
	filter.Status = nil
	filter.Limit, filter.Offset = 0, 0
	leads, _, err := s.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	idx := make(map[models.LeadStatus]int, len(models.LeadStatuses))
	cols := make([]models.BoardColumn, len(models.LeadStatuses))
	for i, st := range models.LeadStatuses {
		idx[st] = i
		cols[i] = models.BoardColumn{Status: st, Leads: []*models.Lead{}}
	}
	for _, l := range leads {
		st := l.Status
		if st == models.LeadStatusWon {
			st = models.LeadStatusConverted
		}
		i, ok := idx[st]
		if !ok {
			log.Printf("[lead][board] id=%d unknown status %q skipped", l.ID, l.Status)
			continue
		}
		cols[i].Leads = append(cols[i].Leads, l)
		cols[i].Count++
	}
	return cols, nil
}

func (s *leadService) setArchived(ctx context.Context, id int64, archived bool) (*models.Lead, error) {
	lead, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if lead.IsArchived != archived {
		if err := s.repo.SetArchived(ctx, id, archived); err != nil {
			return nil, err
		}
		lead.IsArchived = archived
		log.Printf("[lead][archive] id=%d archived=%v", id, archived)
		s.feed.emit(ctx, models.ChangeEvent{Type: models.ChangeLeadArchived, LeadID: id, EventID: lead.EventID})
	}
	return decorate(lead), nil
}

func (s *leadService) Archive(ctx context.Context, id int64) (*models.Lead, error) {
	return s.setArchived(ctx, id, true)
}

func (s *leadService) Unarchive(ctx context.Context, id int64) (*models.Lead, error) {
	return s.setArchived(ctx, id, false)
}

// ToggleCities: если города нет, дописываем в конец, если есть, убираем ровно его.
func ToggleCities(selected []string, city string) []string {
	out := make([]string, 0, len(selected)+1)
	found := false
	for _, c := range selected {
		if c == city {
			found = true
			continue
		}
		out = append(out, c)
	}
	if !found {
		out = append(out, city)
	}
	return out
}

func (s *leadService) ToggleCity(ctx context.Context, id int64, city string) (*models.Lead, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return nil, fieldError("city", "required")
	}
	lead, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if lead.EventID == nil {
		return nil, ErrLeadHasNoEvent
	}
	event, err := s.events.GetByID(ctx, *lead.EventID)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, ErrEventNotFound
	}
	if !event.HasCity(city) {
		return nil, ErrCityNotInRoute
	}

	cities := ToggleCities(lead.SelectedCities, city)
	if err := s.repo.UpdateSelectedCities(ctx, id, cities); err != nil {
		return nil, err
	}
	lead.SelectedCities = cities
	s.feed.emit(ctx, models.ChangeEvent{Type: models.ChangeLeadUpdated, LeadID: id, EventID: lead.EventID})
	return decorate(lead), nil
}

func (s *leadService) Stats(ctx context.Context) (map[models.LeadStatus]int, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[models.LeadStatus]int, len(models.LeadStatuses))
	for _, st := range models.LeadStatuses {
		out[st] = counts[st]
	}
	out[models.LeadStatusConverted] += counts[models.LeadStatusWon]
	return out, nil
}
