package services

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"strings"
	"time"

	"turcrm/internal/models"
	"turcrm/internal/repositories"
)

type TouristService interface {
	List(ctx context.Context, leadID int64) ([]*models.Tourist, error)
	Create(ctx context.Context, leadID int64, in models.TouristPatch) (*models.Tourist, error)
	Update(ctx context.Context, id int64, patch models.TouristPatch) (*models.Tourist, error)
	SetPrimary(ctx context.Context, leadID, touristID int64) ([]*models.Tourist, error)
	Delete(ctx context.Context, id int64) error
}

type touristService struct {
	repo  repositories.TouristRepository
	leads repositories.LeadRepository
	feed  changeFeed
}

func NewTouristService(repo repositories.TouristRepository, leads repositories.LeadRepository, listeners ...ChangeListener) TouristService {
	return &touristService{repo: repo, leads: leads, feed: listeners}
}

func (s *touristService) lead(ctx context.Context, id int64) (*models.Lead, error) {
	lead, err := s.leads.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if lead == nil {
		return nil, ErrLeadNotFound
	}
	return lead, nil
}

func (s *touristService) tourist(ctx context.Context, id int64) (*models.Tourist, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrTouristNotFound
	}
	return t, nil
}

func (s *touristService) changed(ctx context.Context, leadID int64) {
	ev := models.ChangeEvent{Type: models.ChangeTourist, LeadID: leadID}
	if lead, err := s.leads.GetByID(ctx, leadID); err == nil && lead != nil {
		ev.EventID = lead.EventID
	}
	s.feed.emit(ctx, ev)
}

func (s *touristService) List(ctx context.Context, leadID int64) ([]*models.Tourist, error) {
	if _, err := s.lead(ctx, leadID); err != nil {
		return nil, err
	}
	return s.repo.ListByLead(ctx, leadID)
}

// Create: первый турист заявки автоматически становится основным.
func (s *touristService) Create(ctx context.Context, leadID int64, in models.TouristPatch) (*models.Tourist, error) {
	if _, err := s.lead(ctx, leadID); err != nil {
		return nil, err
	}
	t := &models.Tourist{LeadID: leadID}
	applyTourist(t, in)
	if err := validateTourist(t); err != nil {
		return nil, err
	}

	// первого туриста основным делает репозиторий, под блокировкой заявки
	t.IsPrimary = in.IsPrimary != nil && *in.IsPrimary
	if err := s.repo.Create(ctx, t); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLeadNotFound
		}
		return nil, err
	}
	log.Printf("[tourist][create] id=%d lead=%d primary=%v", t.ID, leadID, t.IsPrimary)
	s.changed(ctx, leadID)
	return t, nil
}

func (s *touristService) Update(ctx context.Context, id int64, patch models.TouristPatch) (*models.Tourist, error) {
	t, err := s.tourist(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.IsPrimary != nil && !*patch.IsPrimary && t.IsPrimary {
		return nil, fieldError("isPrimary", "mark another tourist as primary instead")
	}

	before := *t
	applyTourist(t, patch)
	if err := validateTourist(t); err != nil {
		return nil, err
	}
	if touristDataChanged(&before, t) {
		if err := s.repo.Update(ctx, t); err != nil {
			return nil, err
		}
	}
	if patch.IsPrimary != nil && *patch.IsPrimary && !t.IsPrimary {
		if err := s.repo.SetPrimary(ctx, t.LeadID, t.ID); err != nil {
			return nil, err
		}
		t.IsPrimary = true
	}
	s.changed(ctx, t.LeadID)
	return t, nil
}

// SetPrimary: одна транзакция в репозитории; после неё основной ровно один.
func (s *touristService) SetPrimary(ctx context.Context, leadID, touristID int64) ([]*models.Tourist, error) {
	t, err := s.tourist(ctx, touristID)
	if err != nil {
		return nil, err
	}
	if t.LeadID != leadID {
		return nil, ErrTouristNotFound
	}
	if !t.IsPrimary {
		if err := s.repo.SetPrimary(ctx, leadID, touristID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, ErrTouristNotFound
			}
			return nil, err
		}
		log.Printf("[tourist][primary] lead=%d tourist=%d", leadID, touristID)
		s.changed(ctx, leadID)
	}
	return s.repo.ListByLead(ctx, leadID)
}

// Delete: единственного туриста заявки удалить нельзя (ErrLastTourist), транзакция откатывается.
func (s *touristService) Delete(ctx context.Context, id int64) error {
	t, err := s.tourist(ctx, id)
	if err != nil {
		return err
	}
	// проверка "не последний" идёт в транзакции репозитория
	if err := s.repo.Delete(ctx, t); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrTouristNotFound
		}
		return err
	}
	log.Printf("[tourist][delete] id=%d lead=%d wasPrimary=%v", id, t.LeadID, t.IsPrimary)
	s.changed(ctx, t.LeadID)
	return nil
}

func applyTourist(t *models.Tourist, p models.TouristPatch) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	setDate := func(dst **string, src *string) {
		if src == nil {
			return
		}
		if v := strings.TrimSpace(*src); v != "" {
			*dst = &v
		} else {
			*dst = nil
		}
	}
	set(&t.LastName, p.LastName)
	set(&t.FirstName, p.FirstName)
	set(&t.MiddleName, p.MiddleName)
	if p.LastNameLatin != nil {
		t.LastNameLatin = strings.ToUpper(strings.TrimSpace(*p.LastNameLatin))
	}
	if p.FirstNameLatin != nil {
		t.FirstNameLatin = strings.ToUpper(strings.TrimSpace(*p.FirstNameLatin))
	}
	setDate(&t.BirthDate, p.BirthDate)
	set(&t.PassportSeries, p.PassportSeries)
	set(&t.PassportNumber, p.PassportNumber)
	setDate(&t.PassportIssued, p.PassportIssued)
	setDate(&t.PassportExpires, p.PassportExpires)
	set(&t.PassportIssuer, p.PassportIssuer)
	set(&t.Citizenship, p.Citizenship)
	set(&t.Phone, p.Phone)
	set(&t.Email, p.Email)
	set(&t.VisaStatus, p.VisaStatus)
	set(&t.Notes, p.Notes)
}

func validateTourist(t *models.Tourist) error {
	verr := &ValidationError{}
	if t.LastName == "" && t.FirstName == "" {
		verr.add("lastName", "name is required")
	}
	dates := map[string]*string{
		"birthDate":         t.BirthDate,
		"passportIssuedAt":  t.PassportIssued,
		"passportExpiresAt": t.PassportExpires,
	}
	for key, d := range dates {
		if d == nil {
			continue
		}
		if _, err := time.Parse(dateLayout, *d); err != nil {
			verr.add(key, "must be YYYY-MM-DD")
		}
	}
	if t.PassportIssued != nil && t.PassportExpires != nil && *t.PassportExpires < *t.PassportIssued {
		verr.add("passportExpiresAt", "must be after issue date")
	}
	if t.Email != "" {
		if err := validate.Var(t.Email, "email"); err != nil {
			verr.add("email", "invalid email")
		}
	}
	return verr.err()
}

func touristDataChanged(a, b *models.Tourist) bool {
	return a.LastName != b.LastName || a.FirstName != b.FirstName || a.MiddleName != b.MiddleName ||
		a.LastNameLatin != b.LastNameLatin || a.FirstNameLatin != b.FirstNameLatin ||
		!sameStr(a.BirthDate, b.BirthDate) || a.PassportSeries != b.PassportSeries ||
		a.PassportNumber != b.PassportNumber || !sameStr(a.PassportIssued, b.PassportIssued) ||
		!sameStr(a.PassportExpires, b.PassportExpires) || a.PassportIssuer != b.PassportIssuer ||
		a.Citizenship != b.Citizenship || a.Phone != b.Phone || a.Email != b.Email ||
		a.VisaStatus != b.VisaStatus || a.Notes != b.Notes
}
