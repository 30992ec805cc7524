package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"turcrm/internal/metrics"
	"turcrm/internal/models"
	"turcrm/internal/repositories"
)

var validate = validator.New()

// LeadNotifier: оповещение менеджеров о новой заявке с публичной формы.
type LeadNotifier interface {
	NotifyNewLead(ctx context.Context, form *models.Form, lead *models.Lead)
}

type FormService interface {
	Create(ctx context.Context, in models.FormPatch) (*models.Form, error)
	Get(ctx context.Context, id int64) (*models.Form, error)
	GetPublic(ctx context.Context, id int64) (*models.Form, error)
	List(ctx context.Context) ([]*models.Form, error)
	Update(ctx context.Context, id int64, patch models.FormPatch) (*models.Form, error)
	Delete(ctx context.Context, id int64) error

	AddField(ctx context.Context, formID int64, in models.FieldPatch) (*models.FormField, error)
	UpdateField(ctx context.Context, formID, fieldID int64, patch models.FieldPatch) (*models.FormField, error)
	DeleteField(ctx context.Context, formID, fieldID int64) error
	ReorderFields(ctx context.Context, formID int64, ids []int64) ([]*models.FormField, error)

	ValidateSubmission(ctx context.Context, form *models.Form, data map[string]any) (map[string]any, error)
	SubmitPublic(ctx context.Context, formID int64, data map[string]any) (*models.FormSubmission, error)
	ListSubmissions(ctx context.Context, formID int64) ([]*models.FormSubmission, error)
}

type formService struct {
	repo     repositories.FormRepository
	events   repositories.EventRepository
	leads    LeadService
	notifier LeadNotifier
	metrics  *metrics.CRMMetrics
}

func NewFormService(
	repo repositories.FormRepository,
	events repositories.EventRepository,
	leads LeadService,
	notifier LeadNotifier,
	m *metrics.CRMMetrics,
) FormService {
	return &formService{repo: repo, events: events, leads: leads, notifier: notifier, metrics: m}
}

func (s *formService) load(ctx context.Context, id int64) (*models.Form, error) {
	f, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, ErrFormNotFound
	}
	return f, nil
}

func (s *formService) Create(ctx context.Context, in models.FormPatch) (*models.Form, error) {
	f := &models.Form{IsActive: true, Fields: []*models.FormField{}}
	applyForm(f, in)
	if f.Name == "" {
		return nil, fieldError("name", "required")
	}
	if err := s.repo.Create(ctx, f); err != nil {
		return nil, err
	}
	log.Printf("[form][create] id=%d %q", f.ID, f.Name)
	return f, nil
}

func applyForm(f *models.Form, p models.FormPatch) {
	if p.Name != nil {
		f.Name = strings.TrimSpace(*p.Name)
	}
	if p.Description != nil {
		f.Description = strings.TrimSpace(*p.Description)
	}
	if p.IsActive != nil {
		f.IsActive = *p.IsActive
	}
}

func (s *formService) Get(ctx context.Context, id int64) (*models.Form, error) {
	return s.load(ctx, id)
}

// GetPublic: неактивная форма для анонимного клиента не существует.
func (s *formService) GetPublic(ctx context.Context, id int64) (*models.Form, error) {
	f, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !f.IsActive {
		return nil, ErrFormNotFound
	}
	return f, nil
}

func (s *formService) List(ctx context.Context) ([]*models.Form, error) {
	return s.repo.List(ctx)
}

func (s *formService) Update(ctx context.Context, id int64, patch models.FormPatch) (*models.Form, error) {
	f, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	applyForm(f, patch)
	if f.Name == "" {
		return nil, fieldError("name", "required")
	}
	if err := s.repo.Update(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

func (s *formService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrFormNotFound
		}
		return err
	}
	log.Printf("[form][delete] id=%d", id)
	return nil
}

func applyField(f *models.FormField, p models.FieldPatch) {
	if p.Key != nil {
		f.Key = strings.TrimSpace(*p.Key)
	}
	if p.Label != nil {
		f.Label = strings.TrimSpace(*p.Label)
	}
	if p.Type != nil {
		f.Type = *p.Type
	}
	if p.Required != nil {
		f.Required = *p.Required
	}
	if p.Options != nil {
		f.Options = NormalizeCities(*p.Options)
	}
	if p.Placeholder != nil {
		f.Placeholder = strings.TrimSpace(*p.Placeholder)
	}
	if f.Options == nil {
		f.Options = []string{}
	}
}

func validateField(f *models.FormField, siblings []*models.FormField) error {
	verr := &ValidationError{}
	if err := validate.Var(f.Key, "required,max=64,excludesall= \t\n"); err != nil {
		verr.add("key", "required, no spaces, up to 64 characters")
	}
	if !f.Type.Valid() {
		verr.add("type", "unknown field type")
	}
	if f.Type == models.FieldSelect && len(f.Options) == 0 {
		verr.add("options", "select field needs options")
	}
	if err := verr.err(); err != nil {
		return err
	}
	for _, other := range siblings {
		if other.ID != f.ID && other.Key == f.Key {
			return ErrDuplicateFieldKey
		}
	}
	return nil
}

// AddField: новое поле всегда в конец формы.
func (s *formService) AddField(ctx context.Context, formID int64, in models.FieldPatch) (*models.FormField, error) {
	form, err := s.load(ctx, formID)
	if err != nil {
		return nil, err
	}
	f := &models.FormField{FormID: formID}
	applyField(f, in)
	if f.Label == "" {
		f.Label = f.Key
	}
	if err := validateField(f, form.Fields); err != nil {
		return nil, err
	}
	if err := s.repo.CreateField(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

func (s *formService) field(ctx context.Context, formID, fieldID int64) (*models.FormField, error) {
	f, err := s.repo.GetField(ctx, fieldID)
	if err != nil {
		return nil, err
	}
	if f == nil || f.FormID != formID {
		return nil, ErrFieldNotFound
	}
	return f, nil
}

func (s *formService) UpdateField(ctx context.Context, formID, fieldID int64, patch models.FieldPatch) (*models.FormField, error) {
	f, err := s.field(ctx, formID, fieldID)
	if err != nil {
		return nil, err
	}
	applyField(f, patch)
	siblings, err := s.repo.ListFields(ctx, formID)
	if err != nil {
		return nil, err
	}
	if err := validateField(f, siblings); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateField(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

func (s *formService) DeleteField(ctx context.Context, formID, fieldID int64) error {
	if _, err := s.field(ctx, formID, fieldID); err != nil {
		return err
	}
	return s.repo.DeleteField(ctx, fieldID)
}

// ReorderFields: ids должен быть перестановкой полей формы; пишется одним запросом.
func (s *formService) ReorderFields(ctx context.Context, formID int64, ids []int64) ([]*models.FormField, error) {
	form, err := s.load(ctx, formID)
	if err != nil {
		return nil, err
	}
	if len(ids) != len(form.Fields) {
		return nil, fieldError("fieldIds", "must list every field of the form exactly once")
	}
	known := make(map[int64]bool, len(form.Fields))
	for _, f := range form.Fields {
		known[f.ID] = true
	}
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if !known[id] || seen[id] {
			return nil, fieldError("fieldIds", "must list every field of the form exactly once")
		}
		seen[id] = true
	}
	if err := s.repo.ReorderFields(ctx, formID, ids); err != nil {
		return nil, err
	}
	log.Printf("[form][reorder] id=%d fields=%v", formID, ids)
	return s.repo.ListFields(ctx, formID)
}

func asString(v any) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", true
	case string:
		return strings.TrimSpace(x), true
	}
	return "", false
}

func asEventID(v any) (int64, bool) {
	switch x := v.(type) {
	case float64:
		if x > 0 && x == float64(int64(x)) {
			return int64(x), true
		}
	case json.Number:
		n, err := x.Int64()
		return n, err == nil && n > 0
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		return n, err == nil && n > 0
	}
	return 0, false
}

// ValidateSubmission проверяет данные по схеме полей формы.
// Ошибки: по ключам полей; неизвестные ключи отбрасываются.
func (s *formService) ValidateSubmission(ctx context.Context, form *models.Form, data map[string]any) (map[string]any, error) {
	clean := make(map[string]any, len(form.Fields))
	verr := &ValidationError{}

	for _, f := range form.Fields {
		raw, present := data[f.Key]

		switch f.Type {
		case models.FieldCheckbox:
			b, ok := raw.(bool)
			if present && raw != nil && !ok {
				verr.add(f.Key, "must be true or false")
				continue
			}
			if f.Required && !b {
				verr.add(f.Key, "must be checked")
				continue
			}
			clean[f.Key] = b

		case models.FieldTour:
			if !present || raw == nil || raw == "" {
				if f.Required {
					verr.add(f.Key, "required")
				}
				continue
			}
			id, ok := asEventID(raw)
			if !ok {
				verr.add(f.Key, "unknown tour")
				continue
			}
			e, err := s.events.GetByID(ctx, id)
			if err != nil {
				return nil, err
			}
			if e == nil {
				verr.add(f.Key, "unknown tour")
				continue
			}
			clean[f.Key] = id

		default:
			v, ok := asString(raw)
			if !ok {
				verr.add(f.Key, "must be a string")
				continue
			}
			if v == "" {
				if f.Required {
					verr.add(f.Key, "required")
				}
				continue
			}
			switch f.Type {
			case models.FieldEmail:
				if validate.Var(v, "email") != nil {
					verr.add(f.Key, "invalid email")
					continue
				}
			case models.FieldPhone:
				if validate.Var(v, "min=5") != nil {
					verr.add(f.Key, "phone is too short")
					continue
				}
			case models.FieldSelect:
				if !containsString(f.Options, v) {
					verr.add(f.Key, "not one of the options")
					continue
				}
			}
			clean[f.Key] = v
		}
	}
	if err := verr.err(); err != nil {
		return nil, err
	}
	return clean, nil
}

func containsString(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

func (s *formService) SubmitPublic(ctx context.Context, formID int64, data map[string]any) (*models.FormSubmission, error) {
	form, err := s.GetPublic(ctx, formID)
	if err != nil {
		return nil, err
	}
	clean, err := s.ValidateSubmission(ctx, form, data)
	if err != nil {
		s.metrics.ObserveSubmission("rejected")
		return nil, err
	}

	body, err := json.Marshal(clean)
	if err != nil {
		return nil, err
	}
	lead, err := s.leads.Create(ctx, 0, leadFromSubmission(form, clean))
	if err != nil {
		s.metrics.ObserveSubmission("failed")
		return nil, err
	}

	sub := &models.FormSubmission{FormID: formID, Data: body, LeadID: &lead.ID}
	if err := s.repo.CreateSubmission(ctx, sub); err != nil {
		log.Printf("[form][submit] form=%d lead=%d store submission: %v", formID, lead.ID, err)
		s.metrics.ObserveSubmission("failed")
		// заявка без отклика не нужна: откатываем её вручную
		if derr := s.leads.Delete(context.WithoutCancel(ctx), lead.ID); derr != nil {
			log.Printf("[form][submit][rollback] lead=%d: %v", lead.ID, derr)
		}
		return nil, err
	}
	s.metrics.ObserveSubmission("accepted")
	log.Printf("[form][submit] form=%d submission=%d lead=%d", formID, sub.ID, lead.ID)

	if s.notifier != nil {
		go s.notifier.NotifyNewLead(context.WithoutCancel(ctx), form, lead)
	}
	return sub, nil
}

// leadFromSubmission раскладывает известные ключи формы по полям заявки,
// остальное уходит в комментарий строками "Метка: значение".
func leadFromSubmission(form *models.Form, clean map[string]any) models.LeadPatch {
	in := models.LeadPatch{Source: ptr(fmt.Sprintf("form:%d", form.ID))}
	str := func(key string) *string {
		if v, ok := clean[key].(string); ok && v != "" {
			return ptr(v)
		}
		return nil
	}
	in.FirstName = str("firstName")
	in.LastName = str("lastName")
	if in.FirstName == nil && in.LastName == nil {
		in.FirstName = str("name")
	}
	in.Phone = str("phone")
	in.Email = str("email")

	var notes []string
	if c := str("comment"); c != nil {
		notes = append(notes, *c)
	}
	for _, f := range form.Fields {
		v, ok := clean[f.Key]
		if !ok {
			continue
		}
		if f.Type == models.FieldTour {
			if id, ok := v.(int64); ok && in.EventID == nil {
				in.EventID = ptr(id)
			}
			continue
		}
		switch f.Key {
		case "firstName", "lastName", "name", "phone", "email", "comment":
			continue
		}
		notes = append(notes, fmt.Sprintf("%s: %v", f.Label, v))
	}
	if len(notes) > 0 {
		in.Comment = ptr(strings.Join(notes, "\n"))
	}
	if in.FirstName == nil && in.LastName == nil && in.Phone == nil && in.Email == nil {
		in.FirstName = ptr("Заявка: " + form.Name)
	}
	return in
}

func (s *formService) ListSubmissions(ctx context.Context, formID int64) ([]*models.FormSubmission, error) {
	if _, err := s.load(ctx, formID); err != nil {
		return nil, err
	}
	return s.repo.ListSubmissions(ctx, formID)
}
