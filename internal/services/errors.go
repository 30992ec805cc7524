package services

import (
	"context"
	"errors"
	"log"
	"sort"
	"strings"

	"turcrm/internal/models"
	"turcrm/internal/repositories"
)

var (
	ErrLeadNotFound    = errors.New("lead not found")
	ErrTouristNotFound = errors.New("tourist not found")
	ErrEventNotFound   = errors.New("event not found")
	ErrFormNotFound    = errors.New("form not found")
	ErrFieldNotFound   = errors.New("field not found")
	ErrVisitNotFound   = errors.New("visit not found")

	ErrInvalidTransition = errors.New("invalid status transition")
	ErrLastTourist       = repositories.ErrLastTourist
	ErrEventInUse        = errors.New("event is referenced by leads")
	ErrLeadHasNoEvent    = errors.New("lead is not bound to an event")
	ErrCityNotInRoute    = errors.New("city is not on the event route")
	ErrNoPrimaryTourist  = errors.New("lead has no primary tourist")
	ErrDuplicateFieldKey = errors.New("field key already exists in this form")
	ErrUnknownPreference = errors.New("unknown preference key")
)

// ValidationError: ошибки по полям, отдаётся клиенту как 422.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = msg
	}
}

// err возвращает nil, если ошибок не набралось.
func (e *ValidationError) err() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

func fieldError(field, msg string) error {
	v := &ValidationError{}
	v.add(field, msg)
	return v
}

// ChangeListener получает события после успешных мутаций (websocket-лента, кэш сводки).
type ChangeListener interface {
	OnChange(ctx context.Context, ev models.ChangeEvent)
}

type changeFeed []ChangeListener

func (f changeFeed) emit(ctx context.Context, ev models.ChangeEvent) {
	for _, l := range f {
		if l == nil {
			continue
		}
		l.OnChange(ctx, ev)
	}
	log.Printf("[feed] %s lead=%d", ev.Type, ev.LeadID)
}
