package services

import (
	"strings"
	"time"

	"turcrm/internal/models"
)

// Допустимые переходы статусов заявки. Доска канбан: из любой колонки в любую.
// Отдельные правила для lost (исход обязателен): в planStatusChange.
var LeadTransitions = map[models.LeadStatus]map[models.LeadStatus]bool{
	models.LeadStatusNew:       {models.LeadStatusContacted: true, models.LeadStatusQualified: true, models.LeadStatusConverted: true, models.LeadStatusLost: true},
	models.LeadStatusContacted: {models.LeadStatusNew: true, models.LeadStatusQualified: true, models.LeadStatusConverted: true, models.LeadStatusLost: true},
	models.LeadStatusQualified: {models.LeadStatusNew: true, models.LeadStatusContacted: true, models.LeadStatusConverted: true, models.LeadStatusLost: true},
	models.LeadStatusConverted: {models.LeadStatusNew: true, models.LeadStatusContacted: true, models.LeadStatusQualified: true, models.LeadStatusLost: true},
	models.LeadStatusLost:      {models.LeadStatusNew: true, models.LeadStatusContacted: true, models.LeadStatusQualified: true, models.LeadStatusConverted: true, models.LeadStatusLost: true},
	// legacy
	models.LeadStatusWon: {models.LeadStatusNew: true, models.LeadStatusContacted: true, models.LeadStatusQualified: true, models.LeadStatusConverted: true, models.LeadStatusLost: true},
}

func canTransition(current, to models.LeadStatus, table map[models.LeadStatus]map[models.LeadStatus]bool) bool {
	if current == "" {
		return true
	}
	if current == to {
		return true
	}
	nexts, ok := table[current]
	if !ok {
		return false
	}
	return nexts[to]
}

func isKnownStatus(s models.LeadStatus) bool {
	for _, st := range models.LeadStatuses {
		if st == s {
			return true
		}
	}
	return false
}

func trimmed(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

func ptr[T any](v T) *T { return &v }

func sameStr(a, b *string) bool {
	return trimmed(a) == trimmed(b)
}

// planStatusChange проверяет переход и собирает то, что нужно записать одним UPDATE.
// noop=true: статус и исход не меняются, писать нечего.
func planStatusChange(lead *models.Lead, ch models.StatusChange, today time.Time) (upd models.LeadStatusUpdate, noop bool, err error) {
	if !isKnownStatus(ch.Status) {
		return upd, false, fieldError("status", "unknown status")
	}
	if !canTransition(lead.Status, ch.Status, LeadTransitions) {
		return upd, false, ErrInvalidTransition
	}

	if ch.Status != models.LeadStatusLost {
		if lead.Status == ch.Status {
			return upd, true, nil
		}
		return models.LeadStatusUpdate{
			Status:           ch.Status,
			HasBeenContacted: lead.HasBeenContacted || lead.Status == models.LeadStatusLost,
		}, false, nil
	}

	verr := &ValidationError{}
	if ch.OutcomeType == nil || *ch.OutcomeType == "" {
		verr.add("outcomeType", "outcome type is required for lost leads")
		return upd, false, verr
	}

	upd = models.LeadStatusUpdate{
		Status:           models.LeadStatusLost,
		OutcomeType:      ptr(*ch.OutcomeType),
		HasBeenContacted: lead.HasBeenContacted,
	}

	switch *ch.OutcomeType {
	case models.OutcomePostponed:
		until := trimmed(ch.PostponedUntil)
		if until == "" {
			verr.add("postponedUntil", "required")
		} else if d, perr := time.Parse(dateLayout, until); perr != nil {
			verr.add("postponedUntil", "must be YYYY-MM-DD")
		} else if d.Before(dateOnly(today)) {
			verr.add("postponedUntil", "must not be in the past")
		}
		reason := trimmed(ch.PostponeReason)
		if reason == "" {
			verr.add("postponeReason", "required")
		}
		upd.PostponedUntil = ptr(until)
		upd.PostponeReason = ptr(reason)
	case models.OutcomeFailed:
		reason := trimmed(ch.FailureReason)
		if reason == "" {
			verr.add("failureReason", "required")
		}
		upd.FailureReason = ptr(reason)
	default:
		verr.add("outcomeType", "unknown outcome type")
	}
	if err := verr.err(); err != nil {
		return models.LeadStatusUpdate{}, false, err
	}

	if lead.Status == models.LeadStatusLost &&
		lead.OutcomeType != nil && *lead.OutcomeType == *upd.OutcomeType &&
		sameStr(lead.PostponedUntil, upd.PostponedUntil) &&
		sameStr(lead.PostponeReason, upd.PostponeReason) &&
		sameStr(lead.FailureReason, upd.FailureReason) {
		return upd, true, nil
	}
	return upd, false, nil
}

// DisplayColor: ручной цвет важнее; иначе converted/won зелёный, lost красный.
func DisplayColor(lead *models.Lead) string {
	if c := trimmed(lead.Color); c != "" {
		return c
	}
	switch lead.Status {
	case models.LeadStatusConverted, models.LeadStatusWon:
		return models.ColorGreen
	case models.LeadStatusLost:
		return models.ColorRed
	}
	return ""
}

const dateLayout = "2006-01-02"

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
