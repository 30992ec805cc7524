package services

import (
	"context"
	"encoding/json"
	"log"
	"strconv"

	"turcrm/internal/models"
	"turcrm/internal/repositories"
)

// PreferenceService: пользовательские настройки интерфейса с фиксированным набором ключей.
type PreferenceService interface {
	Get(ctx context.Context, userID int, key string) (json.RawMessage, error)
	Put(ctx context.Context, userID int, key string, value json.RawMessage) (json.RawMessage, error)
	TourGroupings(ctx context.Context, userID int, eventID int64) (models.GroupingOverrides, error)
}

type preferenceService struct {
	repo repositories.PreferenceRepository
}

func NewPreferenceService(repo repositories.PreferenceRepository) PreferenceService {
	return &preferenceService{repo: repo}
}

var preferenceDefaults = map[string]json.RawMessage{
	models.PrefLeadsViewMode: json.RawMessage(`"` + models.ViewModeKanban + `"`),
	models.PrefTourGroupings: json.RawMessage(`{}`),
}

// decodePreference проверяет значение и возвращает его в каноничном виде.
func decodePreference(key string, raw []byte) (json.RawMessage, error) {
	switch key {
	case models.PrefLeadsViewMode:
		var mode string
		if err := json.Unmarshal(raw, &mode); err != nil {
			return nil, fieldError("value", "must be a string")
		}
		if mode != models.ViewModeKanban && mode != models.ViewModeTable {
			return nil, fieldError("value", "must be kanban or table")
		}
		return json.Marshal(mode)
	case models.PrefTourGroupings:
		var byEvent map[string]models.GroupingOverrides
		if err := json.Unmarshal(raw, &byEvent); err != nil {
			return nil, fieldError("value", "must be an object of event id to grouping")
		}
		if byEvent == nil {
			byEvent = map[string]models.GroupingOverrides{}
		}
		for id := range byEvent {
			if n, err := strconv.ParseInt(id, 10, 64); err != nil || n <= 0 {
				return nil, fieldError("value", "keys must be event ids")
			}
		}
		return json.Marshal(byEvent)
	}
	return nil, ErrUnknownPreference
}

func (s *preferenceService) Get(ctx context.Context, userID int, key string) (json.RawMessage, error) {
	def, ok := preferenceDefaults[key]
	if !ok {
		return nil, ErrUnknownPreference
	}
	stored, found, err := s.repo.Get(ctx, userID, key)
	if err != nil {
		return nil, err
	}
	if !found {
		return def, nil
	}
	v, err := decodePreference(key, []byte(stored))
	if err != nil {
		log.Printf("[preferences][get] user=%d key=%s malformed value ignored: %v", userID, key, err)
		return def, nil
	}
	return v, nil
}

func (s *preferenceService) Put(ctx context.Context, userID int, key string, value json.RawMessage) (json.RawMessage, error) {
	if _, ok := preferenceDefaults[key]; !ok {
		return nil, ErrUnknownPreference
	}
	v, err := decodePreference(key, value)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Put(ctx, userID, key, string(v)); err != nil {
		return nil, err
	}
	return v, nil
}

func (s *preferenceService) TourGroupings(ctx context.Context, userID int, eventID int64) (models.GroupingOverrides, error) {
	raw, err := s.Get(ctx, userID, models.PrefTourGroupings)
	if err != nil {
		return models.GroupingOverrides{}, err
	}
	var byEvent map[string]models.GroupingOverrides
	if err := json.Unmarshal(raw, &byEvent); err != nil {
		return models.GroupingOverrides{}, nil
	}
	return byEvent[strconv.FormatInt(eventID, 10)], nil
}
