package models

import (
	"encoding/json"
	"time"
)

// Фиксированные ключи пользовательских настроек.
const (
	PrefLeadsViewMode = "leadsViewMode"
	PrefTourGroupings = "tourGroupings"
)

const (
	ViewModeKanban = "kanban"
	ViewModeTable  = "table"
)

type Preference struct {
	UserID    int             `json:"userId"`
	Key       string          `json:"key"`
	Value     json.RawMessage `json:"value"`
	UpdatedAt time.Time       `json:"updatedAt"`
}
