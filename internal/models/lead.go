package models

import "time"

// LeadStatus: колонка канбана.
type LeadStatus string

const (
	LeadStatusNew       LeadStatus = "new"
	LeadStatusContacted LeadStatus = "contacted"
	LeadStatusQualified LeadStatus = "qualified"
	LeadStatusConverted LeadStatus = "converted"
	LeadStatusLost      LeadStatus = "lost"

	// старые записи из импорта Bitrix24 могут иметь "won"
	LeadStatusWon LeadStatus = "won"
)

// LeadStatuses: порядок колонок на доске.
var LeadStatuses = []LeadStatus{
	LeadStatusNew,
	LeadStatusContacted,
	LeadStatusQualified,
	LeadStatusConverted,
	LeadStatusLost,
}

// OutcomeType имеет смысл только при status = lost.
type OutcomeType string

const (
	OutcomePostponed OutcomeType = "postponed"
	OutcomeFailed    OutcomeType = "failed"
)

const (
	ColorGreen = "green"
	ColorRed   = "red"
)

type Lead struct {
	ID         int64  `json:"id"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	MiddleName string `json:"middleName"`
	Phone      string `json:"phone"`
	Email      string `json:"email"`
	Comment    string `json:"comment"`
	Source     string `json:"source"`

	Status         LeadStatus   `json:"status"`
	OutcomeType    *OutcomeType `json:"outcomeType"`
	PostponeReason *string      `json:"postponeReason"`
	PostponedUntil *string      `json:"postponedUntil"` // YYYY-MM-DD
	FailureReason  *string      `json:"failureReason"`

	IsArchived       bool    `json:"isArchived"`
	HasBeenContacted bool    `json:"hasBeenContacted"`
	Color            *string `json:"color"`
	DisplayColor     string  `json:"displayColor"`

	EventID        *int64   `json:"eventId"`
	SelectedCities []string `json:"selectedCities"`

	Cost      float64 `json:"cost"`
	Advance   float64 `json:"advance"`
	Remainder float64 `json:"remainder"`
	Currency  string  `json:"currency"`

	OwnerID   int       `json:"ownerId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// FullName: "Фамилия Имя Отчество" без лишних пробелов.
func (l *Lead) FullName() string {
	name := l.LastName
	for _, part := range []string{l.FirstName, l.MiddleName} {
		if part == "" {
			continue
		}
		if name != "" {
			name += " "
		}
		name += part
	}
	return name
}

// LeadPatch: PATCH /api/leads/:id, nil = поле не трогаем.
type LeadPatch struct {
	FirstName      *string      `json:"firstName"`
	LastName       *string      `json:"lastName"`
	MiddleName     *string      `json:"middleName"`
	Phone          *string      `json:"phone"`
	Email          *string      `json:"email"`
	Comment        *string      `json:"comment"`
	Source         *string      `json:"source"`
	Status         *LeadStatus  `json:"status"`
	OutcomeType    *OutcomeType `json:"outcomeType"`
	PostponeReason *string      `json:"postponeReason"`
	PostponedUntil *string      `json:"postponedUntil"`
	FailureReason  *string      `json:"failureReason"`
	Color          *string      `json:"color"`   // "": сбросить ручной цвет
	EventID        *int64       `json:"eventId"` // 0: отвязать от тура
	SelectedCities *[]string    `json:"selectedCities"`
	Cost           *float64     `json:"cost"`
	Advance        *float64     `json:"advance"`
	Remainder      *float64     `json:"remainder"`
	Currency       *string      `json:"currency"`
	OwnerID        *int         `json:"ownerId"`
}

// StatusChange: единый вход в машину статусов (drag&drop, контекстное меню, PATCH).
type StatusChange struct {
	Status         LeadStatus   `json:"status"`
	OutcomeType    *OutcomeType `json:"outcomeType"`
	PostponeReason *string      `json:"postponeReason"`
	PostponedUntil *string      `json:"postponedUntil"`
	FailureReason  *string      `json:"failureReason"`
}

// LeadStatusUpdate: то, что уходит в БД одним UPDATE.
type LeadStatusUpdate struct {
	Status           LeadStatus
	OutcomeType      *OutcomeType
	PostponeReason   *string
	PostponedUntil   *string
	FailureReason    *string
	HasBeenContacted bool
}

type LeadFilter struct {
	Status          *LeadStatus
	EventID         *int64
	OwnerID         *int
	Archived        bool // true: только архив
	IncludeArchived bool
	Query           string
	Limit           int
	Offset          int
}

type BoardColumn struct {
	Status LeadStatus `json:"status"`
	Count  int        `json:"count"`
	Leads  []*Lead    `json:"leads"`
}
