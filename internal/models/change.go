package models

// Типы событий ленты изменений доски.
const (
	ChangeLeadCreated  = "lead.created"
	ChangeLeadUpdated  = "lead.updated"
	ChangeLeadStatus   = "lead.status"
	ChangeLeadArchived = "lead.archived"
	ChangeLeadDeleted  = "lead.deleted"
	ChangeTourist      = "tourist.changed"
	ChangeVisit        = "visit.changed"
	ChangeEventUpdated = "event.updated"
)

// ChangeEvent уходит подписчикам после каждой мутации заявки/туриста.
// Клиент по нему перезапрашивает данные, источник истины: REST.
type ChangeEvent struct {
	Type    string `json:"type"`
	LeadID  int64  `json:"leadId,omitempty"`
	EventID *int64 `json:"eventId,omitempty"`
}
