package models

import "time"

// Event описывает тур: маршрут по городам, даты, лимит мест.
type Event struct {
	ID               int64     `json:"id"`
	Name             string    `json:"name"`
	Country          string    `json:"country"`
	Cities           []string  `json:"cities"`
	StartDate        string    `json:"startDate"` // YYYY-MM-DD
	EndDate          string    `json:"endDate"`
	ParticipantLimit int       `json:"participantLimit"`
	Price            float64   `json:"price"`
	Currency         string    `json:"currency"`
	Description      string    `json:"description"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// HasCity: входит ли город в маршрут.
func (e *Event) HasCity(city string) bool {
	for _, c := range e.Cities {
		if c == city {
			return true
		}
	}
	return false
}

// EventPayload хранит сырое тело запроса: даты строкой или ISO-таймстемпом,
// числа числом или строкой. Нормализуется EventService до записи.
type EventPayload struct {
	Name             *string   `json:"name"`
	Country          *string   `json:"country"`
	Cities           *[]string `json:"cities"`
	StartDate        any       `json:"startDate"`
	EndDate          any       `json:"endDate"`
	ParticipantLimit any       `json:"participantLimit"`
	Price            any       `json:"price"`
	Currency         *string   `json:"currency"`
	Description      *string   `json:"description"`
}

type EventParticipants struct {
	EventID          int64 `json:"eventId"`
	ParticipantLimit int   `json:"participantLimit"`
	Participants     int   `json:"participants"`
	SeatsLeft        int   `json:"seatsLeft"`
}
