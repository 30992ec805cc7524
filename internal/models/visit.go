package models

import "time"

// Visit: пребывание туриста в городе маршрута.
type Visit struct {
	ID            int64     `json:"id"`
	TouristID     int64     `json:"touristId"`
	City          string    `json:"city"`
	ArrivalDate   *string   `json:"arrivalDate"`
	DepartureDate *string   `json:"departureDate"`
	Hotel         string    `json:"hotel"`
	Status        string    `json:"status"`
	Notes         string    `json:"notes"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type VisitPatch struct {
	City          *string `json:"city"`
	ArrivalDate   *string `json:"arrivalDate"`
	DepartureDate *string `json:"departureDate"`
	Hotel         *string `json:"hotel"`
	Status        *string `json:"status"`
	Notes         *string `json:"notes"`
}
