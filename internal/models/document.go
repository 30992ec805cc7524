package models

import "time"

const (
	DocContract     = "contract"
	DocBookingSheet = "booking_sheet"
)

// Document: сгенерированный файл по заявке (договор, лист бронирования).
type Document struct {
	ID        int64     `json:"id"`
	LeadID    int64     `json:"leadId"`
	DocType   string    `json:"docType"`
	FilePath  string    `json:"filePath"`
	CreatedBy int       `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
}
