package models

import (
	"encoding/json"
	"time"
)

type FieldType string

const (
	FieldText     FieldType = "text"
	FieldEmail    FieldType = "email"
	FieldPhone    FieldType = "phone"
	FieldSelect   FieldType = "select"
	FieldCheckbox FieldType = "checkbox"
	FieldTextarea FieldType = "textarea"
	FieldTour     FieldType = "tour"
)

func (t FieldType) Valid() bool {
	switch t {
	case FieldText, FieldEmail, FieldPhone, FieldSelect, FieldCheckbox, FieldTextarea, FieldTour:
		return true
	}
	return false
}

type Form struct {
	ID          int64        `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	IsActive    bool         `json:"isActive"`
	Fields      []*FormField `json:"fields"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

type FormField struct {
	ID          int64     `json:"id"`
	FormID      int64     `json:"formId"`
	Key         string    `json:"key"`
	Label       string    `json:"label"`
	Type        FieldType `json:"type"`
	Required    bool      `json:"required"`
	Order       int       `json:"order"`
	Options     []string  `json:"options"`
	Placeholder string    `json:"placeholder"`
}

type FormPatch struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"isActive"`
}

type FieldPatch struct {
	Key         *string    `json:"key"`
	Label       *string    `json:"label"`
	Type        *FieldType `json:"type"`
	Required    *bool      `json:"required"`
	Options     *[]string  `json:"options"`
	Placeholder *string    `json:"placeholder"`
}

type FormSubmission struct {
	ID        int64           `json:"id"`
	FormID    int64           `json:"formId"`
	Data      json.RawMessage `json:"data"`
	LeadID    *int64          `json:"leadId"`
	CreatedAt time.Time       `json:"createdAt"`
}
