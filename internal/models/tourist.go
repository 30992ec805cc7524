package models

import "time"

// Tourist: путешественник в заявке (паспортные данные).
type Tourist struct {
	ID     int64 `json:"id"`
	LeadID int64 `json:"leadId"`

	LastName       string `json:"lastName"`
	FirstName      string `json:"firstName"`
	MiddleName     string `json:"middleName"`
	LastNameLatin  string `json:"lastNameLatin"`
	FirstNameLatin string `json:"firstNameLatin"`

	BirthDate       *string `json:"birthDate"` // YYYY-MM-DD
	PassportSeries  string  `json:"passportSeries"`
	PassportNumber  string  `json:"passportNumber"`
	PassportIssued  *string `json:"passportIssuedAt"`
	PassportExpires *string `json:"passportExpiresAt"`
	PassportIssuer  string  `json:"passportIssuedBy"`
	Citizenship     string  `json:"citizenship"`

	Phone      string `json:"phone"`
	Email      string `json:"email"`
	VisaStatus string `json:"visaStatus"`
	Notes      string `json:"notes"`

	IsPrimary bool      `json:"isPrimary"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (t *Tourist) FullName() string {
	name := t.LastName
	for _, part := range []string{t.FirstName, t.MiddleName} {
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

type TouristPatch struct {
	LastName        *string `json:"lastName"`
	FirstName       *string `json:"firstName"`
	MiddleName      *string `json:"middleName"`
	LastNameLatin   *string `json:"lastNameLatin"`
	FirstNameLatin  *string `json:"firstNameLatin"`
	BirthDate       *string `json:"birthDate"`
	PassportSeries  *string `json:"passportSeries"`
	PassportNumber  *string `json:"passportNumber"`
	PassportIssued  *string `json:"passportIssuedAt"`
	PassportExpires *string `json:"passportExpiresAt"`
	PassportIssuer  *string `json:"passportIssuedBy"`
	Citizenship     *string `json:"citizenship"`
	Phone           *string `json:"phone"`
	Email           *string `json:"email"`
	VisaStatus      *string `json:"visaStatus"`
	Notes           *string `json:"notes"`
	IsPrimary       *bool   `json:"isPrimary"`
}

// EventTourist: турист с данными его заявки, для сводки по туру.
type EventTourist struct {
	Tourist
	LeadName   string     `json:"leadName"`
	LeadStatus LeadStatus `json:"leadStatus"`
}
