package services

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"turcrm/internal/models"
	"turcrm/internal/pdf"
)

type fakeGenerator struct {
	contract *pdf.ContractData
	booking  *pdf.BookingData
}

func (g *fakeGenerator) GenerateContract(d pdf.ContractData) (string, error) {
	g.contract = &d
	return "/srv/files/contract_lead_7.pdf", nil
}

func (g *fakeGenerator) GenerateBookingSheet(d pdf.BookingData) (string, error) {
	g.booking = &d
	return "/srv/files/booking_lead_7.pdf", nil
}

type memDocStore struct{ docs []*models.Document }

func (m *memDocStore) Create(_ context.Context, doc *models.Document) (int64, error) {
	doc.ID = int64(len(m.docs) + 1)
	m.docs = append(m.docs, doc)
	return doc.ID, nil
}

func (m *memDocStore) ListByLead(_ context.Context, leadID int64) ([]*models.Document, error) {
	var out []*models.Document
	for _, d := range m.docs {
		if d.LeadID == leadID {
			out = append(out, d)
		}
	}
	return out, nil
}

func documentFixture(tourists []*models.Tourist) (*DocumentService, *fakeGenerator, *memDocStore) {
	eventID := int64(3)
	leads := &mockLeadRepo{}
	leads.On("GetByID", mock.Anything, int64(7)).Return(&models.Lead{
		ID: 7, LastName: "Ахметов", FirstName: "Арман", EventID: &eventID, Cost: 900, Advance: 200, Remainder: 700,
	}, nil)
	events := &mockEventRepo{}
	events.On("GetByID", mock.Anything, eventID).Return(&models.Event{
		ID: 3, Name: "Шёлковый путь", Cities: []string{"Алматы", "Астана"}, Currency: "KZT",
	}, nil)
	tr := &mockTouristRepo{}
	tr.On("ListByLead", mock.Anything, int64(7)).Return(tourists, nil)

	gen := &fakeGenerator{}
	store := &memDocStore{}
	s := NewDocumentService(store, leads, events, tr, "/srv/files", gen, "ТурКомпани")
	s.now = func() time.Time { return time.Date(2025, 5, 20, 0, 0, 0, 0, time.UTC) }
	return s, gen, store
}

func TestContract_RequiresPrimaryTourist(t *testing.T) {
	s, gen, store := documentFixture([]*models.Tourist{{ID: 1, LeadID: 7, LastName: "Ким"}})

	_, err := s.Contract(context.Background(), 7, 5)
	assert.ErrorIs(t, err, ErrNoPrimaryTourist)
	assert.Nil(t, gen.contract)
	assert.Empty(t, store.docs)
}

func TestContract_SignatoryIsPrimary(t *testing.T) {
	s, gen, store := documentFixture([]*models.Tourist{
		{ID: 1, LeadID: 7, LastName: "Ахметов", FirstName: "Арман", IsPrimary: true, PassportNumber: "N1"},
		{ID: 2, LeadID: 7, LastName: "Ахметова", FirstName: "Дана"},
	})

	doc, err := s.Contract(context.Background(), 7, 5)
	require.NoError(t, err)
	require.NotNil(t, gen.contract)
	assert.Equal(t, "Ахметов Арман", gen.contract.Signatory)
	assert.Equal(t, []string{"Ахметов Арман", "Ахметова Дана"}, gen.contract.Tourists)
	assert.Equal(t, "KZT", gen.contract.Currency)
	assert.Equal(t, []string{"Алматы", "Астана"}, gen.contract.Cities)
	assert.Equal(t, 700.0, gen.contract.Remainder)

	assert.Equal(t, models.DocContract, doc.DocType)
	assert.Equal(t, "contract_lead_7.pdf", doc.FilePath)
	assert.Equal(t, 5, doc.CreatedBy)
	assert.Equal(t, filepath.Join("/srv/files", "contract_lead_7.pdf"), s.AbsPath(doc))
	assert.Len(t, store.docs, 1)
}

func TestBookingSheet_NoPrimaryNeeded(t *testing.T) {
	s, gen, _ := documentFixture([]*models.Tourist{{ID: 1, LeadID: 7, LastName: "Ким", LastNameLatin: "KIM"}})

	doc, err := s.BookingSheet(context.Background(), 7, 5)
	require.NoError(t, err)
	require.NotNil(t, gen.booking)
	assert.Equal(t, "Ахметов Арман", gen.booking.Client)
	require.Len(t, gen.booking.Rows, 1)
	assert.Equal(t, "KIM", gen.booking.Rows[0].Latin)
	assert.Equal(t, models.DocBookingSheet, doc.DocType)
}

func TestContract_LeadWithoutEvent(t *testing.T) {
	leads := &mockLeadRepo{}
	leads.On("GetByID", mock.Anything, int64(8)).Return(&models.Lead{ID: 8}, nil)
	s := NewDocumentService(&memDocStore{}, leads, &mockEventRepo{}, &mockTouristRepo{}, "/tmp", &fakeGenerator{}, "")

	_, err := s.Contract(context.Background(), 8, 1)
	assert.ErrorIs(t, err, ErrLeadHasNoEvent)
}
