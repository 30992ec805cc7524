package handlers

import (
	"context"
	"encoding/json"

	"github.com/stretchr/testify/mock"

	"turcrm/internal/models"
)

type mockLeadService struct{ mock.Mock }

func (m *mockLeadService) Create(ctx context.Context, ownerID int, in models.LeadPatch) (*models.Lead, error) {
	args := m.Called(ctx, ownerID, in)
	l, _ := args.Get(0).(*models.Lead)
	return l, args.Error(1)
}

func (m *mockLeadService) Get(ctx context.Context, id int64) (*models.Lead, error) {
	args := m.Called(ctx, id)
	l, _ := args.Get(0).(*models.Lead)
	return l, args.Error(1)
}

func (m *mockLeadService) Update(ctx context.Context, id int64, patch models.LeadPatch) (*models.Lead, error) {
	args := m.Called(ctx, id, patch)
	l, _ := args.Get(0).(*models.Lead)
	return l, args.Error(1)
}

func (m *mockLeadService) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockLeadService) List(ctx context.Context, filter models.LeadFilter) ([]*models.Lead, int, error) {
	args := m.Called(ctx, filter)
	l, _ := args.Get(0).([]*models.Lead)
	return l, args.Int(1), args.Error(2)
}

func (m *mockLeadService) Board(ctx context.Context, filter models.LeadFilter) ([]models.BoardColumn, error) {
	args := m.Called(ctx, filter)
	cols, _ := args.Get(0).([]models.BoardColumn)
	return cols, args.Error(1)
}

func (m *mockLeadService) ChangeStatus(ctx context.Context, id int64, ch models.StatusChange) (*models.Lead, error) {
	args := m.Called(ctx, id, ch)
	l, _ := args.Get(0).(*models.Lead)
	return l, args.Error(1)
}

func (m *mockLeadService) Archive(ctx context.Context, id int64) (*models.Lead, error) {
	args := m.Called(ctx, id)
	l, _ := args.Get(0).(*models.Lead)
	return l, args.Error(1)
}

func (m *mockLeadService) Unarchive(ctx context.Context, id int64) (*models.Lead, error) {
	args := m.Called(ctx, id)
	l, _ := args.Get(0).(*models.Lead)
	return l, args.Error(1)
}

func (m *mockLeadService) ToggleCity(ctx context.Context, id int64, city string) (*models.Lead, error) {
	args := m.Called(ctx, id, city)
	l, _ := args.Get(0).(*models.Lead)
	return l, args.Error(1)
}

func (m *mockLeadService) Stats(ctx context.Context) (map[models.LeadStatus]int, error) {
	args := m.Called(ctx)
	s, _ := args.Get(0).(map[models.LeadStatus]int)
	return s, args.Error(1)
}

type mockTouristService struct{ mock.Mock }

func (m *mockTouristService) List(ctx context.Context, leadID int64) ([]*models.Tourist, error) {
	args := m.Called(ctx, leadID)
	l, _ := args.Get(0).([]*models.Tourist)
	return l, args.Error(1)
}

func (m *mockTouristService) Create(ctx context.Context, leadID int64, in models.TouristPatch) (*models.Tourist, error) {
	args := m.Called(ctx, leadID, in)
	t, _ := args.Get(0).(*models.Tourist)
	return t, args.Error(1)
}

func (m *mockTouristService) Update(ctx context.Context, id int64, patch models.TouristPatch) (*models.Tourist, error) {
	args := m.Called(ctx, id, patch)
	t, _ := args.Get(0).(*models.Tourist)
	return t, args.Error(1)
}

func (m *mockTouristService) SetPrimary(ctx context.Context, leadID, touristID int64) ([]*models.Tourist, error) {
	args := m.Called(ctx, leadID, touristID)
	l, _ := args.Get(0).([]*models.Tourist)
	return l, args.Error(1)
}

func (m *mockTouristService) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

type mockFormService struct{ mock.Mock }

func (m *mockFormService) Create(ctx context.Context, in models.FormPatch) (*models.Form, error) {
	args := m.Called(ctx, in)
	f, _ := args.Get(0).(*models.Form)
	return f, args.Error(1)
}

func (m *mockFormService) Get(ctx context.Context, id int64) (*models.Form, error) {
	args := m.Called(ctx, id)
	f, _ := args.Get(0).(*models.Form)
	return f, args.Error(1)
}

func (m *mockFormService) GetPublic(ctx context.Context, id int64) (*models.Form, error) {
	args := m.Called(ctx, id)
	f, _ := args.Get(0).(*models.Form)
	return f, args.Error(1)
}

func (m *mockFormService) List(ctx context.Context) ([]*models.Form, error) {
	args := m.Called(ctx)
	l, _ := args.Get(0).([]*models.Form)
	return l, args.Error(1)
}

func (m *mockFormService) Update(ctx context.Context, id int64, patch models.FormPatch) (*models.Form, error) {
	args := m.Called(ctx, id, patch)
	f, _ := args.Get(0).(*models.Form)
	return f, args.Error(1)
}

func (m *mockFormService) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockFormService) AddField(ctx context.Context, formID int64, in models.FieldPatch) (*models.FormField, error) {
	args := m.Called(ctx, formID, in)
	f, _ := args.Get(0).(*models.FormField)
	return f, args.Error(1)
}

func (m *mockFormService) UpdateField(ctx context.Context, formID, fieldID int64, patch models.FieldPatch) (*models.FormField, error) {
	args := m.Called(ctx, formID, fieldID, patch)
	f, _ := args.Get(0).(*models.FormField)
	return f, args.Error(1)
}

func (m *mockFormService) DeleteField(ctx context.Context, formID, fieldID int64) error {
	return m.Called(ctx, formID, fieldID).Error(0)
}

func (m *mockFormService) ReorderFields(ctx context.Context, formID int64, ids []int64) ([]*models.FormField, error) {
	args := m.Called(ctx, formID, ids)
	l, _ := args.Get(0).([]*models.FormField)
	return l, args.Error(1)
}

func (m *mockFormService) ValidateSubmission(ctx context.Context, form *models.Form, data map[string]any) (map[string]any, error) {
	args := m.Called(ctx, form, data)
	d, _ := args.Get(0).(map[string]any)
	return d, args.Error(1)
}

func (m *mockFormService) SubmitPublic(ctx context.Context, formID int64, data map[string]any) (*models.FormSubmission, error) {
	args := m.Called(ctx, formID, data)
	s, _ := args.Get(0).(*models.FormSubmission)
	return s, args.Error(1)
}

func (m *mockFormService) ListSubmissions(ctx context.Context, formID int64) ([]*models.FormSubmission, error) {
	args := m.Called(ctx, formID)
	l, _ := args.Get(0).([]*models.FormSubmission)
	return l, args.Error(1)
}

type mockPrefService struct{ mock.Mock }

func (m *mockPrefService) Get(ctx context.Context, userID int, key string) (json.RawMessage, error) {
	args := m.Called(ctx, userID, key)
	v, _ := args.Get(0).(json.RawMessage)
	return v, args.Error(1)
}

func (m *mockPrefService) Put(ctx context.Context, userID int, key string, value json.RawMessage) (json.RawMessage, error) {
	args := m.Called(ctx, userID, key, value)
	v, _ := args.Get(0).(json.RawMessage)
	return v, args.Error(1)
}

func (m *mockPrefService) TourGroupings(ctx context.Context, userID int, eventID int64) (models.GroupingOverrides, error) {
	args := m.Called(ctx, userID, eventID)
	g, _ := args.Get(0).(models.GroupingOverrides)
	return g, args.Error(1)
}

type mockSummaryService struct{ mock.Mock }

func (m *mockSummaryService) Build(ctx context.Context, eventID int64, overrides models.GroupingOverrides) (*models.TourSummary, error) {
	args := m.Called(ctx, eventID, overrides)
	s, _ := args.Get(0).(*models.TourSummary)
	return s, args.Error(1)
}

func (m *mockSummaryService) Export(ctx context.Context, eventID int64, overrides models.GroupingOverrides) ([]byte, string, error) {
	args := m.Called(ctx, eventID, overrides)
	b, _ := args.Get(0).([]byte)
	return b, args.String(1), args.Error(2)
}

func (m *mockSummaryService) CreateVisit(ctx context.Context, touristID int64, in models.VisitPatch) (*models.Visit, error) {
	args := m.Called(ctx, touristID, in)
	v, _ := args.Get(0).(*models.Visit)
	return v, args.Error(1)
}

func (m *mockSummaryService) UpdateVisit(ctx context.Context, touristID, visitID int64, patch models.VisitPatch) (*models.Visit, error) {
	args := m.Called(ctx, touristID, visitID, patch)
	v, _ := args.Get(0).(*models.Visit)
	return v, args.Error(1)
}

func (m *mockSummaryService) DeleteVisit(ctx context.Context, touristID, visitID int64) error {
	return m.Called(ctx, touristID, visitID).Error(0)
}
