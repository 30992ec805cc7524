package services

import (
	"context"

	"github.com/stretchr/testify/mock"

	"turcrm/internal/models"
)

type mockLeadRepo struct{ mock.Mock }

func (m *mockLeadRepo) Create(ctx context.Context, lead *models.Lead) error {
	return m.Called(ctx, lead).Error(0)
}

func (m *mockLeadRepo) GetByID(ctx context.Context, id int64) (*models.Lead, error) {
	args := m.Called(ctx, id)
	l, _ := args.Get(0).(*models.Lead)
	return l, args.Error(1)
}

func (m *mockLeadRepo) Update(ctx context.Context, lead *models.Lead) error {
	return m.Called(ctx, lead).Error(0)
}

func (m *mockLeadRepo) UpdateStatus(ctx context.Context, id int64, upd models.LeadStatusUpdate) error {
	return m.Called(ctx, id, upd).Error(0)
}

func (m *mockLeadRepo) UpdateWithStatus(ctx context.Context, lead *models.Lead, upd models.LeadStatusUpdate) error {
	return m.Called(ctx, lead, upd).Error(0)
}

func (m *mockLeadRepo) SetArchived(ctx context.Context, id int64, archived bool) error {
	return m.Called(ctx, id, archived).Error(0)
}

func (m *mockLeadRepo) UpdateSelectedCities(ctx context.Context, id int64, cities []string) error {
	return m.Called(ctx, id, cities).Error(0)
}

func (m *mockLeadRepo) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockLeadRepo) List(ctx context.Context, filter models.LeadFilter) ([]*models.Lead, int, error) {
	args := m.Called(ctx, filter)
	l, _ := args.Get(0).([]*models.Lead)
	return l, args.Int(1), args.Error(2)
}

func (m *mockLeadRepo) CountByStatus(ctx context.Context) (map[models.LeadStatus]int, error) {
	args := m.Called(ctx)
	c, _ := args.Get(0).(map[models.LeadStatus]int)
	return c, args.Error(1)
}

func (m *mockLeadRepo) CountByEvent(ctx context.Context, eventID int64) (int, error) {
	args := m.Called(ctx, eventID)
	return args.Int(0), args.Error(1)
}

type mockEventRepo struct{ mock.Mock }

func (m *mockEventRepo) Create(ctx context.Context, e *models.Event) error {
	return m.Called(ctx, e).Error(0)
}

func (m *mockEventRepo) GetByID(ctx context.Context, id int64) (*models.Event, error) {
	args := m.Called(ctx, id)
	e, _ := args.Get(0).(*models.Event)
	return e, args.Error(1)
}

func (m *mockEventRepo) List(ctx context.Context) ([]*models.Event, error) {
	args := m.Called(ctx)
	e, _ := args.Get(0).([]*models.Event)
	return e, args.Error(1)
}

func (m *mockEventRepo) Update(ctx context.Context, e *models.Event) error {
	return m.Called(ctx, e).Error(0)
}

func (m *mockEventRepo) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

type mockTouristRepo struct{ mock.Mock }

func (m *mockTouristRepo) ListByLead(ctx context.Context, leadID int64) ([]*models.Tourist, error) {
	args := m.Called(ctx, leadID)
	t, _ := args.Get(0).([]*models.Tourist)
	return t, args.Error(1)
}

func (m *mockTouristRepo) GetByID(ctx context.Context, id int64) (*models.Tourist, error) {
	args := m.Called(ctx, id)
	t, _ := args.Get(0).(*models.Tourist)
	return t, args.Error(1)
}

func (m *mockTouristRepo) Create(ctx context.Context, t *models.Tourist) error {
	return m.Called(ctx, t).Error(0)
}

func (m *mockTouristRepo) Update(ctx context.Context, t *models.Tourist) error {
	return m.Called(ctx, t).Error(0)
}

func (m *mockTouristRepo) SetPrimary(ctx context.Context, leadID, touristID int64) error {
	return m.Called(ctx, leadID, touristID).Error(0)
}

func (m *mockTouristRepo) Delete(ctx context.Context, t *models.Tourist) error {
	return m.Called(ctx, t).Error(0)
}

func (m *mockTouristRepo) ListByEvent(ctx context.Context, eventID int64) ([]*models.EventTourist, error) {
	args := m.Called(ctx, eventID)
	t, _ := args.Get(0).([]*models.EventTourist)
	return t, args.Error(1)
}

func (m *mockTouristRepo) CountByEvent(ctx context.Context, eventID int64) (int, error) {
	args := m.Called(ctx, eventID)
	return args.Int(0), args.Error(1)
}

type mockVisitRepo struct{ mock.Mock }

func (m *mockVisitRepo) Create(ctx context.Context, v *models.Visit) error {
	return m.Called(ctx, v).Error(0)
}

func (m *mockVisitRepo) GetByID(ctx context.Context, id int64) (*models.Visit, error) {
	args := m.Called(ctx, id)
	v, _ := args.Get(0).(*models.Visit)
	return v, args.Error(1)
}

func (m *mockVisitRepo) Update(ctx context.Context, v *models.Visit) error {
	return m.Called(ctx, v).Error(0)
}

func (m *mockVisitRepo) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockVisitRepo) ListByEvent(ctx context.Context, eventID int64) ([]*models.Visit, error) {
	args := m.Called(ctx, eventID)
	v, _ := args.Get(0).([]*models.Visit)
	return v, args.Error(1)
}

type mockFormRepo struct{ mock.Mock }

func (m *mockFormRepo) Create(ctx context.Context, f *models.Form) error {
	return m.Called(ctx, f).Error(0)
}

func (m *mockFormRepo) GetByID(ctx context.Context, id int64) (*models.Form, error) {
	args := m.Called(ctx, id)
	f, _ := args.Get(0).(*models.Form)
	return f, args.Error(1)
}

func (m *mockFormRepo) List(ctx context.Context) ([]*models.Form, error) {
	args := m.Called(ctx)
	f, _ := args.Get(0).([]*models.Form)
	return f, args.Error(1)
}

func (m *mockFormRepo) Update(ctx context.Context, f *models.Form) error {
	return m.Called(ctx, f).Error(0)
}

func (m *mockFormRepo) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockFormRepo) ListFields(ctx context.Context, formID int64) ([]*models.FormField, error) {
	args := m.Called(ctx, formID)
	f, _ := args.Get(0).([]*models.FormField)
	return f, args.Error(1)
}

func (m *mockFormRepo) GetField(ctx context.Context, id int64) (*models.FormField, error) {
	args := m.Called(ctx, id)
	f, _ := args.Get(0).(*models.FormField)
	return f, args.Error(1)
}

func (m *mockFormRepo) CreateField(ctx context.Context, f *models.FormField) error {
	return m.Called(ctx, f).Error(0)
}

func (m *mockFormRepo) UpdateField(ctx context.Context, f *models.FormField) error {
	return m.Called(ctx, f).Error(0)
}

func (m *mockFormRepo) DeleteField(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockFormRepo) ReorderFields(ctx context.Context, formID int64, ids []int64) error {
	return m.Called(ctx, formID, ids).Error(0)
}

func (m *mockFormRepo) CreateSubmission(ctx context.Context, s *models.FormSubmission) error {
	return m.Called(ctx, s).Error(0)
}

func (m *mockFormRepo) ListSubmissions(ctx context.Context, formID int64) ([]*models.FormSubmission, error) {
	args := m.Called(ctx, formID)
	s, _ := args.Get(0).([]*models.FormSubmission)
	return s, args.Error(1)
}

type mockPrefRepo struct{ mock.Mock }

func (m *mockPrefRepo) Get(ctx context.Context, userID int, key string) (string, bool, error) {
	args := m.Called(ctx, userID, key)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *mockPrefRepo) Put(ctx context.Context, userID int, key, value string) error {
	return m.Called(ctx, userID, key, value).Error(0)
}

type recordingListener struct{ events []models.ChangeEvent }

func (r *recordingListener) OnChange(_ context.Context, ev models.ChangeEvent) {
	r.events = append(r.events, ev)
}
