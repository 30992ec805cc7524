package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"turcrm/internal/models"
)

func tourForm() *models.Form {
	return &models.Form{
		ID:       4,
		Name:     "Заявка на тур",
		IsActive: true,
		Fields: []*models.FormField{
			{ID: 1, FormID: 4, Key: "name", Label: "Имя", Type: models.FieldText, Required: true},
			{ID: 2, FormID: 4, Key: "email", Label: "Email", Type: models.FieldEmail, Required: true},
			{ID: 3, FormID: 4, Key: "phone", Label: "Телефон", Type: models.FieldPhone},
			{ID: 4, FormID: 4, Key: "budget", Label: "Бюджет", Type: models.FieldSelect, Options: []string{"до 500k", "500k+"}},
			{ID: 5, FormID: 4, Key: "agree", Label: "Согласие", Type: models.FieldCheckbox, Required: true},
			{ID: 6, FormID: 4, Key: "tour", Label: "Тур", Type: models.FieldTour},
		},
	}
}

type chanNotifier struct{ ch chan *models.Lead }

func (n *chanNotifier) NotifyNewLead(_ context.Context, _ *models.Form, lead *models.Lead) {
	n.ch <- lead
}

func TestValidateSubmission(t *testing.T) {
	events := &mockEventRepo{}
	events.On("GetByID", mock.Anything, int64(2)).Return(&models.Event{ID: 2}, nil)
	events.On("GetByID", mock.Anything, int64(99)).Return(nil, nil)
	s := NewFormService(&mockFormRepo{}, events, nil, nil, nil)

	tests := []struct {
		name   string
		data   map[string]any
		fields []string
	}{
		{"missing required email", map[string]any{"name": "Дана", "agree": true}, []string{"email"}},
		{"bad email", map[string]any{"name": "Дана", "email": "dana@", "agree": true}, []string{"email"}},
		{"short phone", map[string]any{"name": "Дана", "email": "d@x.kz", "phone": "123", "agree": true}, []string{"phone"}},
		{"select outside options", map[string]any{"name": "Дана", "email": "d@x.kz", "budget": "1m", "agree": true}, []string{"budget"}},
		{"required checkbox false", map[string]any{"name": "Дана", "email": "d@x.kz", "agree": false}, []string{"agree"}},
		{"checkbox not bool", map[string]any{"name": "Дана", "email": "d@x.kz", "agree": "yes"}, []string{"agree"}},
		{"unknown tour", map[string]any{"name": "Дана", "email": "d@x.kz", "agree": true, "tour": 99.0}, []string{"tour"}},
		{"text not string", map[string]any{"name": 5.0, "email": "d@x.kz", "agree": true}, []string{"name"}},
		{"blank required text", map[string]any{"name": "  ", "email": "d@x.kz", "agree": true}, []string{"name"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.ValidateSubmission(context.Background(), tourForm(), tt.data)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			for _, f := range tt.fields {
				assert.Contains(t, verr.Fields, f)
			}
		})
	}

	clean, err := s.ValidateSubmission(context.Background(), tourForm(), map[string]any{
		"name": " Дана ", "email": "d@x.kz", "agree": true, "tour": "2", "budget": "500k+", "utm": "ads",
	})
	require.NoError(t, err)
	assert.Equal(t, "Дана", clean["name"])
	assert.Equal(t, int64(2), clean["tour"])
	assert.NotContains(t, clean, "utm")
}

func TestSubmitPublic_MissingEmailStoresNothing(t *testing.T) {
	forms := &mockFormRepo{}
	forms.On("GetByID", mock.Anything, int64(4)).Return(tourForm(), nil)
	leads := &mockLeadRepo{}
	s := NewFormService(forms, &mockEventRepo{}, NewLeadService(leads, &mockEventRepo{}, nil), nil, nil)

	_, err := s.SubmitPublic(context.Background(), 4, map[string]any{"name": "Дана", "agree": true})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "email")
	forms.AssertNotCalled(t, "CreateSubmission", mock.Anything, mock.Anything)
	leads.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSubmitPublic_InactiveFormNotFound(t *testing.T) {
	form := tourForm()
	form.IsActive = false
	forms := &mockFormRepo{}
	forms.On("GetByID", mock.Anything, int64(4)).Return(form, nil)
	s := NewFormService(forms, &mockEventRepo{}, nil, nil, nil)

	_, err := s.SubmitPublic(context.Background(), 4, map[string]any{})
	assert.ErrorIs(t, err, ErrFormNotFound)
}

func TestSubmitPublic_CreatesLeadAndNotifies(t *testing.T) {
	forms := &mockFormRepo{}
	forms.On("GetByID", mock.Anything, int64(4)).Return(tourForm(), nil)
	forms.On("CreateSubmission", mock.Anything, mock.AnythingOfType("*models.FormSubmission")).Return(nil)

	eventID := int64(2)
	events := &mockEventRepo{}
	events.On("GetByID", mock.Anything, eventID).Return(&models.Event{ID: eventID, Cities: []string{}}, nil)

	var created *models.Lead
	leads := &mockLeadRepo{}
	leads.On("Create", mock.Anything, mock.AnythingOfType("*models.Lead")).
		Run(func(args mock.Arguments) {
			created = args.Get(1).(*models.Lead)
			created.ID = 31
		}).
		Return(nil)

	notifier := &chanNotifier{ch: make(chan *models.Lead, 1)}
	s := NewFormService(forms, events, NewLeadService(leads, events, nil), notifier, nil)

	sub, err := s.SubmitPublic(context.Background(), 4, map[string]any{
		"name": "Дана", "email": "d@x.kz", "agree": true, "tour": 2.0, "budget": "до 500k",
	})
	require.NoError(t, err)
	require.NotNil(t, sub.LeadID)
	assert.Equal(t, int64(31), *sub.LeadID)

	require.NotNil(t, created)
	assert.Equal(t, "form:4", created.Source)
	assert.Equal(t, "Дана", created.FirstName)
	assert.Equal(t, "d@x.kz", created.Email)
	require.NotNil(t, created.EventID)
	assert.Equal(t, eventID, *created.EventID)
	assert.Contains(t, created.Comment, "Бюджет: до 500k")

	var stored map[string]any
	require.NoError(t, json.Unmarshal(sub.Data, &stored))
	assert.Equal(t, "d@x.kz", stored["email"])

	select {
	case lead := <-notifier.ch:
		assert.Equal(t, int64(31), lead.ID)
	case <-time.After(time.Second):
		t.Fatal("notifier was not called")
	}
}

func TestReorderFields_RequiresPermutation(t *testing.T) {
	forms := &mockFormRepo{}
	forms.On("GetByID", mock.Anything, int64(4)).Return(tourForm(), nil)
	s := NewFormService(forms, &mockEventRepo{}, nil, nil, nil)

	for _, ids := range [][]int64{
		{1, 2, 3},
		{1, 2, 3, 4, 5, 5},
		{1, 2, 3, 4, 5, 77},
	} {
		_, err := s.ReorderFields(context.Background(), 4, ids)
		var verr *ValidationError
		assert.ErrorAs(t, err, &verr)
	}
	forms.AssertNotCalled(t, "ReorderFields", mock.Anything, mock.Anything, mock.Anything)
}

func TestReorderFields_SingleBatch(t *testing.T) {
	ids := []int64{6, 5, 4, 3, 2, 1}
	forms := &mockFormRepo{}
	forms.On("GetByID", mock.Anything, int64(4)).Return(tourForm(), nil)
	forms.On("ReorderFields", mock.Anything, int64(4), ids).Return(nil).Once()
	forms.On("ListFields", mock.Anything, int64(4)).Return(tourForm().Fields, nil)
	s := NewFormService(forms, &mockEventRepo{}, nil, nil, nil)

	_, err := s.ReorderFields(context.Background(), 4, ids)
	require.NoError(t, err)
	forms.AssertNumberOfCalls(t, "ReorderFields", 1)
	forms.AssertNotCalled(t, "UpdateField", mock.Anything, mock.Anything)
}

func TestAddField_DuplicateKey(t *testing.T) {
	forms := &mockFormRepo{}
	forms.On("GetByID", mock.Anything, int64(4)).Return(tourForm(), nil)
	s := NewFormService(forms, &mockEventRepo{}, nil, nil, nil)

	typ := models.FieldText
	_, err := s.AddField(context.Background(), 4, models.FieldPatch{Key: ptr("email"), Type: &typ})
	assert.ErrorIs(t, err, ErrDuplicateFieldKey)

	bad := models.FieldType("date")
	_, err = s.AddField(context.Background(), 4, models.FieldPatch{Key: ptr("when"), Type: &bad})
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestSubmitPublic_SubmissionFailureRemovesLead(t *testing.T) {
	forms := &mockFormRepo{}
	forms.On("GetByID", mock.Anything, int64(4)).Return(tourForm(), nil)
	forms.On("CreateSubmission", mock.Anything, mock.AnythingOfType("*models.FormSubmission")).Return(errors.New("db down"))

	leads := &mockLeadRepo{}
	leads.On("Create", mock.Anything, mock.AnythingOfType("*models.Lead")).
		Run(func(args mock.Arguments) { args.Get(1).(*models.Lead).ID = 31 }).
		Return(nil)
	leads.On("GetByID", mock.Anything, int64(31)).Return(&models.Lead{ID: 31, Status: models.LeadStatusNew}, nil)
	leads.On("Delete", mock.Anything, int64(31)).Return(nil).Once()

	feed := &recordingListener{}
	notifier := &chanNotifier{ch: make(chan *models.Lead, 1)}
	s := NewFormService(forms, &mockEventRepo{}, NewLeadService(leads, &mockEventRepo{}, nil, feed), notifier, nil)

	_, err := s.SubmitPublic(context.Background(), 4, map[string]any{"name": "Дана", "email": "d@x.kz", "agree": true})
	require.EqualError(t, err, "db down")
	leads.AssertExpectations(t)

	require.Len(t, feed.events, 2)
	assert.Equal(t, models.ChangeLeadDeleted, feed.events[1].Type)
	assert.Equal(t, int64(31), feed.events[1].LeadID)

	select {
	case <-notifier.ch:
		t.Fatal("notifier must not fire for a failed submission")
	case <-time.After(50 * time.Millisecond):
	}
}
