package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"turcrm/internal/models"
	"turcrm/internal/repositories"
)

func TestTouristCreate_FirstBecomesPrimary(t *testing.T) {
	leads := &mockLeadRepo{}
	leads.On("GetByID", mock.Anything, int64(1)).Return(&models.Lead{ID: 1}, nil)
	repo := &mockTouristRepo{}
	repo.On("Create", mock.Anything, mock.AnythingOfType("*models.Tourist")).
		Run(func(args mock.Arguments) { args.Get(1).(*models.Tourist).IsPrimary = true }).
		Return(nil)
	s := NewTouristService(repo, leads)

	tourist, err := s.Create(context.Background(), 1, models.TouristPatch{LastName: ptr("Ким"), LastNameLatin: ptr("kim")})
	require.NoError(t, err)
	assert.True(t, tourist.IsPrimary)
	assert.Equal(t, "KIM", tourist.LastNameLatin)
}

func TestTouristCreate_SecondIsNotPrimaryByDefault(t *testing.T) {
	leads := &mockLeadRepo{}
	leads.On("GetByID", mock.Anything, int64(1)).Return(&models.Lead{ID: 1}, nil)
	repo := &mockTouristRepo{}
	repo.On("Create", mock.Anything, mock.MatchedBy(func(t *models.Tourist) bool { return !t.IsPrimary })).Return(nil)
	s := NewTouristService(repo, leads)

	tourist, err := s.Create(context.Background(), 1, models.TouristPatch{FirstName: ptr("Алия")})
	require.NoError(t, err)
	assert.False(t, tourist.IsPrimary)
}

func TestTouristCreate_Validation(t *testing.T) {
	leads := &mockLeadRepo{}
	leads.On("GetByID", mock.Anything, int64(1)).Return(&models.Lead{ID: 1}, nil)
	repo := &mockTouristRepo{}
	s := NewTouristService(repo, leads)

	_, err := s.Create(context.Background(), 1, models.TouristPatch{
		LastName:        ptr("Ким"),
		BirthDate:       ptr("15/03/1990"),
		PassportIssued:  ptr("2020-01-10"),
		PassportExpires: ptr("2019-01-10"),
		Email:           ptr("not-an-email"),
	})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "birthDate")
	assert.Contains(t, verr.Fields, "passportExpiresAt")
	assert.Contains(t, verr.Fields, "email")
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestTouristSetPrimary_SingleAtomicCall(t *testing.T) {
	repo := &mockTouristRepo{}
	repo.On("GetByID", mock.Anything, int64(22)).Return(&models.Tourist{ID: 22, LeadID: 10}, nil)
	repo.On("SetPrimary", mock.Anything, int64(10), int64(22)).Return(nil).Once()
	repo.On("ListByLead", mock.Anything, int64(10)).Return([]*models.Tourist{
		{ID: 22, LeadID: 10, IsPrimary: true},
		{ID: 21, LeadID: 10},
	}, nil)
	leads := &mockLeadRepo{}
	leads.On("GetByID", mock.Anything, int64(10)).Return(&models.Lead{ID: 10}, nil)
	feed := &recordingListener{}
	s := NewTouristService(repo, leads, feed)

	list, err := s.SetPrimary(context.Background(), 10, 22)
	require.NoError(t, err)

	primaries := 0
	for _, tr := range list {
		if tr.IsPrimary {
			primaries++
		}
	}
	assert.Equal(t, 1, primaries)
	repo.AssertNumberOfCalls(t, "SetPrimary", 1)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	assert.Len(t, feed.events, 1)
}

func TestTouristSetPrimary_WrongLead(t *testing.T) {
	repo := &mockTouristRepo{}
	repo.On("GetByID", mock.Anything, int64(22)).Return(&models.Tourist{ID: 22, LeadID: 11}, nil)
	s := NewTouristService(repo, &mockLeadRepo{})

	_, err := s.SetPrimary(context.Background(), 10, 22)
	assert.ErrorIs(t, err, ErrTouristNotFound)
	repo.AssertNotCalled(t, "SetPrimary", mock.Anything, mock.Anything, mock.Anything)
}

func TestTouristDelete_LastOneRejected(t *testing.T) {
	repo := &mockTouristRepo{}
	repo.On("GetByID", mock.Anything, int64(5)).Return(&models.Tourist{ID: 5, LeadID: 1, IsPrimary: true}, nil)
	repo.On("Delete", mock.Anything, mock.Anything).Return(repositories.ErrLastTourist)
	feed := &recordingListener{}
	s := NewTouristService(repo, &mockLeadRepo{}, feed)

	err := s.Delete(context.Background(), 5)
	assert.ErrorIs(t, err, ErrLastTourist)
	assert.Empty(t, feed.events)
}

func TestTouristDelete_PrimaryWithOthers(t *testing.T) {
	tourist := &models.Tourist{ID: 5, LeadID: 1, IsPrimary: true}
	repo := &mockTouristRepo{}
	repo.On("GetByID", mock.Anything, int64(5)).Return(tourist, nil)
	repo.On("Delete", mock.Anything, tourist).Return(nil)
	leads := &mockLeadRepo{}
	leads.On("GetByID", mock.Anything, int64(1)).Return(&models.Lead{ID: 1}, nil)
	s := NewTouristService(repo, leads)

	require.NoError(t, s.Delete(context.Background(), 5))
	repo.AssertCalled(t, "Delete", mock.Anything, tourist)
}

func TestTouristUpdate_DemotingPrimaryRejected(t *testing.T) {
	repo := &mockTouristRepo{}
	repo.On("GetByID", mock.Anything, int64(5)).Return(&models.Tourist{ID: 5, LeadID: 1, LastName: "Ким", IsPrimary: true}, nil)
	s := NewTouristService(repo, &mockLeadRepo{})

	_, err := s.Update(context.Background(), 5, models.TouristPatch{IsPrimary: ptr(false)})
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestTouristUpdate_PrimaryFlagRoutesToSetPrimary(t *testing.T) {
	repo := &mockTouristRepo{}
	repo.On("GetByID", mock.Anything, int64(6)).Return(&models.Tourist{ID: 6, LeadID: 1, LastName: "Ли"}, nil)
	repo.On("SetPrimary", mock.Anything, int64(1), int64(6)).Return(nil)
	leads := &mockLeadRepo{}
	leads.On("GetByID", mock.Anything, int64(1)).Return(&models.Lead{ID: 1}, nil)
	s := NewTouristService(repo, leads)

	tourist, err := s.Update(context.Background(), 6, models.TouristPatch{IsPrimary: ptr(true)})
	require.NoError(t, err)
	assert.True(t, tourist.IsPrimary)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}
