package repositories

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"turcrm/internal/models"
)

var leadCols = []string{
	"id", "first_name", "last_name", "middle_name", "phone", "email", "comment", "source",
	"status", "outcome_type", "postpone_reason", "postponed_until", "failure_reason",
	"is_archived", "has_been_contacted", "color", "event_id", "selected_cities",
	"cost", "advance", "remainder", "currency", "owner_id", "created_at", "updated_at",
}

func TestLeadRepository_UpdateStatus_SingleStatement(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewLeadRepository(db)

	outcome := models.OutcomePostponed
	reason := "no_budget"
	until := "2025-06-01"

	mock.ExpectExec("UPDATE leads").
		WithArgs("lost", "postponed", "no_budget", time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), nil, false, int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.UpdateStatus(context.Background(), 7, models.LeadStatusUpdate{
		Status:         models.LeadStatusLost,
		OutcomeType:    &outcome,
		PostponeReason: &reason,
		PostponedUntil: &until,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLeadRepository_UpdateWithStatus_OneTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewLeadRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`(?s)UPDATE leads.*SET first_name=`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`(?s)UPDATE leads.*SET status=`).
		WithArgs("contacted", nil, nil, nil, nil, true, int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err = repo.UpdateWithStatus(context.Background(),
		&models.Lead{ID: 7, FirstName: "Дана", Currency: "KZT"},
		models.LeadStatusUpdate{Status: models.LeadStatusContacted, HasBeenContacted: true},
	)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLeadRepository_UpdateWithStatus_RollsBackOnStatusError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewLeadRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`(?s)UPDATE leads.*SET first_name=`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`(?s)UPDATE leads.*SET status=`).
		WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	err = repo.UpdateWithStatus(context.Background(), &models.Lead{ID: 7}, models.LeadStatusUpdate{Status: models.LeadStatusContacted})
	assert.ErrorIs(t, err, sql.ErrConnDone)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLeadRepository_GetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewLeadRepository(db)
	now := time.Now()

	mock.ExpectQuery("FROM leads WHERE id").
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows(leadCols).AddRow(
			int64(3), "Айгерим", "Садыкова", "", "+77010000000", "a@example.kz", "", "form:1",
			"lost", "failed", nil, nil, "price",
			false, false, nil, int64(2), "{Алматы,Астана}",
			150000.0, 50000.0, 100000.0, "KZT", 1, now, now,
		))

	lead, err := repo.GetByID(context.Background(), 3)
	require.NoError(t, err)
	require.NotNil(t, lead)
	assert.Equal(t, models.LeadStatusLost, lead.Status)
	require.NotNil(t, lead.OutcomeType)
	assert.Equal(t, models.OutcomeFailed, *lead.OutcomeType)
	require.NotNil(t, lead.FailureReason)
	assert.Equal(t, "price", *lead.FailureReason)
	assert.Nil(t, lead.PostponedUntil)
	require.NotNil(t, lead.EventID)
	assert.Equal(t, int64(2), *lead.EventID)
	assert.Equal(t, []string{"Алматы", "Астана"}, lead.SelectedCities)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLeadRepository_GetByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewLeadRepository(db)
	mock.ExpectQuery("FROM leads WHERE id").WillReturnError(sql.ErrNoRows)

	lead, err := repo.GetByID(context.Background(), 1)
	assert.NoError(t, err)
	assert.Nil(t, lead)
}

func TestLeadRepository_ListExcludesArchivedByDefault(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewLeadRepository(db)
	status := models.LeadStatusNew

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM leads WHERE 1=1 AND is_archived = FALSE AND status = \\$1").
		WithArgs("new").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery("is_archived = FALSE AND status = \\$1 ORDER BY created_at DESC LIMIT \\$2 OFFSET \\$3").
		WithArgs("new", 20, 40).
		WillReturnRows(sqlmock.NewRows(leadCols))

	list, total, err := repo.List(context.Background(), models.LeadFilter{Status: &status, Limit: 20, Offset: 40})
	require.NoError(t, err)
	assert.Equal(t, 0, total)
	assert.Empty(t, list)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLeadRepository_DeleteMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewLeadRepository(db)
	mock.ExpectExec("DELETE FROM leads").WithArgs(int64(9)).WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.Delete(context.Background(), 9), sql.ErrNoRows)
}

func TestLeadRepository_CountByStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewLeadRepository(db)
	mock.ExpectQuery("GROUP BY status").
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
			AddRow("new", 3).
			AddRow("lost", 1))

	counts, err := repo.CountByStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, counts[models.LeadStatusNew])
	assert.Equal(t, 1, counts[models.LeadStatusLost])
	assert.Equal(t, 0, counts[models.LeadStatusConverted])
}
