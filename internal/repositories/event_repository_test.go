package repositories

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var eventCols = []string{"id", "name", "country", "cities", "start_date", "end_date", "participant_limit",
	"price", "currency", "description", "created_at", "updated_at"}

func TestEventRepository_GetByID_ScansRouteAndDates(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery("(?s)SELECT .* FROM events WHERE id=").
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows(eventCols).AddRow(
			int64(3), "Золотое кольцо", "Казахстан", "{Алматы,Астана}",
			time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC), nil,
			20, 350000.0, "KZT", "", now, now,
		))

	e, err := NewEventRepository(db).GetByID(context.Background(), 3)
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, []string{"Алматы", "Астана"}, e.Cities)
	assert.Equal(t, "2026-06-01", e.StartDate)
	assert.Empty(t, e.EndDate)
	assert.Equal(t, 20, e.ParticipantLimit)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepository_GetByID_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("(?s)SELECT .* FROM events WHERE id=").
		WithArgs(int64(404)).
		WillReturnError(sql.ErrNoRows)

	e, err := NewEventRepository(db).GetByID(context.Background(), 404)
	assert.NoError(t, err)
	assert.Nil(t, e)
}

func TestEventRepository_DeleteMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("DELETE FROM events").
		WithArgs(int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = NewEventRepository(db).Delete(context.Background(), 9)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
