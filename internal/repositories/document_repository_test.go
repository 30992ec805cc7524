package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"turcrm/internal/models"
)

func TestDocumentRepository_CreateAndList(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery("INSERT INTO documents").
		WithArgs(int64(5), models.DocContract, "contract_lead_5.pdf", 3).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(1), now))
	mock.ExpectQuery("FROM documents WHERE lead_id=").
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "lead_id", "doc_type", "file_path", "created_by", "created_at"}).
			AddRow(int64(1), int64(5), models.DocContract, "contract_lead_5.pdf", 3, now))

	repo := NewDocumentRepository(db)
	id, err := repo.Create(context.Background(), &models.Document{
		LeadID: 5, DocType: models.DocContract, FilePath: "contract_lead_5.pdf", CreatedBy: 3,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	docs, err := repo.ListByLead(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "contract_lead_5.pdf", docs[0].FilePath)
	assert.NoError(t, mock.ExpectationsWereMet())
}
