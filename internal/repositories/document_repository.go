package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"turcrm/internal/models"
)

type DocumentRepository struct{ db *sql.DB }

func NewDocumentRepository(db *sql.DB) *DocumentRepository { return &DocumentRepository{db: db} }

func (r *DocumentRepository) Create(ctx context.Context, doc *models.Document) (int64, error) {
	const q = `
		INSERT INTO documents (lead_id, doc_type, file_path, created_by)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`
	if err := r.db.QueryRowContext(ctx, q,
		doc.LeadID,
		doc.DocType,
		doc.FilePath,
		doc.CreatedBy,
	).Scan(&doc.ID, &doc.CreatedAt); err != nil {
		return 0, fmt.Errorf("create document: %w", err)
	}
	return doc.ID, nil
}

func (r *DocumentRepository) ListByLead(ctx context.Context, leadID int64) ([]*models.Document, error) {
	const q = `SELECT id, lead_id, doc_type, file_path, created_by, created_at
			   FROM documents WHERE lead_id=$1 ORDER BY id DESC`
	rows, err := r.db.QueryContext(ctx, q, leadID)
	if err != nil {
		return nil, fmt.Errorf("list by lead: %w", err)
	}
	defer rows.Close()

	res := []*models.Document{}
	for rows.Next() {
		var d models.Document
		if err := rows.Scan(&d.ID, &d.LeadID, &d.DocType, &d.FilePath, &d.CreatedBy, &d.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, &d)
	}
	return res, rows.Err()
}
