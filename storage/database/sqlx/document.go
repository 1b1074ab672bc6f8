package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/lazoapp/lazo/core"
	"github.com/lazoapp/lazo/core/document"
)

type documentRow struct {
	ID             string    `db:"id"`
	RelationshipID string    `db:"relationship_id"`
	UploadedByID   string    `db:"uploaded_by_id"`
	Name           string    `db:"name"`
	ContentType    string    `db:"content_type"`
	Size           int64     `db:"size"`
	StorageKey     string    `db:"storage_key"`
	CreatedAt      time.Time `db:"created_at"`
}

func boilDocument(doc document.Document) documentRow {
	return documentRow{
		ID:             doc.ID,
		RelationshipID: doc.RelationshipID,
		UploadedByID:   doc.UploadedByID,
		Name:           doc.Name,
		ContentType:    doc.ContentType,
		Size:           doc.Size,
		StorageKey:     doc.StorageKey,
		CreatedAt:      doc.CreatedAt,
	}
}

func unboilDocument(row documentRow) document.Document {
	return document.Document{
		ID:             row.ID,
		RelationshipID: row.RelationshipID,
		UploadedByID:   row.UploadedByID,
		Name:           row.Name,
		ContentType:    row.ContentType,
		Size:           row.Size,
		StorageKey:     row.StorageKey,
		CreatedAt:      row.CreatedAt,
	}
}

type documentRepository struct {
	db *sqlx.DB
}

var _ document.Repository = (*documentRepository)(nil)

func NewDocumentRepository(db *sqlx.DB) *documentRepository {
	return &documentRepository{db: db}
}

func (repo *documentRepository) CreateDocument(ctx context.Context, doc document.Document) (document.Document, error) {
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	row := boilDocument(doc)
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO document (id, relationship_id, uploaded_by_id, name, content_type, size, storage_key, created_at)
		VALUES (:id, :relationship_id, :uploaded_by_id, :name, :content_type, :size, :storage_key, :created_at)`,
		row,
	)
	if err != nil {
		return document.Document{}, errors.Wrap(err, "inserting document")
	}
	return doc, nil
}

func (repo *documentRepository) GetDocumentByID(ctx context.Context, id string) (document.Document, error) {
	var row documentRow
	err := repo.db.GetContext(ctx, &row, `SELECT * FROM document WHERE id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return document.Document{}, document.ErrNotFound
		}
		return document.Document{}, errors.Wrap(err, "getting document")
	}
	return unboilDocument(row), nil
}

func (repo *documentRepository) QueryDocuments(ctx context.Context, filter *document.QueryFilter, ordering []core.DBOrdering) ([]document.Document, error) {
	query := `SELECT * FROM document`
	var (
		clauses []string
		args    []interface{}
	)

	if filter != nil {
		if filter.RelationshipID != "" {
			clauses = append(clauses, `relationship_id = ?`)
			args = append(args, filter.RelationshipID)
		}
		if filter.UploadedByID != "" {
			clauses = append(clauses, `uploaded_by_id = ?`)
			args = append(args, filter.UploadedByID)
		}
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += orderBy(ordering, "created_at DESC")

	var rows []documentRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "querying documents")
	}

	docs := make([]document.Document, 0, len(rows))
	for _, row := range rows {
		docs = append(docs, unboilDocument(row))
	}
	return docs, nil
}

func (repo *documentRepository) DeleteDocumentsByID(ctx context.Context, ids ...string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query, args, err := sqlx.In(`DELETE FROM document WHERE id IN (?)`, ids)
	if err != nil {
		return 0, errors.Wrap(err, "building deletion clause")
	}
	res, err := repo.db.ExecContext(ctx, repo.db.Rebind(query), args...)
	if err != nil {
		return 0, errors.Wrap(err, "deleting documents")
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}
