package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/lazoapp/lazo/core"
	"github.com/lazoapp/lazo/core/document"
)

type documentRepository struct {
	db *DB
}

var _ document.Repository = (*documentRepository)(nil)

func NewDocumentRepository(db *DB) *documentRepository {
	return &documentRepository{db: db}
}

func (repo *documentRepository) CreateDocument(ctx context.Context, doc document.Document) (document.Document, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	repo.db.documents[doc.ID] = &doc
	return doc, nil
}

func (repo *documentRepository) GetDocumentByID(ctx context.Context, id string) (document.Document, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if doc, ok := repo.db.documents[id]; ok {
		return *doc, nil
	}
	return document.Document{}, document.ErrNotFound
}

func (repo *documentRepository) QueryDocuments(ctx context.Context, filter *document.QueryFilter, ordering []core.DBOrdering) ([]document.Document, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	docs := make([]document.Document, 0, len(repo.db.documents))
	for _, doc := range repo.db.documents {
		if filter != nil {
			if filter.RelationshipID != "" && doc.RelationshipID != filter.RelationshipID {
				continue
			}
			if filter.UploadedByID != "" && doc.UploadedByID != filter.UploadedByID {
				continue
			}
		}
		docs = append(docs, *doc)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].CreatedAt.After(docs[j].CreatedAt) })
	return docs, nil
}

func (repo *documentRepository) DeleteDocumentsByID(ctx context.Context, ids ...string) (int, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	var n int
	for _, id := range ids {
		if _, ok := repo.db.documents[id]; ok {
			delete(repo.db.documents, id)
			n++
		}
	}
	return n, nil
}
