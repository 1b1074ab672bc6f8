package document

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/lazoapp/lazo/core"
	"github.com/lazoapp/lazo/core/relationship"
	"github.com/lazoapp/lazo/core/user"
)

var (
	// errors
	ErrNotFound       = errors.New("document not found")
	ErrNotParticipant = errors.New("user is not a participant of this relationship")
	ErrTooLarge       = errors.New("file exceeds the maximum upload size")
	ErrBadContentType = errors.New("file type is not allowed")

	allowedContentTypes = map[string]bool{
		"application/pdf":    true,
		"application/msword": true,
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
		"application/vnd.ms-excel": true,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":       true,
		"application/vnd.ms-powerpoint":                                           true,
		"application/vnd.openxmlformats-officedocument.presentationml.presentation": true,
		"text/plain": true,
		"text/csv":   true,
		"image/png":  true,
		"image/jpeg": true,
		"image/gif":  true,
	}
)

type (
	Repository interface {
		CreateDocument(ctx context.Context, doc Document) (Document, error)
		GetDocumentByID(ctx context.Context, id string) (Document, error)
		QueryDocuments(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Document, error)
		DeleteDocumentsByID(ctx context.Context, ids ...string) (int, error)
	}

	Service interface {
		Upload(ctx context.Context, uploader user.User, relationshipID string, up Upload) (Document, error)
		GetByID(ctx context.Context, id string) (Document, error)
		// Open returns the document metadata and a reader over its content;
		// the caller closes the reader.
		Open(ctx context.Context, id string) (Document, io.ReadCloser, error)
		Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Document, error)
		Delete(ctx context.Context, actor user.User, id string) error
	}

	service struct {
		repo    Repository
		storage core.FileStorage
		relSvc  relationship.Service
		conf    *core.Config
		logger  core.Logger
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, storage core.FileStorage, relSvc relationship.Service, conf *core.Config, logger core.Logger) Service {
	return &service{
		repo:    repo,
		storage: storage,
		relSvc:  relSvc,
		conf:    conf,
		logger:  logger,
	}
}

func (svc *service) Upload(ctx context.Context, uploader user.User, relationshipID string, up Upload) (Document, error) {
	rel, err := svc.relSvc.GetByID(ctx, relationshipID)
	if err != nil {
		return Document{}, err
	}
	if !rel.IsParticipant(uploader.ID) && !uploader.IsAdmin() {
		return Document{}, ErrNotParticipant
	}

	if up.Size > svc.conf.FileStorage.MaxUploadSize {
		return Document{}, core.NewValidationError(ErrTooLarge, core.FieldError{Field: "file", Error: ErrTooLarge.Error()})
	}
	if !allowedContentTypes[up.ContentType] {
		return Document{}, core.NewValidationError(ErrBadContentType, core.FieldError{Field: "file", Error: ErrBadContentType.Error()})
	}

	key := uuid.New().String() + filepath.Ext(up.Name)
	size, err := svc.storage.Save(ctx, key, up.Content)
	if err != nil {
		return Document{}, err
	}

	doc := Document{
		RelationshipID: rel.ID,
		UploadedByID:   uploader.ID,
		Name:           filepath.Base(up.Name),
		ContentType:    up.ContentType,
		Size:           size,
		StorageKey:     key,
		CreatedAt:      time.Now().UTC(),
	}
	doc, err = svc.repo.CreateDocument(ctx, doc)
	if err != nil {
		// failed metadata insert leaves no orphan blob behind
		if delErr := svc.storage.Delete(ctx, key); delErr != nil {
			svc.logger.Error(fmt.Sprintf("removing orphan blob %s: %v", key, delErr), delErr)
		}
		return Document{}, err
	}
	return doc, nil
}

func (svc *service) GetByID(ctx context.Context, id string) (Document, error) {
	return svc.repo.GetDocumentByID(ctx, id)
}

func (svc *service) Open(ctx context.Context, id string) (Document, io.ReadCloser, error) {
	doc, err := svc.repo.GetDocumentByID(ctx, id)
	if err != nil {
		return Document{}, nil, err
	}
	rdr, err := svc.storage.Open(ctx, doc.StorageKey)
	if err != nil {
		return Document{}, nil, err
	}
	return doc, rdr, nil
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Document, error) {
	return svc.repo.QueryDocuments(ctx, filter, ordering)
}

func (svc *service) Delete(ctx context.Context, actor user.User, id string) error {
	doc, err := svc.repo.GetDocumentByID(ctx, id)
	if err != nil {
		return err
	}
	if doc.UploadedByID != actor.ID && !actor.IsAdmin() {
		return ErrNotParticipant
	}

	if _, err = svc.repo.DeleteDocumentsByID(ctx, id); err != nil {
		return err
	}
	// blob removal is best-effort once the row is gone
	if err = svc.storage.Delete(ctx, doc.StorageKey); err != nil {
		svc.logger.Error(fmt.Sprintf("removing blob %s: %v", doc.StorageKey, err), err)
	}
	return nil
}
