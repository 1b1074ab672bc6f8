package document

import (
	"io"
	"time"
)

// Document is file metadata; the blob itself lives in a core.FileStorage backend.
type Document struct {
	ID             string    `json:"id"`
	RelationshipID string    `json:"relationship_id"`
	UploadedByID   string    `json:"uploaded_by_id"`
	Name           string    `json:"name"`
	ContentType    string    `json:"content_type"`
	Size           int64     `json:"size"`
	StorageKey     string    `json:"-"` // never client-supplied
	CreatedAt      time.Time `json:"created_at"` // UTC
}

// Upload describes an incoming file.
type Upload struct {
	Name        string
	ContentType string
	Size        int64
	Content     io.Reader
}

type QueryFilter struct {
	RelationshipID string `query:"-"` // set from the URL path
	UploadedByID   string `query:"uploaded_by_id"`
}
