// Package stor keeps an offline snapshot of schema documents so model definitions
// can be compiled without a round trip to the server.
package stor

import (
	"errors"
	"time"
)

var ErrDocumentNotFound = errors.New("document not found")

const (
	KindSchema     = "schema"
	KindAttributes = "attributes"
)

// Document is one stored JSON document: a schema (named after its type) or the
// attribute list.
type Document struct {
	ID        int       `json:"id"`
	Kind      string    `json:"kind" gorm:"uniqueIndex:idx_documents_kind_name"`
	Name      string    `json:"name" gorm:"uniqueIndex:idx_documents_kind_name"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Document) TableName() string {
	return "schema_documents"
}

type SchemaStor interface {
	SaveDocument(kind, name string, body []byte) (*Document, error)
	GetDocument(kind, name string) (*Document, error)
	ListDocuments(kind string) ([]Document, error)
	DeleteDocument(kind, name string) error
}
