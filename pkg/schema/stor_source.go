package schema

import (
	"context"
	"encoding/json"

	"github.com/apex/log"
	"github.com/nagyist/d2/pkg/schema/stor"
	"github.com/pkg/errors"
)

const attributesDocumentName = "attributes"

// StorSource reads schemas from a snapshot taken with Sync.
type StorSource struct {
	stor stor.SchemaStor
}

func NewStorSource(s stor.SchemaStor) *StorSource {
	return &StorSource{stor: s}
}

func (s *StorSource) Schema(_ context.Context, name string) (*Schema, error) {
	doc, err := s.stor.GetDocument(stor.KindSchema, name)
	if errors.Is(err, stor.ErrDocumentNotFound) {
		return nil, errors.Wrapf(ErrSchemaNotFound, "%s in snapshot", name)
	}

	if err != nil {
		return nil, err
	}

	return Decode([]byte(doc.Body))
}

func (s *StorSource) Schemas(_ context.Context) ([]*Schema, error) {
	docs, err := s.stor.ListDocuments(stor.KindSchema)
	if err != nil {
		return nil, err
	}

	schemas := make([]*Schema, 0, len(docs))
	for _, doc := range docs {
		sch, err := Decode([]byte(doc.Body))
		if err != nil {
			return nil, errors.Wrapf(err, "invalid schema %s in snapshot", doc.Name)
		}
		schemas = append(schemas, sch)
	}

	return schemas, nil
}

func (s *StorSource) Attributes(_ context.Context) ([]Attribute, error) {
	doc, err := s.stor.GetDocument(stor.KindAttributes, attributesDocumentName)
	if errors.Is(err, stor.ErrDocumentNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return DecodeAttributes([]byte(doc.Body))
}

// Sync copies every schema and the attribute list from src into s, replacing what
// was stored before. Schemas src no longer has are removed from s. It returns the
// number of schemas written.
func Sync(ctx context.Context, src Source, s stor.SchemaStor) (int, error) {
	schemas, err := src.Schemas(ctx)
	if err != nil {
		return 0, err
	}

	synced := make(map[string]bool, len(schemas))
	for _, sch := range schemas {
		body, err := json.Marshal(sch)
		if err != nil {
			return 0, errors.Wrapf(err, "unable to encode schema %s", sch.Name)
		}

		if _, err := s.SaveDocument(stor.KindSchema, sch.Name, body); err != nil {
			return 0, errors.Wrapf(err, "unable to store schema %s", sch.Name)
		}
		synced[sch.Name] = true
	}

	stored, err := s.ListDocuments(stor.KindSchema)
	if err != nil {
		return 0, err
	}

	for _, doc := range stored {
		if synced[doc.Name] {
			continue
		}

		if err := s.DeleteDocument(stor.KindSchema, doc.Name); err != nil {
			return 0, errors.Wrapf(err, "unable to remove stale schema %s", doc.Name)
		}
		log.WithField("schema", doc.Name).Debug("removed schema missing from source")
	}

	attributes, err := src.Attributes(ctx)
	if err != nil {
		return 0, err
	}

	body, err := json.Marshal(attributes)
	if err != nil {
		return 0, err
	}

	if _, err := s.SaveDocument(stor.KindAttributes, attributesDocumentName, body); err != nil {
		return 0, errors.Wrap(err, "unable to store attributes")
	}

	log.WithField("schemas", len(schemas)).WithField("attributes", len(attributes)).Info("schema snapshot updated")
	return len(schemas), nil
}
