package stor

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

type InMemorySchemaStor struct {
	mu     sync.Mutex
	docs   map[string]Document
	nextID int
}

func NewInMemorySchemaStor() *InMemorySchemaStor {
	return &InMemorySchemaStor{docs: make(map[string]Document), nextID: 1}
}

func (s *InMemorySchemaStor) SaveDocument(kind, name string, body []byte) (*Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	doc, ok := s.docs[key(kind, name)]
	if !ok {
		doc = Document{ID: s.nextID, Kind: kind, Name: name, CreatedAt: now}
		s.nextID++
	}

	doc.Body = string(body)
	doc.UpdatedAt = now
	s.docs[key(kind, name)] = doc

	return &doc, nil
}

func (s *InMemorySchemaStor) GetDocument(kind, name string) (*Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[key(kind, name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s %s", ErrDocumentNotFound, kind, name)
	}

	return &doc, nil
}

func (s *InMemorySchemaStor) ListDocuments(kind string) ([]Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var docs []Document
	for _, doc := range s.docs {
		if doc.Kind == kind {
			docs = append(docs, doc)
		}
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].Name < docs[j].Name })
	return docs, nil
}

func (s *InMemorySchemaStor) DeleteDocument(kind, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, key(kind, name))
	return nil
}

func key(kind, name string) string {
	return kind + "/" + name
}
