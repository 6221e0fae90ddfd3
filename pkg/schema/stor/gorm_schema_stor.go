package stor

import (
	"errors"
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

type GormSchemaStor struct {
	db *gorm.DB
}

func NewGormSchemaStor(db *gorm.DB) *GormSchemaStor {
	return &GormSchemaStor{db: db}
}

// OpenSQLite opens (creating if needed) the snapshot database at path and migrates
// the documents table.
func OpenSQLite(path string) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	db, err := gorm.Open(sqlite.Open(path), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to open schema db (%s): %w", path, err)
	}

	if err := db.AutoMigrate(&Document{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema db (%s): %w", path, err)
	}

	return db, nil
}

// SaveDocument inserts the document or replaces the body of an existing one.
func (s *GormSchemaStor) SaveDocument(kind, name string, body []byte) (*Document, error) {
	doc := &Document{Kind: kind, Name: name, Body: string(body)}

	err := WithTxRetry(s.db, func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "kind"}, {Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"body", "updated_at"}),
		}).Create(doc).Error
	})

	if err != nil {
		return nil, err
	}

	return s.GetDocument(kind, name)
}

func (s *GormSchemaStor) GetDocument(kind, name string) (*Document, error) {
	var doc Document
	err := s.db.Where("kind = ? AND name = ?", kind, name).First(&doc).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("%w: %s %s", ErrDocumentNotFound, kind, name)
	case err != nil:
		return nil, err
	}

	return &doc, nil
}

func (s *GormSchemaStor) ListDocuments(kind string) ([]Document, error) {
	var docs []Document
	result := s.db.Where("kind = ?", kind).Order("name").Find(&docs)
	return docs, result.Error
}

func (s *GormSchemaStor) DeleteDocument(kind, name string) error {
	return WithTxRetry(s.db, func(tx *gorm.DB) error {
		return tx.Where("kind = ? AND name = ?", kind, name).Delete(&Document{}).Error
	})
}
