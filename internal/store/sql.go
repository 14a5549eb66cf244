// internal/store/sql.go
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"diabeater-console/internal/config"
	"diabeater-console/pkg/apperror"
	"diabeater-console/pkg/models"
	"diabeater-console/utils"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// document is one row of the shared documents table. Seq keeps insertion
// order so queries come back in the order records were created.
type document struct {
	Seq        uint           `gorm:"primaryKey;autoIncrement"`
	Collection string         `gorm:"type:varchar(100);not null;uniqueIndex:idx_documents_collection_doc"`
	DocID      string         `gorm:"type:varchar(128);not null;uniqueIndex:idx_documents_collection_doc"`
	Data       datatypes.JSON `gorm:"not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (document) TableName() string {
	return "documents"
}

// SQL stores every collection in one documents table with a JSON payload.
type SQL struct {
	db *gorm.DB
}

// OpenPostgres connects with the DB_* settings and migrates the documents table.
func OpenPostgres(cfg *config.Config) (*SQL, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPass, cfg.DBName, cfg.DBSSLMode,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	s, err := NewSQL(db)
	if err != nil {
		return nil, err
	}
	utils.Log.Info("✅ [STORE] Postgres document store connected & migrated")
	return s, nil
}

// NewSQL wraps an open connection. It is how tests attach an in-memory
// SQLite database.
func NewSQL(db *gorm.DB) (*SQL, error) {
	if err := db.AutoMigrate(&document{}); err != nil {
		return nil, fmt.Errorf("migrate documents: %w", err)
	}
	return &SQL{db: db}, nil
}

func (s *SQL) Query(ctx context.Context, collection string, filters ...Filter) ([]Document, error) {
	q := s.db.WithContext(ctx).Where("collection = ?", collection)
	// String equality is pushed down to the JSON column; everything is
	// re-checked in Go below.
	for _, f := range filters {
		if str, ok := f.Value.(string); ok && f.Op == OpEqual {
			q = q.Where(datatypes.JSONQuery("data").Equals(str, f.Field))
		}
	}

	var rows []document
	if err := q.Order("seq ASC").Find(&rows).Error; err != nil {
		return nil, apperror.Transient("query "+collection, err)
	}

	out := make([]Document, 0, len(rows))
	for _, row := range rows {
		data, err := decodeRow(row)
		if err != nil {
			return nil, err
		}
		if Match(data, filters...) {
			out = append(out, Document{ID: row.DocID, Data: data})
		}
	}
	return out, nil
}

func (s *SQL) Get(ctx context.Context, collection, id string) (Document, error) {
	if id == "" {
		return Document{}, apperror.Validation("%s id is required", collection)
	}
	row, err := s.find(s.db.WithContext(ctx), collection, id)
	if err != nil {
		return Document{}, err
	}
	data, err := decodeRow(*row)
	if err != nil {
		return Document{}, err
	}
	return Document{ID: id, Data: data}, nil
}

func (s *SQL) Add(ctx context.Context, collection string, data models.Record) (string, error) {
	id := uuid.NewString()
	payload, err := encodeRecord(data)
	if err != nil {
		return "", err
	}
	row := document{Collection: collection, DocID: id, Data: payload}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return "", apperror.Transient("add "+collection, err)
	}
	return id, nil
}

func (s *SQL) Set(ctx context.Context, collection, id string, data models.Record) error {
	if id == "" {
		return apperror.Validation("%s id is required", collection)
	}
	payload, err := encodeRecord(data)
	if err != nil {
		return err
	}
	row := document{Collection: collection, DocID: id, Data: payload}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "collection"}, {Name: "doc_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return apperror.Transient("set "+collection+"/"+id, err)
	}
	return nil
}

func (s *SQL) Update(ctx context.Context, collection, id string, partial models.Record) error {
	if id == "" {
		return apperror.Validation("%s id is required", collection)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := s.find(tx, collection, id)
		if err != nil {
			return err
		}
		data, err := decodeRow(*row)
		if err != nil {
			return err
		}
		for k, v := range partial {
			if v == nil {
				delete(data, k)
				continue
			}
			data[k] = v
		}
		payload, err := encodeRecord(data)
		if err != nil {
			return err
		}
		err = tx.Model(&document{}).
			Where("seq = ?", row.Seq).
			Updates(map[string]interface{}{"data": payload, "updated_at": time.Now().UTC()}).Error
		if err != nil {
			return apperror.Transient("update "+collection+"/"+id, err)
		}
		return nil
	})
}

// Delete is idempotent; removing a missing document succeeds.
func (s *SQL) Delete(ctx context.Context, collection, id string) error {
	if id == "" {
		return apperror.Validation("%s id is required", collection)
	}
	err := s.db.WithContext(ctx).
		Where("collection = ? AND doc_id = ?", collection, id).
		Delete(&document{}).Error
	if err != nil {
		return apperror.Transient("delete "+collection+"/"+id, err)
	}
	return nil
}

func (s *SQL) find(db *gorm.DB, collection, id string) (*document, error) {
	var row document
	err := db.Where("collection = ? AND doc_id = ?", collection, id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound(collection, id)
	}
	if err != nil {
		return nil, apperror.Transient("get "+collection+"/"+id, err)
	}
	return &row, nil
}

func encodeRecord(data models.Record) (datatypes.JSON, error) {
	if data == nil {
		data = models.Record{}
	}
	b, err := json.Marshal(data)
	if err != nil {
		return nil, apperror.Validation("record is not serialisable: %v", err)
	}
	return datatypes.JSON(b), nil
}

func decodeRow(row document) (models.Record, error) {
	data := models.Record{}
	if len(row.Data) == 0 {
		return data, nil
	}
	if err := json.Unmarshal(row.Data, &data); err != nil {
		return nil, apperror.Validation("malformed %s record %s: %v", row.Collection, row.DocID, err)
	}
	return data, nil
}
