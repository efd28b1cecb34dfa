package target

import (
	"context"
	"fmt"

	"legacy-mirror/core/database"
	"legacy-mirror/core/mapper"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store is the local datastore mapped records are upserted into.
type Store interface {
	// Find loads the record with the given key. found is false when absent.
	Find(ctx context.Context, entity, keyField string, key any) (rec mapper.TargetRecord, found bool, err error)
	// Insert writes a new record.
	Insert(ctx context.Context, entity string, rec mapper.TargetRecord) error
	// Update writes changes to the record with the given key.
	Update(ctx context.Context, entity, keyField string, key any, changes mapper.TargetRecord) error
	// Columns lists the lowercase column names of entity; empty when it does not exist.
	Columns(ctx context.Context, entity string) (map[string]struct{}, error)
}

// Ensure GormStore implements the interface.
var _ Store = (*GormStore)(nil)

// GormStore upserts untyped records through GORM.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a store on db.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// DB exposes the underlying connection.
func (s *GormStore) DB() *gorm.DB {
	return s.db
}

func keyEq(keyField string, key any) clause.Eq {
	return clause.Eq{Column: clause.Column{Name: keyField}, Value: key}
}

// Find loads one record by key.
func (s *GormStore) Find(ctx context.Context, entity, keyField string, key any) (mapper.TargetRecord, bool, error) {
	var rows []map[string]any
	err := s.db.WithContext(ctx).
		Table(entity).
		Where(keyEq(keyField, key)).
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return nil, false, fmt.Errorf("failed to load %s[%v]: %w", entity, key, err)
	}
	if len(rows) == 0 {
		return nil, false, nil
	}
	return mapper.TargetRecord(rows[0]), true, nil
}

// Insert writes a new record.
func (s *GormStore) Insert(ctx context.Context, entity string, rec mapper.TargetRecord) error {
	if err := s.db.WithContext(ctx).Table(entity).Create(map[string]any(rec)).Error; err != nil {
		return fmt.Errorf("failed to insert into %s: %w", entity, err)
	}
	return nil
}

// Update writes the changed fields of one record.
func (s *GormStore) Update(ctx context.Context, entity, keyField string, key any, changes mapper.TargetRecord) error {
	if len(changes) == 0 {
		return nil
	}
	res := s.db.WithContext(ctx).
		Table(entity).
		Where(keyEq(keyField, key)).
		Updates(map[string]any(changes))
	if res.Error != nil {
		return fmt.Errorf("failed to update %s[%v]: %w", entity, key, res.Error)
	}
	return nil
}

// Columns lists the columns of entity.
func (s *GormStore) Columns(ctx context.Context, entity string) (map[string]struct{}, error) {
	cols, err := database.ColumnSet(ctx, s.db, entity)
	if err != nil {
		return nil, err
	}
	out := make(map[string]struct{}, len(cols))
	for name := range cols {
		out[name] = struct{}{}
	}
	return out, nil
}
