package state

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"legacy-mirror/core/registry"

	"gorm.io/gorm"
)

// Store persists per-table sync bookkeeping.
// Implementations must allow concurrent writes for distinct tables and
// serialize writes for the same table.
type Store interface {
	// Get returns the state of one table, or ErrNotFound.
	Get(ctx context.Context, table string) (*Watermark, error)
	// List returns every state row ordered by table name.
	List(ctx context.Context) ([]Watermark, error)
	// Synchronized returns the tables with a committed watermark.
	Synchronized(ctx context.Context) (map[string]struct{}, error)
	// RecordRun folds a finished run into the table's row, creating it on first use.
	RecordRun(ctx context.Context, run Run) (*Watermark, error)
	// Reset clears a table's watermark and error summary; counters are kept.
	Reset(ctx context.Context, table string) error
	// SetOverrides stores operator overrides for a table.
	SetOverrides(ctx context.Context, table string, o registry.Overrides) error
}

// Ensure GormStore implements the interface.
var _ Store = (*GormStore)(nil)

// GormStore keeps sync state in the target database.
type GormStore struct {
	db    *gorm.DB
	locks sync.Map // table -> *sync.Mutex
}

// NewGormStore creates a store on db. Call Migrate once before use.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Migrate creates or updates the state table.
func (s *GormStore) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&Watermark{}); err != nil {
		return fmt.Errorf("failed to migrate sync state table: %w", err)
	}
	return nil
}

func (s *GormStore) lock(table string) func() {
	m, _ := s.locks.LoadOrStore(table, &sync.Mutex{})
	mu := m.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// Get returns the state of one table.
func (s *GormStore) Get(ctx context.Context, table string) (*Watermark, error) {
	var w Watermark
	err := s.db.WithContext(ctx).Where("table_name = ?", table).Take(&w).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read sync state for %s: %w", table, err)
	}
	return &w, nil
}

// List returns every state row ordered by table name.
func (s *GormStore) List(ctx context.Context) ([]Watermark, error) {
	var rows []Watermark
	if err := s.db.WithContext(ctx).Order("table_name").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list sync state: %w", err)
	}
	return rows, nil
}

// Synchronized returns the tables with a committed watermark.
func (s *GormStore) Synchronized(ctx context.Context) (map[string]struct{}, error) {
	var tables []string
	err := s.db.WithContext(ctx).
		Model(&Watermark{}).
		Where("last_synced_at IS NOT NULL").
		Pluck("table_name", &tables).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load synchronized tables: %w", err)
	}
	set := make(map[string]struct{}, len(tables))
	for _, t := range tables {
		set[t] = struct{}{}
	}
	return set, nil
}

// RecordRun folds a finished run into the table's row.
func (s *GormStore) RecordRun(ctx context.Context, run Run) (*Watermark, error) {
	if run.Table == "" {
		return nil, errors.New("record run: empty table name")
	}
	defer s.lock(run.Table)()

	var out Watermark
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var w Watermark
		err := tx.Where("table_name = ?", run.Table).Take(&w).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			w = Watermark{Table: run.Table}
			w.apply(run)
			if err := tx.Create(&w).Error; err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			w.apply(run)
			if err := tx.Save(&w).Error; err != nil {
				return err
			}
		}
		out = w
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record run for %s: %w", run.Table, err)
	}
	return &out, nil
}

// Reset clears a table's watermark and error summary.
func (s *GormStore) Reset(ctx context.Context, table string) error {
	defer s.lock(table)()

	res := s.db.WithContext(ctx).
		Model(&Watermark{}).
		Where("table_name = ?", table).
		Updates(map[string]any{"last_synced_at": nil, "last_error_summary": nil})
	if res.Error != nil {
		return fmt.Errorf("failed to reset sync state for %s: %w", table, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetOverrides stores operator overrides, creating the row when needed.
func (s *GormStore) SetOverrides(ctx context.Context, table string, o registry.Overrides) error {
	meta, err := encodeOverrides(o)
	if err != nil {
		return fmt.Errorf("failed to encode overrides for %s: %w", table, err)
	}
	defer s.lock(table)()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var w Watermark
		err := tx.Where("table_name = ?", table).Take(&w).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tx.Create(&Watermark{Table: table, Metadata: meta}).Error
		}
		if err != nil {
			return err
		}
		return tx.Model(&w).Update("metadata_json", meta).Error
	})
}
