package source

import (
	"context"
	"fmt"
	"time"

	"legacy-mirror/core/mapper"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Query selects the rows of one table to synchronize.
type Query struct {
	// Table is the source table name.
	Table string
	// WatermarkField is the column rows are filtered and ordered by.
	WatermarkField string
	// PrimaryKey breaks ties between rows sharing a watermark value.
	PrimaryKey string
	// Since restricts the result to rows with WatermarkField > Since; nil selects all rows.
	Since *time.Time
	// Limit caps the number of rows; 0 is unbounded.
	Limit int
}

// Source reads raw rows from the legacy system.
type Source interface {
	// Fetch returns the rows selected by q in ascending watermark order.
	Fetch(ctx context.Context, q Query) ([]mapper.SourceRecord, error)
}

// Ensure GormSource implements the interface.
var _ Source = (*GormSource)(nil)

// GormSource reads source rows through GORM as untyped maps.
type GormSource struct {
	db *gorm.DB
}

// NewGormSource creates a source on db.
func NewGormSource(db *gorm.DB) *GormSource {
	return &GormSource{db: db}
}

// Fetch runs the watermark query for q.
func (s *GormSource) Fetch(ctx context.Context, q Query) ([]mapper.SourceRecord, error) {
	if q.Table == "" || q.WatermarkField == "" {
		return nil, fmt.Errorf("fetch: table and watermark field are required")
	}

	tx := s.db.WithContext(ctx).Table(q.Table)
	if q.Since != nil {
		tx = tx.Where(clause.Gt{Column: clause.Column{Name: q.WatermarkField}, Value: *q.Since})
	}
	tx = tx.Order(clause.OrderByColumn{Column: clause.Column{Name: q.WatermarkField}})
	if q.PrimaryKey != "" && q.PrimaryKey != q.WatermarkField {
		tx = tx.Order(clause.OrderByColumn{Column: clause.Column{Name: q.PrimaryKey}})
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}

	var rows []map[string]any
	if err := tx.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch rows from %s: %w", q.Table, err)
	}

	out := make([]mapper.SourceRecord, len(rows))
	for i, r := range rows {
		out[i] = mapper.SourceRecord(r)
	}
	return out, nil
}
