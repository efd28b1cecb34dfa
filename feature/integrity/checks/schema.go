package checks

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"legacy-mirror/core/database"
	"legacy-mirror/core/registry"

	mysqldriver "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

// mysqlNoSuchTable is ER_NO_SUCH_TABLE.
const mysqlNoSuchTable = 1146

// SchemaReport strictly types the result of a target schema check.
type SchemaReport struct {
	Matched bool          `json:"matched"`
	Tables  []TableReport `json:"tables"`
	Errors  []string      `json:"errors"`
}

// TableReport is the check result of one catalog table.
type TableReport struct {
	Table          string   `json:"table"`
	Entity         string   `json:"entity"`
	Exists         bool     `json:"exists"`
	MissingColumns []string `json:"missing_columns"`
	Warnings       []string `json:"warnings"`
	Status         string   `json:"status"` // "ok", "error"
}

// Expectation is what a table needs from its target entity.
type Expectation struct {
	Descriptor registry.TableDescriptor
	// TouchColumn must exist in every entity when set.
	TouchColumn string
}

func (e Expectation) columns() []string {
	cols := []string{e.Descriptor.PrimaryKey, e.Descriptor.WatermarkField}
	if e.TouchColumn != "" {
		cols = append(cols, e.TouchColumn)
	}
	return cols
}

// CheckSchema verifies that every expected target entity exists and carries
// the primary key, watermark and touch columns.
func CheckSchema(ctx context.Context, db *gorm.DB, expected []Expectation) (*SchemaReport, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}

	report := &SchemaReport{
		Matched: true,
		Tables:  make([]TableReport, 0, len(expected)),
		Errors:  []string{},
	}

	for _, exp := range expected {
		desc := exp.Descriptor
		tbl := TableReport{
			Table:          desc.Name,
			Entity:         desc.TargetEntity,
			MissingColumns: []string{},
			Warnings:       []string{},
			Status:         "ok",
		}

		cols, err := database.ColumnSet(ctx, db, desc.TargetEntity)
		if err != nil && !isNoSuchTable(err) {
			report.Errors = append(report.Errors, fmt.Sprintf("failed to inspect %s: %v", desc.TargetEntity, err))
			report.Matched = false
			tbl.Status = "error"
			report.Tables = append(report.Tables, tbl)
			continue
		}

		tbl.Exists = len(cols) > 0
		if !tbl.Exists {
			tbl.Status = "error"
			report.Matched = false
			report.Tables = append(report.Tables, tbl)
			continue
		}

		for _, name := range exp.columns() {
			if _, ok := cols[strings.ToLower(name)]; !ok {
				tbl.MissingColumns = append(tbl.MissingColumns, name)
			}
		}
		if len(tbl.MissingColumns) > 0 {
			sort.Strings(tbl.MissingColumns)
			tbl.Status = "error"
			report.Matched = false
		}

		if wm, ok := cols[strings.ToLower(desc.WatermarkField)]; ok && !temporal(wm.Type) {
			tbl.Warnings = append(tbl.Warnings,
				fmt.Sprintf("%s: watermark column has non-temporal type %s", wm.Field, wm.Type))
		}
		if pk, ok := cols[strings.ToLower(desc.PrimaryKey)]; ok && pk.Key != "PRI" && pk.Key != "UNI" {
			tbl.Warnings = append(tbl.Warnings,
				fmt.Sprintf("%s: primary key column is not unique in the target", pk.Field))
		}

		report.Tables = append(report.Tables, tbl)
	}

	return report, nil
}

func temporal(colType string) bool {
	for _, t := range []string{"date", "time"} {
		if strings.Contains(colType, t) {
			return true
		}
	}
	return false
}

func isNoSuchTable(err error) bool {
	var myErr *mysqldriver.MySQLError
	return errors.As(err, &myErr) && myErr.Number == mysqlNoSuchTable
}
