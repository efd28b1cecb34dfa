package checks

import (
	"context"
	"errors"
	"testing"

	"legacy-mirror/core/database"
	"legacy-mirror/core/registry"

	"github.com/DATA-DOG/go-sqlmock"
	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to open mock sql db: %v", err)
	}

	dialector := mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open gorm db: %v", err)
	}

	return gormDB, mock
}

func setupSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Connect(database.Config{Driver: database.DriverSQLite, Name: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, db.Exec(`CREATE TABLE companies (id INTEGER PRIMARY KEY, name TEXT, updated_at DATETIME, synced_at DATETIME)`).Error)
	require.NoError(t, db.Exec(`CREATE TABLE projects (id INTEGER PRIMARY KEY, name TEXT)`).Error)
	require.NoError(t, db.Exec(`CREATE TABLE units (code TEXT, updated_at INTEGER, synced_at DATETIME)`).Error)
	return db
}

func expect(touch string, descs ...registry.TableDescriptor) []Expectation {
	out := make([]Expectation, 0, len(descs))
	for _, d := range descs {
		if d.TargetEntity == "" {
			d.TargetEntity = d.Name
		}
		if d.PrimaryKey == "" {
			d.PrimaryKey = registry.DefaultPrimaryKey
		}
		if d.WatermarkField == "" {
			d.WatermarkField = registry.DefaultWatermarkField
		}
		out = append(out, Expectation{Descriptor: d, TouchColumn: touch})
	}
	return out
}

func TestCheckSchema_NilDB(t *testing.T) {
	report, err := CheckSchema(context.Background(), nil, nil)
	assert.Error(t, err)
	assert.Nil(t, report)
}

func TestCheckSchema_SQLite(t *testing.T) {
	db := setupSQLite(t)
	ctx := context.Background()

	t.Run("Matched", func(t *testing.T) {
		report, err := CheckSchema(ctx, db, expect("synced_at", registry.TableDescriptor{Name: "companies"}))
		require.NoError(t, err)
		assert.True(t, report.Matched)
		require.Len(t, report.Tables, 1)
		assert.Equal(t, "ok", report.Tables[0].Status)
		assert.True(t, report.Tables[0].Exists)
		assert.Empty(t, report.Tables[0].Warnings)
	})

	t.Run("Missing Columns", func(t *testing.T) {
		report, err := CheckSchema(ctx, db, expect("synced_at", registry.TableDescriptor{Name: "projects"}))
		require.NoError(t, err)
		assert.False(t, report.Matched)
		assert.Equal(t, []string{"synced_at", "updated_at"}, report.Tables[0].MissingColumns)
	})

	t.Run("Missing Entity", func(t *testing.T) {
		report, err := CheckSchema(ctx, db, expect("", registry.TableDescriptor{Name: "invoices"}))
		require.NoError(t, err)
		assert.False(t, report.Matched)
		assert.False(t, report.Tables[0].Exists)
		assert.Equal(t, "error", report.Tables[0].Status)
	})

	t.Run("Warnings", func(t *testing.T) {
		report, err := CheckSchema(ctx, db, expect("", registry.TableDescriptor{Name: "units", PrimaryKey: "code"}))
		require.NoError(t, err)
		assert.True(t, report.Matched)
		assert.Len(t, report.Tables[0].Warnings, 2)
	})
}

func TestCheckSchema_MySQL(t *testing.T) {
	ctx := context.Background()

	t.Run("No Such Table", func(t *testing.T) {
		db, mock := setupMockDB(t)
		mock.ExpectQuery("SHOW COLUMNS FROM `payments`").
			WillReturnError(&mysqldriver.MySQLError{Number: 1146, Message: "Table 'mirror.payments' doesn't exist"})

		report, err := CheckSchema(ctx, db, expect("", registry.TableDescriptor{Name: "payments"}))
		require.NoError(t, err)
		assert.False(t, report.Matched)
		assert.False(t, report.Tables[0].Exists)
		assert.Empty(t, report.Errors)
	})

	t.Run("Inspection Error", func(t *testing.T) {
		db, mock := setupMockDB(t)
		mock.ExpectQuery("SHOW COLUMNS FROM `payments`").WillReturnError(errors.New("connection reset"))

		report, err := CheckSchema(ctx, db, expect("", registry.TableDescriptor{Name: "payments"}))
		require.NoError(t, err)
		assert.False(t, report.Matched)
		require.Len(t, report.Errors, 1)
		assert.Contains(t, report.Errors[0], "connection reset")
	})

	t.Run("Columns Present", func(t *testing.T) {
		db, mock := setupMockDB(t)
		rows := sqlmock.NewRows([]string{"Field", "Type", "Null", "Key", "Default", "Extra"}).
			AddRow("id", "bigint(20)", "NO", "PRI", nil, "").
			AddRow("updated_at", "datetime(3)", "YES", "", nil, "")
		mock.ExpectQuery("SHOW COLUMNS FROM `payments`").WillReturnRows(rows)

		report, err := CheckSchema(ctx, db, expect("", registry.TableDescriptor{Name: "payments"}))
		require.NoError(t, err)
		assert.True(t, report.Matched)
		assert.Empty(t, report.Tables[0].Warnings)
	})
}
