package source

import (
	"context"
	"errors"
	"testing"
	"time"

	"legacy-mirror/core/database"
	"legacy-mirror/core/mapper"

	"github.com/DATA-DOG/go-sqlmock"
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

func TestGormSource_QueryShape(t *testing.T) {
	since := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("Incremental With Limit", func(t *testing.T) {
		db, mock := setupMockDB(t)
		mock.ExpectQuery("SELECT \\* FROM `projects` WHERE `updated_at` > \\? ORDER BY `updated_at`,`id` LIMIT .+").
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "updated_at"}).
				AddRow(1, "Harbor", since.Add(time.Hour)).
				AddRow(2, "Dock", since.Add(2*time.Hour)))

		rows, err := NewGormSource(db).Fetch(context.Background(), Query{
			Table:          "projects",
			WatermarkField: "updated_at",
			PrimaryKey:     "id",
			Since:          &since,
			Limit:          100,
		})
		require.NoError(t, err)
		assert.Len(t, rows, 2)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Full Unbounded", func(t *testing.T) {
		db, mock := setupMockDB(t)
		mock.ExpectQuery("SELECT \\* FROM `companies` ORDER BY `updated_at`,`id`$").
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		rows, err := NewGormSource(db).Fetch(context.Background(), Query{
			Table:          "companies",
			WatermarkField: "updated_at",
			PrimaryKey:     "id",
		})
		require.NoError(t, err)
		assert.Empty(t, rows)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Query Error", func(t *testing.T) {
		db, mock := setupMockDB(t)
		mock.ExpectQuery(".*").WillReturnError(assert.AnError)

		_, err := NewGormSource(db).Fetch(context.Background(), Query{Table: "units", WatermarkField: "updated_at"})
		assert.ErrorIs(t, err, assert.AnError)
		assert.ErrorContains(t, err, "failed to fetch rows from units")
	})

	t.Run("Missing Watermark Field", func(t *testing.T) {
		db, _ := setupMockDB(t)
		_, err := NewGormSource(db).Fetch(context.Background(), Query{Table: "units"})
		assert.Error(t, err)
	})
}

func TestGormSource_SQLite(t *testing.T) {
	db, err := database.Connect(database.Config{Driver: database.DriverSQLite, Name: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, db.Exec("CREATE TABLE units (id INTEGER PRIMARY KEY, name TEXT, updated_at DATETIME)").Error)

	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, name := range []string{"c", "a", "b", "d"} {
		// ids 1..4, timestamps out of insertion order: c=+3h, a=+1h, b=+2h, d=+3h
		offsets := []time.Duration{3 * time.Hour, time.Hour, 2 * time.Hour, 3 * time.Hour}
		require.NoError(t, db.Exec("INSERT INTO units (id, name, updated_at) VALUES (?, ?, ?)", i+1, name, base.Add(offsets[i])).Error)
	}

	src := NewGormSource(db)
	ctx := context.Background()

	rows, err := src.Fetch(ctx, Query{Table: "units", WatermarkField: "updated_at", PrimaryKey: "id"})
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []any{"a", "b", "c", "d"}, names(rows))

	since := base.Add(time.Hour)
	rows, err = src.Fetch(ctx, Query{Table: "units", WatermarkField: "updated_at", PrimaryKey: "id", Since: &since, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []any{"b", "c"}, names(rows))
}

func names(rows []mapper.SourceRecord) []any {
	out := make([]any, len(rows))
	for i, r := range rows {
		out[i] = r["name"]
	}
	return out
}

type countingSource struct {
	calls int
}

func (c *countingSource) Fetch(_ context.Context, _ Query) ([]mapper.SourceRecord, error) {
	c.calls++
	return []mapper.SourceRecord{{"id": int64(1)}}, nil
}

func TestThrottled(t *testing.T) {
	t.Run("Disabled Returns Inner Source", func(t *testing.T) {
		inner := &countingSource{}
		assert.Same(t, inner, NewThrottled(inner, 0, 0))
	})

	t.Run("Delegates", func(t *testing.T) {
		inner := &countingSource{}
		src := NewThrottled(inner, 1000, 5)
		for i := 0; i < 3; i++ {
			rows, err := src.Fetch(context.Background(), Query{Table: "units"})
			require.NoError(t, err)
			assert.Len(t, rows, 1)
		}
		assert.Equal(t, 3, inner.calls)
	})

	t.Run("Canceled Context", func(t *testing.T) {
		inner := &countingSource{}
		src := NewThrottled(inner, 1, 1)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := src.Fetch(ctx, Query{Table: "units"})
		assert.True(t, errors.Is(err, context.Canceled))
		assert.Equal(t, 0, inner.calls)
	})
}
