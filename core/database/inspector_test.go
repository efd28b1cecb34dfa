package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetTableColumns(t *testing.T) {
	ctx := context.Background()
	db, err := Connect(Config{Driver: DriverSQLite, Name: ":memory:"})
	require.NoError(t, err)

	err = db.Exec("CREATE TABLE projects (id INTEGER PRIMARY KEY, name TEXT NOT NULL, updated_at DATETIME)").Error
	require.NoError(t, err)

	columns, err := GetTableColumns(ctx, db, "projects")
	require.NoError(t, err)
	assert.Len(t, columns, 3)

	colMap := make(map[string]ColumnInfo)
	for _, col := range columns {
		colMap[col.Field] = col
	}

	assert.Equal(t, "integer", colMap["id"].Type)
	assert.Equal(t, "PRI", colMap["id"].Key)
	assert.Equal(t, "text", colMap["name"].Type)
	assert.Equal(t, "NO", colMap["name"].Null)
	assert.Equal(t, "datetime", colMap["updated_at"].Type)

	// PRAGMA table_info returns an empty result for a missing table
	cols, err := GetTableColumns(ctx, db, "non_existent")
	assert.NoError(t, err)
	assert.Empty(t, cols)

	_, err = GetTableColumns(ctx, db, "projects; DROP TABLE projects")
	assert.ErrorContains(t, err, "invalid table name")
}

func TestColumnSet(t *testing.T) {
	ctx := context.Background()
	db, err := Connect(Config{Driver: DriverSQLite, Name: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, db.Exec("CREATE TABLE Units (ID INTEGER PRIMARY KEY, Project_ID INTEGER)").Error)

	set, err := ColumnSet(ctx, db, "Units")
	require.NoError(t, err)
	assert.Contains(t, set, "id")
	assert.Contains(t, set, "project_id")
}
