package legacy

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"legacy-mirror/core/mapper"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	cat, err := Default()
	require.NoError(t, err)

	reg, err := cat.Registry()
	require.NoError(t, err)

	var order []string
	for _, d := range reg.Order() {
		order = append(order, d.Name)
	}
	assert.Equal(t, []string{
		"companies", "users", "customers",
		"employees", "projects",
		"units", "estimates",
		"invoices",
		"payments",
	}, order)

	units, ok := reg.Lookup("units")
	require.True(t, ok)
	assert.Equal(t, "modified_at", units.WatermarkField)
	assert.Equal(t, "id", units.PrimaryKey)
	assert.Equal(t, "units", units.TargetEntity)
	assert.True(t, units.Enabled)

	invoices, _ := reg.Lookup("invoices")
	assert.Equal(t, 5000, invoices.BatchSize)
	assert.ElementsMatch(t, []string{"core", "crm", "hr", "operations", "sales", "billing"}, reg.Categories())
}

func TestLoad(t *testing.T) {
	t.Run("Embedded", func(t *testing.T) {
		cat, err := Load("")
		require.NoError(t, err)
		assert.Len(t, cat.Tables, 9)
	})

	t.Run("File", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "catalog.yaml")
		doc := []byte("tables:\n  - name: a\n  - name: b\n    level: 1\n    depends_on: [a]\n")
		require.NoError(t, os.WriteFile(path, doc, 0o644))

		cat, err := Load(path)
		require.NoError(t, err)
		reg, err := cat.Registry()
		require.NoError(t, err)
		assert.Len(t, reg.All(), 2)
	})

	t.Run("Missing File", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("No Tables", func(t *testing.T) {
		_, err := Parse([]byte("rules: {}\n"))
		assert.Error(t, err)
	})

	t.Run("Invalid Dependency Level", func(t *testing.T) {
		cat, err := Parse([]byte("tables:\n  - name: a\n    depends_on: [b]\n  - name: b\n"))
		require.NoError(t, err)
		_, err = cat.Registry()
		assert.Error(t, err)
	})
}

func TestCatalogMapper(t *testing.T) {
	cat, err := Default()
	require.NoError(t, err)
	m, err := cat.Mapper()
	require.NoError(t, err)

	t.Run("Users", func(t *testing.T) {
		rec, err := m.Map("users", "id", mapper.SourceRecord{
			"id":         int64(1),
			"Email":      "a@example.com",
			"password":   "secret",
			"is_active":  int64(1),
			"created_at": "2023-06-01 12:00:00",
		})
		require.NoError(t, err)
		assert.NotContains(t, rec, "password")
		assert.Equal(t, true, rec["is_active"])
		assert.Equal(t, "a@example.com", rec["email"])

		// Europe/Berlin is UTC+2 in June
		assert.Equal(t, time.Date(2023, 6, 1, 10, 0, 0, 0, time.UTC), rec["created_at"])
	})

	t.Run("Companies Zero Tax Id", func(t *testing.T) {
		rec, err := m.Map("companies", "id", mapper.SourceRecord{
			"id":         int64(7),
			"vat_number": int64(0),
			"zip_code":   int64(1010),
		})
		require.NoError(t, err)
		assert.Nil(t, rec["vat_number"])
		assert.Equal(t, "1010", rec["zip_code"])
	})

	t.Run("Projects Status", func(t *testing.T) {
		rec, err := m.Map("projects", "id", mapper.SourceRecord{"id": int64(3), "status_code": int64(3)})
		require.NoError(t, err)
		assert.Equal(t, "completed", rec["status"])
		assert.NotContains(t, rec, "status_code")

		_, err = m.Map("projects", "id", mapper.SourceRecord{"id": int64(4), "status_code": int64(42)})
		assert.ErrorContains(t, err, "unknown status 42")
	})

	t.Run("Estimates Quotation", func(t *testing.T) {
		rec, err := m.Map("estimates", "id", mapper.SourceRecord{"id": int64(5), "quotation": "1.250,50"})
		require.NoError(t, err)
		assert.Equal(t, 1250.50, rec["quotation"])

		_, err = m.Map("estimates", "id", mapper.SourceRecord{"id": int64(6), "quotation": "n/a"})
		assert.Error(t, err)
	})

	t.Run("Employees Full Name", func(t *testing.T) {
		rec, err := m.Map("employees", "id", mapper.SourceRecord{
			"id":         int64(8),
			"first_name": "Ada",
			"last_name":  "Lovelace",
		})
		require.NoError(t, err)
		assert.Equal(t, "Ada Lovelace", rec["full_name"])
	})

	t.Run("Units Drop Time Of Day", func(t *testing.T) {
		rec, err := m.Map("units", "id", mapper.SourceRecord{
			"id":         int64(9),
			"start_time": "08:00:00",
			"end_time":   "17:00:00",
			"code":       int64(42),
		})
		require.NoError(t, err)
		assert.NotContains(t, rec, "start_time")
		assert.NotContains(t, rec, "end_time")
		assert.Equal(t, "42", rec["code"])
	})
}

func TestEstimateQuotation(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want any
	}{
		{"Plain", "1250.50", 1250.50},
		{"Decimal Comma", "12,5", 12.5},
		{"Thousands", "1.000.000,00", 1000000.0},
		{"Integer", int64(300), 300.0},
		{"Float", 9.75, 9.75},
		{"Blank", "  ", nil},
		{"Null", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dst := mapper.TargetRecord{}
			require.NoError(t, estimateQuotation(mapper.SourceRecord{"quotation": tt.raw}, dst))
			assert.Equal(t, tt.want, dst["quotation"])
		})
	}
}

func TestApplyDefaultBatchSize(t *testing.T) {
	cat, err := Default()
	require.NoError(t, err)

	cat.ApplyDefaultBatchSize(0)
	reg, err := cat.Registry()
	require.NoError(t, err)
	companies, _ := reg.Lookup("companies")
	assert.Equal(t, 0, companies.BatchSize)

	cat.ApplyDefaultBatchSize(250)
	reg, err = cat.Registry()
	require.NoError(t, err)

	companies, _ = reg.Lookup("companies")
	assert.Equal(t, 250, companies.BatchSize)
	invoices, _ := reg.Lookup("invoices")
	assert.Equal(t, 5000, invoices.BatchSize, "declared batch size wins")
}
