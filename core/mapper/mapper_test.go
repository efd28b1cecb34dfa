package mapper

import (
	"errors"
	"math"
	"strconv"
	"testing"
	"time"

	"legacy-mirror/core/coerce"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMapper(t *testing.T, opts ...Option) *Mapper {
	t.Helper()
	co, err := coerce.New(coerce.Rules{
		StringFields:   []string{"tel", "tax_id"},
		StringSuffixes: []string{"_no", "_code"},
		FlagPrefixes:   []string{"is_"},
		DateSuffixes:   []string{"_at", "_date"},
		DateExclusions: []string{"completion_date"},
		DropFields:     map[string][]string{"employees": {"work_start_time", "work_end_time"}},
	})
	require.NoError(t, err)
	return New(co, opts...)
}

func TestNormalizeName(t *testing.T) {
	m := newTestMapper(t)

	tests := map[string]string{
		"id":           "id",
		"ID":           "id",
		"CompanyID":    "company_id",
		"updatedAt":    "updated_at",
		"estimate_no":  "estimate_no",
		"IsActive":     "is_active",
		"ExternalRef":  "external_ref",
	}
	for in, want := range tests {
		assert.Equal(t, want, m.NormalizeName(in), in)
	}
}

func TestMap(t *testing.T) {
	m := newTestMapper(t)

	t.Run("Generic Rules", func(t *testing.T) {
		rec, err := m.Map("projects", "id", SourceRecord{
			"ID":              int64(7),
			"ProjectNo":       int64(1200),
			"IsActive":        int64(1),
			"UpdatedAt":       "2024-05-01 10:00:00",
			"completion_date": "80%",
			"Name":            "Harbor",
			"Note":            nil,
		})
		require.NoError(t, err)

		assert.Equal(t, int64(7), rec["id"])
		assert.Equal(t, "1200", rec["project_no"])
		assert.Equal(t, true, rec["is_active"])
		assert.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), rec["updated_at"])
		assert.Equal(t, "80%", rec["completion_date"])
		assert.Equal(t, "Harbor", rec["name"])
		v, ok := rec["note"]
		assert.True(t, ok, "null values are kept as explicit nil")
		assert.Nil(t, v)
	})

	t.Run("Dropped Fields Are Removed", func(t *testing.T) {
		rec, err := m.Map("employees", "id", SourceRecord{
			"id":              int64(1),
			"work_start_time": "09:00:00",
			"WorkEndTime":     "18:00:00",
		})
		require.NoError(t, err)
		assert.NotContains(t, rec, "work_start_time")
		assert.NotContains(t, rec, "work_end_time")
	})

	t.Run("Oversized Identifier", func(t *testing.T) {
		big := uint64(math.MaxUint64)
		rec, err := m.Map("invoices", "invoice_no", SourceRecord{
			"invoice_no": big,
			"amount":     int64(10),
		})
		require.NoError(t, err)
		assert.Equal(t, strconv.FormatUint(big, 10), rec["invoice_no"])
	})

	t.Run("Flag Values", func(t *testing.T) {
		cases := []struct {
			raw  any
			want any
		}{
			{int64(1), true},
			{int64(0), false},
			{nil, nil},
		}
		for _, c := range cases {
			rec, err := m.Map("users", "id", SourceRecord{"id": int64(1), "is_admin": c.raw})
			require.NoError(t, err)
			assert.Equal(t, c.want, rec["is_admin"])
		}
	})

	t.Run("Invalid Flag Fails The Row", func(t *testing.T) {
		_, err := m.Map("users", "id", SourceRecord{"id": int64(9), "is_admin": int64(2)})
		require.Error(t, err)

		var mapErr *Error
		require.True(t, errors.As(err, &mapErr))
		assert.Equal(t, "users", mapErr.Table)
		assert.Equal(t, int64(9), mapErr.Key)

		var fieldErr *coerce.FieldError
		assert.True(t, errors.As(err, &fieldErr))
		assert.Equal(t, "is_admin", fieldErr.Field)
	})

	t.Run("Missing Primary Key", func(t *testing.T) {
		_, err := m.Map("users", "id", SourceRecord{"name": "x"})
		assert.ErrorIs(t, err, ErrMissingPrimaryKey)

		_, err = m.Map("users", "id", SourceRecord{"id": nil})
		assert.ErrorIs(t, err, ErrMissingPrimaryKey)
	})
}

func TestMap_Override(t *testing.T) {
	quotation := func(src SourceRecord, dst TargetRecord) error {
		raw, ok := src["quotation"]
		if !ok || raw == nil {
			return nil
		}
		f, err := strconv.ParseFloat(raw.(string), 64)
		if err != nil {
			return err
		}
		dst["quotation"] = f
		return nil
	}
	m := newTestMapper(t, WithOverride("estimates", quotation))
	assert.True(t, m.HasOverride("estimates"))
	assert.False(t, m.HasOverride("projects"))

	t.Run("Override Wins Over Generic Rule", func(t *testing.T) {
		rec, err := m.Map("estimates", "id", SourceRecord{"id": int64(1), "quotation": "1250.50"})
		require.NoError(t, err)
		assert.Equal(t, 1250.50, rec["quotation"])
	})

	t.Run("Override Error Fails The Row", func(t *testing.T) {
		_, err := m.Map("estimates", "id", SourceRecord{"id": int64(2), "quotation": "n/a"})
		var mapErr *Error
		require.ErrorAs(t, err, &mapErr)
		assert.Equal(t, int64(2), mapErr.Key)
	})

	t.Run("Override Resolves Rejected Value", func(t *testing.T) {
		fix := func(src SourceRecord, dst TargetRecord) error {
			if src["is_archived"] == int64(9) {
				dst["is_archived"] = true
			}
			return nil
		}
		m := newTestMapper(t, WithOverrides(map[string]Override{"projects": fix}))
		rec, err := m.Map("projects", "id", SourceRecord{"id": int64(3), "is_archived": int64(9)})
		require.NoError(t, err)
		assert.Equal(t, true, rec["is_archived"])
	})

	t.Run("Override Can Rename", func(t *testing.T) {
		rename := func(_ SourceRecord, dst TargetRecord) error {
			dst["title"] = dst["name"]
			delete(dst, "name")
			return nil
		}
		m := newTestMapper(t, WithOverride("units", rename))
		rec, err := m.Map("units", "id", SourceRecord{"id": int64(4), "name": "A-101"})
		require.NoError(t, err)
		assert.Equal(t, "A-101", rec["title"])
		assert.NotContains(t, rec, "name")
	})
}
