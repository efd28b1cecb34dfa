package utils

import (
	"database/sql"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToInt64(t *testing.T) {
	tests := []struct {
		name   string
		input  any
		want   int64
		wantOK bool
	}{
		{"int", 42, 42, true},
		{"int8", int8(-3), -3, true},
		{"uint64 fits", uint64(7), 7, true},
		{"uint64 overflow", uint64(math.MaxUint64), 0, false},
		{"integral float", float64(12), 12, true},
		{"fractional float", 1.5, 0, false},
		{"numeric string", " 99 ", 99, true},
		{"bytes", []byte("5"), 5, true},
		{"text", "abc", 0, false},
		{"nil", nil, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ToInt64(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBigInt(t *testing.T) {
	n, ok := BigInt("123456789012345678901234567890")
	assert.True(t, ok)
	assert.Equal(t, "123456789012345678901234567890", n.String())
	assert.False(t, IsSafeInteger(n))

	n, ok = BigInt(uint64(math.MaxUint64))
	assert.True(t, ok)
	assert.Equal(t, "18446744073709551615", n.String())

	n, ok = BigInt(int64(MaxSafeInteger))
	assert.True(t, ok)
	assert.True(t, IsSafeInteger(n))

	_, ok = BigInt("12a")
	assert.False(t, ok)
}

func TestToBool(t *testing.T) {
	tests := []struct {
		input  any
		want   bool
		wantOK bool
	}{
		{1, true, true},
		{int64(0), false, true},
		{"1", true, true},
		{"0", false, true},
		{"TRUE", true, true},
		{true, true, true},
		{[]byte("0"), false, true},
		{2, false, false},
		{"yes", false, false},
	}

	for _, tt := range tests {
		got, ok := ToBool(tt.input)
		assert.Equal(t, tt.wantOK, ok, "input %v", tt.input)
		assert.Equal(t, tt.want, got, "input %v", tt.input)
	}
}

func TestUnwrap(t *testing.T) {
	assert.Nil(t, Unwrap(sql.NullString{}))
	assert.Equal(t, "x", Unwrap(sql.NullString{String: "x", Valid: true}))
	assert.Equal(t, int64(3), Unwrap(sql.NullInt64{Int64: 3, Valid: true}))
	assert.Equal(t, "raw", Unwrap([]byte("raw")))

	var nilStr *string
	assert.Nil(t, Unwrap(nilStr))
}

func TestToString(t *testing.T) {
	assert.Equal(t, "12345678901", ToString(float64(12345678901)))
	assert.Equal(t, "abc", ToString([]byte("abc")))
	assert.Equal(t, "7", ToString(7))
}

func TestIsZero(t *testing.T) {
	assert.True(t, IsZero(0))
	assert.True(t, IsZero("0"))
	assert.True(t, IsZero(0.0))
	assert.False(t, IsZero("00012"))
	assert.False(t, IsZero(nil))
}
