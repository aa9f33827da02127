package core

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func driverValueOf(t *testing.T, v BindValue) any {
	t.Helper()
	dv, err := v.driverValue()
	require.NoError(t, err)
	return dv
}

func TestBindAnyScalars(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want any
	}{
		{"nil", nil, nil},
		{"bool", true, true},
		{"int", 42, int64(42)},
		{"int8", int8(-7), int64(-7)},
		{"int64", int64(1 << 40), int64(1 << 40)},
		{"uint16", uint16(9), int64(9)},
		{"float32", float32(1.5), float64(1.5)},
		{"float64", 3.25, 3.25},
		{"string", "hello", "hello"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, driverValueOf(t, BindAny(tt.in)))
		})
	}
}

func TestBindAnyPassesBindValueThrough(t *testing.T) {
	original := BindInt(5)
	assert.Equal(t, original, BindAny(original))
}

func TestBindAnyTime(t *testing.T) {
	ts := time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)
	assert.Equal(t, "2024-03-15T10:30:00Z", driverValueOf(t, BindAny(ts)))
}

func TestBindAnyStringer(t *testing.T) {
	id := uuid.MustParse("0c5d3f6e-2f4b-4b7a-9a6e-8f1d2c3b4a59")
	assert.Equal(t, id.String(), driverValueOf(t, BindAny(id)))
}

func TestBindAnyStructBecomesJSON(t *testing.T) {
	type payload struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}
	dv := driverValueOf(t, BindAny(payload{Name: "x", Count: 2}))
	assert.JSONEq(t, `{"name":"x","count":2}`, dv.(string))
}

func TestBindJSONMarshalFailure(t *testing.T) {
	_, err := BindJSON(func() {}).driverValue()
	require.Error(t, err)
	assert.Equal(t, KindSerialization, KindOf(err))
}

func TestBindNull(t *testing.T) {
	v := BindNull()
	assert.True(t, v.IsNull())
	assert.Nil(t, driverValueOf(t, v))

	assert.False(t, BindInt(0).IsNull())
}

func TestBindTimeFormatsUTC(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	ts := time.Date(2024, 6, 1, 15, 0, 0, 500000000, loc)
	assert.Equal(t, "2024-06-01T12:00:00.5Z", driverValueOf(t, BindTime(ts)))
}
