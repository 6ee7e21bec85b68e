package timestamp_test

import (
	"encoding/json"
	"testing"
	"time"

	"taskit/internal/timestamp"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	at := time.Date(2026, time.October, 17, 15, 4, 0, 0, time.UTC)

	tests := []struct {
		name     string
		input    any
		kind     timestamp.Kind
		expected string
	}{
		{name: "store timestamp", input: pgtype.Timestamptz{Time: at, Valid: true}, kind: timestamp.KindStore, expected: "Oct 17, 2026, 3:04 PM"},
		{name: "plain time", input: at, kind: timestamp.KindTime, expected: "Oct 17, 2026, 3:04 PM"},
		{name: "pointer to time", input: &at, kind: timestamp.KindTime, expected: "Oct 17, 2026, 3:04 PM"},
		{name: "rfc3339 string", input: "2026-10-17T15:04:00Z", kind: timestamp.KindTime, expected: "Oct 17, 2026, 3:04 PM"},
		{name: "invalid store timestamp", input: pgtype.Timestamptz{}, kind: timestamp.KindUnknown, expected: timestamp.Unknown},
		{name: "zero time", input: time.Time{}, kind: timestamp.KindUnknown, expected: timestamp.Unknown},
		{name: "nil", input: nil, kind: timestamp.KindUnknown, expected: timestamp.Unknown},
		{name: "garbage string", input: "yesterday", kind: timestamp.KindUnknown, expected: timestamp.Unknown},
		{name: "unsupported type", input: 42, kind: timestamp.KindUnknown, expected: timestamp.Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := timestamp.Resolve(tt.input)
			assert.Equal(t, tt.kind, v.Kind())
			assert.Equal(t, tt.expected, v.Format(time.UTC))
		})
	}
}

func TestValue_FormatUsesLocation(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	v := timestamp.FromTime(time.Date(2026, time.January, 5, 23, 30, 0, 0, time.UTC))
	assert.Equal(t, "Jan 6, 2026, 12:30 AM", v.Format(loc))
}

func TestValue_JSON(t *testing.T) {
	at := time.Date(2026, time.October, 17, 9, 0, 0, 0, time.UTC)

	data, err := json.Marshal(timestamp.FromTime(at))
	require.NoError(t, err)
	assert.JSONEq(t, `"2026-10-17T09:00:00Z"`, string(data))

	data, err = json.Marshal(timestamp.Value{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))

	var back timestamp.Value
	require.NoError(t, json.Unmarshal([]byte(`"2026-10-17T09:00:00Z"`), &back))
	assert.True(t, back.Time().Equal(at))

	require.NoError(t, json.Unmarshal([]byte(`null`), &back))
	assert.False(t, back.Valid())
}

func TestValue_StoreRoundTrip(t *testing.T) {
	at := time.Date(2026, time.October, 17, 9, 0, 0, 0, time.UTC)
	v := timestamp.FromTime(at)

	stored := v.Store()
	assert.True(t, stored.Valid)
	assert.True(t, timestamp.FromStore(stored).Time().Equal(at))
	assert.False(t, timestamp.Value{}.Store().Valid)
}
