package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWeekNormalisesToMonday(t *testing.T) {
	for _, raw := range []string{"2026-10-12", "2026-10-14", "2026-10-18"} {
		w, err := ParseWeek(raw)
		require.NoError(t, err)
		assert.Equal(t, "2026-10-12", w.String(), raw)
		assert.Equal(t, time.Monday, w.Weekday())
	}

	_, err := ParseWeek("12/10/2026")
	assert.Error(t, err)
}

func TestWeekArithmetic(t *testing.T) {
	w, err := ParseWeek("2026-10-12")
	require.NoError(t, err)

	assert.Equal(t, "2026-10-19", w.Add(1).String())
	assert.Equal(t, "2026-08-17", w.Add(-8).String())
	assert.Equal(t, 8, w.WeeksSince(w.Add(-8)))
	assert.True(t, w.Add(-1).Before(w))
	assert.True(t, w.Equal(WeekOf(time.Date(2026, 10, 16, 19, 30, 0, 0, time.UTC))))
}

func TestWeekJSON(t *testing.T) {
	var payload struct {
		Week Week `json:"week"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"week":"2026-10-15"}`), &payload))
	assert.Equal(t, "2026-10-12", payload.Week.String())

	out, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"week":"2026-10-12"}`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"week":"next"}`), &payload))
}

func TestWeekScan(t *testing.T) {
	var w Week
	require.NoError(t, w.Scan(time.Date(2026, 10, 13, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2026-10-12", w.String())

	require.NoError(t, w.Scan([]byte("2026-10-19T00:00:00Z")))
	assert.Equal(t, "2026-10-19", w.String())

	require.NoError(t, w.Scan(nil))
	assert.True(t, w.IsZero())

	assert.Error(t, w.Scan(42))

	value, err := w.Value()
	require.NoError(t, err)
	assert.Nil(t, value)
}
