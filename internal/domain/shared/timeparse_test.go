package shared

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTime(t *testing.T) {
	tests := []struct {
		in       string
		want     time.Time
		dateOnly bool
	}{
		{"2026-03-04", time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC), true},
		{"2026/03/04", time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC), true},
		{"2026-03-04T10:30:00Z", time.Date(2026, 3, 4, 10, 30, 0, 0, time.UTC), false},
		{"2026-03-04 10:30:00", time.Date(2026, 3, 4, 10, 30, 0, 0, time.UTC), false},
		{" 2026-03-04T10:30:00 ", time.Date(2026, 3, 4, 10, 30, 0, 0, time.UTC), false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, dateOnly, err := ParseTime(tt.in)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s", got)
			assert.Equal(t, tt.dateOnly, dateOnly)
		})
	}

	_, _, err := ParseTime("last tuesday")
	assert.Error(t, err)
}

func TestTimestamp_JSON(t *testing.T) {
	var v struct {
		At *Timestamp `json:"at"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"at":"2026-03-04"}`), &v))
	require.NotNil(t, v.At)
	assert.Equal(t, 2026, v.At.Year())

	out, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, `{"at":"2026-03-04T00:00:00Z"}`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"at":"soon"}`), &v))
}
