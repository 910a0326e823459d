package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTime(t *testing.T) {
	got, err := parseTime("2026-03-01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.Local), got)

	got, err = parseTime("2026-03-01T08:30:00Z")
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2026, 3, 1, 8, 30, 0, 0, time.UTC)))

	_, err = parseTime("03/01/2026")
	assert.Error(t, err)
}

func TestSyncWindow(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.Local)

	t.Run("defaults to lookback ending now", func(t *testing.T) {
		from, to, err := syncWindow("", "", time.Hour, now)
		require.NoError(t, err)
		assert.Equal(t, now, to)
		assert.Equal(t, now.Add(-time.Hour), from)
	})

	t.Run("lookback ends at explicit to", func(t *testing.T) {
		from, to, err := syncWindow("", "2026-03-01", 2*time.Hour, now)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.Local), to)
		assert.Equal(t, to.Add(-2*time.Hour), from)
	})

	t.Run("explicit range", func(t *testing.T) {
		from, to, err := syncWindow("2026-02-01", "2026-02-02", time.Hour, now)
		require.NoError(t, err)
		assert.Equal(t, 24*time.Hour, to.Sub(from))
	})

	t.Run("bad from", func(t *testing.T) {
		_, _, err := syncWindow("yesterday", "", time.Hour, now)
		assert.Error(t, err)
	})
}

func TestRootCmd_HasSubcommands(t *testing.T) {
	root := newRootCmd()
	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["sync"])
	assert.True(t, names["user"])

	create, _, err := root.Find([]string{"user", "create"})
	require.NoError(t, err)
	assert.Equal(t, "create", create.Name())
	assert.NotNil(t, create.Flags().Lookup("display-name"))
}
