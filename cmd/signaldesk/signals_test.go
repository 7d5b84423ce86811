package main

import (
	"errors"
	"testing"

	"github.com/newthinker/signaldesk/internal/core"
	"github.com/newthinker/signaldesk/internal/dashboard"
	"github.com/newthinker/signaldesk/internal/daterange"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetSignalsFlags(t *testing.T) {
	t.Helper()
	saved := signalsFlags
	t.Cleanup(func() { signalsFlags = saved })
	signalsFlags.exchange = ""
	signalsFlags.export = false
	signalsFlags.days = "1"
	signalsFlags.from = ""
	signalsFlags.to = ""
	signalsFlags.sortSentiment = false
	signalsFlags.sortPL = ""
}

func TestSignalsFilter(t *testing.T) {
	resetSignalsFlags(t)

	signalsFlags.days = "5"
	f, err := signalsFilter()
	require.NoError(t, err)
	assert.Equal(t, daterange.Days(5), f)

	signalsFlags.from = "2025-01-01"
	signalsFlags.to = "2025-01-31"
	f, err = signalsFilter()
	require.NoError(t, err)
	assert.Equal(t, daterange.Range("2025-01-01", "2025-01-31"), f)

	signalsFlags.to = ""
	_, err = signalsFilter()
	assert.True(t, errors.Is(err, core.ErrInvalidDateFilter))
}

func TestSignalsFilter_BadDays(t *testing.T) {
	resetSignalsFlags(t)
	signalsFlags.days = "three"

	_, err := signalsFilter()
	assert.True(t, errors.Is(err, core.ErrInvalidDateFilter))
}

func TestSignalsSort(t *testing.T) {
	resetSignalsFlags(t)

	st, err := signalsSort()
	require.NoError(t, err)
	assert.Equal(t, dashboard.DefaultSortState(), st)

	signalsFlags.sortSentiment = true
	signalsFlags.sortPL = "ASC"
	st, err = signalsSort()
	require.NoError(t, err)
	assert.Equal(t, dashboard.SortState{BySentiment: true, ByPL: true, PLDirection: dashboard.Ascending}, st)

	signalsFlags.sortPL = "sideways"
	_, err = signalsSort()
	assert.Error(t, err)
}
