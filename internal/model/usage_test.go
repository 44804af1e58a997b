package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSummarizeMethods(t *testing.T) {
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)

	got := SummarizeMethods(from, to, []MethodCount{
		{Method: "verify", Traffic: 3},
		{Method: "login", Traffic: 5},
		{Method: "verify", Traffic: 2},
	})

	require.Len(t, got, 3)
	require.Equal(t, MethodStat{Method: TransactionsMethod, From: from, To: to, Traffic: 10}, got[0])
	require.Equal(t, "login", got[1].Method)
	require.EqualValues(t, 5, got[1].Traffic)
	require.Equal(t, "verify", got[2].Method)
	require.EqualValues(t, 5, got[2].Traffic)
}

func TestSummarizeMethodsEmpty(t *testing.T) {
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	got := SummarizeMethods(from, from, nil)

	require.Equal(t, []MethodStat{{Method: TransactionsMethod, From: from, To: from}}, got)
}

func TestNewDailyUsage(t *testing.T) {
	day := time.Date(2025, 3, 9, 23, 59, 0, 0, time.UTC)

	u := NewDailyUsage("c1", day, 40, 100)
	require.Equal(t, "2025-03-09", u.Date)
	require.EqualValues(t, 60, u.Remaining)

	over := NewDailyUsage("c1", day, 150, 100)
	require.EqualValues(t, 0, over.Remaining)
	require.EqualValues(t, 150, over.Requests)
}

func TestUsageEventValid(t *testing.T) {
	ev := UsageEvent{ID: "01H", ClientID: "c1", APIID: "auth", Method: "login", OccurredAt: time.Now()}
	require.True(t, ev.Valid())

	ev.Method = ""
	require.False(t, ev.Valid())
}
