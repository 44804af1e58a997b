package model

import (
	"sort"
	"time"
)

// TransactionsMethod is the synthetic row carrying the total traffic of a range.
const TransactionsMethod = "Transactions"

// UsageEvent is one recorded API call. It is published to Kafka as JSON
// and stored in ClickHouse usage_events.
type UsageEvent struct {
	ID         string    `json:"id"         db:"id"`
	ClientID   string    `json:"client_id"  db:"client_id"`
	APIID      string    `json:"api_id"     db:"api_id"`
	Method     string    `json:"method"     db:"method"`
	OccurredAt time.Time `json:"occurred_at" db:"occurred_at"`
}

// Valid reports whether the event carries everything the store needs.
func (e UsageEvent) Valid() bool {
	return e.ID != "" && e.ClientID != "" && e.APIID != "" && e.Method != "" && !e.OccurredAt.IsZero()
}

// MethodCount is a per-method aggregate as returned by the analytics store.
type MethodCount struct {
	Method  string `db:"method"`
	Traffic uint64 `db:"traffic"`
}

type MethodStat struct {
	Method  string    `json:"method"`
	From    time.Time `json:"from"`
	To      time.Time `json:"to"`
	Traffic uint64    `json:"traffic"`
}

// SummarizeMethods puts the Transactions total first, then one row per
// method ordered by name. Duplicate methods are merged.
func SummarizeMethods(from, to time.Time, counts []MethodCount) []MethodStat {
	byMethod := make(map[string]uint64, len(counts))
	var total uint64
	for _, c := range counts {
		byMethod[c.Method] += c.Traffic
		total += c.Traffic
	}

	methods := make([]string, 0, len(byMethod))
	for m := range byMethod {
		methods = append(methods, m)
	}
	sort.Strings(methods)

	out := make([]MethodStat, 0, len(methods)+1)
	out = append(out, MethodStat{Method: TransactionsMethod, From: from, To: to, Traffic: total})
	for _, m := range methods {
		out = append(out, MethodStat{Method: m, From: from, To: to, Traffic: byMethod[m]})
	}
	return out
}

// DailyUsage reports a client's request count for one UTC day against its
// plan limit. Nothing is enforced here.
type DailyUsage struct {
	ClientID           string `json:"client_id"`
	Date               string `json:"date"` // YYYY-MM-DD
	Requests           int64  `json:"requests"`
	RequestLimitPerDay int    `json:"request_limit_per_day"`
	Remaining          int64  `json:"remaining"`
}

func NewDailyUsage(clientID string, day time.Time, requests int64, limit int) DailyUsage {
	remaining := int64(limit) - requests
	if remaining < 0 {
		remaining = 0
	}
	return DailyUsage{
		ClientID:           clientID,
		Date:               day.UTC().Format(time.DateOnly),
		Requests:           requests,
		RequestLimitPerDay: limit,
		Remaining:          remaining,
	}
}
