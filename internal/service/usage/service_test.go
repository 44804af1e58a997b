package usage

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jmehdipour/api-portal/internal/model"
	"github.com/jmehdipour/api-portal/internal/repository"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	keys   []string
	values [][]byte
	err    error
}

func (f *fakePublisher) Publish(_ context.Context, key string, value []byte) error {
	if f.err != nil {
		return f.err
	}
	f.keys = append(f.keys, key)
	f.values = append(f.values, value)
	return nil
}

type fakeEvents struct {
	counts   []model.MethodCount
	clientID string
	err      error
}

func (f *fakeEvents) InsertBatch(context.Context, []model.UsageEvent) error { return nil }

func (f *fakeEvents) MethodCounts(_ context.Context, _, _ time.Time, clientID string) ([]model.MethodCount, error) {
	f.clientID = clientID
	return f.counts, f.err
}

type fakeCounters struct {
	n   int64
	err error
}

func (f *fakeCounters) Increment(context.Context, []repository.DailyIncrement) error { return nil }
func (f *fakeCounters) Get(context.Context, string, time.Time) (int64, error)       { return f.n, f.err }

type fakeClients map[string]*model.Client

func (f fakeClients) FindByID(_ context.Context, id string) (*model.Client, error) {
	return f[id], nil
}

var fixedNow = time.Date(2025, 6, 15, 8, 30, 0, 0, time.UTC)

func newTestService(pub *fakePublisher, ev *fakeEvents, ctr *fakeCounters) *Service {
	s := New(pub, ev, ctr, fakeClients{
		"c-1": {ClientID: "c-1", RequestLimitPerDay: 100},
	})
	s.now = func() time.Time { return fixedNow }
	return s
}

func TestRecordPublishesEnvelope(t *testing.T) {
	pub := &fakePublisher{}
	svc := newTestService(pub, &fakeEvents{}, &fakeCounters{})

	id, err := svc.Record(context.Background(), "c-1", "auth", "login")
	require.NoError(t, err)
	require.Len(t, id, 26, "ULID")

	require.Equal(t, []string{"c-1"}, pub.keys)
	var ev model.UsageEvent
	require.NoError(t, json.Unmarshal(pub.values[0], &ev))
	require.Equal(t, id, ev.ID)
	require.Equal(t, "auth", ev.APIID)
	require.Equal(t, "login", ev.Method)
	require.True(t, fixedNow.Equal(ev.OccurredAt))
	require.True(t, ev.Valid())
}

func TestRecordPublishFailure(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	svc := newTestService(pub, &fakeEvents{}, &fakeCounters{})

	_, err := svc.Record(context.Background(), "c-1", "auth", "login")
	require.ErrorIs(t, err, pub.err)
}

func TestMethodStats(t *testing.T) {
	ev := &fakeEvents{counts: []model.MethodCount{{Method: "login", Traffic: 2}, {Method: "detect", Traffic: 1}}}
	svc := newTestService(&fakePublisher{}, ev, &fakeCounters{})

	from := fixedNow.Add(-time.Hour)
	stats, err := svc.MethodStats(context.Background(), from, fixedNow, "c-1")
	require.NoError(t, err)
	require.Equal(t, "c-1", ev.clientID)
	require.Len(t, stats, 3)
	require.Equal(t, model.TransactionsMethod, stats[0].Method)
	require.EqualValues(t, 3, stats[0].Traffic)
	require.Equal(t, "detect", stats[1].Method)
}

func TestMethodStatsInvalidRange(t *testing.T) {
	svc := newTestService(&fakePublisher{}, &fakeEvents{}, &fakeCounters{})

	_, err := svc.MethodStats(context.Background(), fixedNow, fixedNow.Add(-time.Second), "")
	require.ErrorIs(t, err, ErrInvalidRange)
}

func TestDailyUsage(t *testing.T) {
	svc := newTestService(&fakePublisher{}, &fakeEvents{}, &fakeCounters{n: 42})

	u, err := svc.DailyUsage(context.Background(), "c-1")
	require.NoError(t, err)
	require.Equal(t, model.DailyUsage{
		ClientID:           "c-1",
		Date:               "2025-06-15",
		Requests:           42,
		RequestLimitPerDay: 100,
		Remaining:          58,
	}, *u)
}

func TestDailyUsageUnknownClient(t *testing.T) {
	svc := newTestService(&fakePublisher{}, &fakeEvents{}, &fakeCounters{})

	_, err := svc.DailyUsage(context.Background(), "ghost")
	require.ErrorIs(t, err, ErrClientNotFound)
}
