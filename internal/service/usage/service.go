package usage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmehdipour/api-portal/internal/metrics"
	"github.com/jmehdipour/api-portal/internal/model"
	"github.com/jmehdipour/api-portal/internal/repository"
	"github.com/jmehdipour/api-portal/internal/util"
)

var (
	ErrClientNotFound = errors.New("client not found")
	ErrInvalidRange   = errors.New("from must not be after to")
)

// Publisher sends a keyed payload to the usage topic.
type Publisher interface {
	Publish(ctx context.Context, key string, value []byte) error
}

type ClientLookup interface {
	FindByID(ctx context.Context, clientID string) (*model.Client, error)
}

// Service records usage events and answers traffic queries.
type Service struct {
	pub      Publisher
	events   repository.UsageEventsRepository
	counters repository.UsageCountersRepository
	clients  ClientLookup

	now func() time.Time
}

// New constructs the usage service.
func New(
	pub Publisher,
	eventsRepo repository.UsageEventsRepository,
	countersRepo repository.UsageCountersRepository,
	clients ClientLookup,
) *Service {
	return &Service{
		pub:      pub,
		events:   eventsRepo,
		counters: countersRepo,
		clients:  clients,
		now:      time.Now,
	}
}

// Record stamps a ULID and timestamp on the call and publishes it keyed by
// client id. Returns the event id.
func (s *Service) Record(ctx context.Context, clientID, apiID, method string) (string, error) {
	ev := model.UsageEvent{
		ID:         util.New(),
		ClientID:   clientID,
		APIID:      apiID,
		Method:     method,
		OccurredAt: s.now().UTC(),
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return "", fmt.Errorf("marshal usage event: %w", err)
	}

	if err := s.pub.Publish(ctx, clientID, payload); err != nil {
		return "", fmt.Errorf("publish usage event: %w", err)
	}
	metrics.UsageEventsTotal.WithLabelValues("published").Inc()

	return ev.ID, nil
}

// MethodStats returns the Transactions total followed by per-method traffic
// in [from, to]. clientID narrows to one client when not empty.
func (s *Service) MethodStats(ctx context.Context, from, to time.Time, clientID string) ([]model.MethodStat, error) {
	if from.After(to) {
		return nil, ErrInvalidRange
	}
	counts, err := s.events.MethodCounts(ctx, from, to, clientID)
	if err != nil {
		return nil, fmt.Errorf("method counts: %w", err)
	}
	return model.SummarizeMethods(from, to, counts), nil
}

// DailyUsage reports today's (UTC) request count against the client's plan limit.
func (s *Service) DailyUsage(ctx context.Context, clientID string) (*model.DailyUsage, error) {
	c, err := s.clients.FindByID(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("find client: %w", err)
	}
	if c == nil {
		return nil, ErrClientNotFound
	}

	today := s.now().UTC()
	n, err := s.counters.Get(ctx, c.ClientID, today)
	if err != nil {
		return nil, fmt.Errorf("daily counter: %w", err)
	}

	u := model.NewDailyUsage(c.ClientID, today, n, c.RequestLimitPerDay)
	return &u, nil
}
