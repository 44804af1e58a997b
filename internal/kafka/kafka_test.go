package kafka

import (
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
)

func TestNewProducer(t *testing.T) {
	p := NewProducer([]string{"127.0.0.1:9092"}, "usage.events")
	t.Cleanup(func() { _ = p.Close() })

	require.Equal(t, "usage.events", p.w.Topic)
	require.Equal(t, kafka.RequireAll, p.w.RequiredAcks)
	require.IsType(t, &kafka.Hash{}, p.w.Balancer)
	require.Equal(t, "127.0.0.1:9092", p.w.Addr.String())
}
