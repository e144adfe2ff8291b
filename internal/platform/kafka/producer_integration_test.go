//go:build integration

package kafka

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"joingate/internal/platform/config"
	"joingate/pkg/testutil/containers"
)

func TestProducerRoundTrip(t *testing.T) {
	broker := containers.NewKafkaContainer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	p, err := NewProducer(ctx, config.KafkaConfig{Brokers: []string{broker.Broker}, Topic: "joingate.audit.test"})
	require.NoError(t, err)
	defer p.Close(ctx)

	require.NoError(t, p.EnsureTopic(ctx, 1, 1), "second create is idempotent")
	require.NoError(t, p.Produce(ctx, []byte("1:2"), []byte(`{"result":"pass"}`)))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(broker.Broker),
		kgo.ConsumeTopics(p.Topic()),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	fetches := consumer.PollFetches(ctx)
	require.Empty(t, fetches.Errors())
	records := fetches.Records()
	require.Len(t, records, 1)
	require.Equal(t, "1:2", string(records[0].Key))
}

func TestNewProducerWithoutBrokers(t *testing.T) {
	p, err := NewProducer(context.Background(), config.KafkaConfig{})
	require.NoError(t, err)
	require.Nil(t, p)
}
