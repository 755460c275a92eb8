//go:build integration

package kafka

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"abportal/internal/platform/logger"
	"abportal/pkg/testutil/containers"
)

func TestProducerPublishesToRedpanda(t *testing.T) {
	broker := containers.NewRedpandaContainer(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	const topic = "abportal.test.notifications"
	p, err := NewProducer(ctx, []string{broker.SeedBroker}, topic, logger.Discard())
	require.NoError(t, err)
	defer p.Close()

	require.NoError(t, p.EnsureTopic(ctx, 1, 1))
	require.NoError(t, p.EnsureTopic(ctx, 1, 1), "second call tolerates an existing topic")
	require.NoError(t, p.Publish(ctx, "cr-1", []byte(`{"kind":"success"}`), map[string]string{"decision": "approved"}))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(broker.SeedBroker),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	fetches := consumer.PollFetches(ctx)
	require.Empty(t, fetches.Errors())
	records := fetches.Records()
	require.Len(t, records, 1)
	require.Equal(t, "cr-1", string(records[0].Key))
	require.Equal(t, "decision", records[0].Headers[0].Key)
}
