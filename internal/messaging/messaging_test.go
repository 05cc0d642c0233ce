package messaging

import (
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
)

func TestOutboundLeavesTopicToTheWriter(t *testing.T) {
	msg := outbound([]byte("order-o-1"), []byte(`{"type":"order.placed"}`))

	assert.Empty(t, msg.Topic, "the writer owns the topic; records naming it too are rejected")
	assert.Equal(t, []byte("order-o-1"), msg.Key)
	assert.Equal(t, []byte(`{"type":"order.placed"}`), msg.Value)
}

func TestWrapCopiesMessageFields(t *testing.T) {
	src := kafka.Message{
		Topic:   "kirana.orders.events",
		Key:     []byte("order-o-1"),
		Value:   []byte("payload"),
		Offset:  42,
		Time:    time.Unix(1700000000, 0),
		Headers: []kafka.Header{{Key: "origin", Value: []byte("api")}},
	}

	got := wrap(src)

	assert.Equal(t, "kirana.orders.events", got.Topic)
	assert.Equal(t, []byte("order-o-1"), got.Key)
	assert.Equal(t, []byte("payload"), got.Value)
	assert.Equal(t, int64(42), got.Offset)
	assert.Equal(t, src.Time, got.Time)
	assert.Equal(t, map[string]string{"origin": "api"}, got.Headers)
}
