package recorder

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	exchange, key string
	msg           amqp.Publishing
}

type fakeChannel struct {
	sent   []published
	err    error
	closed int
}

func (c *fakeChannel) Publish(exchange, key string, _, _ bool, msg amqp.Publishing) error {
	if c.err != nil {
		return c.err
	}
	c.sent = append(c.sent, published{exchange: exchange, key: key, msg: msg})
	return nil
}

func (c *fakeChannel) Close() error {
	c.closed++
	return nil
}

func newFakeBroker(ch *fakeChannel) *Broker {
	return &Broker{Exchange: "pipeline.records", open: func() (amqpChannel, error) { return ch, nil }}
}

func TestBrokerPublishesRecord(t *testing.T) {
	ch := &fakeChannel{}
	b := newFakeBroker(ch)

	rec := NewRecord(KindCallAnalysis, "req9", map[string]any{"status": "analyzed"})
	rec.Key = "interview_7"
	require.NoError(t, b.Append(context.Background(), *rec))

	require.Len(t, ch.sent, 1)
	got := ch.sent[0]
	assert.Equal(t, "pipeline.records", got.exchange)
	assert.Equal(t, "record.call_analysis", got.key)
	assert.Equal(t, "application/json", got.msg.ContentType)
	assert.Equal(t, rec.ID.String(), got.msg.MessageId)
	assert.True(t, rec.CreatedAt.Equal(got.msg.Timestamp))
	assert.Equal(t, 1, ch.closed)

	var body Record
	require.NoError(t, json.Unmarshal(got.msg.Body, &body))
	assert.Equal(t, rec.ID, body.ID)
	assert.Equal(t, KindCallAnalysis, body.Kind)
	assert.Equal(t, "interview_7", body.Key)
	assert.Equal(t, "req9", body.RequestID)
	assert.Equal(t, "analyzed", body.Payload["status"])
}

func TestBrokerErrors(t *testing.T) {
	down := errors.New("connection closed")
	b := &Broker{Exchange: "x", open: func() (amqpChannel, error) { return nil, down }}
	err := b.Append(context.Background(), *NewRecord(KindMatch, "", nil))
	assert.ErrorIs(t, err, down)

	ch := &fakeChannel{err: errors.New("channel closed")}
	err = newFakeBroker(ch).Append(context.Background(), *NewRecord(KindMatch, "", nil))
	assert.EqualError(t, err, "channel closed")
	assert.Equal(t, 1, ch.closed)

	err = newFakeBroker(&fakeChannel{}).Append(context.Background(), *NewRecord(KindMatch, "", map[string]any{"bad": make(chan int)}))
	assert.ErrorContains(t, err, "failed to marshal record")
}
