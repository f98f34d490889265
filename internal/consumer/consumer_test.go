package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"github.com/ilindan-dev/notification-gateway/internal/config"
	"github.com/ilindan-dev/notification-gateway/internal/domain/model"
	"github.com/ilindan-dev/notification-gateway/internal/domain/provider"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"sync"
	"testing"
	"time"
)

// fakeQueue hands out pending messages once and then blocks until cancelled.
type fakeQueue struct {
	mu       sync.Mutex
	pending  []provider.ReceivedMessage
	deleted  []string
	released map[string]time.Duration
}

func (q *fakeQueue) Enqueue(context.Context, string, map[string]string, time.Duration) (string, error) {
	return "", errors.New("not used")
}

func (q *fakeQueue) Receive(ctx context.Context, maxMessages int, _ time.Duration) ([]provider.ReceivedMessage, error) {
	q.mu.Lock()
	if len(q.pending) > 0 {
		n := min(maxMessages, len(q.pending))
		batch := q.pending[:n]
		q.pending = q.pending[n:]
		q.mu.Unlock()
		return batch, nil
	}
	q.mu.Unlock()
	<-ctx.Done()
	return nil, ctx.Err()
}

func (q *fakeQueue) Delete(_ context.Context, receiptHandle string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.deleted = append(q.deleted, receiptHandle)
	return nil
}

func (q *fakeQueue) Release(_ context.Context, receiptHandle string, delay time.Duration) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.released == nil {
		q.released = map[string]time.Duration{}
	}
	q.released[receiptHandle] = delay
	return nil
}

func (q *fakeQueue) deletedHandles() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]string(nil), q.deleted...)
}

type fakeDispatcher struct {
	mu    sync.Mutex
	calls []model.NotificationRequest
	fail  map[string]bool
}

func (d *fakeDispatcher) Send(_ context.Context, channel model.Channel, req model.NotificationRequest) (*model.NotificationResponse, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, req)
	if d.fail[req.Recipient] {
		return nil, errors.New("provider call failed: throttled")
	}
	return model.NewNotificationResponse(model.StatusSent, req.Recipient), nil
}

func (d *fakeDispatcher) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.calls)
}

func queuedBody(t *testing.T, channel model.Channel, recipient string) string {
	t.Helper()
	body, err := json.Marshal(model.NewQueuedNotification(channel, model.NotificationRequest{
		Recipient: recipient,
		Subject:   "Reminder",
		Context:   map[string]any{"message": "Starts soon"},
	}))
	require.NoError(t, err)
	return string(body)
}

func newTestConsumer(q provider.MessageQueue, d Dispatcher) *Consumer {
	logger := zerolog.Nop()
	cfg := &config.Config{Worker: config.WorkerConfig{Count: 2, BatchSize: 10, WaitTime: time.Second, RedeliveryDelay: 45 * time.Second}}
	return New(cfg, &logger, q, d)
}

func TestHandleMessage(t *testing.T) {
	q := &fakeQueue{}
	d := &fakeDispatcher{fail: map[string]bool{"down@b.com": true}}
	c := newTestConsumer(q, d)

	c.handleMessage(context.Background(), provider.ReceivedMessage{ID: "1", ReceiptHandle: "ok", Body: queuedBody(t, model.ChannelEmail, "a@b.com")}, c.logger)
	c.handleMessage(context.Background(), provider.ReceivedMessage{ID: "2", ReceiptHandle: "failed", Body: queuedBody(t, model.ChannelEmail, "down@b.com")}, c.logger)
	c.handleMessage(context.Background(), provider.ReceivedMessage{ID: "3", ReceiptHandle: "garbage", Body: "{not json"}, c.logger)
	c.handleMessage(context.Background(), provider.ReceivedMessage{ID: "4", ReceiptHandle: "push", Body: queuedBody(t, model.Channel("push"), "a@b.com")}, c.logger)

	assert.Equal(t, 2, d.count())
	assert.ElementsMatch(t, []string{"ok", "garbage", "push"}, q.deletedHandles())
	assert.Equal(t, map[string]time.Duration{"failed": 45 * time.Second}, q.released)
}

func TestHandleMessage_PassesRequestThrough(t *testing.T) {
	q := &fakeQueue{}
	d := &fakeDispatcher{}
	c := newTestConsumer(q, d)

	c.handleMessage(context.Background(), provider.ReceivedMessage{ReceiptHandle: "h", Body: queuedBody(t, model.ChannelSMS, "+15550001111")}, c.logger)

	require.Len(t, d.calls, 1)
	assert.Equal(t, "+15550001111", d.calls[0].Recipient)
	assert.Equal(t, "Starts soon", d.calls[0].Message())
}

func TestStart_ProcessesUntilCancelled(t *testing.T) {
	q := &fakeQueue{pending: []provider.ReceivedMessage{
		{ID: "1", ReceiptHandle: "h1", Body: queuedBody(t, model.ChannelEmail, "a@b.com")},
		{ID: "2", ReceiptHandle: "h2", Body: queuedBody(t, model.ChannelSMS, "+15550001111")},
	}}
	d := &fakeDispatcher{}
	c := newTestConsumer(q, d)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Start(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return len(q.deletedHandles()) == 2 }, 2*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not stop after cancellation")
	}
	assert.Equal(t, 2, d.count())
}

func TestNew_DefaultsWorkerCount(t *testing.T) {
	logger := zerolog.Nop()
	c := New(&config.Config{}, &logger, &fakeQueue{}, &fakeDispatcher{})
	assert.Equal(t, defaultWorkerCount, c.workerCount)
	assert.Equal(t, defaultRedeliveryDelay, c.redeliveryDelay)
}
