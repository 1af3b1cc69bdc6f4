package queue

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unclebandit/medshare-backend/internal/model"
)

func noBackoff(int) time.Duration { return 0 }

func TestPublishWithoutSubscribers(t *testing.T) {
	q := NewInMemoryQueue()
	err := q.Publish(TopicSyncResults, model.SyncReport{})
	assert.Error(t, err)
}

func TestPublishDeliversJSON(t *testing.T) {
	q := NewInMemoryQueue()
	got := make(chan model.SyncReport, 1)
	require.NoError(t, q.Subscribe(TopicSyncResults, func(payload []byte) error {
		var r model.SyncReport
		if err := json.Unmarshal(payload, &r); err != nil {
			return err
		}
		got <- r
		return nil
	}))

	require.NoError(t, q.Publish(TopicSyncResults, model.SyncReport{Selected: 3, Transferred: 2, Failed: 1}))

	select {
	case r := <-got:
		assert.Equal(t, 3, r.Selected)
		assert.Equal(t, 2, r.Transferred)
		assert.Equal(t, 1, r.Failed)
	case <-time.After(2 * time.Second):
		t.Fatal("message not delivered")
	}
}

func TestRetryUntilSuccess(t *testing.T) {
	q := NewInMemoryQueue()
	q.Backoff = noBackoff

	var calls int32
	done := make(chan struct{})
	require.NoError(t, q.Subscribe("jobs", func([]byte) error {
		if atomic.AddInt32(&calls, 1) < 3 {
			return errors.New("transient")
		}
		close(done)
		return nil
	}))
	require.NoError(t, q.Publish("jobs", 1))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handler never succeeded")
	}
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestRetryGivesUp(t *testing.T) {
	q := NewInMemoryQueue()
	q.Backoff = noBackoff
	q.MaxRetries = 2

	var calls int32
	require.NoError(t, q.Subscribe("jobs", func([]byte) error {
		atomic.AddInt32(&calls, 1)
		return errors.New("permanent")
	}))
	require.NoError(t, q.Publish("jobs", 1))

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&calls) == 3 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestSyncRequestSubscriber(t *testing.T) {
	q := NewInMemoryQueue()
	q.Backoff = noBackoff

	batches := make(chan int, 1)
	err := StartSyncRequestSubscriber(context.Background(), q, func(_ context.Context, batch int) (*model.SyncReport, error) {
		batches <- batch
		return &model.SyncReport{}, nil
	})
	require.NoError(t, err)

	require.NoError(t, q.Publish(TopicSyncRequests, SyncRequest{BatchSize: 25, RequestedAt: time.Now()}))

	select {
	case b := <-batches:
		assert.Equal(t, 25, b)
	case <-time.After(2 * time.Second):
		t.Fatal("sync not triggered")
	}
}

func TestSyncRequestSubscriberDropsMalformed(t *testing.T) {
	q := NewInMemoryQueue()
	q.Backoff = noBackoff

	var runs int32
	require.NoError(t, StartSyncRequestSubscriber(context.Background(), q, func(context.Context, int) (*model.SyncReport, error) {
		atomic.AddInt32(&runs, 1)
		return &model.SyncReport{}, nil
	}))

	require.NoError(t, q.Publish(TopicSyncRequests, "not an object"))
	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, atomic.LoadInt32(&runs))
}

func TestSerializeNeverOverlaps(t *testing.T) {
	var active, peak, calls atomic.Int32
	run := Serialize(func(ctx context.Context, batch int) (*model.SyncReport, error) {
		n := active.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		active.Add(-1)
		calls.Add(1)
		return &model.SyncReport{}, nil
	})

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			_, _ = run(context.Background(), 10)
			done <- struct{}{}
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}
	assert.Equal(t, int32(8), calls.Load())
	assert.Equal(t, int32(1), peak.Load())
}
