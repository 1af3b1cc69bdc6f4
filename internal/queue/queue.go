package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/unclebandit/medshare-backend/internal/model"
)

const (
	// TopicSyncRequests asks a worker to run one archival pass.
	TopicSyncRequests = "reporting_sync_requests"
	// TopicSyncResults carries the SyncReport of every finished pass.
	TopicSyncResults = "reporting_sync_results"
)

// SyncRequest is the payload of TopicSyncRequests. A zero BatchSize means
// the worker's configured default.
type SyncRequest struct {
	BatchSize   int       `json:"batch_size,omitempty"`
	RequestedBy string    `json:"requested_by,omitempty"`
	RequestedAt time.Time `json:"requested_at"`
}

// Handler receives the raw JSON payload of one message. Returning an error
// asks the queue to redeliver.
type Handler func(payload []byte) error

// Queue interface
type Queue interface {
	Publish(topic string, payload any) error
	Subscribe(topic string, handler Handler) error
}

// InMemoryQueue delivers in-process with retry
type InMemoryQueue struct {
	mu       sync.Mutex
	handlers map[string][]Handler

	MaxRetries int
	// Backoff returns the pause before the given retry attempt.
	Backoff func(attempt int) time.Duration
}

// NewInMemoryQueue creates a new queue
func NewInMemoryQueue() *InMemoryQueue {
	return &InMemoryQueue{
		handlers:   make(map[string][]Handler),
		MaxRetries: 3,
		Backoff: func(attempt int) time.Duration {
			return time.Duration(attempt*500) * time.Millisecond
		},
	}
}

// job wraps a message payload with retry info
type job struct {
	topic      string
	payload    []byte
	retryCount int
}

// Publish sends a message to all subscribers
func (q *InMemoryQueue) Publish(topic string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrapf(err, "encode %s payload", topic)
	}

	q.mu.Lock()
	handlers := q.handlers[topic]
	q.mu.Unlock()

	if len(handlers) == 0 {
		return fmt.Errorf("no subscribers for topic %s", topic)
	}

	for _, handler := range handlers {
		go q.processJob(handler, job{topic: topic, payload: body})
	}
	return nil
}

// processJob handles retries and errors
func (q *InMemoryQueue) processJob(handler Handler, j job) {
	for {
		err := handler(j.payload)
		if err == nil {
			log.Debug().Str("topic", j.topic).Int("attempt", j.retryCount+1).Msg("job processed")
			return
		}

		j.retryCount++
		if j.retryCount > q.MaxRetries {
			log.Error().Err(err).Str("topic", j.topic).Int("attempts", j.retryCount).Msg("job permanently failed")
			return
		}
		log.Warn().Err(err).Str("topic", j.topic).Int("attempt", j.retryCount).Int("max_retries", q.MaxRetries).Msg("job failed, retrying")

		if q.Backoff != nil {
			time.Sleep(q.Backoff(j.retryCount))
		}
	}
}

// Subscribe adds a handler for a topic
func (q *InMemoryQueue) Subscribe(topic string, handler Handler) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.handlers[topic] = append(q.handlers[topic], handler)
	return nil
}

// SyncRunner runs one archival pass.
type SyncRunner func(ctx context.Context, batchSize int) (*model.SyncReport, error)

// Serialize returns a runner whose passes never overlap, whichever
// goroutine starts them.
func Serialize(run SyncRunner) SyncRunner {
	var mu sync.Mutex
	return func(ctx context.Context, batchSize int) (*model.SyncReport, error) {
		mu.Lock()
		defer mu.Unlock()
		return run(ctx, batchSize)
	}
}

// StartSyncRequestSubscriber runs an archival pass for every sync request.
// A malformed payload is dropped; a failed pass is redelivered.
func StartSyncRequestSubscriber(ctx context.Context, q Queue, run SyncRunner) error {
	err := q.Subscribe(TopicSyncRequests, func(payload []byte) error {
		var req SyncRequest
		if err := json.Unmarshal(payload, &req); err != nil {
			log.Warn().Err(err).Msg("dropping malformed sync request")
			return nil
		}

		log.Info().Int("batch_size", req.BatchSize).Str("requested_by", req.RequestedBy).Msg("processing sync request")
		report, err := run(ctx, req.BatchSize)
		if err != nil {
			return err
		}
		log.Info().Int("transferred", report.Transferred).Int("failed", report.Failed).Msg("sync request done")
		return nil
	})
	return errors.Wrap(err, "subscribe to sync requests")
}
