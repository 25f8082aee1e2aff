// Package stockrpc implements request/response stock availability checks
// over a pair of one-way queues. Each outgoing request carries a fresh
// correlation id; a consumer on the response topic resolves the matching
// waiter. Exactly one of reply or timeout resolves a given request, and a
// reply arriving after its waiter is gone is discarded.
package stockrpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/myosher1/sales-delivery/internal/kafka"
	"github.com/myosher1/sales-delivery/internal/messages"
	"github.com/myosher1/sales-delivery/internal/util"
)

var ErrCheckTimeout = errors.New("stock availability check timed out")

type Client struct {
	producer     kafka.Producer
	requestTopic string
	timeout      time.Duration
	logger       *zap.Logger

	mu      sync.Mutex
	pending map[string]chan *messages.StockCheckResponse
}

func NewClient(producer kafka.Producer, requestTopic string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		producer:     producer,
		requestTopic: requestTopic,
		timeout:      timeout,
		logger:       logger,
		pending:      make(map[string]chan *messages.StockCheckResponse),
	}
}

// Check publishes an availability query and blocks until the correlated
// reply arrives or the timeout expires.
func (c *Client) Check(ctx context.Context, items []messages.Item) (*messages.StockCheckResponse, error) {
	correlationID := util.GenerateCorrelationID()

	ch := make(chan *messages.StockCheckResponse, 1)
	c.mu.Lock()
	c.pending[correlationID] = ch
	c.mu.Unlock()

	payload, err := json.Marshal(messages.StockCheckRequest{CorrelationID: correlationID, Items: items})
	if err != nil {
		c.take(correlationID)
		return nil, fmt.Errorf("failed to marshal stock check request: %w", err)
	}

	if err := c.producer.Produce(ctx, c.requestTopic, correlationID, payload); err != nil {
		c.take(correlationID)
		c.logger.Error("Failed to publish stock check request",
			zap.String("correlation_id", correlationID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to publish stock check request: %w", err)
	}

	c.logger.Debug("Stock check request published",
		zap.String("correlation_id", correlationID),
		zap.Int("item_count", len(items)))

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	select {
	case resp := <-ch:
		return resp, nil
	case <-timer.C:
		c.take(correlationID)
		c.logger.Warn("Stock check request timed out",
			zap.String("correlation_id", correlationID),
			zap.Duration("timeout", c.timeout))
		return nil, ErrCheckTimeout
	case <-ctx.Done():
		c.take(correlationID)
		return nil, ctx.Err()
	}
}

// HandleResponse consumes the response topic. Replies whose correlation id
// is no longer pending (timed out or already resolved) are discarded.
func (c *Client) HandleResponse(ctx context.Context, message []byte) error {
	var resp messages.StockCheckResponse
	if err := json.Unmarshal(message, &resp); err != nil {
		c.logger.Error("Error unmarshalling stock check response", zap.Error(err), zap.String("raw_message", string(message)))
		return nil
	}

	ch, ok := c.take(resp.CorrelationID)
	if !ok {
		c.logger.Debug("Discarding late or duplicate stock check response",
			zap.String("correlation_id", resp.CorrelationID))
		return nil
	}

	ch <- &resp
	return nil
}

// take removes and returns the pending entry. Removal under the lock is
// what makes resolution idempotent: only one caller can win the entry.
func (c *Client) take(correlationID string) (chan *messages.StockCheckResponse, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch, ok := c.pending[correlationID]
	if ok {
		delete(c.pending, correlationID)
	}
	return ch, ok
}

// PendingCount reports the number of in-flight checks.
func (c *Client) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}
