// Package queue provides a Redis list intake for workflow actions, used by
// systems that cannot call the HTTP API directly.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/anilrana004/Workline/pkg/models"
	"github.com/anilrana004/Workline/pkg/workflow"
)

// Callback receives each decoded trigger request.
type Callback func(ctx context.Context, input workflow.TriggerInput) error

// Trigger consumes trigger-action requests from a Redis list with a BLPOP
// loop. Each message is a JSON object with collection, document_id,
// workflow_id, action, user_id and an optional comment.
type Trigger struct {
	Connection map[string]string
	Queue      string
	Enabled    bool

	client   redis.UniversalClient
	callback Callback
	logger   *slog.Logger
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

func NewTrigger(ctx context.Context, config map[string]any, logger *slog.Logger) (*Trigger, error) {
	queue, _ := config["queue"].(string)

	connectionConfig, _ := config["connection"].(map[string]any)

	connection := make(map[string]string)
	for k, v := range connectionConfig {
		if str, ok := v.(string); ok {
			connection[k] = str
		}
	}

	trigger := &Trigger{
		Connection: connection,
		Queue:      queue,
		Enabled:    true,
		stopCh:     make(chan struct{}),
		logger: logger.With(
			"module", "queue_trigger",
			"queue", queue,
		),
	}

	if err := trigger.Validate(ctx); err != nil {
		return nil, err
	}

	return trigger, nil
}

func (t *Trigger) Validate(_ context.Context) error {
	if t.Queue == "" {
		return errors.New("queue trigger queue name is required")
	}

	return nil
}

func (t *Trigger) Start(ctx context.Context, callback Callback) error {
	if !t.Enabled {
		t.logger.InfoContext(ctx, "QueueTrigger is disabled.")

		return nil
	}

	t.logger.InfoContext(ctx, "Starting QueueTrigger")
	t.callback = callback

	if err := t.initializeClient(ctx); err != nil {
		return fmt.Errorf("failed to initialize queue client: %w", err)
	}

	t.wg.Add(1)

	go t.consume(ctx)

	return nil
}

func (t *Trigger) initializeClient(ctx context.Context) error {
	addr := t.Connection["addr"]
	if addr == "" {
		addr = "localhost:6379"
	}

	password := t.Connection["password"]
	db := 0

	if dbStr := t.Connection["db"]; dbStr != "" {
		var err error
		if db, err = strconv.Atoi(dbStr); err != nil {
			return fmt.Errorf("invalid db value: %w", err)
		}
	}

	t.client = redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := t.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	t.logger.InfoContext(ctx, "Connected to Redis", "addr", addr, "db", db)

	return nil
}

func (t *Trigger) consume(ctx context.Context) {
	defer t.wg.Done()

	t.logger.InfoContext(ctx, "Starting queue consumer", "queue", t.Queue)

	for {
		select {
		case <-t.stopCh:
			t.logger.InfoContext(ctx, "Queue consumer stopped")

			return
		case <-ctx.Done():
			t.logger.InfoContext(ctx, "Context cancelled, stopping queue consumer")

			return
		default:
			if err := t.processMessage(ctx); err != nil {
				t.logger.ErrorContext(ctx, "Error processing message", "error", err)
				time.Sleep(1 * time.Second)
			}
		}
	}
}

// queueMessage is the wire shape of one queued trigger request.
type queueMessage struct {
	Collection string `json:"collection"`
	DocumentID string `json:"document_id"`
	WorkflowID string `json:"workflow_id"`
	Action     string `json:"action"`
	UserID     string `json:"user_id"`
	Comment    string `json:"comment,omitempty"`
}

func (m queueMessage) toInput() (workflow.TriggerInput, error) {
	if m.Collection == "" || m.DocumentID == "" || m.WorkflowID == "" || m.Action == "" || m.UserID == "" {
		return workflow.TriggerInput{}, errors.New("queue message is missing required fields")
	}

	return workflow.TriggerInput{
		Collection: m.Collection,
		DocumentID: m.DocumentID,
		WorkflowID: m.WorkflowID,
		Action:     models.LogAction(m.Action),
		UserID:     m.UserID,
		Comment:    m.Comment,
	}, nil
}

func (t *Trigger) processMessage(ctx context.Context) error {
	result, err := t.client.BLPop(ctx, 1*time.Second, t.Queue).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}

		return fmt.Errorf("failed to pop message from queue: %w", err)
	}

	if len(result) < 2 {
		return nil
	}

	message := result[1]

	var decoded queueMessage
	if err := json.Unmarshal([]byte(message), &decoded); err != nil {
		t.logger.WarnContext(ctx, "Dropping malformed queue message", "error", err)

		return nil
	}

	input, err := decoded.toInput()
	if err != nil {
		t.logger.WarnContext(ctx, "Dropping incomplete queue message", "error", err)

		return nil
	}

	t.logger.InfoContext(ctx, "Received trigger from queue",
		"collection", input.Collection, "document_id", input.DocumentID, "action", string(input.Action))

	go func() {
		if err := t.callback(ctx, input); err != nil {
			t.logger.ErrorContext(ctx, "Error applying queued trigger", "error", err)
		}
	}()

	return nil
}

func (t *Trigger) Stop(ctx context.Context) error {
	t.logger.InfoContext(ctx, "Stopping QueueTrigger")

	close(t.stopCh)
	t.wg.Wait()

	if t.client != nil {
		if err := t.client.Close(); err != nil {
			t.logger.ErrorContext(ctx, "Error closing Redis client", "error", err)
		}
	}

	return nil
}
