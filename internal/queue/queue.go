// Package queue is the boundary to the external AI-commentary pipeline. The
// backend only enqueues work; the worker consuming it is a separate
// deployment.
package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// TypeGenerateCommentary is the task name for annotating a published question
// with model-generated commentary.
const TypeGenerateCommentary = "ai:generate_commentary"

// CommentaryPayload is the JSON payload transported via the queue.
type CommentaryPayload struct {
	QuestionID uint `json:"question_id"`
}

// Enqueuer enqueues commentary tasks. Satisfied by *AsynqClient; a nil-safe
// noop is used when the pipeline is disabled.
type Enqueuer interface {
	EnqueueCommentary(ctx context.Context, questionID uint) error
	Close() error
}

type AsynqClient struct {
	client *asynq.Client
}

func NewAsynqClient(addr, password string, db int) *AsynqClient {
	return &AsynqClient{
		client: asynq.NewClient(asynq.RedisClientOpt{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
	}
}

var _ Enqueuer = (*AsynqClient)(nil)

func (c *AsynqClient) EnqueueCommentary(ctx context.Context, questionID uint) error {
	payload, err := json.Marshal(CommentaryPayload{QuestionID: questionID})
	if err != nil {
		return fmt.Errorf("marshal commentary payload: %w", err)
	}
	task := asynq.NewTask(TypeGenerateCommentary, payload)
	if _, err := c.client.EnqueueContext(ctx, task, asynq.Queue("ai"), asynq.MaxRetry(3)); err != nil {
		return fmt.Errorf("enqueue commentary for question %d: %w", questionID, err)
	}
	return nil
}

func (c *AsynqClient) Close() error {
	return c.client.Close()
}

// Noop is used when AI commentary is disabled.
type Noop struct{}

var _ Enqueuer = Noop{}

func (Noop) EnqueueCommentary(context.Context, uint) error { return nil }
func (Noop) Close() error                                  { return nil }
