package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// EmailJob is the unit of work consumed by the email worker.
type EmailJob struct {
	Recipient   string `json:"recipient"`
	TextExcerpt string `json:"text_excerpt"`
}

// DeadLetter wraps an exhausted job with failure metadata.
type DeadLetter struct {
	Job      EmailJob  `json:"job"`
	Reason   string    `json:"reason"`
	FailedAt time.Time `json:"failed_at"`
}

// ErrQueueClosed is returned by Dequeue when the queue shut down.
var ErrQueueClosed = errors.New("job queue closed")

// JobQueue is the durable work queue between the write path and the email
// worker. Enqueue happens synchronously on the request path but delivery is
// decoupled in time and failure domain.
type JobQueue interface {
	Enqueue(ctx context.Context, job EmailJob) error
	// Dequeue blocks until a job is available or ctx is done.
	Dequeue(ctx context.Context) (*EmailJob, error)
	// MoveToDeadLetter records a job that exhausted its delivery attempts.
	MoveToDeadLetter(ctx context.Context, job EmailJob, reason string) error
}

// RedisQueue keeps jobs in a Redis list so they survive process restarts.
type RedisQueue struct {
	client        *redis.Client
	queueKey      string
	deadLetterKey string
}

func NewRedisQueue(client *redis.Client, queueKey, deadLetterKey string) *RedisQueue {
	return &RedisQueue{client: client, queueKey: queueKey, deadLetterKey: deadLetterKey}
}

func (q *RedisQueue) Enqueue(ctx context.Context, job EmailJob) error {
	b, err := json.Marshal(job)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return q.client.LPush(ctx, q.queueKey, b).Err()
}

func (q *RedisQueue) Dequeue(ctx context.Context) (*EmailJob, error) {
	// Block in bounded slices so ctx cancellation is honored promptly even
	// against servers that do not abort BRPOP mid-wait.
	for {
		res, err := q.client.BRPop(ctx, 5*time.Second, q.queueKey).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				continue
			}
			return nil, err
		}
		// res is [key, value]
		var job EmailJob
		if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
			return nil, err
		}
		return &job, nil
	}
}

func (q *RedisQueue) MoveToDeadLetter(ctx context.Context, job EmailJob, reason string) error {
	b, err := json.Marshal(DeadLetter{Job: job, Reason: reason, FailedAt: time.Now()})
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return q.client.LPush(ctx, q.deadLetterKey, b).Err()
}

// MemoryQueue is an in-process JobQueue for tests and redis-less development.
type MemoryQueue struct {
	jobs chan EmailJob

	mu   sync.Mutex
	dead []DeadLetter
}

func NewMemoryQueue(capacity int) *MemoryQueue {
	if capacity <= 0 {
		capacity = 1024
	}
	return &MemoryQueue{jobs: make(chan EmailJob, capacity)}
}

func (q *MemoryQueue) Enqueue(_ context.Context, job EmailJob) error {
	select {
	case q.jobs <- job:
		return nil
	default:
		return errors.New("memory queue full")
	}
}

func (q *MemoryQueue) Dequeue(ctx context.Context) (*EmailJob, error) {
	select {
	case job, ok := <-q.jobs:
		if !ok {
			return nil, ErrQueueClosed
		}
		return &job, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (q *MemoryQueue) MoveToDeadLetter(_ context.Context, job EmailJob, reason string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.dead = append(q.dead, DeadLetter{Job: job, Reason: reason, FailedAt: time.Now()})
	return nil
}

// DeadLetters returns a snapshot of the dead-letter records.
func (q *MemoryQueue) DeadLetters() []DeadLetter {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]DeadLetter, len(q.dead))
	copy(out, q.dead)
	return out
}

// Len reports the number of queued jobs.
func (q *MemoryQueue) Len() int {
	return len(q.jobs)
}
