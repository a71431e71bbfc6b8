package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/DustGalaxy/dZENcode-Test-Task/apperror"
	"github.com/DustGalaxy/dZENcode-Test-Task/utils"
)

// Mailer sends a single notification email.
type Mailer interface {
	Send(to, subject, body string) error
}

// SMTPMailer delivers through the configured SMTP relay.
type SMTPMailer struct{}

func (SMTPMailer) Send(to, subject, body string) error {
	return utils.SendMail(to, subject, body)
}

// EmailWorker consumes email jobs independently of request handling. A job
// that keeps failing is retried with linear backoff up to maxAttempts and
// then moved to the dead-letter record; one poisoned job never blocks the
// queue. Delivery is at-most-several-times: duplicates and silent loss after
// exhausted retries are both tolerated, loss stays observable through logs
// and the dead-letter list.
type EmailWorker struct {
	queue       JobQueue
	mailer      Mailer
	logger      *zap.SugaredLogger
	maxAttempts int
	backoff     time.Duration
}

func NewEmailWorker(queue JobQueue, mailer Mailer, logger *zap.SugaredLogger, maxAttempts int, backoff time.Duration) *EmailWorker {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	if backoff <= 0 {
		backoff = 2 * time.Second
	}
	return &EmailWorker{
		queue:       queue,
		mailer:      mailer,
		logger:      logger,
		maxAttempts: maxAttempts,
		backoff:     backoff,
	}
}

// Run consumes jobs until ctx is cancelled. Meant to be started on its own
// goroutine at boot.
func (w *EmailWorker) Run(ctx context.Context) {
	w.logger.Info("email worker started")
	for {
		job, err := w.queue.Dequeue(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ErrQueueClosed) {
				w.logger.Info("email worker stopped")
				return
			}
			w.logger.Errorf("dequeue email job: %v", err)
			if !w.sleep(ctx, w.backoff) {
				return
			}
			continue
		}
		w.Process(ctx, *job)
	}
}

// Process attempts delivery of one job, retrying transient failures.
func (w *EmailWorker) Process(ctx context.Context, job EmailJob) {
	subject := "New reply in your thread"
	body := fmt.Sprintf("Someone replied in your comment thread:\n\n%s\n", job.TextExcerpt)

	var lastErr error
	for attempt := 1; attempt <= w.maxAttempts; attempt++ {
		lastErr = w.mailer.Send(job.Recipient, subject, body)
		if lastErr == nil {
			w.logger.Infof("notification email sent to %s", job.Recipient)
			return
		}
		w.logger.Warnf("send email to %s attempt %d/%d: %v", job.Recipient, attempt, w.maxAttempts, lastErr)
		if attempt < w.maxAttempts {
			if !w.sleep(ctx, w.backoff*time.Duration(attempt)) {
				// Shutdown mid-retry: the job still has attempts left, so put
				// it back for the next worker instead of dead-lettering it.
				// The fresh context matters, ctx is already cancelled.
				if err := w.queue.Enqueue(context.Background(), job); err != nil {
					w.logger.Errorf("requeue email job for %s on shutdown: %v", job.Recipient, err)
				}
				return
			}
		}
	}

	failure := apperror.EmailDelivery(job.Recipient, lastErr)
	if err := w.queue.MoveToDeadLetter(ctx, job, failure.Error()); err != nil {
		w.logger.Errorf("dead-letter email job for %s: %v", job.Recipient, err)
		return
	}
	w.logger.Errorf("email job for %s dead-lettered after %d attempts: %v", job.Recipient, w.maxAttempts, lastErr)
}

// sleep waits for d or until ctx is done. Returns false on cancellation.
func (w *EmailWorker) sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
