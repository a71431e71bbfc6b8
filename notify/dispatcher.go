package notify

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/DustGalaxy/dZENcode-Test-Task/apperror"
	"github.com/DustGalaxy/dZENcode-Test-Task/models"
	"github.com/DustGalaxy/dZENcode-Test-Task/realtime"
	"github.com/DustGalaxy/dZENcode-Test-Task/thread"
)

// excerptLen caps the email excerpt taken from the reply text.
const excerptLen = 100

// Publisher is the realtime fanout the dispatcher publishes to. Satisfied by
// *realtime.Hub.
type Publisher interface {
	Publish(threadID uint, payload []byte)
}

// Dispatcher runs the post-commit notification saga for new replies: resolve
// the root of the reply chain, broadcast the reply to the root thread's live
// subscribers and enqueue a best-effort email job for the root author.
//
// Called exactly once per durably committed reply, never for failed or
// rolled-back creations. Every failure past the commit is logged and
// swallowed: the comment write already succeeded and must not be rolled back
// for a notification-delivery issue.
type Dispatcher struct {
	resolver *thread.Resolver
	hub      Publisher
	queue    JobQueue
	logger   *zap.SugaredLogger
}

func NewDispatcher(resolver *thread.Resolver, hub Publisher, queue JobQueue, logger *zap.SugaredLogger) *Dispatcher {
	return &Dispatcher{resolver: resolver, hub: hub, queue: queue, logger: logger}
}

// ReplyCreated fans out notifications for a persisted reply. Comments without
// a parent are ignored; they invalidate the preview cache instead.
func (d *Dispatcher) ReplyCreated(ctx context.Context, comment *models.Comment) {
	if comment == nil || comment.ParentID == nil {
		return
	}

	root, err := d.resolver.ResolveRoot(ctx, comment)
	if err != nil {
		// A resolve failure here means the stored parent graph is broken;
		// surface loudly in logs, nothing sane can be notified.
		d.logger.Errorf("resolve root for reply %d: %v", comment.ID, err)
		return
	}

	payload, err := json.Marshal(realtime.ReplyEvent{Type: realtime.EventNewReply, Data: comment})
	if err != nil {
		d.logger.Errorf("serialize reply %d: %v", comment.ID, err)
		return
	}
	// Non-blocking toward absent or slow subscribers; an empty group is a
	// silent no-op.
	d.hub.Publish(root.ID, payload)

	if root.User.Email == "" {
		d.logger.Debugf("root author %d has no email, skipping job for reply %d", root.UserID, comment.ID)
		return
	}
	job := EmailJob{
		Recipient:   root.User.Email,
		TextExcerpt: excerpt(comment.Text),
	}
	if err := d.queue.Enqueue(ctx, job); err != nil {
		// The reply is already durably saved; log and proceed.
		d.logger.Errorf("reply %d: %v", comment.ID, apperror.NotificationDelivery("email job enqueue", err))
	}
}

func excerpt(text string) string {
	runes := []rune(text)
	if len(runes) <= excerptLen {
		return text
	}
	return string(runes[:excerptLen])
}
