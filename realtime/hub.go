package realtime

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// subscriberBufferSize is the per-subscriber channel buffer. A subscriber that
// falls this far behind starts losing events rather than blocking publishers.
const subscriberBufferSize = 64

// EventNewReply is the authoritative reply-notification frame.
const EventNewReply = "new_reply"

// ReplyEvent is the outbound frame for a newly created reply.
type ReplyEvent struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// EphemeralMessage is the inbound client frame and its group echo. Carries no
// persistence guarantee.
type EphemeralMessage struct {
	Message string `json:"message"`
}

// Subscription is one connection's membership in a thread group. Frames
// arrive on C in publish order; the channel is closed on Leave.
type Subscription struct {
	ID string
	C  chan []byte
}

// Hub manages thread groups: sets of live subscriber channels keyed by the
// root comment ID of a thread. Groups are created lazily on first Join and
// discarded when their last member leaves. All methods are safe for
// concurrent use.
type Hub struct {
	mu     sync.Mutex
	groups map[uint]map[string]*Subscription
	logger *zap.SugaredLogger
}

func NewHub(logger *zap.SugaredLogger) *Hub {
	return &Hub{
		groups: make(map[uint]map[string]*Subscription),
		logger: logger,
	}
}

// Join adds a new subscription to the group for threadID, creating the group
// on demand.
func (h *Hub) Join(threadID uint) *Subscription {
	sub := &Subscription{
		ID: uuid.New().String(),
		C:  make(chan []byte, subscriberBufferSize),
	}

	h.mu.Lock()
	group, ok := h.groups[threadID]
	if !ok {
		group = make(map[string]*Subscription)
		h.groups[threadID] = group
	}
	group[sub.ID] = sub
	h.mu.Unlock()

	if h.logger != nil {
		h.logger.Debugf("subscriber %s joined thread %d", sub.ID, threadID)
	}
	return sub
}

// Leave removes the subscription from its group and closes its channel. The
// group is discarded once empty; nothing persisted is lost.
func (h *Hub) Leave(threadID uint, subID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	group, ok := h.groups[threadID]
	if !ok {
		return
	}
	sub, ok := group[subID]
	if !ok {
		return
	}
	delete(group, subID)
	close(sub.C)
	if len(group) == 0 {
		delete(h.groups, threadID)
	}
	if h.logger != nil {
		h.logger.Debugf("subscriber %s left thread %d", subID, threadID)
	}
}

// Publish delivers payload to every current member of the group. Publishing
// to an empty or unknown group is a silent no-op. Sends never block: a full
// subscriber buffer drops the frame for that subscriber only. Holding the
// lock across the sends keeps delivery order equal to publish order within a
// group.
func (h *Hub) Publish(threadID uint, payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	group, ok := h.groups[threadID]
	if !ok {
		return
	}
	for _, sub := range group {
		select {
		case sub.C <- payload:
		default:
			if h.logger != nil {
				h.logger.Warnf("dropping frame for slow subscriber %s on thread %d", sub.ID, threadID)
			}
		}
	}
}

// GroupSize reports the current membership of a thread group.
func (h *Hub) GroupSize(threadID uint) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.groups[threadID])
}
