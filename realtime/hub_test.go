package realtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestHub() *Hub {
	return NewHub(zap.NewNop().Sugar())
}

func TestPublishDeliversToAllSubscribers(t *testing.T) {
	h := newTestHub()
	a := h.Join(1)
	b := h.Join(1)

	h.Publish(1, []byte("hello"))

	assert.Equal(t, []byte("hello"), <-a.C)
	assert.Equal(t, []byte("hello"), <-b.C)
}

func TestPublishPreservesOrder(t *testing.T) {
	h := newTestHub()
	sub := h.Join(1)

	h.Publish(1, []byte("first"))
	h.Publish(1, []byte("second"))
	h.Publish(1, []byte("third"))

	assert.Equal(t, "first", string(<-sub.C))
	assert.Equal(t, "second", string(<-sub.C))
	assert.Equal(t, "third", string(<-sub.C))
}

func TestPublishToUnknownGroupIsNoop(t *testing.T) {
	h := newTestHub()
	h.Publish(42, []byte("nobody home"))
	assert.Equal(t, 0, h.GroupSize(42))
}

func TestPublishDoesNotCrossGroups(t *testing.T) {
	h := newTestHub()
	sub := h.Join(2)

	h.Publish(1, []byte("other thread"))

	assert.Len(t, sub.C, 0)
}

func TestJoinAfterPublishMissesEarlierEvents(t *testing.T) {
	h := newTestHub()
	h.Join(1)
	h.Publish(1, []byte("early"))

	late := h.Join(1)
	assert.Len(t, late.C, 0)
}

func TestLeaveClosesChannelAndDiscardsEmptyGroup(t *testing.T) {
	h := newTestHub()
	a := h.Join(1)
	b := h.Join(1)

	h.Leave(1, a.ID)
	_, open := <-a.C
	assert.False(t, open)
	assert.Equal(t, 1, h.GroupSize(1))

	h.Leave(1, b.ID)
	assert.Equal(t, 0, h.GroupSize(1))

	// Leaving twice is harmless.
	h.Leave(1, b.ID)
}

func TestSlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	h := newTestHub()
	sub := h.Join(1)

	for i := 0; i < subscriberBufferSize+10; i++ {
		h.Publish(1, []byte{byte(i)})
	}

	require.Len(t, sub.C, subscriberBufferSize)
	// The retained frames are the oldest ones, in publish order.
	first := <-sub.C
	assert.Equal(t, []byte{0}, first)
}
