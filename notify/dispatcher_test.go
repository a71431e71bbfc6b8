package notify

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/DustGalaxy/dZENcode-Test-Task/models"
	"github.com/DustGalaxy/dZENcode-Test-Task/realtime"
	"github.com/DustGalaxy/dZENcode-Test-Task/store"
	"github.com/DustGalaxy/dZENcode-Test-Task/thread"
)

type capturedEvent struct {
	threadID uint
	payload  []byte
}

type fakePublisher struct {
	mu     sync.Mutex
	events []capturedEvent
}

func (p *fakePublisher) Publish(threadID uint, payload []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, capturedEvent{threadID: threadID, payload: payload})
}

func (p *fakePublisher) all() []capturedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]capturedEvent(nil), p.events...)
}

func uintPtr(v uint) *uint { return &v }

type dispatcherFixture struct {
	store *store.MemoryStore
	pub   *fakePublisher
	queue *MemoryQueue
	disp  *Dispatcher
}

func newDispatcherFixture() *dispatcherFixture {
	s := store.NewMemoryStore()
	pub := &fakePublisher{}
	queue := NewMemoryQueue(16)
	disp := NewDispatcher(thread.NewResolver(s), pub, queue, zap.NewNop().Sugar())
	return &dispatcherFixture{store: s, pub: pub, queue: queue, disp: disp}
}

// seedThread creates root -> child and returns both. The root author has the
// given email.
func (f *dispatcherFixture) seedThread(t *testing.T, rootEmail string) (root, child models.Comment) {
	t.Helper()
	author := f.store.AddUser(models.User{Username: "rootauthor", Email: rootEmail})
	replier := f.store.AddUser(models.User{Username: "replier", Email: "replier@example.com"})

	root = models.Comment{UserID: author.ID, Text: "top level"}
	require.NoError(t, f.store.Create(context.Background(), &root))
	child = models.Comment{UserID: replier.ID, Text: "first reply", ParentID: uintPtr(root.ID)}
	require.NoError(t, f.store.Create(context.Background(), &child))
	return root, child
}

func TestReplyCreatedFansOutToRootThread(t *testing.T) {
	f := newDispatcherFixture()
	root, child := f.seedThread(t, "rootauthor@example.com")

	grandchild := models.Comment{UserID: child.UserID, Text: "deep reply", ParentID: uintPtr(child.ID)}
	require.NoError(t, f.store.Create(context.Background(), &grandchild))

	f.disp.ReplyCreated(context.Background(), &grandchild)

	events := f.pub.all()
	require.Len(t, events, 1)
	assert.Equal(t, root.ID, events[0].threadID)

	var evt struct {
		Type string `json:"type"`
		Data struct {
			ID   uint   `json:"id"`
			Text string `json:"text"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(events[0].payload, &evt))
	assert.Equal(t, realtime.EventNewReply, evt.Type)
	assert.Equal(t, grandchild.ID, evt.Data.ID)
	assert.Equal(t, "deep reply", evt.Data.Text)

	job, err := f.queue.Dequeue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "rootauthor@example.com", job.Recipient)
	assert.Equal(t, "deep reply", job.TextExcerpt)
}

func TestReplyCreatedIgnoresTopLevelComments(t *testing.T) {
	f := newDispatcherFixture()
	root, _ := f.seedThread(t, "rootauthor@example.com")

	f.disp.ReplyCreated(context.Background(), &root)

	assert.Empty(t, f.pub.all())
	assert.Equal(t, 0, f.queue.Len())
}

func TestReplyCreatedSkipsEmailWithoutRecipient(t *testing.T) {
	f := newDispatcherFixture()
	_, child := f.seedThread(t, "")

	f.disp.ReplyCreated(context.Background(), &child)

	assert.Len(t, f.pub.all(), 1)
	assert.Equal(t, 0, f.queue.Len())
}

func TestReplyCreatedTruncatesExcerpt(t *testing.T) {
	f := newDispatcherFixture()
	root, _ := f.seedThread(t, "rootauthor@example.com")

	long := strings.Repeat("é", excerptLen+50)
	reply := models.Comment{UserID: root.UserID, Text: long, ParentID: uintPtr(root.ID)}
	require.NoError(t, f.store.Create(context.Background(), &reply))

	f.disp.ReplyCreated(context.Background(), &reply)

	job, err := f.queue.Dequeue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, excerptLen, len([]rune(job.TextExcerpt)))
	assert.Equal(t, strings.Repeat("é", excerptLen), job.TextExcerpt)
}

func TestReplyCreatedSurvivesFullQueue(t *testing.T) {
	f := newDispatcherFixture()
	_, child := f.seedThread(t, "rootauthor@example.com")

	// Fill the queue so the enqueue fails.
	full := NewMemoryQueue(1)
	require.NoError(t, full.Enqueue(context.Background(), EmailJob{Recipient: "x"}))

	core, logs := observer.New(zap.ErrorLevel)
	f.disp = NewDispatcher(thread.NewResolver(f.store), f.pub, full, zap.New(core).Sugar())

	f.disp.ReplyCreated(context.Background(), &child)

	// The realtime event still went out despite the enqueue failure.
	assert.Len(t, f.pub.all(), 1)
	assert.Equal(t, 1, full.Len())

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Message, "email job enqueue failed")
}

func TestReplyCreatedBrokenChainPublishesNothing(t *testing.T) {
	f := newDispatcherFixture()
	f.store.Put(models.Comment{ID: 5, UserID: 1, Text: "orphan", ParentID: uintPtr(99)})

	orphan, err := f.store.Get(context.Background(), 5)
	require.NoError(t, err)

	f.disp.ReplyCreated(context.Background(), orphan)

	assert.Empty(t, f.pub.all())
	assert.Equal(t, 0, f.queue.Len())
}
