package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DustGalaxy/dZENcode-Test-Task/apperror"
	"github.com/DustGalaxy/dZENcode-Test-Task/models"
)

func uintPtr(v uint) *uint { return &v }

func TestCreateAssignsIDAndLoadsAuthor(t *testing.T) {
	s := NewMemoryStore()
	author := s.AddUser(models.User{Username: "alice", Email: "alice@example.com"})

	c := models.Comment{
		UserID:      author.ID,
		Text:        "hello",
		Attachments: []models.Attachment{{URL: "/static/uploads/a.png", MediaType: models.MediaTypeImage}},
	}
	require.NoError(t, s.Create(context.Background(), &c))

	assert.NotZero(t, c.ID)
	assert.False(t, c.CreatedAt.IsZero())
	assert.Equal(t, "alice", c.User.Username)
	require.Len(t, c.Attachments, 1)
	assert.Equal(t, c.ID, c.Attachments[0].CommentID)
}

func TestCreateRejectsUnknownParent(t *testing.T) {
	s := NewMemoryStore()
	c := models.Comment{UserID: 1, Text: "reply", ParentID: uintPtr(42)}
	err := s.Create(context.Background(), &c)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestListTopLevelNewestFirst(t *testing.T) {
	s := NewMemoryStore()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	s.Put(models.Comment{ID: 1, UserID: 1, Text: "oldest", CreatedAt: base})
	s.Put(models.Comment{ID: 2, UserID: 1, Text: "newest", CreatedAt: base.Add(2 * time.Hour)})
	s.Put(models.Comment{ID: 3, UserID: 1, Text: "middle", CreatedAt: base.Add(time.Hour)})
	s.Put(models.Comment{ID: 4, UserID: 1, Text: "reply", ParentID: uintPtr(1), CreatedAt: base.Add(3 * time.Hour)})

	list, err := s.ListTopLevel(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "newest", list[0].Text)
	assert.Equal(t, "middle", list[1].Text)
	assert.Equal(t, "oldest", list[2].Text)
}

func TestListTopLevelTiesBrokenByID(t *testing.T) {
	s := NewMemoryStore()
	at := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	s.Put(models.Comment{ID: 1, UserID: 1, Text: "first", CreatedAt: at})
	s.Put(models.Comment{ID: 2, UserID: 1, Text: "second", CreatedAt: at})

	list, err := s.ListTopLevel(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, uint(2), list[0].ID)
}

func TestListRepliesReturnsDirectChildrenOnly(t *testing.T) {
	s := NewMemoryStore()
	root := models.Comment{UserID: 1, Text: "root"}
	require.NoError(t, s.Create(context.Background(), &root))
	child := models.Comment{UserID: 1, Text: "child", ParentID: uintPtr(root.ID)}
	require.NoError(t, s.Create(context.Background(), &child))
	grandchild := models.Comment{UserID: 1, Text: "grandchild", ParentID: uintPtr(child.ID)}
	require.NoError(t, s.Create(context.Background(), &grandchild))

	replies, err := s.ListReplies(context.Background(), root.ID)
	require.NoError(t, err)
	require.Len(t, replies, 1)
	assert.Equal(t, child.ID, replies[0].ID)
}

func TestGetTreeNestsReplies(t *testing.T) {
	s := NewMemoryStore()
	root := models.Comment{UserID: 1, Text: "root"}
	require.NoError(t, s.Create(context.Background(), &root))
	child := models.Comment{UserID: 1, Text: "child", ParentID: uintPtr(root.ID)}
	require.NoError(t, s.Create(context.Background(), &child))
	grandchild := models.Comment{UserID: 1, Text: "grandchild", ParentID: uintPtr(child.ID)}
	require.NoError(t, s.Create(context.Background(), &grandchild))

	tree, err := s.GetTree(context.Background(), root.ID)
	require.NoError(t, err)
	require.Len(t, tree.Replies, 1)
	require.Len(t, tree.Replies[0].Replies, 1)
	assert.Equal(t, grandchild.ID, tree.Replies[0].Replies[0].ID)
}

func TestDeleteCascadesToSubtree(t *testing.T) {
	s := NewMemoryStore()
	root := models.Comment{UserID: 1, Text: "root"}
	require.NoError(t, s.Create(context.Background(), &root))
	child := models.Comment{UserID: 1, Text: "child", ParentID: uintPtr(root.ID)}
	require.NoError(t, s.Create(context.Background(), &child))
	grandchild := models.Comment{UserID: 1, Text: "grandchild", ParentID: uintPtr(child.ID)}
	require.NoError(t, s.Create(context.Background(), &grandchild))
	other := models.Comment{UserID: 1, Text: "unrelated"}
	require.NoError(t, s.Create(context.Background(), &other))

	require.NoError(t, s.Delete(context.Background(), root.ID))

	for _, id := range []uint{root.ID, child.ID, grandchild.ID} {
		_, err := s.Get(context.Background(), id)
		assert.ErrorIs(t, err, apperror.ErrNotFound)
	}
	_, err := s.Get(context.Background(), other.ID)
	assert.NoError(t, err)

	count, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestDeleteTerminatesOnCyclicParents(t *testing.T) {
	s := NewMemoryStore()
	s.Put(models.Comment{ID: 1, UserID: 1, Text: "a", ParentID: uintPtr(2)})
	s.Put(models.Comment{ID: 2, UserID: 1, Text: "b", ParentID: uintPtr(1)})

	require.NoError(t, s.Delete(context.Background(), 1))

	count, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestDeleteUnknownComment(t *testing.T) {
	s := NewMemoryStore()
	err := s.Delete(context.Background(), 42)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestUpdateText(t *testing.T) {
	s := NewMemoryStore()
	c := models.Comment{UserID: 1, Text: "before"}
	require.NoError(t, s.Create(context.Background(), &c))

	require.NoError(t, s.UpdateText(context.Background(), c.ID, "after"))

	got, err := s.Get(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, "after", got.Text)

	err = s.UpdateText(context.Background(), 99, "nope")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestEnsureSentinelUserIdempotent(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.EnsureSentinelUser(context.Background()))
	require.NoError(t, s.EnsureSentinelUser(context.Background()))

	u, err := s.GetUser(context.Background(), models.SentinelUserID)
	require.NoError(t, err)
	assert.Equal(t, "deleted", u.Username)
}
