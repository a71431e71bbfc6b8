package thread

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DustGalaxy/dZENcode-Test-Task/apperror"
	"github.com/DustGalaxy/dZENcode-Test-Task/models"
	"github.com/DustGalaxy/dZENcode-Test-Task/store"
)

func uintPtr(v uint) *uint { return &v }

func TestResolveRootTopLevel(t *testing.T) {
	s := store.NewMemoryStore()
	top := models.Comment{UserID: 1, Text: "hello"}
	require.NoError(t, s.Create(context.Background(), &top))

	root, err := NewResolver(s).ResolveRoot(context.Background(), &top)
	require.NoError(t, err)
	assert.Equal(t, top.ID, root.ID)
}

func TestResolveRootDeepChain(t *testing.T) {
	s := store.NewMemoryStore()
	author := s.AddUser(models.User{Username: "alice", Email: "alice@example.com"})

	top := models.Comment{UserID: author.ID, Text: "root"}
	require.NoError(t, s.Create(context.Background(), &top))

	parentID := top.ID
	var leaf models.Comment
	for i := 0; i < 5; i++ {
		leaf = models.Comment{UserID: author.ID, Text: "reply", ParentID: uintPtr(parentID)}
		require.NoError(t, s.Create(context.Background(), &leaf))
		parentID = leaf.ID
	}

	root, err := NewResolver(s).ResolveRoot(context.Background(), &leaf)
	require.NoError(t, err)
	assert.Equal(t, top.ID, root.ID)
	assert.Equal(t, "alice@example.com", root.User.Email)
}

func TestResolveRootCycle(t *testing.T) {
	s := store.NewMemoryStore()
	s.Put(models.Comment{ID: 1, UserID: 1, Text: "a", ParentID: uintPtr(2)})
	s.Put(models.Comment{ID: 2, UserID: 1, Text: "b", ParentID: uintPtr(1)})

	start, err := s.Get(context.Background(), 1)
	require.NoError(t, err)

	_, err = NewResolver(s).ResolveRoot(context.Background(), start)
	assert.ErrorIs(t, err, apperror.ErrDataIntegrity)
}

func TestResolveRootMissingParent(t *testing.T) {
	s := store.NewMemoryStore()
	s.Put(models.Comment{ID: 7, UserID: 1, Text: "orphan", ParentID: uintPtr(99)})

	orphan, err := s.Get(context.Background(), 7)
	require.NoError(t, err)

	_, err = NewResolver(s).ResolveRoot(context.Background(), orphan)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestResolveRootNilComment(t *testing.T) {
	s := store.NewMemoryStore()
	_, err := NewResolver(s).ResolveRoot(context.Background(), nil)
	assert.ErrorIs(t, err, apperror.ErrDataIntegrity)
}
