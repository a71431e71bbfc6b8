package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/DustGalaxy/dZENcode-Test-Task/apperror"
	"github.com/DustGalaxy/dZENcode-Test-Task/models"
)

// MemoryStore is an in-memory CommentStore/UserStore used by tests and
// redis-less development setups. Safe for concurrent use.
type MemoryStore struct {
	mu       sync.RWMutex
	comments map[uint]models.Comment
	users    map[uint]models.User
	nextID   uint
	nextUser uint
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		comments: make(map[uint]models.Comment),
		users:    make(map[uint]models.User),
	}
}

// AddUser registers a user and returns it with an assigned ID.
func (s *MemoryStore) AddUser(user models.User) models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user.ID == 0 {
		s.nextUser++
		user.ID = s.nextUser
	} else if user.ID > s.nextUser {
		s.nextUser = user.ID
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	s.users[user.ID] = user
	return user
}

// Put inserts or replaces a comment verbatim, bypassing validation and
// timestamps. Intended for tests that need to seed corrupted state.
func (s *MemoryStore) Put(comment models.Comment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if comment.ID > s.nextID {
		s.nextID = comment.ID
	}
	s.comments[comment.ID] = comment
}

func (s *MemoryStore) Create(_ context.Context, comment *models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if comment.ParentID != nil {
		if _, ok := s.comments[*comment.ParentID]; !ok {
			return apperror.NotFound("comment", *comment.ParentID)
		}
	}

	s.nextID++
	comment.ID = s.nextID
	now := time.Now()
	comment.CreatedAt = now
	comment.UpdatedAt = now
	for i := range comment.Attachments {
		comment.Attachments[i].ID = comment.ID*100 + uint(i) + 1
		comment.Attachments[i].CommentID = comment.ID
		comment.Attachments[i].CreatedAt = now
	}
	if user, ok := s.users[comment.UserID]; ok {
		comment.User = user
	}
	s.comments[comment.ID] = *comment
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id uint) (*models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getLocked(id)
}

func (s *MemoryStore) getLocked(id uint) (*models.Comment, error) {
	c, ok := s.comments[id]
	if !ok {
		return nil, apperror.NotFound("comment", id)
	}
	if user, ok := s.users[c.UserID]; ok {
		c.User = user
	}
	c.Replies = nil
	return &c, nil
}

func (s *MemoryStore) GetTree(ctx context.Context, id uint) (*models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	root, err := s.getLocked(id)
	if err != nil {
		return nil, err
	}

	byID := map[uint]*models.Comment{root.ID: root}
	frontier := []uint{root.ID}
	for level := 0; len(frontier) > 0 && level <= len(s.comments); level++ {
		replies := s.childrenLocked(frontier)
		frontier = frontier[:0]
		for i := range replies {
			r := replies[i]
			parent, ok := byID[*r.ParentID]
			if !ok {
				continue
			}
			parent.Replies = append(parent.Replies, r)
			child := &parent.Replies[len(parent.Replies)-1]
			byID[r.ID] = child
			frontier = append(frontier, r.ID)
		}
	}
	return root, nil
}

func (s *MemoryStore) childrenLocked(parents []uint) []models.Comment {
	parentSet := make(map[uint]bool, len(parents))
	for _, p := range parents {
		parentSet[p] = true
	}
	var out []models.Comment
	for _, c := range s.comments {
		if c.ParentID != nil && parentSet[*c.ParentID] {
			if user, ok := s.users[c.UserID]; ok {
				c.User = user
			}
			c.Replies = nil
			out = append(out, c)
		}
	}
	sortNewestFirst(out)
	return out
}

func (s *MemoryStore) ListTopLevel(_ context.Context) ([]models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Comment
	for _, c := range s.comments {
		if c.ParentID == nil {
			if user, ok := s.users[c.UserID]; ok {
				c.User = user
			}
			c.Replies = nil
			out = append(out, c)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *MemoryStore) ListReplies(_ context.Context, parentID uint) ([]models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.childrenLocked([]uint{parentID}), nil
}

func (s *MemoryStore) UpdateText(_ context.Context, id uint, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.comments[id]
	if !ok {
		return apperror.NotFound("comment", id)
	}
	c.Text = text
	c.UpdatedAt = time.Now()
	s.comments[id] = c
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.comments[id]; !ok {
		return apperror.NotFound("comment", id)
	}

	ids := []uint{id}
	seen := map[uint]bool{id: true}
	frontier := []uint{id}
	for len(frontier) > 0 {
		var children []uint
		parentSet := make(map[uint]bool, len(frontier))
		for _, p := range frontier {
			parentSet[p] = true
		}
		for _, c := range s.comments {
			if c.ParentID != nil && parentSet[*c.ParentID] && !seen[c.ID] {
				seen[c.ID] = true
				children = append(children, c.ID)
			}
		}
		ids = append(ids, children...)
		frontier = children
	}
	for _, cid := range ids {
		delete(s.comments, cid)
	}
	return nil
}

func (s *MemoryStore) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.comments)), nil
}

func (s *MemoryStore) GetUser(_ context.Context, id uint) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	return &u, nil
}

func (s *MemoryStore) EnsureSentinelUser(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[models.SentinelUserID]; !ok {
		s.users[models.SentinelUserID] = models.User{ID: models.SentinelUserID, Username: "deleted"}
		if s.nextUser < models.SentinelUserID {
			s.nextUser = models.SentinelUserID
		}
	}
	return nil
}

func sortNewestFirst(comments []models.Comment) {
	sort.Slice(comments, func(i, j int) bool {
		if comments[i].CreatedAt.Equal(comments[j].CreatedAt) {
			return comments[i].ID > comments[j].ID
		}
		return comments[i].CreatedAt.After(comments[j].CreatedAt)
	})
}
