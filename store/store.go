package store

import (
	"context"

	"github.com/DustGalaxy/dZENcode-Test-Task/models"
)

// CommentStore abstracts the persistent comment storage so the pipeline and
// handlers can run against a real database or an in-memory fake.
type CommentStore interface {
	// Create persists the comment and its attachments, assigning ID and timestamps.
	Create(ctx context.Context, comment *models.Comment) error
	// Get returns a comment with author and attachments loaded.
	Get(ctx context.Context, id uint) (*models.Comment, error)
	// GetTree returns the comment with its full reply subtree attached.
	GetTree(ctx context.Context, id uint) (*models.Comment, error)
	// ListTopLevel returns comments with no parent, newest first, with author
	// and attachments loaded.
	ListTopLevel(ctx context.Context) ([]models.Comment, error)
	// ListReplies returns the direct replies of a comment, newest first.
	ListReplies(ctx context.Context, parentID uint) ([]models.Comment, error)
	// UpdateText replaces the comment text and refreshes updated_at.
	UpdateText(ctx context.Context, id uint, text string) error
	// Delete removes the comment, its attachments and its whole reply subtree.
	Delete(ctx context.Context, id uint) error
	// Count returns the total number of comments. Used as the walk bound when
	// resolving reply-chain roots.
	Count(ctx context.Context) (int64, error)
}

// UserStore is the narrow user access the service needs.
type UserStore interface {
	GetUser(ctx context.Context, id uint) (*models.User, error)
	// EnsureSentinelUser guarantees the fallback "deleted" author row exists.
	EnsureSentinelUser(ctx context.Context) error
}
