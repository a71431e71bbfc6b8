package thread

import (
	"context"
	"fmt"

	"github.com/DustGalaxy/dZENcode-Test-Task/apperror"
	"github.com/DustGalaxy/dZENcode-Test-Task/models"
	"github.com/DustGalaxy/dZENcode-Test-Task/store"
)

// Resolver finds the root ancestor of a reply chain. Chain depth is user
// controlled, so the walk is iterative and bounded: revisiting an ID or
// exceeding the total comment count means the parent graph is corrupted.
type Resolver struct {
	store store.CommentStore
}

func NewResolver(s store.CommentStore) *Resolver {
	return &Resolver{store: s}
}

// ResolveRoot walks parent references from comment until it reaches a comment
// with no parent and returns it. For a top-level comment it returns the
// comment itself. A cycle yields apperror.ErrDataIntegrity.
func (r *Resolver) ResolveRoot(ctx context.Context, comment *models.Comment) (*models.Comment, error) {
	if comment == nil {
		return nil, apperror.DataIntegrity("resolve root of nil comment")
	}

	maxDepth, err := r.store.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count comments: %w", err)
	}

	current := comment
	seen := map[uint]bool{current.ID: true}
	for depth := int64(0); current.ParentID != nil; depth++ {
		if depth > maxDepth {
			return nil, apperror.DataIntegrity(fmt.Sprintf("reply chain from comment %d exceeds comment count", comment.ID))
		}
		parentID := *current.ParentID
		if seen[parentID] {
			return nil, apperror.DataIntegrity(fmt.Sprintf("cycle in reply chain at comment %d", parentID))
		}
		seen[parentID] = true

		parent, err := r.store.Get(ctx, parentID)
		if err != nil {
			return nil, fmt.Errorf("load parent %d: %w", parentID, err)
		}
		current = parent
	}
	return current, nil
}
