package store

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/DustGalaxy/dZENcode-Test-Task/apperror"
	"github.com/DustGalaxy/dZENcode-Test-Task/models"
)

// GormStore implements CommentStore and UserStore over a gorm MySQL connection.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Create(ctx context.Context, comment *models.Comment) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if comment.ParentID != nil {
			var parent models.Comment
			if err := tx.Select("id").First(&parent, *comment.ParentID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperror.NotFound("comment", *comment.ParentID)
				}
				return err
			}
		}
		if err := tx.Create(comment).Error; err != nil {
			return err
		}
		return tx.Preload("User").Preload("Attachments").First(comment, comment.ID).Error
	})
}

func (s *GormStore) Get(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	err := s.db.WithContext(ctx).Preload("User").Preload("Attachments").First(&comment, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("comment", id)
		}
		return nil, err
	}
	return &comment, nil
}

// GetTree loads the comment and attaches its reply subtree, fetched level by
// level. The level loop is bounded by the total comment count so a corrupted
// parent graph cannot spin forever.
func (s *GormStore) GetTree(ctx context.Context, id uint) (*models.Comment, error) {
	root, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	total, err := s.Count(ctx)
	if err != nil {
		return nil, err
	}

	byID := map[uint]*models.Comment{root.ID: root}
	frontier := []uint{root.ID}
	for level := int64(0); len(frontier) > 0 && level <= total; level++ {
		var replies []models.Comment
		err := s.db.WithContext(ctx).
			Preload("User").Preload("Attachments").
			Where("parent_id IN ?", frontier).
			Order("created_at DESC").
			Find(&replies).Error
		if err != nil {
			return nil, err
		}
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

func (s *GormStore) ListTopLevel(ctx context.Context) ([]models.Comment, error) {
	var comments []models.Comment
	err := s.db.WithContext(ctx).
		Preload("User").Preload("Attachments").
		Where("parent_id IS NULL").
		Order("created_at DESC").
		Find(&comments).Error
	return comments, err
}

func (s *GormStore) ListReplies(ctx context.Context, parentID uint) ([]models.Comment, error) {
	var comments []models.Comment
	err := s.db.WithContext(ctx).
		Preload("User").Preload("Attachments").
		Where("parent_id = ?", parentID).
		Order("created_at DESC").
		Find(&comments).Error
	return comments, err
}

func (s *GormStore) UpdateText(ctx context.Context, id uint, text string) error {
	res := s.db.WithContext(ctx).Model(&models.Comment{}).Where("id = ?", id).Update("text", text)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound("comment", id)
	}
	return nil
}

// Delete removes the comment together with its reply subtree and all
// attachments of the removed comments. Replies are owned by their parent's
// existence, so the cascade is intentional.
func (s *GormStore) Delete(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var exists int64
		if err := tx.Model(&models.Comment{}).Where("id = ?", id).Count(&exists).Error; err != nil {
			return err
		}
		if exists == 0 {
			return apperror.NotFound("comment", id)
		}

		ids := []uint{id}
		seen := map[uint]bool{id: true}
		frontier := []uint{id}
		for len(frontier) > 0 {
			var children []uint
			if err := tx.Model(&models.Comment{}).
				Where("parent_id IN ?", frontier).
				Pluck("id", &children).Error; err != nil {
				return err
			}
			// Skip already-collected IDs so a corrupted cyclic parent graph
			// cannot keep the walk alive.
			frontier = frontier[:0]
			for _, cid := range children {
				if seen[cid] {
					continue
				}
				seen[cid] = true
				ids = append(ids, cid)
				frontier = append(frontier, cid)
			}
		}

		if err := tx.Where("comment_id IN ?", ids).Delete(&models.Attachment{}).Error; err != nil {
			return err
		}
		return tx.Where("id IN ?", ids).Delete(&models.Comment{}).Error
	})
}

func (s *GormStore) Count(ctx context.Context) (int64, error) {
	var total int64
	err := s.db.WithContext(ctx).Model(&models.Comment{}).Count(&total).Error
	return total, err
}

func (s *GormStore) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, err
	}
	return &user, nil
}

func (s *GormStore) EnsureSentinelUser(ctx context.Context) error {
	sentinel := models.User{
		ID:       models.SentinelUserID,
		Username: "deleted",
	}
	return s.db.WithContext(ctx).FirstOrCreate(&sentinel, models.User{ID: models.SentinelUserID}).Error
}
