package models

import "time"

// MaxTextLen bounds sanitized comment text.
const MaxTextLen = 1500

// Comment is a rich-text comment. ParentID is nil for top-level comments and
// points at another comment for replies. The parent chain is acyclic and
// finite; following ParentID always terminates at a comment with ParentID nil.
// ParentID is immutable after creation.
type Comment struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	UserID      uint         `gorm:"index;not null;default:1" json:"user_id"`
	Text        string       `gorm:"type:text;not null" json:"text"`
	ParentID    *uint        `gorm:"index" json:"parent_id"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	User        User         `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET DEFAULT;" json:"author"`
	Attachments []Attachment `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"attachments"`
	Replies     []Comment    `gorm:"foreignKey:ParentID" json:"replies,omitempty"`
}

// IsReply reports whether the comment has a parent.
func (c *Comment) IsReply() bool {
	return c.ParentID != nil
}

// CommentPreview is the reduced shape served by the preview endpoint.
type CommentPreview struct {
	ID        uint      `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Preview projects the comment onto its preview shape.
func (c *Comment) Preview() CommentPreview {
	return CommentPreview{ID: c.ID, Text: c.Text, CreatedAt: c.CreatedAt}
}
