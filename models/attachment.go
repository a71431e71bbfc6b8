package models

import "time"

// Media types accepted for attachments.
const (
	MediaTypeImage = "image"
	MediaTypeFile  = "file"
)

// Attachment is a blob reference owned by a comment. Created only as part of
// comment creation, immutable, and removed together with its comment.
type Attachment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CommentID uint      `gorm:"index;not null" json:"comment_id"`
	URL       string    `gorm:"size:1024;not null" json:"url"`
	MediaType string    `gorm:"size:16;not null" json:"media_type"`
	CreatedAt time.Time `json:"created_at"`
}

// ValidMediaType reports whether t is a recognized media type.
func ValidMediaType(t string) bool {
	return t == MediaTypeImage || t == MediaTypeFile
}
