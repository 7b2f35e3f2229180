package models

import "time"

// Comment represents a reply attached to exactly one post. Comments carry a
// stable ID assigned at creation; deletion is keyed by that ID, never by the
// comment's position in the list.
type Comment struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	PostID    string    `gorm:"size:36;index;not null" json:"post_id"`
	Author    string    `gorm:"size:64;not null" json:"author"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
