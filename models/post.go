package models

import "time"

// MaxContentRunes is the upper bound on post content length, counted in runes.
const MaxContentRunes = 280

// CategoryNone is assigned when a post is created without a category.
const CategoryNone = "uncategorized"

// Categories lists the selectable post categories.
var Categories = []string{"Life", "Study", "Work", "Fun", "Others"}

// ValidCategory reports whether c is one of the selectable categories.
func ValidCategory(c string) bool {
	for _, v := range Categories {
		if c == v {
			return true
		}
	}
	return false
}

// Post represents a feed entry created by an identified user.
// Author is an asserted display name, not an account reference.
type Post struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Author    string    `gorm:"size:64;index;not null" json:"author"`
	Category  string    `gorm:"size:32;default:'uncategorized'" json:"category"`
	Image     string    `gorm:"size:512" json:"image,omitempty"`
	Likes     int       `gorm:"not null;default:0" json:"likes"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	Comments  []Comment `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"comments"`
}
