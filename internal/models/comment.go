package models

import (
	"time"

	"gorm.io/gorm"
)

// Comment is a reader response attached to a published post. Inactive
// comments are retained but hidden from the public detail page.
type Comment struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	PostID uint   `gorm:"not null;index" json:"post_id"`
	UserID uint   `gorm:"not null;index" json:"user_id"`
	User   User   `gorm:"foreignKey:UserID" json:"-"`
	Name   string `gorm:"size:150;not null" json:"name"`
	Body   string `gorm:"type:text;not null" json:"body"`
	Active bool   `gorm:"not null;default:true;index" json:"active"`
	// CreatedAt drives the display order of a post's comments.
	CreatedAt time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
