// Package models contains data structures for the blog's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// Permission codenames understood by the permission checker.
const (
	PermAddPost       = "blog.add_post"
	PermChangePost    = "blog.change_post"
	PermDeletePost    = "blog.delete_post"
	PermChangeComment = "blog.change_comment"
	PermDeleteComment = "blog.delete_comment"
)

// AllPermissions lists every known codename.
var AllPermissions = []string{
	PermAddPost,
	PermChangePost,
	PermDeletePost,
	PermChangeComment,
	PermDeleteComment,
}

// User represents an account that can author posts and comments.
type User struct {
	ID          uint             `gorm:"primaryKey" json:"id"`
	Username    string           `gorm:"size:150;uniqueIndex;not null" json:"username"`
	Email       string           `gorm:"size:254;uniqueIndex;not null" json:"email"`
	Password    string           `gorm:"not null" json:"-"`
	FirstName   string           `gorm:"size:150" json:"first_name"`
	LastName    string           `gorm:"size:150" json:"last_name"`
	IsActive    bool             `gorm:"not null;default:true" json:"is_active"`
	IsSuperuser bool             `gorm:"not null;default:false" json:"is_superuser"`
	Permissions []UserPermission `gorm:"foreignKey:UserID" json:"-"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	DeletedAt   gorm.DeletedAt   `gorm:"index" json:"-"`
}

// UserPermission grants a single capability codename to a user.
type UserPermission struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_user_permission" json:"user_id"`
	Codename  string    `gorm:"size:100;not null;uniqueIndex:idx_user_permission" json:"codename"`
	CreatedAt time.Time `json:"created_at"`
}

// IsKnownPermission reports whether codename is one of AllPermissions.
func IsKnownPermission(codename string) bool {
	for _, p := range AllPermissions {
		if p == codename {
			return true
		}
	}
	return false
}
