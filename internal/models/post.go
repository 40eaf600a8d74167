package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// PostStatus is the lifecycle state of a post.
type PostStatus string

const (
	StatusDraft     PostStatus = "draft"
	StatusPublished PostStatus = "published"
)

// Valid reports whether s is a known status.
func (s PostStatus) Valid() bool {
	return s == StatusDraft || s == StatusPublished
}

// Post is an authored article. Its public address is derived from the
// publish date and slug, so neither may change once the post is visible.
type Post struct {
	ID       uint       `gorm:"primaryKey" json:"id"`
	Title    string     `gorm:"size:250;not null" json:"title"`
	Slug     string     `gorm:"size:250;not null;index:idx_posts_slug_publish" json:"slug"`
	Body     string     `gorm:"type:text;not null" json:"body"`
	AuthorID uint       `gorm:"not null;index" json:"author_id"`
	Author   User       `gorm:"foreignKey:AuthorID" json:"author"`
	Publish  time.Time  `gorm:"not null;index;index:idx_posts_slug_publish" json:"publish"`
	Status   PostStatus `gorm:"size:10;not null;default:draft;index" json:"status"`
	Tags     []Tag      `gorm:"many2many:post_tags;" json:"tags"`
	// SharedTags is only populated by similarity queries.
	SharedTags int            `gorm:"->;-:migration" json:"shared_tags,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

// IsPublished reports whether the post is publicly visible.
func (p *Post) IsPublished() bool {
	return p.Status == StatusPublished
}

// BeforeSave stores publish timestamps in UTC so range lookups compare
// like with like on every backend.
func (p *Post) BeforeSave(tx *gorm.DB) error {
	p.Publish = p.Publish.UTC()
	return nil
}

// TagNames returns the display names of the post's tags.
func (p *Post) TagNames() []string {
	names := make([]string, 0, len(p.Tags))
	for _, t := range p.Tags {
		names = append(names, t.Name)
	}
	return names
}

// Permalink identifies a post by calendar date and slug.
type Permalink struct {
	Year  int    `json:"year"`
	Month int    `json:"month"`
	Day   int    `json:"day"`
	Slug  string `json:"slug"`
}

// PermalinkFor derives the permalink of post in loc.
func PermalinkFor(post *Post, loc *time.Location) Permalink {
	t := post.Publish.In(loc)
	return Permalink{
		Year:  t.Year(),
		Month: int(t.Month()),
		Day:   t.Day(),
		Slug:  post.Slug,
	}
}

// Path is the public detail address.
func (p Permalink) Path() string {
	return fmt.Sprintf("/%d/%d/%d/%s", p.Year, p.Month, p.Day, p.Slug)
}

// DraftPath is the author-only preview address.
func (p Permalink) DraftPath() string {
	return "/draft" + p.Path()
}

// DayRange returns the half-open [start, end) window of the permalink's date
// in loc. ok is false when the date does not exist (e.g. month 13, Feb 30).
func (p Permalink) DayRange(loc *time.Location) (start, end time.Time, ok bool) {
	if p.Month < 1 || p.Month > 12 || p.Day < 1 {
		return time.Time{}, time.Time{}, false
	}
	start = time.Date(p.Year, time.Month(p.Month), p.Day, 0, 0, 0, 0, loc)
	if start.Year() != p.Year || int(start.Month()) != p.Month || start.Day() != p.Day {
		return time.Time{}, time.Time{}, false
	}
	return start, start.AddDate(0, 0, 1), true
}

// PathFor returns the detail address matching the post's status.
func PathFor(post *Post, loc *time.Location) string {
	link := PermalinkFor(post, loc)
	if post.IsPublished() {
		return link.Path()
	}
	return link.DraftPath()
}
