package service

import (
	"strings"

	"myblog/internal/models"
	"myblog/internal/slug"
)

// ParseTagInput splits a tag field the way the post form accepts it: on
// commas when any are present, otherwise on whitespace. Quoted tags are not
// supported.
func ParseTagInput(raw string) []string {
	var parts []string
	if strings.Contains(raw, ",") {
		parts = strings.Split(raw, ",")
	} else {
		parts = strings.Fields(raw)
	}

	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// normalizeTags keeps the first spelling of each distinct slug and drops
// names that slugify to nothing.
func normalizeTags(names []string) []models.Tag {
	seen := make(map[string]struct{}, len(names))
	tags := make([]models.Tag, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		s := slug.Make(name)
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		tags = append(tags, models.Tag{Name: name, Slug: s})
	}
	return tags
}

// FormatTagInput renders tags back into the post form field.
func FormatTagInput(tags []models.Tag) string {
	names := make([]string, 0, len(tags))
	for _, t := range tags {
		names = append(names, t.Name)
	}
	return strings.Join(names, ", ")
}
