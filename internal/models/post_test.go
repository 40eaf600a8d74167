package models

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPermalinkFor(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	post := &Post{
		Slug:    "hello-world",
		Publish: time.Date(2024, 3, 9, 23, 30, 0, 0, time.UTC),
		Status:  StatusPublished,
	}

	link := PermalinkFor(post, loc)
	assert.Equal(t, Permalink{Year: 2024, Month: 3, Day: 10, Slug: "hello-world"}, link)
	assert.Equal(t, "/2024/3/10/hello-world", link.Path())
	assert.Equal(t, "/draft/2024/3/10/hello-world", link.DraftPath())
	assert.Equal(t, "/2024/3/10/hello-world", PathFor(post, loc))

	post.Status = StatusDraft
	assert.Equal(t, "/draft/2024/3/10/hello-world", PathFor(post, loc))
}

func TestPermalinkDayRange(t *testing.T) {
	tests := []struct {
		name string
		link Permalink
		ok   bool
	}{
		{"regular day", Permalink{Year: 2024, Month: 1, Day: 31}, true},
		{"leap day", Permalink{Year: 2024, Month: 2, Day: 29}, true},
		{"no leap day", Permalink{Year: 2023, Month: 2, Day: 29}, false},
		{"month zero", Permalink{Year: 2024, Month: 0, Day: 1}, false},
		{"month thirteen", Permalink{Year: 2024, Month: 13, Day: 1}, false},
		{"day thirty two", Permalink{Year: 2024, Month: 1, Day: 32}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end, ok := tt.link.DayRange(time.UTC)
			assert.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, 24*time.Hour, end.Sub(start))
				assert.Equal(t, tt.link.Day, start.Day())
			}
		})
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{NewNotFoundError("Post", 1), 404},
		{NewFieldError("title", "required"), 400},
		{NewPermissionDeniedError("no"), 403},
		{NewUnauthorizedError("login"), 401},
		{NewInternalError(errors.New("boom")), 500},
		{errors.New("plain"), 500},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.status, StatusFor(tt.err), tt.err.Error())
	}
}

func TestIsCode_Wrapped(t *testing.T) {
	err := errors.Join(errors.New("context"), NewNotFoundError("Post", 3))
	assert.True(t, IsCode(err, CodeNotFound))
	assert.False(t, IsCode(err, CodeValidation))
}
