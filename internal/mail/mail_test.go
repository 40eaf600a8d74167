package mail

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"myblog/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	m, err := New(&config.Config{EmailBackend: "smtp", EmailHost: "mail.example.com", EmailPort: 587}, logger)
	require.NoError(t, err)
	assert.IsType(t, &SMTPMailer{}, m)

	m, err = New(&config.Config{EmailBackend: "console"}, logger)
	require.NoError(t, err)
	assert.IsType(t, &LogMailer{}, m)

	_, err = New(&config.Config{EmailBackend: "fax"}, logger)
	assert.Error(t, err)
}

func TestLogMailer(t *testing.T) {
	var buf bytes.Buffer
	m := NewLogMailer(slog.New(slog.NewTextHandler(&buf, nil)))

	err := m.Send(context.Background(), Message{
		Subject: "Hello",
		Body:    "World",
		From:    "blog@example.com",
		To:      []string{"a@example.com", "b@example.com"},
	})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "subject=Hello")
	assert.Contains(t, buf.String(), "a@example.com, b@example.com")

	assert.Error(t, m.Send(context.Background(), Message{From: "blog@example.com"}))
}

func TestSMTPMailer_RejectsBadAddresses(t *testing.T) {
	m := NewSMTPMailer("localhost", 2525, "", "")

	tests := []struct {
		name string
		msg  Message
	}{
		{"no sender", Message{To: []string{"a@example.com"}}},
		{"no recipients", Message{From: "blog@example.com"}},
		{"bad sender", Message{From: "not an address", To: []string{"a@example.com"}}},
		{"bad recipient", Message{From: "blog@example.com", To: []string{"nope"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, m.Send(context.Background(), tt.msg))
		})
	}
}

func TestOutbox(t *testing.T) {
	var o Outbox
	msg := Message{Subject: "s", From: "f@example.com", To: []string{"t@example.com"}}

	require.NoError(t, o.Send(context.Background(), msg))
	assert.Equal(t, []Message{msg}, o.Messages())

	o.Err = errors.New("smtp down")
	assert.EqualError(t, o.Send(context.Background(), msg), "smtp down")
	assert.Len(t, o.Messages(), 1)
}
