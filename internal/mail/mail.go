// Package mail delivers outgoing email through SMTP or, in development, the log.
package mail

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"myblog/internal/config"

	gomail "github.com/wneessen/go-mail"
)

// Message is a plain-text email.
type Message struct {
	Subject string
	Body    string
	From    string
	To      []string
}

// Mailer sends a message. Failures are returned to the caller unretried.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// New picks the backend named by cfg.EmailBackend.
func New(cfg *config.Config, logger *slog.Logger) (Mailer, error) {
	switch cfg.EmailBackend {
	case "smtp":
		return NewSMTPMailer(cfg.EmailHost, cfg.EmailPort, cfg.EmailUsername, cfg.EmailPassword), nil
	case "console", "":
		return NewLogMailer(logger), nil
	default:
		return nil, fmt.Errorf("unknown email backend %q", cfg.EmailBackend)
	}
}

func validate(msg Message) error {
	if msg.From == "" {
		return errors.New("mail: missing sender")
	}
	if len(msg.To) == 0 {
		return errors.New("mail: no recipients")
	}
	return nil
}

// SMTPMailer delivers through an SMTP relay using opportunistic TLS.
type SMTPMailer struct {
	host     string
	port     int
	username string
	password string
}

// NewSMTPMailer returns an SMTP backend. Empty username disables SMTP AUTH.
func NewSMTPMailer(host string, port int, username, password string) *SMTPMailer {
	return &SMTPMailer{host: host, port: port, username: username, password: password}
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := validate(msg); err != nil {
		return err
	}

	out := gomail.NewMsg()
	if err := out.From(msg.From); err != nil {
		return fmt.Errorf("mail: invalid sender: %w", err)
	}
	if err := out.To(msg.To...); err != nil {
		return fmt.Errorf("mail: invalid recipient: %w", err)
	}
	out.Subject(msg.Subject)
	out.SetBodyString(gomail.TypeTextPlain, msg.Body)

	opts := []gomail.Option{
		gomail.WithPort(m.port),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
	}
	if m.username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(m.username),
			gomail.WithPassword(m.password),
		)
	}

	client, err := gomail.NewClient(m.host, opts...)
	if err != nil {
		return fmt.Errorf("mail: client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, out); err != nil {
		return fmt.Errorf("mail: send: %w", err)
	}
	return nil
}

// LogMailer writes messages to the structured log instead of sending them.
type LogMailer struct {
	logger *slog.Logger
}

func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	if err := validate(msg); err != nil {
		return err
	}
	m.logger.InfoContext(ctx, "email",
		slog.String("from", msg.From),
		slog.String("to", strings.Join(msg.To, ", ")),
		slog.String("subject", msg.Subject),
		slog.String("body", msg.Body),
	)
	return nil
}

// Outbox keeps sent messages in memory.
type Outbox struct {
	mu       sync.Mutex
	messages []Message
	// Err, when set, is returned by Send instead of recording the message.
	Err error
}

func (o *Outbox) Send(_ context.Context, msg Message) error {
	if err := validate(msg); err != nil {
		return err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.Err != nil {
		return o.Err
	}
	o.messages = append(o.messages, msg)
	return nil
}

// Messages returns a copy of everything sent so far.
func (o *Outbox) Messages() []Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]Message(nil), o.messages...)
}
