// Package mail delivers outbound email.
package mail

import (
	"context"
	"fmt"
	"html"
	"io"
	"log"
	"strings"
	"sync"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Message is a plain text email. An empty From means the sender's default address.
type Message struct {
	Subject string
	Body    string
	From    string
	To      string
}

// Mailer sends a message synchronously. There is no retry or queueing.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SendGridMailer delivers through the SendGrid v3 API.
type SendGridMailer struct {
	client      *sendgrid.Client
	defaultFrom string
	fromName    string
}

func NewSendGridMailer(apiKey, defaultFrom, fromName string) *SendGridMailer {
	return &SendGridMailer{
		client:      sendgrid.NewSendClient(apiKey),
		defaultFrom: defaultFrom,
		fromName:    fromName,
	}
}

func (m *SendGridMailer) Send(ctx context.Context, msg Message) error {
	from := msg.From
	if from == "" {
		from = m.defaultFrom
	}
	message := sgmail.NewSingleEmail(
		sgmail.NewEmail(m.fromName, from),
		msg.Subject,
		sgmail.NewEmail("", msg.To),
		msg.Body,
		htmlBody(msg.Body),
	)

	response, err := m.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send to %s: %w", msg.To, err)
	}
	if response.StatusCode >= 300 {
		return fmt.Errorf("sendgrid send to %s: status %d: %s", msg.To, response.StatusCode, response.Body)
	}
	log.Printf("Email %q sent to %s (status %d)", msg.Subject, msg.To, response.StatusCode)
	return nil
}

// htmlBody renders the plain text body as minimal HTML, one paragraph per block.
func htmlBody(text string) string {
	var b strings.Builder
	for _, para := range strings.Split(strings.TrimSpace(text), "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		b.WriteString("<p>")
		b.WriteString(strings.ReplaceAll(html.EscapeString(para), "\n", "<br>"))
		b.WriteString("</p>")
	}
	return b.String()
}

// ConsoleMailer writes messages to a writer instead of sending them. It is the
// development backend used when no SendGrid key is configured.
type ConsoleMailer struct {
	mu          sync.Mutex
	w           io.Writer
	defaultFrom string
}

func NewConsoleMailer(w io.Writer, defaultFrom string) *ConsoleMailer {
	return &ConsoleMailer{w: w, defaultFrom: defaultFrom}
}

func (m *ConsoleMailer) Send(ctx context.Context, msg Message) error {
	from := msg.From
	if from == "" {
		from = m.defaultFrom
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	_, err := fmt.Fprintf(m.w, "From: %s\nTo: %s\nSubject: %s\n\n%s\n%s\n",
		from, msg.To, msg.Subject, msg.Body, strings.Repeat("-", 72))
	return err
}

// Outbox records messages in memory.
type Outbox struct {
	mu       sync.Mutex
	messages []Message
	Err      error
}

func (o *Outbox) Send(ctx context.Context, msg Message) error {
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

// Last returns the most recent message.
func (o *Outbox) Last() (Message, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.messages) == 0 {
		return Message{}, false
	}
	return o.messages[len(o.messages)-1], true
}
