// Package notify delivers the run report to the operator.
package notify

import (
	"context"
	"fmt"
	"io"
	"mime"
	"strings"
	"time"
)

// Notifier sends a finished report.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// Message is a plain text report mail.
type Message struct {
	From    string
	To      string
	Subject string
	Body    string
	// RunID is added as X-Backup-Run-Id when set.
	RunID string
	Date  time.Time
}

// Error wraps a delivery failure.
type Error struct {
	Transport string
	Err       error
}

func (e *Error) Error() string {
	return fmt.Sprintf("sending mail via %s: %v", e.Transport, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Bytes renders the message with CRLF line endings.
func (m Message) Bytes() []byte {
	date := m.Date
	if date.IsZero() {
		date = time.Now()
	}

	var b strings.Builder
	header := func(name, value string) {
		fmt.Fprintf(&b, "%s: %s\r\n", name, sanitizeHeader(value))
	}
	header("From", m.From)
	header("To", m.To)
	header("Subject", mime.QEncoding.Encode("utf-8", m.Subject))
	header("Date", date.Format(time.RFC1123Z))
	header("MIME-Version", "1.0")
	header("Content-Type", `text/plain; charset="utf-8"`)
	header("Content-Transfer-Encoding", "8bit")
	if m.RunID != "" {
		header("X-Backup-Run-Id", m.RunID)
	}
	b.WriteString("\r\n")

	body := strings.ReplaceAll(m.Body, "\r\n", "\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return []byte(b.String())
}

func sanitizeHeader(value string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(value)
}

// Writer prints the rendered message instead of sending it.
type Writer struct {
	Out io.Writer
}

func (w Writer) Notify(_ context.Context, msg Message) error {
	data := strings.ReplaceAll(string(msg.Bytes()), "\r\n", "\n")
	if _, err := io.WriteString(w.Out, data); err != nil {
		return &Error{Transport: "writer", Err: err}
	}
	return nil
}
