package notify

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultSMTPAddr is the local mail submission service.
const DefaultSMTPAddr = "localhost:25"

// SMTP hands messages to a mail relay without authentication or TLS, which is
// what a local MTA on the backup host accepts.
type SMTP struct {
	Addr    string
	Timeout time.Duration
}

func (s SMTP) Notify(ctx context.Context, msg Message) error {
	addr := s.Addr
	if addr == "" {
		addr = DefaultSMTPAddr
	}
	if err := s.send(ctx, addr, msg); err != nil {
		return &Error{Transport: "smtp " + addr, Err: err}
	}
	log.Info().Str("to", msg.To).Str("subject", msg.Subject).Msg("report sent")
	return nil
}

func (s SMTP) send(ctx context.Context, addr string, msg Message) error {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("invalid address: %w", err)
	}

	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	dialer := &net.Dialer{}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer func() { _ = conn.Close() }()
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, host)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	defer func() { _ = client.Close() }()

	if err := client.Mail(msg.From); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err := client.Rcpt(msg.To); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to start message: %w", err)
	}
	if _, err := w.Write(msg.Bytes()); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close message: %w", err)
	}

	if err := client.Quit(); err != nil {
		log.Debug().Err(err).Msg("smtp quit failed after message was accepted")
	}
	return nil
}
