// Package runlog keeps the operator facing record of a backup run. The same
// text is echoed to the console while the run progresses and becomes the
// body of the notification mail at the end.
package runlog

import (
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"
)

type Log struct {
	echo    io.Writer
	records []string
	failed  bool
}

// New creates a log whose first record is header. echo may be nil.
func New(echo io.Writer, header string) *Log {
	l := &Log{echo: echo}
	if header != "" {
		l.Append(header)
	}
	return l
}

// Append adds text as a new record and mirrors it to the echo writer.
func (l *Log) Append(text string) {
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	l.records = append(l.records, text)

	if l.echo == nil {
		return
	}
	if _, err := io.WriteString(l.echo, text); err != nil {
		log.Debug().Err(err).Msg("console echo failed")
	}
}

func (l *Log) Appendf(format string, args ...interface{}) {
	l.Append(fmt.Sprintf(format, args...))
}

// Fail marks the run as failed. There is no way back.
func (l *Log) Fail() {
	l.failed = true
}

func (l *Log) Failed() bool {
	return l.failed
}

// Records returns a copy of the records in append order.
func (l *Log) Records() []string {
	out := make([]string, len(l.records))
	copy(out, l.records)
	return out
}

// Render concatenates all records.
func (l *Log) Render() string {
	return strings.Join(l.records, "")
}
