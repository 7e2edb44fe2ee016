// Package exitcode maps fatal run errors to process exit statuses.
package exitcode

import (
	"errors"

	"github.com/gentoomaniac/backup-machine/pkg/executor"
	"github.com/gentoomaniac/backup-machine/pkg/manifest"
	"github.com/gentoomaniac/backup-machine/pkg/notify"
	"github.com/gentoomaniac/backup-machine/pkg/snapshot"
)

type Code int

const (
	// Success also covers runs with a partial copy failure, those are reported by mail only.
	Success Code = 0

	Generic Code = 1

	// Config - the manifest could not be read or is invalid.
	Config Code = 2

	// Destination - the destination root could not be listed.
	Destination Code = 3

	// Snapshot - the new snapshot directory could not be created.
	Snapshot Code = 4

	// Notify - the report could not be sent.
	Notify Code = 6
)

func (c Code) String() string {
	switch c {
	case Success:
		return "success"
	case Generic:
		return "generic error"
	case Config:
		return "configuration error"
	case Destination:
		return "destination not readable"
	case Snapshot:
		return "snapshot creation failed"
	case Notify:
		return "notification failed"
	default:
		return "unknown"
	}
}

func (c Code) Int() int { return int(c) }

// For returns the exit code for err, Success for nil.
func For(err error) Code {
	if err == nil {
		return Success
	}

	var configErr *manifest.ConfigError
	var createErr *executor.SnapshotCreateError
	var notifyErr *notify.Error
	switch {
	case errors.As(err, &configErr):
		return Config
	case errors.Is(err, snapshot.ErrDestinationUnreadable):
		return Destination
	case errors.As(err, &createErr):
		return Snapshot
	case errors.As(err, &notifyErr):
		return Notify
	default:
		return Generic
	}
}
