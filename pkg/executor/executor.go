// Package executor runs a single backup: it creates the new snapshot, copies
// the configured sources into it and prunes snapshots beyond the retention
// count.
//
// A run ends in one of three outcomes. Success and PartialFailure are both
// reported through the run log and the notification subject. Fatal means the
// run stopped before any source was copied, either because the destination
// could not be listed or because the snapshot directory could not be
// created; Run then also returns the error.
package executor

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/gentoomaniac/backup-machine/pkg/manifest"
	"github.com/gentoomaniac/backup-machine/pkg/output/local"
	"github.com/gentoomaniac/backup-machine/pkg/runlog"
	"github.com/gentoomaniac/backup-machine/pkg/snapshot"
)

const (
	// ProgramName appears in the log header and in notification subjects.
	ProgramName = "backup-machine"

	// FatalSubject is used when the run aborts before copying anything.
	FatalSubject = "ERROR in " + ProgramName
)

// Filesystem holds every mutating operation of a run. Read only checks
// (listing, existence) go straight to the os package, also in simulate mode.
type Filesystem interface {
	Mkdir(path string) error
	CopyDir(src, dst string) error
	CopyFile(src, dst string) error
	RemoveAll(path string) error
}

type Outcome int

const (
	Success Outcome = iota
	PartialFailure
	Fatal
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case PartialFailure:
		return "partial-failure"
	case Fatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// SnapshotCreateError is returned when the new snapshot directory cannot be made.
type SnapshotCreateError struct {
	Path string
	Err  error
}

func (e *SnapshotCreateError) Error() string {
	return fmt.Sprintf("error making directory %s: %v", e.Path, e.Err)
}

func (e *SnapshotCreateError) Unwrap() error { return e.Err }

// Result describes a finished run.
type Result struct {
	Outcome  Outcome
	Manifest string
	Simulate bool
	Started  time.Time
	// Snapshot is the full path of the snapshot written by this run.
	Snapshot string
	// Previous holds the snapshot names found before the run, newest first.
	Previous []string
	// Pruned holds the names removed, or that would have been removed in simulate mode.
	Pruned []string
}

// Subject returns the notification subject for the outcome.
func (r *Result) Subject() string {
	switch r.Outcome {
	case Fatal:
		return FatalSubject
	case PartialFailure:
		return fmt.Sprintf("ERROR from %s, infile: %s", ProgramName, r.Manifest)
	}
	subject := fmt.Sprintf("summary from %s, infile: %s", ProgramName, r.Manifest)
	if r.Simulate {
		subject = "[simulate] " + subject
	}
	return subject
}

type Option func(*Executor)

// WithSimulate turns every mutating action into a log line.
func WithSimulate(simulate bool) Option {
	return func(e *Executor) { e.simulate = simulate }
}

func WithFilesystem(fs Filesystem) Option {
	return func(e *Executor) { e.fs = fs }
}

func WithClock(now func() time.Time) Option {
	return func(e *Executor) { e.now = now }
}

// WithConsole sets where the run log is echoed, os.Stdout by default.
func WithConsole(w io.Writer) Option {
	return func(e *Executor) { e.console = w }
}

type Executor struct {
	cfg      *manifest.Config
	manifest string
	simulate bool
	fs       Filesystem
	now      func() time.Time
	console  io.Writer
	log      *runlog.Log
}

// New prepares a run of cfg. manifestPath is only used for reporting.
func New(cfg *manifest.Config, manifestPath string, opts ...Option) *Executor {
	e := &Executor{
		cfg:      cfg,
		manifest: manifestPath,
		fs:       local.FS{},
		now:      time.Now,
		console:  os.Stdout,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.log = runlog.New(e.console, fmt.Sprintf("Output from %s, inputs file: %s\n", ProgramName, manifestPath))
	return e
}

// Log returns the run log, which becomes the notification body.
func (e *Executor) Log() *runlog.Log {
	return e.log
}

// Run executes the backup. The returned Result is never nil; the error is
// set only for the Fatal outcome.
func (e *Executor) Run() (*Result, error) {
	res := &Result{
		Manifest: e.manifest,
		Simulate: e.simulate,
		Started:  e.now(),
	}

	previous, err := snapshot.List(e.cfg.Root, e.cfg.Prefix)
	if err != nil {
		e.log.Append("destination directory is not readable/doesn't exist")
		res.Outcome = Fatal
		return res, err
	}
	res.Previous = previous
	log.Info().Strs("snapshots", previous).Msg("currently stored backups")

	dest := filepath.Join(filepath.Clean(e.cfg.Root), snapshot.Name(e.cfg.Prefix, res.Started))
	res.Snapshot = dest

	if e.simulate {
		e.log.Appendf("mkdir %s", dest)
	} else if err := e.fs.Mkdir(dest); err != nil {
		e.log.Append("error making directory")
		res.Outcome = Fatal
		return res, &SnapshotCreateError{Path: dest, Err: err}
	}
	e.log.Appendf("writing to: %s\n\n", dest)

	if e.copyDirs(dest) {
		e.copyFiles(dest)
	}

	if e.log.Failed() {
		res.Outcome = PartialFailure
		log.Warn().Str("snapshot", dest).Msg("copy failed, skipping pruning")
		return res, nil
	}

	res.Pruned = e.prune(previous)
	res.Outcome = Success
	return res, nil
}

// copyDirs copies every configured directory and reports whether the phase
// completed. The first copy error stops the phase across all groups.
func (e *Executor) copyDirs(dest string) bool {
	defer e.log.Append("done with directories\n\n")

	for _, group := range e.cfg.Groups {
		for _, dir := range group.Dirs {
			src := filepath.Clean(group.Root + "/" + dir)
			if !isDir(src) {
				e.log.Appendf("WARNING: directory %s does not exist... skipping.", src)
				continue
			}
			e.log.Appendf("copying %s ...", src)
			if e.simulate {
				continue
			}
			if err := e.fs.CopyDir(src, filepath.Join(dest, dir)); err != nil {
				e.abort(fmt.Sprintf("ERROR copying %s", src), err)
				return false
			}
		}
	}
	return true
}

func (e *Executor) copyFiles(dest string) {
	defer e.log.Append("done with individual files\n\n")

	for _, group := range e.cfg.Groups {
		for _, file := range group.Files {
			src := filepath.Clean(group.Root + "/" + file)
			if !isFile(src) {
				e.log.Appendf("WARNING: file %s does not exist... skipping.", src)
				continue
			}
			e.log.Appendf("copying %s/%s ...", group.Root, file)
			if e.simulate {
				continue
			}
			if err := e.fs.CopyFile(src, filepath.Join(dest, file)); err != nil {
				e.abort(fmt.Sprintf("ERROR copying %s", src), err)
				return
			}
		}
	}
}

func (e *Executor) abort(msg string, err error) {
	log.Error().Err(err).Msg(msg)
	e.log.Append(msg)
	e.log.Append(err.Error())
	e.log.Append("aborting")
	e.log.Fail()
}

// prune removes previous snapshots that no longer fit next to the new one.
// With NStore n the n-1 newest previous snapshots are kept. Removal errors
// are logged and otherwise ignored.
func (e *Executor) prune(previous []string) []string {
	keep := e.cfg.NStore - 1
	if keep < 0 {
		keep = 0
	}
	if len(previous) <= keep {
		return nil
	}

	var pruned []string
	for _, name := range previous[keep:] {
		path := filepath.Join(e.cfg.Root, name)
		e.log.Appendf("removing old backup: %s", path)
		pruned = append(pruned, name)
		if e.simulate {
			continue
		}
		if err := e.fs.RemoveAll(path); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("pruning failed")
			e.log.Appendf("ERROR removing %s", path)
		}
	}
	return pruned
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
