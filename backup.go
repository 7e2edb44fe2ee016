package main

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gentoomaniac/backup-machine/pkg/db"
	"github.com/gentoomaniac/backup-machine/pkg/executor"
	"github.com/gentoomaniac/backup-machine/pkg/manifest"
	"github.com/gentoomaniac/backup-machine/pkg/notify"
)

type Backup struct {
	Simulate    bool          `short:"s" help:"Don't do any copies, just output the steps that would be done."`
	SMTPAddr    string        `name:"smtp-addr" help:"Mail submission service used for the report." default:"localhost:25" env:"BACKUP_MACHINE_SMTP_ADDR"`
	SMTPTimeout time.Duration `name:"smtp-timeout" help:"Timeout for delivering the report." default:"30s"`
	NoMail      bool          `name:"no-mail" help:"Print the report to stdout instead of mailing it."`
	DBPath      string        `short:"d" name:"db" help:"SQLite file recording the history of runs." type:"path" env:"BACKUP_MACHINE_DB"`
	InputFile   string        `arg:"" name:"inputfile" help:"The input file specifying the backup configuration." type:"path"`
}

// backup runs the manifest and reports the outcome. Only fatal conditions are
// returned as errors: an invalid manifest, an unreadable destination, a
// snapshot that cannot be created or a report that cannot be sent. A failed
// copy is reported by mail and returns nil.
func backup(ctx context.Context, params *Backup, notifier notify.Notifier, catalog db.DB, opts ...executor.Option) error {
	runID := uuid.New().String()
	log.Debug().Str("run", runID).Str("manifest", params.InputFile).Bool("simulate", params.Simulate).Msg("starting backup")

	cfg, err := manifest.Load(params.InputFile)
	if err != nil {
		log.Error().Err(err).Str("manifest", params.InputFile).Msg("invalid manifest")
		return err
	}

	opts = append([]executor.Option{executor.WithSimulate(params.Simulate)}, opts...)
	exec := executor.New(cfg, params.InputFile, opts...)
	res, runErr := exec.Run()
	if runErr != nil {
		log.Error().Err(runErr).Str("run", runID).Msg("backup aborted")
	}

	msg := notify.Message{
		From:    cfg.EmailSender,
		To:      cfg.EmailReceiver,
		Subject: res.Subject(),
		Body:    exec.Log().Render(),
		RunID:   runID,
		Date:    time.Now(),
	}
	notifyErr := notifier.Notify(ctx, msg)

	if catalog != nil {
		record(catalog, runID, res)
	}

	if notifyErr != nil {
		log.Error().Err(notifyErr).Str("run", runID).Msg("ERROR sending mail")
		return notifyErr
	}
	log.Info().Str("run", runID).Str("outcome", res.Outcome.String()).Msg("backup finished")
	return runErr
}

func record(catalog db.DB, runID string, res *executor.Result) {
	run := &db.Run{
		ID:       runID,
		Manifest: res.Manifest,
		Snapshot: res.Snapshot,
		Outcome:  res.Outcome.String(),
		Subject:  res.Subject(),
		Simulate: res.Simulate,
		Started:  res.Started.Unix(),
		Finished: time.Now().Unix(),
		Previous: len(res.Previous),
		Pruned:   len(res.Pruned),
	}
	if err := catalog.AddRun(run); err != nil {
		log.Warn().Err(err).Str("run", runID).Msg("cannot record run in catalog")
	}
}
