package main

import (
	"context"
	"os"

	"github.com/alecthomas/kong"
	"github.com/gentoomaniac/logging"
	"github.com/rs/zerolog/log"

	"github.com/gentoomaniac/backup-machine/pkg/db"
	"github.com/gentoomaniac/backup-machine/pkg/exitcode"
	"github.com/gentoomaniac/backup-machine/pkg/notify"
)

var (
	version = "unset"
	commit  = "unset"
	binName = "backup-machine"
	builtBy = "manual"
	date    = "unset"
)

var cli struct {
	logging.LoggingConfig

	Backup `embed:""`

	Version kong.VersionFlag `help:"Display version."`
}

func main() {
	ctx := kong.Parse(&cli,
		kong.Name(binName),
		kong.Description("Rotating snapshot backups of local files and directories, reported by mail."),
		kong.UsageOnError(),
		kong.Vars{
			"version": version,
			"commit":  commit,
			"binName": binName,
			"builtBy": builtBy,
			"date":    date,
		})
	logging.Setup(&cli.LoggingConfig)

	var notifier notify.Notifier = notify.SMTP{Addr: cli.SMTPAddr, Timeout: cli.SMTPTimeout}
	if cli.NoMail {
		notifier = notify.Writer{Out: os.Stdout}
	}

	var catalog db.DB
	if cli.DBPath != "" {
		catalog = openCatalog(cli.DBPath)
	}

	err := backup(context.Background(), &cli.Backup, notifier, catalog)
	if catalog != nil {
		catalog.Close()
	}
	if code := exitcode.For(err); code != exitcode.Success {
		ctx.Errorf("%s: %v\n", code, err)
		ctx.Exit(code.Int())
	}
	ctx.Exit(0)
}

// openCatalog returns nil when the catalog is unusable, the backup runs regardless.
func openCatalog(path string) db.DB {
	database, err := db.NewSQLLite(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("cannot open run catalog")
		return nil
	}
	if err := database.Init(); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("cannot initialise run catalog")
		database.Close()
		return nil
	}
	return database
}
