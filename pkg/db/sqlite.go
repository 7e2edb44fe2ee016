package db

import (
	"database/sql"
	"errors"

	_ "github.com/mattn/go-sqlite3" // registers the sqlite3 driver
	"github.com/rs/zerolog/log"
)

func NewSQLLite(dbpath string) (*SQLLiteDB, error) {
	rawDB, err := sql.Open("sqlite3", dbpath)
	if err != nil {
		return nil, err
	}
	return &SQLLiteDB{rawDB: rawDB}, nil
}

type SQLLiteDB struct {
	rawDB *sql.DB
}

func (db *SQLLiteDB) runStatement(query string) (sql.Result, error) {
	statement, err := db.rawDB.Prepare(query)
	if err != nil {
		return nil, err
	}
	defer statement.Close()

	return statement.Exec()
}

func (db *SQLLiteDB) Init() error {
	_, err := db.runStatement(
		"CREATE TABLE IF NOT EXISTS runs (" +
			"id TEXT PRIMARY KEY, " +
			"manifest TEXT, " +
			"snapshot TEXT, " +
			"outcome TEXT, " +
			"subject TEXT, " +
			"simulate INTEGER, " +
			"started INTEGER, " +
			"finished INTEGER, " +
			"previous INTEGER, " +
			"pruned INTEGER" +
			")")
	if err != nil {
		return err
	}
	log.Debug().Msg("run catalog initialised")

	_, err = db.runStatement("CREATE INDEX IF NOT EXISTS runs_started ON runs (started)")
	return err
}

func (db *SQLLiteDB) AddRun(run *Run) error {
	_, err := db.rawDB.Exec("INSERT INTO runs (id, manifest, snapshot, outcome, subject, simulate, started, finished, previous, pruned) "+
		"VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		run.ID, run.Manifest, run.Snapshot, run.Outcome, run.Subject, run.Simulate,
		run.Started, run.Finished, run.Previous, run.Pruned)
	if err != nil {
		return err
	}
	log.Debug().Str("id", run.ID).Str("outcome", run.Outcome).Msg("run recorded")
	return nil
}

const selectRuns = "SELECT id, manifest, snapshot, outcome, subject, simulate, started, finished, previous, pruned FROM runs"

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row scanner) (*Run, error) {
	run := &Run{}
	err := row.Scan(&run.ID, &run.Manifest, &run.Snapshot, &run.Outcome, &run.Subject, &run.Simulate,
		&run.Started, &run.Finished, &run.Previous, &run.Pruned)
	if err != nil {
		return nil, err
	}
	return run, nil
}

// GetRuns returns the most recent runs first. A limit of zero or less returns all runs.
func (db *SQLLiteDB) GetRuns(limit int) (runs []*Run, err error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := db.rawDB.Query(selectRuns+" ORDER BY started DESC, rowid DESC LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRunByID returns nil without error when no run has the id.
func (db *SQLLiteDB) GetRunByID(id string) (*Run, error) {
	run, err := scanRun(db.rawDB.QueryRow(selectRuns+" WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return run, err
}

func (db *SQLLiteDB) Close() error {
	return db.rawDB.Close()
}
