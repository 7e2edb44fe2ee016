package db

// DB is the catalog of past backup runs.
type DB interface {
	Init() error
	AddRun(run *Run) error
	GetRuns(limit int) ([]*Run, error)
	GetRunByID(id string) (*Run, error)
	Close() error
}
