package db

// Run is one invocation of the backup as recorded in the catalog.
type Run struct {
	ID       string
	Manifest string
	Snapshot string
	Outcome  string
	Subject  string
	Simulate bool
	Started  int64
	Finished int64
	Previous int
	Pruned   int
}
