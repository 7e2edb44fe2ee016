package snapshot

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// TimestampLayout sorts lexicographically in chronological order.
const TimestampLayout = "2006-01-02_15:04:05"

var ErrDestinationUnreadable = errors.New("destination directory is not readable")

// Timestamp formats t truncated to the minute.
func Timestamp(t time.Time) string {
	return t.Truncate(time.Minute).Format(TimestampLayout)
}

// Name returns the snapshot directory name for a run started at t.
func Name(prefix string, t time.Time) string {
	return prefix + Timestamp(t)
}

// List returns the names of the snapshot directories below root, newest first.
func List(root, prefix string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDestinationUnreadable, err)
	}

	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		// os.Stat follows symlinks, a link to a snapshot directory counts as one
		info, err := os.Stat(filepath.Join(root, name))
		if err != nil || !info.IsDir() {
			continue
		}
		names = append(names, name)
	}

	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	return names, nil
}
