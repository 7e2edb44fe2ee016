package snapshot

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimestamp(t *testing.T) {
	at := time.Date(2024, 1, 4, 13, 5, 42, 123456789, time.Local)
	assert.Equal(t, "2024-01-04_13:05:00", Timestamp(at))
	assert.Equal(t, "pfx-2024-01-04_13:05:00", Name("pfx-", at))
}

func TestTimestampSortsChronologically(t *testing.T) {
	base := time.Date(2023, 12, 31, 23, 59, 0, 0, time.Local)
	var names []string
	for i := 0; i < 50; i++ {
		names = append(names, Timestamp(base.Add(time.Duration(i*37)*time.Hour)))
	}
	assert.True(t, sort.StringsAreSorted(names))
}

func TestList(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{
		"pfx-2024-01-02_00:00:00",
		"pfx-2024-01-01_00:00:00",
		"pfx-2024-01-03_00:00:00",
		"other-2024-01-05_00:00:00",
	} {
		require.NoError(t, os.Mkdir(filepath.Join(root, name), 0o755))
	}
	// a plain file with the prefix is not a snapshot
	require.NoError(t, os.WriteFile(filepath.Join(root, "pfx-2024-01-09_00:00:00"), nil, 0o644))

	names, err := List(root, "pfx-")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"pfx-2024-01-03_00:00:00",
		"pfx-2024-01-02_00:00:00",
		"pfx-2024-01-01_00:00:00",
	}, names)
}

func TestListFollowsDirectorySymlinks(t *testing.T) {
	root := t.TempDir()
	target := t.TempDir()
	require.NoError(t, os.Symlink(target, filepath.Join(root, "pfx-2024-02-01_00:00:00")))

	names, err := List(root, "pfx-")
	require.NoError(t, err)
	assert.Equal(t, []string{"pfx-2024-02-01_00:00:00"}, names)
}

func TestListEmpty(t *testing.T) {
	names, err := List(t.TempDir(), "pfx-")
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestListUnreadable(t *testing.T) {
	tests := []struct {
		name string
		root func(t *testing.T) string
	}{
		{"missing", func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope") }},
		{"not a directory", func(t *testing.T) string {
			path := filepath.Join(t.TempDir(), "file")
			require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
			return path
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			names, err := List(tt.root(t), "pfx-")
			assert.Nil(t, names)
			assert.True(t, errors.Is(err, ErrDestinationUnreadable))
		})
	}
}
