package manifest

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFullManifest(t *testing.T) {
	cfg, err := Parse([]byte(`
[main]
root = /mnt/backup
prefix = pfx-
nstore = 5
email_sender = backup@example.org
email_receiver = ops@example.org

[/home/user]
dirs = documents , projects,
files = .bashrc,.profile

[/etc]
files = fstab
`))
	require.NoError(t, err)

	assert.Equal(t, "/mnt/backup", cfg.Root)
	assert.Equal(t, "pfx-", cfg.Prefix)
	assert.Equal(t, 5, cfg.NStore)
	assert.Equal(t, "backup@example.org", cfg.EmailSender)
	assert.Equal(t, "ops@example.org", cfg.EmailReceiver)

	require.Len(t, cfg.Groups, 2)
	assert.Equal(t, SourceGroup{
		Root:  "/home/user",
		Dirs:  []string{"documents", "projects"},
		Files: []string{".bashrc", ".profile"},
	}, cfg.Groups[0])
	assert.Equal(t, SourceGroup{Root: "/etc", Files: []string{"fstab"}}, cfg.Groups[1])
}

func TestParseDefaults(t *testing.T) {
	tests := []struct {
		name     string
		manifest string
	}{
		{"empty main", "[main]\n"},
		{"no main", "[/srv]\ndirs = www\n"},
		{"empty input", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse([]byte(tt.manifest))
			require.NoError(t, err)
			assert.Equal(t, "/backup", cfg.Root)
			assert.Equal(t, "my-backup-", cfg.Prefix)
			assert.Equal(t, 3, cfg.NStore)
			assert.Equal(t, "root", cfg.EmailSender)
			assert.Equal(t, "root", cfg.EmailReceiver)
		})
	}
}

func TestParseInvalidMain(t *testing.T) {
	tests := []struct {
		name     string
		manifest string
	}{
		{"unknown option", "[main]\nroot = /backup\ncompress = yes\n"},
		{"nstore not an integer", "[main]\nnstore = three\n"},
		{"nstore zero", "[main]\nnstore = 0\n"},
		{"nstore negative", "[main]\nnstore = -2\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse([]byte(tt.manifest))
			assert.Nil(t, cfg)

			var cerr *ConfigError
			require.True(t, errors.As(err, &cerr), "expected ConfigError, got %v", err)
		})
	}
}

func TestParseUnknownOptionMessage(t *testing.T) {
	_, err := Parse([]byte("[main]\nfoo = bar\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid option in main")
	assert.Contains(t, err.Error(), "foo")
}

func TestParseNstoreNotInteger(t *testing.T) {
	_, err := Parse([]byte("[main]\nnstore = 2.5\n"))

	var cerr *ConfigError
	require.True(t, errors.As(err, &cerr))
	var numErr *strconv.NumError
	assert.True(t, errors.As(err, &numErr))
}

func TestParseKeepsKeyCase(t *testing.T) {
	_, err := Parse([]byte("[main]\nRoot = /backup\n"))
	assert.Error(t, err)
}

func TestParseRepeatedSourceRoots(t *testing.T) {
	cfg, err := Parse([]byte(`
[/data]
dirs = a

[/data]
dirs = b
`))
	require.NoError(t, err)
	require.Len(t, cfg.Groups, 2)
	assert.Equal(t, []string{"a"}, cfg.Groups[0].Dirs)
	assert.Equal(t, []string{"b"}, cfg.Groups[1].Dirs)
}

func TestParseSectionWithoutEntries(t *testing.T) {
	cfg, err := Parse([]byte("[/opt]\ncomment = nothing here\n"))
	require.NoError(t, err)
	require.Len(t, cfg.Groups, 1)
	assert.Empty(t, cfg.Groups[0].Dirs)
	assert.Empty(t, cfg.Groups[0].Files)
}

func TestParseMultilineList(t *testing.T) {
	cfg, err := Parse([]byte("[/home]\ndirs = alice,\n    bob,\n    carol\n"))
	require.NoError(t, err)
	require.Len(t, cfg.Groups, 1)
	assert.Equal(t, []string{"alice", "bob", "carol"}, cfg.Groups[0].Dirs)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "backup.ini")
	require.NoError(t, os.WriteFile(path, []byte("[main]\nnstore = 7\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.NStore)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.ini"))

	var cerr *ConfigError
	require.True(t, errors.As(err, &cerr))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
