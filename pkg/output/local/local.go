// Package local performs the mutating filesystem operations of a backup run
// against the local destination volume.
package local

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/otiai10/copy"
	"github.com/rs/zerolog/log"
)

// OpError records which operation failed on which path.
type OpError struct {
	Op   string
	Path string
	Err  error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

// FS writes snapshots to the local disk. The zero value is ready to use.
type FS struct {
	// DirMode is used for new snapshot directories, 0755 when unset.
	DirMode os.FileMode
}

// Mkdir creates a single directory. The parent must exist and path must not.
func (l FS) Mkdir(path string) error {
	mode := l.DirMode
	if mode == 0 {
		mode = 0755
	}
	log.Debug().Str("path", path).Msg("creating directory")
	if err := os.Mkdir(path, mode); err != nil {
		return &OpError{Op: "mkdir", Path: path, Err: err}
	}
	return nil
}

// CopyDir copies the tree at src to dst. Symbolic links inside the tree are
// recreated as links, modification times and permissions are kept. dst must
// not exist yet, missing parents of dst are created.
func (l FS) CopyDir(src, dst string) error {
	if _, err := os.Lstat(dst); err == nil {
		return &OpError{Op: "copy", Path: dst, Err: fs.ErrExist}
	}

	// the top level directory itself may be reached through a link
	resolved, err := filepath.EvalSymlinks(src)
	if err != nil {
		return &OpError{Op: "copy", Path: src, Err: err}
	}

	log.Debug().Str("src", resolved).Str("dst", dst).Msg("copying tree")
	err = copy.Copy(resolved, dst, copy.Options{
		OnSymlink: func(string) copy.SymlinkAction {
			return copy.Shallow
		},
		PreserveTimes: true,
	})
	if err != nil {
		return &OpError{Op: "copy", Path: src, Err: err}
	}
	return nil
}

// CopyFile copies the content and permission bits of src to dst, following
// src if it is a link. Parents of dst are created as needed.
func (l FS) CopyFile(src, dst string) error {
	resolved, err := filepath.EvalSymlinks(src)
	if err != nil {
		return &OpError{Op: "copy", Path: src, Err: err}
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return &OpError{Op: "copy", Path: dst, Err: err}
	}

	log.Debug().Str("src", resolved).Str("dst", dst).Msg("copying file")
	if err := copy.Copy(resolved, dst); err != nil {
		return &OpError{Op: "copy", Path: src, Err: err}
	}
	return nil
}

// RemoveAll deletes path and everything below it.
func (l FS) RemoveAll(path string) error {
	log.Debug().Str("path", path).Msg("removing tree")
	if err := os.RemoveAll(path); err != nil {
		return &OpError{Op: "remove", Path: path, Err: err}
	}
	return nil
}
