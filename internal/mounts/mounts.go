// Package mounts provides swappable file mounts to use as fs.FS filesystems
// in a program. A mount serves either an embedded file system or, when a
// directory path is given, that directory on disk. In both cases files are
// addressed under the mount name prefix, so code holding paths such as
// "sql/schema.sql" works unchanged whichever backing is in use.
package mounts

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FileMount is a mount backed by either an embedded fs.FS or a directory.
type FileMount struct {
	MountName string
	fs.FS
}

// String describes a FileMount as a list of files and directories indented by
// the file or directory level.
func (fm FileMount) String() string {
	o := fmt.Sprintf("fileMount %q:\n", fm.MountName)
	sub, err := fs.Sub(fm.FS, fm.MountName)
	if err != nil {
		return o + err.Error()
	}
	s, _ := PrintFS(sub)
	return o + s
}

// ErrInvalidPath reports an invalid mount name.
type ErrInvalidPath struct {
	mountName string
}

// Error fulfills the Error interface requirement for ErrInvalidPath.
func (e ErrInvalidPath) Error() string {
	tpl := strings.Join([]string{
		"mount name %q is not a valid fs.ValidPath path",
		"see https://pkg.go.dev/io/fs#ValidPath for more information.",
	}, "\n")
	return fmt.Sprintf(tpl, e.mountName)
}

// NewFileMount takes an embedded fs.FS or a path to a directory. If dirPath
// is "", the embedded fs is used as-is; it must contain mountName as a
// directory. Otherwise the directory at dirPath is served at the mountName
// prefix. Given an embedding such as
//
//	//go:embed sql
//	var sqlFS embed.FS
//
// both
//
//	NewFileMount("sql", sqlFS, "")
//	NewFileMount("sql", sqlFS, "/etc/cardledger/sql")
//
// yield filesystems where "sql/schema.sql" resolves, the first from the
// binary and the second from disk.
func NewFileMount(mountName string, embeddedFS fs.FS, dirPath string) (*FileMount, error) {

	if mountName == "" {
		return nil, errors.New("no mount name provided for new file mount")
	}
	if !fs.ValidPath(mountName) {
		return nil, ErrInvalidPath{mountName}
	}

	if dirPath == "" {
		check, err := fs.Stat(embeddedFS, mountName)
		if err != nil {
			return nil, fmt.Errorf("embedded mount at %q error: %w", mountName, err)
		}
		if !check.IsDir() {
			return nil, fmt.Errorf("embedded mount at %q is not a directory", mountName)
		}
		return &FileMount{
			mountName,
			embeddedFS,
		}, nil
	}

	s, err := os.Stat(dirPath)
	if err != nil {
		return nil, fmt.Errorf("new mount at %q error: %s", dirPath, err)
	}
	if !s.IsDir() {
		return nil, fmt.Errorf("new mount at %q is not a directory", dirPath)
	}

	return &FileMount{
		mountName,
		prefixFS{prefix: mountName, inner: os.DirFS(dirPath)},
	}, nil
}

// prefixFS serves an inner fs.FS below prefix so that an overriding directory
// addresses files at the same paths as the embedded layout it replaces.
type prefixFS struct {
	prefix string
	inner  fs.FS
}

// Open fulfills fs.FS for prefixFS. Paths outside the prefix do not exist.
func (p prefixFS) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	if name == p.prefix {
		return p.inner.Open(".")
	}
	if strings.HasPrefix(name, p.prefix+"/") {
		return p.inner.Open(strings.TrimPrefix(name, p.prefix+"/"))
	}
	return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
}

// Materialize outputs the data under the mount recursively to the filesystem
// starting at root plus mount name. For example running:
//
//	nf, _ := NewFileMount("sql", sqlFS, "")
//	_ = nf.Materialize("/tmp/")
//
// will create the contents of the mount in "/tmp/sql/". Root must be a
// directory and the constructed output path must not exist on the system.
func (fm *FileMount) Materialize(root string) error {

	checkIsDir := func(path string) error {
		s, err := os.Stat(path)
		if err != nil {
			var fspe *fs.PathError // https://go.dev/wiki/ErrorValueFAQ
			if errors.As(err, &fspe) {
				return errors.New("was not found")
			}
			return err
		}
		if !s.IsDir() {
			return errors.New("is not a directory")
		}
		return nil
	}

	// Check the root exists and the intended file path does not already exist.
	if err := checkIsDir(root); err != nil {
		return fmt.Errorf("materialize root %q invalid: %v", root, err)
	}
	mountRoot := filepath.Join(root, fm.MountName)
	if _, err := os.Stat(mountRoot); !os.IsNotExist(err) {
		return fmt.Errorf("materialization path %q already exists", mountRoot)
	}
	if err := os.MkdirAll(mountRoot, 0755); err != nil {
		return fmt.Errorf("could not make materialization path %q: %v", mountRoot, err)
	}

	sub, err := fs.Sub(fm.FS, fm.MountName)
	if err != nil {
		return fmt.Errorf("could not sub-mount %q: %v", fm.MountName, err)
	}
	return fs.WalkDir(sub, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == "." {
			return nil
		}
		target := filepath.Join(mountRoot, filepath.FromSlash(path))
		if d.IsDir() {
			return os.MkdirAll(target, 0755)
		}
		contents, err := fs.ReadFile(sub, path)
		if err != nil {
			return fmt.Errorf("could not read %q for materialization: %v", path, err)
		}
		return os.WriteFile(target, contents, 0644)
	})
}

// PrintFS lists the files and directories in an fs.FS, indented by level.
func PrintFS(thisFS fs.FS) (string, error) {
	var b strings.Builder
	err := fs.WalkDir(thisFS, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == "." {
			return nil
		}
		depth := strings.Count(path, "/")
		fmt.Fprintf(&b, "%s%s\n", strings.Repeat("  ", depth), filepath.Base(path))
		return nil
	})
	if err != nil {
		return "", err
	}
	return b.String(), nil
}
