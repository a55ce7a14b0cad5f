package groups

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

const (
	groupFilePermissionsConstant      fs.FileMode = 0o644
	groupDirectoryPermissionsConstant fs.FileMode = 0o755
)

// FileSystem exposes the filesystem operations required by Store.
type FileSystem interface {
	ReadDir(path string) ([]fs.DirEntry, error)
	Lstat(path string) (fs.FileInfo, error)
	Stat(path string) (fs.FileInfo, error)
	ReadFile(path string) ([]byte, error)
	OpenAppend(path string) (io.WriteCloser, error)
	CreateExclusive(path string) error
	Remove(path string) error
	Symlink(target string, link string) error
	MkdirAll(path string, permissions fs.FileMode) error
	Abs(path string) (string, error)
}

// OSFileSystem implements FileSystem using the operating system primitives.
type OSFileSystem struct{}

// ReadDir lists directory entries sorted by file name.
func (OSFileSystem) ReadDir(path string) ([]fs.DirEntry, error) {
	return os.ReadDir(path)
}

// Lstat retrieves file metadata without following symlinks.
func (OSFileSystem) Lstat(path string) (fs.FileInfo, error) {
	return os.Lstat(path)
}

// Stat retrieves file metadata.
func (OSFileSystem) Stat(path string) (fs.FileInfo, error) {
	return os.Stat(path)
}

// ReadFile reads file contents.
func (OSFileSystem) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// OpenAppend opens an existing file for appending.
func (OSFileSystem) OpenAppend(path string) (io.WriteCloser, error) {
	return os.OpenFile(path, os.O_WRONLY|os.O_APPEND, groupFilePermissionsConstant)
}

// CreateExclusive creates an empty file and fails when it already exists.
func (OSFileSystem) CreateExclusive(path string) error {
	file, openError := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, groupFilePermissionsConstant)
	if openError != nil {
		return openError
	}
	return file.Close()
}

// Remove unlinks a path.
func (OSFileSystem) Remove(path string) error {
	return os.Remove(path)
}

// Symlink creates link pointing at target.
func (OSFileSystem) Symlink(target string, link string) error {
	return os.Symlink(target, link)
}

// MkdirAll ensures a directory hierarchy exists with the provided permissions.
func (OSFileSystem) MkdirAll(path string, permissions fs.FileMode) error {
	return os.MkdirAll(path, permissions)
}

// Abs resolves an absolute path.
func (OSFileSystem) Abs(path string) (string, error) {
	return filepath.Abs(path)
}
