package adapter

import (
	"io"
	"os"
)

// FileSystem defines an interface for file system operations to enable mocking
//
//go:generate mockgen -source=filesystem.go -destination=../mocks/filesystem.go -package=mocks -mock_names=FileSystem=MockFileSystem
type FileSystem interface {
	// CreateTemp creates a new temporary file in dir
	CreateTemp(dir, pattern string) (File, error)

	// MkdirTemp creates a new temporary directory in dir and returns its path
	MkdirTemp(dir, pattern string) (string, error)

	// MkdirAll creates a directory along with any necessary parents
	MkdirAll(path string, perm os.FileMode) error

	// Rename renames (moves) oldpath to newpath
	Rename(oldpath, newpath string) error

	// Remove removes the named file or directory
	Remove(name string) error

	// RemoveAll removes path and any children it contains
	RemoveAll(path string) error

	// Stat returns the FileInfo describing the named file
	Stat(name string) (os.FileInfo, error)
}

// File defines an interface for file operations
type File interface {
	io.Writer
	io.Closer
	Name() string
}

// RealFileSystem implements FileSystem using the standard os package
type RealFileSystem struct{}

// NewFileSystem creates a new real file system
func NewFileSystem() FileSystem {
	return &RealFileSystem{}
}

func (fs *RealFileSystem) CreateTemp(dir, pattern string) (File, error) {
	return os.CreateTemp(dir, pattern)
}

func (fs *RealFileSystem) MkdirTemp(dir, pattern string) (string, error) {
	return os.MkdirTemp(dir, pattern)
}

func (fs *RealFileSystem) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

func (fs *RealFileSystem) Rename(oldpath, newpath string) error {
	return os.Rename(oldpath, newpath)
}

func (fs *RealFileSystem) Remove(name string) error {
	return os.Remove(name)
}

func (fs *RealFileSystem) RemoveAll(path string) error {
	return os.RemoveAll(path)
}

func (fs *RealFileSystem) Stat(name string) (os.FileInfo, error) {
	return os.Stat(name)
}
