// internal/vfs/vfs.go
// Package vfs is the narrow filesystem capability surface the engine,
// conditions and actions run against. Backing it with afero keeps the
// whole pipeline testable against an in-memory filesystem.
package vfs

import (
	"fmt"
	"time"

	"github.com/spf13/afero"
)

// FileInfo is the subset of stat results the engine cares about.
type FileInfo struct {
	Size    int64
	ModTime time.Time
	IsDir   bool
}

// Fs is the capability interface handed to every stage, condition and
// action through the engine context.
type Fs interface {
	// Stat returns size, mtime and directory-ness. Errors are returned,
	// never swallowed.
	Stat(path string) (FileInfo, error)
	// Exists never returns an error; a permission failure reads as false.
	Exists(path string) bool
	// ReadFile returns the full file contents. Callers are expected to
	// bound the size via Stat before reading.
	ReadFile(path string) (string, error)
	// MkdirAll is idempotent.
	MkdirAll(path string) error
	// Rename is atomic on the same filesystem; cross-device behaviour is
	// whatever the platform rename gives us.
	Rename(from, to string) error
}

type aferoFs struct {
	backend afero.Fs
}

// NewOs returns an Fs over the host filesystem.
func NewOs() Fs {
	return &aferoFs{backend: afero.NewOsFs()}
}

// NewMem returns an Fs over a fresh in-memory filesystem.
func NewMem() Fs {
	return &aferoFs{backend: afero.NewMemMapFs()}
}

// New wraps an arbitrary afero backend.
func New(backend afero.Fs) Fs {
	return &aferoFs{backend: backend}
}

func (a *aferoFs) Stat(path string) (FileInfo, error) {
	info, err := a.backend.Stat(path)
	if err != nil {
		return FileInfo{}, err
	}
	return FileInfo{Size: info.Size(), ModTime: info.ModTime(), IsDir: info.IsDir()}, nil
}

func (a *aferoFs) Exists(path string) bool {
	ok, err := afero.Exists(a.backend, path)
	if err != nil {
		return false
	}
	return ok
}

func (a *aferoFs) ReadFile(path string) (string, error) {
	data, err := afero.ReadFile(a.backend, path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), nil
}

func (a *aferoFs) MkdirAll(path string) error {
	return a.backend.MkdirAll(path, 0o755)
}

func (a *aferoFs) Rename(from, to string) error {
	return a.backend.Rename(from, to)
}
