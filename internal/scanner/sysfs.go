// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

// Package scanner rebuilds a world.World from the live system: /proc,
// /sys/class/block, the blkid probe, and the LVM management bus. Each
// step in Scan is its own method so it can be exercised independently,
// the way spec-driven steps in this codebase's sibling packages are.
package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SysFS abstracts the handful of /proc and /sys reads the scanner needs,
// so tests can substitute an in-memory fake instead of touching the real
// kernel filesystem.
type SysFS interface {
	// ProcPartitionsLines returns /proc/partitions split into lines.
	ProcPartitionsLines() ([]string, error)
	// ReadFileTrimmed reads a sysfs/procfs attribute file and trims the
	// trailing newline every such file carries.
	ReadFileTrimmed(path string) (string, error)
	// ReadDirNames lists a directory's entry names, e.g.
	// /sys/class/block/<n>/slaves.
	ReadDirNames(path string) ([]string, error)
	// EvalSymlinks resolves a symlink to its canonical target, used to
	// match an LVM LV's reported path to a dm entity's device path.
	EvalSymlinks(path string) (string, error)
}

// osSysFS implements SysFS against the real filesystem, rooted (for
// testability against a chroot-like fixture) at root; root is normally
// "/".
type osSysFS struct {
	root string
}

// NewOSSysFS returns the real SysFS implementation rooted at root.
func NewOSSysFS(root string) SysFS {
	return &osSysFS{root: root}
}

func (f *osSysFS) join(path string) string {
	return filepath.Join(f.root, path)
}

func (f *osSysFS) ProcPartitionsLines() ([]string, error) {
	data, err := os.ReadFile(f.join("/proc/partitions"))
	if err != nil {
		return nil, fmt.Errorf("scanner: reading /proc/partitions: %w", err)
	}
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n"), nil
}

func (f *osSysFS) ReadFileTrimmed(path string) (string, error) {
	data, err := os.ReadFile(f.join(path))
	if err != nil {
		return "", fmt.Errorf("scanner: reading %s: %w", path, err)
	}
	return strings.TrimRight(string(data), "\n"), nil
}

func (f *osSysFS) ReadDirNames(path string) ([]string, error) {
	entries, err := os.ReadDir(f.join(path))
	if err != nil {
		return nil, fmt.Errorf("scanner: reading directory %s: %w", path, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names, nil
}

func (f *osSysFS) EvalSymlinks(path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(f.join(path))
	if err != nil {
		return "", fmt.Errorf("scanner: resolving symlink %s: %w", path, err)
	}
	return resolved, nil
}
