// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package extops

import (
	"context"
	"fmt"

	utilexec "k8s.io/utils/exec"

	"diskengine/internal/diskfs"
)

// mkfsRecipe is the argv0 and fixed flags for one filesystem (spec.md §6
// "mkfs recipes"). Swap's no-op-if-already-swap check runs a different
// binary (swaplabel) and is done by alreadySwap, not through a recipe.
type mkfsRecipe struct {
	argv0 string
	flags []string
}

var mkfsRecipes = map[diskfs.Filesystem]mkfsRecipe{
	diskfs.Btrfs: {"mkfs.btrfs", []string{"-f"}},
	diskfs.Exfat: {"mkfs.exfat", nil},
	diskfs.Ext2:  {"mkfs.ext2", []string{"-F", "-q"}},
	diskfs.Ext3:  {"mkfs.ext3", []string{"-F", "-q"}},
	diskfs.Ext4:  {"mkfs.ext4", []string{"-F", "-q", "-E", "lazy_itable_init"}},
	diskfs.F2fs:  {"mkfs.f2fs", []string{"-q"}},
	diskfs.Vfat:  {"mkfs.fat", []string{"-F", "32"}},
	diskfs.Ntfs:  {"mkfs.ntfs", []string{"-FQ", "-q"}},
	diskfs.Swap:  {"mkswap", []string{"-f"}},
	diskfs.Xfs:   {"mkfs.xfs", []string{"-f"}},
}

// Mkfs formats a block device with one of the supported filesystems
// (spec.md §4.6 "mkfs").
//
//go:generate mockgen -destination=mock_mkfs.go -mock_names=Mkfs=MockMkfs -package=extops -source=mkfs.go Mkfs
type Mkfs interface {
	Format(ctx context.Context, path string, fs diskfs.Filesystem) error
}

type mkfs struct {
	exec utilexec.Interface
}

// NewMkfs returns the real mkfs.* wrapper.
func NewMkfs() Mkfs {
	return &mkfs{exec: utilexec.New()}
}

// Format runs the recipe for fs against path. Swap is skipped if swaplabel
// already reports a swap signature, matching spec.md §4.4.4.
func (m *mkfs) Format(ctx context.Context, path string, fs diskfs.Filesystem) error {
	if fs == diskfs.Swap {
		if already, err := m.alreadySwap(ctx, path); err != nil {
			return err
		} else if already {
			return nil
		}
	}

	recipe, ok := mkfsRecipes[fs]
	if !ok {
		return fmt.Errorf("extops: no mkfs recipe for filesystem %s", fs)
	}
	if _, err := m.exec.LookPath(recipe.argv0); err != nil {
		return fmt.Errorf("extops: unable to find %s in PATH: %w", recipe.argv0, err)
	}
	args := append(append([]string{}, recipe.flags...), path)
	cmd := m.exec.CommandContext(ctx, recipe.argv0, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("extops: %s %s: %w, output: %s", recipe.argv0, path, err, out)
	}
	return nil
}

func (m *mkfs) alreadySwap(ctx context.Context, path string) (bool, error) {
	if _, err := m.exec.LookPath("swaplabel"); err != nil {
		return false, nil
	}
	cmd := m.exec.CommandContext(ctx, "swaplabel", path)
	_, err := cmd.CombinedOutput()
	if err == nil {
		return true, nil
	}
	if _, ok := err.(utilexec.ExitError); ok {
		return false, nil
	}
	return false, fmt.Errorf("extops: swaplabel %s: %w", path, err)
}
