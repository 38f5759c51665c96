// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package extops

import (
	"context"
	"errors"
	"fmt"
	"os"

	"diskengine/internal/world"
)

// Loopback-specific errors (spec.md §7 "Loopback errors").
var (
	ErrControlOpen   = errors.New("extops: opening /dev/loop-control")
	ErrNextFree      = errors.New("extops: finding a free loop device")
	ErrAttach        = errors.New("extops: attaching backing file to loop device")
	ErrFileCreate    = errors.New("extops: creating backing file")
	ErrFileSetLen    = errors.New("extops: sizing backing file")
	ErrProbeNotFound = errors.New("extops: probing newly attached loop device")
)

const loopbackLogicalSectorSize = 512

// CreateLoopback creates a sparse backing file of sizeBytes at path,
// attaches it to a free loop device, and materializes the resulting
// device entity in w immediately — spec.md §4.3's "loopback create" is
// the one synchronous mutation, since the caller needs the new entity id
// back before it can stage anything against it.
func CreateLoopback(ctx context.Context, w *world.World, lb Loopback, prober Prober, path string, sizeBytes uint64) (world.DeviceEntity, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return world.DeviceEntity{}, fmt.Errorf("%w %s: %w", ErrFileCreate, path, err)
	}
	if err := f.Truncate(int64(sizeBytes)); err != nil {
		f.Close()
		os.Remove(path)
		return world.DeviceEntity{}, fmt.Errorf("%w %s: %w", ErrFileSetLen, path, err)
	}
	if err := f.Close(); err != nil {
		return world.DeviceEntity{}, fmt.Errorf("%w %s: %w", ErrFileSetLen, path, err)
	}
	return attachAndMaterialize(ctx, w, lb, prober, path)
}

// OpenLoopback attaches an existing backing file to a free loop device
// and materializes it, for re-opening a fixture created in a previous
// run.
func OpenLoopback(ctx context.Context, w *world.World, lb Loopback, prober Prober, path string) (world.DeviceEntity, error) {
	if _, err := os.Stat(path); err != nil {
		return world.DeviceEntity{}, fmt.Errorf("%w %s: %w", ErrFileCreate, path, err)
	}
	return attachAndMaterialize(ctx, w, lb, prober, path)
}

func attachAndMaterialize(ctx context.Context, w *world.World, lb Loopback, prober Prober, path string) (world.DeviceEntity, error) {
	devicePath, err := lb.Attach(ctx, path)
	if err != nil {
		return world.DeviceEntity{}, fmt.Errorf("%w: %w", ErrAttach, err)
	}

	info, err := prober.DiskInfo(ctx, devicePath)
	if err != nil {
		return world.DeviceEntity{}, fmt.Errorf("%w %s: %w", ErrProbeNotFound, devicePath, err)
	}
	if info.LogicalSectorSize == 0 {
		info.LogicalSectorSize = loopbackLogicalSectorSize
		info.PhysicalSectorSize = loopbackLogicalSectorSize
	}

	fi, statErr := os.Stat(path)
	var sectors uint64
	if statErr == nil {
		sectors = uint64(fi.Size()) / info.LogicalSectorSize
	} else {
		sectors = info.SectorsTotal
	}

	e := w.InsertDevice(world.Device{
		Name:               devicePath,
		Path:               devicePath,
		Sectors:            sectors,
		LogicalSectorSize:  info.LogicalSectorSize,
		PhysicalSectorSize: info.PhysicalSectorSize,
	})
	w.SetFlags(e, world.FlagSupportsTable)
	w.SetLoopback(e, path)
	if info.Table != world.TableNone {
		w.SetTable(e, world.Table{Kind: info.Table})
	}
	return e, nil
}
