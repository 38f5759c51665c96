// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

// Package systems implements the apply engine (spec.md §4.4): the ordered
// systems that turn a World's queued changes into committed state by
// driving the external-operation collaborators in internal/extops and the
// partition-table adapters in internal/table.
package systems

import (
	"context"
	"errors"
	"fmt"

	"diskengine/internal/extops"
	"diskengine/internal/metrics"
	"diskengine/internal/table"
	"diskengine/internal/world"
)

// TableOpener constructs the concrete table.Adapter for a disk's table
// kind. fresh selects Create (a brand-new table) over Open (an existing
// one); production code passes defaultTableOpener, tests substitute one
// backed by table.MockAdapter.
type TableOpener func(kind world.TableKind, path string, sectorSize uint64, fresh bool) (table.Adapter, error)

// Ops bundles the external collaborators the systems pipeline drives.
// Construct one with NewOps in production; tests build an Ops literal
// directly with gomock-backed collaborators.
type Ops struct {
	Mkfs       extops.Mkfs
	Cryptsetup extops.Cryptsetup
	Wipefs     extops.Wipefs
	LvmBus     extops.LvmBus
	OpenTable  TableOpener
}

// NewOps returns an Ops wired to the real extops collaborators and the
// real on-disk table adapters.
func NewOps(mkfs extops.Mkfs, cryptsetup extops.Cryptsetup, wipefs extops.Wipefs, lvmBus extops.LvmBus) Ops {
	return Ops{
		Mkfs:       mkfs,
		Cryptsetup: cryptsetup,
		Wipefs:     wipefs,
		LvmBus:     lvmBus,
		OpenTable:  defaultTableOpener,
	}
}

func defaultTableOpener(kind world.TableKind, path string, sectorSize uint64, fresh bool) (table.Adapter, error) {
	if kind != world.TableGpt {
		return table.NewMbr(), nil
	}
	if fresh {
		return table.Create(path, sectorSize)
	}
	return table.Open(path, sectorSize)
}

// Apply runs the ordered systems — remove, resize, create, modify — and
// unconditionally unsets queued state afterward, whether or not a system
// returned an error (spec.md §4.4, §4.4.5). cancel is polled at every
// system boundary, never in the middle of one (spec.md §5
// "Cancellation").
func Apply(ctx context.Context, w *world.World, cancel *world.CancelFlag, ops Ops) (err error) {
	timer := metrics.NewTimer()
	defer func() {
		timer.ObserveDuration(metrics.ApplyDuration)
		switch {
		case errors.Is(err, world.ErrCancelled):
			metrics.ApplyTotal.WithLabelValues("cancelled").Inc()
		case err != nil:
			metrics.ApplyTotal.WithLabelValues("error").Inc()
		default:
			metrics.ApplyTotal.WithLabelValues("success").Inc()
		}
	}()
	defer w.Unset()

	if cancel.Load() {
		return world.ErrCancelled
	}
	if err := runTimed("remove", func() error { return runRemove(ctx, w, ops) }); err != nil {
		return fmt.Errorf("systems: remove: %w", err)
	}

	if cancel.Load() {
		return world.ErrCancelled
	}
	if err := runTimed("resize", func() error { return runResize(w) }); err != nil {
		return fmt.Errorf("systems: resize: %w", err)
	}

	if cancel.Load() {
		return world.ErrCancelled
	}
	if err := runTimed("create", func() error { return runCreate(ctx, w, ops) }); err != nil {
		return fmt.Errorf("systems: create: %w", err)
	}

	if cancel.Load() {
		return world.ErrCancelled
	}
	if err := runTimed("modify", func() error { return runModify(ctx, w, ops) }); err != nil {
		return fmt.Errorf("systems: modify: %w", err)
	}

	return nil
}

// runTimed records how long a single system took under its name label,
// regardless of whether it returned an error.
func runTimed(name string, fn func() error) error {
	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.SystemDuration, name)
	return fn()
}
