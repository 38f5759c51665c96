// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package systems

import (
	"context"

	"diskengine/internal/world"
)

// runRemove implements spec.md §4.4.1. Two passes: whole table-carrying
// devices marked REMOVE are wiped and their entire subtree is dropped;
// then, for every table-carrying device that itself survives, any
// directly-removed children are erased from its on-disk table in one
// write and their subtrees dropped.
func runRemove(ctx context.Context, w *world.World, ops Ops) error {
	if !w.ManagerFlags().Has(world.MgrRemove) {
		return nil
	}

	for _, e := range w.Devices() {
		flags, ok := w.EntityFlags(e)
		if !ok || !flags.Has(world.FlagSupportsTable) || !flags.Has(world.FlagRemove) {
			continue
		}
		dev, ok := w.Device(e)
		if !ok {
			continue
		}
		if err := ops.Wipefs.Wipe(ctx, dev.Path); err != nil {
			return err
		}
		w.RemoveSubtree(e)
	}

	for _, e := range w.Devices() {
		flags, ok := w.EntityFlags(e)
		if !ok || !flags.Has(world.FlagSupportsTable) || flags.Has(world.FlagRemove) {
			continue
		}
		tbl, ok := w.Table(e)
		if !ok || tbl.Kind == world.TableNone {
			continue
		}
		removed := removedChildren(w, e)
		if len(removed) == 0 {
			continue
		}

		dev, ok := w.Device(e)
		if !ok {
			continue
		}
		adapter, err := ops.OpenTable(tbl.Kind, dev.Path, dev.LogicalSectorSize, false)
		if err != nil {
			return err
		}
		for _, child := range removed {
			part, _ := w.Partition(child)
			// +1 addresses inside the partition so the table finds it by
			// range containment rather than requiring an exact LBA match
			// (spec.md §4.4.1).
			if err := adapter.Remove(part.Offset + 1); err != nil {
				adapter.Close()
				return err
			}
		}
		if err := adapter.Write(); err != nil {
			adapter.Close()
			return err
		}
		adapter.Close()

		for _, child := range removed {
			w.RemoveSubtree(child)
		}
	}

	return nil
}

func removedChildren(w *world.World, parent world.DeviceEntity) []world.DeviceEntity {
	var out []world.DeviceEntity
	for _, child := range w.Children(parent) {
		flags, ok := w.EntityFlags(child)
		if ok && flags.Has(world.FlagRemove) {
			out = append(out, child)
		}
	}
	return out
}
