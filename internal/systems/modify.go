// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package systems

import (
	"context"

	"diskengine/internal/world"
)

// runModify implements spec.md §4.4.4: format every queued filesystem,
// then relabel every queued partition label.
func runModify(ctx context.Context, w *world.World, ops Ops) error {
	mgr := w.ManagerFlags()
	if !mgr.Has(world.MgrFormat) && !mgr.Has(world.MgrLabel) {
		return nil
	}
	if mgr.Has(world.MgrFormat) {
		if err := runFormat(ctx, w, ops); err != nil {
			return err
		}
	}
	if mgr.Has(world.MgrLabel) {
		if err := runLabel(w, ops); err != nil {
			return err
		}
	}
	return nil
}

// runFormat invokes the mkfs collaborator for every queued filesystem and
// records it on the entity's committed partition component, if it has
// one; a PV staged alongside the format (Plain(Lvm) auto-sizing) is
// promoted to committed here too, since a direct Format/CreateOn call
// never passes through the create system's table-child promotion.
func runFormat(ctx context.Context, w *world.World, ops Ops) error {
	for e, fs := range w.QueuedFormats() {
		dev, ok := w.Device(e)
		if !ok {
			continue
		}
		if err := ops.Mkfs.Format(ctx, dev.Path, fs); err != nil {
			return err
		}
		if part, ok := w.Partition(e); ok {
			part.Filesystem = fs
			w.SetPartition(e, part)
		}
		if pv, ok := w.Pv(e); ok {
			w.SetPv(e, pv)
		}
	}
	return nil
}

// runLabel groups every queued label by its parent table, relabels each
// in one table write, then records the new label on the committed
// partition component (spec.md §4.4.4 "Label").
func runLabel(w *world.World, ops Ops) error {
	labels := w.QueuedLabels()
	byParent := make(map[world.DeviceEntity][]world.DeviceEntity)
	for child := range labels {
		parents := w.Parents(child)
		if len(parents) == 0 {
			continue
		}
		byParent[parents[0]] = append(byParent[parents[0]], child)
	}

	for parent, children := range byParent {
		dev, ok := w.Device(parent)
		if !ok {
			continue
		}
		tbl, ok := w.Table(parent)
		if !ok {
			continue
		}
		adapter, err := ops.OpenTable(tbl.Kind, dev.Path, dev.LogicalSectorSize, false)
		if err != nil {
			return err
		}
		for _, child := range children {
			part, _ := w.Partition(child)
			if err := adapter.Label(part.Offset+1, labels[child]); err != nil {
				adapter.Close()
				return err
			}
		}
		if err := adapter.Write(); err != nil {
			adapter.Close()
			return err
		}
		adapter.Close()

		for _, child := range children {
			part, _ := w.Partition(child)
			part.PartLabel = labels[child]
			w.SetPartition(child, part)
		}
	}
	return nil
}
