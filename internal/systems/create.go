// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package systems

import (
	"context"

	"diskengine/internal/diskfs"
	"diskengine/internal/extops"
	"diskengine/internal/world"
)

// runCreate implements spec.md §4.4.3 in order: write fresh tables, add
// every table's queued children and promote them to committed state,
// commit any queued volume groups and logical volumes over the LVM bus,
// and finally materialize every LUKS ciphertext's plaintext child —
// regardless of whether that ciphertext entity came from a table child,
// a direct CreateOn format, or an encrypted logical volume.
func runCreate(ctx context.Context, w *world.World, ops Ops) error {
	if !w.ManagerFlags().Has(world.MgrCreate) && !w.ManagerFlags().Has(world.MgrReloadVGs) {
		return nil
	}

	if err := materializeTables(w, ops); err != nil {
		return err
	}
	if err := materializeTableChildren(w, ops); err != nil {
		return err
	}
	if err := commitVolumeGroups(ctx, w, ops); err != nil {
		return err
	}
	if err := commitLogicalVolumes(ctx, w, ops); err != nil {
		return err
	}
	if err := materializeLuks(ctx, w, ops); err != nil {
		return err
	}
	return nil
}

// materializeTables writes a fresh, empty table for every disk queued for
// one (spec.md §4.4.3 step 1). Writing immediately, before any children
// are added, gives the disk a valid on-disk signature for
// materializeTableChildren to reopen.
func materializeTables(w *world.World, ops Ops) error {
	for _, disk := range w.DisksPendingTable() {
		tbl, _ := w.Table(disk)
		dev, ok := w.Device(disk)
		if !ok {
			return world.ErrUnknownDevice
		}
		adapter, err := ops.OpenTable(tbl.Kind, dev.Path, dev.LogicalSectorSize, true)
		if err != nil {
			return err
		}
		if err := adapter.Write(); err != nil {
			adapter.Close()
			return err
		}
		adapter.Close()
		w.SetTable(disk, tbl)
	}
	return nil
}

type stagedChild struct {
	child world.DeviceEntity
	part  world.Partition
}

// materializeTableChildren implements spec.md §4.4.3 step 2 and the
// non-LUKS half of step 3: every queued child of a disk still carrying
// FlagCreateChildren is added to the disk's in-memory table; only after
// that table writes successfully are the children promoted from queued
// to committed, so a write failure leaves every child queued (each one's
// queued Device has already had its name and path filled in).
func materializeTableChildren(w *world.World, ops Ops) error {
	for _, disk := range w.DisksWithCreateChildren() {
		dev, ok := w.Device(disk)
		if !ok {
			return world.ErrUnknownDevice
		}
		tbl, ok := w.Table(disk)
		if !ok {
			return world.ErrTablesUnsupported
		}
		adapter, err := ops.OpenTable(tbl.Kind, dev.Path, dev.LogicalSectorSize, false)
		if err != nil {
			return err
		}

		var staged []stagedChild
		for _, child := range w.QueuedChildrenOf(disk) {
			flags, ok := w.EntityFlags(child)
			if !ok || !flags.Has(world.FlagCreate) {
				continue
			}
			part, _ := w.Partition(child)
			childDev, _ := w.Device(child)
			num, err := adapter.Add(part.Offset, part.Offset+childDev.Sectors-1, part.PartLabel)
			if err != nil {
				adapter.Close()
				return err
			}
			part.Number = num
			childDev.Name = world.PartitionDeviceName(dev.Name, num)
			childDev.Path = "/dev/" + childDev.Name
			w.SetQueuedDevice(child, childDev)
			staged = append(staged, stagedChild{child: child, part: part})
		}

		if len(staged) == 0 {
			adapter.Close()
			w.ClearFlags(disk, world.FlagCreateChildren)
			continue
		}

		if err := adapter.Write(); err != nil {
			adapter.Close()
			return err
		}
		adapter.Close()

		for _, s := range staged {
			promoteChild(w, s.child)
			w.SetPartition(s.child, s.part)
			w.AppendChild(disk, s.child)
			if s.part.Filesystem != diskfs.Luks && s.part.Filesystem != diskfs.Unknown {
				w.QueueFormat(s.child, s.part.Filesystem)
			}
		}
		w.ClearFlags(disk, world.FlagCreateChildren)
	}
	return nil
}

// promoteChild transfers a queued entity's Device, Partition, and Pv
// components (whichever are present) into their committed stores and
// clears FlagCreate, the generic half of spec.md §4.4.3's "transfer ...
// from queued to committed".
func promoteChild(w *world.World, e world.DeviceEntity) {
	if dev, ok := w.Device(e); ok {
		w.SetDevice(e, dev)
	}
	if part, ok := w.Partition(e); ok {
		w.SetPartition(e, part)
	}
	if pv, ok := w.Pv(e); ok {
		w.SetPv(e, pv)
	}
	w.ClearFlags(e, world.FlagCreate)
}

// commitVolumeGroups implements the VG half of spec.md §9 open question
// 4: every VG still carrying FlagCreate is created over the LVM bus from
// its member PVs' paths, those PVs are promoted to committed, and the VG
// loses its CREATE flag so Unset doesn't drop it.
func commitVolumeGroups(ctx context.Context, w *world.World, ops Ops) error {
	for _, vg := range w.LvmVolumeGroups() {
		flags, ok := w.VgEntityFlags(vg)
		if !ok || !flags.Has(world.FlagCreate) {
			continue
		}
		info, _ := w.VolumeGroup(vg)

		members := w.LvmPvsOfVg(vg)
		pvPaths := make([]string, 0, len(members))
		for _, pv := range members {
			dev, _ := w.Device(pv)
			pvPaths = append(pvPaths, dev.Path)
		}
		if err := ops.LvmBus.VgCreate(ctx, info.Name, pvPaths); err != nil {
			return err
		}

		w.SetVolumeGroup(vg, info)
		for _, pv := range members {
			if pvInfo, ok := w.Pv(pv); ok {
				w.SetPv(pv, pvInfo)
			}
		}
		w.ClearVgFlags(vg, world.FlagCreate)
	}
	return nil
}

// commitLogicalVolumes implements the LV half of spec.md §9 open
// question 4: every LV target still carrying FlagCreate is created over
// the LVM bus, promoted to committed, and its VG's extents_free is
// reduced by the extents it consumed.
func commitLogicalVolumes(ctx context.Context, w *world.World, ops Ops) error {
	for _, vg := range w.LvmVolumeGroups() {
		for _, lv := range w.LvmLvsOfVg(vg) {
			flags, ok := w.EntityFlags(lv)
			if !ok || !flags.Has(world.FlagCreate) {
				continue
			}
			vgInfo, ok := w.VolumeGroup(vg)
			if !ok {
				return world.ErrUnknownVg
			}
			lvInfo, _ := w.Lv(lv)
			dev, ok := w.Device(lv)
			if !ok {
				return world.ErrUnknownDevice
			}
			sizeBytes := dev.Sectors * 512

			if err := ops.LvmBus.LvCreate(ctx, vgInfo.Name, lvInfo.Lv.Name, sizeBytes); err != nil {
				return err
			}

			promoteChild(w, lv)
			w.SetLv(lv, lvInfo)
			w.SetDeviceMapName(lv, lvInfo.Lv.Name)

			extents := sizeBytes / vgInfo.ExtentSize
			if extents > vgInfo.ExtentsFree {
				extents = vgInfo.ExtentsFree
			}
			vgInfo.ExtentsFree -= extents
			w.SetVolumeGroup(vg, vgInfo)
		}
	}
	return nil
}

// materializeLuks implements spec.md §4.4.3 steps 3 (the LUKS branch) and
// 4: format every staged ciphertext with cryptsetup, store its
// passphrase, and populate its plaintext child's Device and
// device-mapper name.
func materializeLuks(ctx context.Context, w *world.World, ops Ops) error {
	for _, e := range w.QueuedLuksEntities() {
		grandchild, params, ok := w.QueuedLuksChild(e)
		if !ok {
			continue
		}
		dev, ok := w.Device(e)
		if !ok {
			return world.ErrUnknownDevice
		}

		cp := extops.CryptsetupParams{KeySizeBits: params.KeySize, Kind: params.Kind}
		if err := ops.Cryptsetup.Format(ctx, dev.Path, cp, params.Passphrase); err != nil {
			return err
		}
		w.SetLuks(e, world.Luks{Passphrase: params.Passphrase})

		luksHeaderSectors := (2 << 20) / dev.LogicalSectorSize
		plaintextSectors := uint64(0)
		if dev.Sectors > luksHeaderSectors {
			plaintextSectors = dev.Sectors - luksHeaderSectors
		}
		w.SetDevice(grandchild, world.Device{
			Name:               params.TargetName,
			Path:               "/dev/mapper/" + params.TargetName,
			Sectors:            plaintextSectors,
			LogicalSectorSize:  dev.LogicalSectorSize,
			PhysicalSectorSize: dev.PhysicalSectorSize,
		})
		w.SetDeviceMapName(grandchild, params.TargetName)
		w.ClearFlags(grandchild, world.FlagCreate)
		w.AppendChild(e, grandchild)
	}
	return nil
}
