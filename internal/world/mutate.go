// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package world

import (
	"fmt"

	"diskengine/internal/diskfs"
)

// LVM sizing constants (spec.md §6 "LVM constants").
const (
	lvmHeaderBytes = 1 << 20 // 1 MiB PV header reservation
	lvmExtentBytes = 4 << 20 // 4 MiB default extent
)

// pvSizeFromBytes applies the PV auto-sizing rule used when a partition or
// device is formatted Lvm: subtract the header, then round down to a
// whole extent so a PV never claims more space than it actually has
// (original_source/src/ops/create.rs; see DESIGN.md).
func pvSizeFromBytes(raw uint64) uint64 {
	if raw <= lvmHeaderBytes {
		return 0
	}
	usable := raw - lvmHeaderBytes
	return usable - (usable % lvmExtentBytes)
}

// validateFormatSize enforces the spec.md §6 "Size validity" policy for a
// filesystem about to be staged onto sectors logical sectors of
// logicalSectorSize bytes each. The Luks variant wraps an inner
// filesystem rather than formatting one directly, so it carries no size
// policy of its own and is never checked here.
func validateFormatSize(fs diskfs.Filesystem, sectors, logicalSectorSize uint64) error {
	if err := diskfs.ValidateSize(fs, logicalSectorSize*sectors); err != nil {
		return fmt.Errorf("world: %w", err)
	}
	return nil
}

// applyPartitionCreateVariant stages the filesystem/LUKS/PV side-effects
// of a PartitionCreate onto entity e, which has sectors logical sectors
// of logicalSectorSize bytes each. When viaFormat is true e is an
// existing device being formatted directly (create_on,
// create_as_logical_volume_of); otherwise e is a brand new queued
// partition whose Partition component already lives in queued.partitions.
// Callers must run validateFormatSize before staging anything, so this
// function never fails.
func (w *World) applyPartitionCreateVariant(e DeviceEntity, sectors, logicalSectorSize uint64, create PartitionCreate, viaFormat bool) {
	switch create.variant {
	case variantLuks:
		if viaFormat {
			w.queued.formats[e] = diskfs.Luks
		} else if part, ok := w.queued.partitions[e]; ok {
			part.Filesystem = diskfs.Luks
			w.queued.partitions[e] = part
		}
		child := w.newDeviceEntity(FlagCreate | FlagLuksChild)
		w.queued.luks[e] = queuedLuks{child: child, params: create.luks}
	default:
		if viaFormat {
			w.queued.formats[e] = create.filesystem
		} else if part, ok := w.queued.partitions[e]; ok {
			part.Filesystem = create.filesystem
			w.queued.partitions[e] = part
		}
		if create.filesystem == diskfs.Lvm {
			size := pvSizeFromBytes(logicalSectorSize * sectors)
			w.queued.pvs[e] = queuedPv{pv: LvmPv{SizeBytes: size}}
		}
	}
}

// CreateTable queues a fresh partition table on disk and marks every
// current child for removal, so the create system wipes existing content
// before writing the new table (spec.md §4.1, §4.3 "Table creation").
func (w *World) CreateTable(disk DeviceEntity, kind TableKind) error {
	if err := w.validateSupportsTable(disk); err != nil {
		return err
	}
	existing := append([]DeviceEntity(nil), w.children[disk]...)
	for _, child := range existing {
		w.markRemove(child)
	}
	w.queued.tables[disk] = kind
	flags, _ := w.deviceFlags(disk)
	w.setDeviceFlags(disk, flags|FlagCreateChildren)
	w.managerFlags |= MgrCreate | MgrRemove
	return nil
}

// CreateAsChildOf validates and stages a new partition under parent,
// returning the entity that will be materialized on the next Apply
// (spec.md §4.1, §4.3 "Partition-on-device creation").
func (w *World) CreateAsChildOf(parent DeviceEntity, start, end Sector, label string, create PartitionCreate) (DeviceEntity, error) {
	offset, sectors, err := w.validatePartitionBounds(parent, start, end)
	if err != nil {
		return DeviceEntity{}, err
	}
	parentDev, _ := w.Device(parent)
	if create.variant != variantLuks {
		if err := validateFormatSize(create.filesystem, sectors, parentDev.LogicalSectorSize); err != nil {
			return DeviceEntity{}, err
		}
	}

	e := w.newDeviceEntity(FlagCreate)
	w.queued.devices[e] = Device{
		Sectors:            sectors,
		LogicalSectorSize:  parentDev.LogicalSectorSize,
		PhysicalSectorSize: parentDev.PhysicalSectorSize,
	}
	w.queued.partitions[e] = Partition{Offset: offset, PartLabel: label}
	w.queued.parents[e] = parent
	w.queued.childOrder = append(w.queued.childOrder, e)
	w.applyPartitionCreateVariant(e, sectors, parentDev.LogicalSectorSize, create, false)

	pflags, _ := w.deviceFlags(parent)
	w.setDeviceFlags(parent, pflags|FlagCreateChildren)
	w.managerFlags |= MgrCreate
	return e, nil
}

// CreateOn formats device directly with no intervening partition table,
// reusing its existing offset if it is already a partition (spec.md §4.1
// "create_on").
func (w *World) CreateOn(device DeviceEntity, create PartitionCreate) error {
	dev, ok := w.Device(device)
	if !ok {
		return ErrUnknownDevice
	}
	if create.variant != variantLuks {
		if err := validateFormatSize(create.filesystem, dev.Sectors, dev.LogicalSectorSize); err != nil {
			return err
		}
	}
	w.applyPartitionCreateVariant(device, dev.Sectors, dev.LogicalSectorSize, create, true)
	w.managerFlags |= MgrFormat
	if create.variant == variantLuks {
		w.managerFlags |= MgrCreate
	}
	return nil
}

// CreateAsLogicalVolumeOf validates free extents against vg and stages a
// new logical volume (spec.md §4.1, §4.3 "LV-on-VG creation").
func (w *World) CreateAsLogicalVolumeOf(vg VgEntity, length Sector, name string, create PartitionCreate) (DeviceEntity, error) {
	sectors, err := w.validateLvSize(vg, length)
	if err != nil {
		return DeviceEntity{}, err
	}
	const lvLogicalSectorSize = 512
	if create.variant != variantLuks {
		if err := validateFormatSize(create.filesystem, sectors, lvLogicalSectorSize); err != nil {
			return DeviceEntity{}, err
		}
	}
	e := w.newDeviceEntity(FlagCreate)
	path := "/dev/mapper/" + name
	w.queued.devices[e] = Device{
		Name:               name,
		Path:               path,
		Sectors:            sectors,
		LogicalSectorSize:  lvLogicalSectorSize,
		PhysicalSectorSize: lvLogicalSectorSize,
	}
	w.queued.lvs[e] = queuedLv{lv: LvmLv{Name: name, Path: path}, vg: vg}
	w.queued.deviceMaps[e] = name
	w.queued.vgParents[e] = vg
	w.applyPartitionCreateVariant(e, sectors, lvLogicalSectorSize, create, true)
	w.managerFlags |= MgrCreate | MgrReloadVGs
	return e, nil
}

// VolumeGroupCreate validates that every member is an unclaimed PV and
// stages a new volume group spanning their combined capacity (spec.md
// §4.1 "volume_group_create").
func (w *World) VolumeGroupCreate(name string, pvs []DeviceEntity) (VgEntity, error) {
	for _, pv := range pvs {
		if err := w.validatePv(pv); err != nil {
			return VgEntity{}, err
		}
	}
	var totalBytes uint64
	for _, pv := range pvs {
		info, _ := w.Pv(pv)
		totalBytes += info.Pv.SizeBytes
	}
	extents := totalBytes / lvmExtentBytes

	vg := w.newVgEntity(FlagCreate)
	w.queued.volumeGroups[vg] = VolumeGroup{
		Name:        name,
		ExtentSize:  lvmExtentBytes,
		Extents:     extents,
		ExtentsFree: extents,
	}
	for _, pv := range pvs {
		w.queued.pvParents[pv] = vg
	}
	w.managerFlags |= MgrCreate | MgrReloadVGs
	return vg, nil
}

// Label queues a new partition label for e (spec.md §4.1 "label").
func (w *World) Label(e DeviceEntity, label string) error {
	if !w.deviceIsLive(e) {
		return ErrUnknownDevice
	}
	w.queued.labels[e] = label
	w.managerFlags |= MgrLabel
	return nil
}

// Format queues a new filesystem for e, applying the same Lvm
// auto-sizing rule as PartitionCreate's Plain variant (spec.md §4.1
// "format").
func (w *World) Format(e DeviceEntity, fs diskfs.Filesystem) error {
	dev, ok := w.Device(e)
	if !ok {
		return ErrUnknownDevice
	}
	if err := validateFormatSize(fs, dev.Sectors, dev.LogicalSectorSize); err != nil {
		return err
	}
	w.queued.formats[e] = fs
	if fs == diskfs.Lvm {
		size := pvSizeFromBytes(dev.LogicalSectorSize * dev.Sectors)
		w.queued.pvs[e] = queuedPv{pv: LvmPv{SizeBytes: size}}
	}
	w.managerFlags |= MgrFormat
	return nil
}

// Remove recursively marks e and every transitive child with FlagRemove
// (spec.md §4.1 "remove").
func (w *World) Remove(e DeviceEntity) error {
	if !w.deviceIsLive(e) {
		return ErrUnknownDevice
	}
	w.markRemove(e)
	w.managerFlags |= MgrRemove
	return nil
}

func (w *World) markRemove(e DeviceEntity) {
	flags, ok := w.deviceFlags(e)
	if !ok {
		return
	}
	w.setDeviceFlags(e, flags|FlagRemove)
	for _, child := range w.children[e] {
		w.markRemove(child)
	}
}

// ResizeQueue records a queued resize intent. The Resize system
// (internal/systems) rejects any Apply that observes one, per the
// documented placeholder decision in DESIGN.md (spec.md §4.4.2, §9 open
// question 2).
func (w *World) ResizeQueue(e DeviceEntity, op ResizeOp) error {
	if !w.deviceIsLive(e) {
		return ErrUnknownDevice
	}
	w.queued.resize[e] = op
	w.managerFlags |= MgrResize
	return nil
}

// Unset discards every queued change: entities only ever queued for
// creation are dropped outright, every other entity has REMOVE and
// CREATE_CHILDREN cleared, and all manager flags and queued-change stores
// are emptied (spec.md §4.4.5 "Post-apply").
func (w *World) Unset() {
	w.managerFlags = 0

	for _, key := range w.deviceRegistry.keys() {
		e := DeviceEntity{key: key}
		flags, ok := w.deviceFlags(e)
		if !ok {
			continue
		}
		if flags.Has(FlagCreate) {
			w.dropDeviceEntity(e)
			continue
		}
		w.setDeviceFlags(e, flags&^(FlagRemove|FlagCreateChildren))
	}

	for _, key := range w.vgRegistry.keys() {
		e := VgEntity{key: key}
		flags, ok := w.vgFlags(e)
		if !ok {
			continue
		}
		if flags.Has(FlagCreate) {
			w.dropVgEntity(e)
			continue
		}
		w.setVgFlags(e, flags&^FlagRemove)
	}

	w.queued.clear()
}

// ForgetEncryptionKeys zeroes every stored LUKS passphrase, committed or
// still queued, leaving each luks component's other fields intact
// (spec.md §4.1 "forget_encryption_keys"; see DESIGN.md, supplemented
// from original_source/src/lib.rs).
func (w *World) ForgetEncryptionKeys() {
	for e, l := range w.luks {
		if l.Passphrase != nil {
			l.Passphrase.Zero()
			l.Passphrase = nil
			w.luks[e] = l
		}
	}
	for e, q := range w.queued.luks {
		if q.params.Passphrase != nil {
			q.params.Passphrase.Zero()
			q.params.Passphrase = nil
			w.queued.luks[e] = q
		}
	}
}
