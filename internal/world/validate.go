// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package world

// validatePartitionBounds resolves start/end against parent and checks
// the three partition-geometry invariants from spec.md §4.3: inputs not
// inverted, inside device bounds, and non-overlapping with any existing
// or queued sibling.
func (w *World) validatePartitionBounds(parent DeviceEntity, start, end Sector) (offset, sectors uint64, err error) {
	dev, ok := w.Device(parent)
	if !ok {
		return 0, 0, ErrUnknownDevice
	}
	from := start.Resolve(dev)
	to := end.Resolve(dev)
	if to <= from {
		return 0, 0, ErrInputsInverted
	}
	if to > dev.Sectors {
		return 0, 0, ErrExceedsDevice
	}
	if w.overlapsAny(parent, from, to) {
		return 0, 0, ErrPartitionOverlap
	}
	return from, to - from, nil
}

// overlapsAny reports whether [from, to) intersects any committed or
// queued child of parent that isn't marked for removal.
func (w *World) overlapsAny(parent DeviceEntity, from, to uint64) bool {
	for _, child := range w.Children(parent) {
		flags, _ := w.deviceFlags(child)
		if flags.Has(FlagRemove) {
			continue
		}
		part, ok := w.Partition(child)
		if !ok {
			continue
		}
		dev, ok := w.Device(child)
		if !ok {
			continue
		}
		childFrom := part.Offset
		childTo := part.Offset + dev.Sectors
		if from < childTo && childFrom < to {
			return true
		}
	}
	return false
}

// validateSupportsTable fails TablesUnsupported unless e carries
// FlagSupportsTable (spec.md §4.2 "Table creation").
func (w *World) validateSupportsTable(e DeviceEntity) error {
	flags, ok := w.deviceFlags(e)
	if !ok {
		return ErrUnknownDevice
	}
	if !flags.Has(FlagSupportsTable) {
		return ErrTablesUnsupported
	}
	return nil
}

// validatePv fails ExpectedLvmPv unless e is a physical volume not
// already joined to a volume group.
func (w *World) validatePv(e DeviceEntity) error {
	pv, ok := w.Pv(e)
	if !ok {
		return ErrExpectedLvmPv
	}
	if pv.InVg {
		return ErrExpectedLvmPv
	}
	return nil
}

// validateLvSize resolves length against vg's free space and fails
// ExceedsDevice if it would overdraw the volume group once every queued
// LV against the same VG is accounted for (spec.md §4.3).
func (w *World) validateLvSize(vg VgEntity, length Sector) (sectors uint64, err error) {
	vgInfo, ok := w.VolumeGroup(vg)
	if !ok {
		return 0, ErrUnknownVg
	}
	free := vgInfo.SectorsFree()
	for child, target := range w.queued.vgParents {
		if target != vg {
			continue
		}
		if qlv, ok := w.queued.lvs[child]; ok {
			if dev, ok := w.queued.devices[child]; ok {
				_ = qlv
				if dev.Sectors > free {
					free = 0
				} else {
					free -= dev.Sectors
				}
			}
		}
	}
	// length is resolved against a synthetic device spanning the VG's
	// free space, mirroring how partition bounds resolve against a real
	// device's Sectors field.
	n := length.Resolve(Device{Sectors: free, LogicalSectorSize: 512})
	if n > free {
		return 0, ErrExceedsDevice
	}
	return n, nil
}
