// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package world

import "sort"

// Device returns the device component for e. Present for every live
// entity, committed or queued-for-creation.
func (w *World) Device(e DeviceEntity) (Device, bool) {
	if d, ok := w.queued.devices[e]; ok {
		return d, true
	}
	d, ok := w.devices[e]
	return d, ok
}

// DeviceByPath searches committed devices for one whose path matches.
// Queued (not-yet-materialized) devices are not searched, even those
// whose queued Device already carries a path.
func (w *World) DeviceByPath(path string) (DeviceEntity, Device, bool) {
	for e, d := range w.devices {
		if d.Path == path {
			return e, d, true
		}
	}
	return DeviceEntity{}, Device{}, false
}

// DeviceByName searches committed devices for one whose name matches.
func (w *World) DeviceByName(name string) (DeviceEntity, Device, bool) {
	for e, d := range w.devices {
		if d.Name == name {
			return e, d, true
		}
	}
	return DeviceEntity{}, Device{}, false
}

// DeviceMapByName searches committed device-map entities for one whose
// friendly name matches (spec.md §4.2 step 6, matching a PV's dm name).
func (w *World) DeviceMapByName(name string) (DeviceEntity, bool) {
	for e, n := range w.deviceMaps {
		if n == name {
			return e, true
		}
	}
	return DeviceEntity{}, false
}

// Devices returns every live device entity (committed and queued), in no
// particular order.
func (w *World) Devices() []DeviceEntity {
	out := make([]DeviceEntity, 0, len(w.devices)+len(w.queued.devices))
	for e := range w.devices {
		out = append(out, e)
	}
	for e := range w.queued.devices {
		if _, committed := w.devices[e]; !committed {
			out = append(out, e)
		}
	}
	return out
}

// Disk returns the disk component for e, if e is a whole physical disk.
func (w *World) Disk(e DeviceEntity) (Disk, bool) {
	d, ok := w.disks[e]
	return d, ok
}

// Disks returns every entity that is a whole physical disk.
func (w *World) Disks() []DeviceEntity {
	out := make([]DeviceEntity, 0, len(w.disks))
	for e := range w.disks {
		out = append(out, e)
	}
	return out
}

// Table returns the partition-table component for e, preferring a queued
// table over a committed one the way every other query does for entities
// with FlagCreate.
func (w *World) Table(e DeviceEntity) (Table, bool) {
	if kind, ok := w.queued.tables[e]; ok {
		return Table{Kind: kind}, true
	}
	t, ok := w.tables[e]
	return t, ok
}

// Partition returns the partition component for e.
func (w *World) Partition(e DeviceEntity) (Partition, bool) {
	if p, ok := w.queued.partitions[e]; ok {
		return p, true
	}
	p, ok := w.partitions[e]
	return p, ok
}

// Partitions returns every entity with a partition component.
func (w *World) Partitions() []DeviceEntity {
	seen := make(map[DeviceEntity]struct{}, len(w.partitions)+len(w.queued.partitions))
	out := make([]DeviceEntity, 0, len(w.partitions)+len(w.queued.partitions))
	for e := range w.partitions {
		seen[e] = struct{}{}
		out = append(out, e)
	}
	for e := range w.queued.partitions {
		if _, ok := seen[e]; !ok {
			out = append(out, e)
		}
	}
	return out
}

// Luks iterates every LUKS ciphertext entity.
func (w *World) Luks() []DeviceEntity {
	out := make([]DeviceEntity, 0, len(w.luks))
	for e := range w.luks {
		out = append(out, e)
	}
	return out
}

// LuksInfo returns the LUKS component for e.
func (w *World) LuksInfo(e DeviceEntity) (Luks, bool) {
	l, ok := w.luks[e]
	return l, ok
}

// BackingFile returns the loopback backing file path for e, if e is a
// loopback device.
func (w *World) BackingFile(e DeviceEntity) (string, bool) {
	p, ok := w.loopbacks[e]
	return p, ok
}

// DeviceMapName returns the device-map friendly name for e, if e is a dm
// target.
func (w *World) DeviceMapName(e DeviceEntity) (string, bool) {
	if n, ok := w.queued.deviceMaps[e]; ok {
		return n, true
	}
	n, ok := w.deviceMaps[e]
	return n, ok
}

// Children returns e's direct children, committed and queued.
func (w *World) Children(e DeviceEntity) []DeviceEntity {
	committed := w.children[e]
	out := make([]DeviceEntity, len(committed))
	copy(out, committed)
	for child, parent := range w.queued.parents {
		if parent == e {
			out = append(out, child)
		}
	}
	return out
}

// Parents computes e's parents by scanning the children map; it is O(N)
// on the number of devices, which spec.md §4.1 accepts because N is
// small.
func (w *World) Parents(e DeviceEntity) []DeviceEntity {
	var out []DeviceEntity
	for parent, kids := range w.children {
		for _, kid := range kids {
			if kid == e {
				out = append(out, parent)
			}
		}
	}
	if parent, ok := w.queued.parents[e]; ok {
		out = append(out, parent)
	}
	return out
}

// Lv returns the logical-volume component for e.
func (w *World) Lv(e DeviceEntity) (Lv, bool) {
	if q, ok := w.queued.lvs[e]; ok {
		return Lv{Lv: q.lv, Vg: q.vg}, true
	}
	lv, ok := w.lvs[e]
	return lv, ok
}

// Pv returns the physical-volume component for e. A committed PV that has
// been queued for membership in a new volume group (VolumeGroupCreate on
// a PV scanned from the live system, not one created this apply) reflects
// that queued assignment even though the PV itself is not in
// queued.pvs.
func (w *World) Pv(e DeviceEntity) (Pv, bool) {
	if q, ok := w.queued.pvs[e]; ok {
		vg, inVg := w.queued.pvParents[e]
		return Pv{Pv: q.pv, Vg: vg, InVg: inVg}, true
	}
	pv, ok := w.pvs[e]
	if !ok {
		return Pv{}, false
	}
	if vg, has := w.queued.pvParents[e]; has {
		pv.Vg = vg
		pv.InVg = true
	}
	return pv, true
}

// LvmLogicalVolumes returns every entity that is the block target of a
// logical volume.
func (w *World) LvmLogicalVolumes() []DeviceEntity {
	seen := make(map[DeviceEntity]struct{})
	out := make([]DeviceEntity, 0, len(w.lvs)+len(w.queued.lvs))
	for e := range w.lvs {
		seen[e] = struct{}{}
		out = append(out, e)
	}
	for e := range w.queued.lvs {
		if _, ok := seen[e]; !ok {
			out = append(out, e)
		}
	}
	return out
}

// LvmPhysicalVolumes returns every entity that is a physical volume.
func (w *World) LvmPhysicalVolumes() []DeviceEntity {
	seen := make(map[DeviceEntity]struct{})
	out := make([]DeviceEntity, 0, len(w.pvs)+len(w.queued.pvs))
	for e := range w.pvs {
		seen[e] = struct{}{}
		out = append(out, e)
	}
	for e := range w.queued.pvs {
		if _, ok := seen[e]; !ok {
			out = append(out, e)
		}
	}
	return out
}

// LvmVolumeGroups returns every VG entity, committed and queued.
func (w *World) LvmVolumeGroups() []VgEntity {
	seen := make(map[VgEntity]struct{})
	out := make([]VgEntity, 0, len(w.volumeGroups)+len(w.queued.volumeGroups))
	for e := range w.volumeGroups {
		seen[e] = struct{}{}
		out = append(out, e)
	}
	for e := range w.queued.volumeGroups {
		if _, ok := seen[e]; !ok {
			out = append(out, e)
		}
	}
	return out
}

// LvmVolumeGroup looks up a VG by name.
func (w *World) LvmVolumeGroup(name string) (VgEntity, VolumeGroup, bool) {
	for e, vg := range w.volumeGroups {
		if vg.Name == name {
			return e, vg, true
		}
	}
	for e, vg := range w.queued.volumeGroups {
		if vg.Name == name {
			return e, vg, true
		}
	}
	return VgEntity{}, VolumeGroup{}, false
}

// VolumeGroup returns the VG component for e.
func (w *World) VolumeGroup(e VgEntity) (VolumeGroup, bool) {
	if vg, ok := w.queued.volumeGroups[e]; ok {
		return vg, true
	}
	vg, ok := w.volumeGroups[e]
	return vg, ok
}

// LvmPvsOfVg returns every PV entity associated with vg.
func (w *World) LvmPvsOfVg(vg VgEntity) []DeviceEntity {
	var out []DeviceEntity
	for e, pv := range w.pvs {
		if pv.InVg && pv.Vg == vg {
			out = append(out, e)
		}
	}
	for e, target := range w.queued.pvParents {
		if target == vg {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].key.index < out[j].key.index })
	return out
}

// LvmLvsOfVg returns every LV entity associated with vg.
func (w *World) LvmLvsOfVg(vg VgEntity) []DeviceEntity {
	var out []DeviceEntity
	for e, lv := range w.lvs {
		if lv.Vg == vg {
			out = append(out, e)
		}
	}
	for e, target := range w.queued.vgParents {
		if target == vg {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].key.index < out[j].key.index })
	return out
}

// IsDisk reports whether e is a whole physical disk.
func (w *World) IsDisk(e DeviceEntity) bool { _, ok := w.disks[e]; return ok }

// IsPartition reports whether e has a partition component.
func (w *World) IsPartition(e DeviceEntity) bool {
	_, ok := w.Partition(e)
	return ok
}

// IsLuks reports whether e is a LUKS ciphertext device.
func (w *World) IsLuks(e DeviceEntity) bool { _, ok := w.luks[e]; return ok }

// IsLvmLv reports whether e is the block target of a logical volume.
func (w *World) IsLvmLv(e DeviceEntity) bool { _, ok := w.Lv(e); return ok }

// IsLvmPv reports whether e is a physical volume.
func (w *World) IsLvmPv(e DeviceEntity) bool { _, ok := w.Pv(e); return ok }

// SectorOverlaps reports whether sector is covered by any committed child
// partition of e.
func (w *World) SectorOverlaps(e DeviceEntity, sector uint64) bool {
	for _, child := range w.children[e] {
		flags, _ := w.deviceFlags(child)
		if flags.Has(FlagRemove) {
			continue
		}
		part, ok := w.partitions[child]
		if !ok {
			continue
		}
		dev, ok := w.devices[child]
		if !ok {
			continue
		}
		if sector >= part.Offset && sector < part.Offset+dev.Sectors {
			return true
		}
	}
	return false
}

// EntityFlags exposes the bitfield for a device entity, for callers and
// tests that need to assert on it directly (e.g. "no entity retains
// CREATE after apply").
func (w *World) EntityFlags(e DeviceEntity) (EntityFlags, bool) { return w.deviceFlags(e) }

// VgEntityFlags exposes the bitfield for a VG entity.
func (w *World) VgEntityFlags(e VgEntity) (EntityFlags, bool) { return w.vgFlags(e) }
