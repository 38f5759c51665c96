// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package world

// This file holds the raw, ungated component writers used by packages
// that materialize entities directly rather than through the queued
// mutation contract: internal/scanner (rebuilding the world from the live
// system) and the loopback half of internal/extops, whose create/open
// calls are synchronous per spec.md §4.3 and write straight into the
// committed stores. Nothing here consults or touches QueuedChanges.

// InsertDevice allocates a new, already-live device entity (no
// FlagCreate) carrying the given Device component.
func (w *World) InsertDevice(dev Device) DeviceEntity {
	e := w.newDeviceEntity(0)
	w.devices[e] = dev
	return e
}

// SetFlags overwrites e's flag bitfield outright. Used by Scanner to mark
// FlagSupportsTable and by the loopback creator for the same reason.
func (w *World) SetFlags(e DeviceEntity, flags EntityFlags) {
	w.setDeviceFlags(e, flags)
}

// AddFlags ORs extra into e's existing flags.
func (w *World) AddFlags(e DeviceEntity, extra EntityFlags) {
	cur, _ := w.deviceFlags(e)
	w.setDeviceFlags(e, cur|extra)
}

// SetDisk records e as a whole physical disk.
func (w *World) SetDisk(e DeviceEntity, d Disk) { w.disks[e] = d }

// SetTable records e's partition table component.
func (w *World) SetTable(e DeviceEntity, t Table) { w.tables[e] = t }

// SetPartition records e's partition component.
func (w *World) SetPartition(e DeviceEntity, p Partition) { w.partitions[e] = p }

// SetDeviceMapName records e's device-mapper friendly name.
func (w *World) SetDeviceMapName(e DeviceEntity, name string) { w.deviceMaps[e] = name }

// SetLoopback records e's backing file path.
func (w *World) SetLoopback(e DeviceEntity, path string) { w.loopbacks[e] = path }

// SetLuks records e as a LUKS ciphertext device.
func (w *World) SetLuks(e DeviceEntity, l Luks) { w.luks[e] = l }

// SetLv records e as the block target of a logical volume.
func (w *World) SetLv(e DeviceEntity, lv Lv) { w.lvs[e] = lv }

// SetPv records e as a physical volume.
func (w *World) SetPv(e DeviceEntity, pv Pv) { w.pvs[e] = pv }

// AppendChild links child underneath parent in the committed children
// map (spec.md §4.2 step 5: "append the current entity to
// children[slave_entity]").
func (w *World) AppendChild(parent, child DeviceEntity) {
	w.children[parent] = append(w.children[parent], child)
}

// InsertVg allocates a new, already-live VG entity.
func (w *World) InsertVg(vg VolumeGroup) VgEntity {
	e := w.newVgEntity(0)
	w.volumeGroups[e] = vg
	return e
}

// AppendVgChild links a PV or LV entity under a VG for LvmPvsOfVg /
// LvmLvsOfVg bookkeeping performed via the component itself (Pv.Vg,
// Lv.Vg) rather than this map; vgChildren is kept for completeness and
// future use by the LVM bus collaborator.
func (w *World) AppendVgChild(vg VgEntity, child DeviceEntity) {
	w.vgChildren[vg] = append(w.vgChildren[vg], child)
}
